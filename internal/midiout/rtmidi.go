//go:build cgo

package midiout

import (
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)
