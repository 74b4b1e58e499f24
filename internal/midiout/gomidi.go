package midiout

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// ErrNoDriver is returned when no gomidi driver is compiled in.
var ErrNoDriver = errors.New("no gomidi driver registered; build with cgo or set MIDI_DRIVER=log")

func init() {
	register("gomidi", openGomidi)
}

type gomidiBackend struct {
	out  drivers.Out
	send func(midi.Message) error
}

// openGomidi opens the output port whose name contains port, or the first
// output when port is empty.
func openGomidi(port string, log *logrus.Entry) (Backend, error) {
	if drivers.Get() == nil {
		return nil, ErrNoDriver
	}
	var (
		out drivers.Out
		err error
	)
	if port == "" {
		out, err = midi.OutPort(0)
	} else {
		out, err = midi.FindOutPort(port)
	}
	if err != nil {
		return nil, fmt.Errorf("can't find output %q: %w", port, err)
	}
	send, err := midi.SendTo(out)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", out, err)
	}
	log.WithField("port", out.String()).Debug("gomidi output opened")
	return &gomidiBackend{out: out, send: send}, nil
}

func (b *gomidiBackend) Send(msg []byte) error {
	return b.send(midi.Message(msg))
}

func (b *gomidiBackend) Close() error {
	err := b.out.Close()
	midi.CloseDriver()
	return err
}

func (b *gomidiBackend) String() string {
	return b.out.String()
}
