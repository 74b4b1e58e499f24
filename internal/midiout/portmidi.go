//go:build portmidi

package midiout

import (
	"fmt"
	"strings"

	"github.com/rakyll/portmidi"
	"github.com/sirupsen/logrus"
)

const portmidiBuffer = 1024

func init() {
	register("portmidi", openPortmidi)
}

type portmidiBackend struct {
	stream *portmidi.Stream
	name   string
}

func openPortmidi(port string, log *logrus.Entry) (Backend, error) {
	if err := portmidi.Initialize(); err != nil {
		return nil, err
	}
	id, name, err := discoverOutput(port)
	if err != nil {
		portmidi.Terminate()
		return nil, err
	}
	stream, err := portmidi.NewOutputStream(id, portmidiBuffer, 0)
	if err != nil {
		portmidi.Terminate()
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	log.WithField("port", name).Debug("portmidi output opened")
	return &portmidiBackend{stream: stream, name: name}, nil
}

// discoverOutput finds the first output device whose name contains port.
func discoverOutput(port string) (portmidi.DeviceID, string, error) {
	if port == "" {
		id := portmidi.DefaultOutputDeviceID()
		if id < 0 {
			return 0, "", fmt.Errorf("no default output device")
		}
		return id, portmidi.Info(id).Name, nil
	}
	for i := 0; i < portmidi.CountDevices(); i++ {
		info := portmidi.Info(portmidi.DeviceID(i))
		if info.IsOutputAvailable && strings.Contains(info.Name, port) {
			return portmidi.DeviceID(i), info.Name, nil
		}
	}
	return 0, "", fmt.Errorf("can't find output %q", port)
}

func (b *portmidiBackend) Send(msg []byte) error {
	if len(msg) != 3 {
		return fmt.Errorf("portmidi: short message of %d bytes", len(msg))
	}
	return b.stream.WriteShort(int64(msg[0]), int64(msg[1]), int64(msg[2]))
}

func (b *portmidiBackend) Close() error {
	err := b.stream.Close()
	portmidi.Terminate()
	return err
}

func (b *portmidiBackend) String() string {
	return b.name
}
