package layout

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Load reads a layout file. The format follows the extension: .yaml/.yml or
// .toml. Keys missing from the file keep their defaults. An empty path
// returns the defaults.
func Load(path string) (Layout, error) {
	l := Default()
	if path == "" {
		return l, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("read layout: %w", err)
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&l); err != nil && !errors.Is(err, io.EOF) {
			return Layout{}, fmt.Errorf("parse layout %s: %w", path, err)
		}
	case ".toml":
		md, err := toml.Decode(string(data), &l)
		if err != nil {
			return Layout{}, fmt.Errorf("parse layout %s: %w", path, err)
		}
		if undec := md.Undecoded(); len(undec) > 0 {
			return Layout{}, fmt.Errorf("parse layout %s: unknown key %s", path, undec[0])
		}
	default:
		return Layout{}, fmt.Errorf("layout %s: unsupported extension %q", path, ext)
	}
	if err := l.Validate(); err != nil {
		return Layout{}, fmt.Errorf("layout %s: %w", path, err)
	}
	return l, nil
}
