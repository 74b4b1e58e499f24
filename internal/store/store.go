package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
)

// Load reads values from disk. Missing files return empty data.
func Load(path string) (Values, error) {
	var v Values
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return v, nil
		}
		return v, err
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("parse %s: %w", path, err)
	}
	for c, value := range v.Controllers {
		if c < 0 || c > 127 || value > 127 {
			return Values{}, fmt.Errorf("parse %s: controller %d value %d out of range", path, c, value)
		}
	}
	return v, nil
}

// Save writes values to disk, creating parent directories as needed. The file
// is replaced atomically.
func Save(path string, v Values) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Recorder tracks controller changes and saves them on Flush. It is an output
// for the widgets and is safe for concurrent use.
type Recorder struct {
	path string
	log  *logrus.Entry

	mu     sync.Mutex
	values Values
	dirty  bool
}

// NewRecorder starts from the values already on disk.
func NewRecorder(path string, initial Values, log *logrus.Entry) *Recorder {
	if log == nil {
		log = logrus.StandardLogger().WithField("component", "store")
	}
	return &Recorder{path: path, values: initial.Clone(), log: log}
}

// SendValueChanged records a change.
func (r *Recorder) SendValueChanged(controller int, value uint8) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.values.Get(controller); ok && old == value {
		return
	}
	r.values.Set(controller, value)
	r.dirty = true
}

// Values returns a copy of the recorded values.
func (r *Recorder) Values() Values {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.values.Clone()
}

// Flush saves the values when something changed since the last flush.
func (r *Recorder) Flush() error {
	r.mu.Lock()
	if !r.dirty {
		r.mu.Unlock()
		return nil
	}
	snapshot := r.values.Clone()
	r.dirty = false
	r.mu.Unlock()

	if err := Save(r.path, snapshot); err != nil {
		r.mu.Lock()
		r.dirty = true
		r.mu.Unlock()
		return fmt.Errorf("save values: %w", err)
	}
	r.log.WithField("controllers", len(snapshot.Controllers)).Debug("values saved")
	return nil
}
