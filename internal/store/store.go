// Package store is the JSON-backed persistence layer. Each entity group
// lives in its own file under the data directory; loads default to the
// caller's zero value when the file is missing, and writes go through a
// temp file + rename so a crash never leaves a partial file behind.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Store reads and writes one JSON file per entity group.
type Store struct {
	dir string
	log *zap.Logger

	// OnFault is invoked once per failed read or write, after logging.
	// Used by the gateway to count persistence faults.
	OnFault func()
}

// New creates the data directory if needed and returns a Store.
func New(dir string, log *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{dir: dir, log: log}, nil
}

// Dir returns the data directory.
func (s *Store) Dir() string { return s.dir }

// Load unmarshals the named file into v. A missing file leaves v
// untouched and returns false. Malformed content or a read error leaves v
// untouched, logs the fault and returns false: the caller proceeds with
// its default.
func (s *Store) Load(name string, v any) bool {
	path := filepath.Join(s.dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false
		}
		s.fault("load", name, err)
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		s.fault("load", name, err)
		return false
	}
	return true
}

// Save marshals v and writes it atomically to the named file. Best
// effort: a failure is logged and reported via OnFault, never fatal.
func (s *Store) Save(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		s.fault("save", name, err)
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		s.fault("save", name, err)
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		s.fault("save", name, err)
		return fmt.Errorf("rename %s: %w", name, err)
	}
	return nil
}

func (s *Store) fault(op, name string, err error) {
	s.log.Error("store fault", zap.String("op", op), zap.String("file", name), zap.Error(err))
	if s.OnFault != nil {
		s.OnFault()
	}
}
