package journal

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

var ErrCorrupt = errors.New("journal is corrupt")

// Entry is one submitted transaction.
type Entry struct {
	Address string    `json:"address"`
	ChainID uint64    `json:"chain_id"`
	To      string    `json:"to"`
	TxHash  string    `json:"tx_hash"`
	Value   string    `json:"value,omitempty"`
	Note    string    `json:"note,omitempty"`
	Time    time.Time `json:"time"`
}

// Store keeps a JSON object of flow name -> entries on disk. Writes replace the file
// atomically. A file that no longer decodes is moved aside on the next Record and a
// fresh journal is started.
type Store struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
	log  *zap.Logger
}

func New(path string, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{path: path, now: time.Now, log: log}
}

func (s *Store) Record(flow string, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.Time.IsZero() {
		e.Time = s.now().UTC()
	}
	st, err := s.read()
	if errors.Is(err, ErrCorrupt) {
		backup, merr := s.moveAside()
		if merr != nil {
			return fmt.Errorf("%w; moving it aside: %w", err, merr)
		}
		s.log.Warn("corrupt journal moved aside",
			zap.String("path", s.path),
			zap.String("backup", backup),
			zap.Error(err))
		st, err = map[string][]Entry{}, nil
	}
	if err != nil {
		return err
	}
	st[flow] = append(st[flow], e)
	return s.write(st)
}

func (s *Store) Entries(flow string) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.read()
	if err != nil {
		return nil, err
	}
	return st[flow], nil
}

func (s *Store) read() (map[string][]Entry, error) {
	st := map[string][]Entry{}
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return st, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read journal: %w", err)
	}
	if len(b) == 0 {
		return st, nil
	}
	if err := json.Unmarshal(b, &st); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorrupt, s.path, err)
	}
	return st, nil
}

func (s *Store) moveAside() (string, error) {
	backup := fmt.Sprintf("%s.corrupt-%s", s.path, s.now().UTC().Format("20060102T150405"))
	if err := os.Rename(s.path, backup); err != nil {
		return "", err
	}
	return backup, nil
}

func (s *Store) write(st map[string][]Entry) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(st, "", "    ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("journal rename: %w", err)
	}
	return nil
}
