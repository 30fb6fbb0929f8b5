package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore keeps sessions in memory and rewrites a JSON file on every
// change, so sessions survive a restart of a single instance.
type FileStore struct {
	mu       sync.Mutex
	path     string
	sessions map[string]State
}

// NewFileStore loads path if it exists. A missing file starts empty.
func NewFileStore(path string) (*FileStore, error) {
	sessions, err := loadSessions(path)
	if err != nil {
		return nil, fmt.Errorf("load sessions: %w", err)
	}
	return &FileStore{path: path, sessions: sessions}, nil
}

func loadSessions(path string) (map[string]State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]State), nil
		}
		return nil, err
	}
	sessions := make(map[string]State)
	if len(data) == 0 {
		return sessions, nil
	}
	if err := json.Unmarshal(data, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// save writes to a temp file and renames it over the old one. Caller holds mu.
func (f *FileStore) save() error {
	data, err := json.MarshalIndent(f.sessions, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(f.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}

func (f *FileStore) Create(_ context.Context, s *State) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	prev, existed := f.sessions[s.ID]
	f.sessions[s.ID] = *s
	if err := f.save(); err != nil {
		if existed {
			f.sessions[s.ID] = prev
		} else {
			delete(f.sessions, s.ID)
		}
		return fmt.Errorf("save sessions: %w", err)
	}
	return nil
}

func (f *FileStore) Get(_ context.Context, id string) (*State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return &s, nil
}

func (f *FileStore) Update(_ context.Context, id string, fn func(*State) error) (*State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if err := fn(&s); err != nil {
		return nil, err
	}
	prev := f.sessions[id]
	f.sessions[id] = s
	if err := f.save(); err != nil {
		f.sessions[id] = prev
		return nil, fmt.Errorf("save sessions: %w", err)
	}
	return &s, nil
}

func (f *FileStore) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	prev, ok := f.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	delete(f.sessions, id)
	if err := f.save(); err != nil {
		f.sessions[id] = prev
		return fmt.Errorf("save sessions: %w", err)
	}
	return nil
}
