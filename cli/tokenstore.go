package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"taskboard/dto"
)

// tokenStore keeps the signed-in identity between invocations.
type tokenStore struct {
	path string
}

func defaultTokenStore() (*tokenStore, error) {
	if p := os.Getenv("TASKBOARD_SESSION_FILE"); p != "" {
		return &tokenStore{path: p}, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to locate config dir: %w", err)
	}
	return &tokenStore{path: filepath.Join(dir, "taskboard", "session.json")}, nil
}

// Load returns the saved identity, or nil when there is none.
func (s *tokenStore) Load() (*dto.AuthResponse, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var auth dto.AuthResponse
	if err := json.Unmarshal(raw, &auth); err != nil {
		return nil, fmt.Errorf("corrupt session file %s: %w", s.path, err)
	}
	return &auth, nil
}

func (s *tokenStore) Save(auth dto.AuthResponse) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	raw, err := json.Marshal(auth)
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, raw, 0o600)
}

func (s *tokenStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
