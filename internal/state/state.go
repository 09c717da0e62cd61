// Package state keeps the client's session between CLI invocations.
package state

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"baasbox-client/internal/model"
)

const fileVersion = 1

type persistedSession struct {
	Version int           `yaml:"version"`
	BaseURL string        `yaml:"baseUrl,omitempty"`
	Session model.Session `yaml:"session"`
	SavedAt time.Time     `yaml:"savedAt"`
}

// Load reads the session saved for baseURL. A missing file, or one saved
// against another server, yields an anonymous session.
func Load(path, baseURL string) (model.Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.Anonymous(), nil
		}
		return model.Session{}, err
	}
	if len(data) == 0 {
		return model.Anonymous(), nil
	}

	var file persistedSession
	if err := yaml.Unmarshal(data, &file); err != nil {
		return model.Session{}, fmt.Errorf("decode %s: %w", path, err)
	}
	if file.Version != fileVersion {
		return model.Session{}, errors.New("unsupported session state version")
	}
	if file.BaseURL != "" && baseURL != "" && file.BaseURL != baseURL {
		return model.Anonymous(), nil
	}
	return file.Session, nil
}

// Save writes s atomically with owner-only permissions.
func Save(path, baseURL string, s model.Session) error {
	if path == "" {
		return errors.New("no state file configured")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}

	data, err := yaml.Marshal(persistedSession{
		Version: fileVersion,
		BaseURL: baseURL,
		Session: s,
		SavedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod temp: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

// Clear removes the saved session. A missing file is not an error.
func Clear(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
