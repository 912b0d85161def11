package credstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/railops/railops/internal/models"
)

const (
	credentialsFile = "credentials.json"
	profileFile     = "profile.json"
)

// File persists session state as JSON documents under a directory, the
// default for interactive CLI use. Writes go through a temp file and
// rename so a crashed write never leaves a torn credential document.
type File struct {
	dir    string
	logger *logrus.Logger
}

// NewFile returns a file-backed store rooted at dir, creating it with
// owner-only permissions if needed.
func NewFile(dir string, logger *logrus.Logger) (*File, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create credential dir: %w", err)
	}
	return &File{dir: dir, logger: logger}, nil
}

func (f *File) LoadCredentials(_ context.Context) (*models.Credentials, error) {
	var creds models.Credentials
	if err := f.read(credentialsFile, &creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

func (f *File) SaveCredentials(_ context.Context, creds *models.Credentials) error {
	return f.write(credentialsFile, creds)
}

func (f *File) LoadProfile(_ context.Context) (*models.Profile, error) {
	var profile models.Profile
	if err := f.read(profileFile, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (f *File) SaveProfile(_ context.Context, profile *models.Profile) error {
	return f.write(profileFile, profile)
}

func (f *File) Clear(_ context.Context) error {
	for _, name := range []string{credentialsFile, profileFile} {
		if err := os.Remove(filepath.Join(f.dir, name)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove %s: %w", name, err)
		}
	}
	return nil
}

func (f *File) read(name string, out interface{}) error {
	data, err := os.ReadFile(filepath.Join(f.dir, name))
	if os.IsNotExist(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		f.logger.WithError(err).WithField("file", name).Warn("Discarding unreadable session document")
		return ErrNotFound
	}
	return nil
}

func (f *File) write(name string, in interface{}) error {
	data, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}
	path := filepath.Join(f.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", name, err)
	}
	return nil
}
