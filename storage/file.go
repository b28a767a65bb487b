package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ruteri/registrar-controller/interfaces"
)

// FileBackend implements a commitment store using the local file system.
// Each record is a JSON document named after the labelhash of its name.
type FileBackend struct {
	baseDir     string
	recordDir   string
	log         *slog.Logger
	locationURI string
}

// NewFileBackend creates a new file commitment store in the specified base directory.
// The records directory is created with owner-only permissions since records hold secrets.
func NewFileBackend(baseDir string, log *slog.Logger) (*FileBackend, error) {
	recordDir := filepath.Join(baseDir, "commitments")
	if err := os.MkdirAll(recordDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create commitments directory: %w", err)
	}

	return &FileBackend{
		baseDir:     baseDir,
		recordDir:   recordDir,
		log:         log,
		locationURI: fmt.Sprintf("file://%s", baseDir),
	}, nil
}

// Load reads the record of name from disk.
// Returns ErrRecordNotFound if the file doesn't exist.
func (b *FileBackend) Load(ctx context.Context, name string) (*interfaces.CommitmentRecord, error) {
	filePath := b.getFilePath(name)

	data, err := os.ReadFile(filePath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, interfaces.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var record interfaces.CommitmentRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to parse record %s: %w", filePath, err)
	}

	b.log.Debug("Loaded commitment record from file",
		slog.String("path", filePath),
		slog.String("phase", record.Phase.String()))

	return &record, nil
}

// Save writes the record atomically by renaming a temporary file into place.
func (b *FileBackend) Save(ctx context.Context, record *interfaces.CommitmentRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}

	filePath := b.getFilePath(record.Name)
	tmp, err := os.CreateTemp(b.recordDir, ".record-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp.Name(), filePath); err != nil {
		return fmt.Errorf("failed to move record into place: %w", err)
	}

	b.log.Debug("Stored commitment record in file",
		slog.String("path", filePath),
		slog.String("phase", record.Phase.String()))

	return nil
}

// Delete removes the record of name.
func (b *FileBackend) Delete(ctx context.Context, name string) error {
	err := os.Remove(b.getFilePath(name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove file: %w", err)
	}
	return nil
}

// Available checks if the file backend is accessible by verifying the records directory exists.
func (b *FileBackend) Available(ctx context.Context) bool {
	_, err := os.Stat(b.recordDir)
	if err != nil {
		b.log.Debug("File backend unavailable", "err", err)
		return false
	}
	return true
}

// LocationURI returns the URI that identifies this storage backend.
func (b *FileBackend) LocationURI() string {
	return b.locationURI
}

func (b *FileBackend) getFilePath(name string) string {
	return filepath.Join(b.recordDir, interfaces.RecordKey(name)+".json")
}
