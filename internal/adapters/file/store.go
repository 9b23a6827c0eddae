// Package file provides filesystem adapters: a session store writing one JSON
// document per conversation, and a loader reading story configurations.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/tick/pkg/domain"
)

// Store implements ports.SessionStore using the local filesystem.
type Store struct {
	BasePath string
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to ".tick/sessions".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".tick", "sessions")
	}
	return &Store{BasePath: basePath}
}

func (s *Store) path(conversationID string) (string, error) {
	if conversationID == "" {
		return "", fmt.Errorf("conversationID cannot be empty")
	}
	if strings.ContainsAny(conversationID, `/\`) || conversationID == "." || conversationID == ".." {
		return "", fmt.Errorf("invalid conversationID %q", conversationID)
	}
	return filepath.Join(s.BasePath, conversationID+".json"), nil
}

// Save persists the session to a JSON file atomically.
// It writes to a temporary file first, syncs it, then renames it to the destination.
func (s *Store) Save(ctx context.Context, conversationID string, session domain.Session) error {
	destPath, err := s.path(conversationID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure session directory: %w", err)
	}

	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	// Same directory as the destination: rename is atomic on one filesystem.
	tmpFile, err := os.CreateTemp(s.BasePath, "tmp-"+conversationID+"-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Windows cannot rename an open file.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file to session: %w", err)
	}
	return nil
}

// Load retrieves the session from its JSON file.
func (s *Store) Load(ctx context.Context, conversationID string) (domain.Session, error) {
	filePath, err := s.path(conversationID)
	if err != nil {
		return domain.Session{}, err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.Session{}, domain.ErrSessionNotFound
		}
		return domain.Session{}, fmt.Errorf("failed to read session file: %w", err)
	}

	var session domain.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return domain.Session{}, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return session, nil
}

// Delete removes the session file.
func (s *Store) Delete(ctx context.Context, conversationID string) error {
	filePath, err := s.path(conversationID)
	if err != nil {
		return err
	}
	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete session file: %w", err)
	}
	return nil
}

// List returns the stored conversation ids, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	ids := []string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" || strings.HasPrefix(name, "tmp-") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(ids)
	return ids, nil
}
