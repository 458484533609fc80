package nodestate

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/matzehuels/ifcwatch/pkg/errors"
	"github.com/matzehuels/ifcwatch/pkg/observability"
)

// FileStore is a file-based node store for CLI applications.
// Each node is stored as a JSON file in a config directory.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
}

// NewFileStore creates a new file-based node store.
// If baseDir is empty, defaults to ~/.config/ifcwatch/nodes/
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		baseDir = filepath.Join(home, ".config", "ifcwatch", "nodes")
	}
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "create node dir")
	}
	return &FileStore{baseDir: baseDir}, nil
}

func (s *FileStore) nodePath(nodeID string) string {
	return filepath.Join(s.baseDir, nodeID+".json")
}

func (s *FileStore) Get(ctx context.Context, nodeID string) (map[string]any, error) {
	if err := errors.ValidateNodeID(nodeID); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := s.read(nodeID)
	observability.Store().OnStoreGet(ctx, BackendFile, nodeID, data != nil)
	return data, err
}

func (s *FileStore) read(nodeID string) (map[string]any, error) {
	raw, err := os.ReadFile(s.nodePath(nodeID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(errors.ErrCodeStore, err, "read node file")
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "parse node %s", nodeID)
	}
	return data, nil
}

func (s *FileStore) Update(ctx context.Context, nodeID string, patch Patch) (Update, error) {
	if err := errors.ValidateNodeID(nodeID); err != nil {
		return Update{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.read(nodeID)
	if err != nil {
		observability.Store().OnStoreUpdate(ctx, BackendFile, nodeID, err)
		return Update{}, err
	}
	next := apply(current, patch)
	err = s.write(nodeID, next)
	observability.Store().OnStoreUpdate(ctx, BackendFile, nodeID, err)
	if err != nil {
		return Update{}, err
	}
	return Update{NodeID: nodeID, Data: clone(next)}, nil
}

// write replaces the node file atomically so readers never see a partial
// document.
func (s *FileStore) write(nodeID string, data map[string]any) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "marshal node %s", nodeID)
	}
	tmp, err := os.CreateTemp(s.baseDir, nodeID+".*.tmp")
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "write node file")
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrap(errors.ErrCodeStore, err, "write node file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(errors.ErrCodeStore, err, "write node file")
	}
	if err := os.Rename(tmp.Name(), s.nodePath(nodeID)); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(errors.ErrCodeStore, err, "write node file")
	}
	return nil
}

func (s *FileStore) Delete(ctx context.Context, nodeID string) error {
	if err := errors.ValidateNodeID(nodeID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.nodePath(nodeID)); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeStore, err, "remove node file")
	}
	return nil
}

func (s *FileStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "read node dir")
	}
	var ids []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		ids = append(ids, strings.TrimSuffix(entry.Name(), ".json"))
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *FileStore) Close() error { return nil }

// Path returns the base directory for node files.
func (s *FileStore) Path() string {
	return s.baseDir
}

var _ Store = (*FileStore)(nil)
