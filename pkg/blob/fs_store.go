package blob

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FSStore keeps versioned blobs as files in a directory, one JSON envelope
// per key. Writes go through a temp file and rename so a snapshot is never
// observed half-written. Meant for local development and tests; production
// uses the Redis backend.
type FSStore struct {
	mu  sync.Mutex
	dir string
}

func NewFSStore(dir string) (*FSStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create blob dir: %w", err)
	}
	return &FSStore{dir: dir}, nil
}

type fsEnvelope struct {
	Version int64  `json:"version"`
	Data    []byte `json:"data"` // base64 via encoding/json
}

func (s *FSStore) path(key string) string {
	// Keys are collection ids; replace path separators defensively anyway.
	safe := strings.ReplaceAll(key, string(os.PathSeparator), "_")
	return filepath.Join(s.dir, safe+".snapshot.json")
}

func (s *FSStore) Get(ctx context.Context, key string) (*Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var env fsEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode blob envelope: %w", err)
	}
	return &Object{Data: env.Data, Version: env.Version}, nil
}

func (s *FSStore) Put(ctx context.Context, key string, data []byte, version int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.path(key)

	var current int64
	if raw, err := os.ReadFile(path); err == nil {
		var env fsEnvelope
		if err := json.Unmarshal(raw, &env); err == nil {
			current = env.Version
		}
	}

	if version <= current {
		return fmt.Errorf("%w: have %d, got %d", ErrPreconditionFailed, current, version)
	}

	raw, err := json.Marshal(fsEnvelope{Version: version, Data: data})
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, ".put-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	return os.Rename(tmpName, path)
}

func (s *FSStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
