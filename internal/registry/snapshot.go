package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	errbuilder "github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"
)

const snapshotFilename = "index.json"

// Snapshotter persists the full catalog state.
type Snapshotter interface {
	Load() (map[string]*Package, error)
	Save(packages map[string]*Package) error
}

// SnapshotStore persists the catalog as a single JSON file under the
// base path. Every save rewrites the file in full; acceptable for small
// catalogs, a scalability limit for larger ones.
type SnapshotStore struct {
	basePath string
}

// NewSnapshotStore creates the base directory if needed.
func NewSnapshotStore(basePath string) (*SnapshotStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, ioErr("create snapshot directory", err)
	}
	return &SnapshotStore{basePath: basePath}, nil
}

func (s *SnapshotStore) path() string {
	return filepath.Join(s.basePath, snapshotFilename)
}

// Load reads the persisted catalog. A missing snapshot file is not an
// error and yields a nil map; a malformed one is an error the caller
// treats as fatal at startup.
func (s *SnapshotStore) Load() (map[string]*Package, error) {
	data, err := os.ReadFile(s.path())
	if err != nil {
		if os.IsNotExist(err) {
			log.Debug().Str("path", s.path()).Msg("no snapshot file, starting with empty catalog")
			return nil, nil
		}
		return nil, ioErr("read snapshot", err)
	}

	var packages map[string]*Package
	if err := json.Unmarshal(data, &packages); err != nil {
		return nil, serializationErr("decode snapshot", err)
	}

	log.Info().Str("path", s.path()).Int("packages", len(packages)).Msg("snapshot loaded")
	return packages, nil
}

// Save serializes the full catalog and atomically replaces the snapshot
// file: the content is written to a temp file in the same directory and
// renamed over the old snapshot, so a reader never observes a truncated
// file after a crash mid-write.
func (s *SnapshotStore) Save(packages map[string]*Package) error {
	data, err := json.MarshalIndent(packages, "", "  ")
	if err != nil {
		return serializationErr("encode snapshot", err)
	}

	tmpPath := s.path() + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return ioErr("write snapshot", err)
	}
	if err := os.Rename(tmpPath, s.path()); err != nil {
		os.Remove(tmpPath)
		return ioErr("replace snapshot", err)
	}

	return nil
}

func ioErr(op string, err error) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg(fmt.Sprintf("io failure: %s: %v", op, err))
}

func serializationErr(op string, err error) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg(fmt.Sprintf("snapshot: %s: %v", op, err))
}
