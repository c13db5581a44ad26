// Package registry implements the in-memory release catalog, its
// persisted snapshot and the upload pipeline that mutates both.
package registry

import (
	"fmt"
	"sort"
	"sync"
	"time"

	errbuilder "github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"
)

// Registry is the concurrency-safe catalog of packages and releases. It
// is the single source of truth; the snapshot file is a serialized copy
// of its state, never an independent store. A single read/write lock
// covers all packages: readers run concurrently, a writer is exclusive
// for the whole mutate-then-persist sequence.
type Registry struct {
	mu       sync.RWMutex
	packages map[string]*Package
	store    Snapshotter
}

// NewRegistry loads the catalog from the snapshot store. A missing
// snapshot yields an empty catalog.
func NewRegistry(store Snapshotter) (*Registry, error) {
	packages, err := store.Load()
	if err != nil {
		return nil, err
	}
	if packages == nil {
		packages = make(map[string]*Package)
	}
	return &Registry{packages: packages, store: store}, nil
}

// ListPackages returns all package names, sorted.
func (r *Registry) ListPackages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.packages))
	for name := range r.packages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetPackage returns a copy of the named package.
func (r *Registry) GetPackage(name string) (Package, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pkg, ok := r.packages[name]
	if !ok {
		return Package{}, notFoundErr(name)
	}

	out := Package{Name: pkg.Name, Releases: make([]Release, len(pkg.Releases))}
	copy(out.Releases, pkg.Releases)
	return out, nil
}

// AddRelease records a new release stamped with the current time and
// persists the full snapshot before returning. The write lock spans the
// whole operation, so any reader that observes the new release can rely
// on the durable snapshot already containing it. If persisting fails the
// in-memory mutation is rolled back and the error is returned: memory
// never runs ahead of a failed disk write.
func (r *Registry) AddRelease(name, version, filename string) (Release, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pkg, existed := r.packages[name]
	if !existed {
		pkg = &Package{Name: name}
		r.packages[name] = pkg
	}
	prev := pkg.Releases

	release := Release{
		Version:    version,
		Filename:   filename,
		UploadTime: time.Now().UTC(),
	}

	releases := make([]Release, 0, len(prev)+1)
	releases = append(releases, prev...)
	releases = append(releases, release)
	// Newest first; stable, so sub-resolution timestamp ties keep
	// insertion order.
	sort.SliceStable(releases, func(i, j int) bool {
		return releases[i].UploadTime.After(releases[j].UploadTime)
	})
	pkg.Releases = releases

	if err := r.store.Save(r.packages); err != nil {
		if existed {
			pkg.Releases = prev
		} else {
			delete(r.packages, name)
		}
		return Release{}, err
	}

	log.Debug().Str("package", name).Str("version", version).Str("filename", filename).Msg("release recorded")
	return release, nil
}

func notFoundErr(name string) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeNotFound).
		WithMsg(fmt.Sprintf("package not found: %s", name))
}
