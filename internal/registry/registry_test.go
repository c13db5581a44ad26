package registry

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	errbuilder "github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingSnapshotter fails every save after the first failAfter calls.
type failingSnapshotter struct {
	failAfter int
	saves     int
}

func (f *failingSnapshotter) Load() (map[string]*Package, error) {
	return nil, nil
}

func (f *failingSnapshotter) Save(map[string]*Package) error {
	f.saves++
	if f.saves > f.failAfter {
		return errors.New("disk full")
	}
	return nil
}

func newTestRegistry(t *testing.T) (*Registry, *SnapshotStore) {
	t.Helper()
	store, err := NewSnapshotStore(t.TempDir())
	require.NoError(t, err)
	reg, err := NewRegistry(store)
	require.NoError(t, err)
	return reg, store
}

func TestRegistry_EmptyCatalog(t *testing.T) {
	reg, _ := newTestRegistry(t)

	assert.Empty(t, reg.ListPackages())
}

func TestRegistry_GetPackage_NotFound(t *testing.T) {
	reg, _ := newTestRegistry(t)

	_, err := reg.GetPackage("nonexistent")

	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeNotFound, errbuilder.CodeOf(err))
}

func TestRegistry_AddRelease(t *testing.T) {
	reg, _ := newTestRegistry(t)

	release, err := reg.AddRelease("requests", "2.31.0", "requests-2.31.0-py3-none-any.whl")
	require.NoError(t, err)
	assert.Equal(t, "2.31.0", release.Version)
	assert.False(t, release.UploadTime.IsZero())

	pkg, err := reg.GetPackage("requests")
	require.NoError(t, err)
	assert.Equal(t, "requests", pkg.Name)
	require.Len(t, pkg.Releases, 1)
	assert.Equal(t, "requests-2.31.0-py3-none-any.whl", pkg.Releases[0].Filename)

	assert.Equal(t, []string{"requests"}, reg.ListPackages())
}

func TestRegistry_AddRelease_OrderedNewestFirst(t *testing.T) {
	reg, _ := newTestRegistry(t)

	versions := []string{"1.0.0", "1.1.0", "0.9.0", "2.0.0"}
	for _, v := range versions {
		_, err := reg.AddRelease("pkg", v, fmt.Sprintf("pkg-%s-py3-none-any.whl", v))
		require.NoError(t, err)
	}

	pkg, err := reg.GetPackage("pkg")
	require.NoError(t, err)
	require.Len(t, pkg.Releases, len(versions))

	// Newest upload first, regardless of version string.
	assert.Equal(t, "2.0.0", pkg.Releases[0].Version)
	for i := 1; i < len(pkg.Releases); i++ {
		assert.False(t, pkg.Releases[i].UploadTime.After(pkg.Releases[i-1].UploadTime),
			"releases must be sorted by upload time descending")
	}
}

func TestRegistry_AddRelease_PersistsSnapshot(t *testing.T) {
	reg, store := newTestRegistry(t)

	_, err := reg.AddRelease("flask", "3.0.0", "flask-3.0.0-py3-none-any.whl")
	require.NoError(t, err)

	// A fresh registry sees the release through the snapshot alone.
	reloaded, err := NewRegistry(store)
	require.NoError(t, err)

	pkg, err := reloaded.GetPackage("flask")
	require.NoError(t, err)
	require.Len(t, pkg.Releases, 1)
	assert.Equal(t, "3.0.0", pkg.Releases[0].Version)
}

func TestRegistry_AddRelease_RollbackOnSaveFailure(t *testing.T) {
	store := &failingSnapshotter{failAfter: 1}
	reg, err := NewRegistry(store)
	require.NoError(t, err)

	_, err = reg.AddRelease("pkg", "1.0.0", "pkg-1.0.0-py3-none-any.whl")
	require.NoError(t, err)

	// Second save fails: the mutation must not survive in memory.
	_, err = reg.AddRelease("pkg", "2.0.0", "pkg-2.0.0-py3-none-any.whl")
	require.Error(t, err)

	pkg, err := reg.GetPackage("pkg")
	require.NoError(t, err)
	require.Len(t, pkg.Releases, 1)
	assert.Equal(t, "1.0.0", pkg.Releases[0].Version)
}

func TestRegistry_AddRelease_RollbackRemovesCreatedPackage(t *testing.T) {
	store := &failingSnapshotter{failAfter: 0}
	reg, err := NewRegistry(store)
	require.NoError(t, err)

	_, err = reg.AddRelease("pkg", "1.0.0", "pkg-1.0.0-py3-none-any.whl")
	require.Error(t, err)

	assert.Empty(t, reg.ListPackages())
	_, err = reg.GetPackage("pkg")
	assert.Error(t, err)
}

func TestRegistry_ConcurrentAddRelease_DistinctPackages(t *testing.T) {
	reg, store := newTestRegistry(t)

	const n = 50
	var wg sync.WaitGroup
	errs := make([]error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("pkg%02d", i)
			_, errs[i] = reg.AddRelease(name, "1.0.0", fmt.Sprintf("%s-1.0.0-py3-none-any.whl", name))
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "upload %d failed", i)
	}
	assert.Len(t, reg.ListPackages(), n)

	// No lost updates in the persisted snapshot either.
	persisted, err := store.Load()
	require.NoError(t, err)
	assert.Len(t, persisted, n)
}

func TestRegistry_GetPackage_ReturnsCopy(t *testing.T) {
	reg, _ := newTestRegistry(t)

	_, err := reg.AddRelease("pkg", "1.0.0", "pkg-1.0.0-py3-none-any.whl")
	require.NoError(t, err)

	pkg, err := reg.GetPackage("pkg")
	require.NoError(t, err)
	pkg.Releases[0].Version = "mutated"

	again, err := reg.GetPackage("pkg")
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", again.Releases[0].Version)
}
