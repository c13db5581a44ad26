// Package storage provides filesystem-backed blob storage for uploaded
// artifacts.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	errbuilder "github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"
)

// Storage defines the contract for artifact blob backends.
type Storage interface {
	PutBlob(name, filename string, data io.Reader) (int64, error)
	GetBlob(name, filename string) (io.ReadCloser, error)
	BlobExists(name, filename string) bool
	DeleteBlob(name, filename string) error
}

// FilesystemStorage implements Storage using the local filesystem,
// laid out as packages/<name>/<filename> under the root directory.
type FilesystemStorage struct {
	packagesDir string
}

// NewFilesystemStorage creates the packages directory if absent.
func NewFilesystemStorage(rootDir string) (*FilesystemStorage, error) {
	packagesDir := filepath.Join(rootDir, "packages")
	if err := os.MkdirAll(packagesDir, 0755); err != nil {
		return nil, ioErr("create packages directory", err)
	}

	log.Info().Str("packages_dir", packagesDir).Msg("filesystem storage initialized")

	return &FilesystemStorage{packagesDir: packagesDir}, nil
}

// PutBlob writes the artifact bytes to a temp file and renames it into
// place, so a concurrent reader never observes a partially written blob.
func (fs *FilesystemStorage) PutBlob(name, filename string, data io.Reader) (int64, error) {
	blobPath, err := fs.blobPath(name, filename)
	if err != nil {
		return 0, err
	}

	if err := os.MkdirAll(filepath.Dir(blobPath), 0755); err != nil {
		return 0, ioErr("create package directory", err)
	}

	tmpPath := blobPath + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return 0, ioErr("create temporary blob file", err)
	}

	written, err := io.Copy(file, data)
	if err != nil {
		file.Close()
		os.Remove(tmpPath)
		return 0, ioErr("write blob data", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return 0, ioErr("close blob file", err)
	}

	if err := os.Rename(tmpPath, blobPath); err != nil {
		os.Remove(tmpPath)
		return 0, ioErr("move blob to final location", err)
	}

	log.Debug().Str("package", name).Str("filename", filename).Int64("size", written).Msg("blob stored")
	return written, nil
}

// GetBlob opens the stored artifact for reading.
func (fs *FilesystemStorage) GetBlob(name, filename string) (io.ReadCloser, error) {
	blobPath, err := fs.blobPath(name, filename)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(blobPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, notFoundErr(name, filename)
		}
		return nil, ioErr("open blob", err)
	}
	return file, nil
}

// BlobExists reports whether the artifact is stored.
func (fs *FilesystemStorage) BlobExists(name, filename string) bool {
	blobPath, err := fs.blobPath(name, filename)
	if err != nil {
		return false
	}
	_, err = os.Stat(blobPath)
	return err == nil
}

// DeleteBlob removes a stored artifact. Used by the upload pipeline's
// rollback path.
func (fs *FilesystemStorage) DeleteBlob(name, filename string) error {
	blobPath, err := fs.blobPath(name, filename)
	if err != nil {
		return err
	}

	if err := os.Remove(blobPath); err != nil {
		if os.IsNotExist(err) {
			return notFoundErr(name, filename)
		}
		return ioErr("delete blob", err)
	}

	log.Debug().Str("package", name).Str("filename", filename).Msg("blob deleted")
	return nil
}

// blobPath validates both path components to prevent traversal outside
// the packages directory.
func (fs *FilesystemStorage) blobPath(name, filename string) (string, error) {
	if !validComponent(name) {
		return "", invalidComponentErr("package name", name)
	}
	if !validComponent(filename) {
		return "", invalidComponentErr("filename", filename)
	}
	return filepath.Join(fs.packagesDir, name, filename), nil
}

func validComponent(s string) bool {
	return s != "" && s != "." && s != ".." && !strings.ContainsAny(s, `/\`)
}

func ioErr(op string, err error) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg(fmt.Sprintf("io failure: %s: %v", op, err))
}

func notFoundErr(name, filename string) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeNotFound).
		WithMsg(fmt.Sprintf("blob not found: %s/%s", name, filename))
}

func invalidComponentErr(what, value string) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(fmt.Sprintf("invalid %s: %q", what, value))
}
