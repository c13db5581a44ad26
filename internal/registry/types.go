package registry

import "time"

// Release is one uploaded version of a package. Immutable once created.
type Release struct {
	Version    string    `json:"version"`
	Filename   string    `json:"filename"`
	UploadTime time.Time `json:"upload_time"`
}

// Package is a name plus its releases, ordered by upload time descending.
type Package struct {
	Name     string    `json:"name"`
	Releases []Release `json:"releases"`
}
