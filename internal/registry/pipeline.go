package registry

import (
	"context"
	"io"

	"github.com/rs/zerolog/log"

	"wheelhouse/internal/events"
	"wheelhouse/internal/wheel"
)

// Part is one named binary part of an upload stream.
type Part struct {
	Filename string
	Data     io.Reader
}

// BlobStore is the subset of blob storage the pipeline needs.
type BlobStore interface {
	PutBlob(name, filename string, data io.Reader) (int64, error)
	DeleteBlob(name, filename string) error
}

// Pipeline stores accepted wheel artifacts as blobs and registers them
// in the catalog.
type Pipeline struct {
	registry *Registry
	blobs    BlobStore
	bus      events.EventBus
}

// NewPipeline creates an upload pipeline. The event bus may be nil, in
// which case no events are published.
func NewPipeline(reg *Registry, blobs BlobStore, bus events.EventBus) *Pipeline {
	return &Pipeline{
		registry: reg,
		blobs:    blobs,
		bus:      bus,
	}
}

// Process consumes the named parts of one upload request. Parts without
// the wheel extension are skipped; an accepted part whose filename fails
// to parse fails the whole request. Blob write and catalog registration
// are kept consistent by rollback: a blob written before a failed
// registration is deleted again, so every stored blob has a matching
// release entry. Returns the number of accepted parts.
func (p *Pipeline) Process(ctx context.Context, parts []Part) (int, error) {
	accepted := 0
	for _, part := range parts {
		select {
		case <-ctx.Done():
			return accepted, ctx.Err()
		default:
		}

		if !wheel.IsWheel(part.Filename) {
			log.Debug().Str("filename", part.Filename).Msg("skipping non-wheel part")
			continue
		}

		name, version, err := wheel.ParseFilename(part.Filename)
		if err != nil {
			return accepted, err
		}

		size, err := p.blobs.PutBlob(name, part.Filename, part.Data)
		if err != nil {
			return accepted, err
		}

		if _, err := p.registry.AddRelease(name, version, part.Filename); err != nil {
			if delErr := p.blobs.DeleteBlob(name, part.Filename); delErr != nil {
				log.Error().Err(delErr).
					Str("package", name).
					Str("filename", part.Filename).
					Msg("orphaned blob left behind after failed registration")
			}
			return accepted, err
		}

		if p.bus != nil {
			if err := p.bus.Publish(events.Event{
				Type:     events.ReleaseUploaded,
				Package:  name,
				Version:  version,
				Filename: part.Filename,
				Size:     size,
			}); err != nil {
				log.Warn().Err(err).Str("package", name).Msg("failed to publish release uploaded event")
			}
		}

		log.Info().
			Str("package", name).
			Str("version", version).
			Str("filename", part.Filename).
			Int64("size", size).
			Msg("package uploaded")
		accepted++
	}
	return accepted, nil
}
