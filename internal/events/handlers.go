package events

import (
	"fmt"

	"github.com/rs/zerolog/log"
)

// AuditHandler writes an audit log line for every registered release.
type AuditHandler struct{}

func NewAuditHandler() *AuditHandler {
	return &AuditHandler{}
}

func (h *AuditHandler) CanHandle(eventType EventType) bool {
	return eventType == ReleaseUploaded
}

func (h *AuditHandler) Handle(event Event) error {
	if event.Type != ReleaseUploaded {
		return fmt.Errorf("unsupported event type: %s", event.Type)
	}

	log.Info().
		Str("event_id", event.ID).
		Str("package", event.Package).
		Str("version", event.Version).
		Str("filename", event.Filename).
		Int64("size", event.Size).
		Msg("release uploaded")
	return nil
}
