// Package events provides an in-process event bus decoupling the upload
// pipeline from consumers of registration events.
package events

import (
	"time"
)

type EventType string

const (
	ReleaseUploaded EventType = "release.uploaded"
)

type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Package   string    `json:"package,omitempty"`
	Version   string    `json:"version,omitempty"`
	Filename  string    `json:"filename,omitempty"`
	Size      int64     `json:"size,omitempty"`
}

type EventHandler interface {
	Handle(event Event) error
	CanHandle(eventType EventType) bool
}

type EventBus interface {
	Publish(event Event) error
	Subscribe(handler EventHandler) error
	Unsubscribe(handler EventHandler) error
	Start() error
	Stop() error
}
