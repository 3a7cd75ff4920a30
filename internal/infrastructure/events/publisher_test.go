package events

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"applytrack/internal/domain/tracker"
)

func TestNopPublisherAcceptsEverything(t *testing.T) {
	var p NopPublisher
	err := p.PublishStatusChanged(context.Background(), tracker.StatusChanged{
		ApplicationID: uuid.New(),
		ListingID:     uuid.New(),
		Status:        tracker.StatusApplied,
		LastStatusAt:  tracker.MustDate("2024-03-01"),
		OccurredAt:    time.Now(),
	})
	if err != nil {
		t.Fatalf("PublishStatusChanged() error = %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}

func TestNewNATSPublisherValidatesInput(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		subject string
	}{
		{name: "missing url", url: "", subject: "applytrack.applications.status"},
		{name: "missing subject", url: "nats://127.0.0.1:4222", subject: " "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewNATSPublisher(context.Background(), tt.url, tt.subject); err == nil {
				t.Fatalf("NewNATSPublisher(%q, %q) error = nil", tt.url, tt.subject)
			}
		})
	}
}

func TestNATSPublisherCloseWithoutConnection(t *testing.T) {
	p := &NATSPublisher{}
	if err := p.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}
