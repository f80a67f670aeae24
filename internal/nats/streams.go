package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
)

// StreamSnapshots carries snapshot lifecycle events
const StreamSnapshots = "JJSAST_SNAPSHOTS"

const (
	SubjectSnapshotsAll    = "snapshots.>"
	SubjectSnapshotSaved   = "snapshots.saved"
	SubjectSnapshotDeleted = "snapshots.deleted"
)

// EventKind says what happened to a snapshot
type EventKind string

const (
	EventSaved   EventKind = "saved"
	EventDeleted EventKind = "deleted"
)

// SnapshotEvent announces that a snapshot was stored or removed
type SnapshotEvent struct {
	Kind           EventKind `json:"kind"`
	SnapshotID     string    `json:"snapshot_id"`
	Name           string    `json:"name,omitempty"`
	SourceRevision string    `json:"source_revision,omitempty"`
	Methods        int       `json:"methods,omitempty"`
	At             time.Time `json:"at"`
}

// Subject returns the subject the event is published on
func (e SnapshotEvent) Subject() string {
	switch e.Kind {
	case EventSaved:
		return SubjectSnapshotSaved
	case EventDeleted:
		return SubjectSnapshotDeleted
	}
	return ""
}

// DefaultStreamConfig returns the snapshot event stream configuration
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		Name:        StreamSnapshots,
		Subjects:    []string{SubjectSnapshotsAll},
		MaxMsgs:     10000,
		MaxAge:      30 * 24 * time.Hour,
		Replicas:    1,
		Description: "program snapshot events",
	}
}

// SetupStreams creates the snapshot event stream
func (c *Client) SetupStreams(ctx context.Context) error {
	_, err := c.CreateStream(ctx, DefaultStreamConfig())
	return err
}

// PublishSnapshotEvent publishes e on its subject
func (c *Client) PublishSnapshotEvent(ctx context.Context, e SnapshotEvent) error {
	subject := e.Subject()
	if subject == "" {
		return fmt.Errorf("unknown snapshot event kind %q", e.Kind)
	}
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	if _, err := c.Publish(ctx, subject, data); err != nil {
		return err
	}

	log.Debug().Str("subject", subject).Str("snapshot_id", e.SnapshotID).Msg("snapshot event published")
	return nil
}

// WatchSnapshots calls handler for every new snapshot event. Malformed
// messages are logged and skipped.
func (c *Client) WatchSnapshots(ctx context.Context, handler func(SnapshotEvent)) (func(), error) {
	return c.Watch(ctx, StreamSnapshots, []string{SubjectSnapshotsAll}, func(msg jetstream.Msg) {
		e, err := ParseSnapshotEvent(msg.Data())
		if err != nil {
			log.Warn().Err(err).Str("subject", msg.Subject()).Msg("skipping snapshot event")
			return
		}
		handler(e)
	})
}

// ParseSnapshotEvent decodes an event payload
func ParseSnapshotEvent(data []byte) (SnapshotEvent, error) {
	var e SnapshotEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return SnapshotEvent{}, fmt.Errorf("failed to decode event: %w", err)
	}
	if e.Subject() == "" {
		return SnapshotEvent{}, fmt.Errorf("unknown snapshot event kind %q", e.Kind)
	}
	return e, nil
}
