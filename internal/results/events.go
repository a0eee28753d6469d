package results

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/noah-isme/sketch-eval-api/internal/models"
)

// LoadedEvent is published after a results table has been fetched and parsed.
type LoadedEvent struct {
	Source   string    `json:"source"`
	FileName string    `json:"file_name"`
	Rows     int       `json:"rows"`
	Columns  []string  `json:"columns"`
	LoadedAt time.Time `json:"loaded_at"`
}

// NATSPublisher publishes LoadedEvent messages on a NATS subject.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
	nodeID  string
}

// NewNATSPublisher builds a publisher on subject.
func NewNATSPublisher(conn *nats.Conn, subject string) *NATSPublisher {
	return &NATSPublisher{
		conn:    conn,
		subject: subject,
		nodeID:  uuid.NewString(),
	}
}

func (p *NATSPublisher) PublishLoaded(ctx context.Context, table *models.ResultsTable) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(newLoadedEvent(p.nodeID, table))
	if err != nil {
		return err
	}
	return p.conn.Publish(p.subject, payload)
}

func newLoadedEvent(source string, table *models.ResultsTable) LoadedEvent {
	return LoadedEvent{
		Source:   source,
		FileName: table.FileName,
		Rows:     table.Len(),
		Columns:  append([]string(nil), table.Columns...),
		LoadedAt: table.LoadedAt,
	}
}
