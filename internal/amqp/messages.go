package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TableSyncMessage tells the sync worker that a table changed in SQLite.
// It carries only the table name and version; the worker reads the rows
// from the database.
type TableSyncMessage struct {
	ID        string    `json:"id"`
	Table     string    `json:"table"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// NewTableSyncMessage creates a sync message with a fresh id.
func NewTableSyncMessage(table string, version int64) *TableSyncMessage {
	return &TableSyncMessage{
		ID:        uuid.NewString(),
		Table:     table,
		Version:   version,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *TableSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TableSyncMessageFromJSON decodes and checks a message.
func TableSyncMessageFromJSON(data []byte) (*TableSyncMessage, error) {
	var msg TableSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Table == "" {
		return nil, errors.New("sync message without table")
	}
	if msg.Version <= 0 {
		return nil, fmt.Errorf("sync message for %q has version %d", msg.Table, msg.Version)
	}
	return &msg, nil
}
