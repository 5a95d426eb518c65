package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// ChangeOp is the kind of write a change message reports.
type ChangeOp string

const (
	OpUpsert ChangeOp = "upsert"
	OpDelete ChangeOp = "delete"
)

// RecordChangeMessage announces that a record was written or deleted. It
// carries only the id; consumers read the current record from storage.
type RecordChangeMessage struct {
	ID        int64     `json:"id"`
	Op        ChangeOp  `json:"op"`
	Timestamp time.Time `json:"timestamp"`
}

func NewRecordChangeMessage(id int64, op ChangeOp) *RecordChangeMessage {
	return &RecordChangeMessage{ID: id, Op: op, Timestamp: time.Now()}
}

func (m *RecordChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RecordChangeMessageFromJSON decodes a message and rejects unknown operations.
func RecordChangeMessageFromJSON(data []byte) (*RecordChangeMessage, error) {
	var msg RecordChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Op {
	case OpUpsert, OpDelete:
	default:
		return nil, fmt.Errorf("unknown change op %q", msg.Op)
	}
	return &msg, nil
}
