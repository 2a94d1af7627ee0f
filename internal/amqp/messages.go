package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"wallet/internal/core"
)

// SnapshotMessage carries a full ledger snapshot. Version lets consumers
// drop messages older than what they already applied.
type SnapshotMessage struct {
	Version   int64         `json:"version"`
	Snapshot  core.Snapshot `json:"snapshot"`
	Timestamp time.Time     `json:"timestamp"`
}

func NewSnapshotMessage(snap core.Snapshot) *SnapshotMessage {
	return &SnapshotMessage{
		Version:   snap.Version,
		Snapshot:  snap,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *SnapshotMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// SnapshotMessageFromJSON decodes a message and checks that the header
// version matches the embedded snapshot.
func SnapshotMessageFromJSON(data []byte) (*SnapshotMessage, error) {
	var msg SnapshotMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Version != msg.Snapshot.Version {
		return nil, errors.New("message version does not match snapshot version")
	}
	if msg.Snapshot.Transactions == nil {
		msg.Snapshot.Transactions = []core.Transaction{}
	}
	return &msg, nil
}
