package amqp

import (
	"encoding/json"
	"time"
)

// CommitType names the mutation a CommitMessage reports.
type CommitType string

const (
	AccountUpdated CommitType = "account.updated"
	FundCreated    CommitType = "fund.created"
)

// CommitMessage is published after a mutation has been stored. It only
// carries identifiers; consumers read the current state themselves.
type CommitMessage struct {
	Type      CommitType `json:"type"`
	AccountID string     `json:"account_id"`
	FundID    string     `json:"fund_id,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// NewAccountUpdated creates a message for an account settings change
func NewAccountUpdated(accountID string) *CommitMessage {
	return &CommitMessage{Type: AccountUpdated, AccountID: accountID, Timestamp: time.Now()}
}

// NewFundCreated creates a message for a new fund
func NewFundCreated(accountID, fundID string) *CommitMessage {
	return &CommitMessage{Type: FundCreated, AccountID: accountID, FundID: fundID, Timestamp: time.Now()}
}

// ToJSON converts the message to JSON bytes
func (m *CommitMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// CommitMessageFromJSON creates a message from JSON bytes
func CommitMessageFromJSON(data []byte) (*CommitMessage, error) {
	var msg CommitMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
