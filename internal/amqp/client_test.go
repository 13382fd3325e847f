package amqp

import (
	"strings"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

func TestCommitMessageRoundTrip(t *testing.T) {
	msg := NewFundCreated("acc-1", "fund-9")
	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	got, err := CommitMessageFromJSON(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Type != FundCreated || got.AccountID != "acc-1" || got.FundID != "fund-9" {
		t.Fatalf("unexpected message %+v", got)
	}
	if !got.Timestamp.Equal(msg.Timestamp) {
		t.Fatalf("timestamp mismatch: %v vs %v", got.Timestamp, msg.Timestamp)
	}
}

func TestAccountUpdatedOmitsFund(t *testing.T) {
	data, err := NewAccountUpdated("acc-1").ToJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if got := string(data); strings.Contains(got, "fund_id") {
		t.Fatalf("expected no fund_id in %s", got)
	}
}

func TestCommitMessageFromJSONInvalid(t *testing.T) {
	if _, err := CommitMessageFromJSON([]byte("{")); err == nil {
		t.Fatalf("expected error for invalid JSON")
	}
}

func TestNewPublishing(t *testing.T) {
	msg := &CommitMessage{Type: AccountUpdated, AccountID: "acc-1", Timestamp: time.Unix(1700000000, 0)}
	pub, err := newPublishing(msg)
	if err != nil {
		t.Fatalf("newPublishing: %v", err)
	}
	if pub.DeliveryMode != amqp091.Persistent {
		t.Errorf("expected persistent delivery, got %d", pub.DeliveryMode)
	}
	if pub.ContentType != "application/json" || pub.Type != "account.updated" {
		t.Errorf("unexpected publishing headers %+v", pub)
	}
	if !pub.Timestamp.Equal(msg.Timestamp) {
		t.Errorf("expected timestamp from message")
	}
}

func TestNewClientInvalidURL(t *testing.T) {
	if _, err := NewClient("amqp://127.0.0.1:1/", "x", "y", nil); err == nil {
		t.Fatalf("expected dial error")
	}
}
