package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/google/uuid"
)

type capturingSQS struct {
	inputs []*sqs.SendMessageInput
}

func (c *capturingSQS) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	c.inputs = append(c.inputs, params)
	return &sqs.SendMessageOutput{}, nil
}

func TestSQSHandlerWrapsEntryInEnvelope(t *testing.T) {
	client := &capturingSQS{}
	h := NewSQSHandler(client, "https://sqs.local/queue")

	entry := OutboxEntry{
		ID:        uuid.New(),
		OrgID:     "org-1",
		Type:      "appointment.booked.v1",
		Payload:   json.RawMessage(`{"appointment_id":"abc"}`),
		CreatedAt: time.Now().UTC(),
	}
	if err := h.Handle(context.Background(), entry); err != nil {
		t.Fatalf("handle failed: %v", err)
	}

	if len(client.inputs) != 1 {
		t.Fatalf("expected one message, got %d", len(client.inputs))
	}
	if got := aws.ToString(client.inputs[0].QueueUrl); got != "https://sqs.local/queue" {
		t.Errorf("unexpected queue url: %s", got)
	}

	var env Envelope
	if err := json.Unmarshal([]byte(aws.ToString(client.inputs[0].MessageBody)), &env); err != nil {
		t.Fatalf("envelope did not round-trip: %v", err)
	}
	if env.ID != entry.ID || env.Type != entry.Type || env.OrgID != "org-1" {
		t.Errorf("unexpected envelope: %#v", env)
	}
}
