package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/google/uuid"
)

// Envelope is the wire shape of one delivered event.
type Envelope struct {
	ID        uuid.UUID       `json:"id"`
	OrgID     string          `json:"org_id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

type sqsSender interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSHandler delivers outbox entries to an SQS queue for downstream
// consumers (CRM sync, notification fan-out, webhooks).
type SQSHandler struct {
	client   sqsSender
	queueURL string
}

func NewSQSHandler(client sqsSender, queueURL string) *SQSHandler {
	if client == nil {
		panic("events: SQS client cannot be nil")
	}
	if queueURL == "" {
		panic("events: SQS queueURL cannot be empty")
	}
	return &SQSHandler{client: client, queueURL: queueURL}
}

// Handle sends one entry as a JSON envelope. The entry id doubles as the
// deduplication key for consumers.
func (h *SQSHandler) Handle(ctx context.Context, entry OutboxEntry) error {
	body, err := json.Marshal(Envelope{
		ID:        entry.ID,
		OrgID:     entry.OrgID,
		Type:      entry.Type,
		Payload:   entry.Payload,
		CreatedAt: entry.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("events: marshal envelope: %w", err)
	}
	_, err = h.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(h.queueURL),
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		return fmt.Errorf("events: send to queue: %w", err)
	}
	return nil
}
