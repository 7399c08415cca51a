package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/glossworks/detailing-platform/pkg/logging"
)

var smsTracer = otel.Tracer("detailing.internal.notify.sms")

const defaultTelnyxAPIURL = "https://api.telnyx.com/v2/messages"

// SMSSender defines the interface for sending text messages.
type SMSSender interface {
	Send(ctx context.Context, msg SMSMessage) error
}

// SMSMessage represents an SMS to be sent.
type SMSMessage struct {
	OrgID string
	To    string
	From  string
	Body  string
}

// TelnyxSender posts SMS messages using Telnyx's V2 API.
type TelnyxSender struct {
	apiKey             string
	messagingProfileID string
	apiURL             string
	httpClient         *http.Client
	logger             *logging.Logger
}

// NewTelnyxSender builds a sender for the Telnyx V2 API.
func NewTelnyxSender(apiKey, messagingProfileID string, logger *logging.Logger) *TelnyxSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &TelnyxSender{
		apiKey:             apiKey,
		messagingProfileID: messagingProfileID,
		apiURL:             defaultTelnyxAPIURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// WithAPIURL overrides the Telnyx endpoint. Tests point this at a local server.
func (s *TelnyxSender) WithAPIURL(url string) *TelnyxSender {
	if url != "" {
		s.apiURL = url
	}
	return s
}

// Send dispatches a single SMS, retrying transient failures.
func (s *TelnyxSender) Send(ctx context.Context, msg SMSMessage) error {
	if s.apiKey == "" {
		return errors.New("notify: telnyx api key missing")
	}
	if msg.To == "" {
		return errors.New("notify: to required")
	}
	if msg.From == "" {
		return errors.New("notify: from required")
	}
	if strings.TrimSpace(msg.Body) == "" {
		return errors.New("notify: body required")
	}

	ctx, span := smsTracer.Start(ctx, "notify.telnyx.send")
	defer span.End()
	span.SetAttributes(
		attribute.String("detailing.org_id", msg.OrgID),
		attribute.String("detailing.to", msg.To),
	)

	payload := map[string]any{
		"from": msg.From,
		"to":   msg.To,
		"text": msg.Body,
	}
	if s.messagingProfileID != "" {
		payload["messaging_profile_id"] = s.messagingProfileID
	}
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("notify: failed to marshal telnyx payload: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewReader(bodyBytes))
		if err != nil {
			lastErr = err
			break
		}
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.httpClient.Do(req)
		if err != nil {
			lastErr = err
		} else {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))
			resp.Body.Close()
			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				s.logger.Info("telnyx sms sent", "org_id", msg.OrgID, "to", msg.To, "from", msg.From)
				return nil
			}
			var errorBody map[string]any
			if len(body) > 0 && json.Unmarshal(body, &errorBody) == nil {
				lastErr = fmt.Errorf("telnyx send failed: status %d, body: %v", resp.StatusCode, errorBody)
			} else {
				lastErr = fmt.Errorf("telnyx send failed: status %d", resp.StatusCode)
			}
			if !shouldRetrySMS(resp.StatusCode) {
				break
			}
		}

		if attempt < 3 {
			time.Sleep(time.Duration(200+rand.Intn(300)) * time.Millisecond)
		}
	}

	span.RecordError(lastErr)
	s.logger.Error("failed to send telnyx sms", "error", lastErr, "org_id", msg.OrgID, "to", msg.To)
	return fmt.Errorf("notify: %w", lastErr)
}

// shouldRetrySMS reports whether a failed send is worth repeating. Rate
// limits, request timeouts and server errors are transient; any other 4xx
// means the request itself is bad and will fail the same way again.
func shouldRetrySMS(status int) bool {
	switch {
	case status == http.StatusTooManyRequests:
		return true
	case status == http.StatusRequestTimeout:
		return true
	case status >= 500 && status <= 599:
		return true
	}
	return false
}

// StubSMSSender is a no-op sender for testing or when SMS is disabled.
type StubSMSSender struct {
	logger *logging.Logger
}

// NewStubSMSSender creates a stub SMS sender that logs but doesn't send.
func NewStubSMSSender(logger *logging.Logger) *StubSMSSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubSMSSender{logger: logger}
}

// Send logs the SMS but doesn't actually send it.
func (s *StubSMSSender) Send(ctx context.Context, msg SMSMessage) error {
	s.logger.Info("stub sms sender: would send sms", "to", msg.To)
	return nil
}
