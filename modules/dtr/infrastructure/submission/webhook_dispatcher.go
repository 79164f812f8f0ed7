package submission

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/iota-uz/campus-sdk/pkg/outbox"
)

// WebhookDispatcher forwards outbox messages to a downstream URL. The relay
// owns retries; a non-2xx answer is returned as an error.
type WebhookDispatcher struct {
	url        string
	httpClient *http.Client
}

func NewWebhookDispatcher(url string, timeout time.Duration) *WebhookDispatcher {
	return &WebhookDispatcher{
		url:        strings.TrimSpace(url),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (d *WebhookDispatcher) Dispatch(ctx context.Context, msg outbox.DispatchedMessage) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(msg.Payload))
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Event-Id", msg.Meta.EventID.String())
	req.Header.Set("X-Event-Topic", msg.Meta.Topic)
	req.Header.Set("X-Event-Sequence", strconv.FormatInt(msg.Meta.Sequence, 10))
	req.Header.Set("X-Delivery-Attempt", strconv.Itoa(msg.Meta.Attempts))

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http do: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Status: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}
	return nil
}

var _ outbox.Dispatcher = (*WebhookDispatcher)(nil)
