package submission

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iota-uz/campus-sdk/modules/dtr/domain/aggregates/importrun"
	"github.com/iota-uz/campus-sdk/pkg/composables"
)

type apiError struct {
	Message string            `json:"message"`
	Code    string            `json:"code"`
	Meta    map[string]string `json:"meta,omitempty"`
}

// StatusError is a non-2xx answer from a downstream endpoint.
type StatusError struct {
	Status  int
	Code    string
	Message string
}

func (e *StatusError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("endpoint returned %d: %s (%s)", e.Status, e.Message, e.Code)
	}
	return fmt.Sprintf("endpoint returned %d: %s", e.Status, e.Message)
}

// HTTPSubmitter posts a whole batch to the records API in one request.
type HTTPSubmitter struct {
	url             string
	authorization   string
	httpClient      *http.Client
	requestIDHeader string
}

func NewHTTPSubmitter(url, token string, timeout time.Duration, requestIDHeader string) *HTTPSubmitter {
	authorization := strings.TrimSpace(token)
	if authorization != "" && !strings.Contains(authorization, " ") {
		authorization = "Bearer " + authorization
	}
	return &HTTPSubmitter{
		url:             strings.TrimSpace(url),
		authorization:   authorization,
		httpClient:      &http.Client{Timeout: timeout},
		requestIDHeader: requestIDHeader,
	}
}

func (s *HTTPSubmitter) Submit(ctx context.Context, batch importrun.Batch) error {
	body, err := json.Marshal(NewBatchPayload(batch))
	if err != nil {
		return fmt.Errorf("json marshal batch: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", batch.RunID.String())
	if s.requestIDHeader != "" {
		id, ok := composables.UseRequestID(ctx)
		if !ok {
			id = uuid.NewString()
		}
		req.Header.Set(s.requestIDHeader, id)
	}
	if s.authorization != "" {
		req.Header.Set("Authorization", s.authorization)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http do: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return fmt.Errorf("http read: %w", err)
	}
	var apiErr apiError
	if err := json.Unmarshal(respBody, &apiErr); err == nil && strings.TrimSpace(apiErr.Code) != "" {
		return &StatusError{Status: resp.StatusCode, Code: apiErr.Code, Message: apiErr.Message}
	}
	return &StatusError{Status: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
}
