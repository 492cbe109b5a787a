// Package executor runs one logical saga operation against an ordered list
// of endpoint candidates, classifying each transport outcome. Routing
// mismatches (404/405) and timeouts are absorbed here by moving to the next
// candidate; they never surface past this package. Everything else is a hard
// failure of the logical operation.
package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/AlexBrosseauEts/log430-labo6-saga-orchestrator/internal/routing"
)

// Doer executes HTTP requests. Both httpclient.Client and
// httpclient.CircuitBreakerClient satisfy this.
type Doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Result is the single verdict for one logical operation.
type Result struct {
	OK      bool
	Status  int            // last observed HTTP status; 0 for transport errors
	Data    map[string]any // decoded response body on success
	Message string         // failure detail, never shown to end clients
}

// outcome classification for a single candidate attempt.
type outcome int

const (
	outcomeSuccess outcome = iota
	outcomeNotSupported
	outcomeTimeout
	outcomeFailure
)

// Executor tries candidates in order with a bounded per-call timeout.
type Executor struct {
	client Doer
	logger *slog.Logger
}

// New creates a step executor on top of the given HTTP client.
func New(client Doer, logger *slog.Logger) *Executor {
	return &Executor{client: client, logger: logger}
}

// Execute iterates candidates in order and returns one verdict:
//
//   - 2xx: success, with the decoded response body.
//   - 404/405: this endpoint shape does not exist in this deployment; try
//     the next candidate.
//   - timeout: indistinguishable from a missing endpoint from here, so it is
//     treated the same way to keep making forward progress.
//   - anything else: a genuine failure of the logical operation; stop
//     immediately rather than retrying scattershot.
//
// Exhausting every candidate is itself a hard failure, never a success.
func (e *Executor) Execute(ctx context.Context, candidates []routing.Candidate, timeout time.Duration) Result {
	if len(candidates) == 0 {
		return Result{OK: false, Message: "no endpoint candidates configured"}
	}

	for _, cand := range candidates {
		res, class := e.attempt(ctx, cand, timeout)

		switch class {
		case outcomeSuccess:
			return res
		case outcomeNotSupported, outcomeTimeout:
			e.logger.DebugContext(ctx, "endpoint candidate not viable, trying next",
				slog.String("method", cand.Method),
				slog.String("url", cand.URL),
				slog.Int("status", res.Status),
				slog.Bool("timeout", class == outcomeTimeout),
			)
			continue
		default:
			e.logger.ErrorContext(ctx, "operation failed",
				slog.String("method", cand.Method),
				slog.String("url", cand.URL),
				slog.Int("status", res.Status),
				slog.String("detail", res.Message),
			)
			return res
		}
	}

	return Result{
		OK:      false,
		Message: "no valid endpoint: all candidates returned 404/405 or timed out",
	}
}

// attempt issues one candidate call and classifies the outcome.
func (e *Executor) attempt(ctx context.Context, cand routing.Candidate, timeout time.Duration) (Result, outcome) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body io.Reader = http.NoBody
	if cand.Payload != nil {
		raw, err := json.Marshal(cand.Payload)
		if err != nil {
			return Result{Message: fmt.Sprintf("marshal payload: %v", err)}, outcomeFailure
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(callCtx, cand.Method, cand.URL, body)
	if err != nil {
		return Result{Message: fmt.Sprintf("create request: %v", err)}, outcomeFailure
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(callCtx, req)
	if err != nil {
		if isTimeout(err) {
			return Result{Message: err.Error()}, outcomeTimeout
		}
		return Result{Message: err.Error()}, outcomeFailure
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return Result{OK: true, Status: resp.StatusCode, Data: decodeBody(resp.Body)}, outcomeSuccess
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusMethodNotAllowed:
		return Result{Status: resp.StatusCode}, outcomeNotSupported
	default:
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return Result{
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("status %d: %s", resp.StatusCode, string(detail)),
		}, outcomeFailure
	}
}

// decodeBody parses a JSON object response. Non-object or malformed bodies
// yield an empty map: a 2xx with an unreadable body is still a success.
func decodeBody(r io.Reader) map[string]any {
	var data map[string]any
	if err := json.NewDecoder(io.LimitReader(r, 1<<20)).Decode(&data); err != nil || data == nil {
		return map[string]any{}
	}
	return data
}

// isTimeout reports whether the call failed by exceeding its time budget.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
