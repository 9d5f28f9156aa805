package api

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hpungsan/hamper/internal/errors"
	"github.com/hpungsan/hamper/internal/resilience"
)

const requestIDHeader = "X-Request-Id"

// call performs one JSON request with retries on SERVER errors and a single
// reissue-and-retry on 401.
func (c *Client) call(ctx context.Context, op, method, path string, in, out any) error {
	start := time.Now()
	err := c.exec.Execute(ctx, op, func(ctx context.Context) error {
		return c.roundTrip(ctx, method, path, in, out, true)
	}, classify)
	return c.finish(op, start, err)
}

func (c *Client) roundTrip(ctx context.Context, method, path string, in, out any, allowReissue bool) error {
	resp, err := c.send(ctx, c.http, method, path, in, "application/json")
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		drain(resp)
		if !allowReissue {
			c.auth.Clear()
			return errors.NewUnauthenticated()
		}
		if err := c.reissue(ctx); err != nil {
			return err
		}
		return c.roundTrip(ctx, method, path, in, out, false)
	}
	defer resp.Body.Close()

	if err := statusError(resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.NewBadInput(fmt.Sprintf("unreadable response: %v", err))
	}
	return nil
}

// reissue refreshes the session cookie. A rejected reissue ends the session.
func (c *Client) reissue(ctx context.Context) error {
	resp, err := c.send(ctx, c.http, http.MethodPost, "/auth/reissue", nil, "application/json")
	if err != nil {
		return err
	}
	defer drain(resp)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		c.log.Debug("session reissued")
		return nil
	case resp.StatusCode >= 500:
		return statusError(resp)
	default:
		c.log.Info("session reissue rejected", "status", resp.StatusCode)
		c.forgetSession()
		return errors.NewUnauthenticated()
	}
}

func (c *Client) send(ctx context.Context, client *http.Client, method, path string, in any, accept string) (*http.Response, error) {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, errors.NewInternal(fmt.Errorf("marshal request: %w", err))
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("create request: %w", err))
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", accept)
	req.Header.Set(requestIDHeader, uuid.NewString())

	resp, err := client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, errors.NewServer(0, fmt.Sprintf("%s %s: %v", method, path, err))
	}
	return resp, nil
}

// statusError maps a non-2xx response to BAD_INPUT (4xx and other) or
// SERVER (5xx). It reads but does not close the body.
func statusError(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	msg := errorMessage(resp)
	if resp.StatusCode >= 500 {
		return errors.NewServer(resp.StatusCode, msg)
	}
	e := errors.NewBadInput(msg)
	e.Details = map[string]any{"upstream_status": resp.StatusCode}
	return e
}

// errorMessage extracts {"message"} or {"error"} from the body, falling back
// to the raw text and then the status line.
func errorMessage(resp *http.Response) string {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	if msg := strings.TrimSpace(string(body)); msg != "" {
		return msg
	}
	return resp.Status
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	resp.Body.Close()
}

func classify(err error) resilience.ErrorClassification {
	server := errors.Is(err, errors.ErrServer)
	return resilience.ErrorClassification{Retryable: server, RecordFailure: server}
}

// finish normalizes the error, records metrics and logs the outcome.
func (c *Client) finish(op string, start time.Time, err error) error {
	if resilience.IsCircuitOpen(err) {
		err = errors.NewServer(0, fmt.Sprintf("%s temporarily unavailable: %v", op, err))
	}

	class := "ok"
	switch {
	case err == nil:
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		class = "cancelled"
	default:
		class = strings.ToLower(string(errors.As(err).Code))
	}
	elapsed := time.Since(start)
	c.metrics.ObserveAPI(op, class, elapsed)

	if err != nil && class != "cancelled" {
		c.log.Warn("api call failed", "operation", op, "class", class, "elapsed_ms", elapsed.Milliseconds(), "error", err)
	} else {
		c.log.Debug("api call", "operation", op, "class", class, "elapsed_ms", elapsed.Milliseconds())
	}
	return err
}
