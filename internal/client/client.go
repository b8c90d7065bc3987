// Package client is the messaging API client used by the desktop and mobile
// shells. It keeps transport concerns (auth cookie, retries, error mapping)
// out of the Coordinator, which only deals in feed state.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	response "github.com/MedAli03/atpsm-messaging/internal/lib/api/response"
	"github.com/MedAli03/atpsm-messaging/internal/messages"
	"github.com/MedAli03/atpsm-messaging/internal/threads"
	"github.com/MedAli03/atpsm-messaging/internal/typing"
)

const (
	defaultTimeout  = 10 * time.Second
	retryAttempts   = 3
	retryBackoff    = 200 * time.Millisecond
	typingCallLimit = 2 * time.Second
)

// APIError carries the server's machine code alongside the HTTP status.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d (%s): %s", e.StatusCode, e.Code, e.Message)
}

// Transient reports whether a retry could plausibly succeed. Validation and
// not-found answers are final.
func (e *APIError) Transient() bool {
	return e.StatusCode >= http.StatusInternalServerError
}

type Client struct {
	baseURL string
	userID  int64
	httpc   *http.Client
}

func New(baseURL string, userID int64) *Client {
	return &Client{
		baseURL: baseURL,
		userID:  userID,
		httpc:   &http.Client{Timeout: defaultTimeout},
	}
}

type createThreadResponse struct {
	response.Response
	Thread *threads.ThreadInfo `json:"thread"`
}

type sendMessageResponse struct {
	response.Response
	Message messages.Message `json:"message"`
}

type markReadResponse struct {
	response.Response
	LastReadMessageID int64 `json:"last_read_message_id"`
}

// CreateThread is not auto-retried: it may carry an initial message, and a
// repeat after an ambiguous failure would mint a second thread.
func (c *Client) CreateThread(ctx context.Context, req threads.CreateThreadRequest) (*threads.ThreadInfo, error) {
	var out createThreadResponse
	err := c.do(ctx, http.MethodPost, "/threads", req, http.StatusCreated, &out)
	if err != nil {
		return nil, err
	}
	return out.Thread, nil
}

// ListMessages fetches one history page; empty cursor means the newest page.
// Reads are idempotent, so transient failures are retried with backoff.
func (c *Client) ListMessages(ctx context.Context, threadID int64, cursor string) (*messages.Page, error) {
	path := "/threads/" + strconv.FormatInt(threadID, 10) + "/messages"
	if cursor != "" {
		path += "?cursor=" + cursor
	}

	var page messages.Page
	err := c.withRetry(ctx, func() error {
		return c.do(ctx, http.MethodGet, path, nil, http.StatusOK, &page)
	})
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// SendMessage performs exactly one submission attempt. Duplicate-send safety
// lives with the user: the Coordinator surfaces failures for explicit retry.
func (c *Client) SendMessage(ctx context.Context, threadID int64, req messages.CreateMessageRequest) (*messages.Message, error) {
	path := "/threads/" + strconv.FormatInt(threadID, 10) + "/messages"

	var out sendMessageResponse
	if err := c.do(ctx, http.MethodPost, path, req, http.StatusCreated, &out); err != nil {
		return nil, err
	}
	return &out.Message, nil
}

// MarkRead moves the viewer's last-read marker. The marker only moves
// forward server-side, which makes the call safe to retry.
func (c *Client) MarkRead(ctx context.Context, threadID int64, messageID *int64) (int64, error) {
	path := "/threads/" + strconv.FormatInt(threadID, 10) + "/read"
	req := messages.MarkReadRequest{MessageID: messageID}

	var out markReadResponse
	err := c.withRetry(ctx, func() error {
		return c.do(ctx, http.MethodPost, path, req, http.StatusOK, &out)
	})
	if err != nil {
		return 0, err
	}
	return out.LastReadMessageID, nil
}

type setTypingRequest struct {
	IsTyping bool   `json:"is_typing"`
	Label    string `json:"label"`
}

// SetTyping is best-effort presence; failures are returned but callers are
// expected to drop them.
func (c *Client) SetTyping(ctx context.Context, threadID int64, isTyping bool, label string) error {
	path := "/threads/" + strconv.FormatInt(threadID, 10) + "/typing"
	return c.do(ctx, http.MethodPut, path, setTypingRequest{IsTyping: isTyping, Label: label}, http.StatusNoContent, nil)
}

func (c *Client) GetTyping(ctx context.Context, threadID int64) (typing.State, error) {
	path := "/threads/" + strconv.FormatInt(threadID, 10) + "/typing"

	var state typing.State
	err := c.withRetry(ctx, func() error {
		return c.do(ctx, http.MethodGet, path, nil, http.StatusOK, &state)
	})
	if err != nil {
		return typing.State{}, err
	}
	return state, nil
}

// withRetry applies bounded exponential backoff on transient errors only.
func (c *Client) withRetry(ctx context.Context, fn func() error) error {
	var err error
	delay := retryBackoff

	for attempt := 0; attempt < retryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		err = fn()
		if err == nil {
			return nil
		}

		if apiErr, ok := err.(*APIError); ok && !apiErr.Transient() {
			return err
		}
	}

	return err
}

func (c *Client) do(ctx context.Context, method, path string, body any, wantStatus int, out any) error {
	const op = "client.do"

	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		rd = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.AddCookie(&http.Cookie{Name: "user_id", Value: strconv.FormatInt(c.userID, 10)})

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		return decodeAPIError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode, Code: "unknown"}

	var body response.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error.Code != "" {
		apiErr.Code = body.Error.Code
		apiErr.Message = body.Error.Message
	}
	return apiErr
}
