// Package client is the customer- and provider-facing API client for the
// home services booking platform: an authenticated gateway with a single
// transparent refresh-and-retry, the staged booking form, the provider
// assignment operations, and the payment verification loop.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// APIError is a non-2xx response from the server, carrying its message.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error (status=%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api error (status=%d)", e.StatusCode)
}

// IsConflict reports whether err is the server refusing an assignment
// operation because another provider holds the booking.
func IsConflict(err error) bool {
	apiErr, ok := err.(*APIError)
	return ok && apiErr.StatusCode == http.StatusConflict
}

// apiResponse is the envelope every endpoint answers with.
type apiResponse struct {
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	Status     string          `json:"status"`
	Token      string          `json:"token"`
	Data       json.RawMessage `json:"data"`
	Pagination *Pagination     `json:"pagination"`
}

type Pagination struct {
	Page       int   `json:"page"`
	TotalPages int   `json:"totalPages"`
	Total      int64 `json:"total"`
}

type Client struct {
	hc      *http.Client
	baseURL string
	session *Session
}

func New(baseURL string, session *Session) *Client {
	return &Client{
		hc:      &http.Client{Timeout: 15 * time.Second},
		baseURL: baseURL,
		session: session,
	}
}

func (c *Client) Session() *Session {
	return c.session
}

// do sends one authenticated request. On a 401 it performs exactly one
// refresh with the stored credential and retries the original call exactly
// once; a failed refresh clears the session and surfaces ErrReauthRequired.
// There is no path through here that refreshes twice.
func (c *Client) do(ctx context.Context, method, path string, body interface{}) (*apiResponse, error) {
	resp, err := c.send(ctx, method, path, body, c.session.Token())
	if err != nil {
		return nil, err
	}
	if resp.statusCode != http.StatusUnauthorized {
		return resp.decode()
	}

	newToken, err := c.refresh(ctx)
	if err != nil {
		c.session.clear()
		return nil, ErrReauthRequired
	}
	c.session.setToken(newToken)

	resp, err = c.send(ctx, method, path, body, newToken)
	if err != nil {
		return nil, err
	}
	if resp.statusCode == http.StatusUnauthorized {
		c.session.clear()
		return nil, ErrReauthRequired
	}
	return resp.decode()
}

// rawResponse defers envelope decoding so do can inspect the status first.
type rawResponse struct {
	statusCode int
	body       []byte
}

func (r *rawResponse) decode() (*apiResponse, error) {
	var envelope apiResponse
	if len(r.body) > 0 {
		if err := json.Unmarshal(r.body, &envelope); err != nil {
			return nil, fmt.Errorf("malformed response (status=%d): %w", r.statusCode, err)
		}
	}
	if r.statusCode >= 400 {
		return &envelope, &APIError{StatusCode: r.statusCode, Message: envelope.Message}
	}
	return &envelope, nil
}

func (c *Client) send(ctx context.Context, method, path string, body interface{}, token string) (*rawResponse, error) {
	var reqBody *bytes.Buffer
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewBuffer(encoded)
	} else {
		reqBody = &bytes.Buffer{}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	buf := &bytes.Buffer{}
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, err
	}
	return &rawResponse{statusCode: resp.StatusCode, body: buf.Bytes()}, nil
}

// refresh exchanges the current credential for a fresh one.
func (c *Client) refresh(ctx context.Context) (string, error) {
	resp, err := c.send(ctx, http.MethodPost, "/api/auth/refresh-token", nil, c.session.Token())
	if err != nil {
		return "", err
	}
	envelope, err := resp.decode()
	if err != nil {
		return "", err
	}
	if !envelope.Success || envelope.Token == "" {
		return "", fmt.Errorf("refresh rejected: %s", envelope.Message)
	}
	return envelope.Token, nil
}

// Login authenticates and stores the issued credential in the session. It
// bypasses the refresh path: a 401 here means bad credentials, not a stale
// token.
func (c *Client) Login(ctx context.Context, email, password string) error {
	resp, err := c.send(ctx, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, "")
	if err != nil {
		return err
	}
	envelope, err := resp.decode()
	if err != nil {
		return err
	}
	if !envelope.Success || envelope.Token == "" {
		return fmt.Errorf("login failed: %s", envelope.Message)
	}
	c.session.setToken(envelope.Token)
	return nil
}
