package bluesky

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// Client is an authenticated session against an AT Protocol PDS.
// One session is created per run and passed explicitly to whoever
// needs to publish or upload.
type Client struct {
	host      string
	http      *http.Client
	accessJWT string
	did       string
}

type sessionResponse struct {
	AccessJWT string `json:"accessJwt"`
	DID       string `json:"did"`
}

// Login creates a session via com.atproto.server.createSession.
func Login(ctx context.Context, host, identifier, password string, timeout time.Duration) (*Client, error) {
	c := &Client{
		host: host,
		http: &http.Client{Timeout: timeout},
	}

	payload := map[string]string{
		"identifier": identifier,
		"password":   password,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("error make JSON: %v", err)
	}

	var session sessionResponse
	if err := c.call(ctx, "com.atproto.server.createSession", "application/json", bytes.NewReader(body), &session); err != nil {
		return nil, fmt.Errorf("bluesky login: %w", err)
	}
	if session.AccessJWT == "" || session.DID == "" {
		return nil, fmt.Errorf("bluesky login: empty session in response")
	}

	c.accessJWT = session.AccessJWT
	c.did = session.DID
	log.Printf("Logged in to %s as %s", host, session.DID)
	return c, nil
}

// UploadBlob uploads raw image bytes and returns the opaque blob
// reference to place into an embed's thumb field.
func (c *Client) UploadBlob(ctx context.Context, data []byte, mime string) (json.RawMessage, error) {
	var out struct {
		Blob json.RawMessage `json:"blob"`
	}
	if err := c.call(ctx, "com.atproto.repo.uploadBlob", mime, bytes.NewReader(data), &out); err != nil {
		return nil, fmt.Errorf("upload blob: %w", err)
	}
	if len(out.Blob) == 0 {
		return nil, fmt.Errorf("upload blob: no blob in response")
	}
	return out.Blob, nil
}

// CreatePost publishes a post record via com.atproto.repo.createRecord.
func (c *Client) CreatePost(ctx context.Context, post Post) error {
	payload := map[string]interface{}{
		"repo":       c.did,
		"collection": PostType,
		"record":     post,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("error make JSON: %v", err)
	}

	if err := c.call(ctx, "com.atproto.repo.createRecord", "application/json", bytes.NewReader(body), nil); err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	return nil
}

// call does one XRPC POST. out may be nil when the response body is not
// interesting.
func (c *Client) call(ctx context.Context, nsid, contentType string, body io.Reader, out interface{}) error {
	url := fmt.Sprintf("%s/xrpc/%s", c.host, nsid)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return fmt.Errorf("error make request: %v", err)
	}
	req.Header.Set("Content-Type", contentType)
	if c.accessJWT != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessJWT)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("error HTTP request: %v", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Printf("Warning: failed to close response body: %v", err)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("xrpc %s: status %d: %s", nsid, resp.StatusCode, bytes.TrimSpace(msg))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("xrpc %s: decode response: %v", nsid, err)
	}
	return nil
}

// DID returns the authenticated account's DID.
func (c *Client) DID() string {
	return c.did
}
