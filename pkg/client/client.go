// Package client is a small Go client for the College Connect HTTP API.
// Message delivery is poll based: PollMessages asks the server for messages
// newer than the last one seen, at the interval the server advertises.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/d60-Lab/college-connect/internal/model"
)

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string { return fmt.Sprintf("api error %d: %s", e.Status, e.Message) }

type Client struct {
	baseURL string
	token   string
	http    *retryablehttp.Client
	// MinPoll bounds the poll interval from below.
	MinPoll time.Duration
	// PollOverlap is how far each poll reaches back behind the newest message
	// seen, so a message stamped earlier but stored later is still picked up.
	PollOverlap time.Duration
}

func New(baseURL string) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.RetryWaitMin = 100 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.Logger = nil
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: rc, MinPoll: 500 * time.Millisecond, PollOverlap: 5 * time.Second}
}

// SetToken sets the bearer token used for authenticated calls.
func (c *Client) SetToken(token string) { c.token = token }

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body []byte
	if in != nil {
		var err error
		if body, err = json.Marshal(in); err != nil {
			return err
		}
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode/100 != 2 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(raw, &e)
		return &APIError{Status: resp.StatusCode, Message: e.Error}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(bytes.NewReader(raw)).Decode(out)
}

// SignIn stores the returned access token on the client.
func (c *Client) SignIn(ctx context.Context, email, password string) (*model.UserProfile, error) {
	var out struct {
		AccessToken string             `json:"accessToken"`
		Profile     *model.UserProfile `json:"profile"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/signin", map[string]string{"email": email, "password": password}, &out); err != nil {
		return nil, err
	}
	c.token = out.AccessToken
	return out.Profile, nil
}

func (c *Client) StartConversation(ctx context.Context, recipientID string) (string, error) {
	var out struct {
		ConversationID string `json:"conversationId"`
	}
	err := c.do(ctx, http.MethodPost, "/messages/start", map[string]string{"recipientId": recipientID}, &out)
	return out.ConversationID, err
}

func (c *Client) SendMessage(ctx context.Context, conversationID, recipientID, content string) (*model.Message, error) {
	var out struct {
		Message *model.Message `json:"message"`
	}
	err := c.do(ctx, http.MethodPost, "/messages/"+url.PathEscape(conversationID),
		map[string]string{"content": content, "recipientId": recipientID}, &out)
	return out.Message, err
}

// MessagePage is one poll result.
type MessagePage struct {
	Messages       []model.Message `json:"messages"`
	ServerTime     time.Time       `json:"serverTime"`
	PollIntervalMs int64           `json:"pollIntervalMs"`
}

// ListMessages returns messages created after since (all when since is zero).
func (c *Client) ListMessages(ctx context.Context, conversationID string, since time.Time) (*MessagePage, error) {
	path := "/messages/" + url.PathEscape(conversationID)
	if !since.IsZero() {
		path += "?since=" + url.QueryEscape(since.UTC().Format(time.RFC3339Nano))
	}
	var out MessagePage
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// pollFrom is the since value for the next poll.
func (c *Client) pollFrom(since, newest time.Time) time.Time {
	if newest.IsZero() {
		return since
	}
	if back := newest.Add(-c.PollOverlap); back.After(since) {
		return back
	}
	return since
}

// PollMessages calls fn with every batch of new messages until ctx is done.
// Each message is delivered once even though polls overlap by PollOverlap.
// Transient errors are passed to onErr (may be nil) and polling continues;
// a 401 or 404 stops polling.
func (c *Client) PollMessages(ctx context.Context, conversationID string, since time.Time, fn func([]model.Message), onErr func(error)) error {
	interval := c.MinPoll
	newest := since
	seen := map[string]time.Time{}
	for {
		page, err := c.ListMessages(ctx, conversationID, c.pollFrom(since, newest))
		switch {
		case err == nil:
			fresh := make([]model.Message, 0, len(page.Messages))
			for _, m := range page.Messages {
				if _, ok := seen[m.ID]; ok {
					continue
				}
				seen[m.ID] = m.CreatedAt
				fresh = append(fresh, m)
				if m.CreatedAt.After(newest) {
					newest = m.CreatedAt
				}
			}
			if len(fresh) > 0 {
				fn(fresh)
			}
			// 不晚于下次查询起点的消息不会再返回，无需再记
			next := c.pollFrom(since, newest)
			for id, at := range seen {
				if !at.After(next) {
					delete(seen, id)
				}
			}
			if d := time.Duration(page.PollIntervalMs) * time.Millisecond; d > interval {
				interval = d
			}
		case ctx.Err() != nil:
			return ctx.Err()
		default:
			var apiErr *APIError
			if errors.As(err, &apiErr) && (apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusNotFound) {
				return err
			}
			if onErr != nil {
				onErr(err)
			}
		}

		t := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}
