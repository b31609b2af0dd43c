package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"study-cache/internal/models"
)

// Client talks to the study-group backend over its JSON API. Any
// non-success response is reported as a plain error; the cache layers
// treat all of them identically as soft failures.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
}

// NewClient constructs a Client for the given backend base URL.
func NewClient(baseURL string, tokens TokenSource, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: baseURL, http: httpClient, tokens: tokens}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}

	var payload *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		payload = bytes.NewReader(raw)
	} else {
		payload = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var failure struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&failure)
		if failure.Error == "" {
			failure.Error = resp.Status
		}
		return fmt.Errorf("backend %s %s: %s", method, path, failure.Error)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) SendMessage(ctx context.Context, groupID, content string, kind models.MessageKind) error {
	body := map[string]string{
		"content":      content,
		"message_type": string(kind),
	}
	return c.do(ctx, http.MethodPost, "/api/chat/"+url.PathEscape(groupID)+"/message", body, nil)
}

func (c *Client) ListMessages(ctx context.Context, groupID string) ([]models.ChatMessage, error) {
	var out struct {
		Messages []models.ChatMessage `json:"messages"`
	}
	err := c.do(ctx, http.MethodGet, "/api/chat/"+url.PathEscape(groupID)+"/messages", nil, &out)
	if err != nil {
		return nil, err
	}
	return out.Messages, nil
}

func (c *Client) ToggleReaction(ctx context.Context, groupID, messageID, emoji string) error {
	body := map[string]string{"emoji": emoji}
	path := "/api/chat/" + url.PathEscape(groupID) + "/messages/" + url.PathEscape(messageID) + "/reactions"
	return c.do(ctx, http.MethodPost, path, body, nil)
}

func (c *Client) GetNotifications(ctx context.Context) (NotificationsResult, error) {
	var out NotificationsResult
	if err := c.do(ctx, http.MethodGet, "/api/notifications", nil, &out); err != nil {
		return NotificationsResult{}, err
	}
	return out, nil
}

func (c *Client) MarkNotificationRead(ctx context.Context, notificationID string) error {
	return c.do(ctx, http.MethodPost, "/api/notifications/"+url.PathEscape(notificationID)+"/read", nil, nil)
}

func (c *Client) ApproveJoinRequest(ctx context.Context, groupID, requesterID string) error {
	path := "/api/groups/" + url.PathEscape(groupID) + "/requests/" + url.PathEscape(requesterID) + "/approve"
	return c.do(ctx, http.MethodPost, path, nil, nil)
}

func (c *Client) RejectJoinRequest(ctx context.Context, groupID, requesterID string) error {
	path := "/api/groups/" + url.PathEscape(groupID) + "/requests/" + url.PathEscape(requesterID) + "/reject"
	return c.do(ctx, http.MethodPost, path, nil, nil)
}

func (c *Client) AcceptFriendRequest(ctx context.Context, requestID string) error {
	return c.do(ctx, http.MethodPost, "/api/friends/requests/"+url.PathEscape(requestID)+"/accept", nil, nil)
}

func (c *Client) RejectFriendRequest(ctx context.Context, requestID string) error {
	return c.do(ctx, http.MethodPost, "/api/friends/requests/"+url.PathEscape(requestID)+"/reject", nil, nil)
}

func (c *Client) ListGroups(ctx context.Context) ([]models.Group, error) {
	var out struct {
		Groups []models.Group `json:"groups"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/groups/mine", nil, &out); err != nil {
		return nil, err
	}
	return out.Groups, nil
}

var _ API = (*Client)(nil)
