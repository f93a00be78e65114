package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

// APIError is a response the server answered with a non-2xx status. The CLI
// drops queued commands that fail this way and keeps ones that never
// reached the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api status %d: %s", e.Status, e.Message)
}

func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) NewGame(ctx context.Context, roleID, goalID, name, handle, idem string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/game", map[string]any{
		"role_id": roleID,
		"goal_id": goalID,
		"name":    name,
		"handle":  handle,
	}, &out, idem)
	return out, err
}

func (c *Client) Dashboard(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/dashboard", nil, &out, "")
	return out, err
}

func (c *Client) Refresh(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/refresh", nil, &out, "")
	return out, err
}

func (c *Client) Feed(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/feed", nil, &out, "")
	return out, err
}

func (c *Client) Quotes(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/quotes", nil, &out, "")
	return out, err
}

func (c *Client) Transactions(ctx context.Context, limit int) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/transactions?limit="+strconv.Itoa(limit), nil, &out, "")
	return out, err
}

func (c *Client) PlaceOrder(ctx context.Context, symbol, side, account, idem string, qtyUnits int64) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/orders", OrderBody(symbol, side, account, qtyUnits), &out, idem)
	return out, err
}

func (c *Client) Transfer(ctx context.Context, from, to, idem string, amountMicros int64) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/transfer", map[string]any{
		"from":          from,
		"to":            to,
		"amount_micros": amountMicros,
	}, &out, idem)
	return out, err
}

func (c *Client) PayCredit(ctx context.Context, card, idem string, amountMicros int64) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/credit/pay", map[string]any{
		"card":          card,
		"amount_micros": amountMicros,
	}, &out, idem)
	return out, err
}

func (c *Client) Offers(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/offers", nil, &out, "")
	return out, err
}

func (c *Client) RespondOffer(ctx context.Context, messageID string, accept bool, account, idem string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/offers/"+url.PathEscape(messageID)+"/respond", map[string]any{
		"accept":  accept,
		"account": account,
	}, &out, idem)
	return out, err
}

func (c *Client) SellBusiness(ctx context.Context, businessID, idem string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/businesses/"+url.PathEscape(businessID)+"/sell", nil, &out, idem)
	return out, err
}

func (c *Client) DismissExitPrompt(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/exit-prompt/dismiss", nil, &out, "")
	return out, err
}

func (c *Client) Messages(ctx context.Context, archived bool) (map[string]any, error) {
	path := "/v1/messages"
	if archived {
		path += "?archived=1"
	}
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodGet, path, nil, &out, "")
	return out, err
}

func (c *Client) Thread(ctx context.Context, threadID string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/threads/"+url.PathEscape(threadID), nil, &out, "")
	return out, err
}

func (c *Client) MarkThreadRead(ctx context.Context, threadID string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/threads/"+url.PathEscape(threadID)+"/read", nil, &out, "")
	return out, err
}

func (c *Client) ArchiveMessage(ctx context.Context, messageID string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/messages/"+url.PathEscape(messageID)+"/archive", nil, &out, "")
	return out, err
}

func (c *Client) AddPost(ctx context.Context, content string, media []string, idem string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/posts", PostBody(content, media), &out, idem)
	return out, err
}

// Do sends a raw command, used when replaying the offline queue.
func (c *Client) Do(ctx context.Context, method, path string, body map[string]any, idem string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, method, path, body, &out, idem)
	return out, err
}

func OrderBody(symbol, side, account string, qtyUnits int64) map[string]any {
	return map[string]any{
		"symbol":         symbol,
		"side":           side,
		"quantity_units": qtyUnits,
		"account":        account,
	}
}

func PostBody(content string, media []string) map[string]any {
	body := map[string]any{"content": content}
	if len(media) > 0 {
		body["media"] = media
	}
	return body
}

func (c *Client) jsonRequest(ctx context.Context, method, path string, in any, out any, idem string) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	if idem != "" {
		req.Header.Set("Idempotency-Key", idem)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		msg := strings.TrimSpace(string(raw))
		var payload struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &payload) == nil && payload.Error != "" {
			msg = payload.Error
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
