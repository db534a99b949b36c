package whapi

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"
)

const defaultBaseURL = "https://gate.whapi.cloud"

// Client talks to the WHAPI gateway. AuthToken is generated per boot and sent
// to the gateway as the webhook Authorization header, so inbound deliveries
// can be checked against it.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client

	AuthToken string
}

func NewClient(token string) *Client {
	return &Client{
		token:      token,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		AuthToken:  newAuthToken(),
	}
}

func newAuthToken() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func (c *Client) request(ctx context.Context, method, endpoint string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("whapi error: %s %s status=%d body=%s", method, endpoint, resp.StatusCode, respBody)
	}
	return respBody, nil
}

// SendText sends a plain text message, or an interactive one when markup is
// given.
func (c *Client) SendText(ctx context.Context, to int64, text string, markup *Markup) error {
	endpoint := "/messages/text"
	var body any = map[string]any{
		"to":          strconv.FormatInt(to, 10),
		"body":        text,
		"typing_time": 0,
	}
	if markup != nil {
		endpoint = "/messages/interactive"
		body = map[string]any{
			"type":   "button",
			"to":     strconv.FormatInt(to, 10),
			"body":   map[string]any{"text": text},
			"action": markup,
		}
	}
	_, err := c.request(ctx, http.MethodPost, endpoint, body)
	return err
}

// SendDocument uploads a local file as a document message. The gateway takes
// the payload inline as a base64 data URI.
func (c *Client) SendDocument(ctx context.Context, to int64, filename, path, caption string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading document %s: %w", path, err)
	}

	body := map[string]any{
		"to": strconv.FormatInt(to, 10),
		"media": "data:application/octet-stream;name=" + filename +
			";base64," + base64.StdEncoding.EncodeToString(raw),
		"caption": caption,
	}
	_, err = c.request(ctx, http.MethodPost, "/messages/document", body)
	return err
}

// FetchFile downloads a remote media file the gateway linked in a webhook
// delivery.
func (c *Client) FetchFile(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch file: status=%d url=%s", resp.StatusCode, url)
	}
	return io.ReadAll(resp.Body)
}

// RegisterWebhook points the gateway at our webhook URL and enables media
// auto-download so media messages arrive with a fetchable link.
func (c *Client) RegisterWebhook(ctx context.Context, webhookURL string) error {
	body := map[string]any{
		"media": map[string]any{
			"auto_download": []string{"document", "audio", "video", "voice"},
		},
		"webhooks": []map[string]any{
			{
				"headers": map[string]string{
					"Authorization": "Bearer " + c.AuthToken,
				},
				"url":    webhookURL,
				"events": []map[string]string{{"type": "messages", "method": "post"}},
				"mode":   "body",
			},
		},
	}
	_, err := c.request(ctx, http.MethodPatch, "/settings", body)
	return err
}
