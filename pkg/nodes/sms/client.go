// Package sms sends text messages through Twilio or a custom HTTP gateway.
package sms

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
)

const DefaultTwilioBaseURL = "https://api.twilio.com"

var (
	ErrTwilioCredentials = errors.New("Twilio Account SID and Auth Token are required")
	ErrFromRequired      = errors.New("From phone number is required")
	ErrCustomEndpoint    = errors.New("Custom endpoint is required for custom SMS provider")
)

// Message is one outgoing SMS.
type Message struct {
	To   string `json:"to"`
	Body string `json:"message"`
	From string `json:"from,omitempty"`
}

// Client talks to the SMS gateways.
type Client struct {
	httpClient    *http.Client
	twilioBaseURL string
}

func NewClient(httpClient *http.Client, twilioBaseURL string) *Client {
	if twilioBaseURL == "" {
		twilioBaseURL = DefaultTwilioBaseURL
	}

	return &Client{httpClient: httpClient, twilioBaseURL: strings.TrimSuffix(twilioBaseURL, "/")}
}

// SendTwilio posts the message to the Twilio Messages API and returns its sid.
func (c *Client) SendTwilio(ctx context.Context, accountSID, authToken string, msg Message) (string, error) {
	if accountSID == "" || authToken == "" {
		return "", ErrTwilioCredentials
	}

	if msg.From == "" {
		return "", ErrFromRequired
	}

	form := url.Values{}
	form.Set("From", msg.From)
	form.Set("To", msg.To)
	form.Set("Body", msg.Body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", c.twilioBaseURL, url.PathEscape(accountSID))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create Twilio request: %w", err)
	}

	req.SetBasicAuth(accountSID, authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	data, err := c.do(req, "Twilio")
	if err != nil {
		return "", err
	}

	sid, _ := data["sid"].(string)

	return sid, nil
}

// SendCustom posts the message as JSON to endpoint and returns the message id
// reported by the gateway, if any.
func (c *Client) SendCustom(ctx context.Context, endpoint, apiKey string, msg Message) (string, error) {
	if endpoint == "" {
		return "", ErrCustomEndpoint
	}

	raw, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("failed to encode SMS: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("failed to create SMS request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	data, err := c.do(req, "Custom SMS")
	if err != nil {
		return "", err
	}

	for _, key := range []string{"messageId", "id"} {
		if id, ok := data[key].(string); ok && id != "" {
			return id, nil
		}
	}

	return "", nil
}

func (c *Client) do(req *http.Request, provider string) (map[string]any, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s API request failed: %w", provider, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s API response unreadable: %w", provider, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%s API error: %d %s", provider, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	data := map[string]any{}
	_ = json.Unmarshal(body, &data)

	return data, nil
}
