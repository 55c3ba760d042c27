// Package telegram posts pre-formatted messages through the Bot API.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"bybitnotifier/pkg/apierror"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	DefaultBaseURL = "https://api.telegram.org"

	methodSendMessage = "sendMessage"
	serviceName       = "telegram"
)

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// Client sends messages to one chat with one bot token.
type Client struct {
	baseURL    string
	token      string
	chatID     string
	httpClient *http.Client
}

func NewClient(baseURL, token, chatID string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		chatID:     chatID,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Send posts text as an HTML message. It returns nil only after a 2xx
// response whose envelope reports ok.
func (c *Client) Send(ctx context.Context, text string) error {
	payload, err := json.Marshal(sendMessageRequest{
		ChatID:    c.chatID,
		Text:      text,
		ParseMode: tgbotapi.ModeHTML,
	})
	if err != nil {
		return &apierror.RequestError{Service: serviceName, Op: methodSendMessage, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL(methodSendMessage), bytes.NewReader(payload))
	if err != nil {
		return &apierror.RequestError{Service: serviceName, Op: methodSendMessage, Err: c.redact(err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &apierror.RequestError{Service: serviceName, Op: methodSendMessage, Err: c.redact(err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &apierror.RequestError{Service: serviceName, Op: methodSendMessage, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &apierror.RequestError{
			Service:    serviceName,
			Op:         methodSendMessage,
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}

	return decodeResponse(body)
}

// decodeResponse validates the {ok, error_code, description} envelope.
func decodeResponse(body []byte) error {
	var apiResp tgbotapi.APIResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return &apierror.ParseError{Service: serviceName, Reason: "decode envelope", Body: string(body), Err: err}
	}
	if !apiResp.Ok {
		msg := apiResp.Description
		if msg == "" {
			msg = "unknown error"
		}
		return &apierror.APIError{Service: serviceName, Code: apiResp.ErrorCode, Message: msg}
	}
	return nil
}

func (c *Client) methodURL(method string) string {
	return c.baseURL + "/bot" + c.token + "/" + method
}

// redact keeps the bot token out of transport error strings.
func (c *Client) redact(err error) error {
	if c.token == "" {
		return err
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		urlErr.URL = strings.ReplaceAll(urlErr.URL, c.token, "<redacted>")
		return err
	}
	if strings.Contains(err.Error(), c.token) {
		return errors.New(strings.ReplaceAll(err.Error(), c.token, "<redacted>"))
	}
	return err
}
