// Package mailer delivers export documents through a transactional email provider.
package mailer

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// Attachment is a file sent along with a message.
type Attachment struct {
	Filename string
	Content  []byte
	MimeType string
}

// Message is everything the provider needs for one delivery.
type Message struct {
	To         string
	Subject    string
	HTML       string
	Attachment Attachment
}

// Dispatcher sends a message and returns the provider's delivery identifier. Every kind of
// failure is reported as a *DeliveryError.
type Dispatcher interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// DeliveryError reports that the provider did not accept a message. Status is the HTTP status
// of the provider's answer, or 0 if there was none.
type DeliveryError struct {
	Status int
	Err    error
}

func (e *DeliveryError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("email delivery failed with status %d: %v", e.Status, e.Err)
	}
	return fmt.Sprintf("email delivery failed: %v", e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// HTTPDispatcher talks to the REST API of the email provider.
type HTTPDispatcher struct {
	url    string
	apiKey string
	from   string
	client *http.Client
}

// NewHTTPDispatcher creates a dispatcher for the endpoint url. A nil client means
// http.DefaultClient; no timeout is added on top of the client's own.
func NewHTTPDispatcher(url, apiKey, from string, client *http.Client) *HTTPDispatcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPDispatcher{url: url, apiKey: apiKey, from: from, client: client}
}

type sendRequest struct {
	From        string              `json:"from"`
	To          []string            `json:"to"`
	Subject     string              `json:"subject"`
	HTML        string              `json:"html"`
	Attachments []attachmentPayload `json:"attachments,omitempty"`
}

type attachmentPayload struct {
	Filename    string `json:"filename"`
	Content     string `json:"content"`
	ContentType string `json:"content_type,omitempty"`
}

type sendResponse struct {
	Id      string `json:"id"`
	Message string `json:"message"`
}

// Send posts the message to the provider.
func (d *HTTPDispatcher) Send(ctx context.Context, msg Message) (string, error) {
	payload := sendRequest{
		From:    d.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		HTML:    msg.HTML,
	}
	if msg.Attachment.Filename != "" {
		payload.Attachments = []attachmentPayload{{
			Filename:    msg.Attachment.Filename,
			Content:     base64.StdEncoding.EncodeToString(msg.Attachment.Content),
			ContentType: msg.Attachment.MimeType,
		}}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", &DeliveryError{Err: fmt.Errorf("encode request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return "", &DeliveryError{Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+d.apiKey)

	resp, err := d.client.Do(req)
	if err != nil {
		return "", &DeliveryError{Err: err}
	}
	defer resp.Body.Close()

	responseBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &DeliveryError{Status: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}
	var answer sendResponse
	_ = json.Unmarshal(responseBytes, &answer)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		reason := answer.Message
		if reason == "" {
			reason = http.StatusText(resp.StatusCode)
		}
		return "", &DeliveryError{Status: resp.StatusCode, Err: errors.New(reason)}
	}
	if answer.Id == "" {
		return "", &DeliveryError{Status: resp.StatusCode, Err: errors.New("provider returned no delivery id")}
	}
	return answer.Id, nil
}
