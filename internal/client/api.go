// Package client talks to the contacts service from the user's side: a typed API client, the
// export dialog controller and the contact list state.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"gitlab.com/dirk.krummacker/guard-contacts/pkg/model"
)

// ErrHTTPStatus matches every *StatusError.
var ErrHTTPStatus = errors.New("unexpected http status")

// StatusError is returned when the service answers with a status other than 2xx.
type StatusError struct {
	Code int
	Body model.ErrorResponse
}

func (e *StatusError) Error() string {
	if e.Body.Message != "" {
		return fmt.Sprintf("%s %d: %s", ErrHTTPStatus, e.Code, e.Body.Message)
	}
	if e.Body.Error != "" {
		return fmt.Sprintf("%s %d: %s", ErrHTTPStatus, e.Code, e.Body.Error)
	}
	return fmt.Sprintf("%s %d", ErrHTTPStatus, e.Code)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrHTTPStatus
}

// API is a client for the REST API of the contacts service. The bearer token, if any, is sent
// with every request.
type API struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewAPI creates a client for the service at baseURL. A nil client means http.DefaultClient.
func NewAPI(baseURL, token string, client *http.Client) *API {
	if client == nil {
		client = http.DefaultClient
	}
	return &API{baseURL: strings.TrimSuffix(baseURL, "/"), token: token, client: client}
}

// Health calls the warm-up probe.
func (a *API) Health(ctx context.Context) (model.HealthStatus, error) {
	var status model.HealthStatus
	err := a.doJSON(ctx, http.MethodGet, "/health", nil, nil, &status)
	return status, err
}

// ExportCSV downloads the CSV export and returns it together with the file name the service
// suggested.
func (a *API) ExportCSV(ctx context.Context) ([]byte, string, error) {
	resp, err := a.do(ctx, http.MethodGet, "/export-contacts", nil, nil)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return nil, "", err
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read export: %w", err)
	}
	var filename string
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		filename = params["filename"]
	}
	return body, filename, nil
}

// ExportToEmail asks the service to mail the CSV export to the address.
func (a *API) ExportToEmail(ctx context.Context, email string) (model.ExportResult, error) {
	var result model.ExportResult
	err := a.doJSON(ctx, http.MethodGet, "/export-contacts", url.Values{"email": {email}}, nil, &result)
	return result, err
}

// ListContacts returns the caller's contacts, optionally only those whose name starts with
// namePrefix.
func (a *API) ListContacts(ctx context.Context, namePrefix string) ([]model.Contact, error) {
	var query url.Values
	if namePrefix != "" {
		query = url.Values{"name": {namePrefix}}
	}
	var contacts []model.Contact
	err := a.doJSON(ctx, http.MethodGet, "/contacts", query, nil, &contacts)
	return contacts, err
}

func (a *API) GetContact(ctx context.Context, id string) (model.Contact, error) {
	var contact model.Contact
	err := a.doJSON(ctx, http.MethodGet, "/contacts/"+url.PathEscape(id), nil, nil, &contact)
	return contact, err
}

// CreateContact stores a new contact. Only name, email, phone and photo URL are taken from the
// argument.
func (a *API) CreateContact(ctx context.Context, contact model.Contact) (model.Contact, error) {
	var created model.Contact
	err := a.doJSON(ctx, http.MethodPost, "/contacts", nil, contact, &created)
	return created, err
}

func (a *API) UpdateContact(ctx context.Context, id string, patch model.ContactPatch) (model.Contact, error) {
	var updated model.Contact
	err := a.doJSON(ctx, http.MethodPut, "/contacts/"+url.PathEscape(id), nil, patch, &updated)
	return updated, err
}

func (a *API) DeleteContact(ctx context.Context, id string) error {
	return a.doJSON(ctx, http.MethodDelete, "/contacts/"+url.PathEscape(id), nil, nil, nil)
}

// doJSON sends the request and decodes a successful JSON answer into out, unless out is nil.
func (a *API) doJSON(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}
	resp, err := a.do(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return err
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func (a *API) do(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Response, error) {
	target := a.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

// checkStatus turns a non-2xx answer into a *StatusError carrying the decoded error body.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return nil
	}
	statusErr := &StatusError{Code: resp.StatusCode}
	_ = json.NewDecoder(resp.Body).Decode(&statusErr.Body)
	return statusErr
}
