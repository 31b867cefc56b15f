// Package model holds the JSON types of the public HTTP API. They are shared by the service and
// by API consumers such as the command line client.
package model

import "time"

// Contact is the data structure for a person that we know, as seen by API consumers.
type Contact struct {
	Id        string    `json:"id"`
	OwnerId   string    `json:"user_id,omitempty"`
	Name      string    `json:"name"`
	Email     *string   `json:"email,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	PhotoURL  *string   `json:"photo_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HealthStatus is the answer of the warm-up endpoint.
type HealthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
	ColdStart bool      `json:"coldStart"`
}

// ExportResult is the success envelope of an export delivered by email.
type ExportResult struct {
	Success      bool      `json:"success"`
	Message      string    `json:"message"`
	Timestamp    time.Time `json:"timestamp"`
	ContactCount int       `json:"contactCount"`
	EmailId      string    `json:"emailId"`
}

// ErrorResponse is the body of every non-2xx JSON answer.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// ContactPatch is the body of an update. Only the fields that are set are changed.
type ContactPatch struct {
	Name     *string `json:"name,omitempty"`
	Email    *string `json:"email,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	PhotoURL *string `json:"photo_url,omitempty"`
}
