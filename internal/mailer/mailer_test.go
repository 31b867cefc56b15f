package mailer

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSend(t *testing.T) {
	var received sendRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer key-123", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"email-42"}`))
	}))
	defer server.Close()

	dispatcher := NewHTTPDispatcher(server.URL, "key-123", "Guard <noreply@example.com>", server.Client())
	id, err := dispatcher.Send(context.Background(), Message{
		To:      "user@example.com",
		Subject: "subject",
		HTML:    "<p>hi</p>",
		Attachment: Attachment{
			Filename: "contacts-export-2024-01-15.csv",
			Content:  []byte("Name,Email,Phone,Created At\n"),
			MimeType: "text/csv",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "email-42", id)

	assert.Equal(t, "Guard <noreply@example.com>", received.From)
	assert.Equal(t, []string{"user@example.com"}, received.To)
	assert.Equal(t, "subject", received.Subject)
	assert.Equal(t, "<p>hi</p>", received.HTML)
	require.Len(t, received.Attachments, 1)
	assert.Equal(t, "contacts-export-2024-01-15.csv", received.Attachments[0].Filename)
	assert.Equal(t, "text/csv", received.Attachments[0].ContentType)
	content, err := base64.StdEncoding.DecodeString(received.Attachments[0].Content)
	require.NoError(t, err)
	assert.Equal(t, "Name,Email,Phone,Created At\n", string(content))
}

func TestSendRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"statusCode":422,"message":"Invalid to field"}`))
	}))
	defer server.Close()

	dispatcher := NewHTTPDispatcher(server.URL, "key", "from@example.com", nil)
	id, err := dispatcher.Send(context.Background(), Message{To: "nope"})
	assert.Empty(t, id)
	var deliveryErr *DeliveryError
	require.True(t, errors.As(err, &deliveryErr))
	assert.Equal(t, http.StatusUnprocessableEntity, deliveryErr.Status)
	assert.Contains(t, err.Error(), "Invalid to field")
}

func TestSendWithoutId(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	_, err := NewHTTPDispatcher(server.URL, "key", "from@example.com", nil).Send(context.Background(), Message{To: "a@b.c"})
	var deliveryErr *DeliveryError
	require.True(t, errors.As(err, &deliveryErr))
	assert.Equal(t, http.StatusOK, deliveryErr.Status)
}

func TestSendUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := NewHTTPDispatcher(url, "key", "from@example.com", nil).Send(context.Background(), Message{To: "a@b.c"})
	var deliveryErr *DeliveryError
	require.True(t, errors.As(err, &deliveryErr))
	assert.Zero(t, deliveryErr.Status)
}

func TestSubject(t *testing.T) {
	now := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	assert.Equal(t, "📧 Exportação de 3 contatos - 15/01/2024", Subject(3, now))
}

func TestHTMLBody(t *testing.T) {
	now := time.Date(2024, 1, 15, 10, 30, 5, 0, time.UTC)
	body, err := HTMLBody(12, now)
	require.NoError(t, err)
	assert.Contains(t, body, "<strong>Total de contatos:</strong> 12")
	assert.Contains(t, body, "15/01/2024, 10:30:05")
	assert.Contains(t, body, "CSV (Excel compatível)")
	for _, column := range []string{"Nome", "Email", "Telefone", "Data de Criação"} {
		assert.Contains(t, body, "<li>"+column+"</li>")
	}
	assert.True(t, strings.HasPrefix(body, "<!DOCTYPE html>"))
}
