package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gitlab.com/dirk.krummacker/guard-contacts/internal/csvexport"
	"gitlab.com/dirk.krummacker/guard-contacts/internal/mailer"
	"gitlab.com/dirk.krummacker/guard-contacts/internal/metrics"
	"gitlab.com/dirk.krummacker/guard-contacts/internal/model"
	"gitlab.com/dirk.krummacker/guard-contacts/internal/store"
	apimodel "gitlab.com/dirk.krummacker/guard-contacts/pkg/model"
)

// health is the warm-up probe. It waits for the configured delay and reports readiness. Only the
// first probe served by the process is reported as a cold start.
//
// Example REST API call:
//
//	> curl http://localhost:8080/health
func (s *Service) health(c *gin.Context) {
	coldStart := s.probed.CompareAndSwap(false, true)
	if s.warmupDelay > 0 {
		timer := time.NewTimer(s.warmupDelay)
		select {
		case <-timer.C:
		case <-c.Request.Context().Done():
			timer.Stop()
		}
	}
	s.metrics.RecordWarmup(coldStart)
	c.IndentedJSON(http.StatusOK, apimodel.HealthStatus{
		Status:    "ready",
		Timestamp: s.now().UTC(),
		Message:   "Mini-server is warm and ready to export contacts! 🔥",
		ColdStart: coldStart,
	})
}

// exportContacts turns all contacts of the caller into a CSV document. Without the URL parameter
// 'email' the document is the response body. With it, the document is mailed to that address as
// an attachment and the response is a JSON summary.
//
// The caller is taken from the optional bearer token; without one the request runs anonymously
// and sees no contacts. Once the request has arrived it runs to completion even if the client
// goes away, and nothing is retried.
//
// REST API calls:
//
//	> curl --header "Authorization: Bearer $TOKEN" "http://localhost:8080/export-contacts"
//	> curl --header "Authorization: Bearer $TOKEN" "http://localhost:8080/export-contacts?email=me@example.com"
func (s *Service) exportContacts(c *gin.Context) {
	start := s.now()
	email := strings.TrimSpace(c.Query("email"))
	mode := metrics.ModeDownload
	if email != "" {
		mode = metrics.ModeEmail
	}
	ctx := context.WithoutCancel(c.Request.Context())

	contacts, err := s.fetchForExport(ctx, c.GetHeader("Authorization"))
	if err != nil {
		s.logger.Error("Could not fetch contacts for export.", zap.String("mode", mode), zap.Error(err))
		s.metrics.RecordExport(mode, metrics.OutcomeStoreError, s.now().Sub(start), 0)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to fetch contacts",
			"message": "Could not load your contacts. Please try again later.",
		})
		return
	}
	if len(contacts) == 0 {
		s.metrics.RecordExport(mode, metrics.OutcomeEmpty, s.now().Sub(start), 0)
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
			"error":   "No contacts found",
			"message": "There are no contacts to export.",
		})
		return
	}

	document := []byte(s.serializer.Serialize(contacts))
	now := s.now()
	filename := csvexport.Filename(now)

	if email == "" {
		s.metrics.RecordExport(mode, metrics.OutcomeSuccess, s.now().Sub(start), len(contacts))
		c.Header("Content-Disposition", "attachment; filename="+filename)
		c.Data(http.StatusOK, "text/csv; charset=utf-8", document)
		return
	}

	emailId, err := s.mailExport(ctx, email, filename, document, len(contacts), now)
	if err != nil {
		s.logger.Error("Could not send export email.", zap.Int("contacts", len(contacts)), zap.Error(err))
		s.metrics.RecordExport(mode, metrics.OutcomeDeliveryError, s.now().Sub(start), 0)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to send email",
			"message": "The export could not be delivered. Please try again.",
		})
		return
	}
	s.logger.Info("Export sent by email.", zap.Int("contacts", len(contacts)), zap.String("emailId", emailId))
	s.metrics.RecordExport(mode, metrics.OutcomeSuccess, s.now().Sub(start), len(contacts))
	c.IndentedJSON(http.StatusOK, apimodel.ExportResult{
		Success:      true,
		Message:      fmt.Sprintf("Export sent to %s successfully! 📧", email),
		Timestamp:    now.UTC(),
		ContactCount: len(contacts),
		EmailId:      emailId,
	})
}

// fetchForExport loads the contacts visible to the holder of the authorization header, newest
// first. A token the identity provider does not accept fails the same way a store error does.
func (s *Service) fetchForExport(ctx context.Context, authorization string) ([]model.Contact, error) {
	caller, err := s.verifier.CallerFromHeader(authorization)
	if err != nil {
		return nil, err
	}
	return s.store.ForOwner(caller.Id).List(ctx, store.ListOptions{})
}

// mailExport sends the document as an attachment and returns the delivery id.
func (s *Service) mailExport(ctx context.Context, to, filename string, document []byte, count int, now time.Time) (string, error) {
	local := now.In(s.location)
	body, err := mailer.HTMLBody(count, local)
	if err != nil {
		return "", err
	}
	return s.dispatcher.Send(ctx, mailer.Message{
		To:      to,
		Subject: mailer.Subject(count, local),
		HTML:    body,
		Attachment: mailer.Attachment{
			Filename: filename,
			Content:  document,
			MimeType: "text/csv",
		},
	})
}
