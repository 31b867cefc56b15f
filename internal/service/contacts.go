package service

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"gitlab.com/dirk.krummacker/guard-contacts/internal/model"
	"gitlab.com/dirk.krummacker/guard-contacts/internal/store"
)

// newContact is the body of a create request.
type newContact struct {
	Name     string  `json:"name"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	PhotoURL *string `json:"photo_url"`
}

// findContacts responds with the caller's contacts as JSON, newest first.
//
// The URL parameter 'name' is interpreted as the beginning of the contact's name, ignoring case.
//
// REST API calls:
//
//	> curl --header "Authorization: Bearer $TOKEN" "http://localhost:8080/contacts"
//	> curl --header "Authorization: Bearer $TOKEN" "http://localhost:8080/contacts?name=Jo"
func (s *Service) findContacts(c *gin.Context) {
	contacts, err := s.scope(c).List(c.Request.Context(), store.ListOptions{NamePrefix: c.Query("name")})
	if err != nil {
		s.internalError(c, "Could not list contacts.", err)
		return
	}
	c.IndentedJSON(http.StatusOK, contacts)
}

// createContact inserts the contact specified in the request's JSON into the database. It responds
// with the full contact data including the newly assigned id and timestamps.
//
// Example REST API call:
//
//	> curl http://localhost:8080/contacts --request "POST" --include --header "Authorization: Bearer $TOKEN" --header "Content-Type: application/json" --data '{"name": "João Silva", "email": "joao@email.com", "phone": "(11) 99999-1234"}'
func (s *Service) createContact(c *gin.Context) {
	var submitted newContact
	if err := c.BindJSON(&submitted); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Bad request", "message": "invalid JSON"})
		return
	}
	name := strings.TrimSpace(submitted.Name)
	if name == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Bad request", "message": "name is required"})
		return
	}
	created, err := s.scope(c).Create(c.Request.Context(), model.Contact{
		Name:     name,
		Email:    submitted.Email,
		Phone:    submitted.Phone,
		PhotoURL: submitted.PhotoURL,
	})
	if err != nil {
		s.internalError(c, "Could not create contact.", err)
		return
	}
	c.IndentedJSON(http.StatusCreated, created)
}

// findContactByID locates the contact whose ID value matches the id parameter of the request URL,
// then returns that contact as a response.
//
// Example REST API call:
//
//	> curl --header "Authorization: Bearer $TOKEN" http://localhost:8080/contacts/0b6f2a52-7e0c-4a3f-9a53-3c1c2b9f8d11
func (s *Service) findContactByID(c *gin.Context) {
	id, ok := contactID(c)
	if !ok {
		return
	}
	contact, err := s.scope(c).Get(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Not found", "message": "contact not found"})
		return
	}
	if err != nil {
		s.internalError(c, "Could not load contact.", err)
		return
	}
	c.IndentedJSON(http.StatusOK, contact)
}

// updateContactByID updates the contact whose ID value matches the id parameter of the request
// URL, updates the values specified in the JSON (and only those), and finally responds with the
// new version of the contact.
//
// Example REST API call:
//
//	> curl http://localhost:8080/contacts/0b6f2a52-7e0c-4a3f-9a53-3c1c2b9f8d11 --request "PUT" --include --header "Authorization: Bearer $TOKEN" --header "Content-Type: application/json" --data '{"phone": "81970"}'
func (s *Service) updateContactByID(c *gin.Context) {
	id, ok := contactID(c)
	if !ok {
		return
	}
	var patch model.ContactPatch
	if err := c.BindJSON(&patch); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Bad request", "message": "invalid JSON"})
		return
	}

	// It only makes sense to continue if we have at least one value to update.
	if patch.IsEmpty() {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Bad request", "message": "no values to be updated"})
		return
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Bad request", "message": "name must not be empty"})
			return
		}
		patch.Name = &name
	}

	updated, err := s.scope(c).Update(c.Request.Context(), id, patch)
	if errors.Is(err, store.ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Not found", "message": "contact not found"})
		return
	}
	if err != nil {
		s.internalError(c, "Could not update contact.", err)
		return
	}
	c.IndentedJSON(http.StatusOK, updated)
}

// deleteContactByID deletes the contact whose ID value matches the id parameter of the request URL
// from the database.
//
// Example REST API call:
//
//	> curl http://localhost:8080/contacts/0b6f2a52-7e0c-4a3f-9a53-3c1c2b9f8d11 --request "DELETE" --header "Authorization: Bearer $TOKEN"
func (s *Service) deleteContactByID(c *gin.Context) {
	id, ok := contactID(c)
	if !ok {
		return
	}
	err := s.scope(c).Delete(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Not found", "message": "contact not found"})
		return
	}
	if err != nil {
		s.internalError(c, "Could not delete contact.", err)
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"message": "contact deleted"})
}

// contactID validates the id parameter of the request URL. Ids that cannot exist are answered
// with NOT FOUND without asking the database.
func contactID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Not found", "message": "invalid id parameter"})
		return "", false
	}
	return id, true
}

func (s *Service) internalError(c *gin.Context, msg string, err error) {
	s.logger.Error(msg, zap.Error(err))
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}
