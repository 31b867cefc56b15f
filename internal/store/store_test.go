package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/dirk.krummacker/guard-contacts/internal/model"
)

var (
	rowColumns = []string{"id", "user_id", "name", "email", "phone", "photo_url", "created_at", "updated_at"}
	fixedNow   = time.Date(2025, time.March, 4, 12, 30, 0, 0, time.UTC)
)

// createMockObjects builds a mock database handle and a mock object for defining our expected SQL
// calls.
func createMockObjects(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	return db, mock
}

// expectPreparedStatements instructs the mock object to expect that several statements are being
// prepared.
func expectPreparedStatements(mock sqlmock.Sqlmock) {
	mock.ExpectPrepare("INSERT INTO contacts")
	mock.ExpectPrepare("SELECT (.+) FROM contacts WHERE id = \\? AND user_id = \\?")
	mock.ExpectPrepare("DELETE FROM contacts WHERE id = \\? AND user_id = \\?")
}

// createStore builds a store on top of the mock database with a fixed clock and fixed ids.
func createStore(t *testing.T, db *sql.DB) *Store {
	s, err := New(db)
	require.NoError(t, err)
	s.now = func() time.Time { return fixedNow }
	s.newId = func() string { return "0b6f2a52-7e0c-4a3f-9a53-3c1c2b9f8d11" }
	return s
}

func strPtr(s string) *string {
	return &s
}

// TestList expects the owner's contacts in the order returned by the database.
func TestList(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()

	expectPreparedStatements(mock)
	rows := mock.NewRows(rowColumns).
		AddRow("c-2", "owner-1", "Berta", "berta@example.com", nil, nil, fixedNow, fixedNow).
		AddRow("c-1", "owner-1", "Aaron", nil, "+55 11 9999", nil, fixedNow.Add(-time.Hour), fixedNow)
	mock.ExpectQuery("SELECT (.+) FROM contacts WHERE user_id = \\? ORDER BY created_at DESC").
		WithArgs("owner-1").
		WillReturnRows(rows)

	contacts, err := createStore(t, db).ForOwner("owner-1").List(context.Background(), ListOptions{})
	require.NoError(t, err)
	require.Len(t, contacts, 2)
	assert.Equal(t, "c-2", contacts[0].Id)
	assert.Equal(t, "Berta", contacts[0].Name)
	assert.Equal(t, "berta@example.com", *contacts[0].Email)
	assert.Nil(t, contacts[0].Phone)
	assert.Equal(t, "c-1", contacts[1].Id)
	assert.Nil(t, contacts[1].Email)
	assert.Equal(t, "+55 11 9999", *contacts[1].Phone)
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

// TestListEmpty expects an empty, non-nil slice when the owner has no contacts.
func TestListEmpty(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()

	expectPreparedStatements(mock)
	mock.ExpectQuery("SELECT (.+) FROM contacts WHERE user_id = \\?").
		WithArgs("").
		WillReturnRows(mock.NewRows(rowColumns))

	contacts, err := createStore(t, db).ForOwner("").List(context.Background(), ListOptions{})
	require.NoError(t, err)
	assert.NotNil(t, contacts)
	assert.Empty(t, contacts)
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

// TestListWithNamePrefix expects that the prefix is escaped and used in a LIKE condition.
func TestListWithNamePrefix(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()

	expectPreparedStatements(mock)
	mock.ExpectQuery("SELECT (.+) FROM contacts WHERE user_id = \\? AND name LIKE \\? ORDER BY created_at DESC").
		WithArgs("owner-1", `Jo\%%`).
		WillReturnRows(mock.NewRows(rowColumns))

	_, err := createStore(t, db).ForOwner("owner-1").List(context.Background(), ListOptions{NamePrefix: "Jo%"})
	require.NoError(t, err)
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

// TestListError expects that a failing query surfaces as an error.
func TestListError(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()

	expectPreparedStatements(mock)
	mock.ExpectQuery("SELECT (.+) FROM contacts").
		WillReturnError(errors.New("connection refused"))

	_, err := createStore(t, db).ForOwner("owner-1").List(context.Background(), ListOptions{})
	assert.ErrorContains(t, err, "connection refused")
}

// TestGet expects the contact with the given id.
func TestGet(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()

	expectPreparedStatements(mock)
	mock.ExpectQuery("SELECT (.+) FROM contacts WHERE id = \\? AND user_id = \\?").
		WithArgs("c-1", "owner-1").
		WillReturnRows(mock.NewRows(rowColumns).
			AddRow("c-1", "owner-1", "Erika Mustermann", nil, nil, "https://cdn.example.com/e.png", fixedNow, fixedNow))

	contact, err := createStore(t, db).ForOwner("owner-1").Get(context.Background(), "c-1")
	require.NoError(t, err)
	assert.Equal(t, "Erika Mustermann", contact.Name)
	assert.Equal(t, "https://cdn.example.com/e.png", *contact.PhotoURL)
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

// TestGetOtherOwner expects ErrNotFound for a contact that belongs to somebody else.
func TestGetOtherOwner(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()

	expectPreparedStatements(mock)
	mock.ExpectQuery("SELECT (.+) FROM contacts WHERE id = \\? AND user_id = \\?").
		WithArgs("c-1", "owner-2").
		WillReturnRows(mock.NewRows(rowColumns))

	_, err := createStore(t, db).ForOwner("owner-2").Get(context.Background(), "c-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

// TestCreate expects that id, owner and timestamps are assigned by the store.
func TestCreate(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()

	expectPreparedStatements(mock)
	mock.ExpectExec("INSERT INTO contacts").
		WithArgs(
			"0b6f2a52-7e0c-4a3f-9a53-3c1c2b9f8d11",
			"owner-1",
			"Erika Mustermann",
			"erika@example.com",
			nil,
			nil,
			fixedNow,
			fixedNow,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	contact, err := createStore(t, db).ForOwner("owner-1").Create(context.Background(), model.Contact{
		Id:      "ignored",
		OwnerId: "somebody-else",
		Name:    "Erika Mustermann",
		Email:   strPtr("erika@example.com"),
	})
	require.NoError(t, err)
	assert.Equal(t, "0b6f2a52-7e0c-4a3f-9a53-3c1c2b9f8d11", contact.Id)
	assert.Equal(t, "owner-1", contact.OwnerId)
	assert.Equal(t, fixedNow, contact.CreatedAt)
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

// TestUpdatePartial expects that only the supplied fields are part of the UPDATE statement.
func TestUpdatePartial(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()

	expectPreparedStatements(mock)
	mock.ExpectExec("UPDATE contacts SET phone = \\?, updated_at = \\? WHERE id = \\? AND user_id = \\?").
		WithArgs("+55 21 1234", fixedNow, "c-1", "owner-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT (.+) FROM contacts WHERE id = \\? AND user_id = \\?").
		WithArgs("c-1", "owner-1").
		WillReturnRows(mock.NewRows(rowColumns).
			AddRow("c-1", "owner-1", "Rudi Völler", nil, "+55 21 1234", nil, fixedNow, fixedNow))

	contact, err := createStore(t, db).ForOwner("owner-1").Update(context.Background(), "c-1",
		model.ContactPatch{Phone: strPtr("+55 21 1234")})
	require.NoError(t, err)
	assert.Equal(t, "Rudi Völler", contact.Name)
	assert.Equal(t, "+55 21 1234", *contact.Phone)
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

// TestUpdateNotFound expects ErrNotFound when no row was affected.
func TestUpdateNotFound(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()

	expectPreparedStatements(mock)
	mock.ExpectExec("UPDATE contacts SET name = \\?, updated_at = \\?").
		WithArgs("Rudi", fixedNow, "c-9", "owner-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := createStore(t, db).ForOwner("owner-1").Update(context.Background(), "c-9",
		model.ContactPatch{Name: strPtr("Rudi")})
	assert.ErrorIs(t, err, ErrNotFound)
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

// TestDelete deletes an existing and a missing contact.
func TestDelete(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()

	expectPreparedStatements(mock)
	mock.ExpectExec("DELETE FROM contacts").
		WithArgs("c-1", "owner-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM contacts").
		WithArgs("c-1", "owner-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	scope := createStore(t, db).ForOwner("owner-1")
	assert.NoError(t, scope.Delete(context.Background(), "c-1"))
	assert.ErrorIs(t, scope.Delete(context.Background(), "c-1"), ErrNotFound)
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `Jo\_\%\\a`, escapeLike(`Jo_%\a`))
	assert.Equal(t, "Ana", escapeLike("Ana"))
}
