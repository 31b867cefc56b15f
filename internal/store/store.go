// Package store is the gateway to the contacts table. All access goes through a Scope that is
// bound to one owner, so a caller can only ever see and change the contacts it owns.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"gitlab.com/dirk.krummacker/guard-contacts/internal/config"
	"gitlab.com/dirk.krummacker/guard-contacts/internal/model"
)

// ErrNotFound is returned when no contact with the given id exists for the owner.
var ErrNotFound = errors.New("contact not found")

// columns lists the columns of the contacts table in the order of the model.
const columns = "id, user_id, name, email, phone, photo_url, created_at, updated_at"

// Store holds the database handle and the prepared statements shared by all scopes. It is safe
// for concurrent use.
type Store struct {
	db *sqlx.DB
	qb squirrel.StatementBuilderType

	// insert is a prepared statement for creating a contact.
	insert *sqlx.NamedStmt

	// selectWhereId is a prepared statement for selecting a contact by id and owner.
	selectWhereId *sqlx.Stmt

	// deleteWhereId is a prepared statement for deleting a contact by id and owner.
	deleteWhereId *sqlx.Stmt

	now   func() time.Time
	newId func() string
}

// CreateDatabase opens a connection pool to the MySQL database described by the configuration.
func CreateDatabase(cfg config.DatabaseConfig) (*sql.DB, error) {
	dsn := mysql.Config{
		User:                 cfg.User,
		Passwd:               cfg.Password,
		Net:                  "tcp",
		Addr:                 cfg.Host,
		DBName:               cfg.Name,
		ParseTime:            true,
		Loc:                  time.UTC,
		AllowNativePasswords: true,
	}
	sqlDB, err := sql.Open("mysql", dsn.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return sqlDB, nil
}

// New wraps the specified sql database and prepares all fixed statements. The database can be a
// real one for production use or a mock within unit tests.
func New(sqlDB *sql.DB) (*Store, error) {
	s := &Store{
		db:    sqlx.NewDb(sqlDB, "mysql"),
		qb:    squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
		now:   time.Now,
		newId: func() string { return uuid.NewString() },
	}
	var err error
	s.insert, err = s.db.PrepareNamed(`
		INSERT INTO contacts (id, user_id, name, email, phone, photo_url, created_at, updated_at)
		VALUES (:id, :user_id, :name, :email, :phone, :photo_url, :created_at, :updated_at)
	`)
	if err != nil {
		return nil, fmt.Errorf("prepare insert: %w", err)
	}
	s.selectWhereId, err = s.db.Preparex(`
		SELECT ` + columns + ` FROM contacts WHERE id = ? AND user_id = ?
	`)
	if err != nil {
		return nil, fmt.Errorf("prepare select: %w", err)
	}
	s.deleteWhereId, err = s.db.Preparex(`
		DELETE FROM contacts WHERE id = ? AND user_id = ?
	`)
	if err != nil {
		return nil, fmt.Errorf("prepare delete: %w", err)
	}
	return s, nil
}

// Close releases the prepared statements and the database handle.
func (s *Store) Close() error {
	return errors.Join(
		s.insert.Close(),
		s.selectWhereId.Close(),
		s.deleteWhereId.Close(),
		s.db.Close(),
	)
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ForOwner returns a data-access client bound to one owner. The empty owner stands for an
// anonymous caller and matches no rows.
func (s *Store) ForOwner(ownerId string) *Scope {
	return &Scope{store: s, owner: ownerId}
}

// Scope is a data-access client for the contacts of one owner. Scopes are cheap and meant to be
// created per request.
type Scope struct {
	store *Store
	owner string
}

// ListOptions narrows the result of List.
type ListOptions struct {
	// NamePrefix keeps only contacts whose name starts with the prefix, ignoring case.
	NamePrefix string
}

// List returns the owner's contacts, newest first.
func (sc *Scope) List(ctx context.Context, opts ListOptions) ([]model.Contact, error) {
	qb := sc.store.qb.Select(columns).
		From("contacts").
		Where(squirrel.Eq{"user_id": sc.owner})
	if opts.NamePrefix != "" {
		qb = qb.Where(squirrel.Like{"name": escapeLike(opts.NamePrefix) + "%"})
	}
	query, args, err := qb.OrderBy("created_at DESC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}
	contacts := []model.Contact{}
	if err := sc.store.db.SelectContext(ctx, &contacts, query, args...); err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	return contacts, nil
}

// Get returns the contact with the specified id.
func (sc *Scope) Get(ctx context.Context, id string) (model.Contact, error) {
	var contacts []model.Contact
	if err := sc.store.selectWhereId.SelectContext(ctx, &contacts, id, sc.owner); err != nil {
		return model.Contact{}, fmt.Errorf("select contact: %w", err)
	}
	if len(contacts) == 0 {
		return model.Contact{}, ErrNotFound
	}
	return contacts[0], nil
}

// Create stores a new contact. The id, the owner and both timestamps are assigned here; whatever
// the argument carries in those fields is ignored.
func (sc *Scope) Create(ctx context.Context, contact model.Contact) (model.Contact, error) {
	now := sc.store.now().UTC()
	contact.Id = sc.store.newId()
	contact.OwnerId = sc.owner
	contact.CreatedAt = now
	contact.UpdatedAt = now
	if _, err := sc.store.insert.ExecContext(ctx, &contact); err != nil {
		return model.Contact{}, fmt.Errorf("insert contact: %w", err)
	}
	return contact, nil
}

// Update changes the supplied fields of a contact (and only those) and returns the contact as it
// is stored afterwards.
func (sc *Scope) Update(ctx context.Context, id string, patch model.ContactPatch) (model.Contact, error) {
	qb := sc.store.qb.Update("contacts")
	if patch.Name != nil {
		qb = qb.Set("name", *patch.Name)
	}
	if patch.Email != nil {
		qb = qb.Set("email", *patch.Email)
	}
	if patch.Phone != nil {
		qb = qb.Set("phone", *patch.Phone)
	}
	if patch.PhotoURL != nil {
		qb = qb.Set("photo_url", *patch.PhotoURL)
	}
	query, args, err := qb.Set("updated_at", sc.store.now().UTC()).
		Where(squirrel.Eq{"id": id, "user_id": sc.owner}).
		ToSql()
	if err != nil {
		return model.Contact{}, fmt.Errorf("build update: %w", err)
	}
	result, err := sc.store.db.ExecContext(ctx, query, args...)
	if err != nil {
		return model.Contact{}, fmt.Errorf("update contact: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return model.Contact{}, fmt.Errorf("update contact: %w", err)
	}
	if rowsAffected == 0 {
		return model.Contact{}, ErrNotFound
	}
	return sc.Get(ctx, id)
}

// Delete removes the contact with the specified id.
func (sc *Scope) Delete(ctx context.Context, id string) error {
	result, err := sc.store.deleteWhereId.ExecContext(ctx, id, sc.owner)
	if err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// escapeLike neutralizes the LIKE wildcards in user input.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
