package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/dbpg"

	"clubevents/internal/model"
)

var (
	ErrEventNotFound        = fmt.Errorf("event %w", model.ErrNotFound)
	ErrTicketNotFound       = fmt.Errorf("ticket %w", model.ErrNotFound)
	ErrUserNotFound         = fmt.Errorf("user %w", model.ErrNotFound)
	ErrRegistrationNotFound = fmt.Errorf("registration %w", model.ErrNotFound)
	ErrBookNotFound         = fmt.Errorf("book %w", model.ErrNotFound)
	ErrDuplicateEmail       = fmt.Errorf("email already exists: %w", model.ErrConflict)
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

type EventRepository interface {
	CreateEventTx(ctx context.Context, e *model.Event, tickets []model.Ticket, contacts []string) (int64, error)
	UpdateEventTx(ctx context.Context, e *model.Event, tickets []model.Ticket, contacts []string) error
	UpdateEventStatus(ctx context.Context, id int64, status model.EventStatus) error
	CloseEventIfDue(ctx context.Context, id int64) (bool, error)
	DeleteEventTx(ctx context.Context, id int64) error
	GetEventByID(ctx context.Context, id int64) (*model.Event, error)
	GetAllEvents(ctx context.Context) ([]model.Event, error)
	GetContactsByEventID(ctx context.Context, eventID int64) ([]model.ContactChannel, error)
	Stats(ctx context.Context) (model.Stats, error)
}

type TicketRepository interface {
	ReplaceTicketsTx(ctx context.Context, eventID int64, tickets []model.Ticket) ([]model.Ticket, error)
	GetTicketsByEventID(ctx context.Context, eventID int64) ([]model.Ticket, error)
}

type RegistrationRepository interface {
	CreateRegistrationTx(ctx context.Context, reg *model.Registration) (int64, error)
	DeleteRegistration(ctx context.Context, id int64) error
	GetRegistrationByID(ctx context.Context, id int64) (*model.Registration, error)
	GetRegistrationsByEventID(ctx context.Context, eventID int64) ([]model.Registration, error)
}

type UserRepository interface {
	CreateUser(ctx context.Context, u *model.User) (int64, error)
	UpdateUser(ctx context.Context, u *model.User) error
	DeleteUserTx(ctx context.Context, id int64) error
	GetUserByCredentials(ctx context.Context, email, password string) (*model.User, error)
	GetAllUsers(ctx context.Context) ([]model.User, error)
}

type SettingsRepository interface {
	GetSettings(ctx context.Context) (map[string]string, error)
	UpsertSettingsTx(ctx context.Context, settings map[string]string) error
}

type BookRepository interface {
	CreateBook(ctx context.Context, b *model.Book) (int64, error)
	UpdateBook(ctx context.Context, b *model.Book) error
	DeleteBook(ctx context.Context, id int64) error
	GetAllBooks(ctx context.Context) ([]model.Book, error)
}

type Repository interface {
	EventRepository
	TicketRepository
	RegistrationRepository
	UserRepository
	SettingsRepository
	BookRepository
	MigrateUp(migrationsDir string) error
	MigrateDown(migrationsDir string) error
}

type repository struct {
	db  *dbpg.DB
	log *zerolog.Logger
}

func NewRepository(db *dbpg.DB, log *zerolog.Logger) (Repository, error) {
	if db == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}
	if err := db.Master.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}
	return &repository{db: db, log: log}, nil
}

func (r *repository) MigrateUp(migrationsDir string) error {
	files, err := filepath.Glob(filepath.Join(migrationsDir, "*.up.sql"))
	if err != nil {
		return fmt.Errorf("failed to read migration files: %w", err)
	}
	sort.Strings(files)

	for _, file := range files {
		sqlBytes, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", file, err)
		}

		if _, err := r.db.ExecContext(context.Background(), string(sqlBytes)); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", file, err)
		}
	}

	r.log.Info().Msgf("Migrations applied successfully from %s", migrationsDir)
	return nil
}

func (r *repository) MigrateDown(migrationsDir string) error {
	files, err := filepath.Glob(filepath.Join(migrationsDir, "*.down.sql"))
	if err != nil {
		return fmt.Errorf("failed to read rollback files: %w", err)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(files)))

	for _, file := range files {
		sqlBytes, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read rollback file %s: %w", file, err)
		}

		if _, err := r.db.ExecContext(context.Background(), string(sqlBytes)); err != nil {
			return fmt.Errorf("failed to rollback migration %s: %w", file, err)
		}
	}

	r.log.Info().Msgf("Migrations rolled back successfully from %s", migrationsDir)
	return nil
}

// withTx runs fn inside a transaction on the master. Any error returned by
// fn rolls the transaction back.
func (r *repository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.Master.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return hasCode(err, uniqueViolation)
}

func isForeignKeyViolation(err error) bool {
	return hasCode(err, foreignKeyViolation)
}

func hasCode(err error, code pq.ErrorCode) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == code
}
