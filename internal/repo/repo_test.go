package repo

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/dbpg"

	"clubevents/internal/model"
)

const migrationsDir = "../../migrations/postgres"

// setupRepo connects to TEST_POSTGRES_DSN and applies the migrations on a
// clean schema. Tests are skipped when the variable is unset.
func setupRepo(t *testing.T) *repository {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}

	db, err := dbpg.New(dsn, nil, &dbpg.Options{MaxOpenConns: 5, MaxIdleConns: 2, ConnMaxLifetime: time.Minute})
	require.NoError(t, err)

	log := zerolog.Nop()
	r, err := NewRepository(db, &log)
	require.NoError(t, err)
	require.NoError(t, r.MigrateDown(migrationsDir))
	require.NoError(t, r.MigrateUp(migrationsDir))
	t.Cleanup(func() {
		_ = r.MigrateDown(migrationsDir)
		_ = db.Master.Close()
	})
	return r.(*repository)
}

func newEvent() *model.Event {
	return &model.Event{
		Title:          "Book Club",
		EventDate:      time.Date(2026, 3, 15, 18, 0, 0, 0, time.UTC),
		Type:           model.ModalityPhysical,
		Status:         model.StatusUpcoming,
		WhatsAppNumber: "15551234567",
		FormFields: model.FormFields{
			{ID: "f1", Label: "Dietary", Kind: model.KindText, Required: true},
			{ID: "f2", Label: "Size", Kind: model.KindSelect, Options: []string{"S", "M", "L"}},
			{ID: "f3", Label: "Newsletter", Kind: model.KindCheckbox},
		},
	}
}

func TestEventRoundTrip(t *testing.T) {
	r := setupRepo(t)
	ctx := context.Background()

	e := newEvent()
	id, err := r.CreateEventTx(ctx, e, []model.Ticket{{Name: "Regular", Price: decimal.RequireFromString("12.50"), Quantity: 10}}, []string{"15550000001"})
	require.NoError(t, err)

	got, err := r.GetEventByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, e.FormFields, got.FormFields)
	assert.Equal(t, "Book Club", got.Title)
	assert.Nil(t, got.RegistrationEndDate)

	tickets, err := r.GetTicketsByEventID(ctx, id)
	require.NoError(t, err)
	require.Len(t, tickets, 1)
	assert.True(t, tickets[0].Price.Equal(decimal.RequireFromString("12.5")))

	_, err = r.GetEventByID(ctx, id+1000)
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestNullFormFieldsDecodeEmpty(t *testing.T) {
	r := setupRepo(t)
	ctx := context.Background()

	var id int64
	require.NoError(t, r.db.QueryRowContext(ctx, `
		INSERT INTO events (title, event_date) VALUES ('Legacy', NOW()) RETURNING id
	`).Scan(&id))

	got, err := r.GetEventByID(ctx, id)
	require.NoError(t, err)
	assert.NotNil(t, got.FormFields)
	assert.Empty(t, got.FormFields)
}

func TestReplaceTicketsOrder(t *testing.T) {
	r := setupRepo(t)
	ctx := context.Background()

	id, err := r.CreateEventTx(ctx, newEvent(), []model.Ticket{{Name: "Old 1"}, {Name: "Old 2"}}, nil)
	require.NoError(t, err)

	_, err = r.ReplaceTicketsTx(ctx, id, []model.Ticket{{Name: "C"}, {Name: "A"}, {Name: "B"}})
	require.NoError(t, err)

	tickets, err := r.GetTicketsByEventID(ctx, id)
	require.NoError(t, err)
	names := make([]string, 0, len(tickets))
	for _, tk := range tickets {
		names = append(names, tk.Name)
	}
	assert.Equal(t, []string{"C", "A", "B"}, names)

	_, err = r.ReplaceTicketsTx(ctx, id+1000, nil)
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestRegistrationAndCascadeDelete(t *testing.T) {
	r := setupRepo(t)
	ctx := context.Background()

	uid, err := r.CreateUser(ctx, &model.User{Name: "Ada", Email: "ada@example.com", Role: model.RoleMember, Status: model.UserActive, Password: "pw"})
	require.NoError(t, err)
	id, err := r.CreateEventTx(ctx, newEvent(), []model.Ticket{{Name: "Regular"}}, []string{"1555"})
	require.NoError(t, err)
	tickets, err := r.GetTicketsByEventID(ctx, id)
	require.NoError(t, err)

	reg := &model.Registration{UserID: uid, EventID: id, TicketID: &tickets[0].ID, FormResponses: model.Answers{"Dietary": "Vegan", "Newsletter": true}}
	regID, err := r.CreateRegistrationTx(ctx, reg)
	require.NoError(t, err)

	stored, err := r.GetRegistrationByID(ctx, regID)
	require.NoError(t, err)
	assert.Equal(t, model.Answers{"Dietary": "Vegan", "Newsletter": true}, stored.FormResponses)
	assert.Equal(t, "Ada", stored.UserName)

	_, err = r.CreateRegistrationTx(ctx, &model.Registration{UserID: uid + 1000, EventID: id})
	assert.ErrorIs(t, err, ErrUserNotFound)

	foreign := int64(999999)
	_, err = r.CreateRegistrationTx(ctx, &model.Registration{UserID: uid, EventID: id, TicketID: &foreign})
	assert.ErrorIs(t, err, ErrTicketNotFound)

	require.NoError(t, r.DeleteEventTx(ctx, id))

	for _, table := range []string{"registrations", "tickets", "whatsapp_contacts"} {
		var n int
		require.NoError(t, r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table+` WHERE event_id = $1`, id).Scan(&n))
		assert.Zero(t, n, table)
	}
	require.NoError(t, r.DeleteEventTx(ctx, id), "delete is idempotent")
	require.NoError(t, r.DeleteRegistration(ctx, regID), "delete is idempotent")
}

func TestCloseEventIfDue(t *testing.T) {
	r := setupRepo(t)
	ctx := context.Background()

	e := newEvent()
	past := time.Now().Add(-time.Hour)
	e.RegistrationEndDate = &past
	id, err := r.CreateEventTx(ctx, e, nil, nil)
	require.NoError(t, err)

	closed, err := r.CloseEventIfDue(ctx, id)
	require.NoError(t, err)
	assert.True(t, closed)

	closed, err = r.CloseEventIfDue(ctx, id)
	require.NoError(t, err)
	assert.False(t, closed)

	got, err := r.GetEventByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusClosed, got.Status)
}

func TestDuplicateEmail(t *testing.T) {
	r := setupRepo(t)
	ctx := context.Background()

	u := &model.User{Name: "Ada", Email: "ada@example.com", Role: model.RoleMember, Status: model.UserActive, Password: "pw"}
	_, err := r.CreateUser(ctx, u)
	require.NoError(t, err)

	_, err = r.CreateUser(ctx, &model.User{Name: "Other", Email: "ada@example.com", Role: model.RoleMember, Status: model.UserActive, Password: "pw"})
	assert.ErrorIs(t, err, ErrDuplicateEmail)
	assert.ErrorIs(t, err, model.ErrConflict)
}

func TestSettingsSeededAndUpserted(t *testing.T) {
	r := setupRepo(t)
	ctx := context.Background()

	settings, err := r.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Lumina Book Club", settings["site_name"])

	require.NoError(t, r.UpsertSettingsTx(ctx, map[string]string{"site_name": "Lumina", "new_key": "x"}))
	settings, err = r.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Lumina", settings["site_name"])
	assert.Equal(t, "x", settings["new_key"])
}

func TestBooksUnlinkedOnEventDelete(t *testing.T) {
	r := setupRepo(t)
	ctx := context.Background()

	seeded, err := r.GetAllBooks(ctx)
	require.NoError(t, err)
	assert.Len(t, seeded, 2)

	eid, err := r.CreateEventTx(ctx, newEvent(), nil, nil)
	require.NoError(t, err)
	b := &model.Book{Title: "Dune", Author: "Frank Herbert", Status: model.BookAvailable, EventID: &eid}
	bid, err := r.CreateBook(ctx, b)
	require.NoError(t, err)

	missing := eid + 1000
	_, err = r.CreateBook(ctx, &model.Book{Title: "X", Author: "Y", Status: model.BookAvailable, EventID: &missing})
	assert.ErrorIs(t, err, ErrEventNotFound)

	err = r.UpdateBook(ctx, &model.Book{ID: bid + 1000, Title: "X", Author: "Y", Status: model.BookAvailable})
	assert.ErrorIs(t, err, ErrBookNotFound)

	require.NoError(t, r.DeleteEventTx(ctx, eid))

	books, err := r.GetAllBooks(ctx)
	require.NoError(t, err)
	require.Len(t, books, 3)
	assert.Equal(t, bid, books[2].ID)
	assert.Nil(t, books[2].EventID)

	require.NoError(t, r.DeleteBook(ctx, bid))
	require.NoError(t, r.DeleteBook(ctx, bid))
}
