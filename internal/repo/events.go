package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"clubevents/internal/model"
)

const eventColumns = `id, title, COALESCE(description, ''), event_date, COALESCE(location, ''),
	COALESCE(type, ''), status, COALESCE(whatsapp_number, ''), form_fields,
	registration_start_date, registration_end_date, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*model.Event, error) {
	var e model.Event
	if err := row.Scan(
		&e.ID,
		&e.Title,
		&e.Description,
		&e.EventDate,
		&e.Location,
		&e.Type,
		&e.Status,
		&e.WhatsAppNumber,
		&e.FormFields,
		&e.RegistrationStartDate,
		&e.RegistrationEndDate,
		&e.CreatedAt,
		&e.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *repository) CreateEventTx(ctx context.Context, e *model.Event, tickets []model.Ticket, contacts []string) (int64, error) {
	var id int64
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO events (title, description, event_date, location, type, status, whatsapp_number,
				form_fields, registration_start_date, registration_end_date)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING id, created_at, updated_at
		`,
			e.Title, e.Description, e.EventDate, e.Location, e.Type, e.Status, e.WhatsAppNumber,
			e.FormFields, e.RegistrationStartDate, e.RegistrationEndDate,
		).Scan(&id, &e.CreatedAt, &e.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert event: %w", err)
		}

		if _, err := insertTickets(ctx, tx, id, tickets); err != nil {
			return err
		}
		return insertContacts(ctx, tx, id, contacts)
	})
	if err != nil {
		return 0, err
	}
	e.ID = id
	return id, nil
}

// UpdateEventTx replaces the event's scalar fields and form schema. A nil
// tickets or contacts slice leaves that set as it is.
func (r *repository) UpdateEventTx(ctx context.Context, e *model.Event, tickets []model.Ticket, contacts []string) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			UPDATE events
			SET title = $1, description = $2, event_date = $3, location = $4, type = $5, status = $6,
				whatsapp_number = $7, form_fields = $8, registration_start_date = $9,
				registration_end_date = $10, updated_at = NOW()
			WHERE id = $11
			RETURNING created_at, updated_at
		`,
			e.Title, e.Description, e.EventDate, e.Location, e.Type, e.Status, e.WhatsAppNumber,
			e.FormFields, e.RegistrationStartDate, e.RegistrationEndDate, e.ID,
		).Scan(&e.CreatedAt, &e.UpdatedAt)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrEventNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to update event: %w", err)
		}

		if tickets != nil {
			if _, err := tx.ExecContext(ctx, `DELETE FROM tickets WHERE event_id = $1`, e.ID); err != nil {
				return fmt.Errorf("failed to delete tickets: %w", err)
			}
			if _, err := insertTickets(ctx, tx, e.ID, tickets); err != nil {
				return err
			}
		}

		if contacts != nil {
			if _, err := tx.ExecContext(ctx, `DELETE FROM whatsapp_contacts WHERE event_id = $1`, e.ID); err != nil {
				return fmt.Errorf("failed to delete contacts: %w", err)
			}
			if err := insertContacts(ctx, tx, e.ID, contacts); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *repository) UpdateEventStatus(ctx context.Context, id int64, status model.EventStatus) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE events SET status = $1, updated_at = NOW() WHERE id = $2
	`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update event status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrEventNotFound
	}
	return nil
}

// CloseEventIfDue flips an upcoming event to closed once its registration
// end date has passed. It reports whether the status changed.
func (r *repository) CloseEventIfDue(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE events
		SET status = 'closed', updated_at = NOW()
		WHERE id = $1
		  AND status = 'upcoming'
		  AND registration_end_date IS NOT NULL
		  AND registration_end_date <= NOW()
	`, id)
	if err != nil {
		return false, fmt.Errorf("failed to close event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

// DeleteEventTx removes the event and every row that references it in one
// transaction, dependents first.
func (r *repository) DeleteEventTx(ctx context.Context, id int64) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		statements := []struct {
			what  string
			query string
		}{
			{"registrations", `DELETE FROM registrations WHERE event_id = $1`},
			{"tickets", `DELETE FROM tickets WHERE event_id = $1`},
			{"contacts", `DELETE FROM whatsapp_contacts WHERE event_id = $1`},
			{"event", `DELETE FROM events WHERE id = $1`},
		}
		for _, st := range statements {
			if _, err := tx.ExecContext(ctx, st.query, id); err != nil {
				return fmt.Errorf("failed to delete %s: %w", st.what, err)
			}
		}
		return nil
	})
}

func (r *repository) GetEventByID(ctx context.Context, id int64) (*model.Event, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return e, nil
}

func (r *repository) GetAllEvents(ctx context.Context) ([]model.Event, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+eventColumns+` FROM events ORDER BY event_date ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}
	defer rows.Close()

	events := []model.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}
	return events, nil
}

func (r *repository) GetContactsByEventID(ctx context.Context, eventID int64) ([]model.ContactChannel, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, event_id, phone_number
		FROM whatsapp_contacts
		WHERE event_id = $1
		ORDER BY id ASC
	`, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get contacts: %w", err)
	}
	defer rows.Close()

	contacts := []model.ContactChannel{}
	for rows.Next() {
		var c model.ContactChannel
		if err := rows.Scan(&c.ID, &c.EventID, &c.PhoneNumber); err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

func (r *repository) Stats(ctx context.Context) (model.Stats, error) {
	var s model.Stats
	err := r.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM events),
			(SELECT COUNT(*) FROM events WHERE status = 'upcoming'),
			(SELECT COUNT(*) FROM registrations)
	`).Scan(&s.TotalUsers, &s.TotalEvents, &s.UpcomingEvents, &s.TotalRegistrations)
	if err != nil {
		return model.Stats{}, fmt.Errorf("failed to count stats: %w", err)
	}
	return s, nil
}

func insertContacts(ctx context.Context, tx *sql.Tx, eventID int64, contacts []string) error {
	for _, phone := range contacts {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO whatsapp_contacts (event_id, phone_number) VALUES ($1, $2)
		`, eventID, phone); err != nil {
			return fmt.Errorf("failed to insert contact: %w", err)
		}
	}
	return nil
}
