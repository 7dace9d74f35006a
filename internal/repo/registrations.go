package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"clubevents/internal/model"
)

// CreateRegistrationTx inserts a registration after checking, inside the same
// transaction, that the event, user and (optional) ticket exist. The event
// row is held FOR SHARE so a concurrent cascade delete waits for the insert.
func (r *repository) CreateRegistrationTx(ctx context.Context, reg *model.Registration) (int64, error) {
	var id int64
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var one int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM events WHERE id = $1 FOR SHARE`, reg.EventID).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrEventNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to lock event: %w", err)
		}

		err = tx.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id = $1`, reg.UserID).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUserNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to check user: %w", err)
		}

		if reg.TicketID != nil {
			err = tx.QueryRowContext(ctx, `
				SELECT 1 FROM tickets WHERE id = $1 AND event_id = $2
			`, *reg.TicketID, reg.EventID).Scan(&one)
			if errors.Is(err, sql.ErrNoRows) {
				return ErrTicketNotFound
			}
			if err != nil {
				return fmt.Errorf("failed to check ticket: %w", err)
			}
		}

		err = tx.QueryRowContext(ctx, `
			INSERT INTO registrations (user_id, event_id, ticket_id, form_responses, created_at)
			VALUES ($1, $2, $3, $4, NOW())
			RETURNING id, created_at
		`, reg.UserID, reg.EventID, reg.TicketID, reg.FormResponses).Scan(&id, &reg.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to create registration: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	reg.ID = id
	return id, nil
}

// DeleteRegistration is idempotent: a missing id is not an error.
func (r *repository) DeleteRegistration(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM registrations WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete registration: %w", err)
	}
	return nil
}

const registrationColumns = `r.id, r.user_id, r.event_id, r.ticket_id, r.form_responses, r.created_at,
	COALESCE(u.name, ''), COALESCE(u.email, '')`

func scanRegistration(row rowScanner) (*model.Registration, error) {
	var reg model.Registration
	if err := row.Scan(
		&reg.ID,
		&reg.UserID,
		&reg.EventID,
		&reg.TicketID,
		&reg.FormResponses,
		&reg.CreatedAt,
		&reg.UserName,
		&reg.UserEmail,
	); err != nil {
		return nil, err
	}
	return &reg, nil
}

func (r *repository) GetRegistrationByID(ctx context.Context, id int64) (*model.Registration, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+registrationColumns+`
		FROM registrations r
		LEFT JOIN users u ON u.id = r.user_id
		WHERE r.id = $1
	`, id)
	reg, err := scanRegistration(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRegistrationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get registration: %w", err)
	}
	return reg, nil
}

func (r *repository) GetRegistrationsByEventID(ctx context.Context, eventID int64) ([]model.Registration, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+registrationColumns+`
		FROM registrations r
		JOIN users u ON u.id = r.user_id
		WHERE r.event_id = $1
		ORDER BY r.created_at ASC, r.id ASC
	`, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get registrations: %w", err)
	}
	defer rows.Close()

	regs := []model.Registration{}
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan registration: %w", err)
		}
		regs = append(regs, *reg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate registrations: %w", err)
	}
	return regs, nil
}
