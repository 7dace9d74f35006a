package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"clubevents/internal/model"
)

// ReplaceTicketsTx deletes the event's tickets and inserts the given list in
// one transaction, so readers see either the old set or the new one.
func (r *repository) ReplaceTicketsTx(ctx context.Context, eventID int64, tickets []model.Ticket) ([]model.Ticket, error) {
	var out []model.Ticket
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM events WHERE id = $1 FOR UPDATE`, eventID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrEventNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to lock event: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM tickets WHERE event_id = $1`, eventID); err != nil {
			return fmt.Errorf("failed to delete tickets: %w", err)
		}
		out, err = insertTickets(ctx, tx, eventID, tickets)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repository) GetTicketsByEventID(ctx context.Context, eventID int64) ([]model.Ticket, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, event_id, name, price, quantity
		FROM tickets
		WHERE event_id = $1
		ORDER BY id ASC
	`, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tickets: %w", err)
	}
	defer rows.Close()

	tickets := []model.Ticket{}
	for rows.Next() {
		var t model.Ticket
		if err := rows.Scan(&t.ID, &t.EventID, &t.Name, &t.Price, &t.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		tickets = append(tickets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tickets: %w", err)
	}
	return tickets, nil
}

func insertTickets(ctx context.Context, tx *sql.Tx, eventID int64, tickets []model.Ticket) ([]model.Ticket, error) {
	out := make([]model.Ticket, 0, len(tickets))
	for _, t := range tickets {
		t.EventID = eventID
		if err := tx.QueryRowContext(ctx, `
			INSERT INTO tickets (event_id, name, price, quantity)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, eventID, t.Name, t.Price, t.Quantity).Scan(&t.ID); err != nil {
			return nil, fmt.Errorf("failed to insert ticket: %w", err)
		}
		out = append(out, t)
	}
	return out, nil
}
