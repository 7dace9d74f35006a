package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"clubevents/internal/model"
)

func (r *repository) CreateUser(ctx context.Context, u *model.User) (int64, error) {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO users (name, email, phone, role, status, password)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, u.Name, u.Email, u.Phone, u.Role, u.Status, u.Password).Scan(&u.ID, &u.CreatedAt)
	if isUniqueViolation(err) {
		return 0, ErrDuplicateEmail
	}
	if err != nil {
		return 0, fmt.Errorf("failed to create user: %w", err)
	}
	return u.ID, nil
}

// UpdateUser keeps the stored password when u.Password is empty.
func (r *repository) UpdateUser(ctx context.Context, u *model.User) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET name = $1, email = $2, phone = $3, role = $4, status = $5,
			password = COALESCE(NULLIF($6, ''), password)
		WHERE id = $7
	`, u.Name, u.Email, u.Phone, u.Role, u.Status, u.Password, u.ID)
	if isUniqueViolation(err) {
		return ErrDuplicateEmail
	}
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *repository) DeleteUserTx(ctx context.Context, id int64) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM registrations WHERE user_id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete user registrations: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		return nil
	})
}

// GetUserByCredentials compares the stored password verbatim.
func (r *repository) GetUserByCredentials(ctx context.Context, email, password string) (*model.User, error) {
	var u model.User
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, email, COALESCE(phone, ''), role, status, created_at
		FROM users
		WHERE email = $1 AND password = $2
	`, email, password).Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.Role, &u.Status, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

func (r *repository) GetAllUsers(ctx context.Context) ([]model.User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, email, COALESCE(phone, ''), role, status, created_at
		FROM users
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.Role, &u.Status, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
