package repo

import (
	"context"
	"database/sql"
	"fmt"

	"clubevents/internal/model"
)

const bookColumns = `id, title, author, COALESCE(cover, ''), COALESCE(description, ''),
	COALESCE(category, ''), status, is_featured, event_id`

func scanBook(row interface{ Scan(...any) error }) (*model.Book, error) {
	var (
		b       model.Book
		eventID sql.NullInt64
	)
	if err := row.Scan(&b.ID, &b.Title, &b.Author, &b.Cover, &b.Description,
		&b.Category, &b.Status, &b.IsFeatured, &eventID); err != nil {
		return nil, err
	}
	if eventID.Valid {
		b.EventID = &eventID.Int64
	}
	return &b, nil
}

// CreateBook inserts b. A linked event that does not exist yields
// ErrEventNotFound.
func (r *repository) CreateBook(ctx context.Context, b *model.Book) (int64, error) {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO books (title, author, cover, description, category, status, is_featured, event_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, b.Title, b.Author, b.Cover, b.Description, b.Category, b.Status, b.IsFeatured, b.EventID).Scan(&b.ID)
	if isForeignKeyViolation(err) {
		return 0, ErrEventNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to create book: %w", err)
	}
	return b.ID, nil
}

func (r *repository) UpdateBook(ctx context.Context, b *model.Book) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE books
		SET title = $1, author = $2, cover = $3, description = $4, category = $5,
			status = $6, is_featured = $7, event_id = $8
		WHERE id = $9
	`, b.Title, b.Author, b.Cover, b.Description, b.Category, b.Status, b.IsFeatured, b.EventID, b.ID)
	if isForeignKeyViolation(err) {
		return ErrEventNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update book: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrBookNotFound
	}
	return nil
}

func (r *repository) DeleteBook(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete book: %w", err)
	}
	return nil
}

func (r *repository) GetAllBooks(ctx context.Context) ([]model.Book, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+bookColumns+` FROM books ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to get books: %w", err)
	}
	defer rows.Close()

	books := []model.Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan book: %w", err)
		}
		books = append(books, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate books: %w", err)
	}
	return books, nil
}
