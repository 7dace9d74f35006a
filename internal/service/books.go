package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"clubevents/internal/model"
	"clubevents/internal/repo"
)

// BookService manages the club's book catalogue. A book may point at the
// event where it is discussed; deleting that event unlinks the book.
type BookService struct {
	repo repo.Repository
	log  *zerolog.Logger
}

func NewBookService(repo repo.Repository, logger *zerolog.Logger) *BookService {
	return &BookService{repo: repo, log: logger}
}

func (s *BookService) List(ctx context.Context) ([]model.Book, error) {
	books, err := s.repo.GetAllBooks(ctx)
	if err != nil {
		return nil, storageErr("list books", err)
	}
	return books, nil
}

func (s *BookService) Create(ctx context.Context, b *model.Book) (int64, error) {
	if err := normalizeBook(b); err != nil {
		return 0, err
	}
	id, err := s.repo.CreateBook(ctx, b)
	if err != nil {
		return 0, storageErr("create book", err)
	}
	s.log.Info().Int64("book_id", id).Msg("book created")
	return id, nil
}

func (s *BookService) Update(ctx context.Context, b *model.Book) error {
	if err := normalizeBook(b); err != nil {
		return err
	}
	if err := s.repo.UpdateBook(ctx, b); err != nil {
		return storageErr("update book", err)
	}
	s.log.Info().Int64("book_id", b.ID).Msg("book updated")
	return nil
}

// Delete removes a book. Missing ids are not an error.
func (s *BookService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.DeleteBook(ctx, id); err != nil {
		return storageErr("delete book", err)
	}
	s.log.Info().Int64("book_id", id).Msg("book deleted")
	return nil
}

// normalizeBook trims text fields, defaults the status to available and
// treats an event id of 0 as no event.
func normalizeBook(b *model.Book) error {
	b.Title = strings.TrimSpace(b.Title)
	b.Author = strings.TrimSpace(b.Author)
	b.Cover = strings.TrimSpace(b.Cover)
	b.Category = strings.TrimSpace(b.Category)
	if b.Title == "" || b.Author == "" {
		return fmt.Errorf("%w: title and author are required", ErrInvalidBook)
	}
	if b.Status == "" {
		b.Status = model.BookAvailable
	}
	if !b.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidBook, b.Status)
	}
	if b.EventID != nil && *b.EventID == 0 {
		b.EventID = nil
	}
	return nil
}
