package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bookrack/apiserver/types"
)

const (
	defaultPerPage = 10
	maxPerPage     = 100
)

var (
	// ErrEmptyTitle indicates a book was submitted without a title.
	ErrEmptyTitle = errors.New("title is required")
	// ErrNotAuthor indicates the caller does not own the book.
	ErrNotAuthor = errors.New("caller is not the book's author")
)

// BookRepository defines persistence operations for books.
type BookRepository interface {
	List(ctx context.Context, offset, limit int) ([]types.Book, int, error)
	Get(ctx context.Context, id int) (types.Book, error)
	Create(ctx context.Context, book types.Book) (types.Book, error)
	Update(ctx context.Context, book types.Book) (types.Book, error)
	Delete(ctx context.Context, id int) error
}

// BookService encapsulates book use-cases, including the ownership rule:
// only a book's author may update or delete it.
type BookService struct {
	repo BookRepository
}

func NewBookService(repo BookRepository) *BookService {
	return &BookService{repo: repo}
}

// Create persists a new book owned by authorID. The published date is
// computed at creation time, once per book.
func (s *BookService) Create(ctx context.Context, title string, authorID int) (types.Book, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return types.Book{}, ErrEmptyTitle
	}

	return s.repo.Create(ctx, types.Book{
		Title:         title,
		AuthorID:      authorID,
		PublishedDate: time.Now().UTC(),
	})
}

// List returns one page of books ordered by id, plus the total count.
// Invalid page or perPage values are coerced to the defaults rather than
// rejected; perPage is capped at maxPerPage.
func (s *BookService) List(ctx context.Context, page, perPage int) ([]types.Book, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}

	offset := (page - 1) * perPage
	return s.repo.List(ctx, offset, perPage)
}

func (s *BookService) Get(ctx context.Context, id int) (types.Book, error) {
	return s.repo.Get(ctx, id)
}

// Update overwrites the book's title after checking that callerID owns it.
func (s *BookService) Update(ctx context.Context, id, callerID int, title string) (types.Book, error) {
	book, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Book{}, err
	}
	if book.AuthorID != callerID {
		return types.Book{}, ErrNotAuthor
	}

	title = strings.TrimSpace(title)
	if title == "" {
		return types.Book{}, ErrEmptyTitle
	}

	book.Title = title
	return s.repo.Update(ctx, book)
}

// Delete removes the book after checking that callerID owns it.
func (s *BookService) Delete(ctx context.Context, id, callerID int) error {
	book, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if book.AuthorID != callerID {
		return ErrNotAuthor
	}
	return s.repo.Delete(ctx, book.ID)
}
