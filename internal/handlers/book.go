package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bookrack/apiserver/internal/services"
	"github.com/bookrack/apiserver/internal/store"
	"github.com/bookrack/apiserver/types"
)

const (
	defaultPage    = 1
	defaultPerPage = 10
	maxPerPage     = 100
)

// BookHandler provides HTTP handlers for books.
type BookHandler struct {
	bookService *services.BookService
	userService *services.UserService
}

// NewBookHandler constructs a handler with the provided services.
func NewBookHandler(bookService *services.BookService, userService *services.UserService) *BookHandler {
	return &BookHandler{
		bookService: bookService,
		userService: userService,
	}
}

// BookRouter registers book routes on the given router. All routes require
// a valid access token.
func BookRouter(
	r chi.Router,
	bookService *services.BookService,
	userService *services.UserService,
	authMiddleware func(http.Handler) http.Handler,
) {
	handler := NewBookHandler(bookService, userService)

	r.Use(authMiddleware)
	r.Post("/", handler.CreateBook)
	r.Get("/", handler.ListBooks)
	r.Route("/{bookID}", func(r chi.Router) {
		r.Get("/", handler.GetBook)
		r.Patch("/", handler.UpdateBook)
		r.Delete("/", handler.DeleteBook)
	})
}

// CreateBook adds a new book owned by the caller.
func (h *BookHandler) CreateBook(w http.ResponseWriter, r *http.Request) {
	var req BookUpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Please enter valid data")
		return
	}

	caller, ok := h.resolveCaller(w, r, http.StatusNotFound, "User not found")
	if !ok {
		return
	}

	book, err := h.bookService.Create(r.Context(), req.Title, caller.ID)
	if err != nil {
		if errors.Is(err, services.ErrEmptyTitle) {
			writeError(w, http.StatusBadRequest, "Please enter valid data")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to add book")
		return
	}

	writeJSON(w, http.StatusCreated, BookCreatedResponse{
		Message: "Book added successfully",
		Book:    serializeBook(book, caller),
	})
}

// ListBooks returns one page of books with pagination metadata. Invalid
// page or per_page values fall back to the defaults.
func (h *BookHandler) ListBooks(w http.ResponseWriter, r *http.Request) {
	page, perPage := parsePagination(r)

	books, total, err := h.bookService.List(r.Context(), page, perPage)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list books")
		return
	}

	results := make([]BookResponse, 0, len(books))
	authors := make(map[int]types.User, len(books))
	for _, book := range books {
		author, ok := authors[book.AuthorID]
		if !ok {
			author, err = h.userService.GetByID(r.Context(), book.AuthorID)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "Failed to list books")
				return
			}
			authors[book.AuthorID] = author
		}
		results = append(results, serializeBook(book, author))
	}

	pagination := PaginationInfo{
		Count:       total,
		CurrentPage: page,
		PerPage:     perPage,
	}
	if page*perPage < total {
		pagination.NextPage = pageURL(r, page+1, perPage)
	}
	if page > 1 {
		pagination.PrevPage = pageURL(r, page-1, perPage)
	}

	writeJSON(w, http.StatusOK, BookListResponse{
		Results:    results,
		Pagination: pagination,
	})
}

// GetBook returns a single book by id.
func (h *BookHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	id, err := parseBookID(r)
	if err != nil {
		writeError(w, http.StatusNotFound, "Book not found")
		return
	}

	book, err := h.bookService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Book not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to fetch book")
		return
	}

	author, err := h.userService.GetByID(r.Context(), book.AuthorID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch book")
		return
	}

	writeJSON(w, http.StatusOK, serializeBook(book, author))
}

// UpdateBook overwrites a book's title. Only the owning author may call it.
func (h *BookHandler) UpdateBook(w http.ResponseWriter, r *http.Request) {
	id, err := parseBookID(r)
	if err != nil {
		writeError(w, http.StatusNotFound, "Book not found")
		return
	}

	var req BookUpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Please enter valid data")
		return
	}

	caller, ok := h.resolveCaller(w, r, http.StatusForbidden, "Forbidden!")
	if !ok {
		return
	}

	book, err := h.bookService.Update(r.Context(), id, caller.ID, req.Title)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "Book not found")
		case errors.Is(err, services.ErrNotAuthor):
			writeError(w, http.StatusForbidden, "Forbidden!")
		case errors.Is(err, services.ErrEmptyTitle):
			writeError(w, http.StatusBadRequest, "Please enter valid data")
		default:
			writeError(w, http.StatusInternalServerError, "Failed to update book")
		}
		return
	}

	writeJSON(w, http.StatusOK, serializeBook(book, caller))
}

// DeleteBook removes a book. Only the owning author may call it.
func (h *BookHandler) DeleteBook(w http.ResponseWriter, r *http.Request) {
	id, err := parseBookID(r)
	if err != nil {
		writeError(w, http.StatusNotFound, "Book not found")
		return
	}

	caller, ok := h.resolveCaller(w, r, http.StatusForbidden, "Forbidden!")
	if !ok {
		return
	}

	if err := h.bookService.Delete(r.Context(), id, caller.ID); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "Book not found")
		case errors.Is(err, services.ErrNotAuthor):
			writeError(w, http.StatusForbidden, "Forbidden!")
		default:
			writeError(w, http.StatusInternalServerError, "Failed to delete book")
		}
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Book deleted successfully"})
}

// resolveCaller maps the token identity back to a user record. When the
// record no longer exists the handler replies with the given status: 404 on
// create (the original's behavior) and 403 on mutations, where a missing
// caller can never be the author.
func (h *BookHandler) resolveCaller(w http.ResponseWriter, r *http.Request, missingStatus int, missingMessage string) (types.User, bool) {
	identity, err := identityFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid or expired token")
		return types.User{}, false
	}

	caller, err := h.userService.GetByEmail(r.Context(), identity)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, missingStatus, missingMessage)
			return types.User{}, false
		}
		writeError(w, http.StatusInternalServerError, "Failed to load user")
		return types.User{}, false
	}
	return caller, true
}

// BookUpsertRequest is the JSON payload for creating or updating a book.
type BookUpsertRequest struct {
	Title string `json:"title"`
}

// BookResponse is the serialized form of a book with its author nested.
// The author's password hash is never included.
type BookResponse struct {
	ID            int            `json:"id"`
	Title         string         `json:"title"`
	PublishedDate string         `json:"published_date"`
	Author        AuthorResponse `json:"author"`
}

type AuthorResponse struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type BookCreatedResponse struct {
	Message string       `json:"message"`
	Book    BookResponse `json:"book"`
}

// BookListResponse is the paginated list payload.
type BookListResponse struct {
	Results    []BookResponse `json:"results"`
	Pagination PaginationInfo `json:"pagination"`
}

// PaginationInfo describes one page of results. NextPage and PrevPage are
// absolute URLs, present only when the page exists.
type PaginationInfo struct {
	Count       int    `json:"count"`
	CurrentPage int    `json:"current_page"`
	PerPage     int    `json:"per_page"`
	NextPage    string `json:"next_page,omitempty"`
	PrevPage    string `json:"prev_page,omitempty"`
}

func serializeBook(book types.Book, author types.User) BookResponse {
	return BookResponse{
		ID:            book.ID,
		Title:         book.Title,
		PublishedDate: book.PublishedDate.Format(time.RFC3339),
		Author: AuthorResponse{
			ID:       author.ID,
			Username: author.Username,
			Email:    author.Email,
		},
	}
}

func parsePagination(r *http.Request) (page, perPage int) {
	page = defaultPage
	perPage = defaultPerPage

	if raw := strings.TrimSpace(r.URL.Query().Get("page")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 1 {
			page = parsed
		}
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("per_page")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 1 {
			perPage = parsed
		}
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return page, perPage
}

func parseBookID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "bookID")
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, errors.New("invalid book id")
	}
	return id, nil
}

// pageURL builds an absolute URL for a neighbouring page of the current
// request, the way Flask's url_for(..., _external=True) does.
func pageURL(r *http.Request, page, perPage int) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if forwarded := r.Header.Get("X-Forwarded-Proto"); forwarded != "" {
		scheme = forwarded
	}

	u := url.URL{
		Scheme: scheme,
		Host:   r.Host,
		Path:   r.URL.Path,
	}
	q := u.Query()
	q.Set("page", fmt.Sprintf("%d", page))
	q.Set("per_page", fmt.Sprintf("%d", perPage))
	u.RawQuery = q.Encode()
	return u.String()
}
