package types

import "time"

// Book represents a book record owned by exactly one user.
type Book struct {
	// ID is the unique identifier of the book.
	ID int `json:"id" db:"id"`

	// Title is the human-readable title of the book. It is required
	// and may not be empty.
	Title string `json:"title" db:"title"`

	// AuthorID references the user that owns this book. Every book has
	// exactly one author and cannot exist without one; only the author
	// may update or delete the book.
	AuthorID int `json:"author_id" db:"author_id"`

	// PublishedDate is the publication timestamp of the book. When not
	// supplied it defaults to the instant the book was created.
	PublishedDate time.Time `json:"published_date" db:"published_date"`

	// CreatedAt is the timestamp at which the book record was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the book record.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
