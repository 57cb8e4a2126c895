// internal/catalog/implementation.go
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrBookNotFound  = errors.New("book not found")
	ErrInvalidBook   = errors.New("invalid book")
	ErrNotOwner      = errors.New("book belongs to another librarian")
	ErrStaleVersion  = errors.New("book was modified concurrently")
	defaultPageLimit = 8
)

// service implements the Service interface.
type service struct {
	db *sql.DB
}

// NewService creates a new catalog service instance.
func NewService(db *sql.DB) Service {
	return &service{db: db}
}

// AddBook creates a new book owned by the submitting librarian.
func (s *service) AddBook(ctx context.Context, book *Book) (*Book, error) {
	if book.Title == "" || book.Author == "" || book.Category == "" {
		return nil, fmt.Errorf("%w: title, author and category are required", ErrInvalidBook)
	}
	if book.Price < 0 || book.Quantity < 0 {
		return nil, fmt.Errorf("%w: price and quantity must not be negative", ErrInvalidBook)
	}
	if book.LibrarianEmail == "" {
		return nil, fmt.Errorf("%w: librarian email is required", ErrInvalidBook)
	}
	if book.Status == "" {
		book.Status = StatusPublished
	}
	if !book.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidBook, book.Status)
	}

	book.ID = uuid.New()
	book.Version = 1

	query := `
		INSERT INTO books (id, title, author, category, description, image, price, quantity, status, librarian_name, librarian_email, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at
	`
	err := s.db.QueryRowContext(ctx, query,
		book.ID, book.Title, book.Author, book.Category, book.Description, book.Image,
		book.Price, book.Quantity, book.Status, book.LibrarianName, book.LibrarianEmail, book.Version,
	).Scan(&book.CreatedAt, &book.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert book: %w", err)
	}

	return book, nil
}

// GetBook retrieves a single book by its ID.
func (s *service) GetBook(ctx context.Context, id uuid.UUID) (*Book, error) {
	query := selectBook + ` WHERE id = $1`
	book, err := scanBook(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("failed to get book: %w", err)
	}
	return book, nil
}

// ListPublished returns one page of the public listing. The published-only
// constraint is applied here, not trusted to the caller.
func (s *service) ListPublished(ctx context.Context, filter Filter) (*Page, error) {
	filter.Status = StatusPublished
	return s.list(ctx, filter)
}

func (s *service) list(ctx context.Context, filter Filter) (*Page, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = defaultPageLimit
	}

	var (
		conds []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Status != "" {
		conds = append(conds, "status = "+arg(filter.Status))
	}
	if filter.Search != "" {
		p := arg("%" + filter.Search + "%")
		conds = append(conds, fmt.Sprintf("(title ILIKE %s OR author ILIKE %s)", p, p))
	}
	if filter.Category != "" {
		conds = append(conds, "category = "+arg(filter.Category))
	}
	if filter.MaxPrice > 0 {
		conds = append(conds, "price <= "+arg(filter.MaxPrice))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM books"+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count books: %w", err)
	}

	offset := (filter.Page - 1) * filter.Limit
	query := selectBook + where + " ORDER BY created_at DESC LIMIT " + arg(filter.Limit) + " OFFSET " + arg(offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	defer rows.Close()

	books, err := scanBooks(rows)
	if err != nil {
		return nil, err
	}

	totalPages := (total + filter.Limit - 1) / filter.Limit
	if totalPages < 1 {
		totalPages = 1
	}

	return &Page{
		Books:      books,
		TotalBooks: total,
		TotalPages: totalPages,
		Page:       filter.Page,
	}, nil
}

// ListAll returns every book, including unpublished ones.
func (s *service) ListAll(ctx context.Context) ([]*Book, error) {
	rows, err := s.db.QueryContext(ctx, selectBook+" ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	defer rows.Close()
	return scanBooks(rows)
}

// ListByLibrarian returns the books owned by one librarian.
func (s *service) ListByLibrarian(ctx context.Context, librarianEmail string) ([]*Book, error) {
	rows, err := s.db.QueryContext(ctx, selectBook+" WHERE librarian_email = $1 ORDER BY created_at DESC", librarianEmail)
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	defer rows.Close()
	return scanBooks(rows)
}

// UpdateBook applies a partial update under optimistic concurrency. The
// editor must own the book unless they are an admin.
func (s *service) UpdateBook(ctx context.Context, id uuid.UUID, patch Patch, editor Editor) (*Book, error) {
	book, err := s.GetBook(ctx, id)
	if err != nil {
		return nil, err
	}

	if !editor.Admin && book.LibrarianEmail != editor.Email {
		return nil, ErrNotOwner
	}

	if patch.Title != nil {
		book.Title = *patch.Title
	}
	if patch.Author != nil {
		book.Author = *patch.Author
	}
	if patch.Category != nil {
		book.Category = *patch.Category
	}
	if patch.Description != nil {
		book.Description = *patch.Description
	}
	if patch.Image != nil {
		book.Image = *patch.Image
	}
	if patch.Price != nil {
		if *patch.Price < 0 {
			return nil, fmt.Errorf("%w: price must not be negative", ErrInvalidBook)
		}
		book.Price = *patch.Price
	}
	if patch.Quantity != nil {
		if *patch.Quantity < 0 {
			return nil, fmt.Errorf("%w: quantity must not be negative", ErrInvalidBook)
		}
		book.Quantity = *patch.Quantity
	}
	if patch.Status != nil {
		if !patch.Status.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidBook, *patch.Status)
		}
		book.Status = *patch.Status
	}

	query := `
		UPDATE books
		SET title = $1, author = $2, category = $3, description = $4, image = $5,
		    price = $6, quantity = $7, status = $8, version = version + 1, updated_at = NOW()
		WHERE id = $9 AND version = $10
	`
	res, err := s.db.ExecContext(ctx, query,
		book.Title, book.Author, book.Category, book.Description, book.Image,
		book.Price, book.Quantity, book.Status, id, book.Version,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update book: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrStaleVersion
	}

	return s.GetBook(ctx, id)
}

// DeleteBook removes a book and its orders in one transaction.
func (s *service) DeleteBook(ctx context.Context, id uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM orders WHERE book_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete book orders: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete book: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrBookNotFound
	}

	return tx.Commit()
}

const selectBook = `
	SELECT id, title, author, category, description, image, price, quantity, status, librarian_name, librarian_email, version, created_at, updated_at
	FROM books`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBook(row rowScanner) (*Book, error) {
	book := &Book{}
	err := row.Scan(
		&book.ID,
		&book.Title,
		&book.Author,
		&book.Category,
		&book.Description,
		&book.Image,
		&book.Price,
		&book.Quantity,
		&book.Status,
		&book.LibrarianName,
		&book.LibrarianEmail,
		&book.Version,
		&book.CreatedAt,
		&book.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return book, nil
}

func scanBooks(rows *sql.Rows) ([]*Book, error) {
	books := []*Book{}
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan book: %w", err)
		}
		books = append(books, book)
	}
	return books, rows.Err()
}
