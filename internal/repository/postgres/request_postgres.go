package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"demandeapi/internal/model"
	"demandeapi/internal/repository"
)

// pgUniqueViolation is the PostgreSQL error code for unique_violation.
const pgUniqueViolation = "23505"

const requestColumns = `id, full_name, birth_date, document_type, phone, email, message, consent,
		attachment, tracking_number, submitted_at, status, comment`

// RequestPostgres is a PostgreSQL implementation of repository.RequestRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type RequestPostgres struct {
	db *sql.DB
}

// NewRequestPostgres creates a new RequestPostgres repository.
func NewRequestPostgres(db *sql.DB) *RequestPostgres {
	return &RequestPostgres{db: db}
}

var _ repository.RequestRepository = (*RequestPostgres)(nil)

// Create inserts a new request row and returns the stored record.
// A unique violation on tracking_number maps to repository.ErrDuplicateTracking.
func (r *RequestPostgres) Create(ctx context.Context, req *model.Request) (*model.Request, error) {
	const q = `
		INSERT INTO demandes (` + requestColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING ` + requestColumns + `
	`
	row := r.db.QueryRowContext(ctx, q,
		req.ID,
		req.FullName,
		req.BirthDate,
		req.DocumentType,
		req.Phone,
		req.Email,
		req.Message,
		req.Consent,
		req.Attachment,
		req.TrackingNumber,
		req.SubmittedAt,
		req.Status,
		req.Comment,
	)
	out, err := scanRequest(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, repository.ErrDuplicateTracking
		}
		return nil, err
	}
	return out, nil
}

// FindAll returns the complete request set in insertion order.
func (r *RequestPostgres) FindAll(ctx context.Context) ([]model.Request, error) {
	const q = `
		SELECT ` + requestColumns + `
		FROM demandes
		ORDER BY submitted_at ASC, id ASC
	`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Request, 0)
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *req)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// FindByID fetches a single request by its ID.
func (r *RequestPostgres) FindByID(ctx context.Context, id string) (*model.Request, error) {
	const q = `
		SELECT ` + requestColumns + `
		FROM demandes
		WHERE id = $1
	`
	req, err := scanRequest(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return req, nil
}

// Update overwrites an existing row with the full state of req.
func (r *RequestPostgres) Update(ctx context.Context, req *model.Request) (*model.Request, error) {
	const q = `
		UPDATE demandes
		SET full_name = $2, birth_date = $3, document_type = $4, phone = $5, email = $6,
		    message = $7, consent = $8, attachment = $9, tracking_number = $10,
		    submitted_at = $11, status = $12, comment = $13
		WHERE id = $1
		RETURNING ` + requestColumns + `
	`
	row := r.db.QueryRowContext(ctx, q,
		req.ID,
		req.FullName,
		req.BirthDate,
		req.DocumentType,
		req.Phone,
		req.Email,
		req.Message,
		req.Consent,
		req.Attachment,
		req.TrackingNumber,
		req.SubmittedAt,
		req.Status,
		req.Comment,
	)
	out, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return out, nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*model.Request, error) {
	var req model.Request
	if err := row.Scan(
		&req.ID,
		&req.FullName,
		&req.BirthDate,
		&req.DocumentType,
		&req.Phone,
		&req.Email,
		&req.Message,
		&req.Consent,
		&req.Attachment,
		&req.TrackingNumber,
		&req.SubmittedAt,
		&req.Status,
		&req.Comment,
	); err != nil {
		return nil, err
	}
	return &req, nil
}
