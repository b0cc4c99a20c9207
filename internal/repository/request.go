package repository

import (
	"context"
	"errors"

	"demandeapi/internal/model"
)

var (
	// ErrNotFound is returned when no request exists for the given id.
	ErrNotFound = errors.New("request not found")
	// ErrDuplicateTracking is returned when the store rejects an insert
	// because the tracking number already exists. The caller is expected to
	// regenerate the number and retry.
	ErrDuplicateTracking = errors.New("tracking number already exists")
)

// RequestRepository defines data access for civil-status requests using SQL queries only.
// No business logic here — strictly persistence operations.
type RequestRepository interface {
	// Create inserts a new request record. The caller provides all fields,
	// including ID, TrackingNumber, and SubmittedAt.
	// Returns the stored request (may include values set by the DB).
	Create(ctx context.Context, req *model.Request) (*model.Request, error)

	// FindAll returns every request in insertion order. The result is a
	// snapshot at call time.
	FindAll(ctx context.Context) ([]model.Request, error)

	// FindByID returns a request by its ID, or ErrNotFound.
	FindByID(ctx context.Context, id string) (*model.Request, error)

	// Update persists the full current state of an existing request.
	// Returns ErrNotFound if the id no longer exists.
	Update(ctx context.Context, req *model.Request) (*model.Request, error)
}
