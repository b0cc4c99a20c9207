package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"demandeapi/internal/model"
	"demandeapi/internal/repository"
	"demandeapi/internal/storage"
)

var (
	ErrIDRequired     = errors.New("id is required")
	ErrNotFound       = errors.New("request not found")
	ErrStatusRequired = errors.New("status is required")
	ErrReaderNil      = errors.New("attachment reader is nil")
	// ErrTrackingExhausted is returned when every generated tracking number
	// collided with an existing one. With 8 characters of entropy this only
	// happens if something is wrong with the store.
	ErrTrackingExhausted = errors.New("could not generate a unique tracking number")
)

// maxTrackingAttempts bounds tracking number regeneration on collision.
const maxTrackingAttempts = 5

// Submission carries the citizen-supplied form fields. All fields are
// pass-through free text; the workflow applies no format validation.
type Submission struct {
	FullName     string
	BirthDate    string
	DocumentType string
	Phone        string
	Email        string
	Message      string
	Consent      string
}

// Attachment describes an optional uploaded file accompanying a submission.
type Attachment struct {
	Reader      io.Reader
	Filename    string
	ContentType string
	Size        int64
}

// RequestService defines the lifecycle workflow for civil-status requests.
type RequestService interface {
	// Submit validates the attachment, assigns an id and tracking number,
	// and persists the new request with status "new". The tracking number is
	// regenerated and the insert retried when the store reports a duplicate.
	Submit(ctx context.Context, sub Submission, att *Attachment) (*model.Request, error)

	// List returns every request in insertion order.
	List(ctx context.Context) ([]model.Request, error)

	// Get returns a single request by its ID.
	Get(ctx context.Context, id string) (*model.Request, error)

	// UpdateStatus overwrites the request's status and comment and persists
	// the mutation. Any status may follow any other; the comment defaults to
	// empty when omitted, it is not preserved from the previous value.
	UpdateStatus(ctx context.Context, id string, status model.Status, comment string) (*model.Request, error)

	// Stats computes aggregate counts over the full request set.
	Stats(ctx context.Context) (*model.Stats, error)

	// Export returns the full request set, identical to List. Callers decide
	// the disposition (e.g. attachment-style delivery).
	Export(ctx context.Context) ([]model.Request, error)
}

// requestService is a concrete implementation of RequestService.
type requestService struct {
	store storage.Storage
	repo  repository.RequestRepository
}

// NewRequestService constructs a new RequestService.
func NewRequestService(store storage.Storage, repo repository.RequestRepository) RequestService {
	return &requestService{store: store, repo: repo}
}

// newTrackingNumber produces a human-presentable identifier in the form
// DM-XXXXXXXX, the first 8 characters of a fresh v4 UUID uppercased.
func newTrackingNumber() string {
	return "DM-" + strings.ToUpper(uuid.NewString()[:8])
}

func (s *requestService) Submit(ctx context.Context, sub Submission, att *Attachment) (*model.Request, error) {
	attachmentRef := model.NoAttachment

	if att != nil {
		if att.Reader == nil {
			return nil, ErrReaderNil
		}
		// Store under a generated key; the original filename survives as metadata.
		ext := filepath.Ext(att.Filename)
		key := filepath.ToSlash(filepath.Join("attachments", uuid.New().String()+ext))

		objInfo, err := s.store.Put(ctx, key, att.Reader, storage.PutObjectOptions{
			Size:        att.Size,
			ContentType: att.ContentType,
			Metadata: map[string]string{
				"original-filename": att.Filename,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("upload attachment: %w", err)
		}
		attachmentRef = objInfo.Key
	}

	req := &model.Request{
		ID:             uuid.New().String(),
		FullName:       sub.FullName,
		BirthDate:      sub.BirthDate,
		DocumentType:   sub.DocumentType,
		Phone:          sub.Phone,
		Email:          sub.Email,
		Message:        sub.Message,
		Consent:        sub.Consent,
		Attachment:     attachmentRef,
		TrackingNumber: newTrackingNumber(),
		SubmittedAt:    time.Now().UTC(),
		Status:         model.StatusNew,
		Comment:        "",
	}

	var stored *model.Request
	var err error
	for attempt := 0; attempt < maxTrackingAttempts; attempt++ {
		stored, err = s.repo.Create(ctx, req)
		if err == nil {
			return stored, nil
		}
		if !errors.Is(err, repository.ErrDuplicateTracking) {
			break
		}
		req.TrackingNumber = newTrackingNumber()
	}
	if errors.Is(err, repository.ErrDuplicateTracking) {
		err = ErrTrackingExhausted
	}

	// Rollback: a failed submission leaves no partial record behind.
	if req.Attachment != model.NoAttachment {
		if delErr := s.store.Delete(ctx, req.Attachment); delErr != nil {
			return nil, fmt.Errorf("save request failed: %v; rollback delete failed: %v", err, delErr)
		}
	}
	return nil, fmt.Errorf("save request: %w", err)
}

// List returns the full request set in insertion order.
func (s *requestService) List(ctx context.Context) ([]model.Request, error) {
	return s.repo.FindAll(ctx)
}

// Get returns a request by ID.
func (s *requestService) Get(ctx context.Context, id string) (*model.Request, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	req, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return req, nil
}

func (s *requestService) UpdateStatus(ctx context.Context, id string, status model.Status, comment string) (*model.Request, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	if status == "" {
		return nil, ErrStatusRequired
	}

	req, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	req.Status = status
	req.Comment = comment

	updated, err := s.repo.Update(ctx, req)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return updated, nil
}

// Stats counts records per status. Unknown statuses count toward Total only.
func (s *requestService) Stats(ctx context.Context) (*model.Stats, error) {
	requests, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	stats := &model.Stats{Total: len(requests)}
	for _, req := range requests {
		switch req.Status {
		case model.StatusNew:
			stats.New++
		case model.StatusProcessing:
			stats.Processing++
		case model.StatusCompleted:
			stats.Completed++
		case model.StatusRejected:
			stats.Rejected++
		}
	}
	return stats, nil
}

// Export is a read-through of the full set; serialization is the transport's concern.
func (s *requestService) Export(ctx context.Context) ([]model.Request, error) {
	return s.repo.FindAll(ctx)
}
