package handler

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"demandeapi/internal/model"
	"demandeapi/internal/service"
	"demandeapi/internal/storage"
)

// presignExpiry bounds how long an attachment download link stays valid.
const presignExpiry = 15 * time.Minute

// HealthCheck reports readiness by pinging the database.
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe is a simple liveness endpoint.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// SubmitRequest handles the citizen-facing form submission
// (multipart/form-data; optional file under field name "fileUpload").
// On success it returns the generated tracking number.
func SubmitRequest(svc service.RequestService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sub := service.Submission{
			FullName:     c.FormValue("fullName"),
			BirthDate:    c.FormValue("birthDate"),
			DocumentType: c.FormValue("documentType"),
			Phone:        c.FormValue("phone"),
			Email:        c.FormValue("email"),
			Message:      c.FormValue("message"),
			Consent:      c.FormValue("consent"),
		}

		// The attachment is optional; a missing file field is not an error.
		var att *service.Attachment
		if fh, err := c.FormFile("fileUpload"); err == nil && fh != nil {
			f, err := fh.Open()
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
			}
			defer f.Close()

			ct := fh.Header.Get("Content-Type")
			if ct == "" {
				ct = "application/octet-stream"
			}
			att = &service.Attachment{
				Reader:      f,
				Filename:    fh.Filename,
				ContentType: ct,
				Size:        fh.Size,
			}
		}

		req, err := svc.Submit(c.UserContext(), sub, att)
		if err != nil {
			if errors.Is(err, service.ErrTrackingExhausted) {
				return writeError(c, fiber.StatusServiceUnavailable, "TRACKING_CONFLICT", "could not assign a tracking number, please retry")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message":        "request submitted successfully",
			"trackingNumber": req.TrackingNumber,
		})
	}
}

// ListRequests returns every stored request.
func ListRequests(svc service.RequestService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		requests, err := svc.List(c.UserContext())
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(requests)
	}
}

// GetRequestStats returns aggregate counts per status.
func GetRequestStats(svc service.RequestService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		stats, err := svc.Stats(c.UserContext())
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(stats)
	}
}

// ExportRequests returns the full request set for attachment-style download.
// The payload matches ListRequests; only the disposition differs.
func ExportRequests(svc service.RequestService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		requests, err := svc.Export(c.UserContext())
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="demandes.json"`)
		return c.JSON(requests)
	}
}

// GetRequest returns a single request by ID.
func GetRequest(svc service.RequestService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		req, err := svc.Get(c.UserContext(), id)
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "request not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(req)
	}
}

// statusUpdateBody is the JSON body for UpdateRequestStatus.
type statusUpdateBody struct {
	Status  model.Status `json:"status"`
	Comment string       `json:"comment"`
}

// UpdateRequestStatus overwrites a request's status and comment.
// The status must be one of the four known values; transitions between them
// are unrestricted.
func UpdateRequestStatus(svc service.RequestService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		var body statusUpdateBody
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		if !model.KnownStatus(body.Status) {
			return writeError(c, fiber.StatusBadRequest, "INVALID_STATUS", "status must be one of new, processing, completed, rejected")
		}

		req, err := svc.UpdateStatus(c.UserContext(), id, body.Status, body.Comment)
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "request not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(req)
	}
}

// DownloadAttachment redirects to a presigned URL for the request's stored file.
func DownloadAttachment(svc service.RequestService, store storage.Storage) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		req, err := svc.Get(c.UserContext(), id)
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "request not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		if !req.HasAttachment() {
			return writeError(c, fiber.StatusNotFound, "NO_ATTACHMENT", "request has no attachment")
		}

		u, err := store.PresignGet(c.UserContext(), req.Attachment, presignExpiry)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.Redirect(u, fiber.StatusFound)
	}
}
