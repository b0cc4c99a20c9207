package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"demandeapi/internal/model"
	"demandeapi/internal/service"
	serviceMocks "demandeapi/internal/service/mocks"
	storeMocks "demandeapi/internal/storage/mocks"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestHealthCheck(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	app := fiber.New()
	app.Get("/health", HealthCheck(db))

	t.Run("healthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(nil)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("unhealthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(errors.New("db error"))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "SERVICE_UNAVAILABLE", body.Error.Code)
	})
}

func TestLivenessProbe(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", LivenessProbe())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func submissionForm(t *testing.T, withFile bool) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	fields := map[string]string{
		"fullName":     "Jean Dupont",
		"birthDate":    "1990-01-01",
		"documentType": "birth-certificate",
		"phone":        "0600000000",
		"email":        "jean@example.com",
		"message":      "Urgent",
		"consent":      "yes",
	}
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	if withFile {
		part, err := writer.CreateFormFile("fileUpload", "acte.pdf")
		require.NoError(t, err)
		part.Write([]byte("%PDF-1.4"))
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestSubmitRequest(t *testing.T) {
	mockSvc := new(serviceMocks.MockRequestService)
	app := fiber.New()
	app.Post("/etat-civil", SubmitRequest(mockSvc))

	t.Run("success without file", func(t *testing.T) {
		body, contentType := submissionForm(t, false)

		stored := &model.Request{ID: uuid.New().String(), TrackingNumber: "DM-ABCD1234"}
		mockSvc.On("Submit", mock.Anything, mock.MatchedBy(func(sub service.Submission) bool {
			return sub.FullName == "Jean Dupont" && sub.Consent == "yes"
		}), (*service.Attachment)(nil)).Return(stored, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/etat-civil", body)
		req.Header.Set("Content-Type", contentType)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var result map[string]string
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, "DM-ABCD1234", result["trackingNumber"])
		assert.Regexp(t, `^DM-[A-Z0-9]{8}$`, result["trackingNumber"])
		mockSvc.AssertExpectations(t)
	})

	t.Run("success with file", func(t *testing.T) {
		body, contentType := submissionForm(t, true)

		stored := &model.Request{ID: uuid.New().String(), TrackingNumber: "DM-EFGH5678"}
		mockSvc.On("Submit", mock.Anything, mock.Anything, mock.MatchedBy(func(att *service.Attachment) bool {
			return att != nil && att.Filename == "acte.pdf" && att.Size == int64(len("%PDF-1.4"))
		})).Return(stored, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/etat-civil", body)
		req.Header.Set("Content-Type", contentType)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("tracking conflict", func(t *testing.T) {
		body, contentType := submissionForm(t, false)

		mockSvc.On("Submit", mock.Anything, mock.Anything, (*service.Attachment)(nil)).
			Return(nil, service.ErrTrackingExhausted).Once()

		req := httptest.NewRequest(http.MethodPost, "/etat-civil", body)
		req.Header.Set("Content-Type", contentType)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "TRACKING_CONFLICT", res.Error.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("service error", func(t *testing.T) {
		body, contentType := submissionForm(t, false)

		mockSvc.On("Submit", mock.Anything, mock.Anything, (*service.Attachment)(nil)).
			Return(nil, errors.New("save failed")).Once()

		req := httptest.NewRequest(http.MethodPost, "/etat-civil", body)
		req.Header.Set("Content-Type", contentType)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestListRequests(t *testing.T) {
	mockSvc := new(serviceMocks.MockRequestService)
	app := fiber.New()
	app.Get("/api/demandes", ListRequests(mockSvc))

	t.Run("success", func(t *testing.T) {
		set := []model.Request{
			{ID: uuid.New().String(), Status: model.StatusNew},
			{ID: uuid.New().String(), Status: model.StatusCompleted},
		}
		mockSvc.On("List", mock.Anything).Return(set, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/demandes", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result []model.Request
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Len(t, result, 2)
		mockSvc.AssertExpectations(t)
	})

	t.Run("service error", func(t *testing.T) {
		mockSvc.On("List", mock.Anything).Return(nil, errors.New("service error")).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/demandes", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestGetRequestStats(t *testing.T) {
	mockSvc := new(serviceMocks.MockRequestService)
	app := fiber.New()
	app.Get("/api/demandes/stats", GetRequestStats(mockSvc))

	stats := &model.Stats{Total: 3, New: 2, Completed: 1}
	mockSvc.On("Stats", mock.Anything).Return(stats, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/demandes/stats", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var result model.Stats
	json.NewDecoder(resp.Body).Decode(&result)
	assert.Equal(t, *stats, result)
	mockSvc.AssertExpectations(t)
}

func TestExportRequests(t *testing.T) {
	mockSvc := new(serviceMocks.MockRequestService)
	app := fiber.New()
	app.Get("/api/demandes/export", ExportRequests(mockSvc))

	set := []model.Request{{ID: uuid.New().String()}}
	mockSvc.On("Export", mock.Anything).Return(set, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/demandes/export", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `attachment; filename="demandes.json"`, resp.Header.Get(fiber.HeaderContentDisposition))

	var result []model.Request
	json.NewDecoder(resp.Body).Decode(&result)
	assert.Len(t, result, 1)
	mockSvc.AssertExpectations(t)
}

func TestGetRequest(t *testing.T) {
	mockSvc := new(serviceMocks.MockRequestService)
	app := fiber.New()
	app.Get("/api/demandes/:id", GetRequest(mockSvc))

	t.Run("success", func(t *testing.T) {
		id := uuid.New().String()
		expected := &model.Request{ID: id, Status: model.StatusNew, Attachment: model.NoAttachment}
		mockSvc.On("Get", mock.Anything, id).Return(expected, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/demandes/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result model.Request
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, id, result.ID)
		assert.Equal(t, model.NoAttachment, result.Attachment)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/demandes/not-a-uuid", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "INVALID_ID", res.Error.Code)
	})

	t.Run("not found", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Get", mock.Anything, id).Return(nil, service.ErrNotFound).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/demandes/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "NOT_FOUND", res.Error.Code)
		mockSvc.AssertExpectations(t)
	})
}

func TestUpdateRequestStatus(t *testing.T) {
	mockSvc := new(serviceMocks.MockRequestService)
	app := fiber.New()
	app.Put("/api/demandes/:id/status", UpdateRequestStatus(mockSvc))

	doPut := func(id, body string) *http.Response {
		req := httptest.NewRequest(http.MethodPut, "/api/demandes/"+id+"/status", strings.NewReader(body))
		req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
		resp, _ := app.Test(req)
		return resp
	}

	t.Run("success", func(t *testing.T) {
		id := uuid.New().String()
		updated := &model.Request{ID: id, Status: model.StatusProcessing, Comment: "ok"}
		mockSvc.On("UpdateStatus", mock.Anything, id, model.StatusProcessing, "ok").
			Return(updated, nil).Once()

		resp := doPut(id, `{"status":"processing","comment":"ok"}`)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result model.Request
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, model.StatusProcessing, result.Status)
		assert.Equal(t, "ok", result.Comment)
		mockSvc.AssertExpectations(t)
	})

	t.Run("comment defaults to empty", func(t *testing.T) {
		id := uuid.New().String()
		updated := &model.Request{ID: id, Status: model.StatusCompleted, Comment: ""}
		mockSvc.On("UpdateStatus", mock.Anything, id, model.StatusCompleted, "").
			Return(updated, nil).Once()

		resp := doPut(id, `{"status":"completed"}`)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("unknown status", func(t *testing.T) {
		id := uuid.New().String()

		resp := doPut(id, `{"status":"archived"}`)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "INVALID_STATUS", res.Error.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		resp := doPut("not-a-uuid", `{"status":"new"}`)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "INVALID_ID", res.Error.Code)
	})

	t.Run("not found", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("UpdateStatus", mock.Anything, id, model.StatusRejected, "").
			Return(nil, service.ErrNotFound).Once()

		resp := doPut(id, `{"status":"rejected"}`)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestDownloadAttachment(t *testing.T) {
	mockSvc := new(serviceMocks.MockRequestService)
	mockStore := new(storeMocks.MockStorage)
	app := fiber.New()
	app.Get("/api/demandes/:id/attachment", DownloadAttachment(mockSvc, mockStore))

	t.Run("redirects to presigned url", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Get", mock.Anything, id).
			Return(&model.Request{ID: id, Attachment: "attachments/key.pdf"}, nil).Once()
		mockStore.On("PresignGet", mock.Anything, "attachments/key.pdf", presignExpiry).
			Return("https://storage.example.com/signed", nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/demandes/"+id+"/attachment", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Equal(t, "https://storage.example.com/signed", resp.Header.Get("Location"))
		mockSvc.AssertExpectations(t)
		mockStore.AssertExpectations(t)
	})

	t.Run("no attachment", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Get", mock.Anything, id).
			Return(&model.Request{ID: id, Attachment: model.NoAttachment}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/demandes/"+id+"/attachment", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "NO_ATTACHMENT", res.Error.Code)
		mockSvc.AssertExpectations(t)
	})
}
