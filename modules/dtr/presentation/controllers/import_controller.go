package controllers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/iota-uz/campus-sdk/modules/dtr/domain/aggregates/importrun"
	"github.com/iota-uz/campus-sdk/modules/dtr/infrastructure/extract"
	"github.com/iota-uz/campus-sdk/modules/dtr/services"
	"github.com/iota-uz/campus-sdk/pkg/application"
	"github.com/iota-uz/campus-sdk/pkg/composables"
	"github.com/iota-uz/campus-sdk/pkg/httpapi"
)

var errMissingFile = errors.New("multipart field 'file' is required")

var statusMappings = []httpapi.StatusMapping{
	{Err: services.ErrInvalidPayload, Status: http.StatusBadRequest},
	{Err: importrun.ErrInvalidMonth, Status: http.StatusBadRequest},
	{Err: extract.ErrUnsupportedFormat, Status: http.StatusUnsupportedMediaType},
	{Err: importrun.ErrRunBusy, Status: http.StatusConflict},
	{Err: importrun.ErrNotFound, Status: http.StatusNotFound},
	{Err: importrun.ErrInvalidTransition, Status: http.StatusConflict},
	{Err: importrun.ErrEmptyBatch, Status: http.StatusUnprocessableEntity},
	{Err: importrun.ErrSubmissionFailure, Status: http.StatusBadGateway},
}

type ImportController struct {
	imports       *services.ImportService
	maxUploadSize int64
	apiPrefix     string
}

func NewImportController(app application.Application, maxUploadSize int64) application.Controller {
	return &ImportController{
		imports:       app.Service(services.ImportService{}).(*services.ImportService),
		maxUploadSize: maxUploadSize,
		apiPrefix:     "/dtr/api",
	}
}

func (c *ImportController) Key() string {
	return c.apiPrefix
}

func (c *ImportController) Register(r *mux.Router) {
	api := r.PathPrefix(c.apiPrefix).Subrouter()

	api.HandleFunc("/imports", c.Create).Methods(http.MethodPost)
	api.HandleFunc("/imports/{id}", c.Get).Methods(http.MethodGet)
	api.HandleFunc("/imports/{id}/review", c.Review).Methods(http.MethodPost)
	api.HandleFunc("/imports/{id}/submit", c.Submit).Methods(http.MethodPost)
	api.HandleFunc("/imports/{id}/cancel", c.Cancel).Methods(http.MethodPost)
}

type runResponse struct {
	ID             string             `json:"id"`
	Month          string             `json:"month"`
	Status         importrun.Status   `json:"status"`
	FileName       string             `json:"file_name,omitempty"`
	Format         string             `json:"format,omitempty"`
	LastError      string             `json:"last_error,omitempty"`
	SubmittedCount int                `json:"submitted_count"`
	CreatedAt      string             `json:"created_at"`
	UpdatedAt      string             `json:"updated_at"`
	Summary        *importrun.Summary `json:"summary,omitempty"`
}

func toRunResponse(run importrun.Run) runResponse {
	return runResponse{
		ID:             run.ID().String(),
		Month:          run.Month(),
		Status:         run.Status(),
		FileName:       run.FileName(),
		Format:         run.Format(),
		LastError:      run.LastError(),
		SubmittedCount: run.SubmittedCount(),
		CreatedAt:      run.CreatedAt().UTC().Format(time.RFC3339),
		UpdatedAt:      run.UpdatedAt().UTC().Format(time.RFC3339),
		Summary:        run.Summary(),
	}
}

// Create loads and parses an uploaded file in one step.
func (c *ImportController) Create(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)

	r.Body = http.MaxBytesReader(w, r.Body, c.maxUploadSize)
	if err := r.ParseMultipartForm(c.maxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			_ = httpapi.WriteError(w, http.StatusRequestEntityTooLarge, requestID, "DTR_UPLOAD_TOO_LARGE", err.Error())
			return
		}
		_ = httpapi.WriteError(w, http.StatusBadRequest, requestID, "DTR_INVALID_BODY", "expected a multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, requestID, "DTR_INVALID_BODY", errMissingFile.Error())
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, requestID, "DTR_INVALID_BODY", err.Error())
		return
	}

	run, err := c.imports.Import(r.Context(), &services.LoadDTO{
		Month:    r.FormValue("month"),
		FileName: header.Filename,
		Data:     data,
	})
	if err != nil {
		c.writeError(w, requestID, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, toRunResponse(run))
}

func (c *ImportController) Get(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)
	id, ok := c.runID(w, r, requestID)
	if !ok {
		return
	}
	run, err := c.imports.Get(r.Context(), id)
	if err != nil {
		c.writeError(w, requestID, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, toRunResponse(run))
}

func (c *ImportController) Review(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)
	id, ok := c.runID(w, r, requestID)
	if !ok {
		return
	}
	summary, err := c.imports.Review(r.Context(), id)
	if err != nil {
		c.writeError(w, requestID, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, summary)
}

func (c *ImportController) Submit(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)
	id, ok := c.runID(w, r, requestID)
	if !ok {
		return
	}
	run, err := c.imports.Submit(r.Context(), id)
	if err != nil {
		c.writeError(w, requestID, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, toRunResponse(run))
}

func (c *ImportController) Cancel(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)
	id, ok := c.runID(w, r, requestID)
	if !ok {
		return
	}
	run, err := c.imports.Cancel(r.Context(), id)
	if err != nil {
		c.writeError(w, requestID, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, toRunResponse(run))
}

func (c *ImportController) runID(w http.ResponseWriter, r *http.Request, requestID string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, requestID, "DTR_INVALID_ID", "id must be a uuid")
		return uuid.Nil, false
	}
	return id, true
}

func (c *ImportController) writeError(w http.ResponseWriter, requestID string, err error) {
	_ = httpapi.WriteServiceError(w, requestID, err, "DTR_INTERNAL", statusMappings...)
}

func requestIDFrom(r *http.Request) string {
	id, _ := composables.UseRequestID(r.Context())
	return id
}
