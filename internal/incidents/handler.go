package incidents

import (
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/assuralabs/assura/internal/evidence"
	"github.com/assuralabs/assura/pkg/handlers"
	"github.com/assuralabs/assura/pkg/middleware"
	"github.com/assuralabs/assura/pkg/pagination"
	"github.com/assuralabs/assura/pkg/routes"
)

// Handler provides HTTP endpoints for incident operations.
type Handler struct {
	sys           System
	logger        *slog.Logger
	pagination    pagination.Config
	maxUploadSize int64
}

// NewHandler creates a Handler with the given system, logger, pagination
// config, and upload size limit.
func NewHandler(
	sys System,
	logger *slog.Logger,
	pagination pagination.Config,
	maxUploadSize int64,
) *Handler {
	return &Handler{
		sys:           sys,
		logger:        logger.With("handler", "incidents"),
		pagination:    pagination,
		maxUploadSize: maxUploadSize,
	}
}

// Routes returns the route group definition for incident endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/incidents",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
			{Method: "GET", Pattern: "/{id}/documents/{doc}", Handler: h.Download},
			{Method: "POST", Pattern: "", Handler: h.Create},
		},
	}
}

// Create accepts a multipart submission with a required story field and
// optional file attachments, runs intake, and returns 201 with the incident
// id and merged extraction. Processing continues asynchronously.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.UserID(r.Context())
	if !ok || ownerID == "" {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, ErrUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		handlers.RespondError(w, h.logger, http.StatusRequestEntityTooLarge, ErrFileTooLarge)
		return
	}

	story := strings.TrimSpace(r.FormValue("story"))
	if story == "" {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrMissingStory)
		return
	}

	attachments, err := readAttachments(r.MultipartForm)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
		return
	}

	cmd := CreateCommand{
		OwnerID:     ownerID,
		Story:       story,
		Attachments: attachments,
	}

	response, err := h.sys.Create(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, response)
}

// Find returns a single incident by its UUID path parameter, scoped to the
// caller. Decrypted story, extraction, documents, and timeline included.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.UserID(r.Context())
	if !ok || ownerID == "" {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, ErrUnauthorized)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
		return
	}

	incident, err := h.sys.Find(r.Context(), id, ownerID)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, incident)
}

// Download streams one attachment's stored bytes, scoped to the caller.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.UserID(r.Context())
	if !ok || ownerID == "" {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, ErrUnauthorized)
		return
	}

	incidentID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
		return
	}

	docID, err := uuid.Parse(r.PathValue("doc"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
		return
	}

	doc, body, err := h.sys.OpenDocument(r.Context(), incidentID, docID, ownerID)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", doc.ContentType)
	if doc.SizeBytes > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(doc.SizeBytes, 10))
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	w.WriteHeader(http.StatusOK)
	io.Copy(w, body)
}

// List returns a paginated list of the caller's incidents.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.UserID(r.Context())
	if !ok || ownerID == "" {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, ErrUnauthorized)
		return
	}

	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)

	result, err := h.sys.List(r.Context(), ownerID, page)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

func readAttachments(form *multipart.Form) ([]evidence.Attachment, error) {
	if form == nil {
		return nil, nil
	}

	files := form.File["files"]
	if len(files) == 0 {
		files = form.File["file"]
	}

	attachments := make([]evidence.Attachment, 0, len(files))
	for _, header := range files {
		file, err := header.Open()
		if err != nil {
			return nil, err
		}

		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			return nil, err
		}

		attachments = append(attachments, evidence.Attachment{
			Filename:    header.Filename,
			ContentType: detectContentType(header.Header.Get("Content-Type"), data),
			Data:        data,
		})
	}

	return attachments, nil
}

func detectContentType(header string, data []byte) string {
	header = strings.TrimSpace(header)
	if header != "" && header != "application/octet-stream" {
		return header
	}
	return http.DetectContentType(data)
}
