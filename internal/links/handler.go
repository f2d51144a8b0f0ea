package links

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/sundayezeilo/linkhub/internal/errx"
	"github.com/sundayezeilo/linkhub/internal/httpx"
)

// HTTPCreateLinkRequest is the JSON body for creating a link.
type HTTPCreateLinkRequest struct {
	Redirect    string  `json:"redirect"`
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
}

// HTTPUpdateLinkRequest is the JSON body for patching a link. Absent
// fields are left untouched; shortId and url are immutable and not
// accepted here.
type HTTPUpdateLinkRequest struct {
	Title       *string `json:"title,omitempty"`
	Redirect    *string `json:"redirect,omitempty"`
	Description *string `json:"description,omitempty"`
}

// LinkResponse is the JSON representation of a link.
type LinkResponse struct {
	ID          string    `json:"id"`
	ShortID     string    `json:"shortId"`
	URL         string    `json:"url"`
	Redirect    string    `json:"redirect"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// DataResponse wraps a single resource.
type DataResponse struct {
	Data LinkResponse `json:"data"`
}

// ListResponse wraps a page of resources with pagination metadata.
type ListResponse struct {
	Data []LinkResponse `json:"data"`
	Meta ListMeta       `json:"meta"`
}

func toLinkResponse(link Link) LinkResponse {
	return LinkResponse{
		ID:          link.ID.String(),
		ShortID:     link.ShortID,
		URL:         link.URL,
		Redirect:    link.Redirect,
		Title:       link.Title,
		Description: link.Description,
		CreatedAt:   link.CreatedAt,
		UpdatedAt:   link.UpdatedAt,
	}
}

// Handler provides the HTTP handlers for link management.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// HandlerConfig holds configuration for the handler.
type HandlerConfig struct {
	Service Service
	Logger  *slog.Logger
}

// NewHandler creates a new Handler instance.
func NewHandler(cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		service: cfg.Service,
		logger:  logger,
	}
}

// CreateLink handles POST /url.
func (h *Handler) CreateLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(r)

	req, err := httpx.DecodeJSON[HTTPCreateLinkRequest](r)
	if err != nil {
		logger.WarnContext(ctx, "failed to decode request", "error", err.Error())
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error(), nil)
		return
	}

	if err := validateCreateRequest(req); err != nil {
		logger.WarnContext(ctx, "request validation failed", "error", err.Error())
		httpx.WriteError(w, http.StatusBadRequest, "validation_failed", err.Error(), nil)
		return
	}

	link, err := h.service.Create(ctx, CreateParams{
		Redirect:    req.Redirect,
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		h.handleServiceError(ctx, w, err)
		return
	}

	logger.InfoContext(ctx, "link created",
		"link_id", link.ID.String(),
		"short_id", link.ShortID,
	)

	httpx.WriteJSON(w, http.StatusCreated, DataResponse{Data: toLinkResponse(link)})
}

// ListLinks handles GET /url with optional filter, page and limit.
func (h *Handler) ListLinks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(r)

	query := ListQuery{Filter: r.URL.Query().Get("filter")}

	page, err := parsePositiveInt(r.URL.Query(), "page")
	if err != nil {
		logger.WarnContext(ctx, "invalid page parameter", "error", err.Error())
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error(), nil)
		return
	}
	query.Page = page

	limit, err := parsePositiveInt(r.URL.Query(), "limit")
	if err != nil {
		logger.WarnContext(ctx, "invalid limit parameter", "error", err.Error())
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error(), nil)
		return
	}
	query.Limit = limit

	result, err := h.service.List(ctx, query)
	if err != nil {
		h.handleServiceError(ctx, w, err)
		return
	}

	data := make([]LinkResponse, 0, len(result.Data))
	for _, link := range result.Data {
		data = append(data, toLinkResponse(link))
	}

	httpx.WriteJSON(w, http.StatusOK, ListResponse{Data: data, Meta: result.Meta})
}

// UpdateLink handles PATCH and PUT /url/{id}.
func (h *Handler) UpdateLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(r)

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		logger.WarnContext(ctx, "invalid link id", "id", r.PathValue("id"))
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "invalid link id", nil)
		return
	}

	req, err := httpx.DecodeJSON[HTTPUpdateLinkRequest](r)
	if err != nil {
		logger.WarnContext(ctx, "failed to decode request", "error", err.Error())
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error(), nil)
		return
	}

	link, err := h.service.Update(ctx, id, UpdateParams{
		Title:       req.Title,
		Redirect:    req.Redirect,
		Description: req.Description,
	})
	if err != nil {
		h.handleServiceError(ctx, w, err)
		return
	}

	logger.InfoContext(ctx, "link updated", "link_id", link.ID.String())

	httpx.WriteJSON(w, http.StatusOK, DataResponse{Data: toLinkResponse(link)})
}

// DeleteLink handles DELETE /url/{id} and returns the removed record.
func (h *Handler) DeleteLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(r)

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		logger.WarnContext(ctx, "invalid link id", "id", r.PathValue("id"))
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "invalid link id", nil)
		return
	}

	link, err := h.service.Delete(ctx, id)
	if err != nil {
		h.handleServiceError(ctx, w, err)
		return
	}

	logger.InfoContext(ctx, "link deleted", "link_id", link.ID.String())

	httpx.WriteJSON(w, http.StatusOK, DataResponse{Data: toLinkResponse(link)})
}

// Redirect handles GET /{shortId}: resolve and redirect to the target.
func (h *Handler) Redirect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(r)

	shortID := r.PathValue("shortId")

	link, err := h.service.Get(ctx, shortID)
	if err != nil {
		h.handleServiceError(ctx, w, err)
		return
	}
	if link == nil {
		logger.WarnContext(ctx, "short link not found", "short_id", shortID)
		httpx.WriteError(w, http.StatusNotFound, "not_found",
			"short link doesn't exist", nil)
		return
	}

	logger.InfoContext(ctx, "short link resolved",
		"short_id", shortID,
		"redirect", link.Redirect,
	)

	http.Redirect(w, r, link.Redirect, http.StatusFound)
}

func (h *Handler) requestLogger(r *http.Request) *slog.Logger {
	return h.logger.With(
		"request_id", httpx.GetRequestID(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
	)
}

func (h *Handler) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	kind := errx.KindOf(err)

	logAttrs := []any{
		"error", err.Error(),
		"error_kind", kind,
		"operation", errx.OpOf(err),
	}

	switch kind {
	case errx.Invalid:
		h.logger.WarnContext(ctx, "invalid request", logAttrs...)
		httpx.WriteError(w, http.StatusBadRequest, "invalid_input", err.Error(), nil)

	case errx.NotFound:
		h.logger.WarnContext(ctx, "link not found", logAttrs...)
		httpx.WriteError(w, http.StatusNotFound, "not_found",
			"no link with that id", nil)

	case errx.Conflict:
		h.logger.WarnContext(ctx, "short url conflict", logAttrs...)
		httpx.WriteError(w, http.StatusConflict, "conflict",
			"could not allocate a unique short url, please retry", nil)

	case errx.Unavailable:
		h.logger.ErrorContext(ctx, "service unavailable", logAttrs...)
		httpx.WriteError(w, http.StatusServiceUnavailable, "unavailable",
			"unable to serve this request right now, please retry", nil)

	default:
		h.logger.ErrorContext(ctx, "unexpected error", logAttrs...)
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error",
			"an unexpected error occurred", nil)
	}
}

// validateCreateRequest runs before the core is invoked so the service
// only ever sees well-formed input.
func validateCreateRequest(req HTTPCreateLinkRequest) error {
	if req.Redirect == "" {
		return errors.New("redirect is required")
	}
	if req.Title == "" {
		return errors.New("title is required")
	}

	parsed, err := url.Parse(req.Redirect)
	if err != nil {
		return errors.New("redirect must be a valid url")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return errors.New("redirect scheme must be http or https")
	}
	if parsed.Host == "" {
		return errors.New("redirect must include a host")
	}
	return nil
}

// parsePositiveInt reads an optional positive integer query parameter.
// Absent values report 0 so callers can apply their defaults.
func parsePositiveInt(values url.Values, name string) (int, error) {
	raw := values.Get(name)
	if raw == "" {
		return 0, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New(name + " must be an integer")
	}
	if n <= 0 {
		return 0, errors.New(name + " must be positive")
	}
	return n, nil
}
