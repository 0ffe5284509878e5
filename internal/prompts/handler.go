package prompts

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/JaimeStill/segmenter/pkg/handlers"
	"github.com/JaimeStill/segmenter/pkg/pagination"
	"github.com/JaimeStill/segmenter/pkg/routes"
)

type Handler struct {
	sys        System
	logger     *slog.Logger
	pagination pagination.Config
}

// SearchRequest is the body of POST /prompts/search.
type SearchRequest struct {
	pagination.PageRequest
	Filters
}

// StageContent answers the per-stage text endpoints.
type StageContent struct {
	Stage   Stage  `json:"stage"`
	Content string `json:"content"`
}

func NewHandler(sys System, logger *slog.Logger, cfg pagination.Config) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "prompts"),
		pagination: cfg,
	}
}

func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/prompts",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "POST", Pattern: "", Handler: h.Create},
			{Method: "POST", Pattern: "/search", Handler: h.Search},
			{Method: "GET", Pattern: "/stages", Handler: h.Stages},
			{Method: "GET", Pattern: "/{stage}/instructions", Handler: h.Instructions},
			{Method: "GET", Pattern: "/{stage}/default", Handler: h.Default},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
			{Method: "PUT", Pattern: "/{id}", Handler: h.Update},
			{Method: "DELETE", Pattern: "/{id}", Handler: h.Delete},
			{Method: "POST", Pattern: "/{id}/activate", Handler: h.Activate},
			{Method: "POST", Pattern: "/{id}/deactivate", Handler: h.Deactivate},
		},
	}
}

// respond writes v with status, or err mapped through MapHTTPStatus.
func (h *Handler) respond(w http.ResponseWriter, status int, v any, err error) {
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, status, v)
}

// id reads the {id} path value. A malformed id cannot name a prompt, so it
// answers 400 with ErrNotFound.
func (h *Handler) id(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrNotFound)
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) stage(w http.ResponseWriter, r *http.Request) (Stage, bool) {
	stage, err := ParseStage(r.PathValue("stage"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return "", false
	}
	return stage, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return false
	}
	return true
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	result, err := h.sys.List(r.Context(), page, FiltersFromQuery(r.URL.Query()))
	h.respond(w, http.StatusOK, result, err)
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if !h.decode(w, r, &req) {
		return
	}
	req.Normalize(h.pagination)
	result, err := h.sys.List(r.Context(), req.PageRequest, req.Filters)
	h.respond(w, http.StatusOK, result, err)
}

func (h *Handler) Stages(w http.ResponseWriter, r *http.Request) {
	handlers.RespondJSON(w, http.StatusOK, Stages())
}

func (h *Handler) Instructions(w http.ResponseWriter, r *http.Request) {
	if stage, ok := h.stage(w, r); ok {
		text, err := h.sys.Instructions(r.Context(), stage)
		h.respond(w, http.StatusOK, StageContent{Stage: stage, Content: text}, err)
	}
}

func (h *Handler) Default(w http.ResponseWriter, r *http.Request) {
	if stage, ok := h.stage(w, r); ok {
		text, err := Default(stage)
		h.respond(w, http.StatusOK, StageContent{Stage: stage, Content: text}, err)
	}
}

func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	if id, ok := h.id(w, r); ok {
		p, err := h.sys.Find(r.Context(), id)
		h.respond(w, http.StatusOK, p, err)
	}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var cmd Command
	if !h.decode(w, r, &cmd) {
		return
	}
	p, err := h.sys.Create(r.Context(), cmd)
	h.respond(w, http.StatusCreated, p, err)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.id(w, r)
	if !ok {
		return
	}
	var cmd Command
	if !h.decode(w, r, &cmd) {
		return
	}
	p, err := h.sys.Update(r.Context(), id, cmd)
	h.respond(w, http.StatusOK, p, err)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.id(w, r)
	if !ok {
		return
	}
	if err := h.sys.Delete(r.Context(), id); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Activate(w http.ResponseWriter, r *http.Request) {
	if id, ok := h.id(w, r); ok {
		p, err := h.sys.Activate(r.Context(), id)
		h.respond(w, http.StatusOK, p, err)
	}
}

func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	if id, ok := h.id(w, r); ok {
		p, err := h.sys.Deactivate(r.Context(), id)
		h.respond(w, http.StatusOK, p, err)
	}
}
