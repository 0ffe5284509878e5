package api

import (
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"strconv"

	"github.com/JaimeStill/segmenter/pkg/handlers"
	"github.com/JaimeStill/segmenter/pkg/routes"
	"github.com/JaimeStill/segmenter/pkg/storage"
)

// runDocuments is the key prefix every run writes under.
const runDocuments = "segmentations/"

// storageHandler exposes read-only browsing of run documents.
type storageHandler struct {
	store   storage.System
	logger  *slog.Logger
	maxList int32
}

func newStorageHandler(store storage.System, logger *slog.Logger, maxList int32) *storageHandler {
	return &storageHandler{
		store:   store,
		logger:  logger.With("handler", "storage"),
		maxList: maxList,
	}
}

func (h *storageHandler) routes() routes.Group {
	return routes.Group{
		Prefix: "/storage",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.list},
			{Method: "GET", Pattern: "/download/{key...}", Handler: h.download},
			{Method: "GET", Pattern: "/{key...}", Handler: h.find},
		},
	}
}

func (h *storageHandler) fail(w http.ResponseWriter, err error) {
	handlers.RespondError(w, h.logger, storage.MapHTTPStatus(err), err)
}

func (h *storageHandler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit, err := storage.ParseMaxResults(q.Get("max_results"), h.maxList)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	prefix := q.Get("prefix")
	if prefix == "" {
		prefix = runDocuments
	}

	page, err := h.store.List(r.Context(), prefix, q.Get("marker"), limit)
	if err != nil {
		h.fail(w, err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, page)
}

func (h *storageHandler) find(w http.ResponseWriter, r *http.Request) {
	meta, err := h.store.Find(r.Context(), r.PathValue("key"))
	if err != nil {
		h.fail(w, err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, meta)
}

func (h *storageHandler) download(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	blob, err := h.store.Download(r.Context(), key)
	if err != nil {
		h.fail(w, err)
		return
	}
	defer blob.Body.Close()

	header := w.Header()
	header.Set("Content-Type", blob.ContentType)
	header.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": path.Base(key)}))
	if blob.ContentLength > 0 {
		header.Set("Content-Length", strconv.FormatInt(blob.ContentLength, 10))
	}

	if _, err := io.Copy(w, blob.Body); err != nil {
		h.logger.Warn("download interrupted", "key", key, "error", err)
	}
}
