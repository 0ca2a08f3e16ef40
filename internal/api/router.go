// Package api is the stream control plane: create/list/get/remove over
// REST, plus static serving of each stream's HLS output directory.
package api

import (
	"dash2hlsd/internal/config"
	"dash2hlsd/internal/errs"
	"dash2hlsd/internal/logger"
	"dash2hlsd/internal/session"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// API wires a session.Manager to chi's router.
type API struct {
	mgr    *session.Manager
	logger logger.Logger
}

// New builds the router: /streams for the control plane, /hls/{id}/* for
// reading back the playlists and segments a session writes to disk.
func New(mgr *session.Manager, log logger.Logger) http.Handler {
	a := &API{mgr: mgr, logger: log}

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.RequestID)
	r.Use(a.logging)
	r.Use(chimiddleware.Recoverer)

	r.Route("/streams", func(r chi.Router) {
		r.Post("/", a.handleCreate)
		r.Get("/", a.handleList)
		r.Get("/{id}", a.handleGet)
		r.Delete("/{id}", a.handleRemove)
	})
	r.Get("/hls/{id}/*", a.handleHLS)

	return r
}

func (a *API) logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a.logger.Infof("%s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

type createResponse struct {
	ID     string `json:"id"`
	HLSURL string `json:"hls_url"`
	Status string `json:"status"`
}

func (a *API) handleCreate(w http.ResponseWriter, r *http.Request) {
	var raw config.StreamConfig
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, errs.Config("invalid request body", err))
		return
	}

	id, err := a.mgr.Create(raw)
	if err != nil {
		writeError(w, err)
		return
	}

	snap, err := a.mgr.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, createResponse{
		ID:     id,
		HLSURL: "/hls/" + id + "/master.m3u8",
		Status: string(snap.Status),
	})
}

func (a *API) handleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.mgr.List())
}

func (a *API) handleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	snap, err := a.mgr.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (a *API) handleRemove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := a.mgr.Remove(id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleHLS serves a session's output directory read-only. The session
// is its directory's only writer; this handler only ever reads it back.
func (a *API) handleHLS(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	dir, err := a.mgr.OutputDir(id)
	if err != nil {
		writeError(w, err)
		return
	}

	prefix := "/hls/" + id
	http.StripPrefix(prefix, http.FileServer(http.Dir(dir))).ServeHTTP(w, r)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errs.Is(err, errs.KindNotFound):
		status = http.StatusNotFound
	case errs.Is(err, errs.KindConfig):
		status = http.StatusBadRequest
	case errs.Is(err, errs.KindManifest), errs.Is(err, errs.KindNetwork):
		status = http.StatusBadGateway
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
