// Package upstream is a development stub server for exercising wrapped
// remote calls: endpoints that answer with a chosen status, after a chosen
// delay, or by echoing the request back.
package upstream

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/psantana5/callwrap/pkg/logging"
)

// Handler serves the stub upstream endpoints
type Handler struct {
	log *logging.Logger
}

// NewHandler creates a new stub upstream handler
func NewHandler(log *logging.Logger) *Handler {
	if log == nil {
		log = logging.Default()
	}
	return &Handler{log: log}
}

// RegisterRoutes registers all stub endpoints on the router
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/status/{code}", h.Status).Methods("GET", "POST")
	r.HandleFunc("/delay/{ms}", h.Delay).Methods("GET", "POST")
	r.HandleFunc("/echo", h.Echo).Methods("GET", "POST", "PUT", "DELETE")
	r.HandleFunc("/health", h.Health).Methods("GET")
}

// Status answers with the status code named in the path and a small JSON body
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	code, err := strconv.Atoi(vars["code"])
	if err != nil || code < 100 || code > 599 {
		http.Error(w, "Invalid status code", http.StatusBadRequest)
		return
	}

	h.log.Debug("stub status request", map[string]interface{}{
		"code": code,
		"path": r.URL.Path,
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":      code,
		"status_text": http.StatusText(code),
	})
}

// Delay sleeps for the requested number of milliseconds before answering 200.
// A request cancelled while waiting is abandoned without a response, which is
// how a real slow upstream looks to an aborted client.
func (h *Handler) Delay(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	ms, err := strconv.Atoi(vars["ms"])
	if err != nil || ms < 0 {
		http.Error(w, "Invalid delay", http.StatusBadRequest)
		return
	}

	select {
	case <-time.After(time.Duration(ms) * time.Millisecond):
	case <-r.Context().Done():
		h.log.Debug("stub delay request abandoned", map[string]interface{}{
			"delay_ms": ms,
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"delayed_ms": ms,
	})
}

// Echo reflects the request method, query and body back as JSON
func (h *Handler) Echo(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read body", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"method": r.Method,
		"query":  r.URL.RawQuery,
		"body":   string(body),
	})
}

// Health handles health checks
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status": "healthy",
	})
}
