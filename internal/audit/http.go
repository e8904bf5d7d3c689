package audit

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// ClientIP extracts client ip from common headers or RemoteAddr.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return strings.TrimSpace(realIP)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}

// FromRequest fills request details of an entry.
func FromRequest(r *http.Request, entry Entry) Entry {
	entry.IP = ClientIP(r)
	if r != nil {
		entry.UserAgent = r.UserAgent()
	}
	return entry
}

// Record writes entry and logs failures; audit problems never fail a request.
func Record(r *http.Request, logger Logger, zlog *zap.Logger, entry Entry) {
	if logger == nil {
		return
	}
	entry = FromRequest(r, entry)
	if err := logger.Log(r.Context(), entry); err != nil && zlog != nil {
		zlog.Warn("audit write failed", zap.String("action", entry.Action), zap.Error(err))
	}
}

// Handler serves the audit trail.
type Handler struct {
	repo *Repository
}

// NewHandler constructs an audit handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// ServeHTTP lists recent entries, newest first.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}
	entries, err := h.repo.Recent(r.Context(), limit)
	if err != nil {
		http.Error(w, "audit query failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(entries)
}
