package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"dstech-dashboard/internal/audit"
	"dstech-dashboard/internal/auth"
	"dstech-dashboard/internal/clients/domain"
)

// AliasStore is the persistence used by the handler.
type AliasStore interface {
	List(ctx context.Context) ([]domain.Alias, error)
	Upsert(ctx context.Context, alias domain.Alias) error
	Delete(ctx context.Context, clientID int) (bool, error)
	Clear(ctx context.Context) (int64, error)
	Catalogue(ctx context.Context) ([]domain.CatalogueEntry, error)
}

// Handler manages client aliases over HTTP.
type Handler struct {
	store  AliasStore
	audit  audit.Logger
	logger *zap.Logger
}

// NewHandler constructs a handler.
func NewHandler(store AliasStore, auditLogger audit.Logger, logger *zap.Logger) (*Handler, error) {
	if store == nil {
		return nil, errors.New("clients handler: nil store")
	}
	if auditLogger == nil {
		auditLogger = audit.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, audit: auditLogger, logger: logger}, nil
}

// Register mounts the client routes on router.
func (h *Handler) Register(router *mux.Router) {
	api := router.PathPrefix("/api/v1/clients").Subrouter()
	api.HandleFunc("", h.handleCatalogue).Methods(http.MethodGet)
	api.HandleFunc("/aliases", h.handleList).Methods(http.MethodGet)
	api.HandleFunc("/aliases", h.handleClear).Methods(http.MethodDelete)
	api.HandleFunc("/{id:[0-9]+}", h.handleUpsert).Methods(http.MethodPut)
	api.HandleFunc("/{id:[0-9]+}", h.handleDelete).Methods(http.MethodDelete)
}

type aliasRequest struct {
	Alias string `json:"alias"`
}

func (h *Handler) handleCatalogue(w http.ResponseWriter, r *http.Request) {
	entries, err := h.store.Catalogue(r.Context())
	if err != nil {
		h.fail(w, "catalogue", err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	aliases, err := h.store.List(r.Context())
	if err != nil {
		h.fail(w, "list", err)
		return
	}
	writeJSON(w, http.StatusOK, aliases)
}

func (h *Handler) handleUpsert(w http.ResponseWriter, r *http.Request) {
	clientID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid client id", http.StatusBadRequest)
		return
	}
	var req aliasRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<12)).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	alias := domain.Alias{ClientID: clientID, Alias: req.Alias}
	if err := alias.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.store.Upsert(r.Context(), alias); err != nil {
		h.fail(w, "upsert", err)
		return
	}
	h.record(r, audit.ActionAliasUpsert, strconv.Itoa(clientID), map[string]string{"alias": alias.Alias})
	writeJSON(w, http.StatusOK, alias)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	clientID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid client id", http.StatusBadRequest)
		return
	}
	found, err := h.store.Delete(r.Context(), clientID)
	if err != nil {
		h.fail(w, "delete", err)
		return
	}
	if !found {
		http.Error(w, "alias not found", http.StatusNotFound)
		return
	}
	h.record(r, audit.ActionAliasDelete, strconv.Itoa(clientID), nil)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleClear(w http.ResponseWriter, r *http.Request) {
	n, err := h.store.Clear(r.Context())
	if err != nil {
		h.fail(w, "clear", err)
		return
	}
	h.record(r, audit.ActionAliasClear, "", map[string]int64{"deleted": n})
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}

func (h *Handler) record(r *http.Request, action, resourceID string, metadata any) {
	entry := audit.Entry{
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       action,
		ResourceType: "client_alias",
		ResourceID:   resourceID,
	}
	if metadata != nil {
		entry.Metadata = audit.Metadata(metadata)
	}
	audit.Record(r, h.audit, h.logger, entry)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	h.logger.Error("client alias operation failed", zap.String("op", op), zap.Error(err))
	http.Error(w, "client alias storage unavailable", http.StatusServiceUnavailable)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
