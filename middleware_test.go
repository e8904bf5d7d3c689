package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestAccessLogKeepsStatus(t *testing.T) {
	router := mux.NewRouter()
	router.Use(accessLog(zap.NewNop()))
	router.HandleFunc("/api/v1/clients/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/clients/4", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRecoveryReturns500(t *testing.T) {
	handler := recovery(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}), zap.NewNop())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	handler := withCORS(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}), []string{"http://panel.local"})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/charts", nil)
	req.Header.Set("Origin", "http://panel.local")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "http://panel.local", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"http://panel.local"})

	req := httptest.NewRequest(http.MethodGet, "http://dash.local/api/v1/live/ws", nil)
	assert.True(t, check(req), "no origin header")

	req.Header.Set("Origin", "http://panel.local")
	assert.True(t, check(req))

	req.Header.Set("Origin", "http://dash.local")
	assert.True(t, check(req), "same host")

	req.Header.Set("Origin", "http://evil.local")
	assert.False(t, check(req))
}
