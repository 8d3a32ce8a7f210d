package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/casting-agency/jwks"
	"github.com/upb/casting-agency/repositories/postgres"
	"go.uber.org/zap"
)

type staticKeyStats jwks.Stats

func (s staticKeyStats) Stats() jwks.Stats { return jwks.Stats(s) }

func TestHandleHealth(t *testing.T) {
	logger := zap.NewNop()

	t.Run("always returns healthy", func(t *testing.T) {
		handler := NewHealthHandler(nil, nil, logger)

		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		w := httptest.NewRecorder()

		handler.HandleHealth(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		err := json.NewDecoder(w.Body).Decode(&response)
		require.NoError(t, err)

		assert.Equal(t, true, response["success"])
		assert.Equal(t, "healthy", response["status"])
		assert.NotEmpty(t, response["timestamp"])
	})
}

func TestHandleReadiness(t *testing.T) {
	logger := zap.NewNop()

	t.Run("healthy when database is available", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectPing()
		mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

		keys := staticKeyStats{Keys: 2, FetchedAt: time.Now(), Refreshes: 1}
		handler := NewHealthHandler(postgres.Wrap(db, logger), keys, logger)

		req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
		w := httptest.NewRecorder()

		handler.HandleReadiness(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))

		assert.Equal(t, true, response["success"])
		assert.Equal(t, "healthy", response["status"])

		checks := response["checks"].(map[string]interface{})
		assert.Equal(t, "healthy", checks["database"])
		assert.Equal(t, "loaded", checks["signing_keys"])

		signingKeys := response["signing_keys"].(map[string]interface{})
		assert.Equal(t, float64(2), signingKeys["keys"])

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unhealthy when database ping fails", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectPing().WillReturnError(errors.New("connection refused"))

		handler := NewHealthHandler(postgres.Wrap(db, logger), nil, logger)

		req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
		w := httptest.NewRecorder()

		handler.HandleReadiness(w, req)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))

		assert.Equal(t, false, response["success"])
		assert.Equal(t, "unhealthy", response["status"])
		checks := response["checks"].(map[string]interface{})
		assert.Equal(t, "unhealthy", checks["database"])
		assert.NotContains(t, response, "signing_keys")

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty key cache does not fail readiness", func(t *testing.T) {
		handler := NewHealthHandler(nil, staticKeyStats{}, logger)

		w := httptest.NewRecorder()
		handler.HandleReadiness(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		checks := response["checks"].(map[string]interface{})
		assert.Equal(t, "empty", checks["signing_keys"])
	})

	t.Run("unhealthy when SELECT 1 fails", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectPing()
		mock.ExpectQuery("SELECT 1").WillReturnError(errors.New("read-only transaction"))

		handler := NewHealthHandler(postgres.Wrap(db, logger), nil, logger)

		w := httptest.NewRecorder()
		handler.HandleReadiness(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
