// Package apptest builds the full HTTP router on a throwaway sqlite store.
package apptest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"taskmanager/internal/app"
	"taskmanager/internal/config"
	"taskmanager/internal/repo"
	"taskmanager/internal/storetest"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// Config returns a config suitable for tests: sqlite, no Redis, cheap bcrypt.
func Config() config.Config {
	var cfg config.Config
	cfg.App.Env = "test"
	cfg.App.Version = "test"
	cfg.Store.Driver = config.DriverSQLite
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.JWTIssuer = "taskmanager"
	cfg.Auth.BcryptCost = bcrypt.MinCost
	return cfg
}

// Router returns the application router backed by a fresh in-memory store.
func Router(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := storetest.NewDB(t)
	log := logrus.New()
	log.SetOutput(io.Discard)

	r := gin.New()
	app.Setup(r, Config(), log, app.Stores{
		Tasks: repo.NewGormTaskRepo(db),
		Users: repo.NewGormUserRepo(db),
	}, nil)
	return r
}

// Register creates a user through the API and returns its bearer token.
func Register(t *testing.T, h http.Handler, username string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"username": username, "password": "password123"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("register %s: status %d: %s", username, w.Code, w.Body.String())
	}
	var resp struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("register %s: decode: %v", username, err)
	}
	return resp.Data.Token
}
