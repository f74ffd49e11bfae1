package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/wuwenbin0122/guild-recruit/internal/applications"
	"github.com/wuwenbin0122/guild-recruit/internal/auth"
	"github.com/wuwenbin0122/guild-recruit/internal/characters"
	"github.com/wuwenbin0122/guild-recruit/internal/db"
	"github.com/wuwenbin0122/guild-recruit/internal/models"
)

type testEnv struct {
	router *gin.Engine
	store  *db.MemoryStore
}

func setupTestRouter(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := db.NewMemoryStore()
	authService, err := auth.NewService("test-secret", time.Hour, store, auth.WithBcryptCost(bcrypt.MinCost))
	if err != nil {
		t.Fatalf("failed to create auth service: %v", err)
	}

	stub := characters.NewStub()
	stub.Missing["ghost"] = true
	appService, err := applications.NewService(store,
		applications.WithLookup(stub),
		applications.WithArchive(db.NewMemoryArchive()),
	)
	if err != nil {
		t.Fatalf("failed to create application service: %v", err)
	}

	router := gin.New()
	NewHandler(authService, appService, opts...).RegisterRoutes(router)

	return &testEnv{router: router, store: store}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != nil {
		req = newJSONRequest(t, method, path, body)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// register creates an account and returns its token. Officer and admin
// accounts are promoted directly in the store before logging in again.
func (e *testEnv) register(t *testing.T, username string, role models.UserRole) string {
	t.Helper()

	creds := map[string]string{"username": username, "password": "secret123"}
	rec := e.do(t, http.MethodPost, "/api/register", "", creds)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: expected 201, got %d: %s", username, rec.Code, rec.Body.String())
	}

	if role != models.RoleCandidate {
		if err := e.store.SetUserRole(context.Background(), username, role); err != nil {
			t.Fatalf("promote user: %v", err)
		}
		rec = e.do(t, http.MethodPost, "/api/login", "", creds)
		if rec.Code != http.StatusOK {
			t.Fatalf("login %s: expected 200, got %d", username, rec.Code)
		}
	}

	var resp map[string]any
	decodeBody(t, rec.Body.Bytes(), &resp)
	token, _ := resp["token"].(string)
	if token == "" {
		t.Fatalf("expected token for %s", username)
	}
	return token
}

func applicationBody(name, class, spec, role string) map[string]any {
	return map[string]any{
		"battletag":    name + "#1234",
		"charName":     name,
		"realm":        "Draenor",
		"charClass":    class,
		"spec":         spec,
		"desiredRole":  role,
		"availability": "Wed/Thu 20-23",
		"reason":       "Looking for a progression guild",
	}
}

func (e *testEnv) submit(t *testing.T, token string, body map[string]any) models.Application {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/api/applications", token, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var app models.Application
	decodeBody(t, rec.Body.Bytes(), &app)
	return app
}

func TestAuthRegisterAndLogin(t *testing.T) {
	env := setupTestRouter(t)

	creds := map[string]string{"username": "alice", "password": "secret123"}

	rec := env.do(t, http.MethodPost, "/api/register", "", creds)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rec.Code)
	}

	var registerResp map[string]any
	decodeBody(t, rec.Body.Bytes(), &registerResp)
	if registerResp["token"] == "" {
		t.Fatalf("expected token in registration response")
	}
	user, _ := registerResp["user"].(map[string]any)
	if user["role"] != "candidate" {
		t.Fatalf("expected candidate role, got %v", user["role"])
	}
	if _, leaked := user["passwordHash"]; leaked {
		t.Fatalf("password hash must not be returned")
	}

	rec = env.do(t, http.MethodPost, "/api/login", "", creds)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/api/login", "", map[string]string{"username": "alice", "password": "wrong-pass"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401 for wrong password, got %d", rec.Code)
	}
	var errResp map[string]string
	decodeBody(t, rec.Body.Bytes(), &errResp)
	wrongPassword := errResp["message"]

	rec = env.do(t, http.MethodPost, "/api/login", "", map[string]string{"username": "nobody", "password": "secret123"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401 for unknown user, got %d", rec.Code)
	}
	decodeBody(t, rec.Body.Bytes(), &errResp)
	if errResp["message"] != wrongPassword {
		t.Fatalf("expected identical messages, got %q and %q", wrongPassword, errResp["message"])
	}
}

func TestRegisterDuplicateAndMalformed(t *testing.T) {
	env := setupTestRouter(t)

	creds := map[string]string{"username": "alice", "password": "secret123"}
	if rec := env.do(t, http.MethodPost, "/api/register", "", creds); rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rec.Code)
	}

	rec := env.do(t, http.MethodPost, "/api/register", "", map[string]string{"username": "alice", "password": "another123"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", rec.Code)
	}
	var errResp map[string]string
	decodeBody(t, rec.Body.Bytes(), &errResp)
	if errResp["message"] == "" {
		t.Fatalf("expected message in error body")
	}

	if rec := env.do(t, http.MethodPost, "/api/login", "", creds); rec.Code != http.StatusOK {
		t.Fatalf("original password should still work, got %d", rec.Code)
	}

	if rec := env.do(t, http.MethodPost, "/api/register", "", map[string]string{"username": "bob"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for missing password, got %d", rec.Code)
	}
	if rec := env.do(t, http.MethodPost, "/api/register", "", map[string]string{"username": "bo", "password": "secret123"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for short username, got %d", rec.Code)
	}
	for _, password := range []string{"123", strings.Repeat("x", 73)} {
		rec := env.do(t, http.MethodPost, "/api/register", "", map[string]string{"username": "carol", "password": password})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400 for %d byte password, got %d", len(password), rec.Code)
		}
		decodeBody(t, rec.Body.Bytes(), &errResp)
		if errResp["message"] != "Password must be 6-72 characters" {
			t.Fatalf("unexpected message for %d byte password: %q", len(password), errResp["message"])
		}
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := setupTestRouter(t)

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/me"},
		{http.MethodGet, "/api/me/applications"},
		{http.MethodPost, "/api/applications"},
		{http.MethodGet, "/api/applications"},
		{http.MethodGet, "/api/applications/1"},
		{http.MethodGet, "/api/applications/1/profile"},
		{http.MethodPut, "/api/applications/1/status"},
		{http.MethodGet, "/api/dashboard"},
		{http.MethodGet, "/api/characters/draenor/thrall"},
	}

	for _, route := range routes {
		rec := env.do(t, route.method, route.path, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401, got %d", route.method, route.path, rec.Code)
		}

		rec = env.do(t, route.method, route.path, "not-a-jwt", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s with garbage token: expected 401, got %d", route.method, route.path, rec.Code)
		}
	}
}

func TestCandidateCannotReview(t *testing.T) {
	env := setupTestRouter(t)
	candidate := env.register(t, "candidate", models.RoleCandidate)

	app := env.submit(t, candidate, applicationBody("Guldan", "Warlock", "Destruction", "Ranged DPS"))
	id := strconv.FormatInt(app.ID, 10)

	if rec := env.do(t, http.MethodGet, "/api/applications", candidate, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 on list, got %d", rec.Code)
	}
	rec := env.do(t, http.MethodPut, "/api/applications/"+id+"/status", candidate, map[string]string{"status": "Accepted"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 on status update, got %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/api/dashboard", candidate, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 on dashboard, got %d", rec.Code)
	}

	stored, err := env.store.GetApplication(context.Background(), app.ID)
	if err != nil {
		t.Fatalf("get application: %v", err)
	}
	if stored.Status != models.StatusNew {
		t.Fatalf("status must not change, got %s", stored.Status)
	}
}

func TestSubmitForcesServerFields(t *testing.T) {
	env := setupTestRouter(t)
	candidate := env.register(t, "candidate", models.RoleCandidate)

	body := applicationBody("Guldan", "Warlock", "Destruction", "Ranged DPS")
	body["status"] = "Accepted"
	body["createdAt"] = "2001-01-01T00:00:00Z"
	body["id"] = 77
	body["officerNotes"] = "self approved"

	app := env.submit(t, candidate, body)

	if app.Status != models.StatusNew {
		t.Fatalf("expected status New, got %s", app.Status)
	}
	if app.ID == 77 {
		t.Fatalf("client supplied id must be ignored")
	}
	if app.CreatedAt.Year() == 2001 || !app.CreatedAt.Equal(app.UpdatedAt) {
		t.Fatalf("expected server timestamps, got %v / %v", app.CreatedAt, app.UpdatedAt)
	}
	if app.OfficerNotes != nil {
		t.Fatalf("officer notes must not be accepted from candidates")
	}
	if app.ItemLevel < 400 || app.Score <= 0 {
		t.Fatalf("expected enrichment from character lookup, got ilvl %v score %v", app.ItemLevel, app.Score)
	}
}

func TestSubmitValidationAndLookupFailure(t *testing.T) {
	env := setupTestRouter(t)
	candidate := env.register(t, "candidate", models.RoleCandidate)

	bad := applicationBody("Guldan", "Bard", "Lute", "Ranged DPS")
	if rec := env.do(t, http.MethodPost, "/api/applications", candidate, bad); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown class, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/applications", bytes.NewBufferString("{not json"))
	req.Header.Set("Authorization", "Bearer "+candidate)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", rec.Code)
	}

	app := env.submit(t, candidate, applicationBody("Ghost", "Priest", "Shadow", "Ranged DPS"))
	if app.Status != models.StatusNew || app.ItemLevel != 0 || app.Score != 0 {
		t.Fatalf("expected stored application without derived fields, got %+v", app)
	}
}

func TestOfficerReviewFlow(t *testing.T) {
	env := setupTestRouter(t)
	candidate := env.register(t, "candidate", models.RoleCandidate)
	officer := env.register(t, "officer", models.RoleOfficer)
	admin := env.register(t, "admin", models.RoleAdmin)

	warlock := env.submit(t, candidate, applicationBody("Guldan", "Warlock", "Destruction", "Ranged DPS"))
	priest := env.submit(t, candidate, applicationBody("Anduin", "Priest", "Holy", "Healer"))
	id := strconv.FormatInt(warlock.ID, 10)

	rec := env.do(t, http.MethodGet, "/api/applications?role=Healer", officer, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var filtered []models.Application
	decodeBody(t, rec.Body.Bytes(), &filtered)
	if len(filtered) != 1 || filtered[0].ID != priest.ID {
		t.Fatalf("expected only the healer, got %+v", filtered)
	}

	rec = env.do(t, http.MethodGet, "/api/applications?sortBy=charName&order=asc", admin, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin should pass officer check, got %d", rec.Code)
	}
	var sorted []models.Application
	decodeBody(t, rec.Body.Bytes(), &sorted)
	if len(sorted) != 2 || sorted[0].CharName != "Anduin" {
		t.Fatalf("expected Anduin first, got %+v", sorted)
	}

	if rec := env.do(t, http.MethodGet, "/api/applications?sortBy=age", officer, nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown sort field, got %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/api/applications?status=Pending", officer, nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d", rec.Code)
	}

	update := map[string]string{"status": "Trial", "officerNotes": "great logs"}
	rec = env.do(t, http.MethodPut, "/api/applications/"+id+"/status", officer, update)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var first models.Application
	decodeBody(t, rec.Body.Bytes(), &first)

	rec = env.do(t, http.MethodPut, "/api/applications/"+id+"/status", officer, update)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on repeat, got %d", rec.Code)
	}
	var second models.Application
	decodeBody(t, rec.Body.Bytes(), &second)
	if first.Status != second.Status || *first.OfficerNotes != *second.OfficerNotes {
		t.Fatalf("repeated update should leave the same state")
	}

	rec = env.do(t, http.MethodPut, "/api/applications/"+id+"/status", officer, map[string]string{"status": "Accepted"})
	var accepted models.Application
	decodeBody(t, rec.Body.Bytes(), &accepted)
	if accepted.OfficerNotes == nil || *accepted.OfficerNotes != "great logs" {
		t.Fatalf("omitted notes should keep previous notes")
	}

	if rec := env.do(t, http.MethodPut, "/api/applications/999/status", officer, update); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown id, got %d", rec.Code)
	}
	if rec := env.do(t, http.MethodPut, "/api/applications/abc/status", officer, update); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed id, got %d", rec.Code)
	}
	if rec := env.do(t, http.MethodPut, "/api/applications/"+id+"/status", officer, map[string]string{"status": "Approved"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/applications/"+id+"/profile", officer, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected archived profile, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/dashboard", officer, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for dashboard, got %d", rec.Code)
	}
	var summary map[string]any
	decodeBody(t, rec.Body.Bytes(), &summary)
	if summary["total"] != float64(2) || summary["accepted"] != float64(1) || summary["newApps"] != float64(1) {
		t.Fatalf("unexpected dashboard: %v", summary)
	}

	rec = env.do(t, http.MethodGet, "/api/me/applications", candidate, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var mine []models.Application
	decodeBody(t, rec.Body.Bytes(), &mine)
	if len(mine) != 2 {
		t.Fatalf("expected 2 own applications, got %d", len(mine))
	}
	for _, app := range mine {
		if app.OfficerNotes != nil {
			t.Fatalf("officer notes leaked to candidate")
		}
	}
}

func TestMeAndCharacterLookup(t *testing.T) {
	env := setupTestRouter(t)
	officer := env.register(t, "officer", models.RoleOfficer)

	rec := env.do(t, http.MethodGet, "/api/me", officer, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var me map[string]any
	decodeBody(t, rec.Body.Bytes(), &me)
	if me["username"] != "officer" || me["role"] != "officer" {
		t.Fatalf("unexpected identity: %v", me)
	}

	if rec := env.do(t, http.MethodGet, "/api/characters/draenor/thrall", officer, nil); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for known character, got %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/api/characters/draenor/ghost", officer, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing character, got %d", rec.Code)
	}
}

func TestCredentialRateLimit(t *testing.T) {
	env := setupTestRouter(t, WithCredentialLimiter(NewRateLimiter(0.001, 2, nil)))

	creds := map[string]string{"username": "nobody", "password": "secret123"}
	for i := 0; i < 2; i++ {
		if rec := env.do(t, http.MethodPost, "/api/login", "", creds); rec.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", i+1, rec.Code)
		}
	}
	if rec := env.do(t, http.MethodPost, "/api/login", "", creds); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 once the burst is spent, got %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	env := setupTestRouter(t)

	rec := env.do(t, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func newJSONRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal body: %v", err)
	}

	req, err := http.NewRequest(method, path, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody(t *testing.T, data []byte, out any) {
	t.Helper()
	if err := json.Unmarshal(data, out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}
