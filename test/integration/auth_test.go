package integration

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volunteerhub/backend/internal/auth/middleware"
	"github.com/volunteerhub/backend/internal/auth/service"
	"github.com/volunteerhub/backend/internal/config"
	"github.com/volunteerhub/backend/internal/models"
	"github.com/volunteerhub/backend/internal/repositories"
	"github.com/volunteerhub/backend/internal/server"
	"github.com/volunteerhub/backend/internal/services"
	"go.uber.org/zap"
)

var (
	testConfig *config.Config
	testDB     *sql.DB
	testLogger *zap.Logger
)

// testStore is the credential store of one test plus a way to remove accounts behind the service's back
type testStore struct {
	repo   services.UserRepository
	delete func(t *testing.T, id string)
}

// newTestStore returns an empty store for the configured backend
func newTestStore(t *testing.T) testStore {
	t.Helper()

	if testDB == nil {
		repo := repositories.NewMemoryUserRepository()
		return testStore{
			repo: repo,
			delete: func(t *testing.T, id string) {
				require.NoError(t, repo.Delete(context.Background(), id))
			},
		}
	}

	_, err := testDB.Exec("DELETE FROM users")
	require.NoError(t, err, "Failed to clear users")
	t.Cleanup(func() {
		testDB.Exec("DELETE FROM users")
	})

	return testStore{
		repo: repositories.NewUserRepository(testDB, testLogger),
		delete: func(t *testing.T, id string) {
			_, err := testDB.Exec("DELETE FROM users WHERE id = ?", id)
			require.NoError(t, err)
		},
	}
}

// setupTestSchemaForMain creates the users table for MySQL-backed runs
func setupTestSchemaForMain(db *sql.DB) {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id CHAR(36) NOT NULL,
			name VARCHAR(255) NOT NULL,
			email VARCHAR(255) NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			role VARCHAR(32) NOT NULL DEFAULT 'user',
			PRIMARY KEY (id),
			UNIQUE KEY users_email_unique (email)
		)
	`)
	if err != nil {
		panic(fmt.Sprintf("Failed to create users table: %v", err))
	}
}

// TestMain sets up and tears down the test environment
func TestMain(m *testing.M) {
	testLogger = zap.NewNop()

	var err error
	testConfig, err = config.LoadTestConfig()
	if err != nil {
		panic(fmt.Sprintf("Failed to load test config: %v", err))
	}

	if testConfig.Storage.Backend == config.StorageMySQL {
		testDB, err = sql.Open("mysql", testConfig.DSN())
		if err != nil {
			panic(fmt.Sprintf("Failed to connect to test database: %v", err))
		}
		if err = testDB.Ping(); err != nil {
			panic(fmt.Sprintf("Failed to ping test database: %v", err))
		}
		setupTestSchemaForMain(testDB)
	}

	code := m.Run()

	if testDB != nil {
		testDB.Close()
	}
	os.Exit(code)
}

func newTestRouter(t *testing.T) (chi.Router, testStore) {
	t.Helper()
	store := newTestStore(t)
	return server.NewRouter(testConfig, store.repo, testLogger), store
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body["error"]
}

func decodeAuth(t *testing.T, w *httptest.ResponseRecorder) models.AuthResponse {
	t.Helper()
	var body models.AuthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

// getCookie extracts a cookie from the response
func getCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

func registerUser(t *testing.T, router http.Handler, name, email, password string) models.AuthResponse {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/register", models.RegisterRequest{Name: name, Email: email, Password: password}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeAuth(t, w)
}

func TestAccountLifecycle(t *testing.T) {
	router, _ := newTestRouter(t)

	// Register
	w := doJSON(t, router, http.MethodPost, "/register", models.RegisterRequest{Name: "A", Email: "a@x.com", Password: "pw123456"}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	registered := decodeAuth(t, w)
	assert.Equal(t, models.RoleUser, registered.User.Role)
	assert.Equal(t, "a@x.com", registered.User.Email)
	assert.NotEmpty(t, registered.Token)
	assert.NotContains(t, w.Body.String(), "pw123456")

	cookie := getCookie(w, middleware.TokenCookieName)
	require.NotNil(t, cookie)
	assert.Equal(t, registered.Token, cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
	assert.False(t, cookie.Secure)
	assert.Equal(t, int(testConfig.JWT.TokenExpiry.Seconds()), cookie.MaxAge)

	// Duplicate registration, case-insensitive on email
	w = doJSON(t, router, http.MethodPost, "/register", models.RegisterRequest{Name: "A", Email: "A@X.com", Password: "pw123456"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "account exists", decodeError(t, w))

	// Login
	w = doJSON(t, router, http.MethodPost, "/login", models.LoginRequest{Email: "a@x.com", Password: "pw123456"}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	loggedIn := decodeAuth(t, w)
	assert.Equal(t, registered.User.ID, loggedIn.User.ID)

	// Current user
	w = doJSON(t, router, http.MethodGet, "/me", nil, loggedIn.Token)
	require.Equal(t, http.StatusOK, w.Code)
	var me models.UserResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&me))
	assert.Equal(t, registered.User, me.User)

	// Logout clears the cookie
	w = doJSON(t, router, http.MethodPost, "/logout", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	cleared := getCookie(w, middleware.TokenCookieName)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
	assert.Less(t, cleared.MaxAge, 0)

	// Tokens are stateless: a header token keeps working after logout until it expires
	w = doJSON(t, router, http.MethodGet, "/me", nil, loggedIn.Token)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLogin_DoesNotRevealAccountExistence(t *testing.T) {
	router, _ := newTestRouter(t)
	registerUser(t, router, "A", "a@x.com", "pw123456")

	unknown := doJSON(t, router, http.MethodPost, "/login", models.LoginRequest{Email: "nobody@x.com", Password: "pw123456"}, "")
	wrong := doJSON(t, router, http.MethodPost, "/login", models.LoginRequest{Email: "a@x.com", Password: "wrong-password"}, "")

	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, unknown.Code, wrong.Code)
	assert.Equal(t, unknown.Body.String(), wrong.Body.String())
	assert.Nil(t, getCookie(unknown, middleware.TokenCookieName))
}

func TestRegister_Validation(t *testing.T) {
	router, _ := newTestRouter(t)

	tests := []struct {
		name string
		body models.RegisterRequest
	}{
		{name: "missing name", body: models.RegisterRequest{Email: "a@x.com", Password: "pw123456"}},
		{name: "missing email", body: models.RegisterRequest{Name: "A", Password: "pw123456"}},
		{name: "missing password", body: models.RegisterRequest{Name: "A", Email: "a@x.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, router, http.MethodPost, "/register", tt.body, "")
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, services.MsgRegisterFieldsRequired, decodeError(t, w))
		})
	}
}

func TestGates(t *testing.T) {
	router, store := newTestRouter(t)
	user := registerUser(t, router, "A", "a@x.com", "pw123456")
	path := "/admin/users/" + user.User.ID

	expiredCodec := service.NewTokenCodec(testConfig.JWT.Secret, time.Nanosecond)
	expired, err := expiredCodec.Issue(service.Claims{SubjectID: user.User.ID, Role: models.RoleAdmin})
	require.NoError(t, err)

	forgedCodec := service.NewTokenCodec("some-other-secret", time.Hour)
	forged, err := forgedCodec.Issue(service.Claims{SubjectID: user.User.ID, Role: models.RoleAdmin})
	require.NoError(t, err)

	tests := []struct {
		name           string
		token          string
		expectedStatus int
		expectedError  string
	}{
		{name: "no token", expectedStatus: http.StatusUnauthorized, expectedError: middleware.MsgNoToken},
		{name: "garbage token", token: "not-a-jwt", expectedStatus: http.StatusUnauthorized, expectedError: middleware.MsgInvalidToken},
		{name: "expired token", token: expired, expectedStatus: http.StatusUnauthorized, expectedError: middleware.MsgTokenExpired},
		{name: "forged admin token", token: forged, expectedStatus: http.StatusUnauthorized, expectedError: middleware.MsgInvalidToken},
		{name: "user role", token: user.Token, expectedStatus: http.StatusForbidden, expectedError: middleware.MsgInsufficientRole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, router, http.MethodGet, path, nil, tt.token)
			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectedError, decodeError(t, w))
		})
	}

	// A role change applies to tokens issued after it
	require.NoError(t, store.repo.UpdateRole(context.Background(), user.User.ID, models.RoleAdmin))

	w := doJSON(t, router, http.MethodGet, path, nil, user.Token)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, router, http.MethodPost, "/login", models.LoginRequest{Email: "a@x.com", Password: "pw123456"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	admin := decodeAuth(t, w)
	assert.Equal(t, models.RoleAdmin, admin.User.Role)

	w = doJSON(t, router, http.MethodGet, path, nil, admin.Token)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGate_CookieTransport(t *testing.T) {
	router, _ := newTestRouter(t)
	user := registerUser(t, router, "A", "a@x.com", "pw123456")

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: middleware.TokenCookieName, Value: user.Token})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// The header wins over the cookie
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	req.AddCookie(&http.Cookie{Name: middleware.TokenCookieName, Value: user.Token})
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminRoutes(t *testing.T) {
	router, store := newTestRouter(t)
	adminAccount := registerUser(t, router, "Admin", "admin@x.com", "pw123456")
	member := registerUser(t, router, "Member", "member@x.com", "pw123456")

	require.NoError(t, store.repo.UpdateRole(context.Background(), adminAccount.User.ID, models.RoleAdmin))
	w := doJSON(t, router, http.MethodPost, "/login", models.LoginRequest{Email: "admin@x.com", Password: "pw123456"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	adminToken := decodeAuth(t, w).Token

	// Read another user's record
	w = doJSON(t, router, http.MethodGet, "/admin/users/"+member.User.ID, nil, adminToken)
	require.Equal(t, http.StatusOK, w.Code)
	var fetched models.UserResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&fetched))
	assert.Equal(t, member.User, fetched.User)

	// Unknown role is rejected
	w = doJSON(t, router, http.MethodPatch, "/admin/users/"+member.User.ID+"/role", models.UpdateRoleRequest{Role: "root"}, adminToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Promote
	w = doJSON(t, router, http.MethodPatch, "/admin/users/"+member.User.ID+"/role", models.UpdateRoleRequest{Role: "admin"}, adminToken)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.NewDecoder(w.Body).Decode(&fetched))
	assert.Equal(t, models.RoleAdmin, fetched.User.Role)

	// Unknown user
	w = doJSON(t, router, http.MethodGet, "/admin/users/00000000-0000-0000-0000-000000000000", nil, adminToken)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMe_AccountRemovedAfterIssuance(t *testing.T) {
	router, store := newTestRouter(t)
	user := registerUser(t, router, "A", "a@x.com", "pw123456")

	store.delete(t, user.User.ID)

	w := doJSON(t, router, http.MethodGet, "/me", nil, user.Token)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, services.MsgUserNotFound, decodeError(t, w))
}

func TestHealth(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/health", nil, "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}
