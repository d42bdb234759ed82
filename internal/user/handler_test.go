// AngelaMos | 2026
// handler_test.go

package user

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/mystery-message/internal/core"
	"github.com/carterperez-dev/mystery-message/internal/middleware"
)

func fakeAuth(userID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID == "" {
				core.Unauthorized(w, "Not authenticated")
				return
			}
			ctx := middleware.WithSession(r.Context(), &middleware.SessionIdentity{UserID: userID})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func newRouter(f *serviceFixture, userID string) chi.Router {
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		NewHandler(f.svc).RegisterRoutes(r, fakeAuth(userID))
	})
	return r
}

func do(t *testing.T, r http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return rr, out
}

func TestSignUpHandler(t *testing.T) {
	f := newFixture(verifiedUser("u1", "taken", "taken@example.com"))
	r := newRouter(f, "")

	rr, body := do(t, r, http.MethodPost, "/api/sign-up",
		`{"username":"alice","email":"alice@example.com","password":"hunter22"}`)
	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, true, body["success"])

	rr, body = do(t, r, http.MethodPost, "/api/sign-up",
		`{"username":"taken","email":"new@example.com","password":"hunter22"}`)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "USERNAME_TAKEN", body["code"])

	rr, body = do(t, r, http.MethodPost, "/api/sign-up",
		`{"username":"x","email":"nope","password":"1"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, body["message"], "username")

	rr, _ = do(t, r, http.MethodPost, "/api/sign-up", `{`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestVerifyCodeHandler(t *testing.T) {
	f := newFixture()
	r := newRouter(f, "")

	rr, _ := do(t, r, http.MethodPost, "/api/sign-up",
		`{"username":"alice","email":"alice@example.com","password":"hunter22"}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	code := f.codes.code("alice")

	wrong := "000000"
	if code == wrong {
		wrong = "999999"
	}

	rr, body := do(t, r, http.MethodPost, "/api/verify-code",
		`{"username":"alice","code":"`+wrong+`"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "CODE_INVALID", body["code"])

	rr, body = do(t, r, http.MethodPost, "/api/verify-code",
		`{"username":"alice","code":"`+code+`"}`)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Account verified successfully", body["message"])

	rr, _ = do(t, r, http.MethodPost, "/api/verify-code",
		`{"username":"ghost","code":"123456"}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCheckUsernameUniqueHandler(t *testing.T) {
	f := newFixture(verifiedUser("u1", "alice", "alice@example.com"))
	r := newRouter(f, "")

	rr, body := do(t, r, http.MethodGet, "/api/check-username-unique?username=bob", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Username is unique", body["message"])

	rr, body = do(t, r, http.MethodGet, "/api/check-username-unique?username=alice", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Username is already taken", body["message"])

	rr, _ = do(t, r, http.MethodGet, "/api/check-username-unique?username=a", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAcceptMessagesHandlers(t *testing.T) {
	f := newFixture(verifiedUser("u1", "alice", "alice@example.com"))
	r := newRouter(f, "u1")

	rr, body := do(t, r, http.MethodGet, "/api/accept-messages", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, true, body["isAcceptingMessages"])

	rr, body = do(t, r, http.MethodPost, "/api/accept-messages", `{"acceptMessages":false}`)
	require.Equal(t, http.StatusOK, rr.Code)
	updated, ok := body["updatedUser"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "u1", updated["_id"])
	assert.Equal(t, false, updated["isAcceptingMessages"])

	rr, body = do(t, r, http.MethodGet, "/api/accept-messages", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, false, body["isAcceptingMessages"])

	rr, _ = do(t, r, http.MethodPost, "/api/accept-messages", `{}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAcceptMessagesRequiresSession(t *testing.T) {
	f := newFixture(verifiedUser("u1", "alice", "alice@example.com"))

	rr, _ := do(t, newRouter(f, ""), http.MethodGet, "/api/accept-messages", "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr, body := do(t, newRouter(f, "deleted"), http.MethodGet, "/api/accept-messages", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "User not found", body["message"])
}
