package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pjhalloran/questkeep/internal/auth"
	"github.com/pjhalloran/questkeep/internal/database"
	"github.com/pjhalloran/questkeep/internal/model"
	"github.com/pjhalloran/questkeep/internal/store"
)

func setupAuthMiddlewareDB(t *testing.T) (*store.SessionStore, *store.AccountStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return store.NewSessionStore(db), store.NewAccountStore(db)
}

func TestRequireAuthNoToken(t *testing.T) {
	ss, as := setupAuthMiddlewareDB(t)

	handler := RequireAuth(ss, as)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not reach handler")
	}))

	req := httptest.NewRequest("GET", "/api/tasks", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRequireAuthInvalidToken(t *testing.T) {
	ss, as := setupAuthMiddlewareDB(t)

	handler := RequireAuth(ss, as)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not reach handler")
	}))

	req := httptest.NewRequest("GET", "/api/tasks", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "invalid-token"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRequireAuthValidSession(t *testing.T) {
	ss, as := setupAuthMiddlewareDB(t)

	account, err := as.Create("Sam", model.RoleParent, 40)
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	sess, err := ss.Create(account.ID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	var gotActor auth.Actor
	handler := RequireAuth(ss, as)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := auth.ActorFrom(r.Context())
		if !ok {
			t.Fatal("expected Actor in request context")
		}
		gotActor = actor
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/api/tasks", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: sess.Token})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if gotActor.AccountID != account.ID {
		t.Errorf("AccountID = %d, want %d", gotActor.AccountID, account.ID)
	}
	if gotActor.Role != model.RoleParent {
		t.Errorf("Role = %q, want %q", gotActor.Role, model.RoleParent)
	}
}

func TestRequireAuthBearerToken(t *testing.T) {
	ss, as := setupAuthMiddlewareDB(t)

	account, err := as.Create("Milo", model.RoleChild, 10)
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	sess, err := ss.Create(account.ID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	handler := RequireAuth(ss, as)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/api/tasks", nil)
	req.Header.Set("Authorization", "Bearer "+sess.Token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestRequireParentAllowed(t *testing.T) {
	ctx := auth.WithActor(context.Background(), auth.Actor{Role: model.RoleParent})
	req := httptest.NewRequest("POST", "/api/tasks/1/verify", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	handler := RequireParent(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestRequireParentForbidden(t *testing.T) {
	ctx := auth.WithActor(context.Background(), auth.Actor{Role: model.RoleChild})
	req := httptest.NewRequest("POST", "/api/tasks/1/verify", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	handler := RequireParent(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not reach handler")
	}))
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestRequireParentMissingActor(t *testing.T) {
	req := httptest.NewRequest("POST", "/api/tasks/1/verify", nil)
	rec := httptest.NewRecorder()

	handler := RequireParent(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not reach handler")
	}))
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}
