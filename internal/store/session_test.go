package store

import (
	"testing"

	"github.com/pjhalloran/questkeep/internal/model"
)

func setupSessionTest(t *testing.T) (*SessionStore, *AccountStore) {
	t.Helper()
	db := setupTestDB(t)
	return NewSessionStore(db), NewAccountStore(db)
}

func TestSessionCreateAndGetByToken(t *testing.T) {
	ss, as := setupSessionTest(t)

	account, err := as.Create("Sam", model.RoleParent, 40)
	if err != nil {
		t.Fatalf("create account: %v", err)
	}

	sess, err := ss.Create(account.ID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if sess.Token == "" {
		t.Error("expected non-empty token")
	}
	if sess.AccountID != account.ID {
		t.Errorf("account_id = %d, want %d", sess.AccountID, account.ID)
	}

	got, err := ss.GetByToken(sess.Token)
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if got == nil {
		t.Fatal("expected session, got nil")
	}
	if got.ID != sess.ID {
		t.Errorf("id = %d, want %d", got.ID, sess.ID)
	}
}

func TestSessionGetByTokenInvalid(t *testing.T) {
	ss, _ := setupSessionTest(t)

	got, err := ss.GetByToken("nonexistent")
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if got != nil {
		t.Error("expected nil for unknown token")
	}
}

func TestSessionTokensUnique(t *testing.T) {
	ss, as := setupSessionTest(t)

	account, _ := as.Create("Sam", model.RoleParent, 40)
	s1, err := ss.Create(account.ID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	s2, err := ss.Create(account.ID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if s1.Token == s2.Token {
		t.Error("expected unique tokens")
	}
}

func TestSessionDelete(t *testing.T) {
	ss, as := setupSessionTest(t)

	account, _ := as.Create("Sam", model.RoleParent, 40)
	sess, _ := ss.Create(account.ID)

	if err := ss.Delete(sess.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	got, err := ss.GetByToken(sess.Token)
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if got != nil {
		t.Error("expected nil after delete")
	}
}

func TestSessionDeleteByAccountID(t *testing.T) {
	ss, as := setupSessionTest(t)

	account, _ := as.Create("Sam", model.RoleParent, 40)
	s1, _ := ss.Create(account.ID)
	s2, _ := ss.Create(account.ID)

	if err := ss.DeleteByAccountID(account.ID); err != nil {
		t.Fatalf("delete by account: %v", err)
	}

	for _, tok := range []string{s1.Token, s2.Token} {
		got, err := ss.GetByToken(tok)
		if err != nil {
			t.Fatalf("get by token: %v", err)
		}
		if got != nil {
			t.Error("expected all account sessions deleted")
		}
	}
}
