package store

import (
	"testing"

	"github.com/pjhalloran/questkeep/internal/model"
)

func setupPushTest(t *testing.T) (*PushStore, *model.Account, *model.Account) {
	t.Helper()
	db := setupTestDB(t)
	ps := NewPushStore(db)
	as := NewAccountStore(db)

	parent, err := as.Create("Dana", model.RoleParent, 0)
	if err != nil {
		t.Fatalf("create parent: %v", err)
	}
	child, err := as.Create("Milo", model.RoleChild, 10)
	if err != nil {
		t.Fatalf("create child: %v", err)
	}
	return ps, parent, child
}

func TestCreateSubscription(t *testing.T) {
	ps, _, child := setupPushTest(t)

	sub, err := ps.CreateSubscription(child.ID, "https://push.example.com/sub1", "p256dh-key", "auth-key", "Milo's tablet")
	if err != nil {
		t.Fatalf("create subscription: %v", err)
	}
	if sub.ID == 0 {
		t.Error("expected non-zero id")
	}
	if sub.AccountID != child.ID {
		t.Errorf("account_id = %d, want %d", sub.AccountID, child.ID)
	}

	got, err := ps.GetByID(sub.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Endpoint != "https://push.example.com/sub1" {
		t.Errorf("endpoint = %q", got.Endpoint)
	}
	if got.DeviceName != "Milo's tablet" {
		t.Errorf("device_name = %q", got.DeviceName)
	}
}

func TestCreateSubscriptionUpsertsOnEndpoint(t *testing.T) {
	ps, parent, child := setupPushTest(t)

	first, err := ps.CreateSubscription(child.ID, "https://push.example.com/shared", "key1", "auth1", "Tablet")
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	second, err := ps.CreateSubscription(parent.ID, "https://push.example.com/shared", "key2", "auth2", "Tablet")
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if second.AccountID != parent.ID {
		t.Errorf("account_id = %d, want %d", second.AccountID, parent.ID)
	}
	if second.P256dhKey != "key2" {
		t.Errorf("p256dh = %q, want key2", second.P256dhKey)
	}

	// The endpoint is the identity; re-registering must not leave the old row.
	if subs, _ := ps.ListByAccount(child.ID); len(subs) != 0 {
		t.Errorf("old account still has %d subscriptions", len(subs))
	}
	_ = first
}

func TestListByAccount(t *testing.T) {
	ps, parent, child := setupPushTest(t)

	ps.CreateSubscription(child.ID, "https://push.example.com/a", "k", "a", "Tablet")
	ps.CreateSubscription(child.ID, "https://push.example.com/b", "k", "a", "Phone")
	ps.CreateSubscription(parent.ID, "https://push.example.com/c", "k", "a", "Laptop")

	subs, err := ps.ListByAccount(child.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(subs) != 2 {
		t.Fatalf("subscriptions = %d, want 2", len(subs))
	}
}

func TestListParents(t *testing.T) {
	ps, parent, child := setupPushTest(t)

	ps.CreateSubscription(parent.ID, "https://push.example.com/p", "k", "a", "Phone")
	ps.CreateSubscription(child.ID, "https://push.example.com/c", "k", "a", "Tablet")

	subs, err := ps.ListParents()
	if err != nil {
		t.Fatalf("list parents: %v", err)
	}
	if len(subs) != 1 {
		t.Fatalf("subscriptions = %d, want 1", len(subs))
	}
	if subs[0].AccountID != parent.ID {
		t.Errorf("account_id = %d, want %d", subs[0].AccountID, parent.ID)
	}
}

func TestDeleteSubscription(t *testing.T) {
	ps, _, child := setupPushTest(t)

	sub, _ := ps.CreateSubscription(child.ID, "https://push.example.com/a", "k", "a", "Tablet")
	if err := ps.DeleteSubscription(sub.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	got, err := ps.GetByID(sub.ID)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if got != nil {
		t.Error("expected nil after delete")
	}
}

func TestDeleteByEndpoint(t *testing.T) {
	ps, _, child := setupPushTest(t)

	ps.CreateSubscription(child.ID, "https://push.example.com/stale", "k", "a", "Tablet")
	if err := ps.DeleteByEndpoint("https://push.example.com/stale"); err != nil {
		t.Fatalf("delete by endpoint: %v", err)
	}

	subs, _ := ps.ListByAccount(child.ID)
	if len(subs) != 0 {
		t.Errorf("subscriptions = %d, want 0", len(subs))
	}
}
