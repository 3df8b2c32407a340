package session

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	billing "medibill-ai/internal/billing/domain"
	explain "medibill-ai/internal/explain/domain"
)

func items() []billing.Item {
	base := time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC)
	return []billing.Item{
		{ID: "a", Description: "IV fluids", Category: billing.CategoryMedicine, Amount: decimal.NewFromInt(40), Currency: "INR", Timestamp: base},
		{ID: "b", Description: "X-ray", Category: billing.CategoryTest, Amount: decimal.NewFromInt(120), Currency: "INR", Timestamp: base.Add(time.Minute)},
	}
}

func TestSyncReportsNewItems(t *testing.T) {
	sess := New("s1")
	list := items()
	if added := sess.Sync(list[:1]); len(added) != 1 || added[0] != "a" {
		t.Fatalf("expected a to be new, got %v", added)
	}
	if added := sess.Sync(list); len(added) != 1 || added[0] != "b" {
		t.Fatalf("expected b to be new, got %v", added)
	}
	if added := sess.Sync(list); len(added) != 0 {
		t.Fatalf("expected nothing new, got %v", added)
	}
}

func TestRowsReflectStateForCurrentPreferences(t *testing.T) {
	sess := New("s1")
	list := items()
	keyA := sess.Key("a")
	sess.Cache().Put(explain.Explanation{ItemID: "a", Mode: keyA.Mode, Language: keyA.Language, Text: "fluid"})
	keyB := sess.Key("b")
	sess.Begin(keyB)
	sess.Finish(keyB, explain.ErrServiceUnavailable)

	rows := sess.Rows(list)
	if rows[0].State != StateReady || rows[0].Explanation.Text != "fluid" {
		t.Fatalf("unexpected first row %+v", rows[0])
	}
	if rows[1].State != StateError || !errors.Is(rows[1].Error, explain.ErrServiceUnavailable) {
		t.Fatalf("unexpected second row %+v", rows[1])
	}
	if rows[1].RunningTotal != "160.00" {
		t.Fatalf("expected running total 160.00, got %s", rows[1].RunningTotal)
	}

	if err := sess.SetPreferences(explain.ModeFamily, explain.Bengali); err != nil {
		t.Fatalf("set preferences: %v", err)
	}
	rows = sess.Rows(list)
	if rows[0].State != StateNone || rows[1].State != StateNone {
		t.Fatalf("expected none after language change, got %s %s", rows[0].State, rows[1].State)
	}
	if _, ok := sess.Cache().Get(keyA); !ok {
		t.Fatalf("english entry must survive a language change")
	}
}

func TestPendingState(t *testing.T) {
	sess := New("s1")
	key := sess.Key("a")
	sess.Begin(key)
	if rows := sess.Rows(items()); rows[0].State != StatePending {
		t.Fatalf("expected pending, got %s", rows[0].State)
	}
	sess.Finish(key, nil)
	if rows := sess.Rows(items()); rows[0].State != StateNone {
		t.Fatalf("expected none, got %s", rows[0].State)
	}
}

func TestSetPreferencesRejectsInvalid(t *testing.T) {
	sess := New("s1")
	if err := sess.SetPreferences("kids", explain.English); !errors.Is(err, explain.ErrInvalidMode) {
		t.Fatalf("expected ErrInvalidMode, got %v", err)
	}
	if err := sess.SetPreferences(explain.ModeClinical, "Tamil"); !errors.Is(err, explain.ErrInvalidLanguage) {
		t.Fatalf("expected ErrInvalidLanguage, got %v", err)
	}
}

func TestStoreEnsureAndLookup(t *testing.T) {
	store, err := NewStore([]byte("test-secret"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := store.Ensure(rec, req)
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != DefaultCookieName {
		t.Fatalf("expected session cookie, got %v", cookies)
	}

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	next.AddCookie(cookies[0])
	again, err := store.Ensure(httptest.NewRecorder(), next)
	if err != nil {
		t.Fatalf("ensure again: %v", err)
	}
	if again != sess {
		t.Fatalf("expected same session")
	}
	if store.Len() != 1 {
		t.Fatalf("expected one session, got %d", store.Len())
	}
}

func TestStoreRejectsForgedCookie(t *testing.T) {
	store, err := NewStore([]byte("test-secret"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	rec := httptest.NewRecorder()
	sess, err := store.Ensure(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	forged, err := signToken(sess.ID, []byte("other-secret"), time.Now(), time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: forged})
	if _, ok := store.Lookup(req); ok {
		t.Fatalf("forged cookie must not resolve")
	}
}

func TestStorePruneRemovesIdle(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store, err := NewStore([]byte("s"), WithTTL(time.Hour), WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if _, err := store.Ensure(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil)); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	now = now.Add(2 * time.Hour)
	if removed := store.Prune(); removed != 1 {
		t.Fatalf("expected 1 pruned, got %d", removed)
	}
	if store.Len() != 0 {
		t.Fatalf("expected empty store")
	}
}

func TestNewStoreRequiresSecret(t *testing.T) {
	if _, err := NewStore(nil); err == nil {
		t.Fatalf("expected error for empty secret")
	}
}

func TestSyncedAfterFirstSync(t *testing.T) {
	sess := New("s1")
	if sess.Synced() {
		t.Fatalf("fresh session should not be synced")
	}
	sess.Sync(items())
	if !sess.Synced() {
		t.Fatalf("expected synced after Sync")
	}
}
