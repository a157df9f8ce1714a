package shared_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/tavolo-pos/tavolo-pos/internal/shared"
)

func newSessionManager(t *testing.T) *shared.SessionManager {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return shared.NewSessionManager(client, "test_session", time.Hour, false)
}

func TestSessionRoundTrip(t *testing.T) {
	sm := newSessionManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(ctx, req)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	sess.SetUser("u-1", "manager")
	sess.Set("csrf_token", "abc")

	res := httptest.NewRecorder()
	if err := sm.Commit(ctx, res, sess); err != nil {
		t.Fatalf("commit session: %v", err)
	}

	cookies := res.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected one cookie, got %d", len(cookies))
	}

	second := httptest.NewRequest(http.MethodGet, "/", nil)
	second.AddCookie(&http.Cookie{Name: sm.CookieName(), Value: cookies[0].Value})
	loaded, err := sm.Load(ctx, second)
	if err != nil {
		t.Fatalf("reload session: %v", err)
	}
	if loaded.User() != "u-1" {
		t.Fatalf("expected user u-1, got %q", loaded.User())
	}
	if loaded.Role() != "manager" {
		t.Fatalf("expected role manager, got %q", loaded.Role())
	}
	if loaded.Get("csrf_token") != "abc" {
		t.Fatalf("expected stored value to survive round trip")
	}
}

func TestSessionDestroy(t *testing.T) {
	sm := newSessionManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(ctx, req)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	sess.SetUser("u-2", "waiter")
	res := httptest.NewRecorder()
	if err := sm.Commit(ctx, res, sess); err != nil {
		t.Fatalf("commit session: %v", err)
	}

	sm.Destroy(sess)
	destroyRes := httptest.NewRecorder()
	if err := sm.Commit(ctx, destroyRes, sess); err != nil {
		t.Fatalf("commit destroy: %v", err)
	}
	cookies := destroyRes.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge != -1 {
		t.Fatalf("expected expired cookie after destroy")
	}

	again := httptest.NewRequest(http.MethodGet, "/", nil)
	again.AddCookie(&http.Cookie{Name: sm.CookieName(), Value: sess.ID})
	reloaded, err := sm.Load(ctx, again)
	if err != nil {
		t.Fatalf("reload after destroy: %v", err)
	}
	if reloaded.User() != "" {
		t.Fatalf("expected anonymous session after destroy")
	}
}

func TestSessionRenewRotatesID(t *testing.T) {
	sm := newSessionManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(ctx, req)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	res := httptest.NewRecorder()
	if err := sm.Commit(ctx, res, sess); err != nil {
		t.Fatalf("commit session: %v", err)
	}
	oldID := sess.ID

	reload := httptest.NewRequest(http.MethodGet, "/", nil)
	reload.AddCookie(&http.Cookie{Name: sm.CookieName(), Value: oldID})
	loaded, err := sm.Load(ctx, reload)
	if err != nil {
		t.Fatalf("reload session: %v", err)
	}
	if err := sm.Renew(ctx, loaded); err != nil {
		t.Fatalf("renew session: %v", err)
	}
	if loaded.ID == oldID {
		t.Fatalf("expected a fresh session ID after renew")
	}
	loaded.SetUser("u-3", "manager")
	renewRes := httptest.NewRecorder()
	if err := sm.Commit(ctx, renewRes, loaded); err != nil {
		t.Fatalf("commit renewed session: %v", err)
	}
	cookies := renewRes.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Value != loaded.ID {
		t.Fatalf("expected cookie carrying the renewed session ID")
	}

	stale := httptest.NewRequest(http.MethodGet, "/", nil)
	stale.AddCookie(&http.Cookie{Name: sm.CookieName(), Value: oldID})
	ghost, err := sm.Load(ctx, stale)
	if err != nil {
		t.Fatalf("reload stale session: %v", err)
	}
	if ghost.User() != "" {
		t.Fatalf("expected the old session ID to be anonymous after renew")
	}
}

func TestCSRFVerify(t *testing.T) {
	sm := newSessionManager(t)
	csrf := shared.NewCSRFManager("csrfsecret")
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(ctx, req)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}

	token, err := csrf.EnsureToken(ctx, sess)
	if err != nil {
		t.Fatalf("ensure token: %v", err)
	}
	if token == "" {
		t.Fatalf("expected non-empty token")
	}

	if err := csrf.VerifyToken(ctx, sess, token); err != nil {
		t.Fatalf("verify token: %v", err)
	}
	if err := csrf.VerifyToken(ctx, sess, "bogus"); err == nil {
		t.Fatalf("expected mismatch error")
	}
	if err := csrf.VerifyToken(ctx, sess, ""); err == nil {
		t.Fatalf("expected missing token error")
	}
}
