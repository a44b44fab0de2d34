package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"form-shield/internal/audit"
	"form-shield/internal/auth"
	"form-shield/internal/cache"
	"form-shield/internal/config"
	"form-shield/internal/credentials"
	"form-shield/internal/lists"
	"form-shield/internal/provider"
	"form-shield/internal/ratelimit"
	"form-shield/internal/rbac"
	"form-shield/internal/settings"
	"form-shield/internal/submission"
	"form-shield/internal/validation"
)

const testAPIKey = "public-key"

type stubScreener struct {
	out   validation.Outcome
	got   validation.Request
	calls int
}

func (s *stubScreener) Screen(_ context.Context, req validation.Request) validation.Outcome {
	s.calls++
	s.got = req
	return s.out
}

type env struct {
	h        Handlers
	router   *gin.Engine
	screener *stubScreener
	subs     *submission.Service
	settings *settings.Service
	cache    *cache.Cache
	store    *cache.MemoryStore
	audit    *audit.MemoryRepo
	cipher   *credentials.Cipher
}

func newEnv(t *testing.T, opts RouteOptions) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	m, err := auth.NewManager(config.AuthConfig{
		JWTSecret:       "test-secret",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 24 * time.Hour,
	})
	require.NoError(t, err)

	cipher, err := credentials.NewCipher(bytes.Repeat([]byte{7}, 32))
	require.NoError(t, err)

	e := &env{
		screener: &stubScreener{},
		subs:     submission.NewService(submission.NewMemoryRepo()),
		settings: settings.NewService(settings.NewMemoryRepo(), settings.Defaults()),
		store:    cache.NewMemoryStore(),
		audit:    audit.NewMemoryRepo(),
		cipher:   cipher,
	}
	e.cache = cache.New(e.store)
	e.h = Handlers{
		Auth:        m,
		Screener:    e.screener,
		Submissions: e.subs,
		Lists:       lists.NewService(lists.NewMemoryRepo()),
		Settings:    e.settings,
		Providers:   provider.NewRegistry(cipher, nil),
		Cache:       e.cache,
		Cipher:      cipher,
		Audit:       audit.NewService(e.audit),
	}
	if opts.PublicAPIKey == "" {
		opts.PublicAPIKey = testAPIKey
	}
	e.router = gin.New()
	e.h.Register(e.router, opts)
	return e
}

func (e *env) token(t *testing.T, role string) string {
	t.Helper()
	pair, err := e.h.Auth.IssuePair(time.Now(), "tester", role)
	require.NoError(t, err)
	return pair.AccessToken
}

func (e *env) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.RemoteAddr = "198.51.100.9:1234"
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *env) public(path string, body any) *httptest.ResponseRecorder {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(apiKeyHeader, testAPIKey)
	req.RemoteAddr = "198.51.100.9:1234"
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestValidate_RequiresAPIKey(t *testing.T) {
	e := newEnv(t, RouteOptions{})
	w := e.do(http.MethodPost, "/api/v1/validate", "", gin.H{"data": gin.H{"name": "x"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Zero(t, e.screener.calls)
}

func TestValidate_EmptyData(t *testing.T) {
	e := newEnv(t, RouteOptions{})
	w := e.public("/api/v1/validate", gin.H{"data": gin.H{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, e.screener.calls)
}

func TestValidate_ReturnsVerdictOnly(t *testing.T) {
	e := newEnv(t, RouteOptions{})
	e.screener.out = validation.Outcome{
		Verdict: validation.Verdict{IsSpam: true, SpamScore: 88, Reason: "promotional", Provider: "openai", Model: "gpt-4o-mini"},
		Status:  submission.StatusSpam,
	}

	w := e.public("/api/v1/validate", gin.H{
		"data":    gin.H{"email": "a@example.com", "message": "cheap pills"},
		"form_id": "9",
		"options": gin.H{"check_regional_data": true, "provider": "claude"},
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"is_spam":true,"spam_score":88,"reason":"promotional"}`, w.Body.String())
	assert.Equal(t, "api", e.screener.got.FormType)
	assert.Equal(t, "9", e.screener.got.FormID)
	assert.Equal(t, "198.51.100.9", e.screener.got.IP)
	require.NotNil(t, e.screener.got.Options.CheckRegionalData)
	assert.True(t, *e.screener.got.Options.CheckRegionalData)
	assert.Equal(t, "claude", e.screener.got.Options.ProviderOverride)
}

func TestValidate_RateLimited(t *testing.T) {
	e := newEnv(t, RouteOptions{Limiter: ratelimit.PerMinute(1)})
	body := gin.H{"data": gin.H{"name": "x"}}

	assert.Equal(t, http.StatusOK, e.public("/api/v1/validate", body).Code)
	w := e.public("/api/v1/validate", body)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.JSONEq(t, `{"error":"rate limit exceeded"}`, w.Body.String())
}

func TestIntegrationRoute_UsesScreener(t *testing.T) {
	e := newEnv(t, RouteOptions{})
	e.screener.out = validation.Outcome{Status: submission.StatusSpam, RecordID: 4, BlockMessage: "blocked"}

	w := e.public("/api/v1/integrations/gravityforms", gin.H{
		"form_id": 2,
		"fields":  []gin.H{{"id": 1, "label": "Message", "value": "spam"}},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "gravity_forms", e.screener.got.FormType)
}

func TestLoginAndRefresh(t *testing.T) {
	e := newEnv(t, RouteOptions{})
	hash, err := auth.HashPassword("correct horse")
	require.NoError(t, err)
	e.h.Accounts = auth.Accounts{{Username: "mod", PasswordHash: hash, Role: rbac.RoleModerator}}
	e.router = gin.New()
	e.h.Register(e.router, RouteOptions{PublicAPIKey: testAPIKey})

	w := e.do(http.MethodPost, "/api/v1/admin/auth/login", "", gin.H{"username": "mod", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(http.MethodPost, "/api/v1/admin/auth/login", "", gin.H{"username": "mod", "password": "correct horse"})
	require.Equal(t, http.StatusOK, w.Code)
	var pair auth.TokenPair
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pair))
	require.NotEmpty(t, pair.AccessToken)

	claims, err := e.h.Auth.Verify(pair.AccessToken, auth.TokenTypeAccess, time.Now())
	require.NoError(t, err)
	assert.Equal(t, rbac.RoleModerator, claims.Role)

	w = e.do(http.MethodPost, "/api/v1/admin/auth/refresh", "", gin.H{"refresh_token": pair.AccessToken})
	assert.Equal(t, http.StatusUnauthorized, w.Code, "access token must not refresh")

	w = e.do(http.MethodPost, "/api/v1/admin/auth/refresh", "", gin.H{"refresh_token": pair.RefreshToken})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdmin_RoleGates(t *testing.T) {
	e := newEnv(t, RouteOptions{})
	viewer := e.token(t, rbac.RoleViewer)
	mod := e.token(t, rbac.RoleModerator)
	admin := e.token(t, rbac.RoleAdmin)

	assert.Equal(t, http.StatusUnauthorized, e.do(http.MethodGet, "/api/v1/admin/submissions", "", nil).Code)
	assert.Equal(t, http.StatusOK, e.do(http.MethodGet, "/api/v1/admin/submissions", viewer, nil).Code)
	assert.Equal(t, http.StatusForbidden, e.do(http.MethodPost, "/api/v1/admin/whitelist", viewer, gin.H{"email": "a@b.co"}).Code)
	assert.Equal(t, http.StatusCreated, e.do(http.MethodPost, "/api/v1/admin/whitelist", mod, gin.H{"email": "a@b.co"}).Code)
	assert.Equal(t, http.StatusForbidden, e.do(http.MethodDelete, "/api/v1/admin/cache", mod, nil).Code)
	assert.Equal(t, http.StatusOK, e.do(http.MethodDelete, "/api/v1/admin/cache", admin, nil).Code)
}

func TestListSubmissions_PagesWithTotal(t *testing.T) {
	e := newEnv(t, RouteOptions{})
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := e.subs.Create(ctx, submission.Record{
			FormType: "api",
			Data:     submission.Submission{"n": i},
			Status:   submission.StatusApproved,
		})
		require.NoError(t, err)
	}

	w := e.do(http.MethodGet, "/api/v1/admin/submissions?per_page=2", e.token(t, rbac.RoleViewer), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "3", w.Header().Get("X-Total-Count"))
	var recs []submission.Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &recs))
	assert.Len(t, recs, 2)

	w = e.do(http.MethodGet, "/api/v1/admin/submissions?status=bogus", e.token(t, rbac.RoleViewer), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateSubmissionStatus_AuditedAndNoRescreen(t *testing.T) {
	e := newEnv(t, RouteOptions{})
	rec, err := e.subs.Create(context.Background(), submission.Record{
		FormType:  "api",
		Data:      submission.Submission{"msg": "hi"},
		SpamScore: 72,
		Status:    submission.StatusSpam,
	})
	require.NoError(t, err)

	w := e.do(http.MethodPut, "/api/v1/admin/submissions/1", e.token(t, rbac.RoleModerator), gin.H{"status": "approved"})
	require.Equal(t, http.StatusOK, w.Code)

	got, err := e.subs.Get(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, submission.StatusApproved, got.Status)
	assert.Equal(t, 72.0, got.SpamScore)
	assert.Zero(t, e.screener.calls)

	events := e.audit.Events()
	require.Len(t, events, 1)
	assert.Equal(t, audit.EventStatusChange, events[0].Type)
	assert.Equal(t, "1", events[0].TargetID)
	assert.Equal(t, rbac.RoleModerator, events[0].ActorRole)

	w = e.do(http.MethodPut, "/api/v1/admin/submissions/99", e.token(t, rbac.RoleModerator), gin.H{"status": "approved"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBulkSubmissions(t *testing.T) {
	e := newEnv(t, RouteOptions{})
	for i := 0; i < 2; i++ {
		_, err := e.subs.Create(context.Background(), submission.Record{FormType: "api", Data: submission.Submission{"i": i}})
		require.NoError(t, err)
	}

	w := e.do(http.MethodPost, "/api/v1/admin/submissions/bulk", e.token(t, rbac.RoleModerator), gin.H{"action": "spam", "ids": []int64{1, 2, 7}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"updated":2,"total":3}`, w.Body.String())

	w = e.do(http.MethodPost, "/api/v1/admin/submissions/bulk", e.token(t, rbac.RoleModerator), gin.H{"action": "explode", "ids": []int64{1}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSettings_KeysAreWriteOnly(t *testing.T) {
	e := newEnv(t, RouteOptions{})
	admin := e.token(t, rbac.RoleAdmin)

	w := e.do(http.MethodPut, "/api/v1/admin/settings", admin, gin.H{
		"spam_threshold": 60,
		"providers":      gin.H{"openai": gin.H{"enabled": true, "api_key": "sk-live"}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var shown settings.Settings
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &shown))
	assert.True(t, settings.IsMasked(shown.Providers["openai"].APIKey))
	assert.Equal(t, 60.0, shown.SpamThreshold)

	cur, err := e.settings.Current(context.Background())
	require.NoError(t, err)
	stored := cur.Providers["openai"].APIKey
	assert.NotEqual(t, "sk-live", stored)
	plain, err := e.cipher.Decrypt(stored)
	require.NoError(t, err)
	assert.Equal(t, "sk-live", plain)

	// Echoing the masked value back keeps the stored key.
	w = e.do(http.MethodPut, "/api/v1/admin/settings", admin, gin.H{
		"providers": gin.H{"openai": gin.H{"enabled": true, "api_key": shown.Providers["openai"].APIKey}},
	})
	require.Equal(t, http.StatusOK, w.Code)
	cur, err = e.settings.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, stored, cur.Providers["openai"].APIKey)

	w = e.do(http.MethodGet, "/api/v1/admin/settings", e.token(t, rbac.RoleViewer), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), stored)

	w = e.do(http.MethodPut, "/api/v1/admin/settings", admin, gin.H{"spam_threshold": 150})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListProviders(t *testing.T) {
	e := newEnv(t, RouteOptions{})
	w := e.do(http.MethodGet, "/api/v1/admin/providers", e.token(t, rbac.RoleViewer), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var out []providerInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Len(t, out, 3)
	assert.Equal(t, provider.NameOpenAI, out[0].Name)
	assert.False(t, out[0].Available)
	assert.NotEmpty(t, out[0].Models)

	w = e.do(http.MethodPost, "/api/v1/admin/providers/nope/test", e.token(t, rbac.RoleAdmin), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCache_StatsAndFlush(t *testing.T) {
	e := newEnv(t, RouteOptions{})
	ctx := context.Background()
	e.cache.Set(ctx, "sfs_cache_a", gin.H{"x": 1}, time.Hour)
	e.cache.Set(ctx, "sfs_cache_b", gin.H{"x": 2}, time.Hour)

	w := e.do(http.MethodGet, "/api/v1/admin/cache/stats", e.token(t, rbac.RoleViewer), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var st cacheStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	assert.True(t, st.Enabled)
	assert.Equal(t, 2, st.Entries)

	w = e.do(http.MethodDelete, "/api/v1/admin/cache", e.token(t, rbac.RoleAdmin), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"cleared":2}`, w.Body.String())
	assert.Zero(t, e.store.Len())

	events := e.audit.Events()
	require.Len(t, events, 1)
	assert.Equal(t, audit.EventCacheFlush, events[0].Type)
}

func TestLists_AddAndRemove(t *testing.T) {
	e := newEnv(t, RouteOptions{})
	mod := e.token(t, rbac.RoleModerator)

	w := e.do(http.MethodPost, "/api/v1/admin/blocklist", mod, gin.H{"type": "ip", "value": "203.0.113.7"})
	require.Equal(t, http.StatusCreated, w.Code)
	var entry lists.BlocklistEntry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entry))

	w = e.do(http.MethodPost, "/api/v1/admin/blocklist", mod, gin.H{"type": "ip", "value": "not-an-ip"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(http.MethodGet, "/api/v1/admin/blocklist", mod, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got []lists.BlocklistEntry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 1)

	w = e.do(http.MethodDelete, "/api/v1/admin/blocklist/"+jsonNumber(entry.ID), mod, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = e.do(http.MethodGet, "/api/v1/admin/blocklist", mod, nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Empty(t, got)
}

func jsonNumber(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}
