package handler

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"campusreach/internal/auth"
	"campusreach/internal/engagement"
	"campusreach/internal/records"
	"campusreach/internal/vault"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubBackend struct {
	puts int
}

func (b *stubBackend) Put(context.Context, string, []byte, string) error {
	b.puts++
	return nil
}

func (b *stubBackend) PresignGet(_ context.Context, key string, _ time.Duration, nonce string) (string, error) {
	return fmt.Sprintf("https://blobs.test/screenshots/%s?x-view-id=%s", key, nonce), nil
}

func (b *stubBackend) Ping(context.Context) error { return nil }

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

type testAPI struct {
	t       *testing.T
	router  *gin.Engine
	store   *records.Memory
	blobs   *stubBackend
	tokens  *auth.TokenService
	admin   string
	ambToks map[string]string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	store := records.NewMemory()
	blobs := &stubBackend{}
	tokens := auth.NewTokenService("handler-secret", "campusreach", 8*time.Hour)

	hash, err := auth.HashPassword("admin-pass", bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, store.InsertAdmin(context.Background(), records.Admin{ID: "admin-1", Email: "root@campus.io", Password: hash}))

	svc := engagement.NewService(engagement.Deps{
		Store:    store,
		Blobs:    vault.New(blobs, vault.Options{}),
		Tokens:   tokens,
		HashCost: bcrypt.MinCost,
	})
	h := New(svc, Options{
		Health: HealthInfo{Environment: "test", JWTSecretConfigured: true},
		Probes: map[string]Pinger{
			"records": store,
			"blobs":   pingFunc(func(context.Context) error { return nil }),
		},
	})
	api := &testAPI{
		t:       t,
		router:  NewRouter(RouterConfig{Handler: h, Tokens: tokens}),
		store:   store,
		blobs:   blobs,
		tokens:  tokens,
		ambToks: map[string]string{},
	}

	adminTok, _, err := tokens.Issue(auth.Identity{ID: "admin-1", Email: "root@campus.io", Role: auth.RoleAdmin})
	require.NoError(t, err)
	api.admin = adminTok
	return api
}

func (a *testAPI) ambassadorToken(id string) string {
	if tok, ok := a.ambToks[id]; ok {
		return tok
	}
	tok, _, err := a.tokens.Issue(auth.Identity{ID: id, Email: id + "@uni.edu", Role: auth.RoleAmbassador, Campus: "North"})
	require.NoError(a.t, err)
	a.ambToks[id] = tok
	return tok
}

func (a *testAPI) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestAmbassadorsAccess(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodGet, "/ambassadors", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Unauthorized"}`, rec.Body.String())

	rec = api.do(http.MethodGet, "/ambassadors", api.ambassadorToken("amb-1"), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"Forbidden"}`, rec.Body.String())

	rec = api.do(http.MethodPost, "/ambassadors", api.ambassadorToken("amb-1"), map[string]string{"name": "x"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(http.MethodGet, "/ambassadors", api.admin, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", rec.Body.String())
}

func TestCreateAmbassadorFlow(t *testing.T) {
	api := newTestAPI(t)
	body := map[string]string{"name": "Ana", "email": "ana@uni.edu", "password": "pw", "campus": "North"}

	rec := api.do(http.MethodPost, "/ambassadors", api.admin, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "password")

	rec = api.do(http.MethodPost, "/ambassadors", api.admin, body)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"error":"An ambassador with this email already exists"}`, rec.Body.String())

	rec = api.do(http.MethodPost, "/ambassadors", api.admin, map[string]string{"name": "Bo"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"name, email, password, and campus are required"}`, rec.Body.String())

	rec = api.do(http.MethodGet, "/ambassadors", api.admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")
	list := decode[[]map[string]any](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, "ana@uni.edu", list[0]["email"])

	// The new ambassador can log in and the token works on protected routes.
	rec = api.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "ana@uni.edu", "password": "pw"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	login := decode[struct {
		Token string         `json:"token"`
		User  map[string]any `json:"user"`
	}](t, rec)
	assert.Equal(t, "ambassador", login.User["role"])
	assert.NotContains(t, login.User, "password")

	rec = api.do(http.MethodGet, "/events", login.Token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLoginErrors(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "root@campus.io", "password": "admin-pass", "role": "admin"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"user":{"email":"root@campus.io","role":"admin"}`)

	rec = api.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "root@campus.io", "password": "nope", "role": "admin"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Invalid credentials"}`, rec.Body.String())

	rec = api.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "root@campus.io"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodPost, "/auth/login", "", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Email and password required"}`, rec.Body.String())
}

func TestEventsScopingAndCreator(t *testing.T) {
	api := newTestAPI(t)
	alice := api.ambassadorToken("amb-alice")
	bob := api.ambassadorToken("amb-bob")

	rec := api.do(http.MethodPost, "/events", alice, map[string]any{
		"title": "Intro talk", "campus": "North", "date": "2025-03-01", "totalAudience": "45", "ambassadorIds": []string{"amb-carol"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	evt := decode[records.Event](t, rec)
	assert.Equal(t, []string{"amb-alice", "amb-carol"}, evt.AmbassadorIDs)
	assert.Equal(t, 45, evt.TotalAudience)

	rec = api.do(http.MethodPost, "/events", bob, map[string]any{
		"title": "Workshop", "campus": "South", "date": "2025-03-02", "totalAudience": 10, "ambassadorIds": []string{"amb-bob"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = api.do(http.MethodGet, "/events", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	mine := decode[[]records.Event](t, rec)
	require.Len(t, mine, 1)
	assert.Equal(t, "Intro talk", mine[0].Title)

	rec = api.do(http.MethodGet, "/events", api.admin, nil)
	assert.Len(t, decode[[]records.Event](t, rec), 2)

	rec = api.do(http.MethodGet, "/events", api.ambassadorToken("amb-nobody"), nil)
	assert.Equal(t, "[]", rec.Body.String())

	rec = api.do(http.MethodPost, "/events", alice, map[string]any{"title": "x", "campus": "N", "date": "d", "totalAudience": 3})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Missing required fields"}`, rec.Body.String())

	rec = api.do(http.MethodPost, "/events", alice, map[string]any{"title": "x", "campus": "N", "date": "d", "totalAudience": 3, "ambassadorIds": "amb-x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodGet, "/events", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPublicEvent(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodGet, "/event-public", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"id query param required"}`, rec.Body.String())

	rec = api.do(http.MethodGet, "/event-public?id=missing", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Event not found"}`, rec.Body.String())

	rec = api.do(http.MethodPost, "/events", api.ambassadorToken("amb-1"), map[string]any{
		"title": "Demo", "campus": "North", "date": "2025-03-01", "totalAudience": 9, "ambassadorIds": []string{"amb-1"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	evt := decode[records.Event](t, rec)

	rec = api.do(http.MethodGet, "/event-public?id="+evt.ID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, fmt.Sprintf(`{"id":%q,"title":"Demo","campus":"North","date":"2025-03-01"}`, evt.ID), rec.Body.String())
}

func TestSubmissionsFlow(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodPost, "/submissions", "", map[string]string{
		"eventId": "unknown-event", "email": "aud@x.com", "campus": "North", "blobPath": "1-abcdef-shot.png", "screenshotName": "shot.png",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = api.do(http.MethodPost, "/submissions", "", map[string]string{"eventId": "e1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Missing required fields"}`, rec.Body.String())

	rec = api.do(http.MethodGet, "/submissions", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(http.MethodGet, "/submissions?eventId=unknown-event", api.ambassadorToken("amb-1"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]records.Submission](t, rec), 1)

	rec = api.do(http.MethodGet, "/submissions?eventId=other", api.admin, nil)
	assert.Equal(t, "[]", rec.Body.String())
}

func TestUploadAndView(t *testing.T) {
	api := newTestAPI(t)

	data := base64.StdEncoding.EncodeToString([]byte("png bytes"))
	rec := api.do(http.MethodPost, "/upload", "", map[string]string{"fileName": "proof.png", "fileData": data, "mimeType": "image/png"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	up := decode[map[string]string](t, rec)
	assert.True(t, strings.HasSuffix(up["blobPath"], "-proof.png"))
	assert.Equal(t, up["blobPath"], up["fileName"])
	assert.NotEmpty(t, up["sasUrl"])

	rec = api.do(http.MethodPost, "/upload", "", map[string]string{"fileName": "proof.png"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"fileName and fileData (base64) required"}`, rec.Body.String())

	rec = api.do(http.MethodGet, "/view-screenshot?blobPath="+up["blobPath"], "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	tok := api.ambassadorToken("amb-1")
	rec = api.do(http.MethodGet, "/view-screenshot", tok, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"blobPath query param required"}`, rec.Body.String())

	first := api.do(http.MethodGet, "/view-screenshot?blobPath="+up["blobPath"], tok, nil)
	second := api.do(http.MethodGet, "/view-screenshot?blobPath="+up["blobPath"], api.admin, nil)
	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, http.StatusOK, second.Code)
	a, b := decode[map[string]string](t, first)["sasUrl"], decode[map[string]string](t, second)["sasUrl"]
	assert.NotEqual(t, a, b)
	assert.Contains(t, a, up["blobPath"])
	assert.Contains(t, b, up["blobPath"])
}

func TestUploadSizeLimit(t *testing.T) {
	api := newTestAPI(t)

	exact := base64.StdEncoding.EncodeToString(make([]byte, vault.DefaultMaxBytes))
	rec := api.do(http.MethodPost, "/upload", "", map[string]string{"fileName": "big.png", "fileData": exact})
	require.Equal(t, http.StatusOK, rec.Code)

	// MIME-style 76 column wrapping with CRLF still decodes to exactly the limit.
	wrapped := wrapLines(exact, 76, "\r\n")
	rec = api.do(http.MethodPost, "/upload", "", map[string]string{"fileName": "wrapped.png", "fileData": wrapped})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// PEM-style 64 column wrapping is the densest the body cap allows for.
	rec = api.do(http.MethodPost, "/upload", "", map[string]string{"fileName": "pem.png", "fileData": wrapLines(exact, 64, "\r\n")})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	over := base64.StdEncoding.EncodeToString(make([]byte, vault.DefaultMaxBytes+1))
	rec = api.do(http.MethodPost, "/upload", "", map[string]string{"fileName": "big.png", "fileData": over})
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.JSONEq(t, `{"error":"File too large. Max 10MB."}`, rec.Body.String())

	huge := strings.Repeat("A", int(UploadBodyLimit(vault.DefaultMaxBytes)))
	rec = api.do(http.MethodPost, "/upload", "", `{"fileName":"x.png","fileData":"`+huge+`"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	rec = api.do(http.MethodPost, "/upload", "", map[string]string{"fileName": "big.png", "fileData": wrapLines(over, 76, "\r\n")})
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	assert.Equal(t, 3, api.blobs.puts)
}

func wrapLines(s string, width int, sep string) string {
	var b strings.Builder
	for len(s) > width {
		b.WriteString(s[:width])
		b.WriteString(sep)
		s = s[width:]
	}
	b.WriteString(s)
	return b.String()
}

func TestLeaderboardRoute(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodGet, "/leaderboard", api.ambassadorToken("amb-1"), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(http.MethodGet, "/leaderboard", api.admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", rec.Body.String())
}

func TestMethodNotAllowed(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodDelete, "/events", api.admin, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.JSONEq(t, `{"error":"Method not allowed"}`, rec.Body.String())

	rec = api.do(http.MethodPut, "/upload", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "test", body["environment"])
	assert.Equal(t, true, body["jwtSecretConfigured"])
	assert.Equal(t, false, body["blobConfigured"])

	rec = api.do(http.MethodGet, "/health/stores", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stores := decode[storesResponse](t, rec)
	assert.True(t, stores.Connected)
	assert.Equal(t, "ok", stores.Stores["records"].Status)
}

func TestHealthStoresFailure(t *testing.T) {
	h := New(nil, Options{Probes: map[string]Pinger{
		"records": pingFunc(func(context.Context) error { return nil }),
		"blobs":   pingFunc(func(context.Context) error { return errors.New("bucket missing") }),
	}})
	r := NewRouter(RouterConfig{Handler: h, Tokens: auth.NewTokenService("s", "i", time.Hour)})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/stores", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body storesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Connected)
	assert.Equal(t, storeStatus{Status: "error", Message: "bucket missing"}, body.Stores["blobs"])
	assert.Equal(t, "ok", body.Stores["records"].Status)
}

func TestBasePath(t *testing.T) {
	h := New(nil, Options{})
	r := NewRouter(RouterConfig{Handler: h, Tokens: auth.NewTokenService("s", "i", time.Hour), BasePath: "/api"})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
