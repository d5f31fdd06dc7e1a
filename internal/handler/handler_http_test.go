package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shortlink/internal/auth"
	"shortlink/internal/domain"
	"shortlink/internal/geo"
	"shortlink/internal/handler"
	"shortlink/internal/service"
	"shortlink/internal/store"
	"shortlink/internal/validation"
)

const baseURL = "http://localhost:8080"

type mapCache struct {
	entries map[string]*domain.Link
}

func (c *mapCache) Get(slug string) (*domain.Link, bool) {
	link, ok := c.entries[slug]
	return link, ok
}

func (c *mapCache) Set(slug string, link *domain.Link) { c.entries[slug] = link }
func (c *mapCache) Del(slug string)                    { delete(c.entries, slug) }

// syncRecorder persists clicks inline so tests observe them without
// waiting on the async pipeline.
type syncRecorder struct {
	store store.Store
}

func (r *syncRecorder) Record(event *domain.ClickEvent) {
	ctx := context.Background()
	if err := r.store.AppendClick(ctx, event); err != nil {
		return
	}
	_ = r.store.RecordAccess(ctx, event.Slug, event.Timestamp)
}

type testServer struct {
	echo     *echo.Echo
	store    *store.MemoryStore
	verifier *auth.JWTVerifier
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	st := store.NewMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	validator := validation.NewURLValidator(2048, false)
	cache := &mapCache{entries: make(map[string]*domain.Link)}
	svc := service.NewLinkService(st, cache, validator, baseURL, 6, 5)
	verifier := auth.NewJWTVerifier("test-secret")

	e := echo.New()
	h := handler.New(svc, &syncRecorder{store: st}, st, logger)
	h.Register(e, verifier, geo.NewHeaderLocator())

	return &testServer{echo: e, store: st, verifier: verifier}
}

func (s *testServer) token(t *testing.T, ownerID string) string {
	t.Helper()
	token, err := s.verifier.Sign(&auth.Identity{OwnerID: ownerID}, time.Hour)
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) shorten(t *testing.T, token, body string) domain.ShortenResponse {
	t.Helper()

	rec := s.do(t, http.MethodPost, "/shorten", token, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp domain.ShortenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestShorten_GeneratedSlug(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, "user-1")

	resp := s.shorten(t, token, `{"originalUrl":"https://example.com/page"}`)
	assert.Len(t, resp.Slug, 6)
	assert.Equal(t, baseURL+"/s/"+resp.Slug, resp.ShortURL)
	assert.Equal(t, "https://example.com/page", resp.OriginalURL)
}

func TestShorten_CustomSlugAndOptions(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, "user-1")

	resp := s.shorten(t, token, `{"originalUrl":"https://example.com","customSlug":"my-link","oneTimeUse":true,"description":"launch post"}`)
	assert.Equal(t, "my-link", resp.Slug)
	assert.True(t, resp.OneTimeUse)
}

func TestShorten_Unauthenticated(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/shorten", "", `{"originalUrl":"https://example.com"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestShorten_BadRequests(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, "user-1")

	tests := []struct {
		name string
		body string
	}{
		{"missing url", `{}`},
		{"malformed url", `{"originalUrl":"not-a-url"}`},
		{"unsafe protocol", `{"originalUrl":"javascript:alert(1)"}`},
		{"bad custom slug", `{"originalUrl":"https://example.com","customSlug":"a b"}`},
		{"invalid json", `{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/shorten", token, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestShorten_SlugConflict(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, "user-1")

	s.shorten(t, token, `{"originalUrl":"https://example.com","customSlug":"taken"}`)

	rec := s.do(t, http.MethodPost, "/shorten", s.token(t, "user-2"),
		`{"originalUrl":"https://other.example.com","customSlug":"taken"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRedirect_Success(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, "user-1")

	resp := s.shorten(t, token, `{"originalUrl":"https://example.com/page"}`)

	rec := s.do(t, http.MethodGet, "/s/"+resp.Slug, "", "")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://example.com/page", rec.Header().Get(echo.HeaderLocation))

	// Recording settled: counter went 0 to 1.
	link, err := s.store.GetLink(context.Background(), resp.Slug)
	require.NoError(t, err)
	assert.Equal(t, int64(1), link.TotalClicks)

	events, err := s.store.ListClicks(context.Background(), resp.Slug)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Direct", events[0].Referrer)
}

func TestRedirect_NotFound(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/s/missing", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRedirect_DeactivatedBeatsExpired(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, "user-1")

	past := time.Now().UTC().Add(-time.Hour).Format(time.RFC3339)
	resp := s.shorten(t, token, `{"originalUrl":"https://example.com","expiresAt":"`+past+`"}`)

	// Expired but still active.
	rec := s.do(t, http.MethodGet, "/s/"+resp.Slug, "", "")
	assert.Equal(t, http.StatusGone, rec.Code)
	assert.Contains(t, rec.Body.String(), "expired")

	deact := s.do(t, http.MethodPost, "/url/"+resp.Slug+"/deactivate", token, "")
	require.Equal(t, http.StatusOK, deact.Code)

	// Deactivation wins over expiry.
	rec = s.do(t, http.MethodGet, "/s/"+resp.Slug, "", "")
	assert.Equal(t, http.StatusGone, rec.Code)
	assert.Contains(t, rec.Body.String(), "deactivated")
}

func TestRedirect_NoClickRecordedOnFailure(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, "user-1")

	resp := s.shorten(t, token, `{"originalUrl":"https://example.com"}`)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/url/"+resp.Slug+"/deactivate", token, "").Code)

	s.do(t, http.MethodGet, "/s/"+resp.Slug, "", "")

	events, err := s.store.ListClicks(context.Background(), resp.Slug)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestListLinks(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, "user-1")

	s.shorten(t, token, `{"originalUrl":"https://example.com/a","customSlug":"link-a"}`)
	s.shorten(t, s.token(t, "user-2"), `{"originalUrl":"https://example.com/b","customSlug":"link-b"}`)

	rec := s.do(t, http.MethodGet, "/user/urls", token, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var links []domain.UserLink
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &links))
	require.Len(t, links, 1)
	assert.Equal(t, "link-a", links[0].Slug)
	assert.True(t, links[0].Active)
	assert.False(t, links[0].Expired)
}

func TestListLinks_EmptyIsArray(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/user/urls", s.token(t, "nobody"), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestAnalytics_Summary(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, "user-1")

	resp := s.shorten(t, token, `{"originalUrl":"https://example.com"}`)

	req := httptest.NewRequest(http.MethodGet, "/s/"+resp.Slug, nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("X-Geo-Country", "US")
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	require.Equal(t, http.StatusFound, rec.Code)

	res := s.do(t, http.MethodGet, "/user/url/"+resp.Slug, token, "")
	require.Equal(t, http.StatusOK, res.Code)

	var summary domain.AnalyticsSummary
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &summary))
	assert.Equal(t, int64(1), summary.TotalClicks)
	assert.Equal(t, map[string]int64{"Chrome": 1}, summary.Browsers)
	assert.Equal(t, map[string]int64{"Windows": 1}, summary.Platforms)
	assert.Equal(t, map[string]int64{"US": 1}, summary.Countries)
}

func TestAnalytics_NonOwnerSeesNotFound(t *testing.T) {
	s := newTestServer(t)

	resp := s.shorten(t, s.token(t, "user-1"), `{"originalUrl":"https://example.com"}`)

	rec := s.do(t, http.MethodGet, "/user/url/"+resp.Slug, s.token(t, "user-2"), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeactivate_NotFoundAndNotOwned(t *testing.T) {
	s := newTestServer(t)

	resp := s.shorten(t, s.token(t, "user-1"), `{"originalUrl":"https://example.com"}`)

	rec := s.do(t, http.MethodPost, "/url/missing/deactivate", s.token(t, "user-1"), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPost, "/url/"+resp.Slug+"/deactivate", s.token(t, "user-2"), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDelete_RemovesLinkAndLog(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, "user-1")

	resp := s.shorten(t, token, `{"originalUrl":"https://example.com"}`)
	s.do(t, http.MethodGet, "/s/"+resp.Slug, "", "")

	rec := s.do(t, http.MethodDelete, "/url/"+resp.Slug, token, "")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/s/"+resp.Slug, "", "").Code)

	events, err := s.store.ListClicks(context.Background(), resp.Slug)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestQRCode(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, "user-1")

	resp := s.shorten(t, token, `{"originalUrl":"https://example.com"}`)

	rec := s.do(t, http.MethodGet, "/url/"+resp.Slug+"/qr", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, rec.Body.Bytes()[:4])
}

func TestQRCode_NonOwnerForbidden(t *testing.T) {
	s := newTestServer(t)

	resp := s.shorten(t, s.token(t, "user-1"), `{"originalUrl":"https://example.com"}`)

	rec := s.do(t, http.MethodGet, "/url/"+resp.Slug+"/qr", s.token(t, "user-2"), "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodGet, "/url/missing/qr", s.token(t, "user-2"), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

type downPinger struct{}

func (downPinger) Ping(context.Context) error {
	return errors.New("connection refused")
}

func TestHealth_StoreUnreachable(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := handler.New(nil, nil, downPinger{}, logger)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	require.NoError(t, h.Health(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
