package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trolley/pkg/domain"
)

var tokenKey = []byte("carttoken-test-key")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMintAndParseCartToken(t *testing.T) {
	id := domain.NewCartID()
	token, err := MintCartToken(tokenKey, id, time.Now())
	require.NoError(t, err)

	parsed, err := ParseCartToken(tokenKey, token)
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestParseCartToken_Rejections(t *testing.T) {
	id := domain.NewCartID()

	t.Run("wrong key", func(t *testing.T) {
		token, err := MintCartToken([]byte("other-key"), id, time.Now())
		require.NoError(t, err)
		_, err = ParseCartToken(tokenKey, token)
		assert.Error(t, err)
	})

	t.Run("expired token", func(t *testing.T) {
		token, err := MintCartToken(tokenKey, id, time.Now().Add(-60*24*time.Hour))
		require.NoError(t, err)
		_, err = ParseCartToken(tokenKey, token)
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := ParseCartToken(tokenKey, "not.a.token")
		assert.Error(t, err)
	})
}

func TestCartTokenMiddleware(t *testing.T) {
	var seen domain.CartID
	handler := CartToken(tokenKey, discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetCartID(r.Context())
	}))

	t.Run("no token mints a fresh cart and returns the token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cart", nil))

		assert.False(t, seen.IsNil())
		token := rec.Header().Get("X-Cart-Token")
		require.NotEmpty(t, token)

		parsed, err := ParseCartToken(tokenKey, token)
		require.NoError(t, err)
		assert.Equal(t, seen, parsed)

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, "trolley_cart", cookies[0].Name)
		assert.True(t, cookies[0].HttpOnly)
	})

	t.Run("valid header token keeps its cart", func(t *testing.T) {
		id := domain.NewCartID()
		token, err := MintCartToken(tokenKey, id, time.Now())
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/cart", nil)
		req.Header.Set("X-Cart-Token", token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, id, seen)
		assert.Empty(t, rec.Header().Get("X-Cart-Token"))
	})

	t.Run("valid cookie token keeps its cart", func(t *testing.T) {
		id := domain.NewCartID()
		token, err := MintCartToken(tokenKey, id, time.Now())
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/cart", nil)
		req.AddCookie(&http.Cookie{Name: "trolley_cart", Value: token})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, id, seen)
	})

	t.Run("tampered token falls through to a fresh cart", func(t *testing.T) {
		id := domain.NewCartID()
		token, err := MintCartToken(tokenKey, id, time.Now())
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/cart", nil)
		req.Header.Set("X-Cart-Token", token+"x")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.NotEqual(t, id, seen)
		assert.NotEmpty(t, rec.Header().Get("X-Cart-Token"))
	})
}

func TestDeviceDetection(t *testing.T) {
	var seen Channel
	handler := DeviceDetection(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetChannel(r.Context())
	}))

	tests := []struct {
		name string
		ua   string
		want Channel
	}{
		{"desktop browser", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36", ChannelDesktop},
		{"mobile browser", "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1", ChannelMobile},
		{"crawler", "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)", ChannelBot},
		{"no user agent", "", ChannelUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/cart", nil)
			if tt.ua != "" {
				req.Header.Set("User-Agent", tt.ua)
			}
			handler.ServeHTTP(httptest.NewRecorder(), req)
			assert.Equal(t, tt.want, seen)
		})
	}
}
