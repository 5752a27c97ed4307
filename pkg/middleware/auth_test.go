package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/schoolfinder/schoolfinder/internal/sessions"
)

// fakeToken implements Token
type fakeToken struct {
	data map[string]interface{}
}

func (t *fakeToken) Claims(v interface{}) error {
	if mm, ok := v.(*map[string]interface{}); ok {
		*mm = t.data
		return nil
	}
	return fmt.Errorf("unsupported claims type")
}

// fakeVerifier implements Verifier
type fakeVerifier struct{}

func (f *fakeVerifier) Verify(ctx context.Context, raw string) (Token, error) {
	switch raw {
	case "goodtoken", "black-token":
		return &fakeToken{data: map[string]interface{}{"sub": "parent-1", "email": "parent@example.com"}}, nil
	case "anonymous":
		return &fakeToken{data: map[string]interface{}{"email": "nobody@example.com"}}, nil
	}
	return nil, fmt.Errorf("invalid token")
}

func serveAuth(t *testing.T, header string) *httptest.ResponseRecorder {
	t.Helper()
	g := gin.New()
	g.GET("/", AuthMiddleware(&fakeVerifier{}), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"sub": Subject(c), "claims": Claims(c)})
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rw := httptest.NewRecorder()
	g.ServeHTTP(rw, req)
	return rw
}

func TestAuthMiddleware_NoHeader(t *testing.T) {
	require.Equal(t, http.StatusUnauthorized, serveAuth(t, "").Code)
}

func TestAuthMiddleware_InvalidHeader(t *testing.T) {
	require.Equal(t, http.StatusUnauthorized, serveAuth(t, "BadHeader").Code)
	require.Equal(t, http.StatusUnauthorized, serveAuth(t, "Bearer   ").Code)
	require.Equal(t, http.StatusUnauthorized, serveAuth(t, "Bearer nope").Code)
}

func TestAuthMiddleware_RequiresSubject(t *testing.T) {
	require.Equal(t, http.StatusUnauthorized, serveAuth(t, "Bearer anonymous").Code)
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	rw := serveAuth(t, "Bearer goodtoken")
	require.Equal(t, http.StatusOK, rw.Code)

	var got struct {
		Sub    string                 `json:"sub"`
		Claims map[string]interface{} `json:"claims"`
	}
	require.NoError(t, json.Unmarshal(rw.Body.Bytes(), &got))
	require.Equal(t, "parent-1", got.Sub)
	require.Equal(t, "parent@example.com", got.Claims["email"])
}

func TestAuthMiddleware_RejectsBlacklistedToken(t *testing.T) {
	m := mr.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	sessions.SetBlacklistClient(client)
	t.Cleanup(func() { sessions.SetBlacklistClient(nil) })

	token := "black-token"
	require.NoError(t, sessions.BlacklistAccessToken(context.Background(), token, 5*time.Second))

	require.Equal(t, http.StatusUnauthorized, serveAuth(t, "Bearer "+token).Code)
	require.Equal(t, http.StatusOK, serveAuth(t, "Bearer goodtoken").Code)

	m.FastForward(6 * time.Second)
	require.Equal(t, http.StatusOK, serveAuth(t, "Bearer "+token).Code, "blacklist entry expires with the token")
}

func TestAuthMiddleware_BlacklistUnavailable(t *testing.T) {
	m := mr.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	sessions.SetBlacklistClient(client)
	t.Cleanup(func() { sessions.SetBlacklistClient(nil) })
	m.Close()

	require.Equal(t, http.StatusServiceUnavailable, serveAuth(t, "Bearer goodtoken").Code)
}

func TestSubject_PublicRoute(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	require.Equal(t, "", Subject(c))
	require.Nil(t, Claims(c))

	c.Set("claims", map[string]interface{}{"sub": "user-123"})
	require.Equal(t, "user-123", Subject(c))
}
