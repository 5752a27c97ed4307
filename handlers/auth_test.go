package handlers

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoolfinder/schoolfinder/internal/config"
	"github.com/schoolfinder/schoolfinder/internal/oidc"
	"github.com/schoolfinder/schoolfinder/internal/sessions"
	"github.com/schoolfinder/schoolfinder/internal/tokens"
	"github.com/schoolfinder/schoolfinder/internal/users"
)

func idToken(t *testing.T, claims map[string]interface{}) string {
	t.Helper()
	b, err := json.Marshal(claims)
	require.NoError(t, err)
	return "hdr." + base64.RawURLEncoding.EncodeToString(b) + ".sig"
}

type authFixture struct {
	engine *gin.Engine
	users  *users.Service
}

func newAuthFixture(t *testing.T, kc config.KeycloakConfig) *authFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	tm, err := tokens.NewManager(config.JWTConfig{Secret: "testsecret123456789012345678901234", Issuer: "schoolfinder", AccessTokenTTL: 15 * time.Minute})
	require.NoError(t, err)
	u := users.NewService(users.NewMemoryUserRepository())
	s := sessions.NewService(sessions.NewMemoryRepository(), time.Hour)

	r := gin.New()
	NewAuthHandler(kc, oidc.NewInsecureVerifier(), u, s, tm).Register(r)
	return &authFixture{engine: r, users: u}
}

type loginResponse struct {
	AccessToken  string     `json:"accessToken"`
	RefreshToken string     `json:"refreshToken"`
	ExpiresIn    int        `json:"expiresIn"`
	User         users.User `json:"user"`
}

func (f *authFixture) post(t *testing.T, path string, body interface{}, bearer string) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func (f *authFixture) me(t *testing.T, bearer string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.Header.Set("Authorization", "Bearer "+bearer)
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func decodeLogin(t *testing.T, w *httptest.ResponseRecorder) loginResponse {
	t.Helper()
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out loginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestLoginWithIDToken(t *testing.T) {
	f := newAuthFixture(t, config.KeycloakConfig{})
	tok := idToken(t, map[string]interface{}{"sub": "parent-1", "email": "Asha@Example.com", "given_name": "Asha", "family_name": "Rao"})

	got := decodeLogin(t, f.post(t, "/auth/login", LoginRequest{IDToken: tok}, ""))
	assert.NotEmpty(t, got.AccessToken)
	assert.NotEmpty(t, got.RefreshToken)
	assert.Equal(t, 900, got.ExpiresIn)
	assert.Equal(t, "parent-1", got.User.Sub)
	assert.Equal(t, "asha@example.com", got.User.Email)
	assert.Equal(t, "Asha Rao", got.User.Name)

	w := f.me(t, got.AccessToken)
	require.Equal(t, http.StatusOK, w.Code)
	var me users.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	assert.Equal(t, "parent-1", me.Sub)
}

func TestLoginRejects(t *testing.T) {
	f := newAuthFixture(t, config.KeycloakConfig{})

	assert.Equal(t, http.StatusBadRequest, f.post(t, "/auth/login", LoginRequest{}, "").Code)
	assert.Equal(t, http.StatusBadRequest, f.post(t, "/auth/login", LoginRequest{Mode: "magic"}, "").Code)
	assert.Equal(t, http.StatusUnauthorized, f.post(t, "/auth/login", LoginRequest{IDToken: "garbage"}, "").Code)

	noSub := idToken(t, map[string]interface{}{"email": "a@b.c"})
	assert.Equal(t, http.StatusUnauthorized, f.post(t, "/auth/login", LoginRequest{IDToken: noSub}, "").Code)

	expired := idToken(t, map[string]interface{}{"sub": "p", "exp": time.Now().Add(-time.Hour).Unix()})
	assert.Equal(t, http.StatusUnauthorized, f.post(t, "/auth/login", LoginRequest{IDToken: expired}, "").Code)

	// grant modes need a configured realm
	assert.Equal(t, http.StatusInternalServerError, f.post(t, "/auth/login", LoginRequest{Mode: ModePassword, Username: "u", Password: "p"}, "").Code)
}

func tokenServer(t *testing.T, id string, check func(r *http.Request)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if check != nil {
			check(r)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "kc-access",
			"token_type":   "Bearer",
			"expires_in":   300,
			"id_token":     id,
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLoginAuthCodeSuccess(t *testing.T) {
	tok := idToken(t, map[string]interface{}{"sub": "test-sub", "email": "a@b.c", "name": "Alice"})
	var gotGrant, gotCode, gotRedirect, gotPath string
	srv := tokenServer(t, tok, func(r *http.Request) {
		gotPath = r.URL.Path
		gotGrant = r.PostForm.Get("grant_type")
		gotCode = r.PostForm.Get("code")
		gotRedirect = r.PostForm.Get("redirect_uri")
	})

	f := newAuthFixture(t, config.KeycloakConfig{URL: srv.URL, Realm: "realm", ClientID: "cid", ClientSecret: "csecret"})
	got := decodeLogin(t, f.post(t, "/auth/login", LoginRequest{Mode: ModeAuthCode, Code: "abc", RedirectURI: "http://app/cb"}, ""))

	assert.Equal(t, "/realms/realm/protocol/openid-connect/token", gotPath)
	assert.Equal(t, "authorization_code", gotGrant)
	assert.Equal(t, "abc", gotCode)
	assert.Equal(t, "http://app/cb", gotRedirect)
	assert.Equal(t, "test-sub", got.User.Sub)
	assert.Equal(t, "Alice", got.User.Name)
}

func TestLoginPasswordGrant(t *testing.T) {
	tok := idToken(t, map[string]interface{}{"sub": "pw-sub", "preferred_username": "asha"})
	var gotUser string
	srv := tokenServer(t, tok, func(r *http.Request) { gotUser = r.PostForm.Get("username") })

	f := newAuthFixture(t, config.KeycloakConfig{URL: srv.URL, Realm: "realm", ClientID: "cid"})
	assert.Equal(t, http.StatusBadRequest, f.post(t, "/auth/login", LoginRequest{Mode: ModePassword, Username: "asha"}, "").Code)

	got := decodeLogin(t, f.post(t, "/auth/login", LoginRequest{Mode: ModePassword, Username: "asha", Password: "pw"}, ""))
	assert.Equal(t, "asha", gotUser)
	assert.Equal(t, "asha", got.User.Name)
}

func TestLoginTokenEndpointFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Code not valid"}`))
	}))
	t.Cleanup(srv.Close)

	f := newAuthFixture(t, config.KeycloakConfig{URL: srv.URL, Realm: "realm", ClientID: "cid"})
	w := f.post(t, "/auth/login", LoginRequest{Mode: ModeAuthCode, Code: "stale", RedirectURI: "http://app/cb"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRefreshRotates(t *testing.T) {
	f := newAuthFixture(t, config.KeycloakConfig{})
	login := decodeLogin(t, f.post(t, "/auth/login", LoginRequest{IDToken: idToken(t, map[string]interface{}{"sub": "parent-2"})}, ""))

	w := f.post(t, "/auth/refresh", gin.H{"refresh_token": login.RefreshToken}, "")
	next := decodeLogin(t, w)
	assert.NotEmpty(t, next.AccessToken)
	assert.NotEqual(t, login.RefreshToken, next.RefreshToken)

	assert.Equal(t, http.StatusUnauthorized, f.post(t, "/auth/refresh", gin.H{"refresh_token": login.RefreshToken}, "").Code, "old refresh token is spent")
	assert.Equal(t, http.StatusBadRequest, f.post(t, "/auth/refresh", gin.H{}, "").Code)
}

func TestLogoutBlacklistsAccessToken(t *testing.T) {
	m := mr.RunT(t)
	sessions.SetBlacklistClient(redis.NewClient(&redis.Options{Addr: m.Addr()}))
	t.Cleanup(func() { sessions.SetBlacklistClient(nil) })

	f := newAuthFixture(t, config.KeycloakConfig{})
	login := decodeLogin(t, f.post(t, "/auth/login", LoginRequest{IDToken: idToken(t, map[string]interface{}{"sub": "parent-3"})}, ""))
	require.Equal(t, http.StatusOK, f.me(t, login.AccessToken).Code)

	w := f.post(t, "/auth/logout", gin.H{"refresh_token": login.RefreshToken}, login.AccessToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, f.me(t, login.AccessToken).Code)
	assert.Equal(t, http.StatusUnauthorized, f.post(t, "/auth/refresh", gin.H{"refresh_token": login.RefreshToken}, "").Code)
	assert.Len(t, m.Keys(), 1)
}

func TestMeRequiresToken(t *testing.T) {
	f := newAuthFixture(t, config.KeycloakConfig{})
	assert.Equal(t, http.StatusUnauthorized, f.me(t, "not-a-jwt").Code)
}

func TestLogoutAllRevokesEverySession(t *testing.T) {
	f := newAuthFixture(t, config.KeycloakConfig{})
	tok := idToken(t, map[string]interface{}{"sub": "parent-4"})
	phone := decodeLogin(t, f.post(t, "/auth/login", LoginRequest{IDToken: tok}, ""))
	laptop := decodeLogin(t, f.post(t, "/auth/login", LoginRequest{IDToken: tok}, ""))
	other := decodeLogin(t, f.post(t, "/auth/login", LoginRequest{IDToken: idToken(t, map[string]interface{}{"sub": "parent-5"})}, ""))

	w := f.post(t, "/auth/logout", gin.H{"refresh_token": phone.RefreshToken, "all": true}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"message":"logged out","revoked":2}`, w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, f.post(t, "/auth/refresh", gin.H{"refresh_token": laptop.RefreshToken}, "").Code)
	assert.Equal(t, http.StatusOK, f.post(t, "/auth/refresh", gin.H{"refresh_token": other.RefreshToken}, "").Code)

	assert.Equal(t, http.StatusUnauthorized, f.post(t, "/auth/logout", gin.H{"refresh_token": phone.RefreshToken, "all": true}, "").Code)
}
