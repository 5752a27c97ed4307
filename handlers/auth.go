package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"

	"github.com/schoolfinder/schoolfinder/internal/config"
	"github.com/schoolfinder/schoolfinder/internal/sessions"
	"github.com/schoolfinder/schoolfinder/internal/tokens"
	"github.com/schoolfinder/schoolfinder/internal/users"
	"github.com/schoolfinder/schoolfinder/pkg/logger"
	"github.com/schoolfinder/schoolfinder/pkg/middleware"
)

// Login modes.
const (
	ModeIDToken  = "id_token"
	ModePassword = "password"
	ModeAuthCode = "auth_code"
)

// LoginRequest carries either an id_token obtained by the client, or the
// credentials for a password (dev/testing) or authorization-code exchange.
type LoginRequest struct {
	Mode        string `json:"mode"`
	IDToken     string `json:"id_token"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	Code        string `json:"code"`
	RedirectURI string `json:"redirect_uri"`
}

// AuthHandler holds dependencies
type AuthHandler struct {
	keycloak config.KeycloakConfig
	idp      middleware.Verifier
	users    *users.Service
	sessions *sessions.Service
	tokens   *tokens.Manager
}

func NewAuthHandler(kc config.KeycloakConfig, idp middleware.Verifier, u *users.Service, s *sessions.Service, tm *tokens.Manager) *AuthHandler {
	return &AuthHandler{keycloak: kc, idp: idp, users: u, sessions: s, tokens: tm}
}

// Register mounts /auth and the profile endpoint.
func (h *AuthHandler) Register(r *gin.Engine) {
	a := r.Group("/auth")
	a.POST("/login", h.Login)
	a.POST("/refresh", h.Refresh)
	a.POST("/logout", h.Logout)
	r.GET("/api/v1/me", middleware.AuthMiddleware(h.tokens), h.Me)
}

// Login verifies an identity token, upserts the parent account and starts a session.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Mode == "" {
		req.Mode = ModeIDToken
	}
	if h.idp == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "identity provider not configured"})
		return
	}

	idToken := req.IDToken
	switch req.Mode {
	case ModeIDToken:
		if idToken == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "id_token required"})
			return
		}
	case ModePassword, ModeAuthCode:
		if h.keycloak.URL == "" {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Keycloak not configured"})
			return
		}
		var err error
		idToken, err = h.exchange(c.Request.Context(), req)
		if errors.Is(err, errMissingGrantFields) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err != nil {
			logger.Warnf("token exchange (%s): %v", req.Mode, err)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication failed", "details": err.Error()})
			return
		}
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported mode"})
		return
	}

	tok, err := h.idp.Verify(c.Request.Context(), idToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid id token", "details": err.Error()})
		return
	}
	var claims map[string]interface{}
	if err := tok.Claims(&claims); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid id token", "details": err.Error()})
		return
	}
	u, err := h.users.UpsertFromClaims(c.Request.Context(), claims)
	if errors.Is(err, users.ErrMissingSubject) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid id token", "details": err.Error()})
		return
	}
	if err != nil {
		logger.Errorf("user upsert error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user upsert failed"})
		return
	}

	refresh, err := h.sessions.CreateSession(c.Request.Context(), u.Sub)
	if err != nil {
		logger.Errorf("failed to create session: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return
	}
	access, _, err := h.tokens.GenerateAccessToken(u)
	if err != nil {
		logger.Errorf("failed to sign access token: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create access token"})
		return
	}
	logger.Infow("login", "sub", u.Sub, "mode", req.Mode)
	c.JSON(http.StatusOK, gin.H{
		"accessToken":  access,
		"refreshToken": refresh,
		"expiresIn":    int(h.tokens.TTL().Seconds()),
		"user":         u,
	})
}

// Refresh rotates a refresh token and issues a new access token.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sess, next, err := h.sessions.Rotate(c.Request.Context(), req.RefreshToken)
	if errors.Is(err, sessions.ErrNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}
	if err != nil {
		logger.Errorf("rotate refresh token: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "validation failed"})
		return
	}
	u, err := h.users.GetBySub(c.Request.Context(), sess.Sub)
	if err != nil {
		logger.Errorf("user lookup %s: %v", sess.Sub, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user lookup failed"})
		return
	}
	access, _, err := h.tokens.GenerateAccessToken(u)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create access token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"accessToken":  access,
		"refreshToken": next,
		"expiresIn":    int(h.tokens.TTL().Seconds()),
	})
}

// Logout deletes the refresh session and blacklists the presented access token
// until it would have expired.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
		All          bool   `json:"all"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var sub string
	if req.All {
		sess, err := h.sessions.ValidateRefresh(c.Request.Context(), req.RefreshToken)
		if errors.Is(err, sessions.ErrNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
			return
		}
		if err != nil {
			logger.Errorf("validate refresh: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove session"})
			return
		}
		sub = sess.Sub
	}
	if at, ok := middleware.BearerToken(c); ok {
		if exp, err := tokens.ExpiresAt(at); err == nil {
			if ttl := time.Until(exp); ttl > 0 {
				if err := sessions.BlacklistAccessToken(c.Request.Context(), at, ttl); err != nil {
					logger.Errorf("blacklist access token: %v", err)
					c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to blacklist access token"})
					return
				}
			}
		}
	}
	if sub != "" {
		n, err := h.sessions.RevokeAll(c.Request.Context(), sub)
		if err != nil {
			logger.Errorf("revoke sessions of %s: %v", sub, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove sessions"})
			return
		}
		logger.Infow("revoked sessions", "sub", sub, "count", n)
		c.JSON(http.StatusOK, gin.H{"message": "logged out", "revoked": n})
		return
	}
	if err := h.sessions.DeleteRefresh(c.Request.Context(), req.RefreshToken); err != nil {
		logger.Errorf("delete session: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Me returns the authenticated parent's account.
func (h *AuthHandler) Me(c *gin.Context) {
	u, err := h.users.GetBySub(c.Request.Context(), middleware.Subject(c))
	if errors.Is(err, users.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if err != nil {
		logger.Errorf("user lookup: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user lookup failed"})
		return
	}
	c.JSON(http.StatusOK, u)
}

var errMissingGrantFields = errors.New("username and password, or code and redirect_uri, are required")

// exchange runs a password or authorization-code grant against the realm and
// returns the id_token of the response.
func (h *AuthHandler) exchange(ctx context.Context, req LoginRequest) (string, error) {
	conf := &oauth2.Config{
		ClientID:     h.keycloak.ClientID,
		ClientSecret: h.keycloak.ClientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: h.keycloak.TokenURL()},
		Scopes:       []string{"openid", "email", "profile"},
	}

	var (
		tok *oauth2.Token
		err error
	)
	switch req.Mode {
	case ModePassword:
		if req.Username == "" || req.Password == "" {
			return "", errMissingGrantFields
		}
		tok, err = conf.PasswordCredentialsToken(ctx, req.Username, req.Password)
	default:
		if req.Code == "" || req.RedirectURI == "" {
			return "", errMissingGrantFields
		}
		logger.Debugf("auth_code exchange: code length=%d redirect_uri=%s", len(req.Code), req.RedirectURI)
		conf.RedirectURL = req.RedirectURI
		tok, err = conf.Exchange(ctx, req.Code)
	}
	if err != nil {
		return "", err
	}
	idToken, _ := tok.Extra("id_token").(string)
	if idToken == "" {
		return "", errors.New("token response has no id_token")
	}
	return idToken, nil
}
