package api

import (
	"fmt"
	"html"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lysyi3m/newsdesk/app/auth"
)

// GetUser returns the logged-in identity, or a null e-mail for anonymous
// callers so the frontend can test a single field.
func (h *Handler) GetUser(c *gin.Context) {
	identity := auth.CurrentUser(c)
	if identity == nil {
		c.JSON(http.StatusOK, gin.H{"email": nil})
		return
	}
	c.JSON(http.StatusOK, identity)
}

func (h *Handler) Login(c *gin.Context) {
	state := uuid.NewString()
	nonce := uuid.NewString()

	loginURL, err := h.authenticator.AuthCodeURL(c.Request.Context(), state, nonce)
	if err != nil {
		slog.Error("Login unavailable", "provider", h.settings.ProviderName, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Login failed", "details": err.Error()})
		return
	}

	if oldID, _ := auth.CurrentSession(c); oldID != "" {
		if err := h.sessions.Delete(oldID); err != nil {
			slog.Warn("Failed to drop previous session", "error", err)
		}
	}

	id, err := h.sessions.Create(auth.Session{State: state, Nonce: nonce})
	if err != nil {
		respondError(c, err)
		return
	}

	auth.SetSessionCookie(c, id, h.settings.SessionTTL, h.settings.SecureCookies)
	c.Redirect(http.StatusFound, loginURL)
}

// Authorize completes the login started by Login.
func (h *Handler) Authorize(c *gin.Context) {
	if providerErr := c.Query("error"); providerErr != "" {
		slog.Warn("Identity provider rejected login", "error", providerErr, "description", c.Query("error_description"))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Login failed", "details": providerErr})
		return
	}

	id, session := auth.CurrentSession(c)
	if session == nil || session.State == "" || session.State != c.Query("state") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": "login state mismatch"})
		return
	}

	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": "missing authorization code"})
		return
	}

	identity, err := h.authenticator.Exchange(c.Request.Context(), code, session.Nonce)
	if err != nil {
		slog.Error("Login failed", "provider", h.settings.ProviderName, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Login failed", "details": err.Error()})
		return
	}

	session.Identity = identity
	session.State = ""
	session.Nonce = ""
	if err := h.sessions.Save(id, *session); err != nil {
		respondError(c, err)
		return
	}

	auth.SetSessionCookie(c, id, h.settings.SessionTTL, h.settings.SecureCookies)
	c.Redirect(http.StatusFound, h.settings.FrontendURL)
}

func (h *Handler) Logout(c *gin.Context) {
	if id, _ := auth.CurrentSession(c); id != "" {
		if err := h.sessions.Delete(id); err != nil {
			slog.Warn("Failed to delete session", "error", err)
		}
	}

	auth.ClearSessionCookie(c, h.settings.SecureCookies)
	c.Redirect(http.StatusFound, h.settings.FrontendURL)
}

// Index renders a minimal login status page.
func (h *Handler) Index(c *gin.Context) {
	var body string
	if identity := auth.CurrentUser(c); identity != nil {
		body = fmt.Sprintf(`<p>Logged in as %s</p><a href="/logout">Logout</a>`, html.EscapeString(identity.DisplayName()))
	} else {
		body = fmt.Sprintf(`<a href="/login">Login with %s</a>`, html.EscapeString(h.settings.ProviderName))
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(body))
}
