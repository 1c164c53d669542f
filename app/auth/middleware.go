package auth

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	SessionCookie = "newsdesk_session"

	identityCtxKey  = "newsdesk_identity"
	sessionIDCtxKey = "newsdesk_session_id"
	sessionCtxKey   = "newsdesk_session"
)

// SessionMiddleware resolves the session cookie and exposes the session and
// its identity through CurrentSession and CurrentUser. Requests without a
// live session proceed anonymously.
func SessionMiddleware(store *SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(SessionCookie)
		if err != nil || id == "" {
			c.Next()
			return
		}

		session, err := store.Get(id)
		if err != nil {
			slog.Error("Session lookup failed", "error", err)
			c.Next()
			return
		}

		if session != nil {
			c.Set(sessionIDCtxKey, id)
			c.Set(sessionCtxKey, session)
			if session.Identity != nil {
				SetIdentity(c, session.Identity)
			}
		}

		c.Next()
	}
}

func SetIdentity(c *gin.Context, identity *Identity) {
	c.Set(identityCtxKey, identity)
}

// CurrentUser returns the identity of the request, or nil when anonymous.
func CurrentUser(c *gin.Context) *Identity {
	value, ok := c.Get(identityCtxKey)
	if !ok {
		return nil
	}
	identity, _ := value.(*Identity)
	return identity
}

// CurrentSession returns the session loaded for the request, if any.
func CurrentSession(c *gin.Context) (string, *Session) {
	value, ok := c.Get(sessionCtxKey)
	if !ok {
		return "", nil
	}
	session, _ := value.(*Session)
	return c.GetString(sessionIDCtxKey), session
}

func SetSessionCookie(c *gin.Context, id string, ttl time.Duration, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, id, int(ttl.Seconds()), "/", "", secure, true)
}

func ClearSessionCookie(c *gin.Context, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, "", -1, "/", "", secure, true)
}
