package handlers

import (
	"log/slog"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const sessionKey = "sid"

// SessionRequired gives every browser a stable editing session id, kept in
// the signed session cookie.
func SessionRequired(c *gin.Context) {
	session := sessions.Default(c)
	sid, _ := session.Get(sessionKey).(string)
	if sid == "" {
		sid = uuid.NewString()
		session.Set(sessionKey, sid)
		if err := session.Save(); err != nil {
			slog.Error("failed to save session cookie", "error", err)
		}
	}
	c.Set(sessionKey, sid)
	c.Next()
}

func sessionID(c *gin.Context) string {
	return c.GetString(sessionKey)
}
