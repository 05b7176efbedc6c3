package handlers

import (
	"html/template"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

// RouterOptions configures the session cookie and page templates.
type RouterOptions struct {
	SessionSecret string
	SessionTTL    time.Duration
	Secure        bool
	Templates     *template.Template
}

func SetupRouter(h *Handler, opts RouterOptions) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Recovery(), RequestLogging)

	// Session Setup
	store := cookie.NewStore([]byte(opts.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(opts.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions("solinntec_session", store))

	if opts.Templates != nil {
		r.SetHTMLTemplate(opts.Templates)
	}

	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"message": "Method Not Allowed"})
	})
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Not Found"})
	})

	r.GET("/healthz", h.Healthz)

	editing := r.Group("/")
	editing.Use(SessionRequired)
	{
		editing.GET("/", h.Index)

		api := editing.Group("/api")
		{
			api.POST("/save", h.HandleSave)
			api.POST("/edit-mode", h.ToggleEditMode)
			api.GET("/content", h.GetContent)
			api.GET("/content/value", h.GetValue)
			api.GET("/content/changes", h.ListChanges)
			api.POST("/content/edit", h.EditContent)
			api.POST("/content/save", h.SaveSession)
			api.POST("/content/discard", h.DiscardSession)
		}
	}

	return r
}
