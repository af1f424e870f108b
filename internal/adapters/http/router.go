// Package http wires the REST discovery surface, the static SPA and
// the websocket upgrade endpoint onto one gin engine.
package http

import (
	"context"
	"net/http"
	"path/filepath"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"voicerelay/internal/adapters/ws"
	"voicerelay/internal/app"
	"voicerelay/internal/config"
	"voicerelay/internal/domain"
)

func SetupRouter(ctx context.Context, cfg *config.Config, coord *app.Coordinator, wsCtl *ws.Controller) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("VoiceRelaySession", store))

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(filepath.Join(cfg.StaticPath, "index.html"))
	})
	// SPA fallback: unknown routes get index.html so the client router
	// can take over.
	r.NoRoute(func(c *gin.Context) {
		c.File(filepath.Join(cfg.StaticPath, "index.html"))
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	api := r.Group("/api")

	api.GET("/rooms", func(c *gin.Context) {
		rooms, err := coord.ListRooms(c.Request.Context())
		if err != nil {
			log.Error().Err(err).Str("module", "adapters.http").Msg("list rooms")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list rooms"})
			return
		}
		c.JSON(http.StatusOK, rooms)
	})

	api.GET("/ice-servers", func(c *gin.Context) {
		c.JSON(http.StatusOK, []webrtc.ICEServer{{URLs: cfg.STUNURLs}})
	})

	// Username prefill across page reloads. Identity itself stays per
	// connection; this is display-name convenience only.
	api.GET("/profile", func(c *gin.Context) {
		sess := sessions.Default(c)
		username, _ := sess.Get("username").(string)
		c.JSON(http.StatusOK, gin.H{"username": username})
	})

	api.POST("/profile", func(c *gin.Context) {
		var body struct {
			Username string `json:"username"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "cannot parse json"})
			return
		}
		if err := domain.ValidateUsername(body.Username); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		sess := sessions.Default(c)
		sess.Set("username", body.Username)
		if err := sess.Save(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not save profile"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"username": body.Username})
	})

	api.GET("/ws", func(c *gin.Context) {
		wsCtl.Handle(ctx, c)
	})

	return r
}
