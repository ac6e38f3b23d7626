// Package http exposes the admin API: live channel state, prompt setup,
// on-demand roster sync and the audit feed.
package http

import (
	"crypto/subtle"
	"errors"
	stdhttp "net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/steward/internal/app/roles"
	"github.com/dkeye/steward/internal/app/roster"
	"github.com/dkeye/steward/internal/domain"
)

type Settings struct {
	Mode  string
	Token string
}

type Deps struct {
	Channels Channels
	Prompts  Prompts
	Roster   Roster
	Feed     stdhttp.Handler
}

type promptSummary struct {
	Kind      domain.PromptKind `json:"kind"`
	ChannelID domain.ChannelID  `json:"channel_id,omitempty"`
	MessageID domain.MessageID  `json:"message_id,omitempty"`
	Options   int               `json:"options"`
}

type setupRequest struct {
	ChannelID string `json:"channel_id" binding:"required"`
}

// BearerAuth accepts "Authorization: Bearer <token>", or a token query
// parameter for websocket clients that cannot set headers. An empty
// configured token locks every protected route.
func BearerAuth(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if got == "" {
			got = c.Query("token")
		}
		if token == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			c.AbortWithStatusJSON(stdhttp.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

func SetupRouter(settings Settings, deps Deps) *gin.Engine {
	switch settings.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	}

	r := gin.New()
	if settings.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	api := r.Group("/api")
	api.GET("/health", func(c *gin.Context) {
		c.JSON(stdhttp.StatusOK, gin.H{"status": "ok"})
	})

	admin := api.Group("", BearerAuth(settings.Token))
	admin.GET("/channels", func(c *gin.Context) {
		c.JSON(stdhttp.StatusOK, deps.Channels.List())
	})
	admin.GET("/prompts", func(c *gin.Context) {
		prompts := deps.Prompts.Prompts()
		out := make([]promptSummary, 0, len(prompts))
		for _, p := range prompts {
			out = append(out, promptSummary{Kind: p.Kind, ChannelID: p.ChannelID, MessageID: p.MessageID, Options: len(p.Options)})
		}
		c.JSON(stdhttp.StatusOK, out)
	})
	admin.POST("/prompts/:kind/setup", func(c *gin.Context) { setupPrompt(c, deps.Prompts) })
	admin.POST("/roster/sync", func(c *gin.Context) { syncRoster(c, deps.Roster) })
	if deps.Feed != nil {
		admin.GET("/ws/feed", gin.WrapH(deps.Feed))
	}

	log.Info().Str("module", "adapters.http").Str("mode", gin.Mode()).Msg("router setup")
	return r
}

func setupPrompt(c *gin.Context, prompts Prompts) {
	kind := domain.PromptKind(c.Param("kind"))
	var req setupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(stdhttp.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	message, err := prompts.SetupKind(c.Request.Context(), kind, domain.ChannelID(req.ChannelID))
	switch {
	case errors.Is(err, roles.ErrUnknownPrompt):
		c.JSON(stdhttp.StatusNotFound, gin.H{"error": err.Error()})
	case err != nil:
		log.Error().Err(err).Str("module", "adapters.http").Str("kind", string(kind)).Msg("prompt setup failed")
		c.JSON(stdhttp.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		c.JSON(stdhttp.StatusOK, gin.H{"kind": kind, "message_id": message})
	}
}

func syncRoster(c *gin.Context, r Roster) {
	report, err := r.Reconcile(c.Request.Context())
	switch {
	case errors.Is(err, roster.ErrCycleInProgress):
		c.JSON(stdhttp.StatusConflict, gin.H{"error": err.Error()})
	case err != nil:
		log.Error().Err(err).Str("module", "adapters.http").Msg("manual roster sync failed")
		c.JSON(stdhttp.StatusBadGateway, gin.H{"error": err.Error(), "report": report})
	default:
		c.JSON(stdhttp.StatusOK, report)
	}
}
