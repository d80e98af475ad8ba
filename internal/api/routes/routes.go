package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/bettercallrobots/voicebridge/internal/api/handlers"
)

type Deps struct {
	Voice     *handlers.VoiceHandler
	Knowledge *handlers.KnowledgeHandler
	Relay     *handlers.RelayHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "healthy", "service": "voicebridge"})
	})

	r.POST("/twiml", d.Voice.TwiML)
	r.GET("/voice/token", d.Voice.Token)

	kb := r.Group("/knowledge")
	kb.POST("/documents", d.Knowledge.Add)
	kb.GET("/search", d.Knowledge.Search)
	kb.GET("/stats", d.Knowledge.Stats)

	// WebSocket the telephony relay dials back into
	r.GET("/ws", d.Relay.Relay)
}
