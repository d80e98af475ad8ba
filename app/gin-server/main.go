package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"

	"github.com/bettercallrobots/voicebridge/config"
	"github.com/bettercallrobots/voicebridge/internal/api/handlers"
	"github.com/bettercallrobots/voicebridge/internal/api/middleware"
	"github.com/bettercallrobots/voicebridge/internal/api/routes"
	"github.com/bettercallrobots/voicebridge/internal/cache"
	"github.com/bettercallrobots/voicebridge/internal/knowledge"
	"github.com/bettercallrobots/voicebridge/internal/logger"
	"github.com/bettercallrobots/voicebridge/internal/providers/llm"
	"github.com/bettercallrobots/voicebridge/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	l := logger.New()
	ctx := context.Background()

	completer, err := llm.NewVertexGemini(ctx, llm.VertexGeminiConfig{
		ProjectID:       cfg.GoogleProject,
		Location:        cfg.GoogleLocation,
		ModelName:       cfg.GeminiModel,
		SystemPrompt:    cfg.SystemPrompt,
		MaxOutputTokens: int32(cfg.MaxOutputTokens),
		Mode:            llm.Mode(cfg.LLMMode),
	})
	if err != nil {
		log.Fatalf("vertex init error: %v", err)
	}
	defer completer.Close()

	calls := services.NewCallService(completer, cfg.SystemPrompt, cfg.LLMTimeout, l)

	enc, err := knowledge.NewCL100KEncoding()
	if err != nil {
		log.Fatalf("tokenizer init error: %v", err)
	}
	chunker := knowledge.NewChunker(enc, knowledge.DefaultMaxChunkTokens, knowledge.DefaultChunkOverlap)

	var pages cache.PageCache
	if cfg.RedisAddr != "" {
		rdb, err := config.NewRedisClient(cfg.RedisAddr)
		if err != nil {
			log.Fatalf("redis init error: %v", err)
		}
		pages = cache.NewRedisPageCache(rdb)
		l.Info("page cache enabled")
	}

	processor := knowledge.NewProcessor(chunker, enc, pages, l)
	retriever := knowledge.NewRetriever()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(l))

	routes.RegisterRoutes(r, routes.Deps{
		Voice:     handlers.NewVoiceHandler(cfg),
		Knowledge: handlers.NewKnowledgeHandler(processor, retriever),
		Relay:     handlers.NewRelayHandler(calls, l),
	})

	l.WithField("port", cfg.Port).WithField("ws_url", cfg.WSURL).Info("starting server")
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
