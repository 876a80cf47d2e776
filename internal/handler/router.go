package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/shanvika-ai/shanvika/client/internal/handler/chat"
	"github.com/shanvika-ai/shanvika/client/internal/handler/stream"
	"github.com/shanvika-ai/shanvika/client/internal/handler/turn"
	middlewarePkg "github.com/shanvika-ai/shanvika/client/internal/middleware"
	chatModel "github.com/shanvika-ai/shanvika/client/internal/model/chat"
	"github.com/shanvika-ai/shanvika/client/internal/render"
	chatService "github.com/shanvika-ai/shanvika/client/internal/service/chat"
	turnService "github.com/shanvika-ai/shanvika/client/internal/service/turn"
	"github.com/shanvika-ai/shanvika/client/internal/transcript"
)

// Services are the client components the gateway exposes.
type Services struct {
	Controller *turnService.Controller
	Workspace  *chatService.Service
	Transcript *transcript.Log
	Catalog    *chatModel.Catalog
	Renderer   *render.Renderer
}

// NewRouter wires the /ui gateway routes to the client services.
func NewRouter(svc Services, allowedOrigins []string, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.RequestLogger(logger.Named("http")))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(allowedOrigins))

	turnHandler := turn.New(svc.Controller, svc.Catalog, svc.Transcript, svc.Renderer, logger.Named("turn"))
	chatHandler := chat.New(svc.Workspace)
	streamHandler := stream.New(svc.Transcript, svc.Controller, logger.Named("stream"))

	r.Route("/ui", func(ui chi.Router) {
		turnHandler.RegisterRoutes(ui)
		chatHandler.RegisterRoutes(ui)
		streamHandler.RegisterRoutes(ui)
	})

	return r
}
