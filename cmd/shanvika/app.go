package main

import (
	"fmt"
	"strconv"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/shanvika-ai/shanvika/client/internal/client"
	"github.com/shanvika-ai/shanvika/client/internal/config"
	"github.com/shanvika-ai/shanvika/client/internal/model/chat"
	"github.com/shanvika-ai/shanvika/client/internal/render"
	chatService "github.com/shanvika-ai/shanvika/client/internal/service/chat"
	speechService "github.com/shanvika-ai/shanvika/client/internal/service/speech"
	"github.com/shanvika-ai/shanvika/client/internal/service/turn"
	"github.com/shanvika-ai/shanvika/client/internal/store"
	"github.com/shanvika-ai/shanvika/client/internal/transcript"
)

// app holds the client components shared by the chat, send and serve commands.
type app struct {
	cfg    *config.Config
	logger *zap.Logger

	api        *client.Client
	db         *sqlx.DB
	state      *store.State
	transcript *transcript.Log
	renderer   *render.Renderer
	catalog    *chat.Catalog
	speech     *speechService.Service
	controller *turn.Controller
	workspace  *chatService.Service
}

// newApp wires the controller to the backend, restoring the session, mode
// and voice flag mirrored by the previous run.
func newApp(cfg *config.Config, logger *zap.Logger) (*app, error) {
	catalog, err := chat.LoadCatalog(cfg.UI.ToolsFile)
	if err != nil {
		return nil, err
	}

	db, err := store.NewSqliteDB(cfg.State.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open state database: %w", err)
	}
	state, err := store.NewState(db, logger.Named("store"))
	if err != nil {
		db.Close()
		return nil, err
	}
	snap, err := state.Load()
	if err != nil {
		db.Close()
		return nil, err
	}

	voice := cfg.Voice.Enabled
	if stored, ok, err := state.Get(store.KeyVoice); err == nil && ok {
		voice, _ = strconv.ParseBool(stored)
	}

	a := &app{
		cfg:        cfg,
		logger:     logger,
		api:        client.New(cfg.Backend.BaseURL, client.WithLogger(logger.Named("client"))),
		db:         db,
		state:      state,
		transcript: transcript.New(logger.Named("transcript")),
		renderer:   render.NewRenderer(cfg.UI.HighlightStyle),
		catalog:    catalog,
	}
	a.speech = speechService.NewService(a.api, speechService.ExecPlayer{Command: cfg.Voice.Player}, "", logger.Named("speech"))

	a.controller = turn.New(a.api, a.transcript,
		turn.WithSpeaker(a.speech),
		turn.WithCaptions(catalog),
		turn.WithRenderer(a.renderer),
		turn.WithObserver(state),
		turn.WithLogger(logger.Named("turn")),
		turn.WithSession(snap.SessionID),
		turn.WithMode(snap.Mode),
		turn.WithVoice(voice),
	)
	a.workspace = chatService.NewService(a.api, a.controller, a.transcript, a.renderer, logger.Named("chat"))

	logger.Debug("client ready",
		zap.String("backend", cfg.Backend.BaseURL),
		zap.String("session", snap.SessionID),
		zap.String("mode", a.controller.Mode()),
		zap.Bool("voice", voice),
	)
	return a, nil
}

func (a *app) Close() {
	a.controller.Cancel()
	a.speech.Stop()
	if err := a.db.Close(); err != nil {
		a.logger.Warn("close state database", zap.Error(err))
	}
}
