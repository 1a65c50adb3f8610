package di

import (
	"path/filepath"

	"golang.org/x/time/rate"

	"ai-companion-chat/client/internal/api"
	"ai-companion-chat/client/internal/audio"
	"ai-companion-chat/client/internal/chat"
	"ai-companion-chat/client/internal/session"
	"ai-companion-chat/client/internal/store"
	"ai-companion-chat/client/pkg/cache"
	"ai-companion-chat/client/pkg/config"
	"ai-companion-chat/client/pkg/logger"
	"ai-companion-chat/client/pkg/resilience"
)

// Container holds all the dependencies for the application
type Container struct {
	Config  *config.Config
	Logger  *logger.Logger
	Session *session.Session
	Store   *store.Store
	API     *api.Client
	Audio   *audio.Service
	Chat    *chat.Service
}

// New creates a new dependency injection container from the environment
func New() (*Container, error) {
	cfg := config.Get()

	logCfg := logger.DefaultConfig()
	logCfg.Level = cfg.Logging.Level
	logCfg.JSON = cfg.Logging.Format == "json"
	log := logger.New(logCfg)
	logger.SetGlobal(log)

	sess := session.New()
	if err := sess.Load(cfg.State.Dir); err != nil {
		return nil, err
	}

	st := store.New(log, cfg.Chat.HistoryLimit)
	if err := st.Load(cfg.State.Dir); err != nil {
		return nil, err
	}

	apiClient := api.New(api.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
		Breaker: resilience.CircuitBreakerConfig{
			Name:             "backend-api",
			FailureThreshold: uint(cfg.Breaker.FailureThreshold),
			SuccessThreshold: uint(cfg.Breaker.SuccessThreshold),
			RetryTimeout:     cfg.Breaker.RetryTimeout,
		},
		Cache: cache.Options{
			DefaultTTL:      cfg.Cache.TTL,
			CleanupInterval: cfg.Cache.PurgeWindow,
			MaxItems:        cfg.Cache.MaxSize,
		},
	}, sess, log)

	player := &audio.FilePlayer{
		Dir: filepath.Join(cfg.State.Dir, "voice"),
		Log: log,
	}
	speaker := audio.NewService(apiClient, player, log)

	limiter := rate.NewLimiter(rate.Limit(cfg.Chat.SendRate), cfg.Chat.SendBurst)
	chatService := chat.New(apiClient, st, speaker, limiter, log)

	return &Container{
		Config:  cfg,
		Logger:  log,
		Session: sess,
		Store:   st,
		API:     apiClient,
		Audio:   speaker,
		Chat:    chatService,
	}, nil
}

// Shutdown flushes session state to disk and releases resources
func (c *Container) Shutdown() error {
	c.Audio.Stop()
	if err := c.Store.Save(c.Config.State.Dir); err != nil {
		return err
	}
	return c.Session.Save(c.Config.State.Dir)
}
