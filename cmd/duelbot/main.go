package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/verdane/duelbot/internal/arena"
	"github.com/verdane/duelbot/internal/commands"
	appcfg "github.com/verdane/duelbot/internal/config"
	"github.com/verdane/duelbot/internal/events"
	"github.com/verdane/duelbot/internal/matchlog"
	"github.com/verdane/duelbot/internal/msgcat"
	"github.com/verdane/duelbot/internal/obslog"
	"github.com/verdane/duelbot/internal/relay"
	"github.com/verdane/duelbot/internal/stats"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer obslog.Sync()

	cat, err := msgcat.New(os.Getenv("MESSAGE_TEMPLATE_DIR"))
	if err != nil {
		obslog.L().Fatal("message catalog error", zap.Error(err))
	}

	client := relay.NewClient(cfg.RelayBaseURL)
	ws := relay.NewWebSocket(cfg.RelayWSURL, 5, time.Second)
	ws.OnStateChange(func(state relay.WebSocketState) {
		obslog.L().Info("ws_state", zap.String("state", string(state)))
	})

	hub := events.NewHub()
	mgr := arena.NewManager(arena.Config{
		RequestExpire:   cfg.RequestExpireTime,
		RequestCooldown: cfg.RequestCooldownTime,
		AcceptReaction:  cfg.RequestReactions[0],
		DeclineReaction: cfg.RequestReactions[1],
		EmbedColor:      cfg.EmbedColor,
		AIDifficulty:    cfg.AIDifficulty,
	}, hub, client)

	router := commands.NewRouter(commands.Config{
		Prefix:          cfg.BotPrefix,
		EmbedColor:      cfg.EmbedColor,
		AcceptReaction:  cfg.RequestReactions[0],
		DeclineReaction: cfg.RequestReactions[1],
	}, client, mgr, cat)
	router.SubscribeAnnouncements(hub)

	// Stats backend (optional)
	if cfg.RedisURL != "" {
		rdb, err := stats.Dial(context.Background(), cfg.RedisURL)
		if err != nil {
			obslog.L().Fatal("redis connect error", zap.Error(err))
		}
		defer rdb.Close()
		rec := stats.NewRecorder(rdb)
		rec.Subscribe(hub)
		router.AttachStats(rec)
	}

	// Match archive (optional)
	if cfg.DatabaseURL != "" {
		repo, err := matchlog.NewRepository(cfg.DatabaseURL)
		if err != nil {
			obslog.L().Fatal("match repository error", zap.Error(err))
		}
		defer repo.Close()
		mgr.AttachResultSink(repo)
	}

	ws.OnEvent(func(ev *relay.Event) {
		if ev == nil {
			return
		}
		// Keep the WS read loop free.
		go router.HandleEvent(context.Background(), *ev)
	})

	cctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	err = ws.Connect(cctx)
	cancel()
	if err != nil {
		obslog.L().Fatal("ws connect error", zap.Error(err))
	}
	obslog.L().Info("duelbot_started", zap.String("prefix", cfg.BotPrefix))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	obslog.L().Info("duelbot_stopping")
	_ = ws.Close(context.Background())
}
