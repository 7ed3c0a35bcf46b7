package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"StaffBot/bot/command"
	"StaffBot/bot/convlog"
	"StaffBot/bot/dialog"
	"StaffBot/bot/input"
	"StaffBot/bot/platform"
	"StaffBot/bot/platform/telegram"
	"StaffBot/bot/scenario"
	"StaffBot/bot/webhookmgr"
	"StaffBot/impl/core"
	"StaffBot/internal/config"
	repository "StaffBot/internal/database"
	"StaffBot/internal/http-server/api"
	"StaffBot/internal/lib/logger"
	"StaffBot/internal/lib/sl"
	"StaffBot/internal/service/bots"
	"StaffBot/internal/ws"
)

func main() {

	configPath := flag.String("conf", "config.yml", "path to config file")
	logPath := flag.String("log", "/var/log/", "path to log file directory")
	flag.Parse()

	conf := config.MustLoad(*configPath)
	lg := logger.SetupLogger(conf.Env, *logPath)

	lg.Info("starting staffbot", slog.String("config", *configPath), slog.String("env", conf.Env))
	lg.Debug("debug messages enabled")

	db, err := repository.NewMongoClient(conf, lg)
	if err != nil {
		lg.Error("mongo client", sl.Err(err))
		return
	}
	if db == nil {
		lg.Error("mongo is required for dialog state, refusing to start")
		return
	}
	lg.With(
		slog.String("host", conf.Mongo.Host),
		slog.String("port", conf.Mongo.Port),
		slog.String("database", conf.Mongo.Database),
	).Info("mongo client initialized")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var adapters []platform.Adapter
	if conf.Telegram.Enabled {
		adapters = append(adapters, telegram.NewAdapter(
			lg,
			conf.Telegram.SecretToken,
			time.Duration(conf.Telegram.SendTimeout)*time.Second,
		))
	}
	if len(adapters) == 0 {
		lg.Error("no platform adapters enabled, refusing to start")
		return
	}
	platforms := platform.NewRegistry(adapters...)
	lg.Info("platform adapters enabled", slog.Any("platforms", platforms.Names()))

	// The strictest callback cap across enabled platforms bounds button
	// values at scenario load.
	maxButtonValue := 0
	for _, a := range adapters {
		if maxButtonValue == 0 || a.MaxButtonValue() < maxButtonValue {
			maxButtonValue = a.MaxButtonValue()
		}
	}

	inputs := input.DefaultRegistry()
	commands := command.DefaultRegistry()

	scenarios := scenario.NewStore(db, inputs.Resolve, maxButtonValue, lg)
	botService := bots.NewService(db, scenarios, lg)

	hub := ws.NewHub(lg)
	go hub.Run()

	recorder := convlog.New(&lumberjack.Logger{
		Filename:   conf.ConversationLog.Path,
		MaxSize:    conf.ConversationLog.MaxSizeMB,
		MaxBackups: conf.ConversationLog.MaxBackups,
	}, db, hub, lg)
	defer recorder.Close()

	engine := dialog.NewEngine(
		scenarios,
		dialog.NewMongoStateStorage(db),
		inputs,
		commands,
		platforms,
		botService,
		recorder,
		lg,
	)

	manager := webhookmgr.NewManager(
		db,
		platforms,
		botService,
		conf.Webhook.PublicURL,
		time.Duration(conf.Webhook.IntervalMin)*time.Minute,
		conf.Webhook.MaxParallel,
		lg,
	)
	go manager.Run(ctx)

	handler := core.New(engine, botService, manager)

	// *** blocking start with http server ***
	err = api.New(ctx, conf, lg, handler, hub)
	if err != nil {
		lg.Error("server start", sl.Err(err))
		return
	}
	lg.Error("service stopped")
}
