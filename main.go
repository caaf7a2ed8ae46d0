package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "crono/docs"
	"crono/internal/auth"
	"crono/internal/broker"
	"crono/internal/config"
	"crono/internal/kafka"
	"crono/internal/logger"
	"crono/internal/metrics"
	"crono/internal/repository"
	"crono/internal/response"
	"crono/internal/server"
	"crono/internal/service"
	"crono/internal/storage"
	"crono/internal/tasks"
	"crono/internal/ws"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// @Title						Crono turn queue API
// @Description				Per-event student turn queues.
// @securityDefinitions.apikey	BearerAuth
// @in							header
// @name						Authorization
func main() {
	app := &cli.App{
		Name:   "crono",
		Usage:  "per-event student turn queue service",
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "create or update the database schema",
				Action: migrate,
			},
			{
				Name:   "audit",
				Usage:  "check every queue for spot gaps and counter drift once",
				Action: audit,
			},
			{
				Name:  "token",
				Usage: "issue a session token for local testing",
				Flags: []cli.Flag{
					&cli.UintFlag{Name: "student", Usage: "student id (control number)"},
					&cli.UintFlag{Name: "admin", Usage: "admin id"},
					&cli.DurationFlag{Name: "ttl", Usage: "token lifetime, defaults to SESSION_EXPIRY"},
				},
				Action: token,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setup() (*config.Config, logger.Logger, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}

	l := logger.InitializeZapLogger(logger.ZapConfig{
		Level:    cfg.Log.Level,
		Mode:     cfg.Log.Mode,
		Encoding: cfg.Log.Encoding,
	})

	db, err := storage.ConnectDatabase(cfg.Database)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, l, db, nil
}

func serve(_ *cli.Context) error {
	cfg, l, db, err := setup()
	if err != nil {
		return err
	}
	defer l.Sync()
	defer storage.CloseDatabase(db)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := storage.Migrate(db); err != nil {
		return err
	}

	m := metrics.New()
	store := repository.NewStore(db)
	hub := ws.NewHub(l)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(ctx)
		return nil
	})

	var notifiers service.MultiNotifier
	if cfg.Redis.Enabled {
		rdb, err := storage.InitRedis(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer rdb.Close()

		// The relay feeds the local hub, so the hub is not notified directly.
		notifiers = append(notifiers, broker.NewPublisher(rdb, cfg.Redis.Channel))
		relay := broker.NewRelay(rdb, cfg.Redis.Channel, hub, l)
		g.Go(func() error { return relay.Run(ctx) })
	} else {
		notifiers = append(notifiers, hub)
	}

	if cfg.Kafka.Enabled {
		prod, err := kafka.NewProducer(cfg.Kafka, l)
		if err != nil {
			return err
		}
		defer prod.Close()
		notifiers = append(notifiers, prod)
	}

	svc := service.NewTurnService(store, notifiers, m, cfg.Turn, l)

	if cfg.Audit.Enabled {
		c, err := tasks.InitScheduler(cfg.Audit.Schedule, tasks.NewAuditor(store, m, l), l)
		if err != nil {
			return err
		}
		defer c.Stop()
	}

	router := server.NewRouter(server.Deps{
		Config:  cfg,
		DB:      db,
		Service: svc,
		Hub:     hub,
		Metrics: m,
		Logger:  l,
	})

	g.Go(func() error { return server.Run(ctx, cfg.Server, router, l) })

	return g.Wait()
}

func migrate(_ *cli.Context) error {
	_, l, db, err := setup()
	if err != nil {
		return err
	}
	defer storage.CloseDatabase(db)

	if err := storage.Migrate(db); err != nil {
		return err
	}
	l.Info(context.Background(), "Database migrated")
	return nil
}

func audit(cctx *cli.Context) error {
	_, l, db, err := setup()
	if err != nil {
		return err
	}
	defer storage.CloseDatabase(db)

	violations, err := tasks.NewAuditor(repository.NewStore(db), nil, l).Run(cctx.Context)
	if err != nil {
		return err
	}
	for _, v := range violations {
		fmt.Println(v)
	}
	if len(violations) > 0 {
		return cli.Exit(fmt.Sprintf("%d queue(s) failed the audit", len(violations)), 2)
	}
	return nil
}

func token(cctx *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	var a auth.Actor
	switch {
	case cctx.Uint("admin") != 0:
		a = auth.Actor{Type: auth.UserTypeAdmin, AdminID: cctx.Uint("admin")}
	case cctx.Uint("student") != 0:
		a = auth.Actor{Type: auth.UserTypeStudent, StudentID: cctx.Uint("student")}
	default:
		return cli.Exit("either --student or --admin is required", 1)
	}

	ttl := cfg.JWT.Expiry
	if cctx.IsSet("ttl") {
		ttl = cctx.Duration("ttl")
	}

	tok, err := auth.NewToken([]byte(cfg.JWT.Secret), a, ttl)
	if err != nil {
		return err
	}
	return json.NewEncoder(os.Stdout).Encode(response.TokenResponse{AccessToken: tok})
}
