package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	_ "go.uber.org/automaxprocs"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"goldenglow/internal/api"
	"goldenglow/internal/cluster"
	"goldenglow/internal/config"
	"goldenglow/internal/game/builtin"
	"goldenglow/internal/metrics"
	"goldenglow/internal/network"
	"goldenglow/internal/obslog"
	"goldenglow/internal/score"
	"goldenglow/internal/session"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "path to a yaml/json config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "server: %+v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := obslog.Init(cfg.Log); err != nil {
		return err
	}
	defer obslog.Sync()
	log := obslog.L()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	catalog, err := builtin.Catalog(cfg.Game.Types)
	if err != nil {
		return err
	}

	health := cluster.NewHealthAggregator(2 * time.Second)
	sinks, err := openSinks(ctx, cfg.Score, health)
	if err != nil {
		return err
	}
	dispatcher, err := score.NewDispatcher(cfg.Score.Workers, cfg.Score.Timeout, sinks...)
	if err != nil {
		return err
	}
	defer func() {
		if err := dispatcher.Close(); err != nil {
			log.Warn("score_dispatcher_close_failed", zap.Error(err))
		}
	}()

	gateway := session.NewGateway(
		session.NewMatchmaker(),
		session.NewRegistry(catalog),
		session.WithReporter(dispatcher),
		session.WithRetention(cfg.Game.TerminalRetention),
	)

	var identity network.IdentityFunc = network.AnonymousIdentity
	if cfg.Server.IdentityHeader != "" {
		identity = network.HeaderIdentity(cfg.Server.IdentityHeader)
	}
	ws := network.NewServer(gateway,
		network.WithIdentity(identity),
		network.WithSendBuffer(cfg.Server.SendBuffer),
		network.WithTickInterval(cfg.Game.SweepInterval),
	)

	reg := prometheus.NewRegistry()
	metrics.Register(reg)

	httpServer := &http.Server{
		Addr: cfg.Server.Listen,
		Handler: api.NewRouter(api.Options{
			WSPath:   cfg.Server.WSPath,
			WS:       ws,
			Health:   health,
			Gatherer: reg,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ws.Run(gctx)
	})
	g.Go(func() error {
		log.Info("http_listening",
			zap.String("addr", cfg.Server.Listen),
			zap.String("ws_path", cfg.Server.WSPath),
			zap.Strings("game_types", catalog.Types()),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if cfg.Cluster.ConsulAddr != "" {
		registrar, err := cluster.Register(cluster.Registration{
			ConsulAddr:    cfg.Cluster.ConsulAddr,
			ServiceName:   cfg.Cluster.ServiceName,
			AdvertiseHost: cfg.Cluster.AdvertiseHost,
			Listen:        cfg.Server.Listen,
			HealthPath:    api.HealthPath,
		})
		if err != nil {
			// Sem Consul o servidor continua atendendo; só não aparece no catálogo.
			log.Warn("consul_register_failed", zap.Error(err))
		} else {
			defer func() {
				if err := registrar.Deregister(); err != nil {
					log.Warn("consul_deregister_failed", zap.Error(err))
				}
			}()
		}
	}

	err = g.Wait()
	log.Info("server_stopped")
	return err
}

// openSinks conecta os destinos de placar configurados e registra um health
// check para cada um que souber se verificar.
func openSinks(ctx context.Context, cfg config.ScoreConfig, health *cluster.HealthAggregator) ([]score.Sink, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var sinks []score.Sink
	fail := func(err error) ([]score.Sink, error) {
		for _, s := range sinks {
			_ = s.Close()
		}
		return nil, err
	}

	if cfg.RedisURL != "" {
		s, err := score.NewRedisSink(connectCtx, cfg.RedisURL)
		if err != nil {
			return fail(err)
		}
		sinks = append(sinks, s)
	}
	if cfg.NATSURL != "" {
		s, err := score.NewNATSSink(cfg.NATSURL)
		if err != nil {
			return fail(err)
		}
		sinks = append(sinks, s)
	}
	if cfg.MongoURI != "" {
		s, err := score.NewMongoSink(connectCtx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return fail(err)
		}
		sinks = append(sinks, s)
	}
	if cfg.PostgresDSN != "" {
		s, err := score.NewPostgresSink(connectCtx, cfg.PostgresDSN)
		if err != nil {
			return fail(err)
		}
		sinks = append(sinks, s)
	}

	for _, s := range sinks {
		if p, ok := s.(score.Pinger); ok {
			health.AddCheck(s.Name(), p.Ping)
		}
		obslog.L().Info("score_sink_enabled", zap.String("sink", s.Name()))
	}
	return sinks, nil
}
