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

	"github.com/automoto/dynamicai/config"
	"github.com/automoto/dynamicai/internal/logging"
	"github.com/automoto/dynamicai/internal/observability"
	"github.com/automoto/dynamicai/server/core"
	"github.com/automoto/dynamicai/shared/gamemath"
	"github.com/automoto/dynamicai/shared/protocol"
	"github.com/automoto/dynamicai/shared/zonemap"
	"github.com/automoto/dynamicai/systems"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	port := flag.Uint("port", 7373, "Server port")
	tickRate := flag.Int("tickrate", core.DefaultTickRate, "Server tick rate (updates per second)")
	name := flag.String("name", "Dynamic AI Server", "Server display name")
	version := flag.String("version", "", "Required client version (empty = accept any)")
	zone := flag.String("zone", string(config.ZoneCustoms), "Active map")
	bots := flag.Int("bots", 40, "Number of simulated bots")
	seed := flag.Int64("seed", 42, "Bot simulation seed")
	churn := flag.Float64("churn", 0.2, "Chance per second that a bot dies and is replaced")
	cover := flag.Int("cover", 60, "Blocks of cover scattered over the map (0 for open ground)")
	mapsDir := flag.String("maps", "", "Directory of Tiled .tmx zone maps named after their zone")
	anchor := flag.Bool("anchor", false, "Place a fixed observer at the origin")
	tuningPath := flag.String("tuning", "", "Optional YAML file with scheduler tuning")
	metricsAddr := flag.String("metrics-addr", ":9090", "Prometheus metrics listen address (empty disables)")
	appName := flag.String("app", "dynamicai", "Settings storage name (empty disables persistence)")
	masterURL := flag.String("master", "", "Master directory URL (empty disables registration)")
	publicAddr := flag.String("address", "", "Address observers should dial, as registered with the master")
	flag.Parse()

	log := logging.NewFromEnv()

	shutdownTracing, err := observability.InitTracing(context.Background(), observability.TracingConfigFromEnv(), log)
	if err != nil {
		log.Warn("tracing disabled", logging.Err(err))
	}
	defer observability.ShutdownWithTimeout(shutdownTracing, log)

	if err := protocol.RegisterComponents(); err != nil {
		log.Error("failed to register components", logging.Err(err))
		os.Exit(1)
	}

	tuning := config.Tuning
	if *tuningPath != "" {
		t, err := config.LoadTuning(*tuningPath)
		if err != nil {
			log.Warn("using default tuning", logging.String("path", *tuningPath), logging.Err(err))
		} else {
			tuning = t
		}
	}

	opts := []systems.Option{systems.WithTuning(tuning)}
	var collector *observability.ThrottleCollector
	if *metricsAddr != "" {
		c, err := observability.NewThrottleCollector(prometheus.NewRegistry())
		if err != nil {
			log.Warn("metrics disabled", logging.Err(err))
		} else {
			collector = c
			opts = append(opts, systems.WithMetrics(collector))
		}
	}

	botCfg := core.DefaultBotSimConfig()
	botCfg.Count = *bots
	botCfg.Seed = *seed
	botCfg.ChurnPerSec = *churn
	botCfg.CoverBlocks = *cover

	cfg := core.Config{
		TickRate: *tickRate,
		Name:     *name,
		Version:  *version,
		Zone:     config.ZoneID(*zone),
		Bots:     botCfg,
	}
	if *anchor {
		cfg.Anchors = []gamemath.Vec3{{}}
	}
	if *mapsDir != "" {
		layouts, zones, err := zonemap.LoadDir(os.DirFS(*mapsDir), ".")
		if err != nil {
			log.Warn("zone maps not loaded", logging.String("dir", *mapsDir), logging.Err(err))
		} else {
			cfg.ZoneMaps = layouts
			log.Info("zone maps loaded", logging.Int("count", len(zones)), logging.Any("zones", zones))
		}
	}

	server := core.NewServer(cfg, log, opts...)

	if *appName != "" {
		store, err := systems.OpenSettingsStore(*appName, log)
		if err != nil {
			log.Warn("settings will not persist", logging.Err(err))
		} else {
			store.Bind(server.Control())
		}
	}

	metricsSrv := serveMetrics(*metricsAddr, collector, log)

	log.Info("starting dynamic AI server",
		logging.String("name", *name),
		logging.Int("port", int(*port)),
		logging.Int("tick_rate", *tickRate),
		logging.String("zone", *zone),
		logging.Int("bots", *bots),
	)
	if *masterURL != "" {
		address := *publicAddr
		if address == "" {
			address = fmt.Sprintf("localhost:%d", *port)
		}
		reg := core.NewRegistration(*masterURL, *name, address, *version, server, log)
		reg.Start()
		defer reg.Stop()
	}

	go func() {
		if err := server.Start(*port); err != nil {
			log.Error("server error", logging.Err(err))
			os.Exit(1)
		}
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-stopCtx.Done()

	log.Info("shutting down server")
	server.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
}

func serveMetrics(addr string, collector *observability.ThrottleCollector, log logging.Logger) *http.Server {
	if collector == nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn("metrics server exited", logging.Err(err))
		}
	}()

	log.Info("serving Prometheus metrics", logging.String("addr", addr))
	return srv
}
