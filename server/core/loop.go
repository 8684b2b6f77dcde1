package core

import (
	"context"
	"time"

	"github.com/automoto/dynamicai/internal/logging"
	"github.com/leap-fish/necs/esync/srvsync"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const tracerName = "github.com/automoto/dynamicai/server/core"

// GameLoop drives the server at a fixed tick rate. Every tick drains the
// command queue, advances the simulation by one fixed step and syncs the
// world to clients.
type GameLoop struct {
	server   *Server
	tickRate int
	logger   logging.Logger
	stopChan chan struct{}
	done     chan struct{}
}

func NewGameLoop(server *Server, tickRate int, logger logging.Logger) *GameLoop {
	if tickRate <= 0 {
		tickRate = DefaultTickRate
	}
	return &GameLoop{
		server:   server,
		tickRate: tickRate,
		logger:   logger,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Step is the fixed simulation delta.
func (g *GameLoop) Step() time.Duration {
	return time.Second / time.Duration(g.tickRate)
}

func (g *GameLoop) Run() {
	defer close(g.done)

	ticker := time.NewTicker(g.Step())
	defer ticker.Stop()

	g.logger.Info("game loop started", logging.Int("tick_rate", g.tickRate))

	for {
		select {
		case <-g.stopChan:
			g.logger.Info("game loop stopped")
			return
		case <-ticker.C:
			g.tick()
		}
	}
}

// Stop ends the loop and waits for the current tick to finish.
func (g *GameLoop) Stop() {
	close(g.stopChan)
	<-g.done
}

func (g *GameLoop) tick() {
	start := time.Now()
	step := g.Step()
	_, span := otel.Tracer(tracerName).Start(context.Background(), "dynamicai.tick")
	defer span.End()

	g.server.ProcessCommands()
	g.server.Step(step)

	if err := srvsync.DoSync(); err != nil {
		span.RecordError(err)
		g.logger.Warn("sync error", logging.Err(err))
	}

	status := g.server.DirectoryStatus()
	span.SetAttributes(
		attribute.Int("dynamicai.tracked", status.Tracked),
		attribute.Int("dynamicai.managed", status.Managed),
		attribute.Int("dynamicai.observers", status.Observers),
	)

	if took := time.Since(start); took > step {
		g.logger.Warn("tick overran",
			logging.Duration("took", took),
			logging.Duration("budget", step),
		)
	}
}
