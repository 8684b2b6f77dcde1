package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/automoto/dynamicai/config"
	"github.com/automoto/dynamicai/internal/logging"
	"github.com/automoto/dynamicai/network"
	"github.com/automoto/dynamicai/shared/gamemath"
	"github.com/automoto/dynamicai/shared/protocol"
)

const moveEvery = 100 * time.Millisecond

// settingFlag is one -set option[:key]=value argument.
type settingFlag struct {
	option, key, value string
}

func parseSetting(s string) (settingFlag, error) {
	name, value, ok := strings.Cut(s, "=")
	if !ok || name == "" {
		return settingFlag{}, fmt.Errorf("want option[:key]=value, got %q", s)
	}
	option, key, _ := strings.Cut(name, ":")
	return settingFlag{option: option, key: key, value: value}, nil
}

func main() {
	addr := flag.String("addr", "localhost:7373", "Server address")
	name := flag.String("name", "observer", "Observer name")
	version := flag.String("version", "", "Client version sent on join")
	x := flag.Float64("x", 0, "Start position X")
	z := flag.Float64("z", 0, "Start position Z")
	orbit := flag.Float64("orbit", 0, "Walk in a circle of this radius around the start position")
	sweepDist := flag.Float64("sweep", 0, "Walk this far out along X and back, repeatedly (overrides -orbit)")
	sweepLeg := flag.Duration("sweep-leg", 10*time.Second, "Time for one leg of -sweep")
	report := flag.Duration("report", 2*time.Second, "How often to print the bot census")
	master := flag.String("master", "", "Master directory URL; with -list, print its servers and exit")
	list := flag.Bool("list", false, "List the servers registered with -master")
	zone := flag.String("zone", "", "With -list, only show servers running this zone")
	var settings []settingFlag
	flag.Func("set", "Change a setting on join, as option[:key]=value (repeatable)", func(s string) error {
		sf, err := parseSetting(s)
		if err != nil {
			return err
		}
		settings = append(settings, sf)
		return nil
	})
	flag.Parse()

	log := logging.NewFromEnv()

	if *list {
		if err := listServers(log, *master, *zone); err != nil {
			log.Error("could not list servers", logging.Err(err))
			os.Exit(1)
		}
		return
	}

	if err := protocol.RegisterComponents(); err != nil {
		log.Error("failed to register components", logging.Err(err))
		os.Exit(1)
	}

	client := network.NewClient(log)
	client.Connect(*addr, *version, *name)
	defer client.Disconnect()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := gamemath.Vec3{X: *x, Z: *z}
	var walk *sweep
	if *sweepDist > 0 {
		walk = newSweep(start, *sweepDist, *sweepLeg)
	}
	move := time.NewTicker(moveEvery)
	defer move.Stop()
	census := time.NewTicker(*report)
	defer census.Stop()

	began := time.Now()
	joined := false
	for {
		select {
		case <-ctx.Done():
			return
		case <-move.C:
			if client.State() == network.StateError {
				log.Error("connection failed", logging.Err(client.LastError()))
				os.Exit(1)
			}
			if client.State() != network.StateJoined {
				continue
			}
			if !joined {
				joined = true
				sess := client.Session()
				log.Info("observing",
					logging.String("server", sess.ServerName),
					logging.String("zone", sess.Zone),
					logging.Int("tick_rate", sess.TickRate),
				)
				for _, sf := range settings {
					if err := client.ChangeSetting(sf.option, sf.key, sf.value); err != nil {
						log.Warn("could not send setting", logging.String("option", sf.option), logging.Err(err))
					}
				}
			}
			pos := orbitPosition(start, *orbit, time.Since(began))
			if walk != nil {
				pos = walk.step(moveEvery)
			}
			if err := client.Move(pos); err != nil {
				log.Warn("could not send position", logging.Err(err))
			}
			for _, res := range client.DrainSettingsResults() {
				if res.Error != "" {
					log.Warn("setting rejected", logging.String("option", res.Option), logging.String("error", res.Error))
				} else {
					log.Info("setting applied", logging.String("option", res.Option))
				}
			}
		case <-census.C:
			snap := client.LatestSnapshot()
			if snap == nil {
				continue
			}
			logCensus(log, network.TakeCensus(*snap))
		}
	}
}

func listServers(log logging.Logger, masterURL, zone string) error {
	if masterURL == "" {
		return fmt.Errorf("-list needs -master")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	servers, err := network.NewBrowser(masterURL).Servers(ctx, zone)
	if err != nil {
		return err
	}
	for _, s := range servers {
		log.Info("server",
			logging.String("name", s.Name),
			logging.String("address", s.Address),
			logging.String("zone", s.Status.Zone),
			logging.String("rate", s.Status.Rate),
			logging.Int("tracked", s.Status.Tracked),
			logging.Int("managed", s.Status.Managed),
			logging.Int("observers", s.Status.Observers),
		)
	}
	if len(servers) == 0 {
		log.Info("no servers registered")
	}
	return nil
}

// orbitPosition walks a full circle every minute.
func orbitPosition(center gamemath.Vec3, radius float64, elapsed time.Duration) gamemath.Vec3 {
	if radius <= 0 {
		return center
	}
	angle := 2 * math.Pi * elapsed.Seconds() / 60
	return center.Add(gamemath.Vec3{X: radius * math.Cos(angle), Z: radius * math.Sin(angle)})
}

func logCensus(log logging.Logger, c network.Census) {
	fields := []logging.Field{
		logging.Int("agents", c.Agents),
		logging.Int("managed", c.Managed),
		logging.Int("engaged", c.Engaged),
		logging.Int("observers", len(c.Observers)),
	}
	for t := config.TierNear; t < config.TierCount; t++ {
		fields = append(fields, logging.Int(strings.ToLower(t.String()), c.ByTier[t]))
	}
	if c.HasSession {
		fields = append(fields,
			logging.String("zone", c.Session.Zone),
			logging.Float("range", c.Session.Range),
			logging.String("rate", c.Session.Rate),
		)
	}
	log.Info("census", fields...)
}
