package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/voxfall/server/internal/config"
	"github.com/voxfall/server/internal/core/event"
	coresys "github.com/voxfall/server/internal/core/system"
	"github.com/voxfall/server/internal/data"
	"github.com/voxfall/server/internal/destruct"
	"github.com/voxfall/server/internal/geom"
	"github.com/voxfall/server/internal/hooks"
	"github.com/voxfall/server/internal/mesher"
	"github.com/voxfall/server/internal/registry"
	"github.com/voxfall/server/internal/replicate"
	"github.com/voxfall/server/internal/system"
	"github.com/voxfall/server/internal/world"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(serverName string, serverID int) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m             voxfall  v0.1.0               \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m      voxel destruction server · Go        \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mserver:\033[0m %s \033[90m(id: %d)\033[0m\n\n", serverName, serverID)
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main server logic ─────────────────────────────────────────────

func run() error {
	demo := flag.Bool("demo", false, "run a scripted destruction sweep after startup")
	flag.Parse()

	// 1. Load config
	cfgPath := "config/server.toml"
	if p := os.Getenv("VOXFALL_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Server.Name, cfg.Server.ID)

	// 3. Load scene data
	printSection("scene data")

	catalog, err := data.LoadObjectCatalog("data/yaml/objects.yaml")
	if err != nil {
		return fmt.Errorf("load object catalog: %w", err)
	}
	printStat("object definitions", catalog.Count())

	scene := world.NewState()
	ids, err := catalog.Spawn(scene)
	if err != nil {
		return fmt.Errorf("spawn objects: %w", err)
	}
	printStat("objects spawned", len(ids))

	// 4. Effect hooks: Go registry populated by Lua scripts
	fx := hooks.NewRegistry(log)
	luaEngine, err := hooks.NewEngine("scripts/effects", fx, log)
	if err != nil {
		return fmt.Errorf("lua engine: %w", err)
	}
	defer luaEngine.Close()
	printOK("effect scripts loaded")
	fmt.Println()

	// 5. Wire the pipeline
	bus := event.NewBus()
	reg := registry.New(scene, bus, log)
	merger := mesher.New(cfg.Mesher, reg, log)
	sched := destruct.NewScheduler(
		func() config.DestructionConfig { return cfg.Destruction },
		scene, reg, merger, fx, bus, log,
	)
	comp := replicate.New(cfg.Replication, &logTransport{log: log}, bus, log)
	reg.Ownership = comp

	runner := coresys.NewRunner()
	runner.Register(system.NewEventDispatchSystem(bus))
	runner.Register(system.NewDestructionSystem(sched))
	runner.Register(system.NewMergeSystem(merger))
	runner.Register(system.NewReplicationSystem(comp, bus))
	runner.Register(system.NewStatsSystem(scene, reg, sched, comp, log))
	printStat("pipeline systems", runner.Len())

	// 6. Start the loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Simulation.TickRate)
	defer ticker.Stop()

	printSection("server ready")
	printReady(fmt.Sprintf("simulation loop started (tick: %s)", cfg.Simulation.TickRate))
	if *demo {
		printReady("demo sweep armed")
	}
	fmt.Println()

	tickCount := 0
	for {
		select {
		case <-ticker.C:
			tickCount++
			if *demo {
				runDemoStep(tickCount, sched, cfg, log)
			}
			runner.Tick(cfg.Simulation.TickRate)
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			sched.ClearQueue()
			reg.Reset(true)
			log.Info("server stopped")
			return nil
		}
	}
}

// runDemoStep submits a few scripted cuts at fixed ticks so a fresh
// checkout has something to watch.
func runDemoStep(tick int, sched *destruct.Scheduler, cfg *config.Config, log *zap.Logger) {
	cut := func(pos r3.Vec, d float64, debris bool) {
		_, err := sched.Destroy(destruct.Options{
			Shape: geom.Shape{
				Kind:      geom.KindBall,
				Transform: geom.NewTransform(pos),
				Extent:    r3.Vec{X: d, Y: d, Z: d},
			},
			MarkDebris: debris,
			EffectHook: "debris_burst",
		})
		if err != nil {
			log.Warn("demo cut rejected", zap.Error(err))
		}
	}
	switch tick {
	case 20:
		cut(r3.Vec{X: 0, Y: 4, Z: 0}, 6, true)
	case 60:
		cut(r3.Vec{X: 8, Y: 2, Z: 8}, 8, true)
	case 120:
		cut(r3.Vec{X: -8, Y: 2, Z: -8}, 10, false)
	}
}

// logTransport is the standalone-binary replication sink: snapshots are
// logged instead of sent to connected clients.
type logTransport struct {
	log *zap.Logger
}

func (t *logTransport) Broadcast(snaps []replicate.Snapshot) error {
	t.log.Debug("replicate", zap.Int("snapshots", len(snaps)))
	return nil
}

func (t *logTransport) AssignOwnership(puppetID int64) error {
	t.log.Debug("ownership assigned", zap.Int64("puppet", puppetID))
	return nil
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
