package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"

	"github.com/hexfront/engine/internal/api"
	"github.com/hexfront/engine/internal/battle"
	"github.com/hexfront/engine/internal/combat"
	"github.com/hexfront/engine/internal/config"
	"github.com/hexfront/engine/internal/dispatcher"
	"github.com/hexfront/engine/internal/engine"
	"github.com/hexfront/engine/internal/handlers"
	"github.com/hexfront/engine/internal/influx"
	"github.com/hexfront/engine/internal/logging"
	"github.com/hexfront/engine/internal/monitor"
	"github.com/hexfront/engine/internal/parser"
	"github.com/hexfront/engine/internal/peer"
	"github.com/hexfront/engine/internal/scenario"
	"github.com/hexfront/engine/internal/storage"
	"github.com/hexfront/engine/internal/worker"
	"github.com/hexfront/engine/pkg/core"
	"github.com/hexfront/engine/pkg/streaming"
)

// redWait bounds how long blue waits for an opponent
const redWait = 24 * time.Hour

func runPeer(ctx context.Context) error {
	peerCfg := config.GetPeerConfig()
	gameCfg := config.GetGameConfig()

	client, err := api.FromServerURL(peerCfg.ServerURL)
	if err != nil {
		return err
	}
	if err := client.Healthcheck(ctx); err != nil {
		return fmt.Errorf("relay not reachable at %s: %w", client.BaseURL(), err)
	}
	Logger.Info("Relay is reachable", "url", client.BaseURL())

	conn, err := peer.Dial(ctx, peer.FromConfig(peerCfg), SlogManager.Component("peer"))
	if err != nil {
		return err
	}
	defer conn.Close()
	// unblocks Await and Serve on interrupt
	stopClose := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stopClose()

	p := parser.NewParser(SlogManager.Component("parser"))

	env, err := conn.Await(streaming.TypeAssignColor, peerCfg.AssignWait)
	if err != nil {
		return fmt.Errorf("no side assigned: %w", err)
	}
	side, err := p.ParseAssignColor(env)
	if err != nil {
		return err
	}
	Logger.Info("Side assigned", "side", string(side))

	seed := gameCfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	battleCtx, err := newBattle(side, gameCfg, seed)
	if err != nil {
		return err
	}
	p.SetGrid(battleCtx.Grid)

	// journal
	backend, err := storage.NewBackend(config.GetJournalConfig())
	if err != nil {
		return err
	}
	if err := backend.Init(); err != nil {
		return fmt.Errorf("failed to initialize journal: %w", err)
	}
	defer backend.Close()

	eventDispatcher, err := dispatcher.New(logging.NewDispatcherLogger(componentZerolog("dispatcher")))
	if err != nil {
		return err
	}
	defer eventDispatcher.Close()

	workerManager := worker.NewManager(worker.Dependencies{
		Logger: SlogManager.Component("journal"),
		Buffer: config.GetJournalConfig().Buffer,
	}, backend)
	workerManager.RegisterHandlers(eventDispatcher)

	info := core.GameInfo{
		ID:        uuid.NewString(),
		Side:      side,
		Seed:      seed,
		StartTime: SessionStartTime,
	}
	if side == core.Blue {
		info.Rows, info.Cols = battleCtx.Grid.Rows, battleCtx.Grid.Cols
	}
	if err := workerManager.StartGame(info); err != nil {
		return fmt.Errorf("failed to start journal: %w", err)
	}

	eng := engine.New(battleCtx, engine.Options{
		Side:            side,
		MsPerGameMinute: gameCfg.MsPerGameMinute,
		FrameInterval:   gameCfg.FrameInterval,
		SyncInterval:    gameCfg.SyncInterval,
		CombatInterval:  gameCfg.CombatInterval,
		SupplyRate:      gameCfg.SupplyRate,
		Curve:           curve(gameCfg.Curve),
		Seed:            seed,
		Sender:          conn,
		Journal:         workerManager,
		Logger:          Logger,
	})
	activeEngine.Store(eng)
	defer activeEngine.Store(nil)

	handlerService := handlers.NewService(handlers.Dependencies{
		Engine: eng,
		Parser: p,
		Sender: conn,
		Logger: Logger,
		Seed:   seed,
	})
	handlerService.Register(eventDispatcher)

	var telemetry monitor.PointWriter
	if m := connectTelemetry(ctx); m != nil {
		defer m.Close()
		telemetry = m
	}

	monitorService := monitor.NewService(monitor.Dependencies{
		Engine:     eng,
		Journal:    summarizer(backend),
		Writes:     workerManager,
		Telemetry:  telemetry,
		Logger:     SlogManager.Component("monitor"),
		StatusPath: viper.GetString("statusFile"),
	})
	if err := monitorService.Start(); err != nil {
		return err
	}
	defer monitorService.Stop()

	if side == core.Blue {
		Logger.Info("Waiting for the red player")
		if _, err := conn.Await(streaming.TypeRedPlayerConnected, redWait); err != nil {
			return fmt.Errorf("red player never connected: %w", err)
		}
		if err := eng.SendInitialState(seed); err != nil {
			return err
		}
		Logger.Info("Initial state sent", "rows", info.Rows, "cols", info.Cols, "seed", seed)
	}

	go func() {
		err := handlerService.Serve(ctx, eventDispatcher, conn.Backlog(), conn.Inbound())
		if errors.Is(err, handlers.ErrDisconnected) {
			Logger.Warn("Relay connection closed", "error", conn.Err())
		}
	}()
	go func() {
		if err := runCommands(ctx, os.Stdin, os.Stdout, eng, handlerService); err != nil {
			Logger.Debug("Command input ended", "error", err)
		}
	}()

	runErr := eng.Run(ctx)

	status := eng.Status()
	if err := workerManager.EndGame(status.Winner); err != nil {
		Logger.Warn("Failed to close journal", "error", err)
	}
	// drain journal queues before reading the summary
	eventDispatcher.Close()
	if s := summarizer(backend); s != nil {
		if summary, err := s.Summary(); err == nil {
			Logger.Info("Journal summary",
				"orders", summary.Orders,
				"engagements", summary.Engagements,
				"eliminations", summary.Eliminations,
				"syncs", summary.Syncs)
		}
	}

	switch {
	case status.Winner != "":
		fmt.Printf("Game over: %s wins\n", status.Winner)
	case status.GameOver:
		fmt.Println("Game aborted")
	}
	return runErr
}

// newBattle builds the starting context. Blue generates the battlefield; red starts on a
// placeholder map that GAME_STATE replaces.
func newBattle(side core.Side, cfg config.GameConfig, seed int64) (*battle.Context, error) {
	if side != core.Blue {
		return battle.NewContext(core.NewGrid(1, 1, core.Flat)), nil
	}

	rng := rand.New(rand.NewSource(seed))
	rows, cols := cfg.Rows, cfg.Cols
	if cols <= 0 {
		rows, cols = scenario.Dimensions(rows)
	}
	grid, err := scenario.GenerateMap(rows, cols, rng, scenario.DefaultMapOptions(rows))
	if err != nil {
		return nil, fmt.Errorf("failed to generate map: %w", err)
	}

	counts := scenario.DefaultCounts()
	if len(cfg.Units) > 0 {
		if counts, err = scenario.ParseCounts(cfg.Units); err != nil {
			return nil, err
		}
	}
	units, err := scenario.PlaceUnits(grid, counts, rng)
	if err != nil {
		Logger.Warn("Some units could not be placed", "error", err)
	}

	ctx := battle.NewContext(grid)
	for _, u := range units {
		if err := ctx.Add(u); err != nil {
			return nil, err
		}
	}
	ctx.GameMinutes = scenario.StartMinutes
	Logger.Info("Battlefield generated", "rows", rows, "cols", cols, "units", len(units))
	return ctx, nil
}

func curve(c config.CurveConfig) combat.Curve {
	return combat.Curve{
		DamageScale:      c.DamageScale,
		Randomness:       c.Randomness,
		Exponent:         c.Exponent,
		VictoryThreshold: c.VictoryThreshold,
		DrawFraction:     c.DrawFraction,
	}
}

func summarizer(b storage.Backend) storage.Summarizer {
	if s, ok := b.(storage.Summarizer); ok {
		return s
	}
	return nil
}

// connectTelemetry returns nil when influx is disabled or neither the server nor the backup file is usable
func connectTelemetry(ctx context.Context) *influx.Manager {
	cfg := config.GetInfluxConfig()
	if !cfg.Enabled {
		return nil
	}
	m := influx.NewManager(cfg, componentZerolog("influx"), dataPath("telemetry", "lp.gz"))
	if err := m.Connect(ctx); err != nil {
		Logger.Warn("Telemetry disabled", "error", err)
		return nil
	}
	return m
}
