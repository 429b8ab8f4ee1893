package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/skemino/skemino-server-go/internal/config"
	"github.com/skemino/skemino-server-go/internal/game"
	"github.com/skemino/skemino-server-go/internal/game/board"
	"github.com/skemino/skemino-server-go/internal/game/notation"
	"github.com/skemino/skemino-server-go/internal/game/rules"
	"github.com/skemino/skemino-server-go/internal/player"
	"github.com/skemino/skemino-server-go/internal/repository"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	games      = flag.Int("games", -1, "number of self-play games (overrides selfplay.games)")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *games >= 0 {
		cfg.SelfPlay.Games = *games
	}

	// Initialize logger
	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting skemino",
		zap.String("version", version),
		zap.String("config", *configPath),
		zap.Int("games", cfg.SelfPlay.Games),
	)

	// Create context that listens for termination signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	}()

	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("self-play failed", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("skemino stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	var repo *repository.GameRepository
	if cfg.Database.URL != "" {
		db, err := repository.NewDB(ctx, cfg.Database, logger)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := repository.Migrate(ctx, db); err != nil {
			return err
		}
		repo = repository.NewGameRepository(db)
	}

	mgr := game.NewManager(logger)
	var recorder *game.ReplayRecorder
	if cfg.Replay.Enabled {
		recorder = game.NewReplayRecorder(logger, cfg.Replay.Directory)
		mgr.SetRecorder(recorder)
	}

	wins := make(map[board.Color]int)
	for i := 0; i < cfg.SelfPlay.Games; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		id, err := mgr.CreateGame(gameOptions(cfg.Game, i, logger))
		if err != nil {
			return err
		}
		result, err := playGame(mgr, id, botSeed(cfg.Game.Seed, i), logger)
		if err != nil {
			return fmt.Errorf("game %s: %w", id, err)
		}
		wins[result.winner]++

		if recorder != nil {
			if err := recorder.Save(id); err != nil {
				logger.Warn("failed to save replay", zap.String("game_id", id), zap.Error(err))
			}
		}
		if repo != nil {
			if err := repo.SaveGame(ctx, result.snapshot); err != nil {
				return err
			}
		}
		mgr.Remove(id)
	}

	logger.Info("self-play finished",
		zap.Int("games", cfg.SelfPlay.Games),
		zap.Int("white_wins", wins[board.White]),
		zap.Int("black_wins", wins[board.Black]),
		zap.Int("undecided", wins[board.None]),
	)
	return nil
}

func gameOptions(cfg config.GameConfig, i int, logger *zap.Logger) game.Options {
	opts := game.Options{
		HandSize:    cfg.HandSize,
		InitialTime: cfg.InitialTime,
		Scoring: rules.Scoring{
			VertexBonus:    cfg.VertexBonus,
			ExclusiveBonus: cfg.ExclusiveVertexBonus,
		},
		Logger: logger,
	}
	if cfg.Seed != 0 {
		seed := cfg.Seed + uint64(i)
		opts.Rand = rand.New(rand.NewPCG(seed, seed))
	}
	return opts
}

func botSeed(seed uint64, i int) uint64 {
	if seed == 0 {
		return rand.Uint64()
	}
	return seed ^ uint64(i)<<32
}

type gameResult struct {
	winner   board.Color
	snapshot *game.Snapshot
}

// playGame plays one bot-vs-bot game through the manager.
func playGame(mgr *game.Manager, id string, seed uint64, logger *zap.Logger) (gameResult, error) {
	bots := map[board.Color]player.Player{
		board.White: player.NewSeededRandomBot("white", seed),
		board.Black: player.NewSeededRandomBot("black", seed+1),
	}

	var result gameResult
	err := mgr.Do(id, func(e *game.Engine) error {
		opening, err := e.SetupInitialPosition()
		if err != nil {
			return err
		}
		logger.Debug("opening", zap.String("game_id", id), zap.String("psn", notation.Format(opening)))

		for e.Status() == rules.StatusActive {
			state := e.GetGameState()
			started := time.Now()
			mv, err := bots[state.Turn].ChooseMove(state.Turn, state.Hand(state.Turn).Cards(), e.ValidMovesForCard)
			if err != nil {
				return err
			}
			mv.ThinkTime = time.Since(started)

			if err := e.UpdatePlayerTime(state.Turn, mv.ThinkTime); err != nil {
				return err
			}
			if e.Status() != rules.StatusActive {
				break // flag fell
			}
			res, err := e.ApplyMove(mv)
			if err != nil {
				return err
			}
			logger.Debug("move",
				zap.String("game_id", id),
				zap.Int("turn", res.Move.Turn),
				zap.String("player", res.Move.Player.String()),
				zap.String("psn", notation.Format(res.Move)),
			)
		}

		final := e.GetGameState()
		scores := e.CalculateScores()
		logger.Info("game finished",
			zap.String("game_id", id),
			zap.String("winner", final.Winner.String()),
			zap.String("condition", string(final.VictoryCondition)),
			zap.String("end_reason", string(final.EndReason)),
			zap.Int("moves", len(final.Moves)),
			zap.Int("white_score", scores.White),
			zap.Int("black_score", scores.Black),
			zap.String("psn", notation.FormatMoves(final.Moves)),
		)
		result = gameResult{winner: final.Winner, snapshot: e.Snapshot()}
		return nil
	})
	return result, err
}

// initLogger initializes the zap logger based on configuration
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
