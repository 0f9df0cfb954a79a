package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/time/rate"
	"gopkg.in/natefinch/lumberjack.v2"

	"acdmchain/config"
	"acdmchain/core/events"
	"acdmchain/crypto"
	"acdmchain/native/governance"
	"acdmchain/native/platform"
	"acdmchain/native/staking"
	"acdmchain/native/token"
	"acdmchain/observability/logging"
	"acdmchain/rpc"
	"acdmchain/state"
	"acdmchain/storage"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("ACDM_ENV"))

	cfg, err := config.Load(*configFile)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	var logOut io.Writer
	if strings.TrimSpace(cfg.Log.File) != "" {
		logOut = &lumberjack.Logger{
			Filename:   cfg.Log.File,
			MaxSize:    cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAge:     cfg.Log.MaxAgeDays,
			Compress:   true,
		}
	}
	logger := logging.Setup("acdmd", env, logging.ParseLevel(cfg.Log.Level), logOut)

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		panic(fmt.Sprintf("Failed to open database: %v", err))
	}
	defer db.Close()

	manager := state.NewManager(db)
	if err := seedParams(manager, cfg); err != nil {
		logger.Error("Failed to seed module parameters", slog.Any("error", err))
		os.Exit(1)
	}
	if err := applyPauses(manager, cfg.Pauses); err != nil {
		logger.Error("Failed to apply pauses", slog.Any("error", err))
		os.Exit(1)
	}

	market, vault, dao, ledger, recorder, err := buildEngines(manager, logger)
	if err != nil {
		logger.Error("Failed to wire engines", slog.Any("error", err))
		os.Exit(1)
	}
	if err := applyGenesis(manager, ledger, crypto.ModuleAddress("staking"), cfg.Genesis); err != nil {
		logger.Error("Failed to seed genesis balances", slog.Any("error", err))
		os.Exit(1)
	}

	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.Burst)
	server := rpc.NewServer(rpc.Options{
		Platform:    market,
		Staking:     vault,
		Governance:  dao,
		Ledger:      ledger,
		Events:      recorder,
		Logger:      logger,
		Limiter:     limiter,
		MetricsPath: cfg.MetricsPath,
	})

	httpServer := &http.Server{
		Addr:              cfg.RPCAddress,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("rpc listening", "address", cfg.RPCAddress, "network", cfg.NetworkName)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("rpc server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("shutdown failed", slog.Any("error", err))
	}
}

// seedParams writes the configured module parameters on first boot. Values
// already mutated by governance are left alone.
func seedParams(manager *state.Manager, cfg *config.Config) error {
	if _, ok, err := manager.PlatformParams(); err != nil {
		return err
	} else if !ok {
		params := &platform.Params{
			RoundSeconds:      cfg.Platform.RoundSeconds,
			BuyFirstPerMille:  cfg.Platform.BuyFirstPerMille,
			BuySecondPerMille: cfg.Platform.BuySecondPerMille,
			RedeemPerMille:    cfg.Platform.RedeemPerMille,
		}
		if err := manager.SetPlatformParams(params); err != nil {
			return err
		}
	}
	if _, ok, err := manager.StakingParams(); err != nil {
		return err
	} else if !ok {
		params := &staking.Params{
			FreezeSeconds: cfg.Staking.FreezeSeconds,
			RewardPercent: cfg.Staking.RewardPercent,
		}
		if err := manager.SetStakingParams(params); err != nil {
			return err
		}
	}
	if _, ok, err := manager.GovParams(); err != nil {
		return err
	} else if !ok {
		params := &governance.Params{
			DebateSeconds: cfg.Governance.DebateSeconds,
			QuorumBps:     cfg.Governance.QuorumBps,
		}
		if err := manager.SetGovParams(params); err != nil {
			return err
		}
	}
	return nil
}

func applyPauses(manager *state.Manager, pauses config.Pauses) error {
	for module, paused := range map[string]bool{
		"platform":   pauses.Platform,
		"staking":    pauses.Staking,
		"governance": pauses.Governance,
	} {
		if err := manager.SetPaused(module, paused); err != nil {
			return err
		}
	}
	return nil
}

// eventSink fans engine events into the retained feed and the structured log.
type eventSink struct {
	recorder *events.Recorder
	logger   *slog.Logger
}

func (s *eventSink) Emit(evt events.Event) {
	s.recorder.Emit(evt)
	s.logger.Info("engine event", "type", evt.EventType())
}

// eventWindow bounds the in-memory feed served at /v1/events.
const eventWindow = 4096

// buildEngines wires the ledger and the three native engines over the shared
// state manager. The governance module address owns the platform and staking
// parameter surfaces; the platform owns the sale token; the staking vault
// owns both staking-side tokens. Every engine emits into the returned
// recorder.
func buildEngines(manager *state.Manager, logger *slog.Logger) (*platform.Engine, *staking.Engine, *governance.Engine, *token.Ledger, *events.Recorder, error) {
	platformAddr := crypto.ModuleAddress("platform")
	stakingAddr := crypto.ModuleAddress("staking")
	governanceAddr := crypto.ModuleAddress("governance")

	recorder := &events.Recorder{Limit: eventWindow}
	sink := &eventSink{recorder: recorder, logger: logger}

	ledger := token.NewLedger()
	ledger.SetState(manager)
	ledger.SetEmitter(sink)
	for symbol, owner := range map[string][20]byte{
		token.SymbolACDM: platformAddr,
		token.SymbolSTK:  stakingAddr,
		token.SymbolRWD:  stakingAddr,
	} {
		if _, ok, err := manager.TokenOwner(symbol); err != nil {
			return nil, nil, nil, nil, nil, err
		} else if !ok {
			if err := ledger.SetOwner(owner, symbol, owner); err != nil {
				return nil, nil, nil, nil, nil, err
			}
		}
	}

	market := platform.NewEngine(ledger)
	market.SetState(manager)
	market.SetPauses(manager)
	market.SetEmitter(sink)
	market.SetModuleAddress(platformAddr)
	market.SetAuthority(governanceAddr)

	vault := staking.NewEngine(ledger)
	vault.SetState(manager)
	vault.SetPauses(manager)
	vault.SetEmitter(sink)
	vault.SetModuleAddress(stakingAddr)
	vault.SetAuthority(governanceAddr)

	dao := governance.NewEngine()
	dao.SetState(manager)
	dao.SetPauses(manager)
	dao.SetEmitter(sink)
	dao.SetPowers(vault)
	dao.SetExecutor(&governance.ParamExecutor{Platform: market, Staking: vault, Caller: governanceAddr})
	vault.SetVoteLocks(dao)

	return market, vault, dao, ledger, recorder, nil
}
