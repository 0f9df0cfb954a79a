package rpc

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"acdmchain/core/events"
	"acdmchain/native/governance"
	"acdmchain/native/platform"
	"acdmchain/native/staking"
	"acdmchain/native/token"
)

// Server exposes the native engines over HTTP. All amounts travel as decimal
// strings; addresses are bech32 with the acdm prefix.
//
// The engines assume the fully sequential execution model of the original
// contracts: every operation reads, decides, and writes with nothing
// interleaved. stateMu enforces that model at the concurrency boundary by
// admitting one engine request at a time.
type Server struct {
	market  *platform.Engine
	vault   *staking.Engine
	dao     *governance.Engine
	ledger  *token.Ledger
	events  *events.Recorder
	logger  *slog.Logger
	limiter *rate.Limiter

	metricsPath string
	stateMu     sync.Mutex
}

// Options bundles the server dependencies.
type Options struct {
	Platform   *platform.Engine
	Staking    *staking.Engine
	Governance *governance.Engine
	Ledger     *token.Ledger
	// Events is the recorder the engines emit into; nil disables the feed.
	Events *events.Recorder
	Logger *slog.Logger
	// Rate limiting of request admission; nil disables it.
	Limiter *rate.Limiter
	// MetricsPath overrides the prometheus endpoint path. Empty means /metrics.
	MetricsPath string
}

func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metricsPath := opts.MetricsPath
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	return &Server{
		market:      opts.Platform,
		vault:       opts.Staking,
		dao:         opts.Governance,
		ledger:      opts.Ledger,
		events:      opts.Events,
		logger:      logger,
		limiter:     opts.Limiter,
		metricsPath: metricsPath,
	}
}

// Router assembles the HTTP routes. Engine routes pass through the
// serializing mutex; the metrics endpoint stays concurrent.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.observe)
	r.Use(s.throttle)

	r.Group(func(r chi.Router) {
		s.engineRoutes(r)
	})

	r.Handle(s.metricsPath, promhttp.Handler())
	return r
}

func (s *Server) engineRoutes(r chi.Router) {
	r.Use(s.serialize)

	r.Route("/v1/platform", func(r chi.Router) {
		r.Get("/round", s.handleRound)
		r.Post("/sale/start", s.handleStartSale)
		r.Post("/trade/start", s.handleStartTrade)
		r.Post("/buy", s.handleBuy)
		r.Post("/register", s.handleRegister)
		r.Get("/referrer/{address}", s.handleReferrerOf)
		r.Post("/orders", s.handleAddOrder)
		r.Get("/orders/{id}", s.handleGetOrder)
		r.Post("/orders/{id}/redeem", s.handleRedeemOrder)
		r.Delete("/orders/{id}", s.handleRemoveOrder)
	})

	r.Route("/v1/staking", func(r chi.Router) {
		r.Post("/stake", s.handleStake)
		r.Post("/unstake", s.handleUnstake)
		r.Post("/claim", s.handleClaim)
		r.Get("/position/{address}", s.handlePosition)
		r.Get("/total", s.handleTotalStaked)
	})

	r.Route("/v1/governance", func(r chi.Router) {
		r.Post("/proposals", s.handlePropose)
		r.Get("/proposals/{id}", s.handleGetProposal)
		r.Post("/proposals/{id}/votes", s.handleVote)
		r.Post("/proposals/{id}/finalize", s.handleFinalize)
		r.Post("/proposals/{id}/execute", s.handleExecute)
		r.Get("/locks/{address}", s.handleVoteLock)
	})

	r.Route("/v1/token", func(r chi.Router) {
		r.Get("/{symbol}/balance/{address}", s.handleBalance)
		r.Get("/{symbol}/supply", s.handleSupply)
		r.Post("/{symbol}/approve", s.handleApprove)
		r.Post("/{symbol}/transfer", s.handleTransfer)
	})

	r.Get("/v1/events", s.handleEvents)
}
