package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/questera/webintel/internal/config"
	"github.com/questera/webintel/internal/core/ports"
	"github.com/questera/webintel/internal/core/registry"
	"github.com/questera/webintel/internal/core/usecase"
	"github.com/questera/webintel/internal/infrastructure/provider/graphdb"
	"github.com/questera/webintel/internal/infrastructure/provider/linkup"
	"github.com/questera/webintel/internal/infrastructure/provider/serper"
	"github.com/questera/webintel/internal/infrastructure/provider/tavily"
	"github.com/questera/webintel/internal/infrastructure/resilience"
	"github.com/questera/webintel/internal/infrastructure/stream/natspub"
	"github.com/questera/webintel/internal/observability/logging"
	"github.com/questera/webintel/internal/observability/metrics"
)

type App struct {
	Config  config.Config
	Logger  *slog.Logger
	Metrics *metrics.SearchMetrics

	Registry   *registry.Registry
	Engine     *usecase.AggregationEngine
	Dispatcher *usecase.ConversationalDispatcher

	closeFn func()
}

// New wires the process: providers are registered in a fixed order
// (registry declaration order is the selection tie-break) and the
// registry is frozen before anything serves traffic.
func New(_ context.Context, cfg config.Config) (*App, error) {
	logger := logging.Setup("webintel", cfg.LogLevel)
	searchMetrics := metrics.NewSearchMetrics("api")

	executorCfg := resilience.ProviderCallConfig()
	executorCfg.BreakerEnabled = cfg.BreakerEnabled
	executor := resilience.NewExecutor(executorCfg)

	reg := registry.New()
	var closers []func()

	if cfg.SerperAPIKey != "" {
		client := serper.New(serper.Config{
			APIKey:         cfg.SerperAPIKey,
			BaseURL:        cfg.SerperBaseURL,
			RateLimitRPS:   cfg.ProviderRateLimitRPS,
			RateLimitBurst: cfg.ProviderRateLimitBurst,
			Executor:       executor,
		})
		if err := reg.Register(client); err != nil {
			return nil, fmt.Errorf("register serper: %w", err)
		}
	}
	if cfg.LinkupAPIKey != "" {
		client := linkup.New(linkup.Config{
			APIKey:         cfg.LinkupAPIKey,
			BaseURL:        cfg.LinkupBaseURL,
			RateLimitRPS:   cfg.ProviderRateLimitRPS,
			RateLimitBurst: cfg.ProviderRateLimitBurst,
			Executor:       executor,
		})
		if err := reg.Register(client); err != nil {
			return nil, fmt.Errorf("register linkup: %w", err)
		}
	}
	if cfg.TavilyAPIKey != "" {
		client := tavily.New(tavily.Config{
			APIKey:         cfg.TavilyAPIKey,
			BaseURL:        cfg.TavilyBaseURL,
			RateLimitRPS:   cfg.ProviderRateLimitRPS,
			RateLimitBurst: cfg.ProviderRateLimitBurst,
			Executor:       executor,
		})
		if err := reg.Register(client); err != nil {
			return nil, fmt.Errorf("register tavily: %w", err)
		}
	}
	if cfg.Neo4jURI != "" {
		client, err := graphdb.New(graphdb.Config{
			URI:            cfg.Neo4jURI,
			Username:       cfg.Neo4jUser,
			Password:       cfg.Neo4jPassword,
			Database:       cfg.Neo4jDatabase,
			ProfileBaseURL: cfg.GraphProfileURL,
			Executor:       executor,
		})
		if err != nil {
			return nil, fmt.Errorf("init graph provider: %w", err)
		}
		if err := reg.Register(client); err != nil {
			return nil, fmt.Errorf("register graph provider: %w", err)
		}
		closers = append(closers, func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Close(closeCtx)
		})
	}

	if len(reg.All()) == 0 {
		return nil, fmt.Errorf("no search providers configured")
	}
	reg.Freeze()

	selector := usecase.NewStrategySelector(reg, usecase.Budgets{
		Fast:          time.Duration(cfg.BudgetFastMs) * time.Millisecond,
		Balanced:      time.Duration(cfg.BudgetBalancedMs) * time.Millisecond,
		Comprehensive: time.Duration(cfg.BudgetComprehensiveMs) * time.Millisecond,
	})
	engine := usecase.NewAggregationEngine(reg, selector, searchMetrics, cfg.HybridGraphWeight)

	var publisher ports.FragmentPublisher
	if cfg.NATSURL != "" {
		natsPublisher, err := natspub.New(cfg.NATSURL, cfg.NATSStreamSubject)
		if err != nil {
			return nil, fmt.Errorf("init stream publisher: %w", err)
		}
		publisher = natsPublisher
		closers = append(closers, natsPublisher.Close)
	}

	dispatcher := usecase.NewConversationalDispatcher(engine, publisher, searchMetrics, cfg.StreamChunkChars)

	return &App{
		Config:     cfg,
		Logger:     logger,
		Metrics:    searchMetrics,
		Registry:   reg,
		Engine:     engine,
		Dispatcher: dispatcher,
		closeFn: func() {
			for _, closeFn := range closers {
				closeFn()
			}
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
