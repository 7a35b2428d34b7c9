package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"refi-agent/config"
	"refi-agent/domain"
	httpLayer "refi-agent/http"
	"refi-agent/logger"
	"refi-agent/repository"
	"refi-agent/service"
)

func main() {
	stock := domain.DefaultAnalysisInput()

	var (
		configPath = flag.String("config", "", "optional config file (yaml, toml or json)")
		serve      = flag.Bool("serve", false, "start the HTTP API instead of a one-shot analysis")
		format     = flag.String("format", "markdown", "output format: markdown, term or json")

		amount    = flag.Float64("amount", stock.LoanAmount, "original loan amount")
		rate      = flag.Float64("rate", stock.RatePct, "original annual interest rate in percent (e.g. 6.625)")
		term      = flag.Int("term", stock.TermMonths, "original loan term in months (e.g. 360 for 30 years)")
		paid      = flag.Int("paid", stock.PaymentsMade, "number of payments already made")
		sellYear  = flag.Int("sell-year", stock.SellYear, "planned year of sale")
		sellMonth = flag.Int("sell-month", stock.SellMonth, "planned month of sale (1=Jan, 12=Dec)")
		costsPct  = flag.Float64("costs-pct", stock.ClosingCostPct, "closing costs as a fraction of remaining principal (e.g. 0.02 for 2%)")
	)
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		LogFile:     cfg.LogFile,
		MaxSize:     50,
		MaxAge:      7,
		MaxBackups:  3,
		Compress:    true,
		Development: cfg.DebugLogging,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	input := cfg.AnalysisInput()

	// Only flags the user actually passed override the configured
	// scenario.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "amount":
			input.LoanAmount = *amount
		case "rate":
			input.RatePct = *rate
		case "term":
			input.TermMonths = *term
		case "paid":
			input.PaymentsMade = *paid
		case "sell-year":
			input.SellYear = *sellYear
		case "sell-month":
			input.SellMonth = *sellMonth
		case "costs-pct":
			input.ClosingCostPct = *costsPct
		}
	})

	analysisRepo := repository.NewAnalysisRepositoryMemory()

	var cache repository.AnalysisCache
	if cfg.RedisAddr != "" {
		redisCache, err := repository.NewRedisCache(cfg.RedisAddr, log)
		if err != nil {
			log.Warn("redis unavailable, using in-memory cache",
				zap.String("addr", cfg.RedisAddr), zap.Error(err))
			cache = repository.NewMockCache()
		} else {
			log.Info("analysis cache on redis", zap.String("addr", cfg.RedisAddr))
			cache = redisCache
		}
	} else {
		cache = repository.NewMockCache()
	}

	refinanceService := service.NewRefinanceService(analysisRepo, cache, log)

	if !*serve {
		runOnce(refinanceService, input, *format, log)
		return
	}

	runServer(cfg, refinanceService, input, log)
}

func runOnce(svc *service.RefinanceService, input domain.AnalysisInput, format string, log *zap.Logger) {
	report, err := svc.Analyze(input)
	if err != nil {
		log.Error("analysis failed", zap.Error(err))
		os.Exit(1)
	}

	switch format {
	case "markdown":
		fmt.Print(service.RenderMarkdown(report))
	case "term":
		fmt.Print(service.RenderTerminal(report))
	case "json":
		out, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			log.Error("encoding report", zap.Error(err))
			os.Exit(1)
		}
		fmt.Println(string(out))
	default:
		log.Error("unknown output format", zap.String("format", format))
		os.Exit(1)
	}
}

func runServer(cfg *config.Config, svc *service.RefinanceService, defaults domain.AnalysisInput, log *zap.Logger) {
	analyzeHandler := httpLayer.NewAnalyzeHandler(svc, defaults, log)
	reportHandler := httpLayer.NewReportHandler(svc, defaults, log)
	recentHandler := httpLayer.NewRecentHandler(svc, log)

	rateLimiter := httpLayer.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute, log)
	defer rateLimiter.Stop()

	mux := http.NewServeMux()
	mux.Handle(
		"/refinance/analyze",
		httpLayer.RateLimitMiddleware(
			rateLimiter,
			log,
			http.HandlerFunc(analyzeHandler.Analyze),
		),
	)

	mux.Handle(
		"/refinance/report",
		httpLayer.RateLimitMiddleware(
			rateLimiter,
			log,
			http.HandlerFunc(reportHandler.Report),
		),
	)

	mux.Handle(
		"/refinance/recent",
		httpLayer.RateLimitMiddleware(
			rateLimiter,
			log,
			http.HandlerFunc(recentHandler.Recent),
		),
	)

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("🚀 refinance API listening", zap.String("addr", cfg.ListenAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Error("server failed to start", zap.Error(err))
		return
	case <-quit:
		log.Info("shutting down server...")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("error during server shutdown", zap.Error(err))
	}

	log.Info("server exited")
}
