package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"breakout-algo-trader/internal/api"
	"breakout-algo-trader/internal/data"
	"breakout-algo-trader/internal/executor"
	"breakout-algo-trader/internal/model"
	"breakout-algo-trader/internal/risk"
	"breakout-algo-trader/internal/service"
	"breakout-algo-trader/internal/state"
	"breakout-algo-trader/internal/strategy"
	"breakout-algo-trader/internal/telemetry"
	"breakout-algo-trader/internal/trade"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	var configPath string
	var csvBacktest string
	var backtestCapital float64
	flag.StringVar(&configPath, "config", "config", "Path to the config directory")
	flag.StringVar(&csvBacktest, "backtest", "", "Path to CSV bars (time,open,high,low,close); runs a backtest instead of live")
	flag.Float64Var(&backtestCapital, "capital", 4000000, "Starting capital for backtests")
	flag.Parse()

	// Secrets come from .env; missing file just means plain env vars.
	_ = godotenv.Load()

	service.InitLogger()
	defer service.Logger.Sync()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		service.Logger.Fatal("Configuration directory not found", zap.String("path", configPath))
	}
	cfg := service.LoadConfig(configPath)

	interval, err := service.ParseIntervalDuration(cfg.Session.BarInterval)
	if err != nil {
		service.Logger.Fatal("Invalid bar interval", zap.Error(err))
	}
	openHour, openMinute, err := service.ParseClock(cfg.Session.Open)
	if err != nil {
		service.Logger.Fatal("Invalid session open", zap.Error(err))
	}
	loc, err := time.LoadLocation(cfg.Session.Timezone)
	if err != nil {
		service.Logger.Fatal("Invalid session timezone", zap.Error(err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Metrics and health endpoint.
	if cfg.Metrics.Port > 0 {
		mux := http.NewServeMux()
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("ok\n"))
		})
		mux.Handle("/metrics", promhttp.Handler())
		srv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Metrics.Port), Handler: mux}
		go func() {
			service.Logger.Info("Serving metrics", zap.Int("port", cfg.Metrics.Port))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				service.Logger.Fatal("Metrics server failed", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, c := context.WithTimeout(context.Background(), 2*time.Second)
			defer c()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	source := strategy.NewOpeningRangeBreakout(openHour, openMinute, interval, service.Logger)

	if csvBacktest != "" {
		runBacktest(ctx, cfg, source, interval, loc, csvBacktest, backtestCapital)
		return
	}
	runLive(ctx, cfg, source, interval, loc)
}

func buildSink(cfg *service.Config) telemetry.Sink {
	return telemetry.NewHub(
		telemetry.NewJournal(cfg.Journal.Path, service.Logger),
		telemetry.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, service.Logger),
		telemetry.NewMetrics(),
	)
}

func runLive(ctx context.Context, cfg *service.Config, source *strategy.OpeningRangeBreakout, interval time.Duration, loc *time.Location) {
	sink := buildSink(cfg)

	venue := executor.NewKiteExecutor(&executor.KiteConfig{
		RESTURL:       cfg.Exchange.RESTURL,
		APIKey:        cfg.Exchange.APIKey,
		AccessToken:   cfg.Exchange.AccessToken,
		TradingSymbol: cfg.Exchange.TradingSymbol,
		Exchange:      cfg.Exchange.Exchange,
		Product:       cfg.Exchange.Product,
	}, service.Logger)

	initialCapital, err := venue.FetchAvailableCapital(ctx)
	if err != nil {
		service.Logger.Error("Could not fetch initial capital", zap.Error(err))
		sink.Notify("ALERT: Could not fetch account capital. Bot is shutting down.")
		return
	}

	ledger := risk.NewLedger(initialCapital, service.Logger)
	telemetry.SetCapital(ledger.Current(), ledger.HighWater())
	sizer := risk.NewSizer(cfg.Risk.RiskPerTradePct, cfg.Risk.MaxAllocationPct, cfg.Risk.LotSize, service.Logger)

	store := state.NewStore(cfg.State.Path, service.Logger)
	controller := trade.NewController(venue, ledger, sizer, source, sink, store, trade.Config{
		RewardMultiple:    cfg.Risk.RewardMultiple,
		MaxDailyDrawdownR: cfg.Risk.MaxDailyDrawdownR,
	}, service.Logger)

	// Resume an open position rather than re-entering it after a restart.
	if snap, err := store.Load(); err != nil {
		service.Logger.Warn("Could not load state snapshot", zap.Error(err))
	} else {
		controller.RestoreSnapshot(snap)
	}

	connector := api.NewConnector(cfg.Exchange.WSURL, []int64{cfg.Exchange.InstrumentToken})
	go connector.Start()

	collector := data.NewTickCollector(cfg.Exchange.InstrumentToken)
	go func() {
		for t := range connector.TickChannel() {
			collector.Append(t)
		}
	}()

	sink.Notify("Trading bot is LIVE and listening for data.")
	service.Logger.Info("Live loop started",
		zap.Duration("interval", interval),
		zap.Int("grace_seconds", cfg.Session.GraceSeconds))

	grace := time.Duration(cfg.Session.GraceSeconds) * time.Second
	var lastBoundary time.Time
	var currentDay string

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			service.Logger.Info("Shutting down trading bot")
			sink.Notify("Trading bot has been shut down.")
			return
		case now := <-ticker.C:
			now = now.In(loc)
			boundary := now.Truncate(interval)
			// Process each interval once, after the grace delay lets the
			// closing minute's ticks arrive.
			if !boundary.After(lastBoundary) || now.Sub(boundary) < grace {
				continue
			}
			lastBoundary = boundary

			ticks := collector.Drain()
			bar, ok := data.BuildBar(ticks, boundary)
			if !ok {
				continue
			}
			service.Logger.Info("New bar formed",
				zap.Time("ts", bar.Timestamp),
				zap.Float64("open", bar.Open), zap.Float64("high", bar.High),
				zap.Float64("low", bar.Low), zap.Float64("close", bar.Close))

			handleSessionRollover(ctx, controller, source, bar, &currentDay)
			controller.OnBar(ctx, bar)
		}
	}
}

// handleSessionRollover runs the day-boundary duties on the first bar of a
// new session: gap handling for a held position first, then the daily reset
// once flat.
func handleSessionRollover(ctx context.Context, controller *trade.Controller, source *strategy.OpeningRangeBreakout, bar model.Bar, currentDay *string) {
	day := bar.Timestamp.Format("2006-01-02")
	if day == *currentDay {
		return
	}
	first := *currentDay == ""
	*currentDay = day
	if first {
		return
	}

	controller.HandleGapOpen(ctx, bar.Open, bar.Timestamp)
	if !controller.Active() {
		controller.DayReset()
		source.ResetForNewDay()
	}
}

func runBacktest(ctx context.Context, cfg *service.Config, source *strategy.OpeningRangeBreakout, interval time.Duration, loc *time.Location, csvPath string, capital float64) {
	service.Logger.Info("Starting backtest", zap.String("bars", csvPath))

	bars, err := readBarsCSV(csvPath, loc)
	if err != nil {
		service.Logger.Fatal("Could not read backtest bars", zap.Error(err))
	}
	service.Logger.Info("Loaded bars", zap.Int("count", len(bars)))

	sink := telemetry.NewHub(
		telemetry.NewJournal(cfg.Journal.Path, service.Logger),
		telemetry.NewMetrics(),
	)

	venue := executor.NewSimExecutor(&executor.SimConfig{InitialCapital: capital}, service.Logger)
	ledger := risk.NewLedger(capital, service.Logger)
	sizer := risk.NewSizer(cfg.Risk.RiskPerTradePct, cfg.Risk.MaxAllocationPct, cfg.Risk.LotSize, service.Logger)

	controller := trade.NewController(venue, ledger, sizer, source, sink, nil, trade.Config{
		RewardMultiple:    cfg.Risk.RewardMultiple,
		MaxDailyDrawdownR: cfg.Risk.MaxDailyDrawdownR,
	}, service.Logger)

	var currentDay string
	for _, bar := range bars {
		venue.MarkPrice(bar.Close, bar.Timestamp)
		handleSessionRollover(ctx, controller, source, bar, &currentDay)
		controller.OnBar(ctx, bar)
	}

	printSummary(controller.ClosedTrades(), capital, ledger.Current())
}

func printSummary(trades []model.TradeRecord, startCapital, endCapital float64) {
	var wins int
	var netPnL, totalR float64
	for _, t := range trades {
		if t.PnL > 0 {
			wins++
		}
		netPnL += t.PnL
		totalR += t.RMultiple
	}

	fmt.Println("--- BACKTEST SUMMARY ---")
	fmt.Printf("Trades:         %d\n", len(trades))
	if len(trades) > 0 {
		fmt.Printf("Win rate:       %.1f%%\n", float64(wins)/float64(len(trades))*100)
	}
	fmt.Printf("Net PnL:        %.2f\n", netPnL)
	fmt.Printf("Total R:        %.2f\n", totalR)
	fmt.Printf("Start capital:  %.2f\n", startCapital)
	fmt.Printf("End capital:    %.2f\n", endCapital)
}

// readBarsCSV parses "time,open,high,low,close" rows. A header row is
// detected and skipped.
func readBarsCSV(path string, loc *time.Location) ([]model.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}

	var bars []model.Bar
	for i, row := range rows {
		if len(row) < 5 {
			return nil, fmt.Errorf("row %d: expected 5 columns, got %d", i+1, len(row))
		}
		ts, err := parseBarTime(row[0], loc)
		if err != nil {
			if i == 0 {
				continue // header
			}
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}

		vals := make([]float64, 4)
		for j := 1; j <= 4; j++ {
			v, err := strconv.ParseFloat(row[j], 64)
			if err != nil {
				return nil, fmt.Errorf("row %d col %d: %w", i+1, j+1, err)
			}
			vals[j-1] = v
		}

		bars = append(bars, model.Bar{
			Timestamp: ts,
			Open:      vals[0],
			High:      vals[1],
			Low:       vals[2],
			Close:     vals[3],
		})
	}
	return bars, nil
}

func parseBarTime(s string, loc *time.Location) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts.In(loc), nil
	}
	return time.ParseInLocation("2006-01-02 15:04:05", s, loc)
}
