package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/abdoElHodaky/matchbook/internal/api"
	"github.com/abdoElHodaky/matchbook/internal/config"
	"github.com/abdoElHodaky/matchbook/internal/matcherr"
	"github.com/abdoElHodaky/matchbook/internal/matching"
	"github.com/abdoElHodaky/matchbook/internal/metrics"
	"github.com/abdoElHodaky/matchbook/internal/types"
)

const (
	AppName    = "matchbook - single-instrument limit order book matching engine"
	AppVersion = "1.0.0"
)

func main() {
	if len(os.Args) < 2 {
		runServe(os.Args[1:])
		return
	}

	switch os.Args[1] {
	case "serve":
		runServe(os.Args[2:])
	case "replay":
		runReplay(os.Args[2:])
	case "version":
		fmt.Printf("%s v%s\n", AppName, AppVersion)
	case "help", "--help", "-h":
		printUsage()
	default:
		runServe(os.Args[1:])
	}
}

func printUsage() {
	fmt.Printf("%s v%s\n", AppName, AppVersion)
	fmt.Println("Usage: engine <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  serve    - Run the HTTP/websocket facade (default)")
	fmt.Println("  replay   - Replay a JSON-lines intent stream from stdin")
	fmt.Println("  version  - Show version information")
	fmt.Println("  help     - Show this help message")
}

func loadEngineConfig(configPath string) (*config.EngineConfig, *matching.Orderbook) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	book := matching.NewOrderbook(
		types.Asset(cfg.Engine.OrderAsset),
		types.Asset(cfg.Engine.PriceAsset),
		matching.WithStallBudget(cfg.Engine.StallBudget),
		matching.WithCapacity(cfg.Engine.InitialCapacity),
	)
	return cfg, book
}

// runServe exposes the engine over the gin/websocket/prometheus facade
// described in SPEC_FULL.md §3, grounded on cmd/tradsys/main.go's
// runServer (graceful shutdown on SIGINT/SIGTERM, HTTP server with
// explicit timeouts).
func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "path to a YAML config file")
	fs.Parse(args)

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := config.InitLogger(cfg)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	book := matching.NewOrderbook(
		types.Asset(cfg.Engine.OrderAsset),
		types.Asset(cfg.Engine.PriceAsset),
		matching.WithLogger(logger),
		matching.WithStallBudget(cfg.Engine.StallBudget),
		matching.WithCapacity(cfg.Engine.InitialCapacity),
	)

	registry := prometheus.NewRegistry()
	router, _ := api.NewRouter(book, logger, registry)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Sugar().Infof("matchbook serving on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}
}

// replayLine is the JSON-lines wire shape runReplay reads from stdin —
// intentionally permissive (all fields optional strings), generalizing
// original_source/orderbook/src/bin/example.rs's fixed, scripted order
// list into an arbitrary input stream.
type replayLine struct {
	Type  string `json:"type"`
	ID    string `json:"id"`
	Side  string `json:"side"`
	Price string `json:"price"`
	Qty   string `json:"qty"`
}

// runReplay reads newline-delimited JSON intents from stdin, feeds them
// one at a time to a single Orderbook, and prints the resulting events
// plus the spread after each — the Go analogue of example.rs's scripted
// main().
func runReplay(args []string) {
	fs := flag.NewFlagSet("replay", flag.ExitOnError)
	configPath := fs.String("config", "", "path to a YAML config file")
	fs.Parse(args)

	cfg, book := loadEngineConfig(*configPath)
	fmt.Printf("matchbook replay — order_asset=%s price_asset=%s\n", cfg.Engine.OrderAsset, cfg.Engine.PriceAsset)

	registry := prometheus.NewRegistry()
	sampler := metrics.NewSampler(metrics.NewEngineMetrics(registry))

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		var rl replayLine
		if err := json.Unmarshal([]byte(line), &rl); err != nil {
			fmt.Printf("skipping malformed line: %v\n", matcherr.Wrap(matcherr.CodeInput, "malformed replay line", err))
			continue
		}

		intent, err := replayIntent(rl, book)
		if err != nil {
			fmt.Printf("skipping invalid intent: %v\n", err)
			continue
		}

		events := book.ProcessOrder(intent)
		sampler.Observe(book.Stats(), book.BidDepthCount(), book.AskDepthCount())
		fmt.Printf("intent => %+v\n", intent)
		for _, e := range events {
			payload, _ := types.MarshalEvent(e)
			fmt.Printf("  event => %s\n", payload)
		}

		if bid, ask, ok := book.CurrentSpread(); ok {
			fmt.Printf("spread => bid: %s, ask: %s\n\n", bid, ask)
		} else {
			fmt.Println("spread => not available")
			fmt.Println()
		}
	}
	if err := scanner.Err(); err != nil {
		log.Fatalf("error reading stdin: %v", err)
	}

	stats := book.Stats()
	fmt.Printf("replay stats => orders_processed=%d trades_executed=%d rebuilds=%d\n", stats.OrdersProcessed, stats.TradesExecuted, stats.Rebuilds)
}

func replayIntent(rl replayLine, book *matching.Orderbook) (types.Intent, error) {
	side := types.OrderSide(rl.Side)
	if side != types.SideBid && side != types.SideAsk {
		return nil, matcherr.New(matcherr.CodeUnknownSide, fmt.Sprintf("unknown side %q", rl.Side))
	}
	now := time.Now()

	switch rl.Type {
	case "market":
		qty, err := decimal.NewFromString(rl.Qty)
		if err != nil {
			return nil, matcherr.Wrap(matcherr.CodeInput, "invalid qty", err)
		}
		return types.NewMarketIntent(book.OrderAsset(), book.PriceAsset(), side, qty, now), nil
	case "limit":
		price, err := decimal.NewFromString(rl.Price)
		if err != nil {
			return nil, matcherr.Wrap(matcherr.CodeInput, "invalid price", err)
		}
		qty, err := decimal.NewFromString(rl.Qty)
		if err != nil {
			return nil, matcherr.Wrap(matcherr.CodeInput, "invalid qty", err)
		}
		return types.NewLimitIntent(book.OrderAsset(), book.PriceAsset(), side, price, qty, now), nil
	case "amend":
		id, err := uuid.Parse(rl.ID)
		if err != nil {
			return nil, matcherr.Wrap(matcherr.CodeInput, "invalid order id", err)
		}
		price, err := decimal.NewFromString(rl.Price)
		if err != nil {
			return nil, matcherr.Wrap(matcherr.CodeInput, "invalid price", err)
		}
		qty, err := decimal.NewFromString(rl.Qty)
		if err != nil {
			return nil, matcherr.Wrap(matcherr.CodeInput, "invalid qty", err)
		}
		return types.AmendIntent(id, side, price, qty, now), nil
	case "cancel":
		id, err := uuid.Parse(rl.ID)
		if err != nil {
			return nil, matcherr.Wrap(matcherr.CodeInput, "invalid order id", err)
		}
		return types.CancelIntent(id, side), nil
	default:
		return nil, matcherr.New(matcherr.CodeInput, fmt.Sprintf("unknown intent type %q", rl.Type))
	}
}
