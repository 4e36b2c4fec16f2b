// Command genchat-web serves the browser chat surface.
//
// Usage:
//
//	GEMINI_API_KEY=gk-... genchat-web [flags]
//
// Flags:
//
//	-addr string    Listen address (overrides config file, default :7860)
//	-config string  Path to YAML config file
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/fwojciec/genchat"
	"github.com/fwojciec/genchat/gemini"
	"github.com/fwojciec/genchat/web"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "genchat-web: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		addr       = flag.String("addr", "", "Listen address (overrides config file)")
		configPath = flag.String("config", "", "Path to YAML config file")
	)
	flag.Parse()

	cfg, err := web.LoadConfig(*configPath)
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.Addr = *addr
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	factory := func(apiKey, model string) (genchat.Provider, error) {
		return gemini.New(ctx, apiKey)
	}

	server := web.NewServer(cfg, logger, factory,
		web.WithDefaultAPIKey(os.Getenv("GEMINI_API_KEY")))
	return server.Run(ctx)
}
