package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/peerdex/peerdex/params"
	"github.com/peerdex/peerdex/pkg/api"
	"github.com/peerdex/peerdex/pkg/exchange"
	"github.com/peerdex/peerdex/pkg/node"
	"github.com/peerdex/peerdex/pkg/p2p"
	"github.com/peerdex/peerdex/pkg/util"
)

func main() {
	cfg := params.LoadFromEnv("") // "" means load .env from the current directory

	logger, err := util.NewLoggerWithFile(cfg.Node.LogFile)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- Matching engine ----
	book := exchange.NewOrderBook(util.RealClock{})

	// ---- P2P transport ----
	net, err := p2p.NewNet(ctx, p2p.Config{
		ListenAddr:     cfg.P2P.ListenAddr,
		Bootstrap:      cfg.P2P.Bootstrap,
		DialRetries:    cfg.P2P.DialRetries,
		RetryDelay:     cfg.P2P.RetryDelay,
		PublishTimeout: cfg.P2P.PublishTimeout,
		Logger:         sugar,
	})
	if err != nil {
		sugar.Fatalw("p2p_init_failed", "err", err)
	}
	defer net.Close()

	// ---- Node and API ----
	nd := node.New(book, net, sugar, util.RealClock{})
	apiServer := api.NewServer(nd, sugar)
	nd.OnFill = apiServer.BroadcastTrade

	// Installing the handler makes the receive path live; the node must be
	// fully wired before remote orders can reach it.
	net.SetHandler(nd.HandleRemote)

	go func() {
		if err := apiServer.Start(cfg.API.Addr); err != nil {
			sugar.Fatalw("api_server_failed", "err", err)
		}
	}()

	sugar.Infow("node_started",
		"listen", cfg.P2P.ListenAddr,
		"bootstrap_peers", len(cfg.P2P.Bootstrap),
		"api_addr", cfg.API.Addr)

	// Periodic book snapshot for WebSocket subscribers.
	ticker := time.NewTicker(cfg.P2P.AnnounceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			sugar.Info("shutting down")
			return
		case <-ticker.C:
			apiServer.BroadcastOrderbook()
		}
	}
}
