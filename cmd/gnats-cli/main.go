package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"

	"github.com/gowire/gnats"
)

var cli struct {
	Servers      []string      `help:"Server addresses." default:"127.0.0.1:4222"`
	Name         string        `help:"Connection name sent in CONNECT." default:"gnats-cli"`
	User         string        `help:"Username for authentication."`
	Pass         string        `help:"Password for authentication."`
	Token        string        `help:"Auth token."`
	Timeout      time.Duration `help:"Dial and I/O timeout." default:"5s"`
	PingInterval time.Duration `help:"Keepalive PING interval." default:"30s"`
	Debug        bool          `help:"Enable debug logging."`
}

func main() {
	kctx := kong.Parse(&cli,
		kong.Name("gnats-cli"),
		kong.Description("Connect to a server, print its INFO, and keep the connection alive."))

	zcfg := zap.NewProductionConfig()
	if cli.Debug {
		zcfg = zap.NewDevelopmentConfig()
		zcfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	zl, err := zcfg.Build()
	kctx.FatalIfErrorf(err)
	defer zl.Sync()
	log := zapr.NewLogger(zl)

	opts := gnats.DefaultOptions()
	opts.Name = cli.Name
	opts.User = cli.User
	opts.Pass = cli.Pass
	opts.AuthToken = cli.Token
	opts.ConnTimeout = cli.Timeout
	opts.PingInterval = cli.PingInterval
	opts.Logger = log

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	servers := gnats.NewServerList(cli.Servers...)
	conn, err := gnats.Connect(ctx, opts, servers)
	kctx.FatalIfErrorf(err)
	defer conn.Close()

	done := make(chan error, 1)
	go func() { done <- conn.Run(ctx) }()

	// Give the handshake a moment, then print what the server told us.
	time.Sleep(500 * time.Millisecond)
	info := conn.ServerInfo()
	fmt.Printf("server   %s (%s)\n", info.ID, info.Version)
	fmt.Printf("host     %s:%d\n", info.Host, info.Port)
	fmt.Printf("payload  %d bytes max\n", info.MaxPayload)
	if len(info.ConnectURLs) > 0 {
		fmt.Printf("cluster  %v\n", info.ConnectURLs)
	}

	err = <-done
	if err != nil && ctx.Err() == nil {
		log.Error(err, "connection failed")
		os.Exit(1)
	}

	stats := conn.Stats()
	fmt.Printf("bytes in/out: %d/%d, pings sent: %d, infos: %d\n",
		stats.BytesIn, stats.BytesOut, stats.PingsSent, stats.InfosReceived)
}
