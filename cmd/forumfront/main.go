package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/gommon/log"
	"golang.org/x/sync/errgroup"

	"github.com/eringen/forumfront"
	"github.com/eringen/forumfront/views"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		if err := serve(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "version":
		fmt.Printf("forumfront %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func serve() error {
	cfg, err := forumfront.LoadConfig(os.Args[2:]...)
	if err != nil {
		return err
	}

	app := forumfront.New(cfg, views.Funcs(cfg))
	app.Echo.HideBanner = true
	app.Echo.Logger.SetLevel(log.INFO)
	defer app.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		app.Echo.Logger.Infof("forumfront %s listening on %s (backend %s)", version, cfg.Addr, cfg.BackendURL)
		return app.Start()
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case <-ctx.Done():
			return nil
		case sig := <-quit:
			app.Echo.Logger.Infof("received %s, shutting down", sig)
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return app.Echo.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func printUsage() {
	fmt.Println(`forumfront - web front-end for the forum backend

Usage:
  forumfront <command> [arguments]

Commands:
  serve [env files]   Start the web server (reads .env by default)
  version             Print the forumfront version
  help                Show this help message

Environment:
  SESSION_SECRET, GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET are required.
  BACKEND_URL points at the forum backend (default http://localhost:5000).`)
}
