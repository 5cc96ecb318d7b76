package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"bookshelf/internal/adapter/httpapi"
	"bookshelf/internal/infra/config"
	"bookshelf/internal/infra/logger"
	"bookshelf/internal/infra/tracer"
)

const defaultConfigPath = "bookshelf.yaml"

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "--help", "-h", "help":
			showUsage()
			return
		case "doctor":
			if err := runDoctor(os.Stdout, configPath(os.Args)); err != nil {
				fmt.Fprintf(os.Stderr, "doctor: %v\n", err)
				os.Exit(1)
			}
			return
		}
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func showUsage() {
	fmt.Println(`bookshelf - store and retrieve books over HTTP

USAGE:
    bookshelf [COMMAND] [FLAGS]

COMMANDS:
    doctor      Check configuration, storage and listen address

FLAGS:
    --config PATH   Config file (default: bookshelf.yaml, env: BOOKSHELF_CONFIG)
    -h, --help      Show this help

ROUTES:
    POST   /save            Save the JSON book in the request body
    GET    /get/{name}      Fetch a book by name
    DELETE /delete/{name}   Delete a book by name`)
}

func run() error {
	cfg, err := config.Load(configPath(os.Args))
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, closeLog, err := logger.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer closeLog()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := initStore(cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	defer func() {
		if err := closeStore(); err != nil {
			log.Warn("storage close", logger.Err(err))
		}
	}()

	shutdownTracer, err := tracer.Setup(ctx, cfg.Tracer, tracer.Identity{
		Version:    version,
		Backend:    store.Name(),
		ListenAddr: cfg.Server.Addr,
	})
	if err != nil {
		return fmt.Errorf("tracer: %w", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			log.Warn("tracer shutdown", logger.Err(err))
		}
	}()

	srv := httpapi.NewServer(store, httpapi.OptionsFromConfig(cfg.Server), log)
	return srv.Start(ctx)
}

// configPath resolves --config, then BOOKSHELF_CONFIG, then the default.
func configPath(args []string) string {
	for i, arg := range args {
		if arg == "--config" && i+1 < len(args) {
			return args[i+1]
		}
		if strings.HasPrefix(arg, "--config=") {
			return strings.TrimPrefix(arg, "--config=")
		}
	}
	if p := os.Getenv("BOOKSHELF_CONFIG"); p != "" {
		return p
	}
	return defaultConfigPath
}
