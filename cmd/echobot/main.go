package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/echo-fetch-go/api"
	"github.com/yourusername/echo-fetch-go/api/handlers"
	"github.com/yourusername/echo-fetch-go/internal/app"
	"github.com/yourusername/echo-fetch-go/internal/bot"
	"github.com/yourusername/echo-fetch-go/internal/infrastructure"
	"github.com/yourusername/echo-fetch-go/pkg/logger"
)

var (
	version    = "dev"
	configPath = flag.String("config", "", "Path to config file")
)

func main() {
	flag.Parse()

	config, err := app.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := app.ValidateBotConfig(&config.Bot); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid bot configuration: %v (set BOT_TOKEN)\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:      config.Logging.Level,
		Format:     config.Logging.Format,
		OutputPath: config.Logging.OutputPath,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	handlers.Version = version

	log.Info("Starting echo bot",
		zap.String("version", version),
		zap.Bool("http", config.Server.Enabled),
		zap.Duration("poll_timeout", config.Bot.PollTimeout))

	tgBot, err := infrastructure.NewTelegramBot(&config.Bot, log, false)
	if err != nil {
		log.Fatal("Failed to create bot", zap.Error(err))
	}

	responder := bot.NewResponder(config.Bot.Greeting, config.Bot.EchoPrefix, log)
	responder.Register(tgBot)

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		tgBot.Start()
	}()

	// Hosting platforms expect a bound port even for polling bots
	var server *http.Server
	if config.Server.Enabled {
		addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
		server = &http.Server{
			Addr:              addr,
			Handler:           api.SetupRouter(tgBot, log),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			log.Info("HTTP server listening", zap.String("addr", addr))
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatal("Failed to start server", zap.Error(err))
			}
		}()
	}

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down bot...")

	tgBot.Stop()
	select {
	case <-stopped:
	case <-time.After(config.Bot.PollTimeout + 5*time.Second):
		log.Warn("Poller did not stop in time")
	}

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("Server forced to shutdown", zap.Error(err))
		}
	}

	log.Info("Bot exited")
}
