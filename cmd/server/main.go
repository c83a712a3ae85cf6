package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"nextcloud-notes/internal/config"
	"nextcloud-notes/internal/logger"
	"nextcloud-notes/internal/server"
)

func main() {
	configFile := flag.String("config", "config.yml", "path to config file")
	flag.Parse()

	// .env не обязателен
	_ = godotenv.Load()

	// Загружаем конфигурацию из файла
	appConfig, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Error initializing config: %v", err)
	}
	if err := config.Validate(appConfig.Emulator); err != nil {
		log.Fatalf("Error validating config: %v", err)
	}

	appLogger := logger.New(appConfig.Logger, os.Stderr)

	srv, err := server.NewServer(appConfig.Emulator, appLogger)
	if err != nil {
		appLogger.Fatalf("Error creating server: %v", err)
	}
	if err := srv.Initialize(); err != nil {
		appLogger.Fatalf("Error initializing server: %v", err)
	}

	// Канал для graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := srv.Start()

	// Ожидание сигнала или ошибки
	select {
	case err := <-errChan:
		appLogger.Fatalf("Server error: %v", err)
	case sig := <-sigChan:
		appLogger.Infof("Received signal: %v. Starting graceful shutdown...", sig)
	}

	if err := srv.Shutdown(); err != nil {
		appLogger.WithError(err).Error("Shutdown finished with error")
		os.Exit(1)
	}
}
