package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"speckit/internal/gateway/app"
	"speckit/internal/gateway/logging"
)

func main() {
	closer := logging.Setup(os.Getenv("LOG_FILE"), os.Stderr)
	defer closer.Close()

	a, err := app.New()
	if err != nil {
		log.Fatalf("Failed to initialize app: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.Run(ctx); err != nil {
		log.Printf("Server error: %v", err)
	}
}
