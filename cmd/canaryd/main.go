package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Log-Tools/event-canary/internal/service"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatalf("Usage: %s <config-file>", os.Args[0])
	}

	configPath := os.Args[1]

	ctx := context.Background()

	canaryService, err := service.NewCanaryMonitorServiceFromFile(ctx, configPath)
	if err != nil {
		log.Fatalf("❌ Failed to create canary monitor service: %v", err)
	}

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Printf("🛑 Received signal %v, initiating graceful shutdown...", sig)
		canaryService.Stop()
	}()

	if err := canaryService.Start(ctx); err != nil {
		log.Fatalf("❌ Service failed: %v", err)
	}
}
