package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/crispai/sitechat/internal/adapter/llm"
	"github.com/crispai/sitechat/internal/config"
	"github.com/crispai/sitechat/internal/repository"
	"github.com/crispai/sitechat/internal/service"
	handler "github.com/crispai/sitechat/internal/transport/http"
	"github.com/crispai/sitechat/internal/transport/ws"
	"github.com/crispai/sitechat/policy"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	log.Printf("Starting site chat...")
	log.Printf("HTTP Port: %d", cfg.HTTPPort)
	log.Printf("Database: %s", cfg.DatabaseURL)
	if cfg.IsMock() {
		log.Printf("Completion gateway: mock")
	} else {
		log.Printf("Completion gateway: %s (model %s)", cfg.LLMBaseURL, cfg.LLMModel)
	}

	// Initialize store
	db, err := store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer db.Close()

	// Initialize completion gateway
	llmClient := llm.NewLLMClient(cfg)

	// Initialize policy engine
	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	policyEngine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	if err != nil {
		log.Fatalf("Failed to initialize policy engine: %v", err)
	}

	// Initialize service
	svc := service.New(db, llmClient, cfg, policyEngine)

	// Initialize socket hub
	connectionHub := ws.NewHub()
	go connectionHub.Run(ctx)
	wsServer := ws.NewServer(cfg, connectionHub, svc)

	server := handler.NewServer(svc, wsServer)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := server.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	log.Printf("Chat API started on port %d", cfg.HTTPPort)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down site chat...")

	// Close sockets, then drain HTTP
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Failed to shutdown server gracefully: %v", err)
	}

	log.Println("Site chat stopped")
}
