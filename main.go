package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/imramesh222/chat-application/modules/api"
	"github.com/imramesh222/chat-application/modules/auth"
	"github.com/imramesh222/chat-application/modules/chat"
	"github.com/imramesh222/chat-application/modules/stats"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
)

const shutdownTimeout = 30 * time.Second

func main() {
	log.Println("=== Chat Application ===")

	// Create mono application
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// Create modules
	authModule := auth.NewModule()
	chatModule := chat.NewModule()
	statsModule := stats.NewModule()
	apiModule := api.NewModule(chatModule, statsModule)

	// Register modules with the framework.
	// Order: independent modules first, then modules with dependencies
	// - auth: accounts, tokens, sessions (ServiceProviderModule)
	// - chat: rooms, message log, broadcast engine (EventEmitterModule)
	// - stats: per-room activity counters (EventConsumerModule)
	// - api: Fiber HTTP/WebSocket gateway (depends on auth)
	app.Register(authModule)
	app.Register(chatModule)
	app.Register(statsModule)
	app.Register(apiModule)

	// Start application
	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo()

	// Graceful shutdown
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo() {
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":3000"
	}

	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Printf("REST API Endpoints (http://localhost%s):", addr)
	log.Println("")
	log.Println("  Public Endpoints:")
	log.Println("  POST   /api/v1/auth/register      - Register a new user")
	log.Println("  POST   /api/v1/auth/login         - Login and get a session token")
	log.Println("  GET    /api/v1/rooms              - List all rooms")
	log.Println("  GET    /api/v1/rooms/:id          - Get room details")
	log.Println("  GET    /health                    - Health check")
	log.Println("")
	log.Println("  Protected Endpoints (require Bearer token):")
	log.Println("  POST   /api/v1/auth/logout        - Revoke the current session")
	log.Println("  GET    /api/v1/me                 - Get current user profile")
	log.Println("  POST   /api/v1/rooms              - Create a new room")
	log.Println("  DELETE /api/v1/rooms/:id          - Delete a room (owner or admin)")
	log.Println("  GET    /api/v1/rooms/:id/messages - Get message history")
	log.Println("  GET    /api/v1/rooms/:id/stats    - Get room activity counters")
	log.Println("")
	log.Printf("WebSocket Endpoint (ws://localhost%s/ws/:roomID):", addr)
	log.Println("  Connect with: ws://localhost:3000/ws/<room-id>?token=<session-token>")
	log.Println("  Each inbound text frame is broadcast to the room; the last 50")
	log.Println("  messages are replayed on connect, oldest first")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
