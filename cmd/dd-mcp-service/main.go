package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ddlabs/dd-mcp-service/internal/bootstrap"
	"github.com/ddlabs/dd-mcp-service/pkg/contextkeys"
)

func main() {
	// Create a root context for the application.
	ctx := context.Background()
	ctx = context.WithValue(ctx, contextkeys.RequestIDKey, "app-main")

	// Initialize the application using the Wire-generated injector.
	app, cleanup, err := bootstrap.InitializeApp(ctx)
	if err != nil {
		// A very basic log if bootstrap fails, as the main logger isn't available.
		fmt.Printf("Failed to initialize application: %v\n", err)
		os.Exit(1)
	}
	// Defer the cleanup function to ensure resources are released on exit.
	defer cleanup()

	// Run the application.
	// The Run method in App struct handles server start and graceful shutdown.
	if err := app.Run(ctx); err != nil {
		fmt.Printf("Application run failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Application exited gracefully.")
}
