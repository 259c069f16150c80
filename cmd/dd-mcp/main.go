package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ddlabs/dd-mcp-service/internal/adapters/config"
	"github.com/ddlabs/dd-mcp-service/internal/adapters/logger"
	appredis "github.com/ddlabs/dd-mcp-service/internal/adapters/redis"
	"github.com/ddlabs/dd-mcp-service/internal/adapters/upstream"
	"github.com/ddlabs/dd-mcp-service/internal/application"
	"github.com/ddlabs/dd-mcp-service/internal/bootstrap"
)

// The MCP binary exposes the same operations as the REST service as stdio
// MCP tools, using the configured fallback credentials. It shares the
// application services and adapters with the HTTP server but wires them by
// hand: stdout belongs to the MCP stream, so only stderr logging is allowed.
func main() {
	ctx := context.Background()

	// zap.NewProduction writes to stderr, which is what stdio transport needs.
	initialLogger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create initial logger: %v\n", err)
		os.Exit(1)
	}
	defer initialLogger.Sync()

	cfgProvider, err := config.NewViperProvider(ctx, initialLogger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	appCfg := cfgProvider.Get()

	appLogger, err := logger.NewStderrZapAdapter(cfgProvider, appCfg.App.ServiceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}

	if appCfg.Auth.FallbackToken == "" || appCfg.Auth.FallbackClientID == "" {
		appLogger.Fatal(ctx, "MCP mode requires auth.fallback_token and auth.fallback_client_id to be configured")
	}

	redisClient, redisCleanup, err := bootstrap.RedisClientProvider(cfgProvider, appLogger)
	if err != nil {
		appLogger.Fatal(ctx, "Failed to connect to Redis", "error", err.Error())
	}
	defer redisCleanup()

	cacheStore := appredis.NewCacheStoreAdapter(redisClient, appLogger)
	upstreamClient := upstream.NewClient(cfgProvider, appLogger)

	identity := application.NewIdentityService(appLogger, cfgProvider, cacheStore, upstreamClient)
	categories := application.NewCategoryService(appLogger, cfgProvider, cacheStore, upstreamClient)
	scores := application.NewScoreService(appLogger, identity, upstreamClient)
	biomarkers := application.NewBiomarkerService(appLogger, categories, upstreamClient)
	protocols := application.NewProtocolService(appLogger, identity, upstreamClient)

	mcpServer := server.NewMCPServer(
		appCfg.App.ServiceName,
		appCfg.App.Version,
		server.WithToolCapabilities(true),
	)

	// Score tools
	mcpServer.AddTool(createGetDdScoreTool(), handleGetDdScore(scores, cfgProvider, appLogger))

	// Biomarker tools
	mcpServer.AddTool(createGetMeasurementsTool(), handleBiomarkersByCategory(biomarkers, cfgProvider, appLogger, "Measurements"))
	mcpServer.AddTool(createGetCapabilitiesTool(), handleBiomarkersByCategory(biomarkers, cfgProvider, appLogger, "Capabilities"))
	mcpServer.AddTool(createGetBiomarkersTool(), handleBiomarkersByCategory(biomarkers, cfgProvider, appLogger, "Biomarkers"))
	mcpServer.AddTool(createGetAllBiomarkersTool(), handleGetAllBiomarkers(biomarkers, cfgProvider, appLogger))

	// Protocol tools
	mcpServer.AddTool(createGetUserProtocolsTool(), handleGetUserProtocols(protocols, cfgProvider, appLogger))
	mcpServer.AddTool(createCreateUserProtocolTool(), handleCreateUserProtocol(protocols, cfgProvider, appLogger))
	mcpServer.AddTool(createCreateUserProtocolSectionTool(), handleCreateUserProtocolSection(protocols, cfgProvider, appLogger))

	// Start server (blocks on stdio)
	if err := server.ServeStdio(mcpServer); err != nil {
		appLogger.Fatal(ctx, "MCP server failed", "error", err.Error())
	}
}
