package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ddlabs/dd-mcp-service/internal/adapters/config"
	"github.com/ddlabs/dd-mcp-service/internal/application"
	"github.com/ddlabs/dd-mcp-service/internal/domain"
)

// fallbackCredentials reads the configured fallback token and client ID.
// main has already verified both are set; the config can still be hot-swapped
// at runtime, so read them per call.
func fallbackCredentials(cfgProvider config.Provider) domain.Credentials {
	authCfg := cfgProvider.Get().Auth
	return domain.Credentials{
		Token:    authCfg.FallbackToken,
		ClientID: authCfg.FallbackClientID,
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult(fmt.Sprintf("Failed to encode result: %v", err)), nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(string(encoded)),
		},
	}, nil
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			mcp.NewTextContent(msg),
		},
	}
}

// handleGetDdScore implements the get_dd_score tool
func handleGetDdScore(scores *application.ScoreService, cfgProvider config.Provider, logger domain.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		req := application.ScoreRequest{
			Date:      request.GetString("date", ""),
			StartDate: request.GetString("start_date", ""),
			EndDate:   request.GetString("end_date", ""),
		}
		if _, present := request.GetArguments()["days"]; present {
			days := request.GetInt("days", 0)
			req.Days = &days
		}

		results, err := scores.GetScores(ctx, fallbackCredentials(cfgProvider), req)
		if err != nil {
			logger.Error(ctx, "get_dd_score failed", "error", err.Error())
			return errorResult(fmt.Sprintf("Score fetch error: %v", err)), nil
		}
		return jsonResult(results)
	}
}

// handleBiomarkersByCategory implements the fixed-category biomarker tools
func handleBiomarkersByCategory(biomarkers *application.BiomarkerService, cfgProvider config.Provider, logger domain.Logger, categoryName string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		payload, err := biomarkers.GetByCategoryName(ctx, fallbackCredentials(cfgProvider), categoryName)
		if err != nil {
			logger.Error(ctx, "Biomarker tool failed", "category", categoryName, "error", err.Error())
			return errorResult(fmt.Sprintf("Biomarker fetch error: %v", err)), nil
		}
		return jsonResult(payload)
	}
}

// handleGetAllBiomarkers implements the get_all_biomarkers tool
func handleGetAllBiomarkers(biomarkers *application.BiomarkerService, cfgProvider config.Provider, logger domain.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		results, err := biomarkers.GetAll(ctx, fallbackCredentials(cfgProvider))
		if err != nil {
			logger.Error(ctx, "get_all_biomarkers failed", "error", err.Error())
			return errorResult(fmt.Sprintf("Biomarker fetch error: %v", err)), nil
		}
		return jsonResult(results)
	}
}

// handleGetUserProtocols implements the get_user_protocols tool
func handleGetUserProtocols(protocols *application.ProtocolService, cfgProvider config.Provider, logger domain.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		includeSections := request.GetBool("include_sections", false)

		records, err := protocols.List(ctx, fallbackCredentials(cfgProvider), includeSections)
		if err != nil {
			logger.Error(ctx, "get_user_protocols failed", "error", err.Error())
			return errorResult(fmt.Sprintf("Protocol fetch error: %v", err)), nil
		}
		return jsonResult(records)
	}
}

// handleCreateUserProtocol implements the create_user_protocol tool
func handleCreateUserProtocol(protocols *application.ProtocolService, cfgProvider config.Provider, logger domain.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		payload, ok := request.GetArguments()["protocol_data"].(map[string]any)
		if !ok {
			return errorResult("Error: protocol_data parameter is required and must be an object"), nil
		}

		created, err := protocols.Create(ctx, fallbackCredentials(cfgProvider), payload)
		if err != nil {
			logger.Error(ctx, "create_user_protocol failed", "error", err.Error())
			return errorResult(fmt.Sprintf("Protocol create error: %v", err)), nil
		}
		return jsonResult(created)
	}
}

// handleCreateUserProtocolSection implements the create_user_protocol_section tool
func handleCreateUserProtocolSection(protocols *application.ProtocolService, cfgProvider config.Provider, logger domain.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		protocolID, err := request.RequireString("protocol_id")
		if err != nil || protocolID == "" {
			return errorResult("Error: protocol_id parameter is required"), nil
		}
		payload, ok := request.GetArguments()["section_data"].(map[string]any)
		if !ok {
			return errorResult("Error: section_data parameter is required and must be an object"), nil
		}

		created, err := protocols.CreateSection(ctx, fallbackCredentials(cfgProvider), protocolID, payload)
		if err != nil {
			logger.Error(ctx, "create_user_protocol_section failed", "error", err.Error())
			return errorResult(fmt.Sprintf("Protocol section create error: %v", err)), nil
		}
		return jsonResult(created)
	}
}
