package http

import (
	"context"
	"net/http"

	"github.com/ddlabs/dd-mcp-service/internal/adapters/config"
	"github.com/ddlabs/dd-mcp-service/internal/adapters/middleware"
	"github.com/ddlabs/dd-mcp-service/internal/application"
	"github.com/ddlabs/dd-mcp-service/internal/domain"
)

// Router registers the REST endpoints of the service on an http.ServeMux.
type Router struct {
	logger     domain.Logger
	config     config.Provider
	cache      domain.CacheStore
	scores     *application.ScoreService
	biomarkers *application.BiomarkerService
	protocols  *application.ProtocolService
}

// NewRouter creates a new Router.
func NewRouter(
	logger domain.Logger,
	cfgProvider config.Provider,
	cache domain.CacheStore,
	scores *application.ScoreService,
	biomarkers *application.BiomarkerService,
	protocols *application.ProtocolService,
) *Router {
	return &Router{
		logger:     logger,
		config:     cfgProvider,
		cache:      cache,
		scores:     scores,
		biomarkers: biomarkers,
		protocols:  protocols,
	}
}

// RegisterRoutes attaches all endpoints to the mux. Functional endpoints are
// wrapped with request-ID, recovery, and credentials-auth middleware; /health
// stays unauthenticated.
func (rt *Router) RegisterRoutes(ctx context.Context, mux *http.ServeMux) {
	authed := func(h http.HandlerFunc) http.Handler {
		auth := middleware.CredentialsAuthMiddleware(rt.config, rt.logger)
		recovery := middleware.RecoveryMiddleware(rt.logger)
		return middleware.RequestIDMiddleware(recovery(auth(h)))
	}

	mux.Handle("GET /health", middleware.RequestIDMiddleware(http.HandlerFunc(rt.handleHealth)))

	mux.Handle("GET /getDdScore", authed(rt.handleGetScores))
	mux.Handle("GET /getMeasurements", authed(rt.biomarkersByCategory("Measurements")))
	mux.Handle("GET /getCapabilities", authed(rt.biomarkersByCategory("Capabilities")))
	mux.Handle("GET /getBiomarkers", authed(rt.biomarkersByCategory("Biomarkers")))
	mux.Handle("GET /getAllBiomarkers", authed(rt.handleAllBiomarkers))
	mux.Handle("GET /getUserProtocols", authed(rt.handleUserProtocols))
	mux.Handle("POST /createUserProtocol", authed(rt.handleCreateProtocol))
	mux.Handle("POST /createUserProtocolSection", authed(rt.handleCreateProtocolSection))

	rt.logger.Info(ctx, "REST endpoints registered")
}
