package mcp

import (
	"context"
	"fmt"
	"sync"

	"risksim/internal/config"
	"risksim/internal/results"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

// Server exposes the loss simulation engine as MCP tools.
type Server struct {
	cfg   *config.AppConfig
	store *results.Store
	sdk   *sdk.Server

	saveMu sync.Mutex
}

// NewServer creates a new MCP server backed by store.
func NewServer(cfg *config.AppConfig, store *results.Store, version string) (*Server, error) {
	s := &Server{
		cfg:   cfg,
		store: store,
		sdk:   sdk.NewServer(&sdk.Implementation{Name: "risksim", Version: version}, nil),
	}
	if err := s.registerTools(); err != nil {
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}
	return s, nil
}

// Run serves MCP over stdio until the client disconnects or ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	log.Info().Str("cache", s.cfg.CacheDir).Msg("Serving MCP over stdio")
	return s.sdk.Run(ctx, &sdk.StdioTransport{})
}

// Connect serves a single session over t.
func (s *Server) Connect(ctx context.Context, t sdk.Transport) (*sdk.ServerSession, error) {
	return s.sdk.Connect(ctx, t, nil)
}

// persist writes the store to the cache directory. Failures are logged; the
// in-memory record stays available for the session.
func (s *Server) persist() {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	if err := s.store.Save(s.cfg.CacheDir); err != nil {
		log.Error().Err(err).Str("path", s.cfg.CacheDir).Msg("Failed to persist simulation results")
	}
}
