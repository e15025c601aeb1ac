// Package server provides the HTTP server and routing for Compass.
package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hartfield/compass/internal/domain"
	"github.com/hartfield/compass/internal/registry"
	"github.com/hartfield/compass/internal/version"
)

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"version": version.Version,
		"service": "compass",
	})
}

// tierAndMode reads the tier path parameter and the mode query parameter.
// Unrecognized values normalize down, never up.
func tierAndMode(r *http.Request) (domain.Tier, domain.Mode) {
	tier := domain.ParseTier(chi.URLParam(r, "tier"))
	mode := domain.ParseMode(r.URL.Query().Get("mode"))
	return tier, mode
}

// handleGetContext returns the structured tier-aware context
// GET /api/context/{tier}?mode=live|demo
func (s *Server) handleGetContext(w http.ResponseWriter, r *http.Request) {
	tier, mode := tierAndMode(r)

	context := s.orch.GetTierAwareContext(r.Context(), tier, mode)
	s.writeJSON(w, http.StatusOK, context)
}

// FormattedContextResponse carries the prompt-ready context block
type FormattedContextResponse struct {
	Tier             string `json:"tier"`
	Mode             string `json:"mode"`
	FormattedContext string `json:"formatted_context"`
}

// handleGetFormattedContext returns the prompt-ready context string
// GET /api/context/{tier}/formatted?mode=live|demo
func (s *Server) handleGetFormattedContext(w http.ResponseWriter, r *http.Request) {
	tier, mode := tierAndMode(r)

	formatted := s.orch.GetFormattedContext(r.Context(), tier, mode)
	s.writeJSON(w, http.StatusOK, FormattedContextResponse{
		Tier:             string(tier),
		Mode:             string(mode),
		FormattedContext: formatted,
	})
}

// SourceInfo describes one data source in API responses
type SourceInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Provider    string `json:"provider"`
	CacheTTLSec int    `json:"cache_ttl_seconds"`
	Live        bool   `json:"live"`
}

// SourcesResponse lists source availability for a tier
type SourcesResponse struct {
	Tier               string       `json:"tier"`
	Available          []SourceInfo `json:"available"`
	Unavailable        []SourceInfo `json:"unavailable"`
	UpgradeSuggestions []string     `json:"upgrade_suggestions"`
	TierLimitations    []string     `json:"tier_limitations"`
}

// handleGetSources returns the data source catalog for a tier
// GET /api/sources/{tier}
func (s *Server) handleGetSources(w http.ResponseWriter, r *http.Request) {
	tier := domain.ParseTier(chi.URLParam(r, "tier"))

	s.writeJSON(w, http.StatusOK, SourcesResponse{
		Tier:               string(tier),
		Available:          toSourceInfos(registry.SourcesForTier(tier)),
		Unavailable:        toSourceInfos(registry.UnavailableForTier(tier)),
		UpgradeSuggestions: registry.UpgradeSuggestions(tier),
		TierLimitations:    registry.TierLimitations(tier),
	})
}

func toSourceInfos(configs []registry.SourceConfig) []SourceInfo {
	infos := make([]SourceInfo, 0, len(configs))
	for _, c := range configs {
		infos = append(infos, SourceInfo{
			ID:          c.ID,
			Name:        c.Name,
			Description: c.Description,
			Category:    string(c.Category),
			Provider:    c.Provider,
			CacheTTLSec: int(c.CacheTTL.Seconds()),
			Live:        c.Live,
		})
	}
	return infos
}

// handleRefreshContext rebuilds the context summaries for every tier and mode
// POST /api/context/refresh
func (s *Server) handleRefreshContext(w http.ResponseWriter, r *http.Request) {
	s.log.Info().Msg("Manual context refresh triggered")

	s.orch.ForceRefreshAll(r.Context())

	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Market context refreshed for all tiers",
	})
}

// InvalidateCacheRequest is the body of POST /api/cache/invalidate
type InvalidateCacheRequest struct {
	Pattern string `json:"pattern"`
}

// handleInvalidateCache removes cache entries whose keys contain the pattern
// POST /api/cache/invalidate
func (s *Server) handleInvalidateCache(w http.ResponseWriter, r *http.Request) {
	var req InvalidateCacheRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{
			"status":  "error",
			"message": "invalid request body: " + err.Error(),
		})
		return
	}

	if req.Pattern == "" {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{
			"status":  "error",
			"message": "pattern is required",
		})
		return
	}

	removed := s.orch.InvalidateCache(req.Pattern)

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"pattern": req.Pattern,
		"removed": removed,
	})
}

// handleCacheStats returns cache sizes and keys for diagnostics
// GET /api/cache/stats
func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.orch.GetCacheStats())
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
