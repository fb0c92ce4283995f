package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rickgao/marketpulse/internal/model"
)

// refreshQuery is the dashboard message that triggers a refresh.
const refreshQuery = "refresh all"

type errorResponse struct {
	Error string `json:"error"`
}

type addAssetRequest struct {
	Symbol   string          `json:"symbol"`
	Name     string          `json:"name"`
	Type     model.AssetType `json:"type"`
	Currency string          `json:"currency,omitempty"`
	Price    *float64        `json:"price,omitempty"`
}

type queryRequest struct {
	Message string `json:"message"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	state := s.svc.State()

	health := struct {
		Status     string         `json:"status"`
		Components map[string]any `json:"components"`
	}{
		Status:     "healthy",
		Components: make(map[string]any),
	}

	health.Components["snapshot"] = map[string]any{
		"lastUpdated":  state.LastUpdated,
		"isRefreshing": state.IsRefreshing,
		"news":         len(state.News),
		"assets":       len(state.Assets),
		"alerts":       len(state.Alerts),
	}
	health.Components["registry"] = map[string]any{
		"tracked": len(s.svc.TrackedAssets()),
	}
	if state.LastUpdated == nil {
		health.Status = "degraded"
	}

	writeJSON(w, http.StatusOK, health)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.State())
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.refreshAndRespond(w, r)
}

func (s *Server) handleListAssets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.TrackedAssets())
}

func (s *Server) handleAddAsset(w http.ResponseWriter, r *http.Request) {
	var req addAssetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.Symbol = strings.TrimSpace(req.Symbol)
	req.Name = strings.TrimSpace(req.Name)

	if req.Symbol == "" || req.Name == "" || req.Type == "" {
		writeError(w, http.StatusBadRequest, "Missing required fields: symbol, name, type")
		return
	}
	if !req.Type.Valid() {
		writeError(w, http.StatusBadRequest, "Invalid asset type: "+string(req.Type))
		return
	}
	if !req.Type.Trackable() {
		writeError(w, http.StatusBadRequest, "Asset type cannot be tracked: "+string(req.Type))
		return
	}

	ref := model.TrackedAssetRef{
		Symbol:   req.Symbol,
		Name:     req.Name,
		Type:     req.Type,
		Currency: req.Currency,
		Price:    req.Price,
	}
	// The registry write must not be cut short by the client going away.
	if !s.svc.AddAsset(context.WithoutCancel(r.Context()), ref) {
		writeError(w, http.StatusConflict, "Asset already exists")
		return
	}
	s.logger.Info("asset added", "symbol", ref.Symbol, "type", ref.Type)

	s.refreshAndRespond(w, r)
}

func (s *Server) handleRemoveAsset(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")
	if !s.svc.RemoveAsset(context.WithoutCancel(r.Context()), symbol) {
		writeError(w, http.StatusNotFound, "Asset not tracked: "+symbol)
		return
	}
	s.logger.Info("asset removed", "symbol", symbol)

	s.refreshAndRespond(w, r)
}

// handleQuery answers the dashboard agent endpoint. Any message returns the
// current state; "refresh all" refreshes first.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if strings.EqualFold(strings.TrimSpace(req.Message), refreshQuery) {
		if _, err := s.svc.Refresh(r.Context()); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	writeJSON(w, http.StatusOK, s.svc.State())
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	s.hub.Serve(w, r, s.svc.State)
}

func (s *Server) refreshAndRespond(w http.ResponseWriter, r *http.Request) {
	state, err := s.svc.Refresh(r.Context())
	if err != nil {
		s.logger.Warn("refresh request failed", "err", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
