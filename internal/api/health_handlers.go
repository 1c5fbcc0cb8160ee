package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "healthCheck",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Returns tag store state and the number of undoable bot replies",
		Tags:        []string{"Health"},
	}, s.handleHealthCheck)
}

// ComponentHealth describes the health of a single component.
type ComponentHealth struct {
	Status  string `json:"status" doc:"Component status: healthy or degraded"`
	Message string `json:"message,omitempty" doc:"Additional status information"`
}

// StoreHealth reports the tag collection.
type StoreHealth struct {
	ComponentHealth
	Loaded bool `json:"loaded" doc:"Whether the tag document has been read yet"`
	Guilds int  `json:"guilds" doc:"Guilds with at least one tag"`
	Tags   int  `json:"tags" doc:"Total number of tags"`
}

// LedgerHealth reports the deletion ledger.
type LedgerHealth struct {
	ComponentHealth
	Pending int `json:"pending" doc:"Bot replies that can still be undone"`
}

// HealthResponse contains health check data in API responses.
type HealthResponse struct {
	Status string       `json:"status" doc:"Overall status: healthy or degraded"`
	Store  StoreHealth  `json:"store" doc:"Tag store state"`
	Ledger LedgerHealth `json:"ledger" doc:"Deletion ledger state"`
}

// HealthOutput wraps the health response for Huma.
type HealthOutput struct {
	Body HealthResponse
}

func (s *Server) handleHealthCheck(_ context.Context, _ *struct{}) (*HealthOutput, error) {
	resp := HealthResponse{
		Status: "healthy",
		Store:  s.checkStore(),
		Ledger: s.checkLedger(),
	}
	if resp.Store.Status != "healthy" || resp.Ledger.Status != "healthy" {
		resp.Status = "degraded"
	}

	return &HealthOutput{Body: resp}, nil
}

func (s *Server) checkStore() StoreHealth {
	if s.store == nil {
		return StoreHealth{ComponentHealth: ComponentHealth{Status: "degraded", Message: "store not configured"}}
	}

	stats := s.store.Stats()
	h := StoreHealth{
		ComponentHealth: ComponentHealth{Status: "healthy"},
		Loaded:          stats.Loaded,
		Guilds:          stats.Guilds,
		Tags:            stats.Tags,
	}
	if !stats.Loaded {
		h.Message = "tag document is read on first use"
	}
	return h
}

func (s *Server) checkLedger() LedgerHealth {
	if s.ledger == nil {
		return LedgerHealth{ComponentHealth: ComponentHealth{Status: "degraded", Message: "ledger not configured"}}
	}

	pending := s.ledger.Len()
	return LedgerHealth{
		ComponentHealth: ComponentHealth{Status: "healthy", Message: formatPending(pending)},
		Pending:         pending,
	}
}

func formatPending(count int) string {
	switch count {
	case 0:
		return "no undoable replies"
	case 1:
		return "1 undoable reply"
	default:
		return strconv.Itoa(count) + " undoable replies"
	}
}
