// Package httpapi exposes the quotation engine and the proposal webhook
// over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/enersol/solar-pricing/internal/crmsync"
	"github.com/enersol/solar-pricing/internal/pricing"
)

// Processor handles an accepted proposal webhook after the HTTP response
// has been written.
type Processor interface {
	Run(ctx context.Context, locationID string, payload crmsync.ProposalPayload)
}

// Server carries the handler dependencies.
type Server struct {
	webhookURL string
	processor  Processor
}

// New creates a Server. webhookURL is the externally configured webhook
// target reported by GET /config.
func New(webhookURL string, processor Processor) *Server {
	return &Server{webhookURL: webhookURL, processor: processor}
}

// Router builds the chi router with permissive CORS, matching the
// front-end's expectation of being served from any origin.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: false,
	}))

	r.Get("/", s.handleHome)
	r.Get("/config", s.handleConfig)
	r.Post("/calculate", s.handleCalculate)
	r.Post("/webhook/new-proposal/{locationID}", s.handleWebhook)
	return r
}

func (s *Server) handleHome(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"mensagem": "API de Precificação Solar rodando. Use POST /calculate para obter o valor da proposta.",
	})
}

func (s *Server) handleConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"webhook_url": s.webhookURL})
}

func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	var in pricing.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	value, err := pricing.Calculate(in)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"valor_proposta": value})
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	locationID := chi.URLParam(r, "locationID")

	body, err := io.ReadAll(r.Body)
	if err != nil || !json.Valid(body) {
		writeDetail(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	// Any valid JSON is accepted. A body that is not a proposal object
	// carries no fields and fails downstream in the processor.
	var payload crmsync.ProposalPayload
	_ = json.Unmarshal(body, &payload)

	zap.L().Info("proposal webhook accepted", zap.String("locationId", locationID))

	// Respond before the CRM round-trips; the sender gets no outcome.
	go s.processor.Run(context.WithoutCancel(r.Context()), locationID, payload)

	writeJSON(w, http.StatusOK, map[string]string{"status": "accepted"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("response encode failed", zap.Error(err))
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
