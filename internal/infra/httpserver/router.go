package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/neura/fraudshield/internal/application/intercept"
	appscans "github.com/neura/fraudshield/internal/application/scans"
	domain "github.com/neura/fraudshield/internal/domain/scans"
	"github.com/neura/fraudshield/internal/middleware"
)

// Options carries the router's collaborators and policy knobs.
type Options struct {
	APIKeys        []string
	HealthCheckers map[string]middleware.HealthChecker
	AlertMetrics   func() map[string]uint64
	InboundLimiter *middleware.RateLimiter
}

type Router struct {
	scansSvc    *appscans.Service
	interceptor *intercept.Service
}

func NewRouter(scansSvc *appscans.Service, interceptor *intercept.Service, opts Options) http.Handler {
	r := &Router{scansSvc: scansSvc, interceptor: interceptor}
	mux := chi.NewRouter()

	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}))
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(middleware.APIKeyAuth(opts.APIKeys))

	mux.Get("/health", middleware.HealthHandler(opts.HealthCheckers))
	mux.Get("/live", middleware.LivenessHandler)
	mux.Get("/metrics", middleware.MetricsHandler(opts.AlertMetrics))

	mux.Route("/v1", func(rt chi.Router) {
		rt.Post("/scan/{kind}", r.wrap(r.handleScan))
		rt.Get("/history", r.wrap(r.handleHistory))
		rt.Get("/history/summary", r.wrap(r.handleSummary))
		rt.Delete("/history/{id}", r.wrap(r.handleDelete))

		inbound := r.wrap(r.handleInboundSMS)
		if opts.InboundLimiter != nil {
			rt.With(opts.InboundLimiter.Middleware).Post("/inbound/sms", inbound)
		} else {
			rt.Post("/inbound/sms", inbound)
		}
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			var verr *domain.ValidationError
			if errors.As(err, &verr) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(map[string]string{
					"error":         verr.Error(),
					"scan_kind":     string(verr.Kind),
					"missing_field": verr.MissingField,
				})
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

func kindFromParam(param string) (domain.Kind, error) {
	switch strings.ToLower(param) {
	case "sms":
		return domain.KindSMS, nil
	case "call":
		return domain.KindCall, nil
	case "email":
		return domain.KindEmail, nil
	case "url":
		return domain.KindURL, nil
	}
	return "", fmt.Errorf("unknown scan kind: %q", param)
}

// POST /v1/scan/{kind}
func (r *Router) handleScan(w http.ResponseWriter, req *http.Request) error {
	kind, err := kindFromParam(chi.URLParam(req, "kind"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return nil
	}

	var body struct {
		Text         string `json:"text"`
		PhoneNumber  string `json:"phone_number"`
		CallDuration int    `json:"call_duration"`
		Subject      string `json:"subject"`
		Body         string `json:"body"`
		Sender       string `json:"sender"`
		URL          string `json:"url"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return nil
	}

	result, err := r.scansSvc.Scan(req.Context(), kind, domain.RawFields{
		Text:         body.Text,
		PhoneNumber:  body.PhoneNumber,
		CallDuration: body.CallDuration,
		Subject:      body.Subject,
		Body:         body.Body,
		Sender:       body.Sender,
		URL:          body.URL,
	})
	if err != nil {
		return err
	}

	middleware.IncrementScans()
	if result.Degraded() {
		middleware.IncrementScansDegraded()
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(result)
}

// GET /v1/history?limit=
func (r *Router) handleHistory(w http.ResponseWriter, req *http.Request) error {
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))

	items := r.scansSvc.Latest(req.Context(), limit)

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(items)
}

// GET /v1/history/summary?days=
func (r *Router) handleSummary(w http.ResponseWriter, req *http.Request) error {
	days, _ := strconv.Atoi(req.URL.Query().Get("days"))

	summary, err := r.scansSvc.Summary(req.Context(), days)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(summary)
}

// DELETE /v1/history/{id}
func (r *Router) handleDelete(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	if id == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return nil
	}

	r.scansSvc.Delete(req.Context(), domain.HistoryID(id))
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// POST /v1/inbound/sms
// Body: {"sender": "+1555...", "messages": ["...", "..."]}
// One delivery event may carry several messages; processing is detached and
// the gateway gets its 202 immediately.
func (r *Router) handleInboundSMS(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Sender   string   `json:"sender"`
		Messages []string `json:"messages"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return nil
	}
	if len(body.Messages) == 0 {
		http.Error(w, "messages is required", http.StatusBadRequest)
		return nil
	}

	for range body.Messages {
		middleware.IncrementIntercepted()
	}
	r.interceptor.OnMessageReceived(body.Sender, body.Messages...)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	return json.NewEncoder(w).Encode(map[string]any{
		"status":   "accepted",
		"messages": len(body.Messages),
	})
}
