package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"parkday/internal/metrics"
	"parkday/internal/model"
	"parkday/internal/opt"
	"parkday/internal/park"
	"parkday/internal/store"
	"parkday/internal/webhooks"
)

// OptimizeHandler handles POST /v1/itineraries/optimize
func (s *Server) OptimizeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !s.allowRequest(w, r) {
		return
	}
	var req model.OptimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}
	if err := validateOptimizeRequest(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid optimize request", err.Error(), r.URL.Path)
		return
	}
	if req.TenantID == "" {
		_, req.TenantID = s.withTenant(r)
	}

	pk, err := s.Store.GetPark(r.Context(), req.TenantID, req.ParkID, req.Date)
	if errors.Is(err, store.ErrNotFound) {
		writeProblem(w, http.StatusNotFound, "Park not found", req.ParkID, r.URL.Path)
		return
	}
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Park lookup failed", err.Error(), r.URL.Path)
		return
	}

	prob, err := s.buildProblem(req, pk)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid optimize request", err.Error(), r.URL.Path)
		return
	}

	start := time.Now()
	res, err := opt.OptimizeDay(prob)
	metrics.OptimizeDuration.Observe(time.Since(start).Seconds())
	var ce *opt.ConflictError
	if errors.As(err, &ce) {
		metrics.OptimizeRuns.WithLabelValues(opt.LabelPrimary, "conflict").Inc()
		writeProblem(w, http.StatusConflict, "Preference conflict", ce.Error(), r.URL.Path)
		return
	}
	if err != nil {
		metrics.OptimizeRuns.WithLabelValues(opt.LabelPrimary, "error").Inc()
		writeProblem(w, http.StatusInternalServerError, "Optimize failed", err.Error(), r.URL.Path)
		return
	}

	resp := toWireResult(req, res)
	resp.PlanID = uuid.New().String()

	rec := model.PlanRecord{
		ID:        resp.PlanID,
		TenantID:  req.TenantID,
		ParkID:    req.ParkID,
		Date:      req.Date,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Request:   req,
		Result:    resp,
	}
	if err := s.Store.SavePlan(r.Context(), rec); err != nil {
		writeProblem(w, http.StatusInternalServerError, "Save plan failed", err.Error(), r.URL.Path)
		return
	}

	// record search metrics per variant for admin views
	s.recordRunMetrics(r.Context(), req, opt.LabelPrimary, res.PrimaryMetrics, res.Primary)
	for _, alt := range res.Alternates {
		s.recordRunMetrics(r.Context(), req, alt.Label, alt.Metrics, alt.Plan)
	}

	s.Pub.Emit(r.Context(), req.TenantID, webhooks.EventPlanCreated, map[string]any{
		"planId":     resp.PlanID,
		"parkId":     req.ParkID,
		"planDate":   req.Date,
		"score":      resp.Primary.Summary.Score,
		"alternates": len(resp.Alternates),
	})
	s.Broker.Publish(resp.PlanID, SSEEvent{Type: webhooks.EventPlanCreated, Data: map[string]any{
		"planId": resp.PlanID,
		"parkId": req.ParkID,
		"ts":     rec.CreatedAt,
	}})

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) recordRunMetrics(ctx context.Context, req model.OptimizeRequest, variant string, m opt.SearchMetrics, plan opt.Plan) {
	outcome := "ok"
	if plan.Reason != "" {
		outcome = "infeasible"
	}
	metrics.OptimizeRuns.WithLabelValues(variant, outcome).Inc()
	metrics.ImproverMoves.Observe(float64(m.MovesTried))
	opt.RecordMetrics(req.TenantID, req.ParkID, req.Date, variant, m)
	_ = s.Store.SavePlanMetrics(ctx, req.TenantID, req.ParkID, req.Date, variant, map[string]any{
		"candidates":    m.Candidates,
		"builtVisits":   m.BuiltVisits,
		"passes":        m.Passes,
		"movesTried":    m.MovesTried,
		"movesAccepted": m.MovesAccepted,
		"initialScore":  m.InitialScore,
		"finalScore":    m.FinalScore,
		"reason":        plan.Reason,
	})
}

// ParksHandler handles GET /v1/parks and POST /v1/parks (admin upsert)
func (s *Server) ParksHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		_, tenant := s.withTenant(r)
		items, err := s.Store.ListParks(r.Context(), tenant)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "List parks failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})
	case http.MethodPost:
		p := s.getPrincipal(r)
		if !p.IsAdmin() {
			writeProblem(w, http.StatusForbidden, "Forbidden", "admin required", r.URL.Path)
			return
		}
		var pk park.Park
		if err := json.NewDecoder(r.Body).Decode(&pk); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
			return
		}
		if pk.ID == "" || len(pk.Attractions) == 0 {
			writeProblem(w, http.StatusBadRequest, "Invalid park", "id and attractions required", r.URL.Path)
			return
		}
		if err := s.Store.UpsertPark(r.Context(), p.Tenant, pk); err != nil {
			writeProblem(w, http.StatusInternalServerError, "Upsert park failed", err.Error(), r.URL.Path)
			return
		}
		s.Pub.Emit(r.Context(), p.Tenant, webhooks.EventParkUpdated, map[string]any{"parkId": pk.ID})
		writeJSON(w, http.StatusCreated, map[string]string{"id": pk.ID})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// ParkByIDHandler handles GET /v1/parks/{id}
func (s *Server) ParkByIDHandler(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/parks/")
	if id == "" || strings.Contains(id, "/") {
		writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	_, tenant := s.withTenant(r)
	date := r.URL.Query().Get("planDate")
	pk, err := s.Store.GetPark(r.Context(), tenant, id, date)
	if errors.Is(err, store.ErrNotFound) {
		writeProblem(w, http.StatusNotFound, "Park not found", id, r.URL.Path)
		return
	}
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Park lookup failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, pk)
}

// PlansIndexHandler handles GET /v1/plans
func (s *Server) PlansIndexHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/v1/plans" {
		writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	_, tenant := s.withTenant(r)
	parkID := r.URL.Query().Get("parkId")
	date := r.URL.Query().Get("planDate")
	cursor := r.URL.Query().Get("cursor")
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		fmt.Sscanf(v, "%d", &limit)
	}
	items, next, err := s.Store.ListPlans(r.Context(), tenant, parkID, date, cursor, limit)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "List plans failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "nextCursor": next})
}

// PlanByIDHandler handles GET /v1/plans/{id} and GET /v1/plans/{id}/events/stream
func (s *Server) PlanByIDHandler(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/plans/")
	if rest == r.URL.Path || rest == "" {
		writeProblem(w, http.StatusNotFound, "Not Found", "missing id", r.URL.Path)
		return
	}
	parts := strings.Split(rest, "/")
	id := parts[0]
	if len(parts) > 2 && parts[1] == "events" && parts[2] == "stream" {
		s.streamPlanEvents(w, r, id)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	_, tenant := s.withTenant(r)
	rec, err := s.Store.GetPlan(r.Context(), tenant, id)
	if errors.Is(err, store.ErrNotFound) {
		writeProblem(w, http.StatusNotFound, "Plan not found", id, r.URL.Path)
		return
	}
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Plan lookup failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// streamPlanEvents serves SSE for one plan's lifecycle events.
func (s *Server) streamPlanEvents(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeProblem(w, http.StatusInternalServerError, "Streaming unsupported", "", r.URL.Path)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	ch := s.Broker.Subscribe(id)
	defer s.Broker.Unsubscribe(id, ch)
	// initial heartbeat
	fmt.Fprintf(w, "event: heartbeat\n")
	fmt.Fprintf(w, "data: {\"planId\":%q,\"ts\":%q}\n\n", id, time.Now().Format(time.RFC3339))
	flusher.Flush()
	notify := r.Context().Done()
	for {
		select {
		case <-notify:
			return
		case evt := <-ch:
			b, _ := json.Marshal(evt.Data)
			fmt.Fprintf(w, "event: %s\n", evt.Type)
			fmt.Fprintf(w, "data: %s\n\n", string(b))
			flusher.Flush()
		case <-time.After(15 * time.Second):
			fmt.Fprintf(w, "event: heartbeat\n")
			fmt.Fprintf(w, "data: {\"planId\":%q,\"ts\":%q}\n\n", id, time.Now().Format(time.RFC3339))
			flusher.Flush()
		}
	}
}

// SubscriptionsHandler handles POST/GET /v1/subscriptions
func (s *Server) SubscriptionsHandler(w http.ResponseWriter, r *http.Request) {
	p := s.getPrincipal(r)
	if !p.IsAdmin() {
		writeProblem(w, http.StatusForbidden, "Forbidden", "admin required", r.URL.Path)
		return
	}
	switch r.Method {
	case http.MethodPost:
		var req model.SubscriptionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
			return
		}
		if req.URL == "" || len(req.Events) == 0 {
			writeProblem(w, http.StatusBadRequest, "Invalid subscription", "url and events required", r.URL.Path)
			return
		}
		if req.TenantID == "" {
			req.TenantID = p.Tenant
		}
		sub, err := s.Store.CreateSubscription(r.Context(), req)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Create subscription failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusCreated, sub)
	case http.MethodGet:
		cursor := r.URL.Query().Get("cursor")
		limit := 100
		if v := r.URL.Query().Get("limit"); v != "" {
			fmt.Sscanf(v, "%d", &limit)
		}
		items, next, err := s.Store.ListSubscriptions(r.Context(), p.Tenant, cursor, limit)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "List subscriptions failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items, "nextCursor": next})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// SubscriptionByIDHandler handles DELETE /v1/subscriptions/{id}
func (s *Server) SubscriptionByIDHandler(w http.ResponseWriter, r *http.Request) {
	if !strings.HasPrefix(r.URL.Path, "/v1/subscriptions/") {
		writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path)
		return
	}
	if r.Method != http.MethodDelete {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	p := s.getPrincipal(r)
	if !p.IsAdmin() {
		writeProblem(w, http.StatusForbidden, "Forbidden", "admin required", r.URL.Path)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/v1/subscriptions/")
	if err := s.Store.DeleteSubscription(r.Context(), p.Tenant, id); err != nil {
		writeProblem(w, http.StatusInternalServerError, "Delete subscription failed", err.Error(), r.URL.Path)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Admin: webhook deliveries list and retry
func (s *Server) WebhookDeliveriesHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/v1/admin/webhook-deliveries" {
		writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path)
		return
	}
	p := s.getPrincipal(r)
	if !p.IsAdmin() {
		writeProblem(w, http.StatusForbidden, "Forbidden", "admin required", r.URL.Path)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	status := r.URL.Query().Get("status")
	cursor := r.URL.Query().Get("cursor")
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		fmt.Sscanf(v, "%d", &limit)
	}
	items, next, err := s.Store.ListWebhookDeliveries(r.Context(), p.Tenant, status, cursor, limit)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "List deliveries failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "nextCursor": next})
}

func (s *Server) WebhookDeliveryRetryHandler(w http.ResponseWriter, r *http.Request) {
	if !strings.HasPrefix(r.URL.Path, "/v1/admin/webhook-deliveries/") || !strings.HasSuffix(r.URL.Path, "/retry") {
		writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path)
		return
	}
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	p := s.getPrincipal(r)
	if !p.IsAdmin() {
		writeProblem(w, http.StatusForbidden, "Forbidden", "admin required", r.URL.Path)
		return
	}
	id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/v1/admin/webhook-deliveries/"), "/retry")
	if err := s.Store.RetryWebhookDelivery(r.Context(), p.Tenant, id); err != nil {
		writeProblem(w, http.StatusInternalServerError, "Retry delivery failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]int{"accepted": 1})
}

// Admin: search metrics per variant
func (s *Server) PlanMetricsHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/v1/admin/plan-metrics" || r.Method != http.MethodGet {
		writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path)
		return
	}
	p := s.getPrincipal(r)
	if !p.IsAdmin() {
		writeProblem(w, http.StatusForbidden, "Forbidden", "admin required", r.URL.Path)
		return
	}
	parkID := r.URL.Query().Get("parkId")
	planDate := r.URL.Query().Get("planDate")
	if parkID == "" || planDate == "" {
		writeProblem(w, http.StatusBadRequest, "Missing parameters", "parkId and planDate required", r.URL.Path)
		return
	}
	variant := r.URL.Query().Get("variant")
	// Prefer stored metrics; fall back to the in-process snapshots.
	items, err := s.Store.ListPlanMetrics(r.Context(), p.Tenant, parkID, planDate, variant)
	if err != nil || len(items) == 0 {
		ms := opt.GetMetrics(p.Tenant, parkID, planDate)
		items = []map[string]any{}
		for v, m := range ms {
			if variant != "" && v != variant {
				continue
			}
			items = append(items, map[string]any{
				"variant":       v,
				"candidates":    m.Candidates,
				"builtVisits":   m.BuiltVisits,
				"passes":        m.Passes,
				"movesTried":    m.MovesTried,
				"movesAccepted": m.MovesAccepted,
				"initialScore":  m.InitialScore,
				"finalScore":    m.FinalScore,
			})
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// Health
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	// Check DB connectivity when using Postgres store
	type pinger interface{ Ping(ctx context.Context) error }
	if pg, ok := s.Store.(pinger); ok {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if err := pg.Ping(ctx); err != nil {
			writeProblem(w, http.StatusServiceUnavailable, "Not Ready", err.Error(), r.URL.Path)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
