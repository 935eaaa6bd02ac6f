package store

import (
	"context"
	"errors"
	"testing"

	"parkday/internal/model"
)

func TestMemorySeededPark(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	parks, err := m.ListParks(ctx, "t1")
	if err != nil {
		t.Fatalf("list parks: %v", err)
	}
	if len(parks) == 0 {
		t.Fatalf("no seeded park")
	}
	p, err := m.GetPark(ctx, "t1", "demo", "2026-08-23")
	if err != nil {
		t.Fatalf("get park: %v", err)
	}
	if len(p.Attractions) == 0 {
		t.Fatalf("seeded park has no attractions")
	}
	if _, err := m.GetPark(ctx, "t1", "nope", ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryPlanRoundTrip(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	rec := model.PlanRecord{ID: "p1", TenantID: "t1", ParkID: "demo", Date: "2026-08-23"}
	if err := m.SavePlan(ctx, rec); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := m.GetPlan(ctx, "t1", "p1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ParkID != "demo" {
		t.Fatalf("parkId=%s", got.ParkID)
	}
	// tenant isolation
	if _, err := m.GetPlan(ctx, "t2", "p1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("cross-tenant read succeeded")
	}
	items, next, err := m.ListPlans(ctx, "t1", "demo", "2026-08-23", "", 10)
	if err != nil || next != "" {
		t.Fatalf("list: %v next=%q", err, next)
	}
	if len(items) != 1 {
		t.Fatalf("items=%d", len(items))
	}
	if items, _, _ := m.ListPlans(ctx, "t1", "other", "", "", 10); len(items) != 0 {
		t.Fatalf("park filter ignored")
	}
}

func TestMemoryWebhookQueue(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	id, err := m.EnqueueWebhook(ctx, "t1", "s1", "itinerary.plan.created", "http://example.com/hook", "sec", []byte(`{}`))
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	due, err := m.FetchDueWebhookDeliveries(ctx, 10)
	if err != nil || len(due) != 1 {
		t.Fatalf("due=%d err=%v", len(due), err)
	}
	if err := m.MarkWebhookDelivery(ctx, id, false, nil, "boom", 500, 12); err != nil {
		t.Fatalf("mark: %v", err)
	}
	// retry is scheduled in the future, not due now
	due, _ = m.FetchDueWebhookDeliveries(ctx, 10)
	if len(due) != 0 {
		t.Fatalf("retry due immediately")
	}
	if err := m.RetryWebhookDelivery(ctx, "t1", id); err != nil {
		t.Fatalf("retry: %v", err)
	}
	due, _ = m.FetchDueWebhookDeliveries(ctx, 10)
	if len(due) != 1 {
		t.Fatalf("manual retry not due")
	}
	if err := m.MarkWebhookDelivery(ctx, id, true, nil, "", 200, 8); err != nil {
		t.Fatalf("mark delivered: %v", err)
	}
	items, _, err := m.ListWebhookDeliveries(ctx, "t1", "delivered", "", 10)
	if err != nil || len(items) != 1 {
		t.Fatalf("delivered=%d err=%v", len(items), err)
	}
}

func TestMemorySubscriptions(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	s, err := m.CreateSubscription(ctx, model.SubscriptionRequest{TenantID: "t1", URL: "http://example.com/h", Events: []string{"itinerary.plan.created"}, Secret: "s"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	subs, err := m.GetSubscriptionsForEvent(ctx, "t1", "itinerary.plan.created")
	if err != nil || len(subs) != 1 {
		t.Fatalf("subs=%d err=%v", len(subs), err)
	}
	if subs, _ := m.GetSubscriptionsForEvent(ctx, "t1", "other.event"); len(subs) != 0 {
		t.Fatalf("event filter ignored")
	}
	if err := m.DeleteSubscription(ctx, "t1", s.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if subs, _ := m.GetSubscriptionsForEvent(ctx, "t1", "itinerary.plan.created"); len(subs) != 0 {
		t.Fatalf("subscription survived delete")
	}
}

func TestMemoryPlanMetricsUpsert(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	if err := m.SavePlanMetrics(ctx, "t1", "demo", "2026-08-23", "primary", map[string]any{"moves": 10}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := m.SavePlanMetrics(ctx, "t1", "demo", "2026-08-23", "primary", map[string]any{"moves": 25}); err != nil {
		t.Fatalf("save again: %v", err)
	}
	items, err := m.ListPlanMetrics(ctx, "t1", "demo", "2026-08-23", "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("upsert duplicated: %d", len(items))
	}
	if items[0]["moves"] != 25 {
		t.Fatalf("stale metrics kept: %v", items[0]["moves"])
	}
}
