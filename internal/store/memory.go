package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"parkday/internal/model"
	"parkday/internal/park"
)

// Memory is a simple in-memory store used when no DATABASE_URL is set.
// The park catalog is shared across tenants; plans and subscriptions are
// tenant-scoped.
type Memory struct {
	mu    sync.Mutex
	parks map[string]park.Park          // parkId -> catalog entry
	plans map[string]model.PlanRecord   // planId -> record
	byTen map[string][]string           // tenant -> plan ids, insertion order
	subs  map[string][]model.Subscription
	// Webhooks queue state
	deliveries         map[string]*memDelivery
	deliveriesByTenant map[string][]string
	planMx             map[string]map[string][]map[string]any // tenant -> parkId|planDate -> items
}

func NewMemory() *Memory {
	m := &Memory{
		parks:              map[string]park.Park{},
		plans:              map[string]model.PlanRecord{},
		byTen:              map[string][]string{},
		subs:               map[string][]model.Subscription{},
		deliveries:         map[string]*memDelivery{},
		deliveriesByTenant: map[string][]string{},
		planMx:             map[string]map[string][]map[string]any{},
	}
	m.parks[demoPark.ID] = demoPark
	return m
}

// memDelivery augments WebhookDelivery with scheduling/metrics
type memDelivery struct {
	WebhookDelivery
	NextAttemptAt time.Time
	LastError     string
	ResponseCode  int
	LatencyMs     int
	DeliveredAt   *time.Time
}

// demoPark keeps the memory-backed server usable out of the box.
var demoPark = park.Park{
	ID:       "demo",
	Name:     "Demo Gardens",
	Entrance: park.Coordinate{X: 0, Y: 0},
	OpenMin:  9 * 60,
	CloseMin: 21 * 60,
	Attractions: []park.Attraction{
		{
			ID: "hypercoaster", Name: "Hypercoaster", Location: park.Coordinate{X: 420, Y: 310},
			Category: park.CategoryRide, Thrill: true, MinHeightCm: 122, DurationMin: 4,
			Popularity: 0.95, Access: park.AccessPaid, AccessPrice: 18, AccessClass: "high",
			WaitCurve: []park.WaitSample{{MinuteOfDay: 540, WaitMin: 20}, {MinuteOfDay: 720, WaitMin: 75}, {MinuteOfDay: 1020, WaitMin: 55}, {MinuteOfDay: 1230, WaitMin: 25}},
		},
		{
			ID: "river_dark", Name: "River of Shadows", Location: park.Coordinate{X: 180, Y: 520},
			Category: park.CategoryRide, Indoor: true, DurationMin: 8,
			Popularity: 0.8, Access: park.AccessIncluded, AccessClass: "standard",
			WaitCurve: []park.WaitSample{{MinuteOfDay: 540, WaitMin: 10}, {MinuteOfDay: 780, WaitMin: 45}, {MinuteOfDay: 1140, WaitMin: 20}},
		},
		{
			ID: "grand_revue", Name: "Grand Revue", Location: park.Coordinate{X: 90, Y: 150},
			Category: park.CategoryShow, Indoor: true, DurationMin: 25,
			Popularity: 0.6, Access: park.AccessNone,
			WaitCurve: []park.WaitSample{{MinuteOfDay: 600, WaitMin: 5}, {MinuteOfDay: 900, WaitMin: 15}},
		},
		{
			ID: "meet_captain", Name: "Meet the Captain", Location: park.Coordinate{X: 310, Y: 80},
			Category: park.CategoryMeet, DurationMin: 10,
			Popularity: 0.5, Access: park.AccessIncluded, AccessClass: "low",
			WaitCurve: []park.WaitSample{{MinuteOfDay: 570, WaitMin: 15}, {MinuteOfDay: 840, WaitMin: 35}, {MinuteOfDay: 1200, WaitMin: 10}},
		},
		{
			ID: "carousel", Name: "Heritage Carousel", Location: park.Coordinate{X: 520, Y: 140},
			Category: park.CategoryRide, DurationMin: 5,
			Popularity: 0.4, Access: park.AccessNone,
			WaitCurve: []park.WaitSample{{MinuteOfDay: 540, WaitMin: 5}, {MinuteOfDay: 960, WaitMin: 20}},
		},
	},
}

func (m *Memory) ListParks(ctx context.Context, tenantID string) ([]park.Park, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]park.Park, 0, len(m.parks))
	for _, p := range m.parks {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) GetPark(ctx context.Context, tenantID, parkID, date string) (park.Park, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.parks[parkID]
	if !ok {
		return park.Park{}, ErrNotFound
	}
	return p, nil
}

func (m *Memory) UpsertPark(ctx context.Context, tenantID string, p park.Park) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.parks[p.ID] = p
	return nil
}

func (m *Memory) SavePlan(ctx context.Context, rec model.PlanRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if _, exists := m.plans[rec.ID]; !exists {
		m.byTen[rec.TenantID] = append(m.byTen[rec.TenantID], rec.ID)
	}
	m.plans[rec.ID] = rec
	return nil
}

func (m *Memory) GetPlan(ctx context.Context, tenantID, planID string) (model.PlanRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.plans[planID]
	if !ok || rec.TenantID != tenantID {
		return model.PlanRecord{}, ErrNotFound
	}
	return rec, nil
}

func (m *Memory) ListPlans(ctx context.Context, tenantID, parkID, date, cursor string, limit int) ([]model.PlanRecord, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := m.byTen[tenantID]
	start := 0
	if cursor != "" {
		for i, id := range ids {
			if id == cursor {
				start = i + 1
				break
			}
		}
	}
	if limit <= 0 {
		limit = 100
	}
	out := []model.PlanRecord{}
	var next string
	for i := start; i < len(ids) && len(out) < limit; i++ {
		rec := m.plans[ids[i]]
		if parkID != "" && rec.ParkID != parkID {
			continue
		}
		if date != "" && rec.Date != date {
			continue
		}
		out = append(out, rec)
		next = ids[i]
	}
	if len(out) < limit {
		next = ""
	}
	return out, next, nil
}

func (m *Memory) CreateSubscription(ctx context.Context, req model.SubscriptionRequest) (model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := model.Subscription{ID: uuid.New().String(), TenantID: req.TenantID, URL: req.URL, Events: req.Events, Secret: req.Secret}
	m.subs[req.TenantID] = append(m.subs[req.TenantID], s)
	return s, nil
}

func (m *Memory) GetSubscriptionsForEvent(ctx context.Context, tenantID, eventType string) ([]model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Subscription
	for _, s := range m.subs[tenantID] {
		for _, e := range s.Events {
			if e == eventType {
				out = append(out, s)
				break
			}
		}
	}
	return out, nil
}

func (m *Memory) ListSubscriptions(ctx context.Context, tenantID, cursor string, limit int) ([]model.Subscription, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.subs[tenantID]
	start := 0
	if cursor != "" {
		for i := range list {
			if list[i].ID == cursor {
				start = i + 1
				break
			}
		}
	}
	if limit <= 0 {
		limit = 100
	}
	end := start + limit
	if end > len(list) {
		end = len(list)
	}
	items := append([]model.Subscription(nil), list[start:end]...)
	next := ""
	if end < len(list) {
		next = list[end-1].ID
	}
	return items, next, nil
}

func (m *Memory) DeleteSubscription(ctx context.Context, tenantID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	arr := m.subs[tenantID]
	out := make([]model.Subscription, 0, len(arr))
	for _, s := range arr {
		if s.ID != id {
			out = append(out, s)
		}
	}
	m.subs[tenantID] = out
	return nil
}

// Webhook deliveries
func (m *Memory) EnqueueWebhook(ctx context.Context, tenantID, subscriptionID, eventType, url, secret string, payload []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.New().String()
	d := &memDelivery{WebhookDelivery: WebhookDelivery{ID: id, TenantID: tenantID, SubscriptionID: subscriptionID, EventType: eventType, URL: url, Secret: secret, Payload: payload, Status: "pending"}, NextAttemptAt: time.Now()}
	m.deliveries[id] = d
	m.deliveriesByTenant[tenantID] = append(m.deliveriesByTenant[tenantID], id)
	return id, nil
}

func (m *Memory) FetchDueWebhookDeliveries(ctx context.Context, limit int) ([]WebhookDelivery, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	out := []WebhookDelivery{}
	for _, id := range m.iterDeliveryIDs() {
		d := m.deliveries[id]
		if d == nil {
			continue
		}
		if (d.Status == "pending" || d.Status == "retry") && !d.NextAttemptAt.After(now) {
			out = append(out, d.WebhookDelivery)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (m *Memory) MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode int, latencyMs int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := m.deliveries[id]
	if d == nil {
		return nil
	}
	d.Attempts++
	d.ResponseCode = responseCode
	d.LatencyMs = latencyMs
	if success {
		d.Status = "delivered"
		now := time.Now()
		d.DeliveredAt = &now
	} else {
		d.Status = "retry"
		d.LastError = lastError
		if nextAttemptAt != nil {
			d.NextAttemptAt = *nextAttemptAt
		} else {
			d.NextAttemptAt = time.Now().Add(1 * time.Minute)
		}
	}
	return nil
}

func (m *Memory) FailWebhookDelivery(ctx context.Context, id string, lastError string, responseCode int, latencyMs int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := m.deliveries[id]
	if d != nil {
		d.Status = "failed"
		d.LastError = lastError
		d.ResponseCode = responseCode
		d.LatencyMs = latencyMs
	}
	return nil
}

func (m *Memory) ListWebhookDeliveries(ctx context.Context, tenantID, status, cursor string, limit int) ([]map[string]any, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []map[string]any{}
	for _, id := range m.deliveriesByTenant[tenantID] {
		d := m.deliveries[id]
		if d == nil {
			continue
		}
		if status == "" || d.Status == status {
			item := map[string]any{"id": d.ID, "eventType": d.EventType, "status": d.Status, "attempts": d.Attempts, "url": d.URL}
			if !d.NextAttemptAt.IsZero() {
				item["nextAttemptAt"] = d.NextAttemptAt
			}
			if d.LastError != "" {
				item["lastError"] = d.LastError
			}
			out = append(out, item)
		}
	}
	return out, "", nil
}

func (m *Memory) RetryWebhookDelivery(ctx context.Context, tenantID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := m.deliveries[id]
	if d != nil && d.TenantID == tenantID {
		d.Status = "pending"
		d.NextAttemptAt = time.Now()
	}
	return nil
}

func (m *Memory) SavePlanMetrics(ctx context.Context, tenantID, parkID, planDate, variant string, metrics map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := parkID + "|" + planDate
	if m.planMx[tenantID] == nil {
		m.planMx[tenantID] = map[string][]map[string]any{}
	}
	items := m.planMx[tenantID][key]
	found := false
	for i := range items {
		if items[i]["variant"] == variant {
			items[i] = metrics
			items[i]["variant"] = variant
			found = true
			break
		}
	}
	if !found {
		metrics["variant"] = variant
		items = append(items, metrics)
	}
	m.planMx[tenantID][key] = items
	return nil
}

func (m *Memory) ListPlanMetrics(ctx context.Context, tenantID, parkID, planDate, variant string) ([]map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := m.planMx[tenantID][parkID+"|"+planDate]
	if variant == "" {
		return append([]map[string]any(nil), items...), nil
	}
	out := []map[string]any{}
	for _, it := range items {
		if it["variant"] == variant {
			out = append(out, it)
		}
	}
	return out, nil
}

// helper: iterate delivery IDs by tenant order
func (m *Memory) iterDeliveryIDs() []string {
	ids := []string{}
	for _, lst := range m.deliveriesByTenant {
		ids = append(ids, lst...)
	}
	return ids
}
