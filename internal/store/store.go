package store

import (
	"context"
	"errors"
	"time"

	"parkday/internal/model"
	"parkday/internal/park"
)

// Store is the persistence interface used by the API server.
type Store interface {
	// Park catalog
	ListParks(ctx context.Context, tenantID string) ([]park.Park, error)
	GetPark(ctx context.Context, tenantID, parkID, date string) (park.Park, error)
	UpsertPark(ctx context.Context, tenantID string, p park.Park) error

	// Plans
	SavePlan(ctx context.Context, rec model.PlanRecord) error
	GetPlan(ctx context.Context, tenantID, planID string) (model.PlanRecord, error)
	ListPlans(ctx context.Context, tenantID, parkID, date, cursor string, limit int) ([]model.PlanRecord, string, error)

	// Subscriptions
	CreateSubscription(ctx context.Context, req model.SubscriptionRequest) (model.Subscription, error)
	GetSubscriptionsForEvent(ctx context.Context, tenantID, eventType string) ([]model.Subscription, error)
	ListSubscriptions(ctx context.Context, tenantID, cursor string, limit int) ([]model.Subscription, string, error)
	DeleteSubscription(ctx context.Context, tenantID, id string) error

	// Webhook deliveries
	EnqueueWebhook(ctx context.Context, tenantID, subscriptionID, eventType, url, secret string, payload []byte) (string, error)
	FetchDueWebhookDeliveries(ctx context.Context, limit int) ([]WebhookDelivery, error)
	MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode int, latencyMs int) error
	FailWebhookDelivery(ctx context.Context, id string, lastError string, responseCode int, latencyMs int) error
	ListWebhookDeliveries(ctx context.Context, tenantID, status, cursor string, limit int) ([]map[string]any, string, error)
	RetryWebhookDelivery(ctx context.Context, tenantID, id string) error

	// Planner metrics for admin views
	SavePlanMetrics(ctx context.Context, tenantID, parkID, planDate, variant string, metrics map[string]any) error
	ListPlanMetrics(ctx context.Context, tenantID, parkID, planDate, variant string) ([]map[string]any, error)
}

var ErrNotFound = errors.New("not found")
