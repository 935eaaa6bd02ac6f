package opt

import "sync"

type key struct {
	Tenant   string
	ParkID   string
	PlanDate string
	Variant  string
}

var (
	mu    sync.Mutex
	store = map[key]SearchMetrics{}
)

// RecordMetrics keeps the latest search metrics per tenant/park/date/variant.
func RecordMetrics(tenant, parkID, planDate, variant string, m SearchMetrics) {
	mu.Lock()
	store[key{Tenant: tenant, ParkID: parkID, PlanDate: planDate, Variant: variant}] = m
	mu.Unlock()
}

// GetMetrics returns recorded metrics for one tenant/park/date, keyed by variant.
func GetMetrics(tenant, parkID, planDate string) map[string]SearchMetrics {
	mu.Lock()
	defer mu.Unlock()
	out := map[string]SearchMetrics{}
	for k, v := range store {
		if k.Tenant == tenant && k.ParkID == parkID && k.PlanDate == planDate {
			out[k.Variant] = v
		}
	}
	return out
}
