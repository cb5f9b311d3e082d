package models

// Plan is a subscription tier bounding a seller's parallel sessions.
type Plan struct {
	ID                  int    `json:"plan_id"`
	Name                string `json:"name"`
	MaxParallelSessions int    `json:"max_parallel_sessions"`
}

// Seller is a registered seller row.
type Seller struct {
	ID           string `json:"seller_id"`
	Secret       string `json:"-"`
	SessionCount int    `json:"session_count"`
	PlanID       int    `json:"plan_id"`
}

// Session is the handle returned by a successful sign-in. SessionCount is
// the seller's active session count right after the sign-in committed.
type Session struct {
	SellerID     string `json:"seller_id"`
	SessionCount int    `json:"session_count"`
	PlanID       int    `json:"plan_id"`
}
