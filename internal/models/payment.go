package models

import "time"

type SubscriptionPlan struct {
	ID           int64    `json:"id"`
	Name         string   `json:"name"`
	Price        float64  `json:"price"`
	DurationDays int      `json:"duration_days"`
	Features     []string `json:"features,omitempty"`
}

type Subscription struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	PlanID    int64     `json:"plan_id"`
	PlanName  string    `json:"plan_name,omitempty"`
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Payment struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id"`
	PlanID        int64     `json:"plan_id"`
	TransactionID string    `json:"tran_id"`
	Amount        float64   `json:"amount"`
	Status        string    `json:"status"` // pending, paid, failed
	GatewayURL    string    `json:"gateway_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type Notification struct {
	ID        int64     `json:"id"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}
