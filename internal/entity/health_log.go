package entity

import "time"

// Health logs are written by the chat-bot surface; this service only
// reads them for trigger and product analytics. LoggedAt is always
// timezone-aware by the time it leaves the repository (naive values are
// interpreted as UTC there).

type TriggerLog struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	TriggerName string    `json:"trigger_name"`
	LoggedAt    time.Time `json:"logged_at"`
}

type SymptomLog struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	SymptomName string    `json:"symptom_name"`
	Severity    float64   `json:"severity"`
	LoggedAt    time.Time `json:"logged_at"`
}

type ProductLog struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	ProductName string    `json:"product_name"`
	LoggedAt    time.Time `json:"logged_at"`
}
