package model

import "time"

// Company represents a listed security's reference data.
// ParValue is the face value of one share, used as the base for
// percentage-of-par corporate action math (right subscription, cash dividend).
type Company struct {
	ID        string    `json:"id"`
	Symbol    string    `json:"symbol"`
	Name      string    `json:"name"`
	Sector    string    `json:"sector"`
	ParValue  float64   `json:"parValue"`
	CreatedAt time.Time `json:"createdAt"`
}
