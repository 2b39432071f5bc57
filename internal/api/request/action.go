package request

// CreateActionRequest is the payload for declaring a corporate action.
type CreateActionRequest struct {
	Symbol    string  `json:"symbol"`
	Kind      string  `json:"kind"`      // "bonus", "right" or "cash"; matched case-insensitively
	Rate      float64 `json:"rate"`      // Percentage; meaning depends on kind
	ParValue  float64 `json:"parValue"`  // 0 means "use the company's par value"
	BookClose string  `json:"bookClose"` // YYYY-MM-DD
}

// UpdateActionRequest is the payload for modifying a declared corporate
// action. All fields are optional; absent fields leave the stored value
// unchanged. Rate and parValue are pointers so an explicit 0 is
// distinguishable from an absent field.
type UpdateActionRequest struct {
	Symbol    string   `json:"symbol"`
	Kind      string   `json:"kind"`
	Rate      *float64 `json:"rate"`
	ParValue  *float64 `json:"parValue"`
	BookClose string   `json:"bookClose"`
}

// ImportActionsRequest is the payload for a bulk corporate-action import.
type ImportActionsRequest struct {
	Actions []CreateActionRequest `json:"actions"`
}
