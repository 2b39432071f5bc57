package model

import "time"

// CorporateAction represents a declared bonus issue, rights issue or cash
// dividend for a security. BookClose is the effective date: adjustment applies
// to all trading days strictly before it.
//
// AdjustmentFactor and RecordsAdjusted are audit fields written back by the
// rebuilder after each application; they cache the factor the action last
// resolved to and the number of adjusted rows it touched.
type CorporateAction struct {
	ID               string    `json:"id"`
	Symbol           string    `json:"symbol"`
	Kind             string    `json:"kind"` // "bonus", "right", "cash"; unrecognized kinds are a no-op
	Rate             float64   `json:"rate"` // Percentage; meaning depends on Kind
	ParValue         float64   `json:"parValue"` // 0 means "use the company's par value"
	BookClose        time.Time `json:"bookClose"`
	AdjustmentFactor float64   `json:"adjustmentFactor"`
	RecordsAdjusted  int       `json:"recordsAdjusted"`
	CreatedAt        time.Time `json:"createdAt"`
}

// ActionWriteResult reports the outcome of an interactive create/update/delete
// of a corporate action. The save and the triggered rebuild succeed or fail
// independently: a nil service error with RecalcFailed=true means "saved but
// recalculation failed".
type ActionWriteResult struct {
	Action       *CorporateAction `json:"action,omitempty"`
	Recalculated bool             `json:"recalculated"` // true if a rebuild ran and succeeded
	RecalcFailed bool             `json:"recalcFailed"` // true if a rebuild ran and failed
	RecalcError  string           `json:"recalcError,omitempty"`
}

// ActionImportResult reports the outcome of a bulk corporate-action import.
type ActionImportResult struct {
	Imported       int      `json:"imported"`
	SymbolsTouched []string `json:"symbolsTouched"`
	RecalcFailed   []string `json:"recalcFailed"`
}
