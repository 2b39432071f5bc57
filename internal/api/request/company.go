package request

// CreateCompanyRequest is the payload for listing a new company.
type CreateCompanyRequest struct {
	Symbol   string  `json:"symbol"`
	Name     string  `json:"name"`
	Sector   string  `json:"sector"`
	ParValue float64 `json:"parValue"` // 0 defaults to the standard nominal value
}

// UpdateCompanyRequest is the payload for modifying a listed company.
// All fields are optional; zero values leave the stored value unchanged.
type UpdateCompanyRequest struct {
	Name     string  `json:"name"`
	Sector   string  `json:"sector"`
	ParValue float64 `json:"parValue"`
}
