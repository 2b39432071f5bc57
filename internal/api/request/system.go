package request

// SetVendorTokenRequest is the payload for storing the data-vendor API token.
type SetVendorTokenRequest struct {
	Token string `json:"token"`
}
