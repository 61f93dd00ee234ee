package objects

// ErrorResponse is the body the proxy returns for every failure.
type ErrorResponse struct {
	Error string `json:"error"`
}
