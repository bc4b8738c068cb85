package dto

// LogoutResponse acknowledges a logout.
type LogoutResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

// MeResponse describes the authenticated caller.
type MeResponse struct {
	Email string `json:"email"`
}

// MessageResponse is a plain informational payload.
type MessageResponse struct {
	Message string `json:"message"`
}
