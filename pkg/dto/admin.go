package dto

type DeleteOrphansRequest struct {
	Kind string `json:"kind" validate:"required,oneof=sites plugins"`
}

type CleanupResponse struct {
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
	Error     string `json:"error,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
