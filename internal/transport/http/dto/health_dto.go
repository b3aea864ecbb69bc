package dto

type HealthResponse struct {
	Status  string `json:"status"`
	Clients int    `json:"clients"`
	Tasks   int    `json:"tasks"`
}

type ErrorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}
