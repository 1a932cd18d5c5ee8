package models

// ContextRequest is the inbound shape for a retrieval call: a free-text
// query plus an optional result limit.
type ContextRequest struct {
	Query string `json:"query" binding:"required,min=1,max=2000"`
	Limit int    `json:"limit,omitempty" binding:"omitempty,min=1,max=50"`
}

// ContextResponse carries the ranked grounding fragments. An empty list is
// a normal degraded answer, never an error.
type ContextResponse struct {
	Context []string `json:"context"`
	Count   int      `json:"count"`
}
