// Package dto provides Data Transfer Objects for API requests/responses.
package dto

// --- ID Response ---

// IDResponse for create operations.
type IDResponse struct {
	ID int64 `json:"id"`
}

// NewIDResponse creates ID response.
func NewIDResponse(id int64) IDResponse {
	return IDResponse{ID: id}
}

// --- Success Response ---

// SuccessResponse for operations without data.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// --- Assignment and status ---

// IDsRequest carries the full id set of a set-replace assignment.
// An empty list clears the assignment.
type IDsRequest struct {
	IDs []int64 `json:"ids"`
}

// StatusResponse reports the active flag after a toggle.
type StatusResponse struct {
	IsActive bool `json:"isActive"`
}

// UniqueResponse answers uniqueness probes used by admin forms.
type UniqueResponse struct {
	IsUnique bool `json:"isUnique"`
}

// UniqueQuery is the query of a uniqueness probe.
type UniqueQuery struct {
	Value     string `form:"value" binding:"required"`
	ExcludeID int64  `form:"excludeId"`
}
