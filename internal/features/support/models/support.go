package models

// SupportRequest is a message to the support team. Name and email default to the
// caller's profile when omitted.
type SupportRequest struct {
	UserName  *string `json:"user_name,omitempty" binding:"omitempty,max=128"`
	UserEmail *string `json:"user_email,omitempty" binding:"omitempty,max=254"`
	Message   string  `json:"message" binding:"required,max=4000"`
}

type SupportResponse struct {
	Success   bool   `json:"success"`
	RequestID int64  `json:"request_id"`
	Message   string `json:"message"`
}
