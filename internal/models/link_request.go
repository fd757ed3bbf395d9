package models

// CreateLinkRequest represents the request body for creating a short link
type CreateLinkRequest struct {
	URL       string   `json:"url" binding:"required,url"` // Gin validation: required and must be valid URL
	Validity  *float64 `json:"validity,omitempty"`         // Optional validity in minutes (default 30)
	ShortCode *string  `json:"shortcode,omitempty"`        // Optional custom short code
}

// Visit carries the request context a redirect is recorded with
type Visit struct {
	IPAddress string
	Referrer  *string // nil when the client sent no Referer header
}
