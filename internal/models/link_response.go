package models

import "time"

// CreateLinkResponse represents the response after creating a short link
type CreateLinkResponse struct {
	ShortCode string    `json:"short_code"`
	ShortLink string    `json:"short_link"` // Full short URL (base URL + short code)
	Expiry    time.Time `json:"expiry"`
}

// ClickView is a single click in the public stats payload.
// The client address is deliberately not part of this view.
type ClickView struct {
	Timestamp time.Time `json:"timestamp"`
	Referrer  *string   `json:"referrer"`
	Location  string    `json:"location"`
}

// LinkStatsResponse represents the public statistics view of a link
type LinkStatsResponse struct {
	ShortCode   string      `json:"shortcode"`
	OriginalURL string      `json:"original_url"`
	CreatedAt   time.Time   `json:"created_at"`
	Expiry      time.Time   `json:"expiry"`
	TotalClicks int64       `json:"total_clicks"`
	Clicks      []ClickView `json:"clicks"`
}
