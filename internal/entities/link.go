package entities

import "time"

// Link represents a shortcode-to-URL mapping in the database
type Link struct {
	ID          string    `json:"id"` // UUID
	ShortCode   string    `json:"short_code"`
	OriginalURL string    `json:"original_url"`
	ClickCount  int64     `json:"click_count"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Expired reports whether the link's validity window has elapsed at now.
func (l *Link) Expired(now time.Time) bool {
	return !now.Before(l.ExpiresAt)
}

// Click represents one recorded redirect for a link
type Click struct {
	ID        int64     `json:"id"`
	LinkID    string    `json:"link_id"`
	ClickedAt time.Time `json:"clicked_at"`
	Referrer  *string   `json:"referrer,omitempty"` // Pointer allows nil (client sent no Referer header)
	IPAddress string    `json:"ip_address"`
	Location  string    `json:"location"` // coarse, e.g. "India" or "Unknown"
}
