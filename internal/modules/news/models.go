package news

import "time"

// News type reference IDs, seeded by the app schema.
const (
	TypeNews  = 1
	TypeAlert = 2
)

// Item is one per-ticker news or alert record. Staged items come from bulk
// imports and are invisible until promoted; the cleanup operation deletes
// them.
type Item struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Ticker      string    `json:"ticker"`
	TypeID      int       `json:"type_id"`
	Type        string    `json:"type"`
	Headline    string    `json:"headline"`
	Body        *string   `json:"body,omitempty"`
	PublishedAt string    `json:"published_at"` // YYYY-MM-DD
	Staged      bool      `json:"staged"`
	CreatedAt   time.Time `json:"created_at"`
}

// ItemInput is the POST body for a news item.
type ItemInput struct {
	Ticker      string  `json:"ticker"`
	TypeID      int     `json:"type_id"`
	Headline    string  `json:"headline"`
	Body        *string `json:"body"`
	PublishedAt string  `json:"published_at"`
	Staged      bool    `json:"staged"`
}
