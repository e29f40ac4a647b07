package models

import "time"

// Candidate is one discovered store entry that survived every filter:
// recent enough, reviewed enough (but not mainstream), and not free.
type Candidate struct {
	Title            string    `json:"title"`
	AppID            string    `json:"app_id"`
	ReleaseDate      time.Time `json:"release_date"`
	DaysSinceRelease int       `json:"days_since_release"`
	ReviewCount      int       `json:"reviews"`
	RatingPercent    int       `json:"rating"`
	PriceAmount      float64   `json:"price_val"`
	PriceDisplay     string    `json:"price_str"`
	ThumbnailURL     string    `json:"thumb"`
	HeaderImageURL   string    `json:"header_img"`
	Description      string    `json:"full_desc"`
	Tags             string    `json:"tags"`
	Screenshots      []string  `json:"screenshots,omitempty"`
}

// Snapshot is the persisted result of one full discovery scan.
// Date uses the "2006-01-02" layout so same-day checks are a string compare.
type Snapshot struct {
	Date   string      `json:"date"`
	Games  []Candidate `json:"games"`
	Region string      `json:"region"`
}

// Details holds the enrichment fetched from the appdetails endpoint.
// Degraded is set when the lookup failed and the placeholder values were
// substituted, so callers can tell "empty" from "fetch failed".
type Details struct {
	Description string   `json:"description"`
	Tags        string   `json:"tags"`
	Screenshots []string `json:"screenshots,omitempty"`
	Degraded    bool     `json:"degraded,omitempty"`
}
