package article

import "time"

// LinkSentinel marks an item whose external link could not be resolved.
// Candidates carrying it never survive the quality gates.
const LinkSentinel = "#"

// Candidate is a normalized article produced by the pipeline before
// persistence. ImageURL is empty when no image could be resolved.
type Candidate struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Summary    string    `json:"summary"`
	Content    string    `json:"content,omitempty"`
	Date       time.Time `json:"date"`
	Source     string    `json:"source"`
	Category   string    `json:"category"`
	ImageURL   string    `json:"imageUrl,omitempty"`
	Link       string    `json:"link"`
	SourceLink string    `json:"sourceLink"`
	FetchedAt  time.Time `json:"fetchedAt"`
}

// Stats summarizes one persistence batch for the admin trigger.
type Stats struct {
	NewlyAdded          int `json:"newlyAddedCount"`
	ProcessedInBatch    int `json:"processedInBatch"`
	SkippedBySourceLink int `json:"skippedBySourceLink"`
	SkippedByTitle      int `json:"skippedByTitle"`
}
