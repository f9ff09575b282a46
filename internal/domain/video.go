package domain

import (
	"errors"
	"fmt"
)

const (
	unknownTitle    = "Unknown title"
	unknownDuration = "?"
)

var (
	ErrNoQuery     = errors.New("no query provided")
	ErrNoResults   = errors.New("no videos found")
	ErrNoSelection = errors.New("no valid selection made")
	ErrMissingLink = errors.New("missing URL for selected video")
)

// SearchResult describes one matched video. Duration is free-form text as
// supplied by the platform.
type SearchResult struct {
	ID       string `json:"id,omitempty"`
	Title    string `json:"title"`
	Duration string `json:"duration"`
	Link     string `json:"link"`
	Channel  string `json:"channel,omitempty"`
}

// DisplayTitle returns the title, or a placeholder when the platform sent none
func (r SearchResult) DisplayTitle() string {
	if r.Title == "" {
		return unknownTitle
	}
	return r.Title
}

// DisplayDuration returns the duration, or a placeholder when unknown
func (r SearchResult) DisplayDuration() string {
	if r.Duration == "" {
		return unknownDuration
	}
	return r.Duration
}

// Listing formats the result as a numbered line: "3. Title (4:05)"
func (r SearchResult) Listing(index int) string {
	return fmt.Sprintf("%d. %s (%s)", index, r.DisplayTitle(), r.DisplayDuration())
}
