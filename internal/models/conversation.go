// Package models contains the domain types shared across the application.
package models

import "time"

// Conversation is one chat session. It owns its messages, analysis
// results, and at most one pending task.
type Conversation struct {
	ID        string
	Title     string // empty until an analysis suggests a topic
	Summary   string
	Tags      []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DisplayTitle returns the title, or a placeholder when none is set.
func (c *Conversation) DisplayTitle() string {
	if c.Title != "" {
		return c.Title
	}
	return "Untitled Conversation"
}
