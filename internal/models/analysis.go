package models

// Revision is one rewrite produced by an analysis command.
type Revision struct {
	Original     string   `json:"original"`
	Rewritten    string   `json:"rewritten"`
	Issues       []string `json:"issues,omitempty"`
	Explanations []string `json:"explanations,omitempty"`
}

// Analysis is the structured result of one successful command
// execution. Produced exactly once, immutable afterwards.
type Analysis struct {
	Revisions      []Revision `json:"revisions,omitempty"`
	SuggestedTopic string     `json:"suggested_topic,omitempty"`
	Tags           []string   `json:"tags,omitempty"`
}

// Empty reports whether the analysis carries no content at all.
func (a *Analysis) Empty() bool {
	return a == nil || (len(a.Revisions) == 0 && a.SuggestedTopic == "" && len(a.Tags) == 0)
}
