package domain

import (
	"encoding/json"
	"time"
)

// Conversation groups the messages sent under one conversation identity.
type Conversation struct {
	ConversationID string    `json:"conversation_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// Message represents a single message in a conversation.
type Message struct {
	MessageID      string    `json:"message_id"`
	ConversationID string    `json:"conversation_id"`
	RunID          string    `json:"run_id,omitempty"`
	Role           Role      `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

// Run represents a single processed request.
type Run struct {
	RunID          string     `json:"process_id"`
	ConversationID string     `json:"conversation_id"`
	Status         RunStatus  `json:"status"`
	Message        string     `json:"message"`
	Intent         Intent     `json:"intent,omitempty"`
	StartedAt      time.Time  `json:"start_time"`
	EndedAt        *time.Time `json:"end_time,omitempty"`
	Error          string     `json:"error,omitempty"`
}

// Event is one frame recorded for replay.
type Event struct {
	EventID string          `json:"event_id"`
	RunID   string          `json:"run_id"`
	Ts      int64           `json:"ts"` // Unix milliseconds
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Paper is a research paper in the knowledge store.
type Paper struct {
	PaperID   string    `json:"paper_id"`
	Title     string    `json:"title"`
	Authors   []string  `json:"authors,omitempty"`
	Abstract  string    `json:"abstract,omitempty"`
	URL       string    `json:"url,omitempty"`
	Topic     string    `json:"topic"`
	CreatedAt time.Time `json:"created_at"`
}

// Insight is a finding recorded against a topic.
type Insight struct {
	InsightID  string    `json:"insight_id"`
	Topic      string    `json:"topic"`
	Content    string    `json:"content"`
	Source     string    `json:"source,omitempty"`
	Confidence float64   `json:"confidence"`
	CreatedAt  time.Time `json:"created_at"`
}

// Memory is a searchable knowledge entry backing a paper or an insight.
type Memory struct {
	MemoryID  string     `json:"memory_id"`
	Kind      MemoryKind `json:"kind"`
	RefID     string     `json:"ref_id"`
	Topic     string     `json:"topic"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"created_at"`
}

// SearchResult is a memory scored against a query.
type SearchResult struct {
	Memory
	Score int `json:"score"`
}

// KnowledgeSummary aggregates what is known about a topic.
type KnowledgeSummary struct {
	Topic        string    `json:"topic"`
	PaperCount   int       `json:"paper_count"`
	InsightCount int       `json:"insight_count"`
	RecentPapers []Paper   `json:"recent_papers"`
	TopInsights  []Insight `json:"top_insights"`
}
