// Package domain defines the core domain models for the research assistant.
package domain

import "strings"

// RunStatus represents the status of a run. A run tracks one streamed request.
type RunStatus string

const (
	RunStatusStarting   RunStatus = "starting"
	RunStatusProcessing RunStatus = "processing"
	RunStatusCompleted  RunStatus = "completed"
	RunStatusError      RunStatus = "error"
)

// Active reports whether the run has not reached a final status.
func (s RunStatus) Active() bool {
	return s == RunStatusStarting || s == RunStatusProcessing
}

// Intent classifies a user request.
type Intent string

const (
	IntentResearch       Intent = "research"
	IntentAnalysis       Intent = "analysis"
	IntentKnowledgeQuery Intent = "knowledge_query"
	IntentGeneral        Intent = "general"
)

// Intents lists every intent the researcher accepts.
var Intents = []Intent{IntentResearch, IntentAnalysis, IntentKnowledgeQuery, IntentGeneral}

// ParseIntent normalizes s and returns the matching intent, or IntentGeneral.
func ParseIntent(s string) Intent {
	s = strings.Trim(strings.ToLower(strings.TrimSpace(s)), ".\"'`")
	for _, in := range Intents {
		if string(in) == s {
			return in
		}
	}
	return IntentGeneral
}

// Role is the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// MemoryKind is the category of a knowledge memory row.
type MemoryKind string

const (
	MemoryPaper   MemoryKind = "paper"
	MemoryInsight MemoryKind = "insight"
)
