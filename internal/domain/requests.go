package domain

// AgentRequest is the body of POST /agent and POST /agent/stream.
type AgentRequest struct {
	ConversationHash string `json:"conversation_hash"`
	CustomerMessage  string `json:"customer_message"`
	RequestTimestamp string `json:"request_timestamp,omitempty"`
}

// AgentResponse is the non-streaming reply.
type AgentResponse struct {
	Response     string        `json:"response"`
	Intent       Intent        `json:"intent,omitempty"`
	Plan         []string      `json:"plan,omitempty"`
	ResearchData *ResearchData `json:"research_data,omitempty"`
	ProcessID    string        `json:"process_id,omitempty"`
}

// ResearchData is the knowledge the answer was grounded on.
type ResearchData struct {
	Results []SearchResult `json:"results"`
	Papers  []Paper        `json:"papers,omitempty"`
}

// ProcessStatus reports a run over HTTP.
type ProcessStatus struct {
	ProcessID string    `json:"process_id"`
	Status    RunStatus `json:"status"`
	Message   string    `json:"message"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// SearchRequest is the body of POST /knowledge/search.
type SearchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

// AddPaperRequest is the body of POST /knowledge/papers.
type AddPaperRequest struct {
	Title    string   `json:"title"`
	Authors  []string `json:"authors,omitempty"`
	Abstract string   `json:"abstract,omitempty"`
	URL      string   `json:"url,omitempty"`
	Topic    string   `json:"topic"`
}

// AddInsightRequest is the body of POST /knowledge/insights.
type AddInsightRequest struct {
	Topic      string  `json:"topic"`
	Content    string  `json:"content"`
	Source     string  `json:"source,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}
