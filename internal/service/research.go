package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/xiaot623/scholar/internal/adapter/llm"
	"github.com/xiaot623/scholar/internal/domain"
	"github.com/xiaot623/scholar/internal/policy"
)

const (
	intentPrompt = `Classify the user's research request into exactly one category and reply with that single word:
research - find papers or explore a new topic
analysis - analyze specific papers or findings in detail
knowledge_query - ask about knowledge and insights already collected
general - anything else`

	answerPrompt = `You are a helpful research assistant. Answer the user's request using the research data below when it is relevant.
When research data is available include the key findings, the relevant papers and suggestions for further research.
When it is not, give a helpful general answer.`

	searchLimit = 5
)

// stepFunc reports that the pipeline entered step n.
type stepFunc func(n int, message string) error

func noSteps(int, string) error { return nil }

// process runs the research pipeline for one request inside run.
func (s *Service) process(ctx context.Context, run *domain.Run, req domain.AgentRequest, step stepFunc) (*domain.AgentResponse, error) {
	if err := step(1, "Analyzing request intent..."); err != nil {
		return nil, err
	}
	intent := s.DetectIntent(ctx, req.CustomerMessage)
	if err := s.store.SetRunIntent(ctx, run.RunID, intent); err != nil {
		return nil, fmt.Errorf("failed to record intent: %w", err)
	}

	if err := step(2, "Initializing agent workflow..."); err != nil {
		return nil, err
	}
	plan, err := s.policyEngine.Plan(ctx, intent)
	if err != nil {
		return nil, err
	}
	history, err := s.store.GetMessages(ctx, req.ConversationHash, s.config.HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	if err := s.saveMessage(ctx, run, domain.RoleUser, req.CustomerMessage); err != nil {
		return nil, err
	}

	if err := step(3, "Processing with research agent..."); err != nil {
		return nil, err
	}
	data, err := s.gather(ctx, intent, req.CustomerMessage)
	if err != nil {
		return nil, err
	}
	answer, err := s.answer(ctx, req.CustomerMessage, intent, plan, data, history)
	if err != nil {
		return nil, err
	}

	if err := step(4, "Finalizing results..."); err != nil {
		return nil, err
	}
	if err := s.saveMessage(ctx, run, domain.RoleAssistant, answer); err != nil {
		return nil, err
	}
	s.writeBack(ctx, intent, req.CustomerMessage, answer, data)

	if err := step(5, completionMessage(intent)); err != nil {
		return nil, err
	}

	return &domain.AgentResponse{
		Response:     answer,
		Intent:       intent,
		Plan:         plan,
		ResearchData: data,
		ProcessID:    run.RunID,
	}, nil
}

func completionMessage(intent domain.Intent) string {
	switch intent {
	case domain.IntentResearch:
		return "Research completed - papers analyzed and knowledge updated"
	case domain.IntentKnowledgeQuery:
		return "Knowledge base searched and results compiled"
	}
	return "Response generated successfully"
}

// DetectIntent asks the model to classify message. Unrecognized answers map
// to general; a failing model falls back to keyword matching.
func (s *Service) DetectIntent(ctx context.Context, message string) domain.Intent {
	resp, err := s.llmClient.CreateChatCompletion(ctx, &llm.ChatCompletionRequest{
		Model: s.config.LLMModel,
		Messages: []llm.ChatMessage{
			{Role: string(domain.RoleSystem), Content: intentPrompt},
			{Role: string(domain.RoleUser), Content: message},
		},
	})
	if err != nil {
		s.logger.Warn("intent detection failed, using keywords", "error", err)
		return llm.KeywordIntent(message)
	}
	return domain.ParseIntent(resp.Content())
}

// gather collects knowledge relevant to message. Research and analysis
// requests also search arXiv and pull related papers.
func (s *Service) gather(ctx context.Context, intent domain.Intent, message string) (*domain.ResearchData, error) {
	results, err := s.store.SearchKnowledge(ctx, message, searchLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to search knowledge: %w", err)
	}
	data := &domain.ResearchData{Results: results}
	if intent != domain.IntentResearch && intent != domain.IntentAnalysis {
		return data, nil
	}

	data.Papers = s.fetchPapers(ctx, message, results)
	if len(results) == 0 {
		return data, nil
	}
	related, err := s.store.RelatedPapers(ctx, results[0].Topic, searchLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load related papers: %w", err)
	}
	data.Papers = mergePapers(data.Papers, related)
	return data, nil
}

func mergePapers(a, b []domain.Paper) []domain.Paper {
	seen := make(map[string]bool, len(a))
	for _, p := range a {
		seen[p.PaperID] = true
	}
	for _, p := range b {
		if !seen[p.PaperID] {
			seen[p.PaperID] = true
			a = append(a, p)
		}
	}
	return a
}

func (s *Service) answer(ctx context.Context, message string, intent domain.Intent, plan []string, data *domain.ResearchData, history []domain.Message) (string, error) {
	messages := []llm.ChatMessage{{Role: string(domain.RoleSystem), Content: answerPrompt}}
	for _, m := range history {
		messages = append(messages, llm.ChatMessage{Role: string(m.Role), Content: m.Content})
	}

	var b strings.Builder
	b.WriteString(message)
	fmt.Fprintf(&b, "\n\nIntent: %s\nPlan: %s\n", intent, strings.Join(plan, " → "))
	if len(data.Results) > 0 {
		b.WriteString("\nResearch data:\n")
		for _, r := range data.Results {
			fmt.Fprintf(&b, "- [%s, %s] %s\n", r.Kind, r.Topic, r.Content)
		}
	}
	for _, p := range data.Papers {
		fmt.Fprintf(&b, "- paper: %s (%s)\n", p.Title, strings.Join(p.Authors, ", "))
	}
	messages = append(messages, llm.ChatMessage{Role: string(domain.RoleUser), Content: b.String()})

	resp, err := s.llmClient.CreateChatCompletion(ctx, &llm.ChatCompletionRequest{
		Model:    s.config.LLMModel,
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate answer: %w", err)
	}
	return strings.TrimSpace(resp.Content()), nil
}

// writeBack stores answer as an insight when policy allows. Failures are
// logged only; the answer has already been produced.
func (s *Service) writeBack(ctx context.Context, intent domain.Intent, message, answer string, data *domain.ResearchData) {
	allowed, err := s.policyEngine.AllowWrite(ctx, policy.WriteInput{
		Intent:         intent,
		ResponseLength: len(answer),
		Sources:        len(data.Results),
	})
	if err != nil {
		s.logger.Warn("write policy failed", "error", err)
		return
	}
	if !allowed {
		return
	}

	topic := message
	if len(data.Results) > 0 {
		topic = data.Results[0].Topic
	}
	insight := &domain.Insight{
		Topic:      topic,
		Content:    answer,
		Source:     "assistant",
		Confidence: 0.5,
	}
	if err := s.store.AddInsight(ctx, insight); err != nil {
		s.logger.Warn("failed to store insight", "error", err)
		return
	}
	s.logger.Debug("insight stored", "insight_id", insight.InsightID, "topic", topic)
}

func (s *Service) saveMessage(ctx context.Context, run *domain.Run, role domain.Role, content string) error {
	err := s.store.CreateMessage(ctx, &domain.Message{
		MessageID:      uuid.New().String(),
		ConversationID: run.ConversationID,
		RunID:          run.RunID,
		Role:           role,
		Content:        content,
		CreatedAt:      time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to save %s message: %w", role, err)
	}
	return nil
}
