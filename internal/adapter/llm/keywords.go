package llm

import (
	"strings"

	"github.com/xiaot623/scholar/internal/domain"
)

var intentKeywords = []struct {
	intent   domain.Intent
	keywords []string
}{
	{domain.IntentAnalysis, []string{"analyze", "analyse", "analysis", "compare", "evaluate", "critique"}},
	{domain.IntentResearch, []string{"research", "papers", "paper", "study", "studies", "literature", "survey"}},
	{domain.IntentKnowledgeQuery, []string{"what is", "what are", "explain", "define", "who ", "how does"}},
}

// KeywordIntent classifies message by keyword match. It stands in when the
// model is unavailable.
func KeywordIntent(message string) domain.Intent {
	lower := strings.ToLower(message)
	for _, group := range intentKeywords {
		for _, kw := range group.keywords {
			if strings.Contains(lower, kw) {
				return group.intent
			}
		}
	}
	return domain.IntentGeneral
}
