package arxiv

import (
	"strings"
	"unicode"
)

const maxQueryTerms = 4

// stopWords are dropped from free text before it becomes a catalogue query.
// Besides common English they cover the phrasing of research requests.
var stopWords = map[string]bool{
	"a": true, "about": true, "an": true, "and": true, "any": true, "are": true,
	"can": true, "could": true, "do": true, "does": true, "for": true, "from": true,
	"how": true, "i": true, "in": true, "is": true, "it": true, "me": true,
	"of": true, "on": true, "or": true, "please": true, "some": true, "the": true,
	"to": true, "what": true, "which": true, "with": true, "you": true,
	"analyze": true, "analysis": true, "explore": true, "find": true, "latest": true,
	"look": true, "new": true, "paper": true, "papers": true, "recent": true,
	"research": true, "search": true, "show": true, "study": true, "studies": true,
	"tell": true,
}

// Terms returns the distinct content words of text, lower-cased, in order
// of appearance.
func Terms(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	})
	seen := make(map[string]bool, len(words))
	var terms []string
	for _, w := range words {
		w = strings.Trim(w, "-")
		if len(w) < 2 || stopWords[w] || seen[w] {
			continue
		}
		seen[w] = true
		terms = append(terms, w)
	}
	return terms
}

// BuildQuery turns a free-text request into an arXiv search_query that
// requires the first few content words. It returns "" when text has none.
func BuildQuery(text string) string {
	terms := Terms(text)
	if len(terms) > maxQueryTerms {
		terms = terms[:maxQueryTerms]
	}
	clauses := make([]string, len(terms))
	for i, t := range terms {
		clauses[i] = "all:" + t
	}
	return strings.Join(clauses, " AND ")
}
