package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/xiaot623/scholar/internal/domain"
)

// AddPaper inserts a paper and its searchable memory in one transaction.
// Empty ids and timestamps are filled in. Adding a paper id that is already
// stored changes nothing.
func (s *SQLiteStore) AddPaper(ctx context.Context, paper *domain.Paper) error {
	if paper.PaperID == "" {
		paper.PaperID = uuid.New().String()
	}
	if paper.CreatedAt.IsZero() {
		paper.CreatedAt = time.Now()
	}
	authors, err := json.Marshal(paper.Authors)
	if err != nil {
		return fmt.Errorf("failed to marshal authors: %w", err)
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO papers (paper_id, title, authors, abstract, url, topic, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			paper.PaperID, paper.Title, string(authors), paper.Abstract, paper.URL, paper.Topic, paper.CreatedAt)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil || n == 0 {
			return err
		}
		content := paper.Title
		if paper.Abstract != "" {
			content += "\n" + paper.Abstract
		}
		return insertMemory(ctx, tx, domain.MemoryPaper, paper.PaperID, paper.Topic, content, paper.CreatedAt)
	})
}

// AddInsight inserts an insight and its searchable memory in one transaction.
func (s *SQLiteStore) AddInsight(ctx context.Context, insight *domain.Insight) error {
	if insight.InsightID == "" {
		insight.InsightID = uuid.New().String()
	}
	if insight.CreatedAt.IsZero() {
		insight.CreatedAt = time.Now()
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO insights (insight_id, topic, content, source, confidence, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			insight.InsightID, insight.Topic, insight.Content, insight.Source, insight.Confidence, insight.CreatedAt); err != nil {
			return err
		}
		return insertMemory(ctx, tx, domain.MemoryInsight, insight.InsightID, insight.Topic, insight.Content, insight.CreatedAt)
	})
}

func insertMemory(ctx context.Context, tx *sql.Tx, kind domain.MemoryKind, refID, topic, content string, at time.Time) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO memories (memory_id, kind, ref_id, topic, content, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), kind, refID, topic, content, at)
	return err
}

// SearchKnowledge matches memories containing any query term. Results are
// scored by the number of term occurrences, best first.
func (s *SQLiteStore) SearchKnowledge(ctx context.Context, query string, limit int) ([]domain.SearchResult, error) {
	terms := searchTerms(query)
	if len(terms) == 0 {
		return nil, nil
	}

	clauses := make([]string, 0, len(terms))
	args := make([]interface{}, 0, 2*len(terms))
	for _, term := range terms {
		clauses = append(clauses, `(LOWER(content) LIKE ? OR LOWER(topic) LIKE ?)`)
		pattern := "%" + term + "%"
		args = append(args, pattern, pattern)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT memory_id, kind, ref_id, topic, content, created_at FROM memories WHERE `+strings.Join(clauses, " OR "),
		args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.SearchResult
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, err
		}
		text := strings.ToLower(m.Topic + " " + m.Content)
		score := 0
		for _, term := range terms {
			score += strings.Count(text, term)
		}
		results = append(results, domain.SearchResult{Memory: *m, Score: score})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// searchTerms lowercases the query and drops duplicate and one-letter words.
func searchTerms(query string) []string {
	seen := make(map[string]bool)
	var terms []string
	for _, f := range strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !(r == '-' || r == '_' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r > 127)
	}) {
		if len(f) < 2 || seen[f] {
			continue
		}
		seen[f] = true
		terms = append(terms, f)
	}
	return terms
}

// RelatedPapers returns the newest papers whose topic or title mentions topic.
func (s *SQLiteStore) RelatedPapers(ctx context.Context, topic string, limit int) ([]domain.Paper, error) {
	pattern := "%" + strings.ToLower(topic) + "%"
	rows, err := s.db.QueryContext(ctx,
		`SELECT paper_id, title, authors, abstract, url, topic, created_at FROM papers
		WHERE LOWER(topic) LIKE ? OR LOWER(title) LIKE ? ORDER BY created_at DESC LIMIT ?`,
		pattern, pattern, limitOrAll(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var papers []domain.Paper
	for rows.Next() {
		var p domain.Paper
		var authors, abstract, url sql.NullString
		if err := rows.Scan(&p.PaperID, &p.Title, &authors, &abstract, &url, &p.Topic, &p.CreatedAt); err != nil {
			return nil, err
		}
		if authors.String != "" {
			if err := json.Unmarshal([]byte(authors.String), &p.Authors); err != nil {
				return nil, fmt.Errorf("paper %s: bad authors: %w", p.PaperID, err)
			}
		}
		p.Abstract = abstract.String
		p.URL = url.String
		papers = append(papers, p)
	}
	return papers, rows.Err()
}

// ResearchInsights returns the most confident insights on topic.
func (s *SQLiteStore) ResearchInsights(ctx context.Context, topic string, limit int) ([]domain.Insight, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT insight_id, topic, content, source, confidence, created_at FROM insights
		WHERE LOWER(topic) LIKE ? ORDER BY confidence DESC, created_at DESC LIMIT ?`,
		"%"+strings.ToLower(topic)+"%", limitOrAll(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var insights []domain.Insight
	for rows.Next() {
		var in domain.Insight
		var source sql.NullString
		if err := rows.Scan(&in.InsightID, &in.Topic, &in.Content, &source, &in.Confidence, &in.CreatedAt); err != nil {
			return nil, err
		}
		in.Source = source.String
		insights = append(insights, in)
	}
	return insights, rows.Err()
}

// KnowledgeSummary counts papers and insights on topic and samples the best of each.
func (s *SQLiteStore) KnowledgeSummary(ctx context.Context, topic string) (*domain.KnowledgeSummary, error) {
	pattern := "%" + strings.ToLower(topic) + "%"
	summary := &domain.KnowledgeSummary{Topic: topic}

	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM papers WHERE LOWER(topic) LIKE ? OR LOWER(title) LIKE ?`,
		pattern, pattern).Scan(&summary.PaperCount); err != nil {
		return nil, err
	}
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM insights WHERE LOWER(topic) LIKE ?`,
		pattern).Scan(&summary.InsightCount); err != nil {
		return nil, err
	}

	var err error
	if summary.RecentPapers, err = s.RelatedPapers(ctx, topic, 5); err != nil {
		return nil, err
	}
	if summary.TopInsights, err = s.ResearchInsights(ctx, topic, 5); err != nil {
		return nil, err
	}
	return summary, nil
}

// ListMemories returns the newest memories.
func (s *SQLiteStore) ListMemories(ctx context.Context, limit int) ([]domain.Memory, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT memory_id, kind, ref_id, topic, content, created_at FROM memories ORDER BY created_at DESC LIMIT ?`,
		limitOrAll(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var memories []domain.Memory
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, err
		}
		memories = append(memories, *m)
	}
	return memories, rows.Err()
}

// DeleteMemory removes a memory together with the paper or insight it indexes.
func (s *SQLiteStore) DeleteMemory(ctx context.Context, memoryID string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var kind domain.MemoryKind
		var refID string
		err := tx.QueryRowContext(ctx,
			`SELECT kind, ref_id FROM memories WHERE memory_id = ?`, memoryID).Scan(&kind, &refID)
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM memories WHERE memory_id = ?`, memoryID); err != nil {
			return err
		}
		switch kind {
		case domain.MemoryPaper:
			_, err = tx.ExecContext(ctx, `DELETE FROM papers WHERE paper_id = ?`, refID)
		case domain.MemoryInsight:
			_, err = tx.ExecContext(ctx, `DELETE FROM insights WHERE insight_id = ?`, refID)
		}
		return err
	})
}

func scanMemory(row scanner) (*domain.Memory, error) {
	var m domain.Memory
	if err := row.Scan(&m.MemoryID, &m.Kind, &m.RefID, &m.Topic, &m.Content, &m.CreatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *SQLiteStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// limitOrAll maps a non-positive limit to SQLite's "no limit".
func limitOrAll(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}
