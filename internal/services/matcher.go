package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/anonto42/reunite-ai/backend/internal/metrics"
	"github.com/anonto42/reunite-ai/backend/internal/models"
	"github.com/anonto42/reunite-ai/backend/internal/repositories"
)

const (
	// DefaultSimilarityThreshold is the cosine distance at or above which candidates are dropped.
	// Past deployments used 0.15, 0.20 and 0.25; it is configuration, not a law.
	DefaultSimilarityThreshold = 0.20
	// DefaultMatchLimit caps the number of candidates returned.
	DefaultMatchLimit = 5
)

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {}, "by": {}, "for": {},
	"from": {}, "has": {}, "have": {}, "he": {}, "her": {}, "his": {}, "i": {}, "in": {}, "is": {},
	"it": {}, "its": {}, "lost": {}, "found": {}, "me": {}, "my": {}, "of": {}, "on": {}, "or": {},
	"our": {}, "she": {}, "that": {}, "the": {}, "their": {}, "them": {}, "there": {}, "they": {},
	"this": {}, "to": {}, "was": {}, "were": {}, "which": {}, "while": {}, "who": {}, "will": {},
	"with": {}, "you": {}, "your": {}, "near": {}, "some": {}, "one": {}, "item": {},
}

// MatcherConfig tunes the two-stage search
type MatcherConfig struct {
	Threshold float64
	Limit     int
	Mode      repositories.MatchMode
}

// CandidateFinder is the contract consumed by the dispatcher and handlers
type CandidateFinder interface {
	FindCandidates(ctx context.Context, embedding []float32, text string, target models.ItemStatus) ([]models.Candidate, error)
}

// Matcher runs a lexical prefilter followed by a vector re-rank
type Matcher struct {
	items   repositories.ItemRepository
	cfg     MatcherConfig
	metrics metrics.Recorder
}

// NewMatcher creates a new Matcher
func NewMatcher(items repositories.ItemRepository, cfg MatcherConfig, rec metrics.Recorder) *Matcher {
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultSimilarityThreshold
	}
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultMatchLimit
	}
	if cfg.Mode == "" {
		cfg.Mode = repositories.MatchAll
	}
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &Matcher{items: items, cfg: cfg, metrics: rec}
}

// Threshold returns the configured cosine distance cut-off
func (m *Matcher) Threshold() float64 { return m.cfg.Threshold }

// Mode returns the lexical prefilter mode
func (m *Matcher) Mode() repositories.MatchMode { return m.cfg.Mode }

// FindCandidates returns at most Limit items in the target status, nearest first.
// An empty cleaned query or an empty lexical stage yields no candidates; there is
// no fallback to an unfiltered vector scan.
func (m *Matcher) FindCandidates(ctx context.Context, embedding []float32, text string, target models.ItemStatus) ([]models.Candidate, error) {
	terms := CleanQuery(text)
	if len(terms) == 0 || len(embedding) == 0 {
		m.metrics.CandidatesFound(string(target), 0)
		return []models.Candidate{}, nil
	}

	ids, err := m.items.LexicalCandidates(ctx, target, terms, m.cfg.Mode)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if len(ids) == 0 {
		m.metrics.CandidatesFound(string(target), 0)
		return []models.Candidate{}, nil
	}

	ranked, err := m.items.RankByDistance(ctx, ids, embedding)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Distance < ranked[j].Distance })

	// Filter before truncating so the cap never hides a closer item.
	out := make([]models.Candidate, 0, m.cfg.Limit)
	for _, c := range ranked {
		if c.Distance >= m.cfg.Threshold {
			continue
		}
		out = append(out, c)
		if len(out) == m.cfg.Limit {
			break
		}
	}

	m.metrics.CandidatesFound(string(target), len(out))
	return out, nil
}

// CleanQuery lower-cases the text, strips non-alphanumerics and drops
// single-character tokens and stop-words. Order is kept, duplicates removed.
func CleanQuery(text string) []string {
	normalized := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, text)

	seen := make(map[string]struct{})
	var terms []string
	for _, tok := range strings.Fields(normalized) {
		if len([]rune(tok)) < 2 {
			continue
		}
		if _, stop := stopWords[tok]; stop {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		terms = append(terms, tok)
	}
	return terms
}

// MatchesForLostItem searches found reports for a stored lost report owned by userID
func (m *Matcher) MatchesForLostItem(ctx context.Context, lostItemID uint, userID string) ([]models.Candidate, error) {
	lost, err := m.items.GetItemByID(ctx, lostItemID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: item %d", ErrNotFound, lostItemID)
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if lost.Status != models.StatusLost && lost.Status != models.StatusReunited {
		return nil, fmt.Errorf("%w: item %d is not a lost report", ErrNotFound, lostItemID)
	}
	if lost.UserID != nil && !lost.OwnedBy(userID) {
		return nil, ErrNotFoundOrNotOwned
	}
	return m.FindCandidates(ctx, lost.Embedding.Slice(), lost.Description, models.StatusFound)
}
