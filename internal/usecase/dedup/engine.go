package dedup

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync/atomic"

	"github.com/google/uuid"

	"applytrack/internal/bootstrap/config"
	"applytrack/internal/bootstrap/logging"
	"applytrack/internal/domain/tracker"
	"applytrack/internal/errs"
	"applytrack/internal/ports"
)

// Settings are the tunables of duplicate detection. They can be swapped at
// runtime with SetSettings.
type Settings struct {
	SearchK           int
	SemanticThreshold float64
	TitleThreshold    float64
	CompanyThreshold  float64
	ScanLimit         int
	Collection        string
}

func SettingsFrom(cfg config.ListingsConfig) Settings {
	return Settings{
		SearchK:           cfg.SearchK,
		SemanticThreshold: cfg.SemanticThreshold,
		TitleThreshold:    cfg.TitleThreshold,
		CompanyThreshold:  cfg.CompanyThreshold,
		ScanLimit:         cfg.ScanLimit,
		Collection:        cfg.Collection,
	}
}

// Match is a stored listing scored against a candidate.
type Match struct {
	Listing tracker.Listing
	Score   float64
}

type Source string

const (
	SourceSemantic  Source = "semantic"
	SourceHeuristic Source = "heuristic"
)

// Engine finds at most one stored listing duplicating a candidate. It never
// writes and must be called outside a transaction because the vector index
// does its own I/O.
type Engine struct {
	listings ports.ListingRepository
	index    ports.VectorIndex
	settings atomic.Pointer[Settings]
}

func NewEngine(listings ports.ListingRepository, index ports.VectorIndex, settings Settings) *Engine {
	e := &Engine{listings: listings, index: index}
	e.SetSettings(settings)
	return e
}

// SetSettings swaps the thresholds used by the next lookup. The collection is
// fixed by the first call: the listing service keeps writing documents to it,
// so later calls keep the current one.
func (e *Engine) SetSettings(settings Settings) {
	if current := e.settings.Load(); current != nil {
		settings.Collection = current.Collection
	} else if settings.Collection == "" {
		settings.Collection = "listings"
	}
	e.settings.Store(&settings)
}

func (e *Engine) Settings() Settings {
	return *e.settings.Load()
}

// FindSimilar returns the duplicate of candidate, if any.
func (e *Engine) FindSimilar(ctx context.Context, candidate tracker.Listing) (tracker.Listing, bool, error) {
	if ctx == nil {
		return tracker.Listing{}, false, errors.New("context is required")
	}
	logCtx := logging.WithAttrs(ctx, slog.String("component", "usecase.dedup"))
	settings := e.Settings()

	semantic, err := e.semanticMatches(ctx, candidate, settings)
	if err != nil {
		return tracker.Listing{}, false, err
	}
	heuristic, err := e.heuristicMatches(ctx, candidate, settings)
	if err != nil {
		return tracker.Listing{}, false, err
	}

	match, source, ok := reconcile(semantic, heuristic)
	if !ok {
		return tracker.Listing{}, false, nil
	}
	// The company must match exactly, whatever the score.
	if match.Listing.Company != candidate.Company {
		logging.Debug(logCtx, "duplicate rejected by company",
			slog.String("source", string(source)),
			slog.String("listing_id", match.Listing.ID.String()),
			slog.Float64("score", match.Score),
		)
		return tracker.Listing{}, false, nil
	}

	logging.Info(logCtx, "duplicate listing found",
		slog.String("source", string(source)),
		slog.String("listing_id", match.Listing.ID.String()),
		slog.Float64("score", match.Score),
	)
	return match.Listing, true, nil
}

// reconcile picks the best head of semantic and heuristic. A score must be
// strictly positive and strictly beat the previous best, so semantic wins ties.
func reconcile(semantic, heuristic []Match) (Match, Source, bool) {
	var (
		best      Match
		source    Source
		found     bool
		bestScore float64
	)
	if len(semantic) > 0 && semantic[0].Score > bestScore {
		best, source, found, bestScore = semantic[0], SourceSemantic, true, semantic[0].Score
	}
	if len(heuristic) > 0 && heuristic[0].Score > bestScore {
		best, source, found = heuristic[0], SourceHeuristic, true
	}
	return best, source, found
}

// SemanticMatches returns stored listings whose fingerprint is at least
// SemanticThreshold similar to the candidate's, best first.
func (e *Engine) SemanticMatches(ctx context.Context, candidate tracker.Listing) ([]Match, error) {
	return e.semanticMatches(ctx, candidate, e.Settings())
}

func (e *Engine) semanticMatches(ctx context.Context, candidate tracker.Listing, settings Settings) ([]Match, error) {
	results, err := e.index.SearchDocuments(ctx, settings.Collection, tracker.Fingerprint(candidate), settings.SearchK)
	if err != nil {
		return nil, errs.Wrap(err, "search similar listings")
	}

	scores := make(map[uuid.UUID]float64, len(results))
	ids := make([]uuid.UUID, 0, len(results))
	for _, result := range results {
		if result.Similarity < settings.SemanticThreshold {
			continue
		}
		id, err := uuid.Parse(result.Metadata["listing_id"])
		if err != nil {
			continue
		}
		if previous, seen := scores[id]; seen {
			if result.Similarity > previous {
				scores[id] = result.Similarity
			}
			continue
		}
		scores[id] = result.Similarity
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	listings, err := e.listings.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	matches := make([]Match, 0, len(listings))
	for _, listing := range listings {
		matches = append(matches, Match{Listing: listing, Score: scores[listing.ID]})
	}
	sortByScore(matches)
	return matches, nil
}

// HeuristicMatches scans up to ScanLimit stored listings and keeps those
// whose title and company both clear their thresholds. Score is the mean.
func (e *Engine) HeuristicMatches(ctx context.Context, candidate tracker.Listing) ([]Match, error) {
	return e.heuristicMatches(ctx, candidate, e.Settings())
}

func (e *Engine) heuristicMatches(ctx context.Context, candidate tracker.Listing, settings Settings) ([]Match, error) {
	existing, err := e.listings.Scan(ctx, settings.ScanLimit)
	if err != nil {
		return nil, err
	}

	var matches []Match
	for _, listing := range existing {
		titleSim := TextSimilarity(candidate.Title, listing.Title)
		companySim := TextSimilarity(candidate.Company, listing.Company)
		if titleSim >= settings.TitleThreshold && companySim >= settings.CompanyThreshold {
			matches = append(matches, Match{Listing: listing, Score: (titleSim + companySim) / 2})
		}
	}
	sortByScore(matches)
	return matches, nil
}

func sortByScore(matches []Match) {
	slices.SortStableFunc(matches, func(a, b Match) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})
}
