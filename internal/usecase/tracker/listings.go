package tracker

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"applytrack/internal/bootstrap/logging"
	domaintracker "applytrack/internal/domain/tracker"
	"applytrack/internal/errs"
)

func (s *Service) GetListing(ctx context.Context, id uuid.UUID) (domaintracker.Listing, error) {
	if err := requireContext(ctx); err != nil {
		return domaintracker.Listing{}, err
	}
	return s.listings.Get(ctx, id)
}

func (s *Service) GetListingByURL(ctx context.Context, rawURL string) (domaintracker.Listing, bool, error) {
	if err := requireContext(ctx); err != nil {
		return domaintracker.Listing{}, false, err
	}
	normalized, err := domaintracker.NormalizeURL(rawURL)
	if err != nil {
		return domaintracker.Listing{}, false, err
	}
	return s.listings.GetByURL(ctx, normalized)
}

// GetListingDetail returns the listing with its applications attached.
func (s *Service) GetListingDetail(ctx context.Context, id uuid.UUID) (domaintracker.Listing, error) {
	if err := requireContext(ctx); err != nil {
		return domaintracker.Listing{}, err
	}
	var listing domaintracker.Listing
	err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		listing, err = s.listings.Get(txCtx, id)
		if err != nil {
			return err
		}
		listing.Applications, err = s.applications.ListByListing(txCtx, id)
		return err
	})
	if err != nil {
		return domaintracker.Listing{}, err
	}
	return listing, nil
}

func (s *Service) ListListings(ctx context.Context, query domaintracker.ListingQuery) (domaintracker.Page[domaintracker.ListingSummary], error) {
	if err := requireContext(ctx); err != nil {
		return domaintracker.Page[domaintracker.ListingSummary]{}, err
	}
	normalized, err := query.Normalize()
	if err != nil {
		return domaintracker.Page[domaintracker.ListingSummary]{}, err
	}
	return s.listings.List(ctx, normalized)
}

// CreateListing stores the listing and then indexes its fingerprint. The
// index write happens after commit; when it fails the row stays and the
// error is returned so the caller can reindex.
func (s *Service) CreateListing(ctx context.Context, listing domaintracker.Listing) (domaintracker.Listing, error) {
	if err := requireContext(ctx); err != nil {
		return domaintracker.Listing{}, err
	}
	listing, err := prepareListing(listing)
	if err != nil {
		return domaintracker.Listing{}, err
	}

	err = s.uow.WithTx(ctx, func(txCtx context.Context) error {
		existing, found, err := s.listings.GetByURL(txCtx, listing.URL)
		if err != nil {
			return err
		}
		if found {
			return errs.Duplicatef("listing with url %s already exists as %s", listing.URL, existing.ID)
		}
		return s.listings.Create(txCtx, listing)
	})
	if err != nil {
		return domaintracker.Listing{}, err
	}

	if err := s.indexListings(ctx, []domaintracker.Listing{listing}); err != nil {
		logging.Error(s.logCtx(ctx), "listing stored but not indexed",
			slog.String("listing_id", listing.ID.String()),
			slog.Any("err", errs.Loggable(err)),
		)
		return listing, errs.Wrapf(err, "index listing %s", listing.ID)
	}

	logging.Info(s.logCtx(ctx), "listing created",
		slog.String("listing_id", listing.ID.String()),
		slog.String("company", listing.Company),
	)
	return listing, nil
}

func prepareListing(listing domaintracker.Listing) (domaintracker.Listing, error) {
	normalized, err := domaintracker.NormalizeURL(listing.URL)
	if err != nil {
		return domaintracker.Listing{}, err
	}
	listing.URL = normalized
	if listing.ID == uuid.Nil {
		listing.ID = uuid.New()
	}
	if listing.Skills == nil {
		listing.Skills = []string{}
	}
	if listing.Requirements == nil {
		listing.Requirements = []string{}
	}
	listing.Applications = nil
	if err := listing.Validate(); err != nil {
		return domaintracker.Listing{}, err
	}
	return listing, nil
}

func (s *Service) indexListings(ctx context.Context, listings []domaintracker.Listing) error {
	if len(listings) == 0 {
		return nil
	}
	documents := make([]string, len(listings))
	metadatas := make([]map[string]string, len(listings))
	for i, listing := range listings {
		documents[i] = domaintracker.Fingerprint(listing)
		metadatas[i] = map[string]string{"listing_id": listing.ID.String()}
	}
	return s.index.AddDocuments(ctx, s.collection, documents, metadatas)
}

// ClassifyDraft tells whether a draft listing is new, shares a url with a
// stored listing, or duplicates one by content. It never writes.
func (s *Service) ClassifyDraft(ctx context.Context, draft domaintracker.Listing) (domaintracker.DraftClassification, error) {
	if err := requireContext(ctx); err != nil {
		return domaintracker.DraftClassification{}, err
	}
	normalized, err := domaintracker.NormalizeURL(draft.URL)
	if err != nil {
		return domaintracker.DraftClassification{}, err
	}
	existing, found, err := s.listings.GetByURL(ctx, normalized)
	if err != nil {
		return domaintracker.DraftClassification{}, err
	}
	if found {
		return domaintracker.DraftClassification{Reason: domaintracker.DraftDuplicateURL, Duplicate: &existing}, nil
	}

	match, found, err := s.duplicates.FindSimilar(ctx, draft)
	if err != nil {
		return domaintracker.DraftClassification{}, err
	}
	if found {
		return domaintracker.DraftClassification{Reason: domaintracker.DraftDuplicateContent, Duplicate: &match}, nil
	}
	return domaintracker.DraftClassification{Reason: domaintracker.DraftUnique}, nil
}

func (s *Service) FindSimilar(ctx context.Context, candidate domaintracker.Listing) (domaintracker.Listing, bool, error) {
	if err := requireContext(ctx); err != nil {
		return domaintracker.Listing{}, false, err
	}
	return s.duplicates.FindSimilar(ctx, candidate)
}

func (s *Service) UpdateListingNotes(ctx context.Context, id uuid.UUID, notes *string) (domaintracker.Listing, error) {
	if err := requireContext(ctx); err != nil {
		return domaintracker.Listing{}, err
	}
	var listing domaintracker.Listing
	err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.listings.UpdateNotes(txCtx, id, notes); err != nil {
			return err
		}
		var err error
		listing, err = s.listings.Get(txCtx, id)
		return err
	})
	if err != nil {
		return domaintracker.Listing{}, err
	}
	return listing, nil
}

// ReindexListings rebuilds the semantic collection from every stored listing.
func (s *Service) ReindexListings(ctx context.Context) (int, error) {
	if err := requireContext(ctx); err != nil {
		return 0, err
	}
	listings, err := s.listings.Scan(ctx, 0)
	if err != nil {
		return 0, err
	}
	if err := s.index.DeleteCollection(ctx, s.collection); err != nil {
		return 0, errs.Wrap(err, "drop listing collection")
	}
	if err := s.indexListings(ctx, listings); err != nil {
		return 0, errs.Wrap(err, "index listings")
	}
	logging.Info(s.logCtx(ctx), "listings reindexed", slog.Int("count", len(listings)))
	return len(listings), nil
}
