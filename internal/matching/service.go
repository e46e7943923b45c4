package matching

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kaiub/surplus-backend/pkg/db/models"
	pkgerrors "github.com/kaiub/surplus-backend/pkg/errors"
	"github.com/kaiub/surplus-backend/pkg/logger"
	"github.com/kaiub/surplus-backend/pkg/metrics"
	"github.com/kaiub/surplus-backend/pkg/pagination"
)

// matchThreshold is the acceptance cutoff: only scores strictly above it
// produce a match row.
const matchThreshold = 0.3

// Service drives match generation and match reads.
type Service interface {
	GenerateMatches(ctx context.Context, farmerID uuid.UUID) (*Summary, error)
	ListKitchenMatches(ctx context.Context, params ListMatchesParams) (*MatchList, error)
}

type service struct {
	repo    Repository
	scorer  Scorer
	metrics *metrics.MatchingMetrics
	logg    *logger.Logger
	trigger string
	now     func() time.Time
}

// Summary reports what one generation pass processed. Pair failures do not
// fail the pass, so callers must not read success as "every pair persisted".
type Summary struct {
	Listings       int `json:"surplus_listings"`
	Kitchens       int `json:"kitchens"`
	PairsScored    int `json:"pairs_scored"`
	MatchesWritten int `json:"matches_written"`
	PairFailures   int `json:"pair_failures"`
}

// ListMatchesParams configures the kitchen match listing.
type ListMatchesParams struct {
	KitchenID uuid.UUID
	Limit     int
	Cursor    string
	Claimed   *bool
}

// MatchList wraps matches and the cursor for the next page.
type MatchList struct {
	Items  []models.SurplusMatch `json:"items"`
	Cursor string                `json:"cursor"`
}

// NewService wires the match generator. The trigger label distinguishes runs
// started over HTTP from runs started by the event consumer in metrics.
func NewService(repo Repository, scorer Scorer, m *metrics.MatchingMetrics, logg *logger.Logger, trigger string) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "matching repository required")
	}
	if scorer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "scorer required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	if trigger == "" {
		trigger = "api"
	}
	return &service{
		repo:    repo,
		scorer:  scorer,
		metrics: m,
		logg:    logg,
		trigger: trigger,
		now:     time.Now,
	}, nil
}

// GenerateMatches scores the cross-product of the farmer's available listings
// against every kitchen and upserts pairs above the threshold. Per-pair write
// failures are logged and counted but never abort the batch; only failures to
// read listings or kitchens are fatal.
func (s *service) GenerateMatches(ctx context.Context, farmerID uuid.UUID) (*Summary, error) {
	if farmerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "farmer id required")
	}

	started := s.now()
	logCtx := s.logg.WithFarmerID(ctx, farmerID.String())

	listings, err := s.repo.ListAvailableByFarmer(ctx, farmerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load surplus listings")
	}

	kitchens, err := s.repo.ListKitchens(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load kitchens")
	}

	s.logg.Info(s.logg.WithFields(logCtx, map[string]any{
		"listings": len(listings),
		"kitchens": len(kitchens),
	}), "starting match generation")

	summary := &Summary{
		Listings: len(listings),
		Kitchens: len(kitchens),
	}

	for _, listing := range listings {
		for _, kitchen := range kitchens {
			summary.PairsScored++

			overall := s.scorer.Score(ctx, listing, kitchen)
			if overall <= matchThreshold {
				continue
			}

			match := &models.SurplusMatch{
				SurplusID:           listing.ID,
				KitchenID:           kitchen.ID,
				MatchScore:          overall,
				NutritionalFitScore: NutritionalFit(listing),
				CapacityFitScore:    CapacityFit(listing, kitchen),
				DistanceKM:          LocationDistance(listing.Location, kitchen.Location),
			}

			if err := s.repo.UpsertMatch(ctx, match); err != nil {
				summary.PairFailures++
				pairCtx := s.logg.WithFields(logCtx, map[string]any{
					"listing_id": listing.ID.String(),
					"kitchen_id": kitchen.ID.String(),
				})
				s.logg.Error(pairCtx, "failed to upsert match", err)
				continue
			}
			summary.MatchesWritten++
		}
	}

	if s.metrics != nil {
		s.metrics.ObserveRun(s.trigger, s.now().Sub(started))
		s.metrics.AddPairsScored(summary.PairsScored)
		s.metrics.AddMatchesWritten(summary.MatchesWritten)
		s.metrics.AddPairFailures(summary.PairFailures)
	}

	s.logg.Info(s.logg.WithFields(logCtx, map[string]any{
		"pairs_scored":    summary.PairsScored,
		"matches_written": summary.MatchesWritten,
		"pair_failures":   summary.PairFailures,
	}), "match generation completed")

	return summary, nil
}

func (s *service) ListKitchenMatches(ctx context.Context, params ListMatchesParams) (*MatchList, error) {
	if params.KitchenID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "kitchen id required")
	}

	query := listMatchesParams{
		KitchenID: params.KitchenID,
		Limit:     params.Limit,
		Claimed:   params.Claimed,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.ListByKitchen(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list matches")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &MatchList{Items: rows, Cursor: cursor}, nil
}
