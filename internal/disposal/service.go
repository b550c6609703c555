package disposal

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/localloop/localloop-backend/internal/events"
	"github.com/localloop/localloop-backend/internal/state"
	"github.com/localloop/localloop-backend/pkg/config"
	"github.com/localloop/localloop-backend/pkg/enums"
	pkgerrors "github.com/localloop/localloop-backend/pkg/errors"
	"github.com/localloop/localloop-backend/pkg/logger"
	"github.com/localloop/localloop-backend/pkg/metrics"
)

// EventSource marks events synthesized by the aggregation sweep.
const EventSource = "disposal_aggregation"

// Service accumulates disposal intents and converts per-tag counts crossing
// the configured threshold into collection events. The sweep consumes every
// intent carrying the triggering tag, across all owners.
type Service struct {
	store     *state.Store
	cfg       config.DisposalConfig
	impact    config.ImpactConfig
	publisher events.Publisher
	metrics   *metrics.StateMetrics
	logg      *logger.Logger
	now       func() time.Time
}

func NewService(
	store *state.Store,
	cfg config.DisposalConfig,
	impact config.ImpactConfig,
	publisher events.Publisher,
	m *metrics.StateMetrics,
	logg *logger.Logger,
) (*Service, error) {
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "state store required")
	}
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &Service{
		store:     store,
		cfg:       cfg,
		impact:    impact,
		publisher: publisher,
		metrics:   m,
		logg:      logg,
		now:       time.Now,
	}, nil
}

// IntentInput is one item a resident wants to relinquish.
type IntentInput struct {
	Name        string
	Description string
	Tags        []string
}

// RegisterResult reports the intents stored and any collection events the
// sweep produced. Swept intents are gone from the store but still listed in
// Intents so callers can echo what was registered.
type RegisterResult struct {
	Intents []state.DisposalIntent
	Events  []state.Event
}

// RegisterIntents stores disposal intents for a resident and runs the
// aggregation sweep over every tag the new intents touch. Insert and sweep
// happen inside a single store update so no other writer can observe the
// intermediate state.
func (s *Service) RegisterIntents(ctx context.Context, userID string, inputs []IntentInput) (*RegisterResult, error) {
	if len(inputs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one disposal item is required")
	}

	var result RegisterResult

	err := s.store.Update(ctx, func(snap *state.Snapshot) error {
		if _, ok := snap.ResidentByID(userID); !ok {
			return pkgerrors.New(pkgerrors.CodeNotFound, "resident not found")
		}

		createdAt := s.now().UTC()
		touched := []string{}
		seen := map[string]bool{}

		for _, input := range inputs {
			if input.Name == "" {
				return pkgerrors.New(pkgerrors.CodeValidation, "disposal item name is required")
			}
			intent := state.DisposalIntent{
				ID:          uuid.NewString(),
				Name:        input.Name,
				Description: input.Description,
				Tags:        append([]string(nil), input.Tags...),
				OwnerID:     userID,
				Status:      state.IntentStatusForDisposal,
				CreatedAt:   createdAt,
			}
			snap.DisposalIntents = append(snap.DisposalIntents, intent)
			result.Intents = append(result.Intents, intent)

			for _, tag := range input.Tags {
				if tag == "" || seen[tag] {
					continue
				}
				seen[tag] = true
				touched = append(touched, tag)
			}
		}

		for _, tag := range touched {
			if event, ok := s.sweepTag(snap, tag, createdAt); ok {
				result.Events = append(result.Events, event)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Publish outside the store lock; the snapshot is already durable.
	for _, event := range result.Events {
		s.publisher.PublishEvent(ctx, event)
		if s.metrics != nil {
			s.metrics.IncCollectionEvents()
		}
	}

	return &result, nil
}

// sweepTag counts pending intents carrying the tag and, once the count
// exceeds the threshold, appends a collection event and deletes every intent
// with that tag. An intent spanning several tags is consumed whole even if
// its other tags have not crossed threshold; the count for those tags drops
// accordingly.
func (s *Service) sweepTag(snap *state.Snapshot, tag string, createdAt time.Time) (state.Event, bool) {
	count := 0
	for _, intent := range snap.DisposalIntents {
		if hasTag(intent.Tags, tag) {
			count++
		}
	}
	if count <= s.cfg.IntentThreshold {
		return state.Event{}, false
	}

	estimatedItems := s.cfg.EstimatedItems * count
	event := state.Event{
		ID:     uuid.NewString(),
		Type:   enums.EventTypeCollection,
		Source: EventSource,
		Title:  fmt.Sprintf("Collection round: %s", tag),
		Metadata: state.EventMetadata{
			Tag:            tag,
			IntentsCount:   count,
			EstimatedItems: estimatedItems,
		},
		ScheduledFor:   createdAt.AddDate(0, 0, s.cfg.EventDaysAhead),
		CreatedAt:      createdAt,
		CO2SavedKG:     s.impact.CO2PerEventItemKG * float64(estimatedItems),
		WasteAvoidedKG: s.impact.WastePerEventItem * float64(estimatedItems),
	}

	snap.Events = append(snap.Events, event)
	snap.Impact.EventsCount++
	snap.Impact.CO2SavedKG += event.CO2SavedKG
	snap.Impact.WasteAvoidedKG += event.WasteAvoidedKG

	kept := snap.DisposalIntents[:0]
	for _, intent := range snap.DisposalIntents {
		if !hasTag(intent.Tags, tag) {
			kept = append(kept, intent)
		}
	}
	snap.DisposalIntents = kept

	return event, true
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}
