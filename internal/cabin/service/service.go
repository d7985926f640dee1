package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/hyttebook/backend/internal/cabin/domain"
	"github.com/hyttebook/backend/internal/cabin/repository"
	"github.com/hyttebook/backend/internal/cabin/slug"
	"github.com/hyttebook/backend/internal/common/clock"
	"github.com/hyttebook/backend/internal/common/constants"
	"github.com/hyttebook/backend/internal/common/db"
	commonerrors "github.com/hyttebook/backend/internal/common/errors"
	"github.com/hyttebook/backend/internal/common/logger"
	"github.com/hyttebook/backend/internal/observability/metrics"
)

// EventPublisher receives cabin change notifications. Implemented by the
// events hub; a nil publisher disables the feed.
type EventPublisher interface {
	PublishCabinEvent(action string, cabin domain.Cabin)
}

type CabinServiceDeps struct {
	Repo      repository.Repository
	Sequencer repository.Sequencer
	Clock     clock.Clock
	Log       *logger.Logger
	Breaker   *db.DBCircuitBreaker
	Events    EventPublisher
}

// CabinService orchestrates cabin CRUD: slug derivation and uniqueness,
// id allocation, and ownership enforcement on mutation.
type CabinService struct {
	repo      repository.Repository
	sequencer repository.Sequencer
	clock     clock.Clock
	log       *logger.Logger
	breaker   *db.DBCircuitBreaker
	events    EventPublisher
}

func NewCabinService(deps CabinServiceDeps) *CabinService {
	return &CabinService{
		repo:      deps.Repo,
		sequencer: deps.Sequencer,
		clock:     deps.Clock,
		log:       deps.Log,
		breaker:   deps.Breaker,
		events:    deps.Events,
	}
}

func (s *CabinService) Create(ctx context.Context, input CreateInput, owner domain.OwnerID) (domain.Cabin, error) {
	if err := validateCreateInput(input); err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"action": "create_cabin_validation_failed",
		}).Warnf("create cabin failed: %v", err)
		return domain.Cabin{}, err
	}

	base := slug.Generate(input.Name)

	id, err := s.nextID(ctx)
	if err != nil {
		return domain.Cabin{}, err
	}

	isMember := false
	if input.IsMember != nil {
		isMember = *input.IsMember
	}

	now := s.clock.Now()
	cabin := domain.Cabin{
		ID:                    id,
		Owner:                 owner,
		Name:                  input.Name,
		Address:               input.Address,
		PostalCode:            input.PostalCode,
		City:                  input.City,
		Phone:                 input.Phone,
		Email:                 input.Email,
		ContactPersonName:     input.ContactPersonName,
		ContactPersonEmployer: input.ContactPersonEmployer,
		IsMember:              isMember,
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	// The probe loop picks a free slug; the unique index decides races.
	// Losing the race means another writer took the candidate between the
	// probe and the insert, so re-resolve and try again.
	for attempt := 1; attempt <= constants.SlugConflictMaxAttempts; attempt++ {
		resolved, err := s.resolveSlug(ctx, base, 0)
		if err != nil {
			return domain.Cabin{}, err
		}
		cabin.Slug = resolved

		err = s.callStore(ctx, func(ctx context.Context) error {
			return s.repo.Create(ctx, cabin)
		})
		if err == nil {
			metrics.CabinsCreatedTotal.Inc()
			s.log.WithFields(ctx, logger.Fields{
				"cabin_id": cabin.ID,
				"slug":     cabin.Slug,
				"owner":    string(owner),
				"action":   "cabin_created",
			}).Info("cabin created")
			s.publish("created", cabin)
			return cabin, nil
		}
		if errors.Is(err, repository.ErrSlugTaken) {
			metrics.SlugConflictsTotal.Inc()
			s.log.Warnf("create cabin: slug %q lost insert race (attempt %d/%d)", resolved, attempt, constants.SlugConflictMaxAttempts)
			continue
		}
		return domain.Cabin{}, s.mapStoreError(ctx, "create cabin", err)
	}

	return domain.Cabin{}, ErrSlugConflict
}

func (s *CabinService) List(ctx context.Context, filter domain.ListFilter, page domain.Page) (domain.CabinPage, error) {
	page = clampPage(page)

	var items []domain.Cabin
	err := s.callStore(ctx, func(ctx context.Context) error {
		var err error
		items, err = s.repo.List(ctx, filter, page)
		return err
	})
	if err != nil {
		return domain.CabinPage{}, s.mapStoreError(ctx, "list cabins", err)
	}

	var total int64
	err = s.callStore(ctx, func(ctx context.Context) error {
		var err error
		total, err = s.repo.Count(ctx, filter)
		return err
	})
	if err != nil {
		return domain.CabinPage{}, s.mapStoreError(ctx, "count cabins", err)
	}

	return domain.CabinPage{
		Items: items,
		Total: total,
		Page:  page.Page,
		Limit: page.Limit,
	}, nil
}

func (s *CabinService) ListMine(ctx context.Context, owner domain.OwnerID, page domain.Page) (domain.CabinPage, error) {
	return s.List(ctx, domain.ListFilter{OwnerID: owner}, page)
}

func (s *CabinService) GetBySlug(ctx context.Context, slugValue string) (domain.Cabin, error) {
	var cabin domain.Cabin
	err := s.callStore(ctx, func(ctx context.Context) error {
		var err error
		cabin, err = s.repo.FindBySlug(ctx, slugValue)
		return err
	})
	if err != nil {
		if errors.Is(err, repository.ErrCabinNotFound) {
			return domain.Cabin{}, ErrCabinNotFound
		}
		return domain.Cabin{}, s.mapStoreError(ctx, "get cabin by slug", err)
	}
	return cabin, nil
}

func (s *CabinService) Update(ctx context.Context, slugValue string, updates UpdateInput, owner domain.OwnerID) (domain.Cabin, error) {
	if err := validateUpdateInput(updates); err != nil {
		return domain.Cabin{}, err
	}

	cabin, err := s.GetBySlug(ctx, slugValue)
	if err != nil {
		return domain.Cabin{}, err
	}

	if !cabin.Owner.Equals(owner) {
		s.log.WithFields(ctx, logger.Fields{
			"cabin_id": cabin.ID,
			"owner":    string(cabin.Owner),
			"caller":   string(owner),
			"action":   "update_cabin_forbidden",
		}).Warn("update cabin failed: caller is not the owner")
		return domain.Cabin{}, ErrForbidden
	}

	applyUpdates(&cabin, updates)

	renamed := updates.Name != nil && *updates.Name != cabin.Name
	if renamed {
		cabin.Name = *updates.Name
	}
	cabin.UpdatedAt = s.clock.Now()

	for attempt := 1; attempt <= constants.SlugConflictMaxAttempts; attempt++ {
		if renamed {
			resolved, err := s.resolveSlug(ctx, slug.Generate(cabin.Name), cabin.ID)
			if err != nil {
				return domain.Cabin{}, err
			}
			cabin.Slug = resolved
		}

		err = s.callStore(ctx, func(ctx context.Context) error {
			return s.repo.UpdateByID(ctx, cabin)
		})
		if err == nil {
			break
		}
		if renamed && errors.Is(err, repository.ErrSlugTaken) && attempt < constants.SlugConflictMaxAttempts {
			metrics.SlugConflictsTotal.Inc()
			continue
		}
		if errors.Is(err, repository.ErrSlugTaken) {
			return domain.Cabin{}, ErrSlugConflict
		}
		if errors.Is(err, repository.ErrCabinNotFound) {
			return domain.Cabin{}, ErrCabinNotFound
		}
		return domain.Cabin{}, s.mapStoreError(ctx, "update cabin", err)
	}

	var updated domain.Cabin
	err = s.callStore(ctx, func(ctx context.Context) error {
		var err error
		updated, err = s.repo.FindByID(ctx, cabin.ID)
		return err
	})
	if err != nil {
		if errors.Is(err, repository.ErrCabinNotFound) {
			return domain.Cabin{}, ErrCabinNotFound
		}
		return domain.Cabin{}, s.mapStoreError(ctx, "reload cabin", err)
	}

	s.log.WithFields(ctx, logger.Fields{
		"cabin_id": updated.ID,
		"slug":     updated.Slug,
		"action":   "cabin_updated",
	}).Info("cabin updated")
	s.publish("updated", updated)
	return updated, nil
}

func (s *CabinService) Delete(ctx context.Context, slugValue string, owner domain.OwnerID) error {
	cabin, err := s.GetBySlug(ctx, slugValue)
	if err != nil {
		return err
	}

	if !cabin.Owner.Equals(owner) {
		s.log.WithFields(ctx, logger.Fields{
			"cabin_id": cabin.ID,
			"owner":    string(cabin.Owner),
			"caller":   string(owner),
			"action":   "delete_cabin_forbidden",
		}).Warn("delete cabin failed: caller is not the owner")
		return ErrForbidden
	}

	err = s.callStore(ctx, func(ctx context.Context) error {
		return s.repo.DeleteByID(ctx, cabin.ID)
	})
	if err != nil {
		if errors.Is(err, repository.ErrCabinNotFound) {
			return ErrCabinNotFound
		}
		return s.mapStoreError(ctx, "delete cabin", err)
	}

	metrics.CabinsDeletedTotal.Inc()
	s.log.WithFields(ctx, logger.Fields{
		"cabin_id": cabin.ID,
		"slug":     cabin.Slug,
		"action":   "cabin_deleted",
	}).Info("cabin deleted")
	s.publish("deleted", cabin)
	return nil
}

// nextID allocates the next user-facing cabin id. Allocation happens once
// per create; if the insert later fails, the id stays skipped — the counter
// never moves backwards.
func (s *CabinService) nextID(ctx context.Context) (int64, error) {
	var id int64
	err := s.callStore(ctx, func(ctx context.Context) error {
		var err error
		id, err = s.sequencer.NextSequence(ctx, constants.CabinIDSequence)
		return err
	})
	if err != nil {
		return 0, s.mapStoreError(ctx, "allocate cabin id", err)
	}
	return id, nil
}

func (s *CabinService) callStore(ctx context.Context, fn func(context.Context) error) error {
	if s.breaker == nil {
		return fn(ctx)
	}
	return s.breaker.Call(ctx, fn)
}

func (s *CabinService) mapStoreError(ctx context.Context, operation string, err error) error {
	if errors.Is(err, commonerrors.ErrCircuitOpen) || db.IsUnavailable(err) {
		s.log.WithFields(ctx, logger.Fields{
			"operation": operation,
			"action":    "storage_unavailable",
		}).Errorf("%s failed: storage unavailable: %v", operation, err)
		return ErrStorageUnavailable.WithCause(err)
	}
	return fmt.Errorf("failed to %s: %w", operation, err)
}

func (s *CabinService) publish(action string, cabin domain.Cabin) {
	if s.events != nil {
		s.events.PublishCabinEvent(action, cabin)
	}
}

func applyUpdates(cabin *domain.Cabin, updates UpdateInput) {
	if updates.Address != nil {
		cabin.Address = *updates.Address
	}
	if updates.PostalCode != nil {
		cabin.PostalCode = *updates.PostalCode
	}
	if updates.City != nil {
		cabin.City = *updates.City
	}
	if updates.Phone != nil {
		cabin.Phone = *updates.Phone
	}
	if updates.Email != nil {
		cabin.Email = *updates.Email
	}
	if updates.ContactPersonName != nil {
		cabin.ContactPersonName = *updates.ContactPersonName
	}
	if updates.ContactPersonEmployer != nil {
		cabin.ContactPersonEmployer = *updates.ContactPersonEmployer
	}
	if updates.IsMember != nil {
		cabin.IsMember = *updates.IsMember
	}
}

func clampPage(page domain.Page) domain.Page {
	if page.Limit <= 0 {
		page.Limit = constants.DefaultPageLimit
	}
	if page.Limit > constants.MaxPageLimit {
		page.Limit = constants.MaxPageLimit
	}
	if page.Page < 1 {
		page.Page = 1
	}
	return page
}
