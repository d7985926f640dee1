package service

import (
	"context"
	"errors"

	"github.com/hyttebook/backend/internal/cabin/domain"
)

type mockRepository struct {
	createFn     func(ctx context.Context, cabin domain.Cabin) error
	findBySlugFn func(ctx context.Context, slug string) (domain.Cabin, error)
	findByIDFn   func(ctx context.Context, id int64) (domain.Cabin, error)
	slugExistsFn func(ctx context.Context, slug string, excludeID int64) (bool, error)
	listFn       func(ctx context.Context, filter domain.ListFilter, page domain.Page) ([]domain.Cabin, error)
	countFn      func(ctx context.Context, filter domain.ListFilter) (int64, error)
	updateByIDFn func(ctx context.Context, cabin domain.Cabin) error
	deleteByIDFn func(ctx context.Context, id int64) error
}

func (m *mockRepository) Create(ctx context.Context, cabin domain.Cabin) error {
	if m.createFn != nil {
		return m.createFn(ctx, cabin)
	}
	return nil
}

func (m *mockRepository) FindBySlug(ctx context.Context, slug string) (domain.Cabin, error) {
	if m.findBySlugFn != nil {
		return m.findBySlugFn(ctx, slug)
	}
	return domain.Cabin{}, errors.New("findBySlugFn not set")
}

func (m *mockRepository) FindByID(ctx context.Context, id int64) (domain.Cabin, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return domain.Cabin{}, errors.New("findByIDFn not set")
}

func (m *mockRepository) SlugExists(ctx context.Context, slug string, excludeID int64) (bool, error) {
	if m.slugExistsFn != nil {
		return m.slugExistsFn(ctx, slug, excludeID)
	}
	return false, nil
}

func (m *mockRepository) List(ctx context.Context, filter domain.ListFilter, page domain.Page) ([]domain.Cabin, error) {
	if m.listFn != nil {
		return m.listFn(ctx, filter, page)
	}
	return nil, nil
}

func (m *mockRepository) Count(ctx context.Context, filter domain.ListFilter) (int64, error) {
	if m.countFn != nil {
		return m.countFn(ctx, filter)
	}
	return 0, nil
}

func (m *mockRepository) UpdateByID(ctx context.Context, cabin domain.Cabin) error {
	if m.updateByIDFn != nil {
		return m.updateByIDFn(ctx, cabin)
	}
	return nil
}

func (m *mockRepository) DeleteByID(ctx context.Context, id int64) error {
	if m.deleteByIDFn != nil {
		return m.deleteByIDFn(ctx, id)
	}
	return nil
}

type mockSequencer struct {
	nextSequenceFn func(ctx context.Context, name string) (int64, error)
	next           int64
}

func (m *mockSequencer) NextSequence(ctx context.Context, name string) (int64, error) {
	if m.nextSequenceFn != nil {
		return m.nextSequenceFn(ctx, name)
	}
	m.next++
	return m.next, nil
}

type spyPublisher struct {
	actions []string
	cabins  []domain.Cabin
}

func (p *spyPublisher) PublishCabinEvent(action string, cabin domain.Cabin) {
	p.actions = append(p.actions, action)
	p.cabins = append(p.cabins, cabin)
}
