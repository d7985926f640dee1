package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hyttebook/backend/internal/cabin/domain"
	"github.com/hyttebook/backend/internal/cabin/repository"
	"github.com/hyttebook/backend/internal/common/clock"
	"github.com/hyttebook/backend/internal/common/logger"
)

var testTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, repo *mockRepository, seq *mockSequencer) (*CabinService, *spyPublisher) {
	t.Helper()

	log, err := logger.New("", "test", "CRITICAL")
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	publisher := &spyPublisher{}
	svc := NewCabinService(CabinServiceDeps{
		Repo:      repo,
		Sequencer: seq,
		Clock:     clock.NewMockClock(testTime),
		Log:       log,
		Events:    publisher,
	})
	return svc, publisher
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func TestCreateAssignsIDAndSlug(t *testing.T) {
	var stored domain.Cabin
	repo := &mockRepository{
		createFn: func(ctx context.Context, cabin domain.Cabin) error {
			stored = cabin
			return nil
		},
	}
	svc, publisher := newTestService(t, repo, &mockSequencer{})

	cabin, err := svc.Create(context.Background(), CreateInput{Name: "Lake House"}, "user-1")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if cabin.ID != 1 {
		t.Errorf("expected id 1, got %d", cabin.ID)
	}
	if cabin.Slug != "lake-house" {
		t.Errorf("expected slug lake-house, got %q", cabin.Slug)
	}
	if cabin.Owner != "user-1" {
		t.Errorf("expected owner user-1, got %q", cabin.Owner)
	}
	if !cabin.CreatedAt.Equal(testTime) || !cabin.UpdatedAt.Equal(testTime) {
		t.Errorf("expected timestamps %v, got created=%v updated=%v", testTime, cabin.CreatedAt, cabin.UpdatedAt)
	}
	if stored.Slug != "lake-house" {
		t.Errorf("expected stored slug lake-house, got %q", stored.Slug)
	}
	if len(publisher.actions) != 1 || publisher.actions[0] != "created" {
		t.Errorf("expected one created event, got %v", publisher.actions)
	}
}

func TestCreateAppendsSuffixWhenSlugTaken(t *testing.T) {
	taken := map[string]bool{"lake-house": true, "lake-house-1": true}
	var stored domain.Cabin
	repo := &mockRepository{
		slugExistsFn: func(ctx context.Context, slug string, excludeID int64) (bool, error) {
			return taken[slug], nil
		},
		createFn: func(ctx context.Context, cabin domain.Cabin) error {
			stored = cabin
			return nil
		},
	}
	svc, _ := newTestService(t, repo, &mockSequencer{})

	cabin, err := svc.Create(context.Background(), CreateInput{Name: "Lake House"}, "user-1")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if cabin.Slug != "lake-house-2" {
		t.Errorf("expected slug lake-house-2, got %q", cabin.Slug)
	}
	if stored.Slug != "lake-house-2" {
		t.Errorf("expected stored slug lake-house-2, got %q", stored.Slug)
	}
}

func TestCreateSequentialIDs(t *testing.T) {
	repo := &mockRepository{}
	seq := &mockSequencer{}
	svc, _ := newTestService(t, repo, seq)

	first, err := svc.Create(context.Background(), CreateInput{Name: "First"}, "user-1")
	if err != nil {
		t.Fatalf("first Create returned error: %v", err)
	}
	second, err := svc.Create(context.Background(), CreateInput{Name: "Second"}, "user-1")
	if err != nil {
		t.Fatalf("second Create returned error: %v", err)
	}

	if first.ID != 1 || second.ID != 2 {
		t.Errorf("expected ids 1 and 2, got %d and %d", first.ID, second.ID)
	}
}

func TestCreateValidationFailure(t *testing.T) {
	svc, publisher := newTestService(t, &mockRepository{}, &mockSequencer{})

	_, err := svc.Create(context.Background(), CreateInput{Name: ""}, "user-1")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(publisher.actions) != 0 {
		t.Errorf("expected no events, got %v", publisher.actions)
	}
}

func TestCreateRetriesAfterLosingInsertRace(t *testing.T) {
	attempts := 0
	var stored domain.Cabin
	repo := &mockRepository{
		slugExistsFn: func(ctx context.Context, slug string, excludeID int64) (bool, error) {
			// The winner's row becomes visible after the first lost insert.
			return attempts > 0 && slug == "lake-house", nil
		},
		createFn: func(ctx context.Context, cabin domain.Cabin) error {
			attempts++
			if attempts == 1 {
				return repository.ErrSlugTaken
			}
			stored = cabin
			return nil
		},
	}
	svc, _ := newTestService(t, repo, &mockSequencer{})

	cabin, err := svc.Create(context.Background(), CreateInput{Name: "Lake House"}, "user-1")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if attempts != 2 {
		t.Errorf("expected 2 insert attempts, got %d", attempts)
	}
	if cabin.Slug != "lake-house-1" {
		t.Errorf("expected slug lake-house-1 after re-resolve, got %q", cabin.Slug)
	}
	if stored.ID != cabin.ID {
		t.Errorf("expected stored id %d, got %d", cabin.ID, stored.ID)
	}
}

func TestCreateGivesUpAfterRepeatedRaces(t *testing.T) {
	repo := &mockRepository{
		createFn: func(ctx context.Context, cabin domain.Cabin) error {
			return repository.ErrSlugTaken
		},
	}
	svc, _ := newTestService(t, repo, &mockSequencer{})

	_, err := svc.Create(context.Background(), CreateInput{Name: "Lake House"}, "user-1")
	if !errors.Is(err, ErrSlugConflict) {
		t.Fatalf("expected slug conflict error, got %v", err)
	}
}

func TestGetBySlugNotFound(t *testing.T) {
	repo := &mockRepository{
		findBySlugFn: func(ctx context.Context, slug string) (domain.Cabin, error) {
			return domain.Cabin{}, repository.ErrCabinNotFound
		},
	}
	svc, _ := newTestService(t, repo, &mockSequencer{})

	_, err := svc.GetBySlug(context.Background(), "missing")
	if !errors.Is(err, ErrCabinNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func existingCabin() domain.Cabin {
	return domain.Cabin{
		ID:        7,
		Owner:     "user-1",
		Name:      "Lake House",
		Slug:      "lake-house",
		City:      "Bergen",
		CreatedAt: testTime.Add(-24 * time.Hour),
		UpdatedAt: testTime.Add(-24 * time.Hour),
	}
}

func TestUpdateForbiddenForNonOwner(t *testing.T) {
	repo := &mockRepository{
		findBySlugFn: func(ctx context.Context, slug string) (domain.Cabin, error) {
			return existingCabin(), nil
		},
	}
	svc, publisher := newTestService(t, repo, &mockSequencer{})

	_, err := svc.Update(context.Background(), "lake-house", UpdateInput{City: strPtr("Oslo")}, "intruder")
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden error, got %v", err)
	}
	if len(publisher.actions) != 0 {
		t.Errorf("expected no events, got %v", publisher.actions)
	}
}

func TestUpdateAppliesPartialChanges(t *testing.T) {
	var updated domain.Cabin
	slugProbes := 0
	repo := &mockRepository{
		findBySlugFn: func(ctx context.Context, slug string) (domain.Cabin, error) {
			return existingCabin(), nil
		},
		slugExistsFn: func(ctx context.Context, slug string, excludeID int64) (bool, error) {
			slugProbes++
			return false, nil
		},
		updateByIDFn: func(ctx context.Context, cabin domain.Cabin) error {
			updated = cabin
			return nil
		},
		findByIDFn: func(ctx context.Context, id int64) (domain.Cabin, error) {
			return updated, nil
		},
	}
	svc, publisher := newTestService(t, repo, &mockSequencer{})

	result, err := svc.Update(context.Background(), "lake-house", UpdateInput{
		City:     strPtr("Oslo"),
		IsMember: boolPtr(true),
	}, "user-1")
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}

	if result.City != "Oslo" || !result.IsMember {
		t.Errorf("expected city Oslo and is_member true, got city=%q is_member=%v", result.City, result.IsMember)
	}
	if result.Name != "Lake House" || result.Slug != "lake-house" {
		t.Errorf("untouched fields changed: name=%q slug=%q", result.Name, result.Slug)
	}
	if !result.UpdatedAt.Equal(testTime) {
		t.Errorf("expected updated_at %v, got %v", testTime, result.UpdatedAt)
	}
	if slugProbes != 0 {
		t.Errorf("expected no slug probes without a rename, got %d", slugProbes)
	}
	if len(publisher.actions) != 1 || publisher.actions[0] != "updated" {
		t.Errorf("expected one updated event, got %v", publisher.actions)
	}
}

func TestUpdateRenameResolvesSlugExcludingSelf(t *testing.T) {
	var updated domain.Cabin
	var probedExcludeID int64
	repo := &mockRepository{
		findBySlugFn: func(ctx context.Context, slug string) (domain.Cabin, error) {
			return existingCabin(), nil
		},
		slugExistsFn: func(ctx context.Context, slug string, excludeID int64) (bool, error) {
			probedExcludeID = excludeID
			return false, nil
		},
		updateByIDFn: func(ctx context.Context, cabin domain.Cabin) error {
			updated = cabin
			return nil
		},
		findByIDFn: func(ctx context.Context, id int64) (domain.Cabin, error) {
			return updated, nil
		},
	}
	svc, _ := newTestService(t, repo, &mockSequencer{})

	result, err := svc.Update(context.Background(), "lake-house", UpdateInput{Name: strPtr("Fjord House")}, "user-1")
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}

	if result.Slug != "fjord-house" {
		t.Errorf("expected slug fjord-house, got %q", result.Slug)
	}
	if probedExcludeID != 7 {
		t.Errorf("expected probe to exclude id 7, got %d", probedExcludeID)
	}
}

func TestUpdateSameNameKeepsSlug(t *testing.T) {
	slugProbes := 0
	var updated domain.Cabin
	repo := &mockRepository{
		findBySlugFn: func(ctx context.Context, slug string) (domain.Cabin, error) {
			return existingCabin(), nil
		},
		slugExistsFn: func(ctx context.Context, slug string, excludeID int64) (bool, error) {
			slugProbes++
			return false, nil
		},
		updateByIDFn: func(ctx context.Context, cabin domain.Cabin) error {
			updated = cabin
			return nil
		},
		findByIDFn: func(ctx context.Context, id int64) (domain.Cabin, error) {
			return updated, nil
		},
	}
	svc, _ := newTestService(t, repo, &mockSequencer{})

	result, err := svc.Update(context.Background(), "lake-house", UpdateInput{Name: strPtr("Lake House")}, "user-1")
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}

	if result.Slug != "lake-house" {
		t.Errorf("expected slug unchanged, got %q", result.Slug)
	}
	if slugProbes != 0 {
		t.Errorf("expected no slug probes for a same-name update, got %d", slugProbes)
	}
}

func TestDeleteForbiddenForNonOwner(t *testing.T) {
	deleted := false
	repo := &mockRepository{
		findBySlugFn: func(ctx context.Context, slug string) (domain.Cabin, error) {
			return existingCabin(), nil
		},
		deleteByIDFn: func(ctx context.Context, id int64) error {
			deleted = true
			return nil
		},
	}
	svc, _ := newTestService(t, repo, &mockSequencer{})

	err := svc.Delete(context.Background(), "lake-house", "intruder")
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden error, got %v", err)
	}
	if deleted {
		t.Error("expected no delete call for a non-owner")
	}
}

func TestDeleteByOwner(t *testing.T) {
	var deletedID int64
	repo := &mockRepository{
		findBySlugFn: func(ctx context.Context, slug string) (domain.Cabin, error) {
			return existingCabin(), nil
		},
		deleteByIDFn: func(ctx context.Context, id int64) error {
			deletedID = id
			return nil
		},
	}
	svc, publisher := newTestService(t, repo, &mockSequencer{})

	if err := svc.Delete(context.Background(), "lake-house", "user-1"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if deletedID != 7 {
		t.Errorf("expected delete of id 7, got %d", deletedID)
	}
	if len(publisher.actions) != 1 || publisher.actions[0] != "deleted" {
		t.Errorf("expected one deleted event, got %v", publisher.actions)
	}
}

func TestOwnerComparisonTrimsWhitespace(t *testing.T) {
	repo := &mockRepository{
		findBySlugFn: func(ctx context.Context, slug string) (domain.Cabin, error) {
			cabin := existingCabin()
			cabin.Owner = " user-1 "
			return cabin, nil
		},
	}
	svc, _ := newTestService(t, repo, &mockSequencer{})

	if err := svc.Delete(context.Background(), "lake-house", "user-1"); err != nil {
		t.Fatalf("expected trimmed owner comparison to pass, got %v", err)
	}
}

func TestListClampsPagination(t *testing.T) {
	var gotPage domain.Page
	repo := &mockRepository{
		listFn: func(ctx context.Context, filter domain.ListFilter, page domain.Page) ([]domain.Cabin, error) {
			gotPage = page
			return nil, nil
		},
	}
	svc, _ := newTestService(t, repo, &mockSequencer{})

	result, err := svc.List(context.Background(), domain.ListFilter{}, domain.Page{Limit: 1000, Page: 0})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}

	if gotPage.Limit != 100 || gotPage.Page != 1 {
		t.Errorf("expected clamped page {100 1}, got %+v", gotPage)
	}
	if result.Limit != 100 || result.Page != 1 {
		t.Errorf("expected result page {100 1}, got limit=%d page=%d", result.Limit, result.Page)
	}
}

func TestListReportsTotalAcrossPages(t *testing.T) {
	repo := &mockRepository{
		listFn: func(ctx context.Context, filter domain.ListFilter, page domain.Page) ([]domain.Cabin, error) {
			return []domain.Cabin{existingCabin()}, nil
		},
		countFn: func(ctx context.Context, filter domain.ListFilter) (int64, error) {
			return 42, nil
		},
	}
	svc, _ := newTestService(t, repo, &mockSequencer{})

	result, err := svc.List(context.Background(), domain.ListFilter{City: "Bergen"}, domain.Page{Limit: 1, Page: 2})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}

	if result.Total != 42 {
		t.Errorf("expected total 42, got %d", result.Total)
	}
	if len(result.Items) != 1 {
		t.Errorf("expected 1 item, got %d", len(result.Items))
	}
}

func TestListMineFiltersByOwner(t *testing.T) {
	var gotFilter domain.ListFilter
	repo := &mockRepository{
		listFn: func(ctx context.Context, filter domain.ListFilter, page domain.Page) ([]domain.Cabin, error) {
			gotFilter = filter
			return nil, nil
		},
	}
	svc, _ := newTestService(t, repo, &mockSequencer{})

	if _, err := svc.ListMine(context.Background(), "user-1", domain.Page{}); err != nil {
		t.Fatalf("ListMine returned error: %v", err)
	}
	if gotFilter.OwnerID != "user-1" {
		t.Errorf("expected owner filter user-1, got %q", gotFilter.OwnerID)
	}
}

func TestStorageUnavailableMapping(t *testing.T) {
	repo := &mockRepository{
		findBySlugFn: func(ctx context.Context, slug string) (domain.Cabin, error) {
			return domain.Cabin{}, context.DeadlineExceeded
		},
	}
	svc, _ := newTestService(t, repo, &mockSequencer{})

	_, err := svc.GetBySlug(context.Background(), "lake-house")
	if !errors.Is(err, ErrStorageUnavailable) {
		t.Fatalf("expected storage unavailable error, got %v", err)
	}
}

func TestCreateEmptyBaseSlugGetsSuffixes(t *testing.T) {
	taken := map[string]bool{"": true}
	repo := &mockRepository{
		slugExistsFn: func(ctx context.Context, slug string, excludeID int64) (bool, error) {
			return taken[slug], nil
		},
	}
	svc, _ := newTestService(t, repo, &mockSequencer{})

	cabin, err := svc.Create(context.Background(), CreateInput{Name: "!!!"}, "user-1")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if cabin.Slug != "-1" {
		t.Errorf("expected slug -1 for an occupied empty base, got %q", cabin.Slug)
	}
}
