package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type stubTimelineRepo struct {
	rows    []TimelineRow
	lastRun WindowQuery
	err     error
}

func (s *stubTimelineRepo) TimelineWindow(ctx context.Context, q WindowQuery) ([]TimelineRow, error) {
	s.lastRun = q
	if s.err != nil {
		return nil, s.err
	}
	return s.rows, nil
}

func row(id int64, at string, action, entity, entityID string) TimelineRow {
	ts, _ := time.Parse(time.RFC3339, at)
	return TimelineRow{ID: id, At: ts, ActorID: 1, Action: action, Entity: entity, EntityID: entityID}
}

func TestServiceTimelinePaging(t *testing.T) {
	repo := &stubTimelineRepo{rows: []TimelineRow{
		row(3, "2024-03-10T10:00:00Z", "payment.recorded", "payment", "7"),
		row(2, "2024-03-09T09:00:00Z", "bill.created", "bill", "12"),
		row(1, "2024-03-08T08:00:00Z", "product.created", "product", "3"),
	}}
	svc := NewService(repo)

	result, err := svc.Timeline(context.Background(), TimelineFilters{
		From:     time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		To:       time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		Page:     1,
		PageSize: 2,
	})
	require.NoError(t, err)
	require.Len(t, result.Rows, 2)
	require.True(t, result.Paging.HasNext)
	require.Equal(t, 2, result.Paging.NextPage)
	require.Zero(t, result.Paging.PrevPage)
	require.Equal(t, 3, repo.lastRun.Limit)
	require.Zero(t, repo.lastRun.Offset)
	require.NotNil(t, repo.lastRun.From)
	require.Nil(t, repo.lastRun.Entity)
}

func TestServiceTimelineFilters(t *testing.T) {
	repo := &stubTimelineRepo{}
	svc := NewService(repo)

	result, err := svc.Timeline(context.Background(), TimelineFilters{
		Entity:   " bill ",
		EntityID: "12",
		Action:   "",
		ActorID:  4,
		Page:     3,
		PageSize: 500,
	})
	require.NoError(t, err)
	require.NotNil(t, result.Rows)
	require.Empty(t, result.Rows)
	require.Equal(t, 2, result.Paging.PrevPage)
	require.False(t, result.Paging.HasNext)

	require.Equal(t, "bill", *repo.lastRun.Entity)
	require.Equal(t, "12", *repo.lastRun.EntityID)
	require.Nil(t, repo.lastRun.Action)
	require.Equal(t, int64(4), *repo.lastRun.ActorID)
	require.Equal(t, maxPageSize+1, repo.lastRun.Limit)
	require.Equal(t, 2*maxPageSize, repo.lastRun.Offset)
	require.Nil(t, repo.lastRun.From)
}

func TestServiceTimelineRejectsInvertedRange(t *testing.T) {
	svc := NewService(&stubTimelineRepo{})
	_, err := svc.Timeline(context.Background(), TimelineFilters{
		From: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	require.ErrorContains(t, err, "from must not be after to")
}

func TestServiceTimelinePropagatesRepoError(t *testing.T) {
	boom := errors.New("boom")
	svc := NewService(&stubTimelineRepo{err: boom})
	_, err := svc.Timeline(context.Background(), TimelineFilters{})
	require.ErrorIs(t, err, boom)
}
