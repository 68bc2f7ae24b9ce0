package slack

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/require"

	"example.com/gtm/internal/domain"
)

type memoryRepo struct {
	activities map[int64]domain.Activity
	nextID     int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{activities: make(map[int64]domain.Activity), nextID: 1}
}

func (m *memoryRepo) List(_ context.Context, filter domain.ListFilter) ([]domain.Activity, error) {
	out := make([]domain.Activity, 0, len(m.activities))
	if filter.NewestFirst {
		for id := m.nextID - 1; id >= 1; id-- {
			if activity, ok := m.activities[id]; ok {
				out = append(out, activity)
			}
		}
	} else {
		for id := int64(1); id < m.nextID; id++ {
			if activity, ok := m.activities[id]; ok {
				out = append(out, activity)
			}
		}
	}
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *memoryRepo) Get(_ context.Context, id int64) (*domain.Activity, error) {
	if activity, ok := m.activities[id]; ok {
		copied := activity
		return &copied, nil
	}
	return nil, nil
}

func (m *memoryRepo) Create(_ context.Context, activity *domain.Activity) error {
	activity.ID = m.nextID
	m.nextID++
	m.activities[activity.ID] = *activity
	return nil
}

func (m *memoryRepo) Update(_ context.Context, activity *domain.Activity) (bool, error) {
	if _, ok := m.activities[activity.ID]; !ok {
		return false, nil
	}
	m.activities[activity.ID] = *activity
	return true, nil
}

func (m *memoryRepo) Delete(_ context.Context, id int64) (bool, error) {
	if _, ok := m.activities[id]; !ok {
		return false, nil
	}
	delete(m.activities, id)
	return true, nil
}

type stubModalOpener struct {
	opened []slack.ModalViewRequest
	err    error
}

func (s *stubModalOpener) OpenViewContext(_ context.Context, _ string, view slack.ModalViewRequest) (*slack.ViewResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.opened = append(s.opened, view)
	return &slack.ViewResponse{}, nil
}

func newTestService(t *testing.T) (*domain.Service, *memoryRepo) {
	t.Helper()
	repo := newMemoryRepo()
	return domain.NewService(repo, 1000), repo
}

func seedActivity(t *testing.T, service *domain.Service, input domain.CreateInput) *domain.Activity {
	t.Helper()
	activity, err := service.Create(context.Background(), input)
	require.NoError(t, err)
	return activity
}

// blocksJSON flattens a message into one JSON string for simple substring
// assertions.
func blocksJSON(t *testing.T, msg *slack.Msg) string {
	t.Helper()
	require.NotNil(t, msg)
	raw, err := json.Marshal(msg)
	require.NoError(t, err)
	return string(raw)
}

func ptr(s string) *string { return &s }
