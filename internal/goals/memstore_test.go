// ABOUTME: In-memory Store used by the goals tests.
// ABOUTME: Copies on read and write; WithUserLock rolls back on error.
package goals_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/harperreed/bodygoal/internal/goals"
	"github.com/harperreed/bodygoal/internal/models"
)

var fixedNow = time.Date(2025, 6, 15, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

type memStore struct {
	mu           sync.Mutex
	txMu         sync.Mutex
	goals        map[uuid.UUID]*models.Goal
	measurements []*models.Measurement

	createErr error
}

var _ goals.Store = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{goals: make(map[uuid.UUID]*models.Goal)}
}

func (s *memStore) addMeasurement(m *models.Measurement) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.measurements = append(s.measurements, m)
}

func (s *memStore) addGoal(g *models.Goal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.goals[g.ID] = g.Clone()
}

func (s *memStore) activeGoals(userID string) []*models.Goal {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Goal
	for _, g := range s.goals {
		if g.UserID == userID && g.IsActive {
			out = append(out, g.Clone())
		}
	}
	return out
}

func (s *memStore) goalCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.goals)
}

func (s *memStore) FetchActiveGoal(_ context.Context, userID string) (*models.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.goals {
		if g.UserID == userID && g.IsActive {
			return g.Clone(), nil
		}
	}
	return nil, nil
}

func (s *memStore) FetchGoalByID(_ context.Context, goalID uuid.UUID) (*models.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g, ok := s.goals[goalID]; ok {
		return g.Clone(), nil
	}
	return nil, nil
}

func (s *memStore) userMeasurements(userID string) []*models.Measurement {
	var out []*models.Measurement
	for _, m := range s.measurements {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecordedAt.Before(out[j].RecordedAt) })
	return out
}

func (s *memStore) FetchLatestMeasurement(_ context.Context, userID string) (*models.Measurement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.userMeasurements(userID)
	if len(all) == 0 {
		return nil, nil
	}
	return all[len(all)-1], nil
}

func (s *memStore) FetchRecentMeasurements(_ context.Context, userID string, days int) ([]*models.Measurement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	since := fixedNow.AddDate(0, 0, -days)
	var out []*models.Measurement
	for _, m := range s.userMeasurements(userID) {
		if !m.RecordedAt.Before(since) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *memStore) CreateGoal(_ context.Context, goal *models.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	s.goals[goal.ID] = goal.Clone()
	return nil
}

func (s *memStore) UpdateGoal(_ context.Context, goal *models.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.goals[goal.ID] = goal.Clone()
	return nil
}

func (s *memStore) DeactivateAllGoals(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.goals {
		if g.UserID == userID {
			g.IsActive = false
		}
	}
	return nil
}

func (s *memStore) WithUserLock(_ context.Context, _ string, fn func(goals.Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := make(map[uuid.UUID]*models.Goal, len(s.goals))
	for id, g := range s.goals {
		snapshot[id] = g.Clone()
	}
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.goals = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}
