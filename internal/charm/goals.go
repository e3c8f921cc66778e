// ABOUTME: Goal operations for the Charm KV backend.
// ABOUTME: Keeps one active goal per user and rolls back failed units of work.
package charm

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/harperreed/bodygoal/internal/goals"
	"github.com/harperreed/bodygoal/internal/models"
	"github.com/harperreed/bodygoal/internal/storage"
)

var _ storage.Repository = (*Client)(nil)

// CreateGoal stores a new goal.
func (c *Client) CreateGoal(_ context.Context, g *models.Goal) error {
	c.txMu.Lock()
	defer c.txMu.Unlock()
	return c.createGoal(g, true)
}

// UpdateGoal overwrites an existing goal.
func (c *Client) UpdateGoal(_ context.Context, g *models.Goal) error {
	c.txMu.Lock()
	defer c.txMu.Unlock()
	return c.updateGoal(g, true)
}

// DeactivateAllGoals marks every goal of the user inactive.
func (c *Client) DeactivateAllGoals(_ context.Context, userID string) error {
	c.txMu.Lock()
	defer c.txMu.Unlock()
	return c.deactivateAll(userID, true)
}

// FetchActiveGoal returns the user's active goal, or nil.
func (c *Client) FetchActiveGoal(_ context.Context, userID string) (*models.Goal, error) {
	all, err := c.goalsFor(userID)
	if err != nil {
		return nil, err
	}
	for _, g := range all {
		if g.IsActive {
			return g, nil
		}
	}
	return nil, nil
}

// FetchGoalByID returns the goal with the given ID, or nil.
func (c *Client) FetchGoalByID(_ context.Context, goalID uuid.UUID) (*models.Goal, error) {
	data, err := c.get(GoalPrefix + goalID.String())
	if err != nil {
		return nil, fmt.Errorf("fetch goal: %w", err)
	}
	if data == nil {
		return nil, nil
	}
	return unmarshalJSON[models.Goal](data)
}

// GetGoal retrieves a goal by ID or ID prefix.
func (c *Client) GetGoal(_ context.Context, idOrPrefix string) (*models.Goal, error) {
	key, err := c.resolveKey(GoalPrefix, idOrPrefix)
	if err != nil {
		return nil, err
	}
	data, err := c.get(key)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, idOrPrefix)
	}
	return unmarshalJSON[models.Goal](data)
}

// ListGoals returns goals with the active one first, then newest first.
func (c *Client) ListGoals(_ context.Context, userID string) ([]*models.Goal, error) {
	all, err := c.goalsFor(userID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].IsActive != all[j].IsActive {
			return all[i].IsActive
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	return all, nil
}

// WithUserLock runs fn as one unit of work. Writes made through the Store
// passed to fn are not synced until fn succeeds; on failure the user's goals
// are restored to their state before fn ran.
func (c *Client) WithUserLock(_ context.Context, userID string, fn func(goals.Store) error) error {
	c.txMu.Lock()
	defer c.txMu.Unlock()

	snapshot, err := c.goalSnapshot(userID)
	if err != nil {
		return fmt.Errorf("snapshot goals for %s: %w", userID, err)
	}

	if err := fn(&userTx{c: c}); err != nil {
		c.restoreGoals(userID, snapshot)
		return err
	}

	c.mu.Lock()
	c.syncIfEnabled()
	c.mu.Unlock()
	return nil
}

// GetAllData gathers every measurement and goal for export.
func (c *Client) GetAllData(ctx context.Context) (*storage.ExportData, error) {
	return storage.CollectExportData(ctx, c)
}

// ImportData writes exported records into the KV store.
func (c *Client) ImportData(ctx context.Context, data *storage.ExportData) error {
	return storage.ImportInto(ctx, c, data)
}

func (c *Client) createGoal(g *models.Goal, doSync bool) error {
	key := GoalPrefix + g.ID.String()

	existing, err := c.get(key)
	if err != nil {
		return fmt.Errorf("create goal: %w", err)
	}
	if existing != nil {
		return fmt.Errorf("create goal: %s already exists", g.ID)
	}
	if g.IsActive {
		if err := c.checkNoOtherActive(g); err != nil {
			return fmt.Errorf("create goal: %w", err)
		}
	}

	data, err := marshalJSON(g)
	if err != nil {
		return fmt.Errorf("marshal goal: %w", err)
	}
	if err := c.set(key, data, doSync); err != nil {
		return fmt.Errorf("create goal: %w", err)
	}
	return nil
}

func (c *Client) updateGoal(g *models.Goal, doSync bool) error {
	key := GoalPrefix + g.ID.String()

	existing, err := c.get(key)
	if err != nil {
		return fmt.Errorf("update goal: %w", err)
	}
	if existing == nil {
		return fmt.Errorf("update goal: %w: %s", storage.ErrNotFound, g.ID)
	}
	if g.IsActive {
		if err := c.checkNoOtherActive(g); err != nil {
			return fmt.Errorf("update goal: %w", err)
		}
	}

	data, err := marshalJSON(g)
	if err != nil {
		return fmt.Errorf("marshal goal: %w", err)
	}
	if err := c.set(key, data, doSync); err != nil {
		return fmt.Errorf("update goal: %w", err)
	}
	return nil
}

func (c *Client) deactivateAll(userID string, doSync bool) error {
	all, err := c.goalsFor(userID)
	if err != nil {
		return fmt.Errorf("deactivate goals: %w", err)
	}

	changed := false
	for _, g := range all {
		if !g.IsActive {
			continue
		}
		g.IsActive = false
		data, err := marshalJSON(g)
		if err != nil {
			return fmt.Errorf("marshal goal: %w", err)
		}
		if err := c.set(GoalPrefix+g.ID.String(), data, false); err != nil {
			return fmt.Errorf("deactivate goals: %w", err)
		}
		changed = true
	}

	if changed && doSync {
		c.mu.Lock()
		c.syncIfEnabled()
		c.mu.Unlock()
	}
	return nil
}

// checkNoOtherActive rejects g when the user already has a different active goal.
func (c *Client) checkNoOtherActive(g *models.Goal) error {
	all, err := c.goalsFor(g.UserID)
	if err != nil {
		return err
	}
	for _, other := range all {
		if other.IsActive && other.ID != g.ID {
			return fmt.Errorf("user %s already has active goal %s", g.UserID, other.ID)
		}
	}
	return nil
}

func (c *Client) goalsFor(userID string) ([]*models.Goal, error) {
	values, err := c.listByPrefix(GoalPrefix)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}

	var out []*models.Goal
	for _, data := range values {
		g, err := unmarshalJSON[models.Goal](data)
		if err != nil {
			log.Warnf("skipping unreadable goal: %v", err)
			continue
		}
		if userID == "" || g.UserID == userID {
			out = append(out, g)
		}
	}
	return out, nil
}

// goalSnapshot returns the raw values of the user's goals keyed by KV key.
func (c *Client) goalSnapshot(userID string) (map[string][]byte, error) {
	all, err := c.goalsFor(userID)
	if err != nil {
		return nil, err
	}

	snapshot := make(map[string][]byte, len(all))
	for _, g := range all {
		data, err := marshalJSON(g)
		if err != nil {
			return nil, err
		}
		snapshot[GoalPrefix+g.ID.String()] = data
	}
	return snapshot, nil
}

func (c *Client) restoreGoals(userID string, snapshot map[string][]byte) {
	current, err := c.goalsFor(userID)
	if err != nil {
		log.Errorf("rollback goals for %s: %v", userID, err)
		return
	}

	for _, g := range current {
		key := GoalPrefix + g.ID.String()
		if _, ok := snapshot[key]; ok {
			continue
		}
		if err := c.delete(key, false); err != nil {
			log.Errorf("rollback goal %s: %v", g.ID, err)
		}
	}
	for key, data := range snapshot {
		if err := c.set(key, data, false); err != nil {
			log.Errorf("rollback %s: %v", key, err)
		}
	}
}

// userTx is the Store handed to WithUserLock callbacks. Its writes skip
// sync and the transaction lock, which the caller already holds.
type userTx struct {
	c *Client
}

func (t *userTx) FetchActiveGoal(ctx context.Context, userID string) (*models.Goal, error) {
	return t.c.FetchActiveGoal(ctx, userID)
}

func (t *userTx) FetchGoalByID(ctx context.Context, goalID uuid.UUID) (*models.Goal, error) {
	return t.c.FetchGoalByID(ctx, goalID)
}

func (t *userTx) FetchLatestMeasurement(ctx context.Context, userID string) (*models.Measurement, error) {
	return t.c.FetchLatestMeasurement(ctx, userID)
}

func (t *userTx) FetchRecentMeasurements(ctx context.Context, userID string, days int) ([]*models.Measurement, error) {
	return t.c.FetchRecentMeasurements(ctx, userID, days)
}

func (t *userTx) CreateGoal(_ context.Context, g *models.Goal) error {
	return t.c.createGoal(g, false)
}

func (t *userTx) UpdateGoal(_ context.Context, g *models.Goal) error {
	return t.c.updateGoal(g, false)
}

func (t *userTx) DeactivateAllGoals(_ context.Context, userID string) error {
	return t.c.deactivateAll(userID, false)
}

func (t *userTx) WithUserLock(_ context.Context, _ string, fn func(goals.Store) error) error {
	return fn(t)
}
