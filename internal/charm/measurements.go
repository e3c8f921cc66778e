// ABOUTME: Measurement operations for the Charm KV backend.
// ABOUTME: Stores measurements as JSON under measurement:<uuid> keys.
package charm

import (
	"context"
	"fmt"
	"sort"

	log "github.com/sirupsen/logrus"

	"github.com/harperreed/bodygoal/internal/models"
	"github.com/harperreed/bodygoal/internal/storage"
)

// CreateMeasurement stores a new measurement.
func (c *Client) CreateMeasurement(_ context.Context, m *models.Measurement) error {
	key := MeasurementPrefix + m.ID.String()

	existing, err := c.get(key)
	if err != nil {
		return fmt.Errorf("create measurement: %w", err)
	}
	if existing != nil {
		return fmt.Errorf("create measurement: %s already exists", m.ID)
	}

	data, err := marshalJSON(m)
	if err != nil {
		return fmt.Errorf("marshal measurement: %w", err)
	}
	if err := c.set(key, data, true); err != nil {
		return fmt.Errorf("create measurement: %w", err)
	}
	return nil
}

// GetMeasurement retrieves a measurement by ID or ID prefix.
func (c *Client) GetMeasurement(_ context.Context, idOrPrefix string) (*models.Measurement, error) {
	key, err := c.resolveKey(MeasurementPrefix, idOrPrefix)
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
	return unmarshalJSON[models.Measurement](data)
}

// ListMeasurements returns measurements newest first. An empty userID lists
// every user.
func (c *Client) ListMeasurements(_ context.Context, userID string, limit int) ([]*models.Measurement, error) {
	all, err := c.measurementsFor(userID)
	if err != nil {
		return nil, err
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].RecordedAt.After(all[j].RecordedAt)
	})

	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// DeleteMeasurement removes a measurement by ID or prefix.
func (c *Client) DeleteMeasurement(_ context.Context, idOrPrefix string) error {
	key, err := c.resolveKey(MeasurementPrefix, idOrPrefix)
	if err != nil {
		return fmt.Errorf("delete measurement: %w", err)
	}
	if err := c.delete(key, true); err != nil {
		return fmt.Errorf("delete measurement: %w", err)
	}
	return nil
}

// FetchLatestMeasurement returns the user's most recent measurement, or nil.
func (c *Client) FetchLatestMeasurement(_ context.Context, userID string) (*models.Measurement, error) {
	all, err := c.measurementsFor(userID)
	if err != nil {
		return nil, err
	}

	var latest *models.Measurement
	for _, m := range all {
		if latest == nil || m.RecordedAt.After(latest.RecordedAt) {
			latest = m
		}
	}
	return latest, nil
}

// FetchRecentMeasurements returns the user's measurements from the last
// days days, oldest first.
func (c *Client) FetchRecentMeasurements(_ context.Context, userID string, days int) ([]*models.Measurement, error) {
	all, err := c.measurementsFor(userID)
	if err != nil {
		return nil, err
	}

	c.mu.RLock()
	since := c.now().AddDate(0, 0, -days)
	c.mu.RUnlock()

	var recent []*models.Measurement
	for _, m := range all {
		if !m.RecordedAt.Before(since) {
			recent = append(recent, m)
		}
	}
	sort.Slice(recent, func(i, j int) bool {
		return recent[i].RecordedAt.Before(recent[j].RecordedAt)
	})
	return recent, nil
}

func (c *Client) measurementsFor(userID string) ([]*models.Measurement, error) {
	values, err := c.listByPrefix(MeasurementPrefix)
	if err != nil {
		return nil, fmt.Errorf("list measurements: %w", err)
	}

	var out []*models.Measurement
	for _, data := range values {
		m, err := unmarshalJSON[models.Measurement](data)
		if err != nil {
			log.Warnf("skipping unreadable measurement: %v", err)
			continue
		}
		if userID == "" || m.UserID == userID {
			out = append(out, m)
		}
	}
	return out, nil
}
