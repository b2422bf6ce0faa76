package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mr1hm/go-maintenance-alerts/internal/models"
)

// LoadAlertSettings reads a YAML settings file over the defaults. Keys the
// file omits keep their default value.
func LoadAlertSettings(path string, now time.Time) (models.AlertSettings, error) {
	settings := models.DefaultAlertSettings(now)

	data, err := os.ReadFile(path)
	if err != nil {
		return settings, fmt.Errorf("error reading alert settings %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&settings); err != nil && !errors.Is(err, io.EOF) {
		return settings, fmt.Errorf("error parsing alert settings %s: %w", path, err)
	}

	if err := settings.Validate(); err != nil {
		return settings, fmt.Errorf("invalid alert settings %s: %w", path, err)
	}
	return settings, nil
}

// StoredSettings is the persisted settings row, if any.
type StoredSettings interface {
	GetSettings(ctx context.Context) (*models.AlertSettings, error)
}

// ResolveAlertSettings picks the settings a process starts with: the YAML
// file when path is set, else the stored row, else the defaults. The bool
// reports whether the result differs from what is stored.
func ResolveAlertSettings(ctx context.Context, path string, stored StoredSettings, now time.Time) (models.AlertSettings, bool, error) {
	if path != "" {
		s, err := LoadAlertSettings(path, now)
		if err != nil {
			return models.AlertSettings{}, false, err
		}
		return s, true, nil
	}

	row, err := stored.GetSettings(ctx)
	if err != nil {
		return models.AlertSettings{}, false, fmt.Errorf("error loading stored alert settings: %w", err)
	}
	if row == nil {
		return models.DefaultAlertSettings(now), true, nil
	}
	return *row, false, nil
}
