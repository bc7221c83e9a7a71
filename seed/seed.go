// Package seed loads the event catalogue into an empty store.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"guessr/models"
)

//go:embed events.yaml
var defaultCatalogue []byte

// Store is what seeding needs from the repository.
type Store interface {
	CountEvents(ctx context.Context) (int64, error)
	CreateEvents(ctx context.Context, events []models.Event) error
}

type catalogue struct {
	Events []eventEntry `yaml:"events"`
}

type eventEntry struct {
	Name              string    `yaml:"name"`
	Description       string    `yaml:"description"`
	Organization      string    `yaml:"organization"`
	AcceptableAnswers []string  `yaml:"acceptable_answers"`
	PointsValue       int       `yaml:"points_value"`
	EventDate         time.Time `yaml:"event_date"`
	// ImageFile is resolved relative to the catalogue file.
	ImageFile string `yaml:"image_file"`
}

// Parse decodes a catalogue. Image files are read from dir.
func Parse(data []byte, dir string) ([]models.Event, error) {
	var c catalogue
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode catalogue: %w", err)
	}

	events := make([]models.Event, 0, len(c.Events))
	for i, e := range c.Events {
		if strings.TrimSpace(e.Name) == "" {
			return nil, fmt.Errorf("event %d: name is required", i)
		}
		ev := models.Event{
			Name:              strings.TrimSpace(e.Name),
			Description:       e.Description,
			Organization:      e.Organization,
			AcceptableAnswers: e.AcceptableAnswers,
			PointsValue:       e.PointsValue,
			EventDate:         e.EventDate,
		}
		if ev.PointsValue <= 0 {
			ev.PointsValue = models.DefaultPointsValue
		}
		if e.ImageFile != "" {
			path := e.ImageFile
			if !filepath.IsAbs(path) {
				path = filepath.Join(dir, path)
			}
			img, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("event %q: %w", ev.Name, err)
			}
			ev.ImageData = img
			ev.ImageFormat = strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
		}
		events = append(events, ev)
	}
	return events, nil
}

// Load reads the catalogue at path, or the built-in one when path is empty.
func Load(path string) ([]models.Event, error) {
	if path == "" {
		return Parse(defaultCatalogue, "")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalogue: %w", err)
	}
	return Parse(data, filepath.Dir(path))
}

// Seed fills an empty event table from the catalogue at path. It returns
// the number of events created, which is zero when events already exist.
func Seed(ctx context.Context, store Store, path string, logger zerolog.Logger) (int, error) {
	count, err := store.CountEvents(ctx)
	if err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	if count > 0 {
		logger.Debug().Int64("events", count).Msg("events present, skipping seed")
		return 0, nil
	}

	events, err := Load(path)
	if err != nil {
		return 0, err
	}
	if len(events) == 0 {
		return 0, nil
	}
	if err := store.CreateEvents(ctx, events); err != nil {
		return 0, fmt.Errorf("create events: %w", err)
	}

	logger.Info().Int("events", len(events)).Str("source", sourceName(path)).Msg("seeded events")
	return len(events), nil
}

func sourceName(path string) string {
	if path == "" {
		return "built-in"
	}
	return path
}
