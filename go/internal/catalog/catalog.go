package catalog

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/mcdev12/auctionwheel/go/internal/models"
)

// Source loads the master catalog
type Source interface {
	Load(ctx context.Context) ([]models.Item, error)
}

// entry is the on-disk shape of a catalog item. Files use "position" for
// the category, matching the player lists the game ships with.
type entry struct {
	Name      string `yaml:"name"`
	Position  string `yaml:"position"`
	BasePrice int    `yaml:"basePrice"`
}

// FileSource reads the catalog from a JSON or YAML file
type FileSource struct {
	Path string
}

// Load implements Source
func (s FileSource) Load(ctx context.Context) ([]models.Item, error) {
	return LoadFile(s.Path)
}

// LoadFile reads a list of {name, position, basePrice} from path. JSON is
// valid YAML, so one decoder handles both formats.
func LoadFile(path string) ([]models.Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	items, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", path, err)
	}
	return items, nil
}

// Parse decodes catalog data and validates every item
func Parse(data []byte) ([]models.Item, error) {
	var entries []entry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, err
	}

	items := make([]models.Item, 0, len(entries))
	for i, e := range entries {
		item := models.Item{
			Name:      strings.TrimSpace(e.Name),
			Category:  strings.ToUpper(strings.TrimSpace(e.Position)),
			BasePrice: e.BasePrice,
		}
		if err := Validate(item); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		items = append(items, item)
	}
	return items, nil
}

// Validate checks a single catalog item
func Validate(item models.Item) error {
	switch {
	case item.Name == "":
		return errors.New("name is required")
	case item.Category == "":
		return fmt.Errorf("%s: position is required", item.Name)
	case item.BasePrice <= 0:
		return fmt.Errorf("%s: base price must be positive, got %d", item.Name, item.BasePrice)
	}
	return nil
}

// Dedupe keeps the first item for every name, preserving order
func Dedupe(items []models.Item) []models.Item {
	seen := make(map[string]struct{}, len(items))
	out := make([]models.Item, 0, len(items))
	for _, it := range items {
		if _, dup := seen[it.Name]; dup {
			log.Warn().Str("item", it.Name).Msg("duplicate catalog item dropped")
			continue
		}
		seen[it.Name] = struct{}{}
		out = append(out, it)
	}
	return out
}

// Shuffle returns a permuted copy of items
func Shuffle(rng *rand.Rand, items []models.Item) []models.Item {
	out := make([]models.Item, len(items))
	copy(out, items)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// Prepare loads from src, dedupes and shuffles. It fails on an empty catalog.
func Prepare(ctx context.Context, src Source, rng *rand.Rand) ([]models.Item, error) {
	items, err := src.Load(ctx)
	if err != nil {
		return nil, err
	}
	items = Dedupe(items)
	if len(items) == 0 {
		return nil, errors.New("catalog is empty")
	}
	return Shuffle(rng, items), nil
}
