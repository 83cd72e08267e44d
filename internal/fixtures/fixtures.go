// Package fixtures loads the read-only reference data the demo renders and
// parameterizes scenarios with.
package fixtures

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"sort"

	"github.com/spf13/afero"
)

//go:embed data/*.json
var embedded embed.FS

// ErrInvalidFixture indicates a fixture file that cannot be used.
var ErrInvalidFixture = errors.New("invalid fixture")

const dataDir = "data"

// Set holds every collection.
type Set struct {
	Transactions          []Transaction          `json:"transactions"`
	Users                 []User                 `json:"users"`
	Flights               []Flight               `json:"flights"`
	Hotels                []Hotel                `json:"hotels"`
	Trains                []Train                `json:"trains"`
	PolicyExceptions      []PolicyException      `json:"policy_exceptions"`
	RecommendationLogs    []RecommendationLog    `json:"recommendation_logs"`
	SustainabilityTargets []SustainabilityTarget `json:"sustainability_targets"`
}

// EmbeddedFs returns the fixtures compiled into the binary, rooted so that
// collections live at data/<kind>.json.
func EmbeddedFs() afero.Fs {
	return afero.NewReadOnlyFs(afero.FromIOFS{FS: embedded})
}

// Embedded loads the compiled-in fixtures.
func Embedded() (*Set, error) {
	return Load(EmbeddedFs())
}

// Layered loads fixtures from dir on the OS filesystem, falling back to the
// embedded copy for every collection dir does not provide. An empty dir
// loads the embedded set.
func Layered(dir string) (*Set, error) {
	if dir == "" {
		return Embedded()
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("fixtures dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("fixtures dir %s: not a directory", dir)
	}
	override := afero.NewBasePathFs(afero.NewReadOnlyFs(afero.NewOsFs()), dir)
	layer := afero.NewMemMapFs()
	if err := layer.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}
	for _, kind := range Kinds {
		name := string(kind) + ".json"
		data, err := afero.ReadFile(override, name)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		if err := afero.WriteFile(layer, path.Join(dataDir, name), data, 0o644); err != nil {
			return nil, err
		}
	}
	return Load(afero.NewCopyOnWriteFs(EmbeddedFs(), layer))
}

// Load reads every collection from data/<kind>.json on fsys. A missing file
// yields an empty collection.
func Load(fsys afero.Fs) (*Set, error) {
	set := &Set{}
	targets := map[Kind]any{
		KindTransactions:          &set.Transactions,
		KindUsers:                 &set.Users,
		KindFlights:               &set.Flights,
		KindHotels:                &set.Hotels,
		KindTrains:                &set.Trains,
		KindPolicyExceptions:      &set.PolicyExceptions,
		KindRecommendationLogs:    &set.RecommendationLogs,
		KindSustainabilityTargets: &set.SustainabilityTargets,
	}
	for _, kind := range Kinds {
		name := path.Join(dataDir, string(kind)+".json")
		data, err := afero.ReadFile(fsys, name)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		if err := json.Unmarshal(data, targets[kind]); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidFixture, name, err)
		}
	}
	if err := set.validate(); err != nil {
		return nil, err
	}
	return set, nil
}

// Items returns one collection in its kind-independent form, ordered by id.
func (s *Set) Items(kind Kind) ([]Item, error) {
	var items []Item
	var err error
	switch kind {
	case KindTransactions:
		items, err = toItems(kind, s.Transactions, func(v Transaction) string { return v.ID })
	case KindUsers:
		items, err = toItems(kind, s.Users, func(v User) string { return v.ID })
	case KindFlights:
		items, err = toItems(kind, s.Flights, func(v Flight) string { return v.ID })
	case KindHotels:
		items, err = toItems(kind, s.Hotels, func(v Hotel) string { return v.ID })
	case KindTrains:
		items, err = toItems(kind, s.Trains, func(v Train) string { return v.ID })
	case KindPolicyExceptions:
		items, err = toItems(kind, s.PolicyExceptions, func(v PolicyException) string { return v.ID })
	case KindRecommendationLogs:
		items, err = toItems(kind, s.RecommendationLogs, func(v RecommendationLog) string { return v.ID })
	case KindSustainabilityTargets:
		items, err = toItems(kind, s.SustainabilityTargets, func(v SustainabilityTarget) string { return v.ID })
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidFixture, kind)
	}
	if err != nil {
		return nil, err
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

// Counts returns the size of every collection.
func (s *Set) Counts() map[Kind]int {
	return map[Kind]int{
		KindTransactions:          len(s.Transactions),
		KindUsers:                 len(s.Users),
		KindFlights:               len(s.Flights),
		KindHotels:                len(s.Hotels),
		KindTrains:                len(s.Trains),
		KindPolicyExceptions:      len(s.PolicyExceptions),
		KindRecommendationLogs:    len(s.RecommendationLogs),
		KindSustainabilityTargets: len(s.SustainabilityTargets),
	}
}

type describable interface {
	item() (title, text string)
}

func toItems[T describable](kind Kind, values []T, id func(T) string) ([]Item, error) {
	items := make([]Item, 0, len(values))
	for _, v := range values {
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encoding %s %s: %w", kind, id(v), err)
		}
		title, text := v.item()
		items = append(items, Item{Kind: kind, ID: id(v), Title: title, Text: text, Data: data})
	}
	return items, nil
}

func (s *Set) validate() error {
	for _, kind := range Kinds {
		items, err := s.Items(kind)
		if err != nil {
			return err
		}
		for i, it := range items {
			if it.ID == "" {
				return fmt.Errorf("%w: %s entry without id", ErrInvalidFixture, kind)
			}
			if i > 0 && items[i-1].ID == it.ID {
				return fmt.Errorf("%w: duplicate %s id %q", ErrInvalidFixture, kind, it.ID)
			}
		}
	}
	for _, t := range s.Transactions {
		if !t.Status.Valid() {
			return fmt.Errorf("%w: transaction %s has status %q", ErrInvalidFixture, t.ID, t.Status)
		}
	}
	return nil
}
