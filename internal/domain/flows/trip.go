package flows

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/ganot/agentic-te/internal/fixtures"
	"github.com/ganot/agentic-te/internal/policy"
	"golang.org/x/text/unicode/norm"
)

// cityCodes maps catalog cities to the airport and station codes serving
// them.
var cityCodes = map[string][]string{
	"San Francisco": {"SFO"},
	"Boston":        {"BOS"},
	"New York":      {"JFK", "LGA", "EWR", "NYP"},
	"Seattle":       {"SEA"},
	"Portland":      {"PDX"},
	"Austin":        {"AUS"},
}

const maxTripNights = 30

// PlanTrip ranks catalog flights, trains and hotels for a destination. By
// default options are ordered cheapest first with preferred hotels ahead;
// PreferLowCarbon orders by emissions instead.
func (s *Service) PlanTrip(ctx context.Context, req TripRequest) (*TripPlan, error) {
	city, codes := resolveDestination(req.Destination)
	if city == "" {
		return nil, fmt.Errorf("%w: destination is required", ErrInvalidInput)
	}
	if req.Budget < 0 {
		return nil, fmt.Errorf("%w: budget must not be negative", ErrInvalidInput)
	}
	nights := req.Nights
	if nights <= 0 {
		nights = 1
	}
	if nights > maxTripNights {
		return nil, fmt.Errorf("%w: at most %d nights", ErrInvalidInput, maxTripNights)
	}
	_, origins := resolveDestination(req.Origin)

	flights, err := listAs[fixtures.Flight](ctx, s.catalog, fixtures.KindFlights)
	if err != nil {
		return nil, err
	}
	trains, err := listAs[fixtures.Train](ctx, s.catalog, fixtures.KindTrains)
	if err != nil {
		return nil, err
	}
	hotels, err := listAs[fixtures.Hotel](ctx, s.catalog, fixtures.KindHotels)
	if err != nil {
		return nil, err
	}

	plan := &TripPlan{
		Destination: city,
		Nights:      nights,
		Budget:      req.Budget,
		Transport:   []TransportOption{},
		Hotels:      []HotelOption{},
	}

	for _, f := range flights {
		if !containsCode(codes, f.Destination) || (len(origins) > 0 && !containsCode(origins, f.Origin)) {
			continue
		}
		plan.Transport = append(plan.Transport, TransportOption{
			ID:          f.ID,
			Mode:        ModeFlight,
			Label:       fmt.Sprintf("%s %s %s-%s", f.Airline, f.FlightNumber, f.Origin, f.Destination),
			Origin:      f.Origin,
			Destination: f.Destination,
			Price:       f.Price,
			CO2Kg:       f.CO2Kg,
			Stops:       f.Stops,
		})
	}
	for _, t := range trains {
		if !containsCode(codes, t.Destination) || (len(origins) > 0 && !containsCode(origins, t.Origin)) {
			continue
		}
		plan.Transport = append(plan.Transport, TransportOption{
			ID:          t.ID,
			Mode:        ModeTrain,
			Label:       fmt.Sprintf("%s %s-%s", t.Operator, t.Origin, t.Destination),
			Origin:      t.Origin,
			Destination: t.Destination,
			Price:       t.Price,
			CO2Kg:       t.CO2Kg,
		})
	}
	for _, h := range hotels {
		if !strings.EqualFold(h.City, city) {
			continue
		}
		plan.Hotels = append(plan.Hotels, HotelOption{
			ID:          h.ID,
			Name:        h.Name,
			NightlyRate: h.NightlyRate,
			Total:       round2(h.NightlyRate * float64(nights)),
			CO2Kg:       h.CO2KgPerNight * float64(nights),
			Rating:      h.Rating,
			Preferred:   h.Preferred,
		})
	}

	if len(plan.Transport) == 0 && len(plan.Hotels) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoDestination, city)
	}

	rankTransport(plan.Transport, req.PreferLowCarbon)
	rankHotels(plan.Hotels, req.PreferLowCarbon)

	var cheapestTransport float64
	for i, t := range plan.Transport {
		if i == 0 || t.Price < cheapestTransport {
			cheapestTransport = t.Price
		}
	}
	for i := range plan.Transport {
		plan.Transport[i].WithinBudget = req.Budget == 0 || plan.Transport[i].Price <= req.Budget
	}
	for i := range plan.Hotels {
		plan.Hotels[i].WithinBudget = req.Budget == 0 || cheapestTransport+plan.Hotels[i].Total <= req.Budget
	}

	var parts []string
	if len(plan.Transport) > 0 {
		top := plan.Transport[0]
		plan.EstimatedTotal += top.Price
		plan.EstimatedCO2Kg += top.CO2Kg
		parts = append(parts, fmt.Sprintf("%s (%s)", top.Label, policy.Money(top.Price)))
	}
	if len(plan.Hotels) > 0 {
		top := plan.Hotels[0]
		plan.EstimatedTotal += top.Total
		plan.EstimatedCO2Kg += top.CO2Kg
		parts = append(parts, fmt.Sprintf("%s %d %s (%s)", top.Name, nights, plural(nights, "night", "nights"), policy.Money(top.Total)))
	}
	plan.EstimatedTotal = round2(plan.EstimatedTotal)

	plan.Summary = fmt.Sprintf("Best option to %s: %s, %s total, %.0f kg CO2",
		city, strings.Join(parts, " + "), policy.Money(plan.EstimatedTotal), plan.EstimatedCO2Kg)
	if req.Budget > 0 && plan.EstimatedTotal > req.Budget {
		plan.Summary += fmt.Sprintf(" - over budget by %s", policy.Money(round2(plan.EstimatedTotal-req.Budget)))
	}

	s.logger.Debug("trip planned", "destination", city, "transport", len(plan.Transport), "hotels", len(plan.Hotels))
	return plan, nil
}

func rankTransport(opts []TransportOption, lowCarbon bool) {
	sort.SliceStable(opts, func(i, j int) bool {
		a, b := opts[i], opts[j]
		if lowCarbon && a.CO2Kg != b.CO2Kg {
			return a.CO2Kg < b.CO2Kg
		}
		if a.Price != b.Price {
			return a.Price < b.Price
		}
		if a.Stops != b.Stops {
			return a.Stops < b.Stops
		}
		return a.ID < b.ID
	})
}

func rankHotels(opts []HotelOption, lowCarbon bool) {
	sort.SliceStable(opts, func(i, j int) bool {
		a, b := opts[i], opts[j]
		if lowCarbon && a.CO2Kg != b.CO2Kg {
			return a.CO2Kg < b.CO2Kg
		}
		if a.Preferred != b.Preferred {
			return a.Preferred
		}
		if a.NightlyRate != b.NightlyRate {
			return a.NightlyRate < b.NightlyRate
		}
		return a.ID < b.ID
	})
}

// resolveDestination accepts a city name or a code and returns the catalog
// city with its codes. Unknown cities come back as given with no codes.
func resolveDestination(dest string) (string, []string) {
	dest = strings.Join(strings.Fields(norm.NFC.String(dest)), " ")
	if dest == "" {
		return "", nil
	}
	for city, codes := range cityCodes {
		if strings.EqualFold(city, dest) || containsCode(codes, dest) {
			return city, codes
		}
	}
	return dest, nil
}

func containsCode(codes []string, code string) bool {
	for _, c := range codes {
		if strings.EqualFold(c, code) {
			return true
		}
	}
	return false
}

func listAs[T any](ctx context.Context, catalog Catalog, kind fixtures.Kind) ([]T, error) {
	items, err := catalog.List(ctx, kind, fixtures.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", kind, err)
	}
	out := make([]T, 0, len(items))
	for _, it := range items {
		var v T
		if err := json.Unmarshal(it.Data, &v); err != nil {
			return nil, fmt.Errorf("decoding %s %s: %w", kind, it.ID, err)
		}
		out = append(out, v)
	}
	return out, nil
}
