package locator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/medassist/internal/model"
	appErr "github.com/xxxsen/medassist/internal/pkg/errors"
)

const (
	DefaultRadius = 5000
	DefaultLimit  = 5

	infectiousSpecialist = "infectious disease specialist"
)

var (
	ErrNoSpecialist = errors.New("no specialist matched")
	ErrNoHospital   = errors.New("no hospital found")
)

type LatLng struct {
	Lat float64
	Lng float64
}

type Geocoder interface {
	Geocode(ctx context.Context, address string) (LatLng, error)
}

type PlaceSearcher interface {
	Nearby(ctx context.Context, at LatLng, keyword string, radius uint) ([]model.Hospital, error)
}

type SpecialistFinder interface {
	FindByDisease(ctx context.Context, disease string) (*model.Specialist, error)
	FindBySymptoms(ctx context.Context, symptoms []string) (*model.Specialist, error)
}

type Recommendation struct {
	Query      string
	Location   string
	Specialist model.Specialist
	Hospitals  []model.Hospital
}

type Locator struct {
	geo         Geocoder
	places      PlaceSearcher
	specialists SpecialistFinder
	radius      uint
	limit       int
}

func New(geo Geocoder, places PlaceSearcher, specialists SpecialistFinder, radius uint, limit int) *Locator {
	if radius == 0 {
		radius = DefaultRadius
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Locator{geo: geo, places: places, specialists: specialists, radius: radius, limit: limit}
}

// Recommend resolves the specialist for a disease name (or a comma separated
// symptom list) and lists the best rated hospitals near location. When no
// hospital is found the recommendation still carries the specialist.
func (l *Locator) Recommend(ctx context.Context, disease, location string) (*Recommendation, error) {
	sp, err := l.findSpecialist(ctx, disease)
	if err != nil {
		return nil, err
	}
	hospitals, err := l.nearbyHospitals(ctx, location, sp.Name)
	if err != nil {
		return nil, err
	}
	rec := &Recommendation{Query: disease, Location: location, Specialist: *sp, Hospitals: hospitals}
	if len(hospitals) == 0 {
		return rec, ErrNoHospital
	}
	return rec, nil
}

func (l *Locator) findSpecialist(ctx context.Context, disease string) (*model.Specialist, error) {
	sp, err := l.specialists.FindByDisease(ctx, disease)
	if err == nil {
		return sp, nil
	}
	if !errors.Is(err, appErr.ErrNotFound) {
		return nil, err
	}
	if !strings.Contains(disease, ",") {
		return nil, ErrNoSpecialist
	}
	sp, err = l.specialists.FindBySymptoms(ctx, strings.Split(disease, ","))
	if errors.Is(err, appErr.ErrNotFound) {
		return nil, ErrNoSpecialist
	}
	return sp, err
}

func (l *Locator) nearbyHospitals(ctx context.Context, location, specialist string) ([]model.Hospital, error) {
	at, err := l.geo.Geocode(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("geocode %q: %w", location, err)
	}
	var all []model.Hospital
	for _, kw := range SearchKeywords(specialist) {
		found, err := l.places.Nearby(ctx, at, kw, l.radius)
		if err != nil {
			return nil, fmt.Errorf("nearby search %q: %w", kw, err)
		}
		all = append(all, found...)
	}
	logutil.GetLogger(ctx).Debug("nearby hospitals found",
		zap.String("specialist", specialist), zap.Int("count", len(all)))
	return RankHospitals(all, l.limit), nil
}

// SearchKeywords returns the place keywords used for a specialist. Infectious
// disease cases go to emergency care.
func SearchKeywords(specialist string) []string {
	if strings.EqualFold(strings.TrimSpace(specialist), infectiousSpecialist) {
		return []string{"hospital emergency", "infectious disease center", "emergency room"}
	}
	return []string{"hospital " + specialist}
}

// RankHospitals drops repeated place ids (first occurrence wins), orders by
// rating descending keeping discovery order on ties, and caps the list.
func RankHospitals(in []model.Hospital, limit int) []model.Hospital {
	seen := make(map[string]struct{}, len(in))
	out := make([]model.Hospital, 0, len(in))
	for _, h := range in {
		if _, ok := seen[h.PlaceID]; ok {
			continue
		}
		seen[h.PlaceID] = struct{}{}
		out = append(out, h)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Rating > out[j].Rating })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Render formats a recommendation as plain text.
func Render(rec *Recommendation) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Medical Help for %s\n\n", rec.Query)
	sb.WriteString("Based on your symptoms, you should consult a:\n")
	fmt.Fprintf(&sb, "%s\n\n", rec.Specialist.Name)
	fmt.Fprintf(&sb, "Recommended Hospitals in %s:\n", rec.Location)
	for i, h := range rec.Hospitals {
		fmt.Fprintf(&sb, "\n%d. %s\n", i+1, h.Name)
		fmt.Fprintf(&sb, "📍 %s\n", h.Address)
		if h.Rating > 0 {
			fmt.Fprintf(&sb, "Rating: %s (%.1f/5)\n", strings.Repeat("⭐", int(h.Rating)), h.Rating)
		} else {
			sb.WriteString("Rating: Not available\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}
