package locator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/medassist/internal/model"
	appErr "github.com/xxxsen/medassist/internal/pkg/errors"
)

type stubFinder struct {
	byDisease  map[string]*model.Specialist
	bySymptoms *model.Specialist
	symptoms   []string
}

func (s *stubFinder) FindByDisease(_ context.Context, disease string) (*model.Specialist, error) {
	if sp, ok := s.byDisease[disease]; ok {
		return sp, nil
	}
	return nil, appErr.ErrNotFound
}

func (s *stubFinder) FindBySymptoms(_ context.Context, symptoms []string) (*model.Specialist, error) {
	s.symptoms = symptoms
	if s.bySymptoms == nil {
		return nil, appErr.ErrNotFound
	}
	return s.bySymptoms, nil
}

type stubGeo struct{ err error }

func (g stubGeo) Geocode(context.Context, string) (LatLng, error) {
	return LatLng{Lat: 28.6, Lng: 77.2}, g.err
}

type stubPlaces struct {
	byKeyword map[string][]model.Hospital
	keywords  []string
	radius    uint
}

func (p *stubPlaces) Nearby(_ context.Context, _ LatLng, keyword string, radius uint) ([]model.Hospital, error) {
	p.keywords = append(p.keywords, keyword)
	p.radius = radius
	return p.byKeyword[keyword], nil
}

func TestRankHospitalsDedupesSortsAndCaps(t *testing.T) {
	in := []model.Hospital{
		{PlaceID: "a", Rating: 3.9},
		{PlaceID: "b", Rating: 4.5},
		{PlaceID: "a", Rating: 5},
		{PlaceID: "c", Rating: 4.5},
		{PlaceID: "d", Rating: 0},
		{PlaceID: "e", Rating: 4.8},
		{PlaceID: "f", Rating: 1},
	}
	out := RankHospitals(in, 5)
	ids := make([]string, 0, len(out))
	for _, h := range out {
		ids = append(ids, h.PlaceID)
	}
	require.Equal(t, []string{"e", "b", "c", "a", "f"}, ids)
}

func TestSearchKeywords(t *testing.T) {
	require.Equal(t, []string{"hospital Cardiologist"}, SearchKeywords("Cardiologist"))
	require.Len(t, SearchKeywords("Infectious Disease Specialist"), 3)
}

func TestRecommendByDisease(t *testing.T) {
	finder := &stubFinder{byDisease: map[string]*model.Specialist{
		"Rabies": {ID: 4, Name: "Infectious Disease Specialist"},
	}}
	places := &stubPlaces{byKeyword: map[string][]model.Hospital{
		"hospital emergency":        {{PlaceID: "p1", Name: "City", Rating: 4.1}},
		"infectious disease center": {{PlaceID: "p2", Name: "IDC", Rating: 4.6}},
		"emergency room":            {{PlaceID: "p1", Name: "City", Rating: 4.1}},
	}}
	loc := New(stubGeo{}, places, finder, 0, 0)

	rec, err := loc.Recommend(context.Background(), "Rabies", "New Delhi")
	require.NoError(t, err)
	require.Equal(t, uint(DefaultRadius), places.radius)
	require.Len(t, places.keywords, 3)
	require.Len(t, rec.Hospitals, 2)
	require.Equal(t, "p2", rec.Hospitals[0].PlaceID)

	text := Render(rec)
	require.Contains(t, text, "Infectious Disease Specialist")
	require.Contains(t, text, "1. IDC")
	require.Contains(t, text, "(4.6/5)")
}

func TestRecommendFallsBackToSymptoms(t *testing.T) {
	finder := &stubFinder{bySymptoms: &model.Specialist{ID: 6, Name: "Pulmonologist"}}
	places := &stubPlaces{byKeyword: map[string][]model.Hospital{
		"hospital Pulmonologist": {{PlaceID: "x", Name: "Lung Care"}},
	}}
	rec, err := New(stubGeo{}, places, finder, 1000, 5).Recommend(context.Background(), "wheezing, cough", "Pune")
	require.NoError(t, err)
	require.Equal(t, []string{"wheezing", " cough"}, finder.symptoms)
	require.Equal(t, "Pulmonologist", rec.Specialist.Name)
	require.Contains(t, Render(rec), "Rating: Not available")
}

func TestRecommendErrors(t *testing.T) {
	finder := &stubFinder{}
	_, err := New(stubGeo{}, &stubPlaces{}, finder, 0, 0).Recommend(context.Background(), "flu", "Pune")
	require.ErrorIs(t, err, ErrNoSpecialist)

	finder.byDisease = map[string]*model.Specialist{"flu": {Name: "General"}}
	rec, err := New(stubGeo{}, &stubPlaces{}, finder, 0, 0).Recommend(context.Background(), "flu", "Pune")
	require.ErrorIs(t, err, ErrNoHospital)
	require.Equal(t, "General", rec.Specialist.Name)

	boom := errors.New("quota")
	_, err = New(stubGeo{err: boom}, &stubPlaces{}, finder, 0, 0).Recommend(context.Background(), "flu", "Pune")
	require.ErrorIs(t, err, boom)
}
