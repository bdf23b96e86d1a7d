package locator

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"

	"github.com/xxxsen/medassist/internal/model"
)

const unknownAddress = "Address not available"

// GoogleMaps serves both geocoding and nearby search from one client.
type GoogleMaps struct {
	client *maps.Client
}

func NewGoogleMaps(apiKey string) (*GoogleMaps, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("maps api key is required")
	}
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return &GoogleMaps{client: client}, nil
}

func (g *GoogleMaps) Geocode(ctx context.Context, address string) (LatLng, error) {
	res, err := g.client.Geocode(ctx, &maps.GeocodingRequest{Address: address})
	if err != nil {
		return LatLng{}, err
	}
	if len(res) == 0 {
		return LatLng{}, fmt.Errorf("no geocoding result for %q", address)
	}
	loc := res[0].Geometry.Location
	return LatLng{Lat: loc.Lat, Lng: loc.Lng}, nil
}

func (g *GoogleMaps) Nearby(ctx context.Context, at LatLng, keyword string, radius uint) ([]model.Hospital, error) {
	resp, err := g.client.NearbySearch(ctx, &maps.NearbySearchRequest{
		Location: &maps.LatLng{Lat: at.Lat, Lng: at.Lng},
		Radius:   radius,
		Keyword:  keyword,
		Type:     maps.PlaceTypeHospital,
	})
	if err != nil {
		return nil, err
	}
	out := make([]model.Hospital, 0, len(resp.Results))
	for _, r := range resp.Results {
		addr := r.Vicinity
		if addr == "" {
			addr = unknownAddress
		}
		out = append(out, model.Hospital{PlaceID: r.PlaceID, Name: r.Name, Address: addr, Rating: r.Rating})
	}
	return out, nil
}
