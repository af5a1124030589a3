package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"discodoge/internal/domain"
)

type googleGeocoder struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// NewGoogleGeocoder returns a Geocoder that calls the Google Geocoding API.
// baseURL is normally https://maps.googleapis.com.
func NewGoogleGeocoder(client *http.Client, baseURL, apiKey string) domain.Geocoder {
	if client == nil {
		client = http.DefaultClient
	}
	return &googleGeocoder{client: client, baseURL: strings.TrimSuffix(baseURL, "/"), apiKey: apiKey}
}

type geocodeResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

func (g *googleGeocoder) Geocode(ctx context.Context, address string) (*domain.Location, error) {
	if strings.TrimSpace(address) == "" {
		return nil, domain.ErrNotFound
	}
	q := url.Values{}
	q.Set("address", address)
	q.Set("key", g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/maps/api/geocode/json?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call geocoding api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoding api returned status: %d", resp.StatusCode)
	}

	var data geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode geocoding response: %w", err)
	}
	switch data.Status {
	case "OK":
	case "ZERO_RESULTS":
		return nil, domain.ErrNotFound
	default:
		return nil, fmt.Errorf("geocoding api status %s: %s", data.Status, data.ErrorMessage)
	}
	if len(data.Results) == 0 {
		return nil, domain.ErrNotFound
	}
	first := data.Results[0]
	return &domain.Location{
		Lat:              first.Geometry.Location.Lat,
		Lng:              first.Geometry.Location.Lng,
		FormattedAddress: first.FormattedAddress,
	}, nil
}
