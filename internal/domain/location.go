package domain

import "context"

// Location is a geocoded point for the map view.
type Location struct {
	Lat              float64 `json:"lat"`
	Lng              float64 `json:"lng"`
	FormattedAddress string  `json:"formatted_address"`
}

// Geocoder resolves a postal address. ErrNotFound means no result.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*Location, error)
}
