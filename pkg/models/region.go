package models

// LatLng is a WGS84 coordinate.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Region is a sales territory drawn on the map.
type Region struct {
	ID     string   `json:"id"`
	Points []LatLng `json:"points"`
	Color  string   `json:"color"`
}

// RegionPalette is cycled through as regions are created.
var RegionPalette = []string{"blue", "green", "purple", "orange", "red", "yellow"}

// MinRegionPoints is the smallest polygon that can be persisted.
const MinRegionPoints = 3
