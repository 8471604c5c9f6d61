package mapeditor

import (
	"math"

	"github.com/jordanlanch/obramap/pkg/domain"
	"github.com/jordanlanch/obramap/pkg/models"
)

// PositionStatus is how the device answered a position request.
type PositionStatus string

const (
	PositionOK          PositionStatus = "ok"
	PositionDenied      PositionStatus = "denied"
	PositionUnavailable PositionStatus = "unavailable"
)

// PositionReport is what the client's geolocation call produced.
type PositionReport struct {
	Status PositionStatus `json:"status"`
	Lat    float64        `json:"lat"`
	Lng    float64        `json:"lng"`
}

// Center is where the map should be centered.
type Center struct {
	models.LatLng
	Zoom     int  `json:"zoom"`
	Fallback bool `json:"fallback"`
}

const (
	initialZoom  = 13
	recenterZoom = 17
)

// RecenterFailedMessage is shown when a manual recenter cannot get a position.
const RecenterFailedMessage = "Não foi possível obter sua localização. Verifique as permissões."

func (r PositionReport) usable() bool {
	if r.Status != PositionOK {
		return false
	}
	if math.IsNaN(r.Lat) || math.IsNaN(r.Lng) {
		return false
	}
	return r.Lat >= -90 && r.Lat <= 90 && r.Lng >= -180 && r.Lng <= 180
}

// ResolveCenter picks the initial map center. Any failure falls back to the
// configured default without a notice.
func ResolveCenter(report PositionReport, fallback models.LatLng) Center {
	if report.usable() {
		return Center{LatLng: models.LatLng{Lat: report.Lat, Lng: report.Lng}, Zoom: initialZoom}
	}
	return Center{LatLng: fallback, Zoom: initialZoom, Fallback: true}
}

// Recenter pans to the live position. Unlike the initial load, a failure here
// is reported to the user.
func Recenter(report PositionReport) (Center, error) {
	if !report.usable() {
		return Center{}, domain.NewBadRequestError(RecenterFailedMessage)
	}
	return Center{LatLng: models.LatLng{Lat: report.Lat, Lng: report.Lng}, Zoom: recenterZoom}, nil
}
