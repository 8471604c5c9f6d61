package mapeditor

import (
	"fmt"
	"net/url"
	"time"

	"github.com/jordanlanch/obramap/pkg/models"
)

// Route is an ordered polyline through a set of obras.
type Route struct {
	ObraIDs []string        `json:"obraIds"`
	Points  []models.LatLng `json:"points"`
}

// Empty reports whether there is nothing to draw.
func (r Route) Empty() bool {
	return len(r.Points) == 0
}

// BuildRoute connects obras in the order given. No reordering happens.
func BuildRoute(obras []models.Obra) Route {
	r := Route{
		ObraIDs: make([]string, 0, len(obras)),
		Points:  make([]models.LatLng, 0, len(obras)),
	}
	for i := range obras {
		r.ObraIDs = append(r.ObraIDs, obras[i].ID)
		r.Points = append(r.Points, obras[i].Position())
	}
	return r
}

// ClearRoute is the empty route.
func ClearRoute() Route {
	return Route{ObraIDs: []string{}, Points: []models.LatLng{}}
}

// TodayVisits keeps the obras with a visit task due on now's calendar day in
// loc, in their original order. Done visits count too; the route is the day's
// plan. A nil loc keeps now's own location.
func TodayVisits(obras []models.Obra, now time.Time, loc *time.Location) []models.Obra {
	if loc == nil {
		loc = now.Location()
	}
	y, m, d := now.In(loc).Date()

	var out []models.Obra
	for i := range obras {
		for _, task := range obras[i].Tasks {
			if task.Type != models.TaskVisit {
				continue
			}
			ty, tm, td := task.Due.In(loc).Date()
			if ty == y && tm == m && td == d {
				out = append(out, obras[i])
				break
			}
		}
	}
	return out
}

// DirectionsURL opens turn-by-turn navigation to the obra in Google Maps.
func DirectionsURL(obra models.Obra) string {
	q := url.Values{}
	q.Set("api", "1")
	q.Set("destination", fmt.Sprintf("%g,%g", obra.Lat, obra.Lng))
	return "https://www.google.com/maps/dir/?" + q.Encode()
}
