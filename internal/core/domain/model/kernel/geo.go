package kernel

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

const (
	LatitudeMin  = -90.0
	LatitudeMax  = 90.0
	LongitudeMin = -180.0
	LongitudeMax = 180.0

	earthRadiusKm = 6371.0
)

var (
	ErrGeoPointIsNotConstructed = errs.NewValueIsRequiredError(
		"geo point must be created via NewGeoPoint")
	ErrAddressIsNotConstructed = errs.NewValueIsRequiredError(
		"address must be created via NewAddress")
)

// GeoPoint is a WGS84 latitude/longitude pair in degrees.
// The zero value is invalid; (0, 0) built through NewGeoPoint is not.
type GeoPoint struct { //nolint:recvcheck //using for validation
	lat   float64
	lng   float64
	guard guard.ConstructorGuard
}

// NewGeoPoint validates both coordinates against their ranges and reports
// every violation at once.
func NewGeoPoint(lat, lng float64) (GeoPoint, error) {
	p := GeoPoint{guard: guard.NewConstructorGuard()}

	if err := errors.Join(p.setLat(lat), p.setLng(lng)); err != nil {
		return GeoPoint{}, err
	}

	return p, nil
}

// Validate rejects zero-value points.
func (p GeoPoint) Validate() error {
	return p.guard.Validate(ErrGeoPointIsNotConstructed)
}

// Lat returns the latitude in degrees.
func (p GeoPoint) Lat() float64 {
	return p.lat
}

// Lng returns the longitude in degrees.
func (p GeoPoint) Lng() float64 {
	return p.lng
}

func (p GeoPoint) String() string {
	return fmt.Sprintf("GeoPoint(%.6f,%.6f)", p.lat, p.lng)
}

// DistanceKm returns the great-circle (haversine) distance between two points.
func (p GeoPoint) DistanceKm(other GeoPoint) (float64, error) {
	if err := errors.Join(p.Validate(), other.Validate()); err != nil {
		return 0, err
	}

	lat1, lat2 := radians(p.lat), radians(other.lat)
	dLat := lat2 - lat1
	dLng := radians(other.lng - p.lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)

	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h)), nil
}

func (p *GeoPoint) setLat(lat float64) error {
	if math.IsNaN(lat) || lat < LatitudeMin || lat > LatitudeMax {
		return errs.NewValueIsOutOfRangeError("latitude", lat, LatitudeMin, LatitudeMax)
	}
	p.lat = lat
	return nil
}

func (p *GeoPoint) setLng(lng float64) error {
	if math.IsNaN(lng) || lng < LongitudeMin || lng > LongitudeMax {
		return errs.NewValueIsOutOfRangeError("longitude", lng, LongitudeMin, LongitudeMax)
	}
	p.lng = lng
	return nil
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Address is the free-text address a requester typed plus the coordinate it
// geocoded to. Geocoding itself happens outside this service.
type Address struct { //nolint:recvcheck //using for validation
	text  string
	point GeoPoint
	guard guard.ConstructorGuard
}

// NewAddress trims text and requires it to be non-empty.
func NewAddress(text string, point GeoPoint) (Address, error) {
	a := Address{guard: guard.NewConstructorGuard()}

	if err := errors.Join(a.setText(text), a.setPoint(point)); err != nil {
		return Address{}, err
	}

	return a, nil
}

// Validate rejects zero-value addresses.
func (a Address) Validate() error {
	return a.guard.Validate(ErrAddressIsNotConstructed)
}

// Text returns the address as entered.
func (a Address) Text() string {
	return a.text
}

// Point returns the geocoded coordinate.
func (a Address) Point() GeoPoint {
	return a.point
}

func (a *Address) setText(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return errs.NewValueIsRequiredError("address")
	}
	a.text = text
	return nil
}

func (a *Address) setPoint(point GeoPoint) error {
	if err := point.Validate(); err != nil {
		return err
	}
	a.point = point
	return nil
}
