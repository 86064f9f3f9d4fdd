package sdf

import (
	"fmt"
	"math"
	"regexp"

	"github.com/beevik/etree"
	utm "github.com/im7mortal/UTM"

	"github.com/jacoelho/sdf/errors"
	"github.com/jacoelho/sdf/internal/pose"
	"github.com/jacoelho/sdf/internal/xmltree"
)

// DefaultSurfaceModel is the surface model of coordinates that name none.
const DefaultSurfaceModel = "WGS-84"

const (
	falseNorthing   = 10_000_000
	metersPerDegree = 111_320
	maxUTMZone      = 60
)

// Hemisphere selects the UTM hemisphere a position is projected for.
type Hemisphere int

const (
	// HemisphereAuto uses the hemisphere of the latitude.
	HemisphereAuto Hemisphere = iota
	HemisphereNorth
	HemisphereSouth
)

// UTMCoordinates is a position on a Universal Transverse Mercator zone.
type UTMCoordinates struct {
	Easting  float64
	Northing float64
	Zone     int
	North    bool
}

// Gazebo keeps four decimals of latitude and longitude.
var tooPrecise = regexp.MustCompile(`\.(\d{5,})$`)

// SphericalCoordinates anchors a world to a point on the planet.
type SphericalCoordinates struct {
	Element
}

// NewSphericalCoordinates wraps a spherical_coordinates node.
func NewSphericalCoordinates(node *etree.Element, parent Entity) (SphericalCoordinates, error) {
	el, err := newElement(KindSphericalCoordinates, node, parent, "spherical_coordinates")
	if err != nil {
		return SphericalCoordinates{}, err
	}
	return SphericalCoordinates{Element: el}, nil
}

// SurfaceModel returns the planetary surface model.
func (c SphericalCoordinates) SurfaceModel() string {
	if child := c.node.SelectElement("surface_model"); child != nil {
		return xmltree.Text(child)
	}
	return DefaultSurfaceModel
}

// LatitudeDeg returns the latitude of the world origin in degrees.
func (c SphericalCoordinates) LatitudeDeg() (float64, error) {
	return c.degrees("latitude_deg", "latitude")
}

// LongitudeDeg returns the longitude of the world origin in degrees.
func (c SphericalCoordinates) LongitudeDeg() (float64, error) {
	return c.degrees("longitude_deg", "longitude")
}

func (c SphericalCoordinates) degrees(tag, what string) (float64, error) {
	child, err := c.optionalChild(tag)
	if err != nil {
		return 0, err
	}
	if child == nil {
		return 0, errors.Newf(errors.ErrInvalid, c.Path(), "no %s defined", what)
	}
	v, err := pose.Float(child)
	if err != nil {
		return 0, err
	}
	if m := tooPrecise.FindStringSubmatch(xmltree.Text(child)); m != nil {
		return 0, errors.Newf(errors.ErrInvalid, xmltree.Path(child),
			"Gazebo truncates spherical_coordinates/latitude_deg and spherical_coordinates/longitude_deg to 4 decimals, cannot have %d",
			len(m[1]))
	}
	return v, nil
}

// Elevation returns the elevation of the world origin in meters, 0 when
// unset.
func (c SphericalCoordinates) Elevation() (float64, error) {
	child, err := c.optionalChild("elevation")
	if err != nil || child == nil {
		return 0, err
	}
	return pose.Float(child)
}

// Heading returns the heading of the world frame in radians, 0 when unset.
// The document stores it in degrees.
func (c SphericalCoordinates) Heading() (float64, error) {
	child, err := c.optionalChild("heading_deg")
	if err != nil || child == nil {
		return 0, err
	}
	deg, err := pose.Float(child)
	if err != nil {
		return 0, err
	}
	return deg * math.Pi / 180, nil
}

// DefaultUTMZone returns the UTM zone holding the world origin and whether it
// lies north of the equator.
func (c SphericalCoordinates) DefaultUTMZone() (int, bool, error) {
	lat, lon, err := c.latLon()
	if err != nil {
		return 0, false, err
	}
	_, _, zone, letter, err := utm.FromLatLon(lat, lon, lat >= 0)
	if err != nil {
		return 0, false, c.utmError(err)
	}
	return zone, letter >= "N", nil
}

// UTM projects the world origin on a UTM zone. A zone of 0 picks the zone
// holding the origin. Forcing the hemisphere away from the latitude's shifts
// the northing by the false northing of southern zones, so a point just south
// of the equator gets a small negative northing when forced north.
func (c SphericalCoordinates) UTM(zone int, hemisphere Hemisphere) (UTMCoordinates, error) {
	if zone < 0 || zone > maxUTMZone {
		return UTMCoordinates{}, errors.Newf(errors.ErrInvalid, c.Path(), "invalid UTM zone %d", zone)
	}
	lat, lon, err := c.latLon()
	if err != nil {
		return UTMCoordinates{}, err
	}

	north := lat >= 0
	easting, northing, defaultZone, _, err := utm.FromLatLon(lat, lon, north)
	if err != nil {
		return UTMCoordinates{}, c.utmError(err)
	}
	northing = hemisphereNorthing(lat, northing)
	if zone == 0 {
		zone = defaultZone
	}
	if zone != defaultZone {
		easting, northing, err = projectOnZone(lat, lon, zone, north, northing)
		if err != nil {
			return UTMCoordinates{}, c.utmError(err)
		}
	}

	switch {
	case hemisphere == HemisphereNorth && !north:
		northing -= falseNorthing
		north = true
	case hemisphere == HemisphereSouth && north:
		northing += falseNorthing
		north = false
	}
	return UTMCoordinates{Easting: easting, Northing: northing, Zone: zone, North: north}, nil
}

func (c SphericalCoordinates) latLon() (float64, float64, error) {
	lat, err := c.LatitudeDeg()
	if err != nil {
		return 0, 0, err
	}
	lon, err := c.LongitudeDeg()
	if err != nil {
		return 0, 0, err
	}
	return lat, lon, nil
}

func (c SphericalCoordinates) utmError(err error) error {
	e := errors.Wrap(errors.ErrInvalid, err, "cannot project on UTM")
	e.Path = c.Path()
	return e
}

// hemisphereNorthing returns northing with the false northing applied when,
// and only when, lat is south of the equator.
func hemisphereNorthing(lat, northing float64) float64 {
	switch {
	case lat < 0 && northing < 0:
		return northing + falseNorthing
	case lat >= 0 && northing >= falseNorthing:
		return northing - falseNorthing
	}
	return northing
}

// projectOnZone projects lat/lon on a zone other than the one holding it.
// The forward projection always picks the holding zone, so the position is
// solved with Newton's method on the zone's inverse projection, starting
// east of the central meridian by a spherical estimate.
func projectOnZone(lat, lon float64, zone int, north bool, northing float64) (float64, float64, error) {
	const (
		tolerance  = 1e-9
		iterations = 20
	)
	central := float64(zone-1)*6 - 177
	easting := 500_000 + (lon-central)*metersPerDegree*math.Cos(lat*math.Pi/180)

	for i := 0; i < iterations; i++ {
		la, lo, err := utm.ToLatLon(easting, northing, zone, "", north)
		if err != nil {
			return 0, 0, err
		}
		dLat, dLon := lat-la, lon-lo
		if math.Abs(dLat) < tolerance && math.Abs(dLon) < tolerance {
			return easting, northing, nil
		}

		laE, loE, err := utm.ToLatLon(easting+1, northing, zone, "", north)
		if err != nil {
			return 0, 0, err
		}
		laN, loN, err := utm.ToLatLon(easting, northing+1, zone, "", north)
		if err != nil {
			return 0, 0, err
		}
		// degrees per meter
		latE, latN := laE-la, laN-la
		lonE, lonN := loE-lo, loN-lo
		det := latE*lonN - latN*lonE
		if det == 0 {
			break
		}
		easting += (lonN*dLat - latN*dLon) / det
		northing += (latE*dLon - lonE*dLat) / det
	}
	return 0, 0, fmt.Errorf("no convergence on zone %d", zone)
}
