// Package geo converts worksheet geometries from the source projected
// reference system, ETRS89 / Portugal TM06 (EPSG:3763), to geographic
// WGS84 longitude/latitude. The transform is a fixed pure function with no
// internal state; the same input always yields the same output.
package geo

import (
	"math"

	"github.com/paulmach/orb"
)

// EPSG:3763 is a transverse mercator on the GRS80 ellipsoid:
// lat_0=39.66825833333333 lon_0=-8.133108333333333 k=1 x_0=200000 y_0=300000
const (
	semiMajor  = 6378137.0
	flattening = 1.0 / 298.257222101

	originLat    = 39.66825833333333 * math.Pi / 180
	originLon    = -8.133108333333333 * math.Pi / 180
	scaleFactor  = 1.0
	falseEasting = 200000.0
	falseNorth   = 300000.0
)

var (
	e2  = flattening * (2 - flattening) // first eccentricity squared
	e4  = e2 * e2
	e6  = e4 * e2
	ep2 = e2 / (1 - e2) // second eccentricity squared
	e1  = (1 - math.Sqrt(1-e2)) / (1 + math.Sqrt(1-e2))

	arcM0 = meridianArc(originLat)
)

// meridianArc returns the ellipsoidal meridian arc length from the equator to
// latitude phi (Snyder 3-21).
func meridianArc(phi float64) float64 {
	return semiMajor * ((1-e2/4-3*e4/64-5*e6/256)*phi -
		(3*e2/8+3*e4/32+45*e6/1024)*math.Sin(2*phi) +
		(15*e4/256+45*e6/1024)*math.Sin(4*phi) -
		(35*e6/3072)*math.Sin(6*phi))
}

// ToWGS84 converts a planar EPSG:3763 easting/northing pair to WGS84
// longitude/latitude in degrees (Snyder 8-17..8-25, inverse transverse
// mercator). ETRS89 and WGS84 are treated as coincident, matching the
// source system's EPSG:3763 -> EPSG:4326 mapping.
func ToWGS84(x, y float64) (lon, lat float64) {
	m := arcM0 + (y-falseNorth)/scaleFactor
	mu := m / (semiMajor * (1 - e2/4 - 3*e4/64 - 5*e6/256))

	// footpoint latitude
	phi1 := mu +
		(3*e1/2-27*math.Pow(e1, 3)/32)*math.Sin(2*mu) +
		(21*e1*e1/16-55*math.Pow(e1, 4)/32)*math.Sin(4*mu) +
		(151*math.Pow(e1, 3)/96)*math.Sin(6*mu) +
		(1097*math.Pow(e1, 4)/512)*math.Sin(8*mu)

	sin1, cos1 := math.Sin(phi1), math.Cos(phi1)
	tan1 := sin1 / cos1

	c1 := ep2 * cos1 * cos1
	t1 := tan1 * tan1
	n1 := semiMajor / math.Sqrt(1-e2*sin1*sin1)
	r1 := semiMajor * (1 - e2) / math.Pow(1-e2*sin1*sin1, 1.5)
	d := (x - falseEasting) / (n1 * scaleFactor)

	phi := phi1 - (n1*tan1/r1)*(d*d/2-
		(5+3*t1+10*c1-4*c1*c1-9*ep2)*math.Pow(d, 4)/24+
		(61+90*t1+298*c1+45*t1*t1-252*ep2-3*c1*c1)*math.Pow(d, 6)/720)

	lambda := originLon + (d-
		(1+2*t1+c1)*math.Pow(d, 3)/6+
		(5-2*c1+28*t1-3*c1*c1+8*ep2+24*t1*t1)*math.Pow(d, 5)/120)/cos1

	return lambda * 180 / math.Pi, phi * 180 / math.Pi
}

// ReprojectPoint transforms a single coordinate pair.
func ReprojectPoint(p orb.Point) orb.Point {
	lon, lat := ToWGS84(p[0], p[1])
	return orb.Point{lon, lat}
}

// ReprojectPolygon transforms every pair in every ring. Ring order and point
// order within each ring are preserved.
func ReprojectPolygon(poly orb.Polygon) orb.Polygon {
	out := make(orb.Polygon, len(poly))
	for i, ring := range poly {
		r := make(orb.Ring, len(ring))
		for j, p := range ring {
			r[j] = ReprojectPoint(p)
		}
		out[i] = r
	}
	return out
}
