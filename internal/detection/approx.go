package detection

import (
	"image"
)

// ApproxPolygon simplifies a closed curve with the Douglas-Peucker algorithm.
//
// Every point of the input lies within epsilon pixels of the returned
// polygon. Vertices are a subset of the input points in their original
// cyclic order.
//
// Because a closed curve has no natural endpoints, two anchors are chosen
// first: starting from the first point, the farthest point is located
// repeatedly (three hops); the last two points found split the curve into
// two arcs that are simplified independently. A final pass drops vertices
// that lie almost on the segment joining their neighbours.
//
// When every point lies within epsilon of the first anchor the curve
// collapses to that single point.
func ApproxPolygon(points []image.Point, epsilon float64) []image.Point {
	n := len(points)
	if n < 3 {
		return append([]image.Point(nil), points...)
	}
	eps2 := epsilon * epsilon

	// Anchor selection.
	pos, offset := 0, 0
	var maxDist int
	for iter := 0; iter < 3; iter++ {
		pos = (pos + offset) % n
		start := points[pos]
		maxDist = 0
		offset = 0
		for j := 1; j < n; j++ {
			p := points[(pos+j)%n]
			dx, dy := p.X-start.X, p.Y-start.Y
			if d := dx*dx + dy*dy; d > maxDist {
				maxDist = d
				offset = j
			}
		}
	}
	if float64(maxDist) <= eps2 {
		return []image.Point{points[pos]}
	}

	a := pos
	b := (pos + offset) % n

	result := make([]image.Point, 0, 8)
	result = append(result, points[a])
	result = simplifyArc(points, a, b, eps2, result)
	result = append(result, points[b])
	result = simplifyArc(points, b, a, eps2, result)

	return dropFlatVertices(result, eps2)
}

// simplifyArc appends to out the interior vertices kept when simplifying the
// cyclic arc from index start to index end (both exclusive).
func simplifyArc(points []image.Point, start, end int, eps2 float64, out []image.Point) []image.Point {
	n := len(points)
	span := (end - start + n) % n
	if span <= 1 {
		return out
	}

	s, e := points[start], points[end]
	dx, dy := e.X-s.X, e.Y-s.Y

	far := -1
	var maxDist float64
	for k := 1; k < span; k++ {
		i := (start + k) % n
		p := points[i]
		// Twice the triangle area, i.e. distance times |s-e|.
		d := float64(abs((p.Y-s.Y)*dx - (p.X-s.X)*dy))
		if d > maxDist {
			maxDist = d
			far = i
		}
	}

	if far < 0 || maxDist*maxDist <= eps2*float64(dx*dx+dy*dy) {
		return out
	}

	out = simplifyArc(points, start, far, eps2, out)
	out = append(out, points[far])
	return simplifyArc(points, far, end, eps2, out)
}

// dropFlatVertices removes vertices that sit within epsilon/sqrt(2) of the
// diagonal segment joining their neighbours while lying between them.
func dropFlatVertices(poly []image.Point, eps2 float64) []image.Point {
	out := append([]image.Point(nil), poly...)
	for i := 0; i < len(out) && len(out) > 2; {
		n := len(out)
		prev := out[(i+n-1)%n]
		pt := out[i]
		next := out[(i+1)%n]

		dx, dy := next.X-prev.X, next.Y-prev.Y
		dist := float64(abs((pt.X-prev.X)*dy - (pt.Y-prev.Y)*dx))
		inner := (pt.X-prev.X)*(next.X-pt.X) + (pt.Y-prev.Y)*(next.Y-pt.Y)

		if dx != 0 && dy != 0 && inner >= 0 &&
			dist*dist <= 0.5*eps2*float64(dx*dx+dy*dy) {
			out = append(out[:i], out[i+1:]...)
			continue
		}
		i++
	}
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
