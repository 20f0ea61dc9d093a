package detection

import (
	"image"
	"math"
	"sort"
)

// Contour is the closed outer border of one connected group of edge pixels.
//
// Points are stored with straight runs compressed: only the pixels where
// the border changes direction are kept. The last point connects back to
// the first.
type Contour struct {
	Points []image.Point
}

// Area returns the area enclosed by the contour polygon (shoelace formula).
// The value is always non-negative regardless of tracing direction.
func (c Contour) Area() float64 {
	return polygonArea(c.Points)
}

// ArcLength returns the perimeter of the closed contour polygon.
func (c Contour) ArcLength() float64 {
	return closedArcLength(c.Points)
}

// Bounds returns the smallest rectangle containing every contour point.
// Max is exclusive, so a single pixel yields a 1x1 rectangle.
func (c Contour) Bounds() image.Rectangle {
	return boundingBox(c.Points)
}

// Clockwise neighbour offsets starting at west. Index arithmetic modulo 8
// walks around a pixel; d+4 is always the opposite direction.
var neighbours = [8]image.Point{
	{-1, 0},  // W
	{-1, -1}, // NW
	{0, -1},  // N
	{1, -1},  // NE
	{1, 0},   // E
	{1, 1},   // SE
	{0, 1},   // S
	{-1, 1},  // SW
}

// ExternalContours finds the outer borders of all outermost edge components.
//
// Any non-zero pixel of edges counts as foreground. Foreground pixels are
// grouped with 8-connectivity. A group lying inside a hole of another group
// (the background around it is cut off from the image frame) is not
// external and is skipped, as are holes themselves.
//
// Contours are returned in raster order of their topmost-leftmost pixel.
//
// # Algorithm
//
//  1. Labelling: stack-based flood fill assigns a label to each 8-connected
//     foreground component.
//  2. Outer background: a 4-connected flood fill from the image frame marks
//     every background pixel reachable from outside. A component touching
//     the frame or this background is external.
//  3. Tracing: Moore-neighbour tracing walks the outer border of each
//     external component clockwise, starting at its first pixel in raster
//     order, and stops when the start pixel is left in its initial
//     direction a second time.
//  4. Compression: points inside straight horizontal, vertical or diagonal
//     runs are dropped.
func ExternalContours(edges *image.Gray) []Contour {
	bounds := edges.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width == 0 || height == 0 {
		return []Contour{}
	}

	fg := make([]bool, width*height)
	for y := 0; y < height; y++ {
		row := edges.Pix[y*edges.Stride : y*edges.Stride+width]
		for x, v := range row {
			fg[y*width+x] = v != 0
		}
	}

	labels, starts, sizes := labelComponents(fg, width, height)
	outside := outerBackground(fg, width, height)
	external := externalLabels(labels, outside, len(starts), width, height)

	contours := make([]Contour, 0)
	for id, start := range starts {
		if !external[id] {
			continue
		}
		border := traceBorder(fg, width, height, start, 4*sizes[id]+16)
		contours = append(contours, Contour{Points: compressChain(border)})
	}

	return contours
}

// labelComponents labels 8-connected foreground components. It returns the
// per-pixel label (-1 for background), the first pixel of each component in
// raster order and each component's pixel count.
func labelComponents(fg []bool, width, height int) ([]int, []image.Point, []int) {
	labels := make([]int, width*height)
	for i := range labels {
		labels[i] = -1
	}

	starts := make([]image.Point, 0)
	sizes := make([]int, 0)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := y*width + x
			if fg[i] && labels[i] < 0 {
				id := len(starts)
				starts = append(starts, image.Point{X: x, Y: y})
				sizes = append(sizes, floodFill(fg, labels, x, y, width, height, id))
			}
		}
	}

	return labels, starts, sizes
}

// floodFill performs iterative flood-fill from a starting point.
//
// Uses a stack-based approach (not recursive) to avoid stack overflow
// on large components. Uses 8-connectivity and returns the number of
// pixels labelled.
func floodFill(fg []bool, labels []int, startX, startY, width, height, id int) int {
	stack := []image.Point{{X: startX, Y: startY}}
	count := 0

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.X < 0 || p.X >= width || p.Y < 0 || p.Y >= height {
			continue
		}
		i := p.Y*width + p.X
		if !fg[i] || labels[i] >= 0 {
			continue
		}

		labels[i] = id
		count++

		for _, d := range neighbours {
			stack = append(stack, p.Add(d))
		}
	}

	return count
}

// outerBackground marks background pixels 4-connected to the image frame.
func outerBackground(fg []bool, width, height int) []bool {
	outside := make([]bool, width*height)
	stack := make([]int, 0, 2*(width+height))

	push := func(x, y int) {
		i := y*width + x
		if !fg[i] && !outside[i] {
			outside[i] = true
			stack = append(stack, i)
		}
	}

	for x := 0; x < width; x++ {
		push(x, 0)
		push(x, height-1)
	}
	for y := 0; y < height; y++ {
		push(0, y)
		push(width-1, y)
	}

	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%width, i/width
		if x > 0 {
			push(x-1, y)
		}
		if x < width-1 {
			push(x+1, y)
		}
		if y > 0 {
			push(x, y-1)
		}
		if y < height-1 {
			push(x, y+1)
		}
	}

	return outside
}

// externalLabels reports, per component label, whether the component
// touches the image frame or the outer background.
func externalLabels(labels []int, outside []bool, count, width, height int) []bool {
	external := make([]bool, count)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			id := labels[y*width+x]
			if id < 0 || external[id] {
				continue
			}
			if x == 0 || y == 0 || x == width-1 || y == height-1 ||
				outside[y*width+x-1] || outside[y*width+x+1] ||
				outside[(y-1)*width+x] || outside[(y+1)*width+x] {
				external[id] = true
			}
		}
	}

	return external
}

// traceBorder walks the outer border of the component containing start,
// which must be the component's first pixel in raster order. maxSteps
// bounds the walk.
func traceBorder(fg []bool, width, height int, start image.Point, maxSteps int) []image.Point {
	isFg := func(p image.Point) bool {
		return p.X >= 0 && p.Y >= 0 && p.X < width && p.Y < height && fg[p.Y*width+p.X]
	}

	// The west neighbour of the start pixel is background, so the sweep
	// begins just after it.
	firstDir := -1
	for k := 1; k <= 8; k++ {
		d := k % 8
		if isFg(start.Add(neighbours[d])) {
			firstDir = d
			break
		}
	}

	border := []image.Point{start}
	if firstDir < 0 {
		return border
	}

	cur := start
	dir := firstDir
	for step := 0; step < maxSteps; step++ {
		cur = cur.Add(neighbours[dir])

		// Sweep clockwise starting just past the pixel we came from. The
		// previous pixel is foreground, so the sweep always succeeds.
		sweep := (dir + 5) % 8
		next := dir
		for k := 0; k < 8; k++ {
			d := (sweep + k) % 8
			if isFg(cur.Add(neighbours[d])) {
				next = d
				break
			}
		}

		if cur == start && next == firstDir {
			break
		}
		border = append(border, cur)
		dir = next
	}

	return border
}

// compressChain drops points in the middle of straight runs of a closed
// chain of 8-connected pixels, keeping only the points where the step
// direction changes.
func compressChain(chain []image.Point) []image.Point {
	n := len(chain)
	if n < 3 {
		return append([]image.Point(nil), chain...)
	}

	out := make([]image.Point, 0, n/2+1)
	for i, p := range chain {
		prev := chain[(i+n-1)%n]
		next := chain[(i+1)%n]
		if p.Sub(prev) != next.Sub(p) {
			out = append(out, p)
		}
	}

	if len(out) == 0 {
		out = append(out, chain[0])
	}
	return out
}

// polygonArea returns the absolute area of a closed polygon.
func polygonArea(pts []image.Point) float64 {
	n := len(pts)
	if n < 3 {
		return 0
	}
	var sum int
	for i, p := range pts {
		q := pts[(i+1)%n]
		sum += p.X*q.Y - q.X*p.Y
	}
	return math.Abs(float64(sum)) / 2
}

// closedArcLength returns the perimeter of a closed polygon.
func closedArcLength(pts []image.Point) float64 {
	n := len(pts)
	if n < 2 {
		return 0
	}
	var length float64
	for i, p := range pts {
		q := pts[(i+1)%n]
		length += math.Hypot(float64(q.X-p.X), float64(q.Y-p.Y))
	}
	return length
}

// boundingBox returns the rectangle covering every point, Max exclusive.
func boundingBox(pts []image.Point) image.Rectangle {
	if len(pts) == 0 {
		return image.Rectangle{}
	}
	r := image.Rectangle{Min: pts[0], Max: pts[0]}
	for _, p := range pts[1:] {
		if p.X < r.Min.X {
			r.Min.X = p.X
		}
		if p.Y < r.Min.Y {
			r.Min.Y = p.Y
		}
		if p.X > r.Max.X {
			r.Max.X = p.X
		}
		if p.Y > r.Max.Y {
			r.Max.Y = p.Y
		}
	}
	r.Max = r.Max.Add(image.Point{X: 1, Y: 1})
	return r
}

// LargestContours returns at most n contours ordered by decreasing area.
// Contours with equal area keep their input order.
func LargestContours(contours []Contour, n int) []Contour {
	sorted := append([]Contour(nil), contours...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Area() > sorted[j].Area()
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
