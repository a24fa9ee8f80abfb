package grid

import "fmt"

// Point is any value that exposes its coordinates as three float64
// accessors. Callers can pass their own point type as long as it
// satisfies this interface.
type Point interface {
	X() float64
	Y() float64
	Z() float64
}

// Vec3 is a minimal concrete Point implementation.
type Vec3 struct {
	X_, Y_, Z_ float64
}

func (v Vec3) X() float64 { return v.X_ }
func (v Vec3) Y() float64 { return v.Y_ }
func (v Vec3) Z() float64 { return v.Z_ }

// BBox is an axis-aligned bounding box. XMax must be strictly greater
// than XMin (likewise Y and Z).
type BBox struct {
	XMin, XMax float64
	YMin, YMax float64
	ZMin, ZMax float64
}

func (b BBox) validate() error {
	if !(b.XMax > b.XMin) {
		return fmt.Errorf("grid: invalid bbox: xmax (%v) must be > xmin (%v)", b.XMax, b.XMin)
	}
	if !(b.YMax > b.YMin) {
		return fmt.Errorf("grid: invalid bbox: ymax (%v) must be > ymin (%v)", b.YMax, b.YMin)
	}
	if !(b.ZMax > b.ZMin) {
		return fmt.Errorf("grid: invalid bbox: zmax (%v) must be > zmin (%v)", b.ZMax, b.ZMin)
	}
	return nil
}

// descriptor is the immutable grid geometry: axis count, flat cell
// count, bounding box origin, and precomputed per-axis inverse cell
// size.
type descriptor struct {
	n       int
	total   int
	originX float64
	originY float64
	originZ float64
	scaleX  float64
	scaleY  float64
	scaleZ  float64
}

func newDescriptor(bbox BBox, n int) (descriptor, error) {
	if n < 1 {
		return descriptor{}, fmt.Errorf("grid: n must be >= 1, got %d", n)
	}
	if err := bbox.validate(); err != nil {
		return descriptor{}, err
	}

	nf := float64(n)
	return descriptor{
		n:       n,
		total:   n * n * n,
		originX: bbox.XMin,
		originY: bbox.YMin,
		originZ: bbox.ZMin,
		scaleX:  nf / (bbox.XMax - bbox.XMin),
		scaleY:  nf / (bbox.YMax - bbox.YMin),
		scaleZ:  nf / (bbox.ZMax - bbox.ZMin),
	}, nil
}

// clampAxis maps a raw (possibly out-of-range or negative) axis index
// into [0, n-1] using branch-based min/max, matching the reference
// behavior exactly instead of using a generic clamp helper (negative
// floor results must clamp to 0, not wrap).
func clampAxis(idx, n int) int {
	if idx < 0 {
		return 0
	}
	if idx >= n {
		return n - 1
	}
	return idx
}

// coordsOf computes clamped (ix, iy, iz) grid coordinates for a point.
func (d descriptor) coordsOf(p Point) (ix, iy, iz int) {
	ix = clampAxis(int((p.X()-d.originX)*d.scaleX), d.n)
	iy = clampAxis(int((p.Y()-d.originY)*d.scaleY), d.n)
	iz = clampAxis(int((p.Z()-d.originZ)*d.scaleZ), d.n)
	return
}

// indexOf returns the flat cell index for a point.
func (d descriptor) indexOf(p Point) int {
	ix, iy, iz := d.coordsOf(p)
	return d.flatIndex(ix, iy, iz)
}

// flatIndex encodes grid coordinates as iz*n^2 + iy*n + ix.
func (d descriptor) flatIndex(ix, iy, iz int) int {
	return iz*d.n*d.n + iy*d.n + ix
}

// decompose is the inverse of flatIndex.
func (d descriptor) decompose(cell int) (ix, iy, iz int) {
	iz = cell / (d.n * d.n)
	cell -= iz * d.n * d.n
	iy = cell / d.n
	cell -= iy * d.n
	ix = cell
	return
}
