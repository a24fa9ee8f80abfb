package grid

import "testing"

func TestDescriptorIndexOf(t *testing.T) {
	desc, err := newDescriptor(BBox{XMax: 1, YMax: 1, ZMax: 1}, 4)
	if err != nil {
		t.Fatalf("newDescriptor: %v", err)
	}

	tests := []struct {
		name string
		p    Point
		want int
	}{
		{"origin corner", Vec3{0.1, 0.1, 0.1}, 0},
		{"S3: clamps negative x", Vec3{-5, 0.5, 0.5}, 2*16 + 2*4 + 0},
		{"center of cell (1,1,1)", Vec3{0.3, 0.3, 0.3}, 1*16 + 1*4 + 1},
		{"far outside clamps to last cell", Vec3{100, 100, 100}, 3*16 + 3*4 + 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := desc.indexOf(tt.p)
			if got != tt.want {
				t.Errorf("indexOf(%v) = %d, want %d", tt.p, got, tt.want)
			}
		})
	}
}

func TestDescriptorDecomposeRoundTrip(t *testing.T) {
	desc, err := newDescriptor(BBox{XMax: 2, YMax: 2, ZMax: 2}, 5)
	if err != nil {
		t.Fatalf("newDescriptor: %v", err)
	}

	for cell := 0; cell < desc.total; cell++ {
		ix, iy, iz := desc.decompose(cell)
		if got := desc.flatIndex(ix, iy, iz); got != cell {
			t.Errorf("flatIndex(decompose(%d)) = %d, want %d", cell, got, cell)
		}
	}
}

func TestNewDescriptorValidation(t *testing.T) {
	if _, err := newDescriptor(BBox{XMax: 1, YMax: 1, ZMax: 1}, 0); err == nil {
		t.Error("expected error for n=0")
	}
	if _, err := newDescriptor(BBox{XMin: 1, XMax: 1, YMax: 1, ZMax: 1}, 4); err == nil {
		t.Error("expected error for degenerate x axis")
	}
}

func TestClampAxis(t *testing.T) {
	cases := []struct {
		idx, n, want int
	}{
		{-1, 4, 0},
		{0, 4, 0},
		{3, 4, 3},
		{4, 4, 3},
		{100, 4, 3},
	}
	for _, c := range cases {
		if got := clampAxis(c.idx, c.n); got != c.want {
			t.Errorf("clampAxis(%d, %d) = %d, want %d", c.idx, c.n, got, c.want)
		}
	}
}
