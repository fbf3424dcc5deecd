package vectors

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestVec3Arithmetic(t *testing.T) {
	a := Vec3{1, 2, 3}
	b := Vec3{4, -5, 6}

	cases := []struct {
		name string
		got  Vec3
		want Vec3
	}{
		{"add", a.Add(b), Vec3{5, -3, 9}},
		{"sub", a.Sub(b), Vec3{-3, 7, -3}},
		{"scale", a.Scale(2), Vec3{2, 4, 6}},
		{"div", b.Div(2), Vec3{2, -2.5, 3}},
		{"neg", a.Neg(), Vec3{-1, -2, -3}},
		{"cross", Vec3{1, 0, 0}.Cross(Vec3{0, 1, 0}), Vec3{0, 0, 1}},
		{"normalize", Vec3{0, 3, 4}.Normalize(), Vec3{0, 0.6, 0.8}},
		{"normalize zero", Zero().Normalize(), Vec3{}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if diff := cmp.Diff(c.want, c.got, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}

	if got := a.Dot(b); got != 12 {
		t.Errorf("Dot = %v, want 12", got)
	}
	if got := (Vec3{0, 3, 4}).Norm(); got != 5 {
		t.Errorf("Norm = %v, want 5", got)
	}
	if got := Distance(Vec3{1, 1, 1}, Vec3{1, 1, -1}); got != 2 {
		t.Errorf("Distance = %v, want 2", got)
	}
}

func TestVec3IsFinite(t *testing.T) {
	if !(Vec3{1, 2, 3}).IsFinite() {
		t.Error("finite vector reported as non-finite")
	}
	if (Vec3{math.NaN(), 0, 0}).IsFinite() {
		t.Error("NaN vector reported as finite")
	}
	if (Vec3{0, math.Inf(-1), 0}).IsFinite() {
		t.Error("Inf vector reported as finite")
	}
}

func TestRayAt(t *testing.T) {
	r := NewRay(Vec3{1, 0, 0}, Vec3{0, 2, 0})
	if got, want := r.At(1.5), (Vec3{1, 3, 0}); got != want {
		t.Errorf("At(1.5) = %v, want %v", got, want)
	}
}

func TestIntervalBounds(t *testing.T) {
	i := NewInterval(0.001, math.Inf(1))

	if i.Surrounds(0.001) {
		t.Error("Surrounds must exclude the lower bound")
	}
	if !i.Contains(0.001) {
		t.Error("Contains must include the lower bound")
	}
	if !i.Surrounds(1) {
		t.Error("Surrounds(1) = false")
	}
	if Empty.Contains(0) || !Universe.Surrounds(1e300) {
		t.Error("Empty/Universe have wrong extent")
	}
	if got := NewInterval(0, 0.999).Clamp(1.5); got != 0.999 {
		t.Errorf("Clamp = %v, want 0.999", got)
	}
	if got := NewInterval(1, 2).Expand(1); got != (Interval{0.5, 2.5}) {
		t.Errorf("Expand = %v", got)
	}
}

func TestAABBFromCorners(t *testing.T) {
	box := NewAABB(Vec3{1, -1, 3}, Vec3{-1, 1, 2})
	want := AABB{
		X: Interval{-1, 1},
		Y: Interval{-1, 1},
		Z: Interval{2, 3},
	}
	if diff := cmp.Diff(want, box); diff != "" {
		t.Errorf("NewAABB mismatch (-want +got):\n%s", diff)
	}
	if box.Axis(2) != box.Z || box.Axis(0) != box.X {
		t.Error("Axis returned the wrong interval")
	}

	u := EmptyAABB().Union(box)
	if diff := cmp.Diff(box, u); diff != "" {
		t.Errorf("Union with empty mismatch (-want +got):\n%s", diff)
	}
}

func TestRandomOnHemisphere(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	normal := Vec3{0.3, -0.2, 0.9}.Normalize()

	for range 10000 {
		v := RandomOnHemisphere(rng, normal)
		if math.Abs(v.Norm()-1) > 1e-9 {
			t.Fatalf("direction %v is not unit length", v)
		}
		if v.Dot(normal) < 0 {
			t.Fatalf("direction %v points away from normal %v", v, normal)
		}
	}
}
