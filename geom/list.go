package geom

import "github.com/echoflaresat/pinhole/vectors"

// List presents a collection of hittables as one: Hit reports the nearest
// hit across all members.
type List struct {
	Objects []Hittable
	bbox    vectors.AABB
}

func NewList(objects ...Hittable) *List {
	l := &List{bbox: vectors.EmptyAABB()}
	for _, o := range objects {
		l.Add(o)
	}
	return l
}

func (l *List) Add(o Hittable) {
	if len(l.Objects) == 0 {
		l.bbox = vectors.EmptyAABB()
	}
	l.Objects = append(l.Objects, o)
	l.bbox = l.bbox.Union(o.BoundingBox())
}

func (l *List) Clear() {
	l.Objects = nil
	l.bbox = vectors.EmptyAABB()
}

func (l *List) Len() int {
	return len(l.Objects)
}

func (l *List) Hit(r vectors.Ray, rayT vectors.Interval, rec *HitRecord) bool {
	var tmp HitRecord
	hitAnything := false
	closest := rayT.Max

	for _, o := range l.Objects {
		if o.Hit(r, vectors.Interval{Min: rayT.Min, Max: closest}, &tmp) {
			hitAnything = true
			closest = tmp.T
			*rec = tmp
		}
	}
	return hitAnything
}

func (l *List) BoundingBox() vectors.AABB {
	return l.bbox
}
