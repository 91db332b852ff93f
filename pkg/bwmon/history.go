package bwmon

import "github.com/lgxlabs/netglass/pkg/models"

// rateRing is a fixed-capacity ring of rate points. It carries no lock
// of its own; the Monitor's mutex covers every access.
type rateRing struct {
	points []models.InterfaceRate
	head   int // next write position
	count  int
}

func newRateRing(capacity int) *rateRing {
	return &rateRing{
		points: make([]models.InterfaceRate, capacity),
	}
}

// Add appends a point, evicting the oldest once the ring is full.
func (r *rateRing) Add(p models.InterfaceRate) {
	r.points[r.head] = p
	r.head = (r.head + 1) % len(r.points)

	if r.count < len(r.points) {
		r.count++
	}
}

func (r *rateRing) Len() int {
	return r.count
}

// Points returns the retained points ordered oldest to newest.
func (r *rateRing) Points() []models.InterfaceRate {
	out := make([]models.InterfaceRate, r.count)

	start := r.head - r.count
	if start < 0 {
		start += len(r.points)
	}

	for i := 0; i < r.count; i++ {
		out[i] = r.points[(start+i)%len(r.points)]
	}

	return out
}
