package anticheat

import (
	"math"

	"github.com/alexanderramin/vigil/internal/sensor"
)

// boundingBox returns the width and height of the smallest box holding every
// move.
func boundingBox(moves []sensor.PointerMove) (w, h float64) {
	minX, maxX := moves[0].X, moves[0].X
	minY, maxY := moves[0].Y, moves[0].Y
	for _, m := range moves[1:] {
		minX, maxX = math.Min(minX, m.X), math.Max(maxX, m.X)
		minY, maxY = math.Min(minY, m.Y), math.Max(maxY, m.Y)
	}
	return maxX - minX, maxY - minY
}

// regularity scores how evenly spaced the moves are in time: 1 - CV of the
// gaps, clamped to [0, 1]. Fewer than three gaps score 0.
func regularity(moves []sensor.PointerMove) float64 {
	if len(moves) < 4 {
		return 0
	}
	gaps := make([]float64, 0, len(moves)-1)
	for i := 1; i < len(moves); i++ {
		gaps = append(gaps, moves[i].At.Sub(moves[i-1].At).Seconds())
	}
	mean, sd := meanStdev(gaps)
	if mean <= 0 {
		return 0
	}
	return 1 - math.Min(sd/mean, 1)
}

// reversalRate is the share of consecutive non-zero displacements, per
// axis, that flip sign. Axes that do not move are left out.
func reversalRate(moves []sensor.PointerMove) float64 {
	var pairs, flips int
	for _, coord := range []func(sensor.PointerMove) float64{
		func(m sensor.PointerMove) float64 { return m.X },
		func(m sensor.PointerMove) float64 { return m.Y },
	} {
		prev := 0.0
		for i := 1; i < len(moves); i++ {
			d := coord(moves[i]) - coord(moves[i-1])
			if d == 0 {
				continue
			}
			if prev != 0 {
				pairs++
				if (d > 0) != (prev > 0) {
					flips++
				}
			}
			prev = d
		}
	}
	if pairs == 0 {
		return 0
	}
	return float64(flips) / float64(pairs)
}

// meanStdev returns the mean and sample standard deviation of xs.
func meanStdev(xs []float64) (mean, sd float64) {
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	if len(xs) < 2 {
		return mean, 0
	}
	var ss float64
	for _, x := range xs {
		ss += (x - mean) * (x - mean)
	}
	return mean, math.Sqrt(ss / float64(len(xs)-1))
}
