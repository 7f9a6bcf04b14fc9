package classify

import "math"

// jenks computes the natural breaks of the sorted data using the
// Jenks/Fisher dynamic program that minimizes the within class variance.
// Requires len(sorted) >= count and at least two distinct values.
func jenks(sorted []float64, count int) []float64 {
	n := len(sorted)

	// lower[l][j] is the index (1 based) of the first value in the last
	// class when the first l values are split into j classes.
	lower := make([][]int, n+1)
	variance := make([][]float64, n+1)
	for i := range lower {
		lower[i] = make([]int, count+1)
		variance[i] = make([]float64, count+1)
	}

	for j := 1; j <= count; j++ {
		lower[1][j] = 1
		for l := 2; l <= n; l++ {
			variance[l][j] = math.Inf(1)
		}
	}

	for l := 2; l <= n; l++ {
		var sum, sumSquares, w, v float64
		for m := 1; m <= l; m++ {
			i3 := l - m + 1
			val := sorted[i3-1]

			sumSquares += val * val
			sum += val
			w++
			v = sumSquares - (sum*sum)/w

			i4 := i3 - 1
			if i4 == 0 {
				continue
			}

			for j := 2; j <= count; j++ {
				if variance[l][j] >= v+variance[i4][j-1] {
					lower[l][j] = i3
					variance[l][j] = v + variance[i4][j-1]
				}
			}
		}

		lower[l][1] = 1
		variance[l][1] = v
	}

	breaks := make([]float64, count+1)
	breaks[0] = sorted[0]
	breaks[count] = sorted[n-1]

	k := n
	for j := count; j >= 2; j-- {
		id := lower[k][j] - 2
		if id < 0 {
			id = 0
		}

		breaks[j-1] = sorted[id]
		k = lower[k][j] - 1
		if k < 1 {
			k = 1
		}
	}

	return breaks
}
