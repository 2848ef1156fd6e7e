package routing

// NearestNeighbor builds an open path starting at index 0 that always moves
// to the closest unvisited point. Candidates are scanned in ascending index
// order and only a strictly shorter distance replaces the current best, so on
// exact ties the lowest index wins.
func NearestNeighbor(dist [][]float64) []int {
	n := len(dist)
	if n == 0 {
		return nil
	}

	visited := make([]bool, n)
	tour := make([]int, 0, n)
	current := 0
	visited[current] = true
	tour = append(tour, current)

	for len(tour) < n {
		next := -1
		bestDist := 0.0
		for j := 0; j < n; j++ {
			if visited[j] {
				continue
			}
			if next < 0 || dist[current][j] < bestDist {
				next = j
				bestDist = dist[current][j]
			}
		}
		visited[next] = true
		tour = append(tour, next)
		current = next
	}

	return tour
}

// TwoOpt improves an open path by reversing tour[i..k] for 1 <= i < k <= n-2
// whenever that shortens the path by more than epsilonKm. The first element
// never moves. Passes repeat until one finds no improving move or maxPasses
// passes have run. It returns the refined tour and the number of passes made.
func TwoOpt(dist [][]float64, tour []int, maxPasses int, epsilonKm float64) ([]int, int) {
	best := append([]int(nil), tour...)
	n := len(best)
	if n < 4 {
		return best, 0
	}

	passes := 0
	for passes < maxPasses {
		passes++
		improved := false

		for i := 1; i < n-2; i++ {
			for k := i + 1; k <= n-2; k++ {
				// Current edges: a->b and c->d. After reversal: a->c and b->d
				a, b := best[i-1], best[i]
				c, d := best[k], best[k+1]

				delta := dist[a][c] + dist[b][d] - dist[a][b] - dist[c][d]
				if delta < -epsilonKm {
					reverse(best, i, k)
					improved = true
				}
			}
		}

		if !improved {
			break
		}
	}

	return best, passes
}

func reverse(tour []int, i, j int) {
	for i < j {
		tour[i], tour[j] = tour[j], tour[i]
		i++
		j--
	}
}
