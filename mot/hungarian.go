package mot

import "math"

// hungarianAssign solves rectangular min-cost assignment for numRows x numCols matrix of costs
// with Kuhn-Munkres using potentials (Jonker-Volgenant variant), O(n^3) with n = max(numRows, numCols).
// It returns assignment[i] = column assigned to row i, or -1 when row i is left unassigned.
// Exactly min(numRows, numCols) rows get a column and the total cost of those pairs is minimal.
func hungarianAssign(costs [][]float64, numRows, numCols int) []int {
	assignment := make([]int, numRows)
	for i := range assignment {
		assignment[i] = -1
	}
	if numRows == 0 || numCols == 0 {
		return assignment
	}

	// Pad to square with zero costs: dummy rows or columns absorb the surplus without changing the optimum
	dim := maxInt(numRows, numCols)
	c := make([][]float64, dim)
	for i := 0; i < dim; i++ {
		c[i] = make([]float64, dim)
		if i >= numRows {
			continue
		}
		copy(c[i], costs[i][:numCols])
	}

	inf := math.Inf(1)
	// 1-indexed; index 0 is the virtual column
	u := make([]float64, dim+1)
	v := make([]float64, dim+1)
	p := make([]int, dim+1)
	way := make([]int, dim+1)
	minv := make([]float64, dim+1)
	used := make([]bool, dim+1)

	for i := 1; i <= dim; i++ {
		p[0] = i
		j0 := 0
		for j := 1; j <= dim; j++ {
			minv[j] = inf
			used[j] = false
		}
		used[0] = false
		for {
			used[j0] = true
			i0 := p[j0]
			delta := inf
			j1 := 0
			for j := 1; j <= dim; j++ {
				if used[j] {
					continue
				}
				cur := c[i0-1][j-1] - u[i0] - v[j]
				if cur < minv[j] {
					minv[j] = cur
					way[j] = j0
				}
				if minv[j] < delta {
					delta = minv[j]
					j1 = j
				}
			}
			for j := 0; j <= dim; j++ {
				if used[j] {
					u[p[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}
			j0 = j1
			if p[j0] == 0 {
				break
			}
		}
		// Augment along the path
		for j0 != 0 {
			j1 := way[j0]
			p[j0] = p[j1]
			j0 = j1
		}
	}

	for j := 1; j <= dim; j++ {
		row, col := p[j]-1, j-1
		if row < numRows && col < numCols {
			assignment[row] = col
		}
	}
	return assignment
}
