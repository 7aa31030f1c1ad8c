package solver

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// errLPTooLarge is returned when the dense relaxation would exceed the
// configured cell budget.
var errLPTooLarge = errors.New("lp relaxation exceeds size limit")

type simplexFunc func(c []float64, A mat.Matrix, b []float64, tol float64, initialBasic []int) (float64, []float64, error)

// lpSimplex points to the function used to solve the relaxation. It can be
// overridden in tests to simulate solver failures.
var lpSimplex simplexFunc = lp.Simplex

// lpRelaxationBound solves the continuous relaxation 0 ≤ x and returns its
// optimum, an upper bound on the integer objective. Upper bounds x ≤ 1 are
// implied by the exactly-one groups, so only the inequality rows receive a
// slack column:
//
//	[ C  I ] [x]   [limits]
//	[ E  I ] [s] = [  1   ]
//	[ G  0 ]       [  1   ]
func lpRelaxationBound(p Problem, maxCells int, simplex simplexFunc) (bound float64, err error) {
	n := p.NumVars()
	ineq := len(p.Capacities) + len(p.Exclusions)
	rows := ineq + len(p.Groups)
	cols := n + ineq
	if n == 0 || rows == 0 {
		return 0, nil
	}
	if maxCells <= 0 || rows*cols > maxCells {
		return 0, errLPTooLarge
	}

	A := mat.NewDense(rows, cols, nil)
	b := make([]float64, rows)
	c := make([]float64, cols)
	for v, w := range p.Weights {
		c[v] = -float64(w)
	}
	r := 0
	for _, cp := range p.Capacities {
		for _, v := range cp.Vars {
			A.Set(r, v, A.At(r, v)+1)
		}
		A.Set(r, n+r, 1)
		b[r] = float64(cp.Limit)
		r++
	}
	for _, e := range p.Exclusions {
		A.Set(r, e[0], 1)
		A.Set(r, e[1], 1)
		A.Set(r, n+r, 1)
		b[r] = 1
		r++
	}
	for _, g := range p.Groups {
		for _, v := range g {
			A.Set(r, v, 1)
		}
		b[r] = 1
		r++
	}

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("simplex panic: %v", rec)
		}
	}()
	optF, _, err := simplex(c, A, b, 1e-9, nil)
	if err != nil {
		return 0, err
	}
	return -optF, nil
}
