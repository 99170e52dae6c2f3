package optimizer

// Var is a handle to one solver column. The zero value is a dead handle that
// always resolves to 0, which is how disabled assets expose their series.
type Var struct {
	col  int
	live bool
}

// Live reports whether the handle is backed by a solver column.
func (v Var) Live() bool { return v.live }

// Index returns the solver column index, or false for a dead handle.
func (v Var) Index() (int, bool) { return v.col, v.live }

// Status is the outcome of a solve, reduced to what the pipeline acts on.
type Status int

const (
	// StatusNotSolved means the solver terminated without a usable solution.
	StatusNotSolved Status = iota
	// StatusOptimal means optimality was proven.
	StatusOptimal
	// StatusFeasible means an incumbent was found but optimality was not
	// proven within the time budget.
	StatusFeasible
	// StatusInfeasible means no assignment satisfies the constraints.
	StatusInfeasible
	// StatusUnbounded means the objective is unbounded.
	StatusUnbounded
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusFeasible:
		return "feasible"
	case StatusInfeasible:
		return "infeasible"
	case StatusUnbounded:
		return "unbounded"
	default:
		return "not-solved"
	}
}

// Usable reports whether the solution values may be read.
func (s Status) Usable() bool { return s == StatusOptimal || s == StatusFeasible }

// Solution maps every decision variable to its resolved value. Immutable once
// produced.
type Solution struct {
	Status    Status
	Objective float64

	values []float64
}

// NewSolution builds a Solution from raw column values. Used by the solver and
// by tests that assemble assignments by hand.
func NewSolution(status Status, objective float64, values []float64) *Solution {
	return &Solution{Status: status, Objective: objective, values: values}
}

// Value resolves a variable handle. Dead handles resolve to 0.
func (s *Solution) Value(v Var) float64 {
	if !v.live || v.col >= len(s.values) {
		return 0
	}
	return s.values[v.col]
}

// Series resolves a slice of handles in order.
func (s *Solution) Series(vars []Var) []float64 {
	out := make([]float64, len(vars))
	for i, v := range vars {
		out[i] = s.Value(v)
	}
	return out
}

// On interprets a binary variable's relaxed value.
func (s *Solution) On(v Var) bool { return s.Value(v) > 0.5 }
