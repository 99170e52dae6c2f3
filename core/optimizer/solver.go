package optimizer

import (
	"context"
	"fmt"

	"github.com/bartolsthoorn/gohighs/highs"
)

// InfeasibleError is returned when the solver proves the model infeasible or
// unbounded, or terminates without any usable solution. The run must abort
// before reporting.
type InfeasibleError struct {
	Status Status
	Detail string
}

func (e *InfeasibleError) Error() string {
	return fmt.Sprintf("model %s (%s): loosen the coverage target or raise source capacities", e.Status, e.Detail)
}

// Solve runs the MILP under the configured time budget. A time-limited solve
// that still carries an incumbent returns StatusFeasible rather than an error.
// Cancelling the context abandons the run; the solver's eventual result is
// discarded.
func (m *Model) Solve(ctx context.Context) (*Solution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	opts := []highs.SolveOption{highs.WithOutput(false)}
	if m.settings.TimeLimitSeconds > 0 {
		opts = append(opts, highs.WithTimeLimit(m.settings.TimeLimitSeconds))
	}
	if m.settings.MIPRelGap > 0 {
		opts = append(opts, highs.WithMIPRelGap(m.settings.MIPRelGap))
	}

	type outcome struct {
		sol *highs.Solution
		err error
	}
	ch := make(chan outcome, 1)
	go func() {
		sol, err := m.mip.Solve(opts...)
		ch <- outcome{sol: sol, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case o := <-ch:
		if o.err != nil {
			return nil, fmt.Errorf("solver: %w", o.err)
		}
		return interpret(o.sol)
	}
}

func interpret(sol *highs.Solution) (*Solution, error) {
	switch {
	case sol.IsOptimal():
		return NewSolution(StatusOptimal, sol.Objective, sol.ColValues), nil
	case sol.IsTimeLimit() && sol.HasSolution():
		return NewSolution(StatusFeasible, sol.Objective, sol.ColValues), nil
	case sol.IsInfeasible():
		return nil, &InfeasibleError{Status: StatusInfeasible, Detail: sol.Status.String()}
	case sol.IsUnbounded():
		return nil, &InfeasibleError{Status: StatusUnbounded, Detail: sol.Status.String()}
	default:
		return nil, &InfeasibleError{Status: StatusNotSolved, Detail: sol.Status.String()}
	}
}
