package domain

import "time"

// PlannedCall is one provider invocation with its assigned time budget.
type PlannedCall struct {
	Provider string        `json:"provider"`
	Kind     ProviderKind  `json:"kind"`
	Budget   time.Duration `json:"budget"`
}

// ExecutionPlan is the pure output of the strategy selector: the same
// query and registry state always yield the same plan.
type ExecutionPlan struct {
	Calls    []PlannedCall `json:"calls"`
	Parallel bool          `json:"parallel"`
}

func (p ExecutionPlan) ProviderNames() []string {
	names := make([]string, 0, len(p.Calls))
	for _, call := range p.Calls {
		names = append(names, call.Provider)
	}
	return names
}
