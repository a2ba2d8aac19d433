package updater

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// maxParallelChecks bounds how many installations CheckAll resolves at once.
const maxParallelChecks = 4

// NamedOptions pairs check options with a label such as a profile name.
type NamedOptions struct {
	Name    string
	Options Options
}

type NamedResult struct {
	Name   string
	Result *CheckResult
	Err    error
}

// CheckAll runs Check for several installations concurrently. A failing
// installation does not stop the others; its error is reported in its result.
// Results are returned in input order.
func CheckAll(ctx context.Context, all []NamedOptions) []NamedResult {
	results := make([]NamedResult, len(all))

	var g errgroup.Group
	g.SetLimit(maxParallelChecks)
	for i, n := range all {
		g.Go(func() error {
			res, err := Check(ctx, n.Options)
			results[i] = NamedResult{Name: n.Name, Result: res, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}
