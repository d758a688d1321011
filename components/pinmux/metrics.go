package pinmux

import (
	"context"

	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

const (
	resultApplied    = "applied"
	resultOutOfRange = "out_of_range"
	resultUnresolved = "unresolved"
	resultApplyError = "apply_failed"
)

var (
	deviceKey = tag.MustNewKey("device")
	resultKey = tag.MustNewKey("result")

	stateRequests = stats.Int64("pinmux/state_requests", "state change requests by outcome", stats.UnitDimensionless)

	// StateRequestsView counts state change requests per device and outcome.
	StateRequestsView = &view.View{
		Name:        "pinmux/state_requests",
		Description: "state change requests by device and outcome",
		Measure:     stateRequests,
		TagKeys:     []tag.Key{deviceKey, resultKey},
		Aggregation: view.Count(),
	}
)

// RegisterViews registers the opencensus views for state change requests.
func RegisterViews() error {
	return view.Register(StateRequestsView)
}

func recordRequest(ctx context.Context, device, result string) {
	//nolint:errcheck
	stats.RecordWithTags(ctx, []tag.Mutator{
		tag.Upsert(deviceKey, device),
		tag.Upsert(resultKey, result),
	}, stateRequests.M(1))
}
