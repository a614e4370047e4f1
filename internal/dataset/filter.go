package dataset

import "salesview/pkg/contracts/domain"

// Filter returns the subset of records matching the spec. Row order is
// preserved, the input table is untouched, and an empty result is a normal
// reportable condition rather than a failure.
func Filter(ct *CleanTable, spec domain.FilterSpec) *CleanTable {
	out := &CleanTable{columns: ct.columns}
	for _, r := range ct.Records {
		if spec.Matches(r) {
			out.Records = append(out.Records, r)
		}
	}
	return out
}
