package lookup

import (
	"context"
)

// pipeline carries one address-based lookup through its stages.
type pipeline struct {
	op      string
	address string
	radius  float64
	filter  Filter
	keyword string

	resolved ResolvedLocation
	records  []Record
}

// stage is one step of a pipeline. A non-nil error stops the pipeline.
type stage func(ctx context.Context, st *pipeline) error

// run executes stages in order and stops at the first failure.
func (s *Service) run(ctx context.Context, st *pipeline, stages ...stage) error {
	for _, next := range stages {
		if err := ctx.Err(); err != nil {
			return upstreamError(st.op, err)
		}
		if err := next(ctx, st); err != nil {
			return err
		}
	}
	return nil
}

// resolveStage geocodes st.address into st.resolved.
func (s *Service) resolveStage(ctx context.Context, st *pipeline) error {
	resolved, err := s.geocode(ctx, st.op, st.address)
	if err != nil {
		return err
	}
	st.resolved = resolved
	return nil
}

// nearbyStage searches around st.resolved into st.records.
func (s *Service) nearbyStage(ctx context.Context, st *pipeline) error {
	records, err := s.nearby(ctx, st.op, st.resolved.Location, st.radius, st.filter, st.keyword)
	if err != nil {
		return err
	}
	st.records = records
	return nil
}
