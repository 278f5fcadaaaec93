package vm

import "context"

// ---------------------------------------------------------------------------
// Convenience runners
// ---------------------------------------------------------------------------

// TraceResult is the outcome of a fully collected traced run.
type TraceResult struct {
	Steps  []*Snapshot
	Output string
	Err    error
}

// Trace runs p with preset input and collects every snapshot.
func Trace(ctx context.Context, p *Program, input []string, limits Limits) *TraceResult {
	res := &TraceResult{}
	bio := NewBufferIO(input)
	m := NewMachine(p, Options{
		Limits: limits,
		IO:     bio,
		OnStep: func(s *Snapshot) error {
			res.Steps = append(res.Steps, s)
			return nil
		},
	})
	res.Err = m.Run(ctx)
	res.Output = bio.Output()
	return res
}

// RunBatch runs p without tracing and returns its standard output. This
// is what an external judge needs.
func RunBatch(ctx context.Context, p *Program, input []string, limits Limits) (string, error) {
	bio := NewBufferIO(input)
	m := NewMachine(p, Options{Limits: limits, IO: bio})
	err := m.Run(ctx)
	return bio.Output(), err
}
