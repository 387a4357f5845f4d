package workspace

import (
	"context"
	"runtime"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/canvas-infra/patterns/internal/pattern"
)

// BatchMode selects how a batch is deployed.
type BatchMode string

const (
	BatchSequential BatchMode = "sequential"
	BatchParallel   BatchMode = "parallel"
)

// ParallelLimitation is attached to every parallel batch result.
const ParallelLimitation = "parallel batch: conflicts between patterns of the same batch are not detected; " +
	"each pattern is checked only against the workspace as it was before the batch"

// BatchOptions controls DeployBatch.
type BatchOptions struct {
	Mode BatchMode `json:"mode"`
	// Snapshot restores the workspace to its pre-batch state on the first
	// failure of a sequential batch.
	Snapshot bool `json:"snapshot"`
	// MaxParallel bounds concurrent deployments in parallel mode (0 = NumCPU).
	MaxParallel int           `json:"maxParallel"`
	Deploy      DeployOptions `json:"deploy"`
}

// BatchResult is the outcome of DeployBatch.
type BatchResult struct {
	ID         string             `json:"id"`
	Mode       BatchMode          `json:"mode"`
	Success    bool               `json:"success"`
	Results    []DeploymentResult `json:"results"`
	RolledBack bool               `json:"rolledBack"`
	// Skipped lists pattern ids that were never deployed.
	Skipped  []string `json:"skipped,omitempty"`
	Warnings []string `json:"warnings"`
}

// DeployBatch deploys several patterns into state. Sequential batches see
// the mutations of earlier patterns; parallel batches do not.
func (d *Deployer) DeployBatch(ctx context.Context, patterns []*pattern.Pattern, state *State, opts BatchOptions) BatchResult {
	out := BatchResult{
		ID:       uuid.NewString(),
		Mode:     opts.Mode,
		Success:  true,
		Results:  []DeploymentResult{},
		Warnings: []string{},
	}
	if out.Mode == "" {
		out.Mode = BatchSequential
	}
	if state == nil {
		out.Success = false
		out.Warnings = append(out.Warnings, "workspace state is nil")
		return out
	}

	if out.Mode == BatchParallel {
		d.deployParallel(ctx, patterns, state, opts, &out)
	} else {
		d.deploySequential(ctx, patterns, state, opts, &out)
	}
	d.log.Info("batch deployed", "batch_id", out.ID, "mode", out.Mode, "patterns", len(patterns),
		"success", out.Success, "rolled_back", out.RolledBack)
	return out
}

func (d *Deployer) deploySequential(ctx context.Context, patterns []*pattern.Pattern, state *State, opts BatchOptions, out *BatchResult) {
	var snapshot *State
	if opts.Snapshot {
		snapshot = state.Clone()
	}
	for i, p := range patterns {
		if ctx.Err() != nil {
			out.Success = false
			out.Skipped = append(out.Skipped, patternIDs(patterns[i:])...)
			out.Warnings = append(out.Warnings, "batch cancelled: "+ctx.Err().Error())
			return
		}
		r := d.Deploy(p, state, opts.Deploy)
		out.Results = append(out.Results, r)
		if r.Success {
			continue
		}
		out.Success = false
		if snapshot != nil {
			state.Restore(snapshot)
			out.RolledBack = true
			out.Skipped = append(out.Skipped, patternIDs(patterns[i+1:])...)
			out.Warnings = append(out.Warnings, "batch rolled back after "+r.PatternID+" failed")
			return
		}
	}
}

func (d *Deployer) deployParallel(ctx context.Context, patterns []*pattern.Pattern, state *State, opts BatchOptions, out *BatchResult) {
	out.Warnings = append(out.Warnings, ParallelLimitation)

	limit := opts.MaxParallel
	if limit <= 0 {
		limit = runtime.NumCPU()
	}
	snapshot := state.Clone()
	results := make([]DeploymentResult, len(patterns))
	started := make([]bool, len(patterns))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, p := range patterns {
		if gctx.Err() != nil {
			break
		}
		started[i] = true
		i, p := i, p
		g.Go(func() error {
			r, cs := d.plan(p, snapshot, opts.Deploy)
			if r.Success {
				mu.Lock()
				state.apply(cs.components, cs.connections)
				mu.Unlock()
			}
			results[i] = r
			return nil
		})
	}
	_ = g.Wait()

	for i, r := range results {
		if !started[i] {
			out.Success = false
			out.Skipped = append(out.Skipped, patternIDs(patterns[i:i+1])...)
			continue
		}
		out.Results = append(out.Results, r)
		if !r.Success {
			out.Success = false
		}
	}
	if len(out.Skipped) > 0 {
		out.Warnings = append(out.Warnings, "batch cancelled before every pattern was started")
	}
}

func patternIDs(patterns []*pattern.Pattern) []string {
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if p != nil {
			out = append(out, p.ID)
		}
	}
	return out
}
