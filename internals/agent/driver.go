// Package agent drives the bounded conversation that realizes one
// configuration document: it briefs the reasoning service, executes the tool
// calls it requests, and extracts the structured outcome from each reply.
package agent

import (
	"context"
	"errors"
	"log/slog"

	"github.com/reifyhq/reify/internals/llm"
	"github.com/reifyhq/reify/internals/registry"
)

// ErrMaxIterations is returned when the conversation hits the iteration cap
// without the reasoning service declaring the run finished. The last parsed
// outcome is still returned alongside it so partial results survive.
var ErrMaxIterations = errors.New("maximum iterations reached")

// StatusCompleted in a not-done outcome marks a deliberate early stop after a
// critical failure: the run is over and the accumulated results stand.
const StatusCompleted = "completed"

// ProgressFunc receives the parsed outcome after every iteration.
type ProgressFunc func(iteration int, outcome Outcome)

// Driver owns one conversation loop per Run call. It is safe for concurrent
// use; all per-run state lives on the stack.
type Driver struct {
	client        llm.Client
	registry      *registry.Registry
	maxIterations int
	logger        *slog.Logger
}

func NewDriver(client llm.Client, reg *registry.Registry, maxIterations int, logger *slog.Logger) *Driver {
	if maxIterations <= 0 {
		maxIterations = 30
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{
		client:        client,
		registry:      reg,
		maxIterations: maxIterations,
		logger:        logger,
	}
}

// Run realizes one document against the given snapshot of the existing
// configuration.
//
// Each iteration is one model call; when that call requests tool invocations
// they are executed in order and one continuation call is issued within the
// same iteration, so the iteration cap bounds reasoning rounds rather than
// raw API calls. Invocations requested by a continuation carry over and are
// executed at the top of the next iteration, keeping every call paired with
// its result in the history.
//
// A non-nil error means the run did not reach a model-declared terminal state
// (transport failure or the iteration cap). On ErrMaxIterations the returned
// outcome carries whatever results accumulated before the cap.
func (d *Driver) Run(ctx context.Context, rc registry.ReqContext, config map[string]any, snapshot map[string]any, progress ProgressFunc) (Outcome, error) {
	input, err := BuildInitialInput(config, snapshot)
	if err != nil {
		return Outcome{Status: "failed"}, err
	}
	tools := d.toolSpecs()
	logger := d.logger.With("task_id", rc.TaskID)

	history := []llm.Item{llm.UserItem(input)}
	var pending []llm.ToolCall
	var last Outcome

	for iteration := 1; iteration <= d.maxIterations; iteration++ {
		var turn *llm.Turn
		if iteration == 1 {
			turn, err = d.client.Start(ctx, input, tools, systemInstructions)
		} else {
			if len(pending) > 0 {
				history = append(history, executeCalls(ctx, d.registry, rc, pending, logger)...)
				pending = nil
			}
			turn, err = d.client.Continue(ctx, history, tools, systemInstructions)
		}
		if err != nil {
			last.Iterations = iteration
			return last, err
		}
		history = append(history, turn.Items...)

		if len(turn.Calls) > 0 {
			logger.Info("executing tool calls", "iteration", iteration, "calls", len(turn.Calls))
			history = append(history, executeCalls(ctx, d.registry, rc, turn.Calls, logger)...)

			turn, err = d.client.Continue(ctx, history, tools, systemInstructions)
			if err != nil {
				last.Iterations = iteration
				return last, err
			}
			history = append(history, turn.Items...)
			pending = turn.Calls
		}

		outcome := ParseOutcome(turn.Text)
		outcome.Iterations = iteration
		last = outcome
		if progress != nil {
			progress(iteration, outcome)
		}

		if outcome.Done {
			logger.Info("run complete", "iterations", iteration)
			return outcome, nil
		}
		if outcome.Status == StatusCompleted {
			// Deliberate early stop after a critical failure.
			logger.Warn("run stopped early", "iterations", iteration, "message", outcome.Message)
			return outcome, nil
		}

		if len(pending) == 0 {
			// Nothing requested and not done: nudge instead of stalling.
			history = append(history, llm.UserItem("Continue processing the remaining operations and respond with the JSON report."))
		}
	}

	logger.Warn("iteration cap reached", "max", d.maxIterations)
	return last, ErrMaxIterations
}

func (d *Driver) toolSpecs() []llm.ToolSpec {
	specs := d.registry.Describe(nil)
	out := make([]llm.ToolSpec, len(specs))
	for i, s := range specs {
		out[i] = llm.ToolSpec{
			Name:        s.Name,
			Description: s.Description,
			Parameters:  s.Parameters,
		}
	}
	return out
}
