// Package checkup runs the ordered post-deploy verification pipeline.
// Checks execute strictly in declaration order; the first failing fatal
// check halts the pipeline, while warnings and advisory failures let it
// continue and are collected into the report.
package checkup

import (
	"context"
	"fmt"
	"time"
)

// Status communicates the verdict of a single check.
type Status string

const (
	StatusPass    Status = "pass"
	StatusWarn    Status = "warn"
	StatusFail    Status = "fail"
	StatusUnknown Status = "unknown"
)

// Result pairs a verdict with a human-readable summary and optional detail
// lines naming the offending resources.
type Result struct {
	Status  Status   `json:"status"`
	Summary string   `json:"summary"`
	Details []string `json:"details,omitempty"`
}

// Pass builds a passing result.
func Pass(format string, args ...interface{}) Result {
	return Result{Status: StatusPass, Summary: fmt.Sprintf(format, args...)}
}

// Warn builds a warning result.
func Warn(format string, args ...interface{}) Result {
	return Result{Status: StatusWarn, Summary: fmt.Sprintf(format, args...)}
}

// Fail builds a failing result.
func Fail(format string, args ...interface{}) Result {
	return Result{Status: StatusFail, Summary: fmt.Sprintf(format, args...)}
}

// WithDetails attaches detail lines to a result.
func (r Result) WithDetails(details ...string) Result {
	r.Details = append(r.Details, details...)
	return r
}

// Check is a single verification unit.
type Check interface {
	Name() string
	Run(ctx context.Context) Result
}

// Entry places a check in the pipeline. Advisory entries never halt the
// pipeline, whatever their verdict.
type Entry struct {
	Check    Check
	Advisory bool
}

// Outcome records one executed check.
type Outcome struct {
	Name     string `json:"name"`
	Advisory bool   `json:"advisory,omitempty"`
	Result   Result `json:"result"`
}

// Report is the ordered result log of a pipeline run.
type Report struct {
	GeneratedAt time.Time `json:"generatedAt"`
	Outcomes    []Outcome `json:"outcomes"`
	Failures    int       `json:"failures"`
	Warnings    int       `json:"warnings"`
	Halted      bool      `json:"halted"`
}

// Observer is notified after each check completes, in order.
type Observer func(Outcome)

// Runner executes a fixed, ordered sequence of checks.
type Runner struct {
	entries  []Entry
	observer Observer
}

// NewRunner builds a runner over the given ordered entries.
func NewRunner(entries ...Entry) *Runner {
	return &Runner{entries: entries}
}

// OnResult registers a callback invoked after every executed check.
func (r *Runner) OnResult(fn Observer) {
	r.observer = fn
}

// Run executes the pipeline sequentially. A FAIL from a non-advisory check
// halts execution immediately; later checks are never run. Context
// cancellation also halts the pipeline.
func (r *Runner) Run(ctx context.Context) Report {
	report := Report{GeneratedAt: time.Now().UTC()}
	for _, entry := range r.entries {
		if err := ctx.Err(); err != nil {
			report.Halted = true
			break
		}
		result := entry.Check.Run(ctx)
		outcome := Outcome{Name: entry.Check.Name(), Advisory: entry.Advisory, Result: result}
		report.Outcomes = append(report.Outcomes, outcome)
		switch result.Status {
		case StatusFail:
			report.Failures++
		case StatusWarn:
			report.Warnings++
		}
		if r.observer != nil {
			r.observer(outcome)
		}
		if result.Status == StatusFail && !entry.Advisory {
			report.Halted = true
			break
		}
	}
	return report
}

// CheckFunc adapts a function to the Check interface.
type CheckFunc struct {
	Label string
	Fn    func(ctx context.Context) Result
}

func (c CheckFunc) Name() string { return c.Label }

func (c CheckFunc) Run(ctx context.Context) Result { return c.Fn(ctx) }
