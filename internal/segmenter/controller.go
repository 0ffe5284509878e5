package segmenter

import (
	"context"
	"errors"
	"time"

	"github.com/JaimeStill/segmenter/internal/model"
)

// Action is the controller's decision after a failed page attempt.
type Action int

const (
	ActionRetry Action = iota
	ActionSwitch
	ActionAbandon
)

func (a Action) String() string {
	switch a {
	case ActionRetry:
		return "retry"
	case ActionSwitch:
		return "switch_model"
	default:
		return "abandon"
	}
}

// RetryPolicy bounds attempts per model and the exponential backoff between them.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxBackoff time.Duration
}

// Controller tracks the current model in the fallback order and the number of
// failed attempts against it. A model switch lasts for the rest of the run;
// the attempt counter resets on every switch and every accepted page.
type Controller struct {
	invoker  model.Invoker
	models   []string
	policy   RetryPolicy
	index    int
	failures int
}

// NewController creates a Controller starting at the first model.
func NewController(invoker model.Invoker, models []string, policy RetryPolicy) *Controller {
	if policy.MaxRetries < 1 {
		policy.MaxRetries = 1
	}
	return &Controller{
		invoker: invoker,
		models:  models,
		policy:  policy,
	}
}

// Model returns the current model identifier.
func (c *Controller) Model() string {
	if c.index >= len(c.models) {
		return ""
	}
	return c.models[c.index]
}

// Failures returns the failed attempts recorded against the current model.
func (c *Controller) Failures() int {
	return c.failures
}

// Invoke sends prompt to the current model.
func (c *Controller) Invoke(ctx context.Context, prompt string) (string, error) {
	return c.invoker.Generate(ctx, c.Model(), prompt)
}

// Fail records a failed attempt and decides what happens next.
// Retryable model errors and invalid responses consume the retry budget of
// the current model; an unavailable model is skipped at once; anything else
// abandons the page.
func (c *Controller) Fail(err error) Action {
	kind := model.KindOf(err)

	switch {
	case kind == model.KindModelUnavailable:
		if c.hasNext() {
			return ActionSwitch
		}
		return ActionAbandon
	case kind.Retryable(), errors.Is(err, ErrInvalidResponse):
		c.failures++
		if c.failures < c.policy.MaxRetries {
			return ActionRetry
		}
		if c.hasNext() {
			return ActionSwitch
		}
		return ActionAbandon
	default:
		return ActionAbandon
	}
}

// Switch advances to the next model. It reports false when none remain.
func (c *Controller) Switch() bool {
	if !c.hasNext() {
		return false
	}
	c.index++
	c.failures = 0
	return true
}

// Reset clears the attempt counter after a page is accepted.
func (c *Controller) Reset() {
	c.failures = 0
}

// Backoff returns base_delay * 2^(failures-1), capped at MaxBackoff.
func (c *Controller) Backoff() time.Duration {
	if c.failures < 1 || c.policy.BaseDelay <= 0 {
		return 0
	}

	d := c.policy.BaseDelay
	for i := 1; i < c.failures; i++ {
		d *= 2
		if c.policy.MaxBackoff > 0 && d >= c.policy.MaxBackoff {
			return c.policy.MaxBackoff
		}
	}
	if c.policy.MaxBackoff > 0 && d > c.policy.MaxBackoff {
		return c.policy.MaxBackoff
	}
	return d
}

// Wait sleeps for the current backoff or until ctx is done.
func (c *Controller) Wait(ctx context.Context) error {
	d := c.Backoff()
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Controller) hasNext() bool {
	return c.index+1 < len(c.models)
}
