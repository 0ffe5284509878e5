package segmenter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/JaimeStill/segmenter/internal/model"
)

// State names a step of the pagination state machine.
type State int

const (
	StateRequestPage State = iota
	StateParse
	StateValidate
	StateAccept
	StateRetry
	StateSwitchModel
	StateAbandon
	StateDone
)

func (s State) String() string {
	switch s {
	case StateRequestPage:
		return "request_page"
	case StateParse:
		return "parse"
	case StateValidate:
		return "validate"
	case StateAccept:
		return "accept"
	case StateRetry:
		return "retry"
	case StateSwitchModel:
		return "switch_model"
	case StateAbandon:
		return "abandon"
	default:
		return "done"
	}
}

// machine holds everything that changes while one run paginates.
// Each state has one transition method returning the next state.
type machine struct {
	req     Request
	opts    Options
	cache   Cache
	ctrl    *Controller
	metrics *Metrics
	logger  *slog.Logger

	state     State
	start     int
	pageIndex int
	key       string
	text      string
	envelope  map[string]any
	page      Page
	fromCache bool
	lastErr   error
	started   time.Time

	collected  []Record
	declared   int
	modelCalls int
	cacheHits  int
	abandoned  bool
}

func newMachine(req Request, opts Options, cache Cache, ctrl *Controller, metrics *Metrics, logger *slog.Logger) *machine {
	return &machine{
		req:     req,
		opts:    opts,
		cache:   cache,
		ctrl:    ctrl,
		metrics: metrics,
		logger:  logger,
		state:   StateRequestPage,
	}
}

// run steps the machine until Done. A returned error means the run produced
// nothing usable or was cancelled.
func (m *machine) run(ctx context.Context) error {
	for m.state != StateDone {
		next, err := m.step(ctx)
		if err != nil {
			return err
		}
		if next != m.state {
			m.logger.DebugContext(ctx, "transition",
				"from", m.state,
				"to", next,
				"page", m.pageIndex,
				"start", m.start,
			)
		}
		m.state = next
	}
	return nil
}

func (m *machine) step(ctx context.Context) (State, error) {
	switch m.state {
	case StateRequestPage:
		return m.requestPage(ctx)
	case StateParse:
		return m.parse(), nil
	case StateValidate:
		return m.validate(), nil
	case StateAccept:
		return m.accept(ctx), nil
	case StateRetry:
		return m.retry(ctx)
	case StateSwitchModel:
		return m.switchModel(ctx), nil
	case StateAbandon:
		return m.abandon(ctx)
	default:
		return StateDone, nil
	}
}

func (m *machine) readsCache() bool {
	return m.cache != nil && m.opts.UseCache && !m.opts.ForceReclassify
}

func (m *machine) writesCache() bool {
	return m.cache != nil && m.opts.UseCache
}

func (m *machine) requestPage(ctx context.Context) (State, error) {
	if err := ctx.Err(); err != nil {
		return StateDone, fmt.Errorf("page %d: %w", m.pageIndex, err)
	}

	if m.started.IsZero() {
		m.started = time.Now()
	}
	m.key = Key(m.req.Process, m.req.AsIs, m.start, m.opts.PageSize)
	m.fromCache = false

	if m.readsCache() {
		page, ok := m.cache.Get(ctx, m.key)
		m.metrics.cacheLookup(ok)
		if ok {
			m.page = page
			m.fromCache = true
			m.cacheHits++
			return StateAccept, nil
		}
	}

	prompt, err := BuildPrompt(PromptInput{
		Process:  m.req.Process,
		AsIs:     m.req.AsIs,
		Start:    m.start,
		PageSize: m.opts.PageSize,
		Rules:    m.req.Rules,
		Format:   m.req.Format,
	})
	if err != nil {
		return StateDone, err
	}

	current := m.ctrl.Model()
	text, err := m.ctrl.Invoke(ctx, prompt)
	m.modelCalls++
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return StateDone, fmt.Errorf("page %d: %w", m.pageIndex, ctxErr)
		}
		m.metrics.modelCall(current, model.KindOf(err).String())
		return m.fail(err), nil
	}

	m.metrics.modelCall(current, "ok")
	m.text = text
	return StateParse, nil
}

func (m *machine) parse() State {
	envelope, strategy := ParseDetailed(m.text)
	if envelope == nil {
		return m.fail(fmt.Errorf("%w: no JSON recovered (%d chars)", ErrInvalidResponse, len(m.text)))
	}
	m.envelope = envelope
	m.logger.Debug("page parsed", "page", m.pageIndex, "strategy", strategy)
	return StateValidate
}

func (m *machine) validate() State {
	envelope := Salvage(m.envelope)
	if !Validate(envelope) {
		return m.fail(fmt.Errorf("%w: missing %q list", ErrInvalidResponse, KeySubactivities))
	}
	m.page = Page{
		Records:  Records(envelope),
		Declared: Declared(envelope),
	}
	return StateAccept
}

func (m *machine) accept(ctx context.Context) State {
	count := len(m.page.Records)

	if !m.fromCache && count > 0 && m.writesCache() {
		m.cache.Put(ctx, m.key, m.page)
	}

	m.collected = append(m.collected, m.page.Records...)
	if m.pageIndex == 0 {
		m.declared = m.page.Declared
	}

	m.ctrl.Reset()
	m.metrics.page(StateAccept.String(), m.started)
	m.started = time.Time{}

	m.logger.InfoContext(ctx, "page accepted",
		"page", m.pageIndex,
		"start", m.start,
		"records", count,
		"cached", m.fromCache,
	)

	m.pageIndex++
	m.start += m.opts.PageSize

	switch {
	case count < m.opts.PageSize:
		return StateDone
	case m.pageIndex == 1 && m.declared > 0 && count >= m.declared:
		return StateDone
	case m.pageIndex >= m.opts.MaxPages:
		return StateDone
	default:
		return StateRequestPage
	}
}

// fail routes a failed attempt to Retry, SwitchModel or Abandon.
func (m *machine) fail(err error) State {
	m.lastErr = err

	switch m.ctrl.Fail(err) {
	case ActionRetry:
		return StateRetry
	case ActionSwitch:
		return StateSwitchModel
	default:
		return StateAbandon
	}
}

func (m *machine) retry(ctx context.Context) (State, error) {
	kind := "invalid_response"
	if k := model.KindOf(m.lastErr); k.Retryable() {
		kind = k.String()
	}
	m.metrics.retry(kind)

	m.logger.WarnContext(ctx, "retrying page",
		"page", m.pageIndex,
		"model", m.ctrl.Model(),
		"attempt", m.ctrl.Failures()+1,
		"backoff", m.ctrl.Backoff(),
		"error", m.lastErr,
	)

	if err := m.ctrl.Wait(ctx); err != nil {
		return StateDone, fmt.Errorf("page %d: %w", m.pageIndex, err)
	}
	return StateRequestPage, nil
}

func (m *machine) switchModel(ctx context.Context) State {
	from := m.ctrl.Model()
	if !m.ctrl.Switch() {
		return StateAbandon
	}
	m.metrics.modelSwitch()

	m.logger.WarnContext(ctx, "switching model",
		"page", m.pageIndex,
		"from", from,
		"to", m.ctrl.Model(),
		"error", m.lastErr,
	)
	return StateRequestPage
}

func (m *machine) abandon(ctx context.Context) (State, error) {
	m.metrics.page(StateAbandon.String(), m.started)

	if len(m.collected) == 0 {
		return StateDone, fmt.Errorf("%w: %w", ErrNoResult, m.lastErr)
	}

	m.abandoned = true
	m.logger.WarnContext(ctx, "page abandoned, returning partial result",
		"page", m.pageIndex,
		"collected", len(m.collected),
		"error", m.lastErr,
	)
	return StateDone, nil
}
