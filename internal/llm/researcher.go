package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/sponsorgrader/internal/worker"
)

// ErrEmptyTranscript is returned when a call succeeds but produces no text
var ErrEmptyTranscript = errors.New("research returned an empty transcript")

// researchKey is the limiter key all research calls share
const researchKey = "research"

// Outcome is the result of one research call: a transcript or a failure
type Outcome struct {
	Transcript string
	Err        error
	Attempts   int
	Duration   time.Duration
}

// OK reports whether research produced a transcript
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Researcher turns a streaming Provider into a single blocking call with a
// timeout, pacing and bounded retries
type Researcher struct {
	provider Provider
	timeout  time.Duration
	echo     io.Writer
	limiter  *worker.Limiter
	retry    *RetryHandler
	logger   *zap.Logger
}

// ResearcherOption configures a Researcher
type ResearcherOption func(*Researcher)

// WithTimeout bounds each Research call, retries included; 0 disables the bound
func WithTimeout(d time.Duration) ResearcherOption {
	return func(r *Researcher) {
		r.timeout = d
	}
}

// WithEcho copies text fragments to w as they arrive
func WithEcho(w io.Writer) ResearcherOption {
	return func(r *Researcher) {
		r.echo = w
	}
}

// WithLimiter paces research calls
func WithLimiter(l *worker.Limiter) ResearcherOption {
	return func(r *Researcher) {
		r.limiter = l
	}
}

// WithRetryHandler sets the retry policy for failures before the first fragment
func WithRetryHandler(h *RetryHandler) ResearcherOption {
	return func(r *Researcher) {
		if h != nil {
			r.retry = h
		}
	}
}

// WithLogger sets the researcher logger
func WithLogger(logger *zap.Logger) ResearcherOption {
	return func(r *Researcher) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewResearcher wraps provider
func NewResearcher(provider Provider, opts ...ResearcherOption) *Researcher {
	r := &Researcher{
		provider: provider,
		retry:    NewRetryHandler(RetryConfig{MaxRetries: 0}),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Provider returns the wrapped provider
func (r *Researcher) Provider() Provider {
	return r.provider
}

// Research sends prompt and collects the whole reply. It never panics or
// returns a Go error; failures are carried in Outcome.Err.
func (r *Researcher) Research(ctx context.Context, prompt string) Outcome {
	start := time.Now()

	callCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	var (
		transcript strings.Builder
		attempts   int
	)
	err := r.retry.Do(callCtx, func(attempt int) (bool, error) {
		attempts++
		if attempt > 0 {
			r.logger.Info("retrying research call", zap.Int("attempt", attempt+1), zap.String("provider", r.provider.Name()))
		}

		if err := r.limiter.Wait(callCtx, researchKey); err != nil {
			return false, err
		}

		transcript.Reset()
		received := false
		for delta, err := range r.provider.Stream(callCtx, prompt) {
			if err != nil {
				// Text already shown to the user cannot be taken back
				return !received, err
			}
			received = true
			transcript.WriteString(delta)
			if r.echo != nil {
				_, _ = io.WriteString(r.echo, delta)
			}
		}
		return false, nil
	})

	if err != nil && ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		err = fmt.Errorf("research timed out after %s: %w", r.timeout, err)
	}
	if err == nil && strings.TrimSpace(transcript.String()) == "" {
		err = ErrEmptyTranscript
	}

	out := Outcome{
		Transcript: transcript.String(),
		Err:        err,
		Attempts:   attempts,
		Duration:   time.Since(start),
	}
	if err != nil {
		r.logger.Warn("research failed",
			zap.String("provider", r.provider.Name()),
			zap.Int("attempts", attempts),
			zap.Duration("duration", out.Duration),
			zap.Error(err))
	}
	return out
}
