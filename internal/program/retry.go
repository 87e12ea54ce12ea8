package program

import (
	"context"
	"log/slog"
	"time"

	"github.com/myrjola/dietplan/internal/errors"
	"github.com/myrjola/dietplan/internal/genai"
)

// RetryPolicy configures [Retrying]. Delays grow as BaseDelay, 2*BaseDelay, 4*BaseDelay and so on up to MaxDelay.
type RetryPolicy struct {
	// MaxAttempts counts the first call. Values below 1 mean a single attempt.
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// Retrying retries upstream failures of another Generator. Timeouts, invalid input, malformed responses and
// schema violations are returned immediately.
type Retrying struct {
	next   Generator
	policy RetryPolicy
	logger *slog.Logger
}

func NewRetrying(next Generator, policy RetryPolicy, logger *slog.Logger) *Retrying {
	return &Retrying{
		next:   next,
		policy: policy,
		logger: logger,
	}
}

func (r *Retrying) GenerateExerciseProgram(
	ctx context.Context, info PatientExerciseInfo, goal ExerciseGoal,
) (ExerciseProgram, error) {
	return retry(ctx, r, "exercise", func() (ExerciseProgram, error) {
		return r.next.GenerateExerciseProgram(ctx, info, goal)
	})
}

func (r *Retrying) GenerateDietProgram(ctx context.Context, info PatientDietInfo, goal DietGoal) (DietProgram, error) {
	return retry(ctx, r, "diet", func() (DietProgram, error) {
		return r.next.GenerateDietProgram(ctx, info, goal)
	})
}

func retryable(err error) bool {
	var (
		upstreamErr *genai.UpstreamError
		timeoutErr  *genai.TimeoutError
	)
	return errors.As(err, &upstreamErr) && !errors.As(err, &timeoutErr)
}

func (r *Retrying) delay(attempt int) time.Duration {
	d := r.policy.BaseDelay << (attempt - 1)
	if d <= 0 || (r.policy.MaxDelay > 0 && d > r.policy.MaxDelay) {
		return r.policy.MaxDelay
	}
	return d
}

func retry[T any](ctx context.Context, r *Retrying, program string, call func() (T, error)) (T, error) {
	attempts := max(r.policy.MaxAttempts, 1)
	for attempt := 1; ; attempt++ {
		result, err := call()
		if err == nil || attempt >= attempts || !retryable(err) {
			return result, err
		}

		wait := r.delay(attempt)
		r.logger.LogAttrs(ctx, slog.LevelWarn, "retrying program generation",
			slog.String("program", program),
			slog.Int("attempt", attempt),
			slog.Duration("backoff", wait),
			errors.SlogError(err))

		select {
		case <-ctx.Done():
			return result, err
		case <-time.After(wait):
		}
	}
}
