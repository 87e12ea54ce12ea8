package program

import (
	"context"
	"log/slog"
	"time"

	"github.com/myrjola/dietplan/internal/errors"
	"github.com/myrjola/dietplan/internal/genai"
)

// DefaultTimeout bounds a single generation call when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// Generator is implemented by [Service] and by decorators such as [Retrying].
type Generator interface {
	GenerateExerciseProgram(ctx context.Context, info PatientExerciseInfo, goal ExerciseGoal) (ExerciseProgram, error)
	GenerateDietProgram(ctx context.Context, info PatientDietInfo, goal DietGoal) (DietProgram, error)
}

// Service composes prompt building, the model call and parsing. It holds no per-request state, so concurrent
// calls are independent. Two calls with the same input may return different programs.
type Service struct {
	generator genai.Generator
	logger    *slog.Logger
	timeout   time.Duration
	now       func() time.Time
}

// NewService creates a Service. A non-positive timeout means [DefaultTimeout].
func NewService(generator genai.Generator, logger *slog.Logger, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Service{
		generator: generator,
		logger:    logger,
		timeout:   timeout,
		now:       time.Now,
	}
}

// GenerateExerciseProgram returns a parsed program or a *GenerationError.
func (s *Service) GenerateExerciseProgram(
	ctx context.Context, info PatientExerciseInfo, goal ExerciseGoal,
) (ExerciseProgram, error) {
	info, goal = info.Normalize(), goal.Normalize()
	if err := errors.Join(info.Validate(), goal.Validate()); err != nil {
		return ExerciseProgram{}, s.fail(ctx, "exercise", mergeInputErrors(err))
	}

	runAt := s.now()
	raw, err := s.generate(ctx, BuildExercisePrompt(info, goal))
	if err != nil {
		return ExerciseProgram{}, s.fail(ctx, "exercise", err)
	}

	p, err := ParseExerciseProgram(raw, runAt)
	if err != nil {
		return ExerciseProgram{}, s.fail(ctx, "exercise", err)
	}

	s.logger.LogAttrs(ctx, slog.LevelInfo, "generated exercise program",
		slog.Int("workouts", len(p.Workouts)), slog.Duration("duration", time.Since(runAt)))
	return p, nil
}

// GenerateDietProgram returns a parsed program or a *GenerationError.
func (s *Service) GenerateDietProgram(ctx context.Context, info PatientDietInfo, goal DietGoal) (DietProgram, error) {
	info, goal = info.Normalize(), goal.Normalize()
	if err := errors.Join(info.Validate(), goal.Validate()); err != nil {
		return DietProgram{}, s.fail(ctx, "diet", mergeInputErrors(err))
	}

	runAt := s.now()
	raw, err := s.generate(ctx, BuildDietPrompt(info, goal))
	if err != nil {
		return DietProgram{}, s.fail(ctx, "diet", err)
	}

	p, err := ParseDietProgram(raw, runAt)
	if err != nil {
		return DietProgram{}, s.fail(ctx, "diet", err)
	}

	s.logger.LogAttrs(ctx, slog.LevelInfo, "generated diet program",
		slog.Int("meals", len(p.Meals)), slog.Duration("duration", time.Since(runAt)))
	return p, nil
}

func (s *Service) generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		var timeoutErr *genai.TimeoutError
		if ctx.Err() != nil && !errors.As(err, &timeoutErr) {
			err = &genai.TimeoutError{Err: err}
		}
		return "", err
	}
	if raw == "" {
		return "", &genai.UpstreamError{StatusCode: 0, Reason: "empty completion", Body: "", Err: nil}
	}
	return raw, nil
}

func (s *Service) fail(ctx context.Context, program string, cause error) error {
	genErr := &GenerationError{Kind: classify(cause), Cause: cause}
	attrs := []slog.Attr{
		slog.String("program", program),
		slog.String("kind", string(genErr.Kind)),
		errors.SlogError(cause),
	}
	var malformedErr *MalformedResponseError
	if errors.As(cause, &malformedErr) {
		attrs = append(attrs, slog.String("raw_response", malformedErr.Raw))
	}
	level := slog.LevelWarn
	if genErr.Kind == KindInvalidInput {
		level = slog.LevelInfo
	}
	s.logger.LogAttrs(ctx, level, "program generation failed", attrs...)
	return genErr
}

// mergeInputErrors folds the joined patient and goal errors into a single *InputError.
func mergeInputErrors(err error) error {
	joined, ok := err.(interface{ Unwrap() []error }) //nolint:errorlint // errors.Join result.
	if !ok {
		return err
	}
	merged := &InputError{Fields: nil}
	for _, e := range joined.Unwrap() {
		var inputErr *InputError
		if errors.As(e, &inputErr) {
			merged.Fields = append(merged.Fields, inputErr.Fields...)
		}
	}
	return merged
}
