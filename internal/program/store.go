package program

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/myrjola/dietplan/internal/errors"
	"github.com/myrjola/dietplan/internal/sqlite"
)

var ErrNotFound = errors.NewSentinel("not found")

type ProgramKind string

const (
	KindExerciseProgram ProgramKind = "exercise"
	KindDietProgram     ProgramKind = "diet"
)

// createdAtLayout matches STRFTIME('%Y-%m-%dT%H:%M:%fZ') so that text ordering equals time ordering.
const createdAtLayout = "2006-01-02T15:04:05.000Z"

// DefaultCacheSize is the number of stored programs kept in memory by [Store].
const DefaultCacheSize = 256

type ProgramSummary struct {
	ID        string      `json:"id"`
	PatientID string      `json:"patientId"`
	Kind      ProgramKind `json:"kind"`
	Title     string      `json:"title"`
	CreatedAt time.Time   `json:"createdAt"`
}

// StoredProgram is a persisted program. Exactly one of Exercise and Diet is set, matching Kind.
type StoredProgram struct {
	ProgramSummary

	Exercise *ExerciseProgram `json:"exercise,omitempty"`
	Diet     *DietProgram     `json:"diet,omitempty"`
}

// Store persists generated programs in SQLite. Stored programs are never updated, so reads are cached.
type Store struct {
	db     *sqlite.Database
	cache  *lru.Cache[string, StoredProgram]
	logger *slog.Logger
	now    func() time.Time
}

// NewStore creates a Store. A non-positive cacheSize means [DefaultCacheSize].
func NewStore(db *sqlite.Database, logger *slog.Logger, cacheSize int) (*Store, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[string, StoredProgram](cacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "create program cache", slog.Int("size", cacheSize))
	}
	return &Store{
		db:     db,
		cache:  cache,
		logger: logger,
		now:    time.Now,
	}, nil
}

// SaveExerciseProgram stores p for the patient. Every workout and exercise gets a fresh UUID; p is not modified.
func (s *Store) SaveExerciseProgram(ctx context.Context, patientID string, p ExerciseProgram) (StoredProgram, error) {
	p = rekeyExerciseProgram(p)
	stored := StoredProgram{
		ProgramSummary: s.newSummary(patientID, KindExerciseProgram, p.Title),
		Exercise:       &p,
		Diet:           nil,
	}
	if err := s.insert(ctx, stored, p); err != nil {
		return StoredProgram{}, err
	}
	return stored, nil
}

// SaveDietProgram stores p for the patient. Every meal and food gets a fresh UUID; p is not modified.
func (s *Store) SaveDietProgram(ctx context.Context, patientID string, p DietProgram) (StoredProgram, error) {
	p = rekeyDietProgram(p)
	stored := StoredProgram{
		ProgramSummary: s.newSummary(patientID, KindDietProgram, p.Title),
		Exercise:       nil,
		Diet:           &p,
	}
	if err := s.insert(ctx, stored, p); err != nil {
		return StoredProgram{}, err
	}
	return stored, nil
}

func (s *Store) newSummary(patientID string, kind ProgramKind, title string) ProgramSummary {
	return ProgramSummary{
		ID:        uuid.NewString(),
		PatientID: patientID,
		Kind:      kind,
		Title:     title,
		// Truncated to the stored precision so the returned value equals a later read.
		CreatedAt: s.now().UTC().Truncate(time.Millisecond),
	}
}

func (s *Store) insert(ctx context.Context, stored StoredProgram, payload any) error {
	if stored.PatientID == "" {
		return errors.New("patient id is required")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "marshal program", slog.String("kind", string(stored.Kind)))
	}

	_, err = s.db.ReadWrite.ExecContext(ctx, `
		INSERT INTO programs (id, patient_id, kind, title, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		stored.ID, stored.PatientID, stored.Kind, stored.Title, string(data),
		stored.CreatedAt.Format(createdAtLayout),
	)
	if err != nil {
		return errors.Wrap(err, "insert program",
			slog.String("patient_id", stored.PatientID), slog.String("kind", string(stored.Kind)))
	}

	s.cache.Add(stored.ID, stored)
	s.logger.LogAttrs(ctx, slog.LevelInfo, "saved program",
		slog.String("program_id", stored.ID),
		slog.String("patient_id", stored.PatientID),
		slog.String("kind", string(stored.Kind)))
	return nil
}

// ListPrograms returns the patient's programs, newest first. An unknown patient has no programs.
func (s *Store) ListPrograms(ctx context.Context, patientID string) ([]ProgramSummary, error) {
	rows, err := s.db.ReadOnly.QueryContext(ctx, `
		SELECT id, patient_id, kind, title, created_at
		FROM programs
		WHERE patient_id = ?
		ORDER BY created_at DESC, id`, patientID)
	if err != nil {
		return nil, errors.Wrap(err, "query programs", slog.String("patient_id", patientID))
	}
	defer rows.Close()

	summaries := []ProgramSummary{}
	for rows.Next() {
		var (
			summary   ProgramSummary
			createdAt string
		)
		if err = rows.Scan(&summary.ID, &summary.PatientID, &summary.Kind, &summary.Title, &createdAt); err != nil {
			return nil, errors.Wrap(err, "scan program")
		}
		if summary.CreatedAt, err = time.Parse(createdAtLayout, createdAt); err != nil {
			return nil, errors.Wrap(err, "parse created_at", slog.String("value", createdAt))
		}
		summaries = append(summaries, summary)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate programs")
	}
	return summaries, nil
}

// GetProgram returns the stored program or an error wrapping [ErrNotFound]. The result is shared with the cache
// and must not be modified.
func (s *Store) GetProgram(ctx context.Context, id string) (StoredProgram, error) {
	if stored, ok := s.cache.Get(id); ok {
		return stored, nil
	}

	var (
		stored    StoredProgram
		createdAt string
		payload   string
	)
	err := s.db.ReadOnly.QueryRowContext(ctx, `
		SELECT id, patient_id, kind, title, created_at, payload
		FROM programs
		WHERE id = ?`, id).Scan(
		&stored.ID, &stored.PatientID, &stored.Kind, &stored.Title, &createdAt, &payload,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return StoredProgram{}, fmt.Errorf("program %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return StoredProgram{}, errors.Wrap(err, "query program", slog.String("program_id", id))
	}
	if stored.CreatedAt, err = time.Parse(createdAtLayout, createdAt); err != nil {
		return StoredProgram{}, errors.Wrap(err, "parse created_at", slog.String("value", createdAt))
	}

	switch stored.Kind {
	case KindExerciseProgram:
		stored.Exercise = &ExerciseProgram{} //nolint:exhaustruct // decoded below.
		err = json.Unmarshal([]byte(payload), stored.Exercise)
	case KindDietProgram:
		stored.Diet = &DietProgram{} //nolint:exhaustruct // decoded below.
		err = json.Unmarshal([]byte(payload), stored.Diet)
	default:
		err = fmt.Errorf("unknown program kind %q", stored.Kind)
	}
	if err != nil {
		return StoredProgram{}, errors.Wrap(err, "decode program payload", slog.String("program_id", id))
	}

	s.cache.Add(id, stored)
	return stored, nil
}

func rekeyExerciseProgram(p ExerciseProgram) ExerciseProgram {
	workouts := make([]Workout, len(p.Workouts))
	for i, w := range p.Workouts {
		w.ID = uuid.NewString()
		exercises := make([]Exercise, len(w.Exercises))
		for j, e := range w.Exercises {
			e.ID = uuid.NewString()
			exercises[j] = e
		}
		w.Exercises = exercises
		workouts[i] = w
	}
	p.Workouts = workouts
	return p
}

func rekeyDietProgram(p DietProgram) DietProgram {
	meals := make([]Meal, len(p.Meals))
	for i, m := range p.Meals {
		m.ID = uuid.NewString()
		foods := make([]Food, len(m.Foods))
		for j, f := range m.Foods {
			f.ID = uuid.NewString()
			foods[j] = f
		}
		m.Foods = foods
		meals[i] = m
	}
	p.Meals = meals
	return p
}
