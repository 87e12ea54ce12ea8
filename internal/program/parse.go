package program

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/myrjola/dietplan/internal/ptr"
)

const codeFence = "```"

// StripCodeFence removes Markdown code fences wrapping text, including an info string such as "json", and the
// surrounding whitespace. Clean input is returned trimmed. Applying it twice gives the same result as once.
func StripCodeFence(text string) string {
	s := strings.TrimSpace(text)
	for strings.HasPrefix(s, codeFence) {
		body := strings.TrimPrefix(s, codeFence)
		body = strings.TrimLeftFunc(body, func(r rune) bool {
			return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z'
		})
		body = strings.TrimSpace(body)
		body = strings.TrimSuffix(body, codeFence)
		s = strings.TrimSpace(body)
	}
	return s
}

func decodeObject(raw string) (map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(StripCodeFence(raw)))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, &MalformedResponseError{Raw: raw, Err: err}
	}
	var trailing any
	if err := dec.Decode(&trailing); !errors.Is(err, io.EOF) {
		return nil, &MalformedResponseError{Raw: raw, Err: errors.New("unexpected data after JSON value")}
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, &SchemaViolationError{Fields: []string{"(root)"}}
	}
	return obj, nil
}

// schemaReader pulls typed values out of decoded JSON and records the path of every missing or mistyped field.
type schemaReader struct {
	violations []string
}

func (r *schemaReader) fail(path string) {
	if !slices.Contains(r.violations, path) {
		r.violations = append(r.violations, path)
	}
}

func (r *schemaReader) err() error {
	if len(r.violations) == 0 {
		return nil
	}
	return &SchemaViolationError{Fields: r.violations}
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

func (r *schemaReader) requiredString(obj map[string]any, prefix, key string) string {
	s, ok := obj[key].(string)
	if !ok || strings.TrimSpace(s) == "" {
		r.fail(join(prefix, key))
		return ""
	}
	return strings.TrimSpace(s)
}

func (r *schemaReader) optionalString(obj map[string]any, prefix, key string) string {
	v, ok := obj[key]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		r.fail(join(prefix, key))
		return ""
	}
	return strings.TrimSpace(s)
}

func requiredEnum[T ~string](r *schemaReader, obj map[string]any, prefix, key string, allowed []T) T {
	s, _ := obj[key].(string)
	v := T(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(allowed, v) {
		r.fail(join(prefix, key))
		return ""
	}
	return v
}

// asInt accepts JSON numbers with an integral value, so 3 and 3.0 are both 3.
func asInt(v any) (int, bool) {
	n, ok := v.(json.Number)
	if !ok {
		return 0, false
	}
	if i, err := strconv.ParseInt(n.String(), 10, 32); err == nil {
		return int(i), true
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

func (r *schemaReader) requiredInt(obj map[string]any, prefix, key string, minimum int) int {
	i, ok := asInt(obj[key])
	if !ok || i < minimum {
		r.fail(join(prefix, key))
		return 0
	}
	return i
}

func (r *schemaReader) optionalInt(obj map[string]any, prefix, key string) *int {
	v, ok := obj[key]
	if !ok || v == nil {
		return nil
	}
	i, ok := asInt(v)
	if !ok || i < 0 {
		r.fail(join(prefix, key))
		return nil
	}
	return ptr.Ref(i)
}

func (r *schemaReader) optionalFloat(obj map[string]any, prefix, key string) *float64 {
	v, ok := obj[key]
	if !ok || v == nil {
		return nil
	}
	n, ok := v.(json.Number)
	if !ok {
		r.fail(join(prefix, key))
		return nil
	}
	f, err := n.Float64()
	if err != nil || f < 0 {
		r.fail(join(prefix, key))
		return nil
	}
	return ptr.Ref(f)
}

// stringList reads an optional array of strings, dropping blank entries.
func (r *schemaReader) stringList(obj map[string]any, prefix, key string) []string {
	v, ok := obj[key]
	if !ok || v == nil {
		return nil
	}
	items, ok := v.([]any)
	if !ok {
		r.fail(join(prefix, key))
		return nil
	}
	out := make([]string, 0, len(items))
	for i, item := range items {
		s, isString := item.(string)
		if !isString {
			r.fail(fmt.Sprintf("%s[%d]", join(prefix, key), i))
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// objectList reads a required non-empty array of objects. Elements that are not objects are reported and
// returned as nil so that indices stay aligned with the input.
func (r *schemaReader) objectList(obj map[string]any, prefix, key string) []map[string]any {
	items, ok := obj[key].([]any)
	if !ok || len(items) == 0 {
		r.fail(join(prefix, key))
		return nil
	}
	out := make([]map[string]any, len(items))
	for i, item := range items {
		m, isObject := item.(map[string]any)
		if !isObject {
			r.fail(fmt.Sprintf("%s[%d]", join(prefix, key), i))
			continue
		}
		out[i] = m
	}
	return out
}

func idOf(obj map[string]any) string {
	s, _ := obj["id"].(string)
	return strings.TrimSpace(s)
}

// ParseExerciseProgram turns raw completion text into an ExerciseProgram. It fails with
// *MalformedResponseError when the text is not JSON and with *SchemaViolationError when required fields are
// missing or mistyped. On success every workout and exercise has an ID unique within the program and
// AIGenerated is true regardless of what the model sent.
func ParseExerciseProgram(raw string, runAt time.Time) (ExerciseProgram, error) {
	obj, err := decodeObject(raw)
	if err != nil {
		return ExerciseProgram{}, err
	}

	var r schemaReader
	p := ExerciseProgram{
		Title:       r.requiredString(obj, "", "title"),
		Type:        r.requiredString(obj, "", "type"),
		Goal:        r.optionalString(obj, "", "goal"),
		Difficulty:  requiredEnum(&r, obj, "", "difficulty", difficulties),
		Frequency:   r.requiredInt(obj, "", "frequency", 1),
		Duration:    r.requiredString(obj, "", "duration"),
		Notes:       r.optionalString(obj, "", "notes"),
		Workouts:    nil,
		AIGenerated: true,
	}
	for i, w := range r.objectList(obj, "", "workouts") {
		if w != nil {
			p.Workouts = append(p.Workouts, r.workout(w, fmt.Sprintf("workouts[%d]", i)))
		}
	}
	if err = r.err(); err != nil {
		return ExerciseProgram{}, err
	}

	ids := newIDAssigner(runAt)
	for i := range p.Workouts {
		w := &p.Workouts[i]
		w.ID = ids.assign(w.ID, fmt.Sprintf("w%d", i))
		for j := range w.Exercises {
			e := &w.Exercises[j]
			e.ID = ids.assign(e.ID, fmt.Sprintf("w%d-e%d", i, j))
		}
	}
	return p, nil
}

func (r *schemaReader) workout(obj map[string]any, path string) Workout {
	w := Workout{
		ID:        idOf(obj),
		Name:      r.requiredString(obj, path, "name"),
		Day:       r.requiredString(obj, path, "day"),
		Duration:  r.requiredInt(obj, path, "duration", 1),
		Exercises: nil,
	}
	for i, e := range r.objectList(obj, path, "exercises") {
		if e != nil {
			w.Exercises = append(w.Exercises, r.exercise(e, fmt.Sprintf("%s.exercises[%d]", path, i)))
		}
	}
	return w
}

func (r *schemaReader) exercise(obj map[string]any, path string) Exercise {
	e := Exercise{
		ID:            idOf(obj),
		Name:          r.requiredString(obj, path, "name"),
		Type:          requiredEnum(r, obj, path, "type", exerciseTypes),
		Sets:          r.optionalInt(obj, path, "sets"),
		Reps:          r.optionalInt(obj, path, "reps"),
		Duration:      r.optionalInt(obj, path, "duration"),
		RestTime:      r.optionalInt(obj, path, "restTime"),
		Instructions:  r.optionalString(obj, path, "instructions"),
		TargetMuscles: r.stringList(obj, path, "targetMuscles"),
	}

	positive := func(v *int) bool { return v != nil && *v > 0 }
	switch e.Type {
	case ExerciseTypeCardio:
		if !positive(e.Duration) {
			r.fail(join(path, "duration"))
		}
	case ExerciseTypeStrength:
		if !positive(e.Sets) {
			r.fail(join(path, "sets"))
		}
		if !positive(e.Reps) {
			r.fail(join(path, "reps"))
		}
	case ExerciseTypeFlexibility, ExerciseTypeBalance:
		if !positive(e.Duration) && !(positive(e.Sets) && positive(e.Reps)) {
			r.fail(join(path, "duration"))
		}
	}
	return e
}

// ParseDietProgram is the diet counterpart of ParseExerciseProgram. Meals and foods get IDs and AIGenerated is
// always true.
func ParseDietProgram(raw string, runAt time.Time) (DietProgram, error) {
	obj, err := decodeObject(raw)
	if err != nil {
		return DietProgram{}, err
	}

	var r schemaReader
	p := DietProgram{
		Title:         r.requiredString(obj, "", "title"),
		Type:          r.requiredString(obj, "", "type"),
		Goal:          r.optionalString(obj, "", "goal"),
		DailyCalories: r.requiredInt(obj, "", "dailyCalories", 1),
		Duration:      r.requiredString(obj, "", "duration"),
		Notes:         r.optionalString(obj, "", "notes"),
		Meals:         nil,
		AIGenerated:   true,
	}
	for i, m := range r.objectList(obj, "", "meals") {
		if m != nil {
			p.Meals = append(p.Meals, r.meal(m, fmt.Sprintf("meals[%d]", i)))
		}
	}
	if err = r.err(); err != nil {
		return DietProgram{}, err
	}

	ids := newIDAssigner(runAt)
	for i := range p.Meals {
		m := &p.Meals[i]
		m.ID = ids.assign(m.ID, fmt.Sprintf("m%d", i))
		for j := range m.Foods {
			f := &m.Foods[j]
			f.ID = ids.assign(f.ID, fmt.Sprintf("m%d-f%d", i, j))
		}
	}
	return p, nil
}

func (r *schemaReader) meal(obj map[string]any, path string) Meal {
	m := Meal{
		ID:       idOf(obj),
		Name:     r.requiredString(obj, path, "name"),
		Time:     r.requiredString(obj, path, "time"),
		Calories: r.requiredInt(obj, path, "calories", 0),
		Foods:    nil,
	}
	for i, f := range r.objectList(obj, path, "foods") {
		if f != nil {
			m.Foods = append(m.Foods, r.food(f, fmt.Sprintf("%s.foods[%d]", path, i)))
		}
	}
	return m
}

func (r *schemaReader) food(obj map[string]any, path string) Food {
	return Food{
		ID:       idOf(obj),
		Name:     r.requiredString(obj, path, "name"),
		Amount:   r.requiredString(obj, path, "amount"),
		Calories: r.requiredInt(obj, path, "calories", 0),
		Protein:  r.optionalFloat(obj, path, "protein"),
		Carbs:    r.optionalFloat(obj, path, "carbs"),
		Fat:      r.optionalFloat(obj, path, "fat"),
	}
}

// idAssigner hands out IDs of the form ai-<runUnixMilli>-<suffix>. Model supplied IDs are kept when unique.
type idAssigner struct {
	prefix string
	seen   map[string]struct{}
}

func newIDAssigner(runAt time.Time) *idAssigner {
	return &idAssigner{
		prefix: "ai-" + strconv.FormatInt(runAt.UnixMilli(), 10) + "-",
		seen:   make(map[string]struct{}),
	}
}

func (a *idAssigner) assign(existing, suffix string) string {
	id := existing
	if id == "" {
		id = a.prefix + suffix
	}
	for n := 2; ; n++ {
		if _, dup := a.seen[id]; !dup {
			break
		}
		id = a.prefix + suffix + "-" + strconv.Itoa(n)
	}
	a.seen[id] = struct{}{}
	return id
}
