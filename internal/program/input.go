package program

import (
	"slices"
	"strings"
)

// InputError lists the invalid patient or goal fields by their JSON names.
type InputError struct {
	Fields []string
}

func (e *InputError) Error() string {
	return "invalid input: " + strings.Join(e.Fields, ", ")
}

const maxSessionsPerWeek = 7

//nolint:gochecknoglobals // enum sets.
var (
	genders        = []Gender{GenderFemale, GenderMale}
	activityLevels = []ActivityLevel{
		ActivitySedentary, ActivityLight, ActivityModerate, ActivityActive, ActivityVeryActive,
	}
	fitnessLevels = []FitnessLevel{FitnessBeginner, FitnessIntermediate, FitnessAdvanced}
	difficulties  = []Difficulty{DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced}
	exerciseGoals = []ExerciseGoalType{
		ExerciseGoalWeightLoss, ExerciseGoalMuscleGain, ExerciseGoalEndurance, ExerciseGoalStrength,
		ExerciseGoalFlexibility, ExerciseGoalRehabilitation, ExerciseGoalGeneralFitness,
	}
	dietGoals = []DietGoalType{
		DietGoalWeightLoss, DietGoalWeightGain, DietGoalMaintenance, DietGoalMuscleGain, DietGoalMedical,
		DietGoalHealthyEating,
	}
	exerciseTypes = []ExerciseType{
		ExerciseTypeCardio, ExerciseTypeStrength, ExerciseTypeFlexibility, ExerciseTypeBalance,
	}
)

type fieldChecker struct {
	fields []string
}

func (c *fieldChecker) check(ok bool, field string) {
	if !ok {
		c.fields = append(c.fields, field)
	}
}

func (c *fieldChecker) err() error {
	if len(c.fields) == 0 {
		return nil
	}
	return &InputError{Fields: c.fields}
}

func (c *fieldChecker) anthropometrics(age int, gender Gender, height, current, target float64, level ActivityLevel) {
	c.check(age > 0, "age")
	c.check(slices.Contains(genders, gender), "gender")
	c.check(height > 0, "height")
	c.check(current > 0, "currentWeight")
	c.check(target > 0, "targetWeight")
	c.check(slices.Contains(activityLevels, level), "activityLevel")
}

// Validate reports every invalid field as an *InputError.
func (p PatientExerciseInfo) Validate() error {
	var c fieldChecker
	c.anthropometrics(p.Age, p.Gender, p.HeightCm, p.CurrentWeightKg, p.TargetWeightKg, p.ActivityLevel)
	c.check(slices.Contains(fitnessLevels, p.FitnessLevel), "fitnessLevel")
	return c.err()
}

func (p PatientDietInfo) Validate() error {
	var c fieldChecker
	c.anthropometrics(p.Age, p.Gender, p.HeightCm, p.CurrentWeightKg, p.TargetWeightKg, p.ActivityLevel)
	return c.err()
}

func (g ExerciseGoal) Validate() error {
	var c fieldChecker
	c.check(slices.Contains(exerciseGoals, g.Type), "goal.type")
	c.check(slices.Contains(difficulties, g.Difficulty), "goal.difficulty")
	c.check(g.Frequency > 0 && g.Frequency <= maxSessionsPerWeek, "goal.frequency")
	c.check(strings.TrimSpace(g.Duration) != "", "goal.duration")
	c.check(g.SessionMinutes >= 0, "goal.sessionMinutes")
	return c.err()
}

func (g DietGoal) Validate() error {
	var c fieldChecker
	c.check(slices.Contains(dietGoals, g.Type), "goal.type")
	c.check(g.DailyCalories > 0, "goal.dailyCalories")
	c.check(g.MealsPerDay > 0, "goal.mealsPerDay")
	c.check(strings.TrimSpace(g.Duration) != "", "goal.duration")
	return c.err()
}

// Normalize returns a copy with trimmed free text. The receiver is not modified.
func (p PatientExerciseInfo) Normalize() PatientExerciseInfo {
	p.MedicalHistory = strings.TrimSpace(p.MedicalHistory)
	p.Diseases = strings.TrimSpace(p.Diseases)
	p.Injuries = strings.TrimSpace(p.Injuries)
	return p
}

func (p PatientDietInfo) Normalize() PatientDietInfo {
	p.Allergies = strings.TrimSpace(p.Allergies)
	p.Diseases = strings.TrimSpace(p.Diseases)
	p.Medications = strings.TrimSpace(p.Medications)
	return p
}

// Normalize returns a copy with trimmed duration and cleaned tag sets. The receiver's slices are not modified.
func (g ExerciseGoal) Normalize() ExerciseGoal {
	g.Duration = strings.TrimSpace(g.Duration)
	g.Restrictions = normalizeTags(g.Restrictions)
	g.Preferences = normalizeTags(g.Preferences)
	g.Equipment = normalizeTags(g.Equipment)
	return g
}

func (g DietGoal) Normalize() DietGoal {
	g.Duration = strings.TrimSpace(g.Duration)
	g.Restrictions = normalizeTags(g.Restrictions)
	g.Preferences = normalizeTags(g.Preferences)
	g.DislikedFoods = normalizeTags(g.DislikedFoods)
	return g
}

// normalizeTags trims entries, drops empty ones and removes case-insensitive duplicates keeping the first.
func normalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		key := strings.ToLower(tag)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, tag)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
