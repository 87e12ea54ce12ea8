package program

// Gender values use the Turkish labels stored in patient records.
type Gender string

const (
	GenderFemale Gender = "Kadın"
	GenderMale   Gender = "Erkek"
)

// ActivityLevel is the patient's everyday activity, from least to most active.
type ActivityLevel string

const (
	ActivitySedentary  ActivityLevel = "sedentary"
	ActivityLight      ActivityLevel = "light"
	ActivityModerate   ActivityLevel = "moderate"
	ActivityActive     ActivityLevel = "active"
	ActivityVeryActive ActivityLevel = "very_active"
)

// FitnessLevel is the patient's training experience.
type FitnessLevel string

const (
	FitnessBeginner     FitnessLevel = "beginner"
	FitnessIntermediate FitnessLevel = "intermediate"
	FitnessAdvanced     FitnessLevel = "advanced"
)

// Difficulty of a generated exercise program.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

type ExerciseGoalType string

const (
	ExerciseGoalWeightLoss     ExerciseGoalType = "weight_loss"
	ExerciseGoalMuscleGain     ExerciseGoalType = "muscle_gain"
	ExerciseGoalEndurance      ExerciseGoalType = "endurance"
	ExerciseGoalStrength       ExerciseGoalType = "strength"
	ExerciseGoalFlexibility    ExerciseGoalType = "flexibility"
	ExerciseGoalRehabilitation ExerciseGoalType = "rehabilitation"
	ExerciseGoalGeneralFitness ExerciseGoalType = "general_fitness"
)

type DietGoalType string

const (
	DietGoalWeightLoss    DietGoalType = "weight_loss"
	DietGoalWeightGain    DietGoalType = "weight_gain"
	DietGoalMaintenance   DietGoalType = "maintenance"
	DietGoalMuscleGain    DietGoalType = "muscle_gain"
	DietGoalMedical       DietGoalType = "medical"
	DietGoalHealthyEating DietGoalType = "healthy_eating"
)

// ExerciseType tags an exercise and decides which load fields it must carry.
type ExerciseType string

const (
	ExerciseTypeCardio      ExerciseType = "cardio"
	ExerciseTypeStrength    ExerciseType = "strength"
	ExerciseTypeFlexibility ExerciseType = "flexibility"
	ExerciseTypeBalance     ExerciseType = "balance"
)

// PatientExerciseInfo is the patient profile used for exercise program generation.
type PatientExerciseInfo struct {
	Age             int           `json:"age"`
	Gender          Gender        `json:"gender"`
	HeightCm        float64       `json:"height"`
	CurrentWeightKg float64       `json:"currentWeight"`
	TargetWeightKg  float64       `json:"targetWeight"`
	ActivityLevel   ActivityLevel `json:"activityLevel"`
	FitnessLevel    FitnessLevel  `json:"fitnessLevel"`
	MedicalHistory  string        `json:"medicalHistory,omitempty"`
	Diseases        string        `json:"diseases,omitempty"`
	Injuries        string        `json:"injuries,omitempty"`
}

// PatientDietInfo is the patient profile used for diet program generation.
type PatientDietInfo struct {
	Age             int           `json:"age"`
	Gender          Gender        `json:"gender"`
	HeightCm        float64       `json:"height"`
	CurrentWeightKg float64       `json:"currentWeight"`
	TargetWeightKg  float64       `json:"targetWeight"`
	ActivityLevel   ActivityLevel `json:"activityLevel"`
	Allergies       string        `json:"allergies,omitempty"`
	Diseases        string        `json:"diseases,omitempty"`
	Medications     string        `json:"medications,omitempty"`
}

// ExerciseGoal holds what the dietitian wants the exercise program to achieve.
// Restrictions, Preferences and Equipment are sets; order carries no meaning.
type ExerciseGoal struct {
	Type           ExerciseGoalType `json:"type"`
	Difficulty     Difficulty       `json:"difficulty"`
	Frequency      int              `json:"frequency"`
	Duration       string           `json:"duration"`
	SessionMinutes int              `json:"sessionMinutes,omitempty"`
	Restrictions   []string         `json:"restrictions,omitempty"`
	Preferences    []string         `json:"preferences,omitempty"`
	Equipment      []string         `json:"equipment,omitempty"`
}

// DietGoal holds what the dietitian wants the diet program to achieve.
type DietGoal struct {
	Type          DietGoalType `json:"type"`
	DailyCalories int          `json:"dailyCalories"`
	MealsPerDay   int          `json:"mealsPerDay"`
	Duration      string       `json:"duration"`
	Restrictions  []string     `json:"restrictions,omitempty"`
	Preferences   []string     `json:"preferences,omitempty"`
	DislikedFoods []string     `json:"dislikedFoods,omitempty"`
}

// ExerciseProgram is a generated exercise program. AIGenerated is always true for parser output.
type ExerciseProgram struct {
	Title       string     `json:"title"`
	Type        string     `json:"type"`
	Goal        string     `json:"goal"`
	Difficulty  Difficulty `json:"difficulty"`
	Frequency   int        `json:"frequency"`
	Duration    string     `json:"duration"`
	Notes       string     `json:"notes"`
	Workouts    []Workout  `json:"workouts"`
	AIGenerated bool       `json:"aiGenerated"`
}

type Workout struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Day  string `json:"day"`
	// Duration in minutes.
	Duration  int        `json:"duration"`
	Exercises []Exercise `json:"exercises"`
}

// Exercise load fields are optional. Duration and RestTime are in seconds.
type Exercise struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	Type          ExerciseType `json:"type"`
	Sets          *int         `json:"sets,omitempty"`
	Reps          *int         `json:"reps,omitempty"`
	Duration      *int         `json:"duration,omitempty"`
	RestTime      *int         `json:"restTime,omitempty"`
	Instructions  string       `json:"instructions"`
	TargetMuscles []string     `json:"targetMuscles"`
}

// DietProgram is a generated diet program. AIGenerated is always true for parser output.
type DietProgram struct {
	Title         string `json:"title"`
	Type          string `json:"type"`
	Goal          string `json:"goal"`
	DailyCalories int    `json:"dailyCalories"`
	Duration      string `json:"duration"`
	Notes         string `json:"notes"`
	Meals         []Meal `json:"meals"`
	AIGenerated   bool   `json:"aiGenerated"`
}

type Meal struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Time     string `json:"time"`
	Calories int    `json:"calories"`
	Foods    []Food `json:"foods"`
}

// Food macros are grams and optional.
type Food struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Amount   string   `json:"amount"`
	Calories int      `json:"calories"`
	Protein  *float64 `json:"protein,omitempty"`
	Carbs    *float64 `json:"carbs,omitempty"`
	Fat      *float64 `json:"fat,omitempty"`
}
