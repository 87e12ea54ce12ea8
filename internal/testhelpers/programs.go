package testhelpers

import (
	"encoding/json"
	"fmt"
)

// ExerciseProgramJSON returns a valid exercise program completion with the given number of workouts.
func ExerciseProgramJSON(workouts int) string {
	ws := make([]any, workouts)
	for i := range ws {
		ws[i] = map[string]any{
			"name":     fmt.Sprintf("Antrenman %d", i+1),
			"day":      fmt.Sprintf("Gün %d", i+1),
			"duration": 45,
			"exercises": []any{
				map[string]any{
					"name":          "Tempolu yürüyüş",
					"type":          "cardio",
					"duration":      900,
					"instructions":  "Rahat bir tempoda **yürü**.",
					"targetMuscles": []any{"bacak"},
				},
				map[string]any{
					"name":          "Squat",
					"type":          "strength",
					"sets":          3,
					"reps":          12,
					"restTime":      60,
					"instructions":  "Dizler ayak uçlarını geçmesin.",
					"targetMuscles": []any{"quadriceps", "kalça"},
				},
			},
		}
	}
	return mustMarshal(map[string]any{
		"title":       "Kilo Verme Programı",
		"type":        "weight_loss",
		"goal":        "4 haftada düzenli egzersiz alışkanlığı",
		"difficulty":  "beginner",
		"frequency":   workouts,
		"duration":    "4 hafta",
		"notes":       "Bol **su** için.\n\n- Ağrı olursa dur.",
		"workouts":    ws,
		"aiGenerated": false,
	})
}

// DietProgramJSON returns a valid diet program completion with two meals.
func DietProgramJSON() string {
	return mustMarshal(map[string]any{
		"title":         "Akdeniz Diyeti",
		"type":          "weight_loss",
		"goal":          "Haftada 0,5 kg kayıp",
		"dailyCalories": 1800,
		"duration":      "8 hafta",
		"notes":         "Günde en az *2 litre* su için.",
		"meals": []any{
			map[string]any{
				"name":     "Kahvaltı",
				"time":     "08:00",
				"calories": 450,
				"foods": []any{
					map[string]any{"name": "Yulaf", "amount": "50 g", "calories": 190, "protein": 6.5, "carbs": 33, "fat": 3.5},
					map[string]any{"name": "Yoğurt", "amount": "1 kase", "calories": 120},
				},
			},
			map[string]any{
				"name":     "Öğle yemeği",
				"time":     "13:00",
				"calories": 600,
				"foods": []any{
					map[string]any{"name": "Izgara tavuk", "amount": "150 g", "calories": 250, "protein": 46},
				},
			},
		},
	})
}

func mustMarshal(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(data)
}
