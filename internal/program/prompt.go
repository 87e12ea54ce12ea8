package program

import (
	"fmt"
	"strconv"
	"strings"
)

//nolint:gochecknoglobals // static label tables.
var (
	activityLabels = map[ActivityLevel]string{
		ActivitySedentary:  "hareketsiz",
		ActivityLight:      "az hareketli",
		ActivityModerate:   "orta derecede hareketli",
		ActivityActive:     "hareketli",
		ActivityVeryActive: "çok hareketli",
	}
	fitnessLabels = map[FitnessLevel]string{
		FitnessBeginner:     "başlangıç",
		FitnessIntermediate: "orta",
		FitnessAdvanced:     "ileri",
	}
)

const exerciseSchema = `{
  "title": string,
  "type": string,
  "goal": string,
  "difficulty": "beginner" | "intermediate" | "advanced",
  "frequency": integer (haftalık antrenman sayısı),
  "duration": string,
  "notes": string,
  "workouts": [
    {
      "name": string,
      "day": string,
      "duration": integer (dakika),
      "exercises": [
        {
          "name": string,
          "type": "cardio" | "strength" | "flexibility" | "balance",
          "sets": integer (strength için zorunlu),
          "reps": integer (strength için zorunlu),
          "duration": integer (saniye, cardio için zorunlu),
          "restTime": integer (saniye),
          "instructions": string,
          "targetMuscles": [string]
        }
      ]
    }
  ]
}`

const dietSchema = `{
  "title": string,
  "type": string,
  "goal": string,
  "dailyCalories": integer (kcal),
  "duration": string,
  "notes": string,
  "meals": [
    {
      "name": string,
      "time": string (SS:DD),
      "calories": integer (kcal),
      "foods": [
        {
          "name": string,
          "amount": string,
          "calories": integer (kcal),
          "protein": number (gram),
          "carbs": number (gram),
          "fat": number (gram)
        }
      ]
    }
  ]
}`

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// optionalLine writes "label: value" only when value is non-empty.
func optionalLine(b *strings.Builder, label, value string) {
	if value != "" {
		fmt.Fprintf(b, "- %s: %s\n", label, value)
	}
}

func tagLine(b *strings.Builder, label string, tags []string) {
	if len(tags) > 0 {
		fmt.Fprintf(b, "- %s: %s\n", label, strings.Join(tags, ", "))
	}
}

func rules(b *strings.Builder, rules ...string) {
	b.WriteString("\nKURALLAR:\n")
	for i, r := range rules {
		fmt.Fprintf(b, "%d. %s\n", i+1, r)
	}
}

// BuildExercisePrompt renders the instruction for generating an exercise program. It is a pure function of its
// inputs; every non-empty value appears literally in the output.
func BuildExercisePrompt(info PatientExerciseInfo, goal ExerciseGoal) string {
	var b strings.Builder

	b.WriteString("Sen deneyimli bir egzersiz fizyoloğu ve diyetisyen ekibinin parçasısın. ")
	b.WriteString("Aşağıdaki hasta için kişiye özel bir egzersiz programı hazırla.\n\n")

	b.WriteString("HASTA BİLGİLERİ:\n")
	fmt.Fprintf(&b, "- Yaş: %d\n", info.Age)
	fmt.Fprintf(&b, "- Cinsiyet: %s\n", info.Gender)
	fmt.Fprintf(&b, "- Boy: %s cm\n", formatNumber(info.HeightCm))
	fmt.Fprintf(&b, "- Mevcut kilo: %s kg\n", formatNumber(info.CurrentWeightKg))
	fmt.Fprintf(&b, "- Hedef kilo: %s kg\n", formatNumber(info.TargetWeightKg))
	fmt.Fprintf(&b, "- Aktivite seviyesi: %s (%s)\n", info.ActivityLevel, activityLabels[info.ActivityLevel])
	fmt.Fprintf(&b, "- Kondisyon seviyesi: %s (%s)\n", info.FitnessLevel, fitnessLabels[info.FitnessLevel])
	optionalLine(&b, "Tıbbi geçmiş", info.MedicalHistory)
	optionalLine(&b, "Hastalıklar", info.Diseases)
	optionalLine(&b, "Sakatlıklar", info.Injuries)

	b.WriteString("\nPROGRAM HEDEFİ:\n")
	fmt.Fprintf(&b, "- Hedef türü: %s\n", goal.Type)
	fmt.Fprintf(&b, "- Zorluk: %s\n", goal.Difficulty)
	fmt.Fprintf(&b, "- Haftalık antrenman sayısı: %d\n", goal.Frequency)
	fmt.Fprintf(&b, "- Program süresi: %s\n", goal.Duration)
	if goal.SessionMinutes > 0 {
		fmt.Fprintf(&b, "- Antrenman başına süre: %d dakika\n", goal.SessionMinutes)
	}
	tagLine(&b, "Kısıtlamalar", goal.Restrictions)
	tagLine(&b, "Tercihler", goal.Preferences)
	tagLine(&b, "Kullanılabilir ekipman", goal.Equipment)

	b.WriteString("\nYanıtını yalnızca aşağıdaki şemaya uyan tek bir JSON nesnesi olarak ver:\n")
	b.WriteString(exerciseSchema)
	b.WriteString("\n")

	rules(&b,
		"Yalnızca geçerli JSON döndür. JSON dışında açıklama yazma, Markdown kod bloğu kullanma.",
		fmt.Sprintf(`"workouts" dizisi tam olarak %d antrenman içermeli ve "frequency" değeri %d olmalı.`,
			goal.Frequency, goal.Frequency),
		`Egzersiz adları, talimatlar ve notlar Türkçe olmalı; hedef kas adlarında Türkçe terimler kullan.`,
		fmt.Sprintf("Egzersizleri %s zorluk ve %s kondisyon seviyesine uygun seç.", goal.Difficulty, info.FitnessLevel),
		"Tıbbi geçmiş, hastalıklar, sakatlıklar ve kısıtlamalarla çelişen (kontrendike) hiçbir egzersiz ekleme.",
		"Her antrenmana ısınma ve soğuma ekle, setler arası dinlenme süresini (restTime) belirt.",
		`"cardio" egzersizlerinde "duration", "strength" egzersizlerinde "sets" ve "reps" zorunludur.`,
		`"notes" alanında güvenlik uyarıları ve ilerleme önerileri ver.`,
	)
	return b.String()
}

// BuildDietPrompt renders the instruction for generating a diet program.
func BuildDietPrompt(info PatientDietInfo, goal DietGoal) string {
	var b strings.Builder

	b.WriteString("Sen deneyimli bir diyetisyensin. ")
	b.WriteString("Aşağıdaki hasta için kişiye özel bir beslenme programı hazırla.\n\n")

	b.WriteString("HASTA BİLGİLERİ:\n")
	fmt.Fprintf(&b, "- Yaş: %d\n", info.Age)
	fmt.Fprintf(&b, "- Cinsiyet: %s\n", info.Gender)
	fmt.Fprintf(&b, "- Boy: %s cm\n", formatNumber(info.HeightCm))
	fmt.Fprintf(&b, "- Mevcut kilo: %s kg\n", formatNumber(info.CurrentWeightKg))
	fmt.Fprintf(&b, "- Hedef kilo: %s kg\n", formatNumber(info.TargetWeightKg))
	fmt.Fprintf(&b, "- Aktivite seviyesi: %s (%s)\n", info.ActivityLevel, activityLabels[info.ActivityLevel])
	optionalLine(&b, "Alerjiler", info.Allergies)
	optionalLine(&b, "Hastalıklar", info.Diseases)
	optionalLine(&b, "Kullandığı ilaçlar", info.Medications)

	b.WriteString("\nPROGRAM HEDEFİ:\n")
	fmt.Fprintf(&b, "- Hedef türü: %s\n", goal.Type)
	fmt.Fprintf(&b, "- Günlük kalori: %d kcal\n", goal.DailyCalories)
	fmt.Fprintf(&b, "- Günlük öğün sayısı: %d\n", goal.MealsPerDay)
	fmt.Fprintf(&b, "- Program süresi: %s\n", goal.Duration)
	tagLine(&b, "Kısıtlamalar", goal.Restrictions)
	tagLine(&b, "Tercihler", goal.Preferences)
	tagLine(&b, "Sevmediği besinler", goal.DislikedFoods)

	b.WriteString("\nYanıtını yalnızca aşağıdaki şemaya uyan tek bir JSON nesnesi olarak ver:\n")
	b.WriteString(dietSchema)
	b.WriteString("\n")

	rules(&b,
		"Yalnızca geçerli JSON döndür. JSON dışında açıklama yazma, Markdown kod bloğu kullanma.",
		fmt.Sprintf(`"meals" dizisi tam olarak %d öğün içermeli, öğün kalorilerinin toplamı yaklaşık %d kcal olmalı.`,
			goal.MealsPerDay, goal.DailyCalories),
		"Besin adları, miktarlar ve notlar Türkçe olmalı; miktarları gram veya ev ölçüsüyle yaz.",
		"Alerjiler, hastalıklar, ilaç etkileşimleri ve kısıtlamalarla çelişen hiçbir besin ekleme.",
		"Sevmediği besinleri kullanma, tercihleri mümkün olduğunca uygula.",
		fmt.Sprintf("Porsiyonları %s aktivite seviyesine uygun seç.", info.ActivityLevel),
		`"notes" alanında su tüketimi ve güvenli kilo değişimi hakkında öneriler ver.`,
	)
	return b.String()
}
