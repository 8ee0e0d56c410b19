package deepseek

import (
	"fmt"
	"strings"

	"github.com/igorsavinkin/ai-diet-planner/internal/model"
)

// BuildWeeklyMenuPrompt собирает детерминированный запрос на недельное
// меню из завершённого профиля. Один и тот же профиль всегда даёт один
// и тот же текст запроса.
func BuildWeeklyMenuPrompt(p *model.UserProfile) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(
		"Create a personalized weekly meal plan for a %d-year-old %s with the following characteristics:\n",
		deref(p.Age), strings.ToLower(genderLabel(p))))
	sb.WriteString(fmt.Sprintf("- Weight: %.1f kg\n", derefF(p.WeightKG)))
	sb.WriteString(fmt.Sprintf("- Height: %.1f cm\n", derefF(p.HeightCM)))
	sb.WriteString(fmt.Sprintf("- Activity level: %s\n", activityLabel(p)))
	sb.WriteString(fmt.Sprintf("- Goal: %s\n", goalLabel(p)))
	sb.WriteString(fmt.Sprintf("- Daily calorie target: %.0f calories\n", p.CalorieTarget))
	sb.WriteString(fmt.Sprintf("- BMR: %.0f calories\n", p.BMR))
	sb.WriteString(fmt.Sprintf("- TDEE: %.0f calories\n\n", p.TDEE))
	sb.WriteString("Please create a simple, practical weekly menu with breakfast, lunch, dinner, " +
		"and optional snacks for each day, with an approximate calorie count for every meal.\n" +
		"Focus on common, affordable ingredients. Include portion sizes in grams or common measurements.\n" +
		"Format the response with clear day-by-day sections.")
	return sb.String()
}

// BuildDietPrompt — запрос кратких рекомендаций на один день.
func BuildDietPrompt(p *model.UserProfile) string {
	return fmt.Sprintf(
		"Give short, practical daily nutrition recommendations for a %d-year-old %s "+
			"(weight %.1f kg, height %.1f cm, activity: %s, goal: %s) "+
			"with a daily calorie target of %.0f calories. "+
			"Suggest a one-day sample menu with an approximate calorie count per meal.",
		deref(p.Age), strings.ToLower(genderLabel(p)),
		derefF(p.WeightKG), derefF(p.HeightCM),
		activityLabel(p), goalLabel(p), p.CalorieTarget)
}

func genderLabel(p *model.UserProfile) string {
	if p.Gender == nil {
		return "person"
	}
	return p.Gender.Label()
}

func activityLabel(p *model.UserProfile) string {
	if p.Activity == nil {
		return "unknown"
	}
	return p.Activity.Label()
}

func goalLabel(p *model.UserProfile) string {
	if p.Goal == nil {
		return "unknown"
	}
	return p.Goal.Label()
}

func deref(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func derefF(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
