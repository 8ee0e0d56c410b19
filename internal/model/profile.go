package model

import (
	"strings"
	"time"
)

// Gender — пол пользователя, влияет на выбор формулы Харриса-Бенедикта.
type Gender string

const (
	Male   Gender = "male"
	Female Gender = "female"
)

// ActivityLevel — уровень физической активности, определяет множитель TDEE.
type ActivityLevel string

const (
	NoActivity ActivityLevel = "no_activity"
	Minimal    ActivityLevel = "minimal"
	Medium     ActivityLevel = "medium"
	High       ActivityLevel = "high"
	VeryHigh   ActivityLevel = "very_high"
)

// Goal — цель пользователя по весу.
type Goal string

const (
	LoseWeight Goal = "lose_weight"
	Maintain   Goal = "maintain"
	GainWeight Goal = "gain_weight"
)

// UserProfile хранит анкетные данные пользователя и производные метрики.
// Базовые поля — указатели: nil означает «ещё не собрано». Производные
// поля заполняются только целиком, при финализации профиля.
type UserProfile struct {
	UserID int64 `json:"user_id"`

	Gender   *Gender        `json:"gender,omitempty"`
	Age      *int           `json:"age,omitempty"`
	WeightKG *float64       `json:"weight_kg,omitempty"`
	HeightCM *float64       `json:"height_cm,omitempty"`
	Activity *ActivityLevel `json:"activity_level,omitempty"`
	Goal     *Goal          `json:"goal,omitempty"`

	BMR           float64 `json:"bmr,omitempty"`
	TDEE          float64 `json:"tdee,omitempty"`
	CalorieTarget float64 `json:"calorie_target,omitempty"`
	Completed     bool    `json:"completed"`

	MenuGenerations int       `json:"menu_generations"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// HasAllBaseFields сообщает, собраны ли все анкетные поля.
func (p *UserProfile) HasAllBaseFields() bool {
	return p.Gender != nil && p.Age != nil && p.WeightKG != nil &&
		p.HeightCM != nil && p.Activity != nil && p.Goal != nil
}

// InvalidateDerived сбрасывает производные метрики: любое изменение
// базового поля делает их недостоверными.
func (p *UserProfile) InvalidateDerived() {
	p.BMR = 0
	p.TDEE = 0
	p.CalorieTarget = 0
	p.Completed = false
}

// Label возвращает человекочитаемую подпись для кнопок и отчётов.
func (g Gender) Label() string {
	if g == Female {
		return "Female"
	}
	return "Male"
}

func (a ActivityLevel) Label() string {
	switch a {
	case NoActivity:
		return "No activity"
	case Minimal:
		return "Minimal activity"
	case Medium:
		return "Medium activity"
	case High:
		return "Above average activity"
	case VeryHigh:
		return "High activity"
	}
	return string(a)
}

func (g Goal) Label() string {
	switch g {
	case LoseWeight:
		return "Lose weight"
	case Maintain:
		return "Maintain weight"
	case GainWeight:
		return "Gain weight"
	}
	return string(g)
}

// ParseGender распознаёт ответ пользователя без учёта регистра.
func ParseGender(s string) (Gender, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "male", "m":
		return Male, true
	case "female", "f":
		return Female, true
	}
	return "", false
}

// ParseActivityLevel принимает как подписи кнопок, так и короткие формы.
func ParseActivityLevel(s string) (ActivityLevel, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "no activity", "none", "no_activity":
		return NoActivity, true
	case "minimal activity", "minimal":
		return Minimal, true
	case "medium activity", "medium":
		return Medium, true
	case "above average activity", "above average", "high":
		return High, true
	case "high activity", "very high", "very_high":
		return VeryHigh, true
	}
	return "", false
}

func ParseGoal(s string) (Goal, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lose weight", "lose", "lose_weight":
		return LoseWeight, true
	case "maintain weight", "maintain":
		return Maintain, true
	case "gain weight", "gain", "gain_weight":
		return GainWeight, true
	}
	return "", false
}
