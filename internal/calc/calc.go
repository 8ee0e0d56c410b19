// Package calc реализует расчёт энергозатрат: BMR по формуле
// Харриса-Бенедикта, TDEE через множитель активности и целевую
// калорийность с учётом цели пользователя. Все функции чистые.
package calc

import (
	"errors"
	"math"

	"github.com/igorsavinkin/ai-diet-planner/internal/model"
)

// ErrInvalidInput возвращается при неположительных метриках тела или
// нераспознанном значении перечисления.
var ErrInvalidInput = errors.New("invalid calculation input")

// activityMultipliers — единственный источник истины по множителям TDEE.
// Используется и для валидации уровня активности.
var activityMultipliers = map[model.ActivityLevel]float64{
	model.NoActivity: 1.2,
	model.Minimal:    1.375,
	model.Medium:     1.55,
	model.High:       1.725,
	model.VeryHigh:   1.9,
}

// Adjustment — настраиваемые параметры пересчёта TDEE в целевую
// калорийность. Значения приходят из конфигурации, не зашиты в код.
type Adjustment struct {
	Deficit float64 // вычитается при похудении
	Surplus float64 // прибавляется при наборе веса
	Floor   float64 // безопасный минимум при похудении
}

// ComputeBMR считает базовый метаболизм по Харрису-Бенедикту.
// Мужчины: 66 + 13.7*вес + 5*рост - 6.8*возраст.
// Женщины: 655 + 9.6*вес + 1.8*рост - 4.7*возраст.
func ComputeBMR(gender model.Gender, weightKG, heightCM float64, age int) (float64, error) {
	// Проверка вида !(x > 0) отсекает и NaN: любое сравнение с NaN ложно
	if !(weightKG > 0) || !(heightCM > 0) || math.IsInf(weightKG, 0) || math.IsInf(heightCM, 0) || age <= 0 {
		return 0, ErrInvalidInput
	}

	switch gender {
	case model.Male:
		return 66 + 13.7*weightKG + 5*heightCM - 6.8*float64(age), nil
	case model.Female:
		return 655 + 9.6*weightKG + 1.8*heightCM - 4.7*float64(age), nil
	}
	return 0, ErrInvalidInput
}

// ComputeTDEE умножает BMR на множитель уровня активности.
func ComputeTDEE(bmr float64, level model.ActivityLevel) (float64, error) {
	if !(bmr > 0) {
		return 0, ErrInvalidInput
	}
	mult, ok := activityMultipliers[level]
	if !ok {
		return 0, ErrInvalidInput
	}
	return bmr * mult, nil
}

// ComputeCalorieTarget корректирует TDEE под цель. При похудении
// результат не опускается ниже безопасного минимума.
func ComputeCalorieTarget(tdee float64, goal model.Goal, adj Adjustment) (float64, error) {
	if !(tdee > 0) {
		return 0, ErrInvalidInput
	}

	switch goal {
	case model.LoseWeight:
		target := tdee - adj.Deficit
		if target < adj.Floor {
			target = adj.Floor
		}
		return target, nil
	case model.Maintain:
		return tdee, nil
	case model.GainWeight:
		return tdee + adj.Surplus, nil
	}
	return 0, ErrInvalidInput
}

// Derive прогоняет полный профиль через все три расчёта.
// Промежуточные значения не округляются: округление — задача
// слоя представления.
func Derive(gender model.Gender, weightKG, heightCM float64, age int, level model.ActivityLevel, goal model.Goal, adj Adjustment) (bmr, tdee, target float64, err error) {
	bmr, err = ComputeBMR(gender, weightKG, heightCM, age)
	if err != nil {
		return 0, 0, 0, err
	}
	tdee, err = ComputeTDEE(bmr, level)
	if err != nil {
		return 0, 0, 0, err
	}
	target, err = ComputeCalorieTarget(tdee, goal, adj)
	if err != nil {
		return 0, 0, 0, err
	}
	return bmr, tdee, target, nil
}
