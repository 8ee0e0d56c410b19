package repository

import (
	"context"
	"errors"

	"github.com/igorsavinkin/ai-diet-planner/internal/model"
)

var (
	// ErrIncompleteProfile — попытка финализации до того, как собраны
	// все базовые поля. При корректной работе конечного автомата
	// недостижимо, но хранилище проверяет это само.
	ErrIncompleteProfile = errors.New("profile is incomplete")

	// ErrNotFound — операция над отсутствующим профилем.
	ErrNotFound = errors.New("profile not found")
)

// ProfileField — закрытое перечисление базовых полей профиля.
type ProfileField int

const (
	FieldGender ProfileField = iota
	FieldAge
	FieldWeight
	FieldHeight
	FieldActivity
	FieldGoal
)

type Repository interface {
	// Get возвращает копию профиля или (nil, nil), если профиля нет.
	Get(ctx context.Context, userID int64) (*model.UserProfile, error)

	// UpsertField создаёт профиль при необходимости, записывает одно
	// базовое поле и сбрасывает производные метрики.
	UpsertField(ctx context.Context, userID int64, field ProfileField, value any) error

	// Finalize проверяет полноту профиля, рассчитывает производные
	// метрики и помечает профиль завершённым.
	Finalize(ctx context.Context, userID int64) (*model.UserProfile, error)

	// IncrementMenuCount увеличивает счётчик сгенерированных меню.
	IncrementMenuCount(ctx context.Context, userID int64) error

	// Clear полностью удаляет профиль пользователя.
	Clear(ctx context.Context, userID int64) error

	// All возвращает снимок всех профилей; порядок не определён.
	All(ctx context.Context) ([]model.UserProfile, error)

	// Count возвращает число профилей.
	Count(ctx context.Context) (int, error)
}
