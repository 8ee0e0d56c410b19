package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/igorsavinkin/ai-diet-planner/internal/calc"
	"github.com/igorsavinkin/ai-diet-planner/internal/model"
)

// MemoryRepository — хранилище профилей в памяти процесса. Данные
// живут ровно столько, сколько живёт процесс: долговременное хранение
// сознательно не поддерживается.
//
// Один мьютекс на всю карту: все операции короткие и не выполняют
// блокирующих вызовов, поэтому мутации одного пользователя
// сериализованы, а конкуренция между пользователями незаметна.
type MemoryRepository struct {
	mu       sync.RWMutex
	profiles map[int64]*model.UserProfile
	adj      calc.Adjustment
}

func NewMemoryRepository(adj calc.Adjustment) *MemoryRepository {
	return &MemoryRepository{
		profiles: make(map[int64]*model.UserProfile),
		adj:      adj,
	}
}

func (r *MemoryRepository) Get(ctx context.Context, userID int64) (*model.UserProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.profiles[userID]
	if !ok {
		return nil, nil
	}
	cp := cloneProfile(p)
	return &cp, nil
}

func (r *MemoryRepository) UpsertField(ctx context.Context, userID int64, field ProfileField, value any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	p, ok := r.profiles[userID]
	if !ok {
		p = &model.UserProfile{UserID: userID, CreatedAt: now}
		r.profiles[userID] = p
	}

	if err := setField(p, field, value); err != nil {
		return err
	}

	// Любое изменение базового поля делает производные метрики
	// недостоверными до следующей финализации
	p.InvalidateDerived()
	p.UpdatedAt = now
	return nil
}

func (r *MemoryRepository) Finalize(ctx context.Context, userID int64) (*model.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.profiles[userID]
	if !ok {
		return nil, ErrIncompleteProfile
	}
	if !p.HasAllBaseFields() {
		return nil, ErrIncompleteProfile
	}

	bmr, tdee, target, err := calc.Derive(*p.Gender, *p.WeightKG, *p.HeightCM, *p.Age, *p.Activity, *p.Goal, r.adj)
	if err != nil {
		return nil, fmt.Errorf("failed to derive metrics: %w", err)
	}

	p.BMR = bmr
	p.TDEE = tdee
	p.CalorieTarget = target
	p.Completed = true
	p.UpdatedAt = time.Now()

	cp := cloneProfile(p)
	return &cp, nil
}

func (r *MemoryRepository) IncrementMenuCount(ctx context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.profiles[userID]
	if !ok {
		return ErrNotFound
	}
	p.MenuGenerations++
	p.UpdatedAt = time.Now()
	return nil
}

func (r *MemoryRepository) Clear(ctx context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.profiles, userID)
	return nil
}

func (r *MemoryRepository) All(ctx context.Context) ([]model.UserProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.UserProfile, 0, len(r.profiles))
	for _, p := range r.profiles {
		out = append(out, cloneProfile(p))
	}
	return out, nil
}

func (r *MemoryRepository) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.profiles), nil
}

// setField записывает значение в соответствующее базовое поле.
// Несовпадение типа — ошибка программирования вызывающего кода.
func setField(p *model.UserProfile, field ProfileField, value any) error {
	switch field {
	case FieldGender:
		v, ok := value.(model.Gender)
		if !ok {
			return fmt.Errorf("field gender: unexpected type %T", value)
		}
		p.Gender = &v
	case FieldAge:
		v, ok := value.(int)
		if !ok {
			return fmt.Errorf("field age: unexpected type %T", value)
		}
		p.Age = &v
	case FieldWeight:
		v, ok := value.(float64)
		if !ok {
			return fmt.Errorf("field weight: unexpected type %T", value)
		}
		p.WeightKG = &v
	case FieldHeight:
		v, ok := value.(float64)
		if !ok {
			return fmt.Errorf("field height: unexpected type %T", value)
		}
		p.HeightCM = &v
	case FieldActivity:
		v, ok := value.(model.ActivityLevel)
		if !ok {
			return fmt.Errorf("field activity: unexpected type %T", value)
		}
		p.Activity = &v
	case FieldGoal:
		v, ok := value.(model.Goal)
		if !ok {
			return fmt.Errorf("field goal: unexpected type %T", value)
		}
		p.Goal = &v
	default:
		return fmt.Errorf("unknown profile field %d", field)
	}
	return nil
}

// cloneProfile возвращает глубокую копию: указатели на базовые поля
// не должны разделяться с внутренним состоянием хранилища.
func cloneProfile(p *model.UserProfile) model.UserProfile {
	cp := *p
	if p.Gender != nil {
		v := *p.Gender
		cp.Gender = &v
	}
	if p.Age != nil {
		v := *p.Age
		cp.Age = &v
	}
	if p.WeightKG != nil {
		v := *p.WeightKG
		cp.WeightKG = &v
	}
	if p.HeightCM != nil {
		v := *p.HeightCM
		cp.HeightCM = &v
	}
	if p.Activity != nil {
		v := *p.Activity
		cp.Activity = &v
	}
	if p.Goal != nil {
		v := *p.Goal
		cp.Goal = &v
	}
	return cp
}
