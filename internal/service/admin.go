package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/igorsavinkin/ai-diet-planner/internal/model"
	"github.com/igorsavinkin/ai-diet-planner/internal/repository"
)

// Stats — агрегированная статистика по всем профилям.
type Stats struct {
	TotalUsers          int
	CompletedProfiles   int
	TotalMenusGenerated int
	GoalDistribution    map[model.Goal]int
}

// Broadcast — подготовленная рассылка: проверенный текст и список
// получателей. Сама отправка — ответственность транспортного слоя.
type Broadcast struct {
	Message    string
	Recipients []int64
}

// AdminService выполняет операции, доступные только администраторам.
// Список администраторов загружается один раз при старте и далее
// не меняется.
type AdminService struct {
	repo   repository.Repository
	admins map[int64]struct{}
}

func NewAdminService(repo repository.Repository, adminIDs []int64) *AdminService {
	admins := make(map[int64]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = struct{}{}
	}
	return &AdminService{repo: repo, admins: admins}
}

func (s *AdminService) IsAdmin(userID int64) bool {
	_, ok := s.admins[userID]
	return ok
}

// authorize проверяет права и пишет отказ в журнал для аудита.
func (s *AdminService) authorize(userID int64, op string) error {
	if !s.IsAdmin(userID) {
		log.Printf("permission denied: user %d attempted %s", userID, op)
		return ErrPermissionDenied
	}
	return nil
}

// GetStats агрегирует статистику по снимку хранилища. Только чтение.
func (s *AdminService) GetStats(ctx context.Context, requesterID int64) (*Stats, error) {
	if err := s.authorize(requesterID, "stats"); err != nil {
		return nil, err
	}

	profiles, err := s.repo.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}

	stats := &Stats{GoalDistribution: make(map[model.Goal]int)}
	stats.TotalUsers = len(profiles)
	for _, p := range profiles {
		stats.TotalMenusGenerated += p.MenuGenerations
		if p.Completed {
			stats.CompletedProfiles++
		}
		if p.Goal != nil {
			stats.GoalDistribution[*p.Goal]++
		}
	}
	return stats, nil
}

// GetUserInfo возвращает профиль конкретного пользователя.
func (s *AdminService) GetUserInfo(ctx context.Context, requesterID, targetID int64) (*model.UserProfile, error) {
	if err := s.authorize(requesterID, "user lookup"); err != nil {
		return nil, err
	}

	p, err := s.repo.Get(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if p == nil {
		return nil, repository.ErrNotFound
	}
	return p, nil
}

// PrepareBroadcast проверяет текст и собирает список получателей —
// всех пользователей, известных хранилищу. Рассылку выполняет
// транспортный слой.
func (s *AdminService) PrepareBroadcast(ctx context.Context, requesterID int64, message string) (*Broadcast, error) {
	if err := s.authorize(requesterID, "broadcast"); err != nil {
		return nil, err
	}

	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}

	profiles, err := s.repo.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}

	recipients := make([]int64, 0, len(profiles))
	for _, p := range profiles {
		recipients = append(recipients, p.UserID)
	}
	return &Broadcast{Message: message, Recipients: recipients}, nil
}
