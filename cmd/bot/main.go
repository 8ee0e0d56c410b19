package main

import (
	"log"

	"github.com/igorsavinkin/ai-diet-planner/internal/bot"
	"github.com/igorsavinkin/ai-diet-planner/internal/calc"
	"github.com/igorsavinkin/ai-diet-planner/internal/config"
	"github.com/igorsavinkin/ai-diet-planner/internal/deepseek"
	"github.com/igorsavinkin/ai-diet-planner/internal/repository"
	"github.com/igorsavinkin/ai-diet-planner/internal/service"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	repo := repository.NewMemoryRepository(calc.Adjustment{
		Deficit: cfg.CalorieDeficit,
		Surplus: cfg.CalorieSurplus,
		Floor:   cfg.CalorieFloor,
	})

	dialogs := service.NewDialogManager(repo)
	admin := service.NewAdminService(repo, cfg.AdminIDs)

	provider := deepseek.NewClient(cfg.DeepSeekKey, cfg.DeepSeekBaseURL, cfg.ProviderTimeout)
	if !provider.Available() {
		log.Println("DeepSeek API key is not configured, menu generation is disabled")
	}

	b, err := bot.NewBot(cfg.TelegramToken, dialogs, admin, repo, provider)
	if err != nil {
		log.Fatal(err)
	}

	log.Println("Bot is starting...")
	if err := b.Start(); err != nil {
		log.Fatal(err)
	}
}
