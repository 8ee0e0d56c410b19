package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Значения по умолчанию для настраиваемых параметров расчёта калорий.
const (
	DefaultCalorieDeficit  = 500.0
	DefaultCalorieSurplus  = 500.0
	DefaultCalorieFloor    = 1200.0
	DefaultProviderTimeout = 60 * time.Second
)

type Config struct {
	TelegramToken   string
	DeepSeekKey     string
	DeepSeekBaseURL string
	AdminIDs        []int64
	CalorieDeficit  float64
	CalorieSurplus  float64
	CalorieFloor    float64
	ProviderTimeout time.Duration
}

func LoadConfig() (*Config, error) {
	// .env может отсутствовать (в serverless-окружении переменные
	// приходят из окружения напрямую)
	_ = godotenv.Load()

	token := os.Getenv("TELEGRAM_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is not set")
	}

	cfg := &Config{
		TelegramToken:   token,
		DeepSeekKey:     os.Getenv("DEEPSEEK_API_KEY"),
		DeepSeekBaseURL: os.Getenv("DEEPSEEK_BASE_URL"),
		CalorieDeficit:  floatEnv("CALORIE_DEFICIT", DefaultCalorieDeficit),
		CalorieSurplus:  floatEnv("CALORIE_SURPLUS", DefaultCalorieSurplus),
		CalorieFloor:    floatEnv("CALORIE_FLOOR", DefaultCalorieFloor),
		ProviderTimeout: durationEnv("PROVIDER_TIMEOUT_SEC", DefaultProviderTimeout),
	}

	admins, err := parseAdminIDs(os.Getenv("ADMIN_IDS"))
	if err != nil {
		return nil, err
	}
	cfg.AdminIDs = admins

	return cfg, nil
}

// parseAdminIDs разбирает список идентификаторов администраторов
// вида "123,456" из переменной окружения
func parseAdminIDs(raw string) ([]int64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid admin id %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func floatEnv(name string, def float64) float64 {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return def
	}
	return f
}

func durationEnv(name string, def time.Duration) time.Duration {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return time.Duration(n) * time.Second
}
