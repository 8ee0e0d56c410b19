package main

import (
	"context"
	"sync"

	"github.com/igorsavinkin/ai-diet-planner/internal/bot"
	"github.com/igorsavinkin/ai-diet-planner/internal/calc"
	"github.com/igorsavinkin/ai-diet-planner/internal/config"
	"github.com/igorsavinkin/ai-diet-planner/internal/deepseek"
	"github.com/igorsavinkin/ai-diet-planner/internal/repository"
	"github.com/igorsavinkin/ai-diet-planner/internal/service"
)

// Request структура входящего запроса от API Gateway
type Request struct {
	Body string `json:"body"`
}

// Response структура ответа для API Gateway
type Response struct {
	StatusCode int               `json:"statusCode"`
	Body       string            `json:"body"`
	Headers    map[string]string `json:"headers,omitempty"`
}

// Состояние инициализируется один раз на инстанс: пока инстанс тёплый,
// сессии диалогов и профили переживают отдельные вызовы. Между
// холодными стартами данные не сохраняются.
var (
	coreOnce     sync.Once
	coreErr      error
	coreCfg      *config.Config
	coreRepo     *repository.MemoryRepository
	coreDialogs  *service.DialogManager
	coreAdmin    *service.AdminService
	coreProvider *deepseek.Client

	botOnce sync.Once
	botErr  error
	tgBot   *bot.Bot
)

// initCore строит всё, что не требует сети: конфигурацию, хранилище,
// конечный автомат и сервисы.
func initCore() error {
	coreOnce.Do(func() {
		cfg, err := config.LoadConfig()
		if err != nil {
			coreErr = err
			return
		}
		coreCfg = cfg
		coreRepo = repository.NewMemoryRepository(calc.Adjustment{
			Deficit: cfg.CalorieDeficit,
			Surplus: cfg.CalorieSurplus,
			Floor:   cfg.CalorieFloor,
		})
		coreDialogs = service.NewDialogManager(coreRepo)
		coreAdmin = service.NewAdminService(coreRepo, cfg.AdminIDs)
		coreProvider = deepseek.NewClient(cfg.DeepSeekKey, cfg.DeepSeekBaseURL, cfg.ProviderTimeout)
	})
	return coreErr
}

// getBot лениво создаёт Telegram-клиент поверх уже созданного ядра.
func getBot() (*bot.Bot, error) {
	if err := initCore(); err != nil {
		return nil, err
	}
	botOnce.Do(func() {
		tgBot, botErr = bot.NewBot(coreCfg.TelegramToken, coreDialogs, coreAdmin, coreRepo, coreProvider)
	})
	return tgBot, botErr
}

func Handler(ctx context.Context, request Request) (*Response, error) {
	b, err := getBot()
	if err != nil {
		return errorResponse(err)
	}

	if err := b.HandleWebhook([]byte(request.Body)); err != nil {
		return errorResponse(err)
	}

	return &Response{
		StatusCode: 200,
		Body:       "",
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
	}, nil
}

func errorResponse(err error) (*Response, error) {
	return &Response{
		StatusCode: 500,
		Body:       err.Error(),
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
	}, nil
}

func main() {
	// Точка входа для локального тестирования
}
