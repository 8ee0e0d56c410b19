package bot

import (
	"encoding/json"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/igorsavinkin/ai-diet-planner/internal/charts"
	"github.com/igorsavinkin/ai-diet-planner/internal/deepseek"
	"github.com/igorsavinkin/ai-diet-planner/internal/repository"
	"github.com/igorsavinkin/ai-diet-planner/internal/service"
)

type Bot struct {
	api      *tgbotapi.BotAPI
	dialogs  *service.DialogManager
	admin    *service.AdminService
	repo     repository.Repository
	provider *deepseek.Client
	charts   *charts.ChartGenerator
}

func NewBot(token string, dialogs *service.DialogManager, admin *service.AdminService, repo repository.Repository, provider *deepseek.Client) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	return &Bot{
		api:      api,
		dialogs:  dialogs,
		admin:    admin,
		repo:     repo,
		provider: provider,
		charts:   charts.NewChartGenerator(),
	}, nil
}

// Start запускает бота в режиме long polling. Обновления
// обрабатываются в порядке поступления; единственная долгая
// операция — вызов провайдера — уходит в отдельную горутину и
// цикл не задерживает.
func (b *Bot) Start() error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for update := range updates {
		if err := b.handleUpdate(update); err != nil {
			// Логируем ошибку, но продолжаем работу
			log.Printf("Error handling update: %v", err)
		}
	}

	return nil
}

// HandleWebhook — точка входа для обработки входящих webhook-обновлений
func (b *Bot) HandleWebhook(body []byte) error {
	var update tgbotapi.Update
	if err := json.Unmarshal(body, &update); err != nil {
		return err
	}

	return b.handleUpdate(update)
}

// sendReply отправляет ответ конечного автомата, прикладывая
// клавиатуру с вариантами либо убирая её на свободном вводе.
func (b *Bot) sendReply(chatID int64, reply service.Reply) {
	msg := tgbotapi.NewMessage(chatID, reply.Text)
	if len(reply.Options) > 0 {
		msg.ReplyMarkup = optionsKeyboard(reply.Options)
	} else {
		msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	}
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("Failed to send message to %d: %v", chatID, err)
	}
}

func (b *Bot) sendText(chatID int64, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		log.Printf("Failed to send message to %d: %v", chatID, err)
	}
}

func (b *Bot) sendErrorMessage(chatID int64, text string) {
	b.sendText(chatID, "❌ "+text)
}
