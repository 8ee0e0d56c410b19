package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/igorsavinkin/ai-diet-planner/internal/deepseek"
	"github.com/igorsavinkin/ai-diet-planner/internal/model"
	"github.com/igorsavinkin/ai-diet-planner/internal/repository"
	"github.com/igorsavinkin/ai-diet-planner/internal/service"
)

// command — закрытое перечисление распознаваемых команд. Диспетчеризация
// идёт по варианту, а не по сырой строке.
type command int

const (
	cmdUnknown command = iota
	cmdStart
	cmdDiet
	cmdWeeklyMenu
	cmdCancel
	cmdClear
	cmdStats
	cmdBroadcast
	cmdUser
	cmdAdminHelp
)

func parseCommand(raw string) command {
	switch raw {
	case "start":
		return cmdStart
	case "diet":
		return cmdDiet
	case "weekly_menu":
		return cmdWeeklyMenu
	case "cancel":
		return cmdCancel
	case "clear":
		return cmdClear
	case "stats":
		return cmdStats
	case "broadcast":
		return cmdBroadcast
	case "user":
		return cmdUser
	case "admin":
		return cmdAdminHelp
	}
	return cmdUnknown
}

func (b *Bot) handleUpdate(update tgbotapi.Update) error {
	if update.Message == nil {
		return nil
	}

	if update.Message.IsCommand() {
		return b.handleCommand(update.Message)
	}

	return b.handleMessage(update.Message)
}

func (b *Bot) handleCommand(message *tgbotapi.Message) error {
	ctx := context.Background()
	chatID := message.Chat.ID
	userID := message.From.ID

	switch parseCommand(message.Command()) {
	case cmdStart:
		reply, err := b.dialogs.StartDialog(ctx, userID)
		if err != nil {
			b.sendErrorMessage(chatID, "Something went wrong, please try again.")
			return err
		}
		b.sendReply(chatID, reply)

	case cmdDiet:
		b.startGeneration(chatID, userID, false)

	case cmdWeeklyMenu:
		b.startGeneration(chatID, userID, true)

	case cmdCancel:
		b.sendReply(chatID, b.dialogs.Cancel(userID))

	case cmdClear:
		reply, err := b.dialogs.ClearData(ctx, userID)
		if err != nil {
			b.sendErrorMessage(chatID, "Failed to clear your data, please try again.")
			return err
		}
		b.sendReply(chatID, reply)

	case cmdStats:
		return b.handleStats(ctx, chatID, userID)

	case cmdBroadcast:
		return b.handleBroadcast(ctx, chatID, userID, message.CommandArguments())

	case cmdUser:
		return b.handleUserLookup(ctx, chatID, userID, message.CommandArguments())

	case cmdAdminHelp:
		return b.handleAdminHelp(chatID, userID)

	case cmdUnknown:
		// Нераспознанная команда — не то же самое, что отказ в доступе
		b.sendText(chatID, "Unknown command. Use /start to set up your profile, /weekly_menu for a meal plan.")
	}

	return nil
}

// handleMessage передаёт свободный ответ конечному автомату и
// исполняет запрошенное им действие.
func (b *Bot) handleMessage(message *tgbotapi.Message) error {
	reply, err := b.dialogs.HandleAnswer(context.Background(), message.From.ID, message.Text)
	if err != nil {
		b.sendErrorMessage(message.Chat.ID, "Something went wrong, please try again.")
		return err
	}

	if reply.Action == service.ActionGenerateWeekly {
		b.sendText(message.Chat.ID, reply.Text)
		b.startGeneration(message.Chat.ID, message.From.ID, true)
		return nil
	}

	b.sendReply(message.Chat.ID, reply)
	return nil
}

// startGeneration запускает обращение к провайдеру в отдельной
// горутине. Сессия помечена как «генерируется», но не заблокирована:
// /cancel и прочие команды продолжают обрабатываться.
func (b *Bot) startGeneration(chatID, userID int64, weekly bool) {
	if !b.provider.Available() {
		b.sendText(chatID, "AI menu generation is currently unavailable. Please try again later.")
		return
	}

	if !b.dialogs.BeginGeneration(userID) {
		b.sendText(chatID, "I'm already working on your menu, one moment... ⏳")
		return
	}

	b.sendText(chatID, "Generating your plan, this may take a minute... ⏳")

	go func() {
		defer b.dialogs.EndGeneration(userID)

		ctx := context.Background()
		profile, err := b.repo.Get(ctx, userID)
		if err != nil {
			b.sendErrorMessage(chatID, "Something went wrong, please try again.")
			return
		}
		if profile == nil || !profile.Completed {
			b.sendText(chatID, "I don't have your profile yet. Use /start to set it up first.")
			return
		}

		var text string
		if weekly {
			text, err = b.provider.GenerateWeeklyMenu(ctx, profile)
		} else {
			text, err = b.provider.GenerateDiet(ctx, profile)
		}
		if err != nil {
			b.sendErrorMessage(chatID, providerErrorText(err))
			return
		}

		if err := b.repo.IncrementMenuCount(ctx, userID); err != nil {
			// Профиль мог быть очищен, пока шла генерация
			b.sendText(chatID, text)
			return
		}
		b.sendText(chatID, text)
	}()
}

// providerErrorText превращает причину сбоя провайдера в сообщение
// пользователю с предложением повторить. Автоматических повторов нет.
func providerErrorText(err error) string {
	var perr *deepseek.ProviderError
	if errors.As(err, &perr) {
		switch perr.Cause {
		case deepseek.CauseTimeout:
			return "Menu generation took too long. Please try again."
		case deepseek.CauseQuota:
			return "The AI service is over its quota right now. Please try again later."
		case deepseek.CauseMalformed:
			return "The AI service returned an unexpected answer. Please try again."
		}
	}
	return "I'm having trouble generating your menu at the moment. Please try again later."
}

func (b *Bot) handleStats(ctx context.Context, chatID, userID int64) error {
	stats, err := b.admin.GetStats(ctx, userID)
	if err != nil {
		if errors.Is(err, service.ErrPermissionDenied) {
			b.sendErrorMessage(chatID, "This command is restricted to administrators.")
			return nil
		}
		b.sendErrorMessage(chatID, "Failed to collect statistics.")
		return err
	}

	text := fmt.Sprintf(
		"📊 Bot statistics\n\n"+
			"👥 Total users: %d\n"+
			"✅ Completed profiles: %d\n"+
			"🍽 Menus generated: %d\n\n"+
			"Goals:\n",
		stats.TotalUsers, stats.CompletedProfiles, stats.TotalMenusGenerated)
	for _, goal := range []model.Goal{model.LoseWeight, model.Maintain, model.GainWeight} {
		text += fmt.Sprintf("• %s: %d\n", goal.Label(), stats.GoalDistribution[goal])
	}
	b.sendText(chatID, text)

	// График распределения целей, если есть что рисовать
	png, err := b.charts.GenerateGoalDistribution(stats)
	if err != nil {
		return err
	}
	if png != nil {
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "goals.png", Bytes: png})
		if _, err := b.api.Send(photo); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bot) handleBroadcast(ctx context.Context, chatID, userID int64, args string) error {
	broadcast, err := b.admin.PrepareBroadcast(ctx, userID, args)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPermissionDenied):
			b.sendErrorMessage(chatID, "This command is restricted to administrators.")
			return nil
		case errors.Is(err, service.ErrEmptyMessage):
			b.sendText(chatID, "Usage: /broadcast <message>")
			return nil
		}
		b.sendErrorMessage(chatID, "Failed to prepare the broadcast.")
		return err
	}

	// Подготовка завершена, рассылка — забота транспортного слоя
	sent := 0
	for _, recipient := range broadcast.Recipients {
		if _, err := b.api.Send(tgbotapi.NewMessage(recipient, "📢 "+broadcast.Message)); err == nil {
			sent++
		}
	}
	b.sendText(chatID, fmt.Sprintf("Broadcast delivered to %d of %d users.", sent, len(broadcast.Recipients)))
	return nil
}

func (b *Bot) handleUserLookup(ctx context.Context, chatID, userID int64, args string) error {
	targetID, err := strconv.ParseInt(strings.TrimSpace(args), 10, 64)
	if err != nil {
		if !b.admin.IsAdmin(userID) {
			b.sendErrorMessage(chatID, "This command is restricted to administrators.")
			return nil
		}
		b.sendText(chatID, "Usage: /user <id>")
		return nil
	}

	profile, err := b.admin.GetUserInfo(ctx, userID, targetID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPermissionDenied):
			b.sendErrorMessage(chatID, "This command is restricted to administrators.")
			return nil
		case errors.Is(err, repository.ErrNotFound):
			b.sendText(chatID, fmt.Sprintf("No profile found for user %d.", targetID))
			return nil
		}
		b.sendErrorMessage(chatID, "Failed to look up the user.")
		return err
	}

	b.sendText(chatID, formatProfile(profile))
	return nil
}

func (b *Bot) handleAdminHelp(chatID, userID int64) error {
	if !b.admin.IsAdmin(userID) {
		b.sendErrorMessage(chatID, "This command is restricted to administrators.")
		return nil
	}

	b.sendText(chatID,
		"🛠 Admin commands:\n\n"+
			"/stats — usage statistics and goal distribution\n"+
			"/user <id> — show a user's profile\n"+
			"/broadcast <message> — message all known users")
	return nil
}

func formatProfile(p *model.UserProfile) string {
	text := fmt.Sprintf("👤 User %d\n", p.UserID)
	if p.Gender != nil {
		text += fmt.Sprintf("• Gender: %s\n", p.Gender.Label())
	}
	if p.Age != nil {
		text += fmt.Sprintf("• Age: %d\n", *p.Age)
	}
	if p.WeightKG != nil {
		text += fmt.Sprintf("• Weight: %.1f kg\n", *p.WeightKG)
	}
	if p.HeightCM != nil {
		text += fmt.Sprintf("• Height: %.1f cm\n", *p.HeightCM)
	}
	if p.Activity != nil {
		text += fmt.Sprintf("• Activity: %s\n", p.Activity.Label())
	}
	if p.Goal != nil {
		text += fmt.Sprintf("• Goal: %s\n", p.Goal.Label())
	}
	if p.Completed {
		text += fmt.Sprintf("• BMR: %.0f kcal\n• TDEE: %.0f kcal\n• Target: %.0f kcal\n", p.BMR, p.TDEE, p.CalorieTarget)
	} else {
		text += "• Profile incomplete\n"
	}
	text += fmt.Sprintf("• Menus generated: %d", p.MenuGenerations)
	return text
}
