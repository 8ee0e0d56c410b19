package service

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/igorsavinkin/ai-diet-planner/internal/model"
	"github.com/igorsavinkin/ai-diet-planner/internal/repository"
)

// Допустимые диапазоны числовых ответов. Оригинал проверял только
// положительность; границы правдоподобия отсекают опечатки вроде
// роста "1750".
const (
	minAge    = 1
	maxAge    = 120
	minWeight = 20.0
	maxWeight = 400.0
	minHeight = 80.0
	maxHeight = 260.0
)

// Action — намерение, которое конечный автомат просит исполнить
// транспортный слой. Сам автомат к провайдеру не обращается.
type Action int

const (
	ActionNone Action = iota
	ActionGenerateWeekly
)

// Reply — ответ пользователю: текст, варианты для клавиатуры
// (nil — свободный ввод) и запрошенное действие.
type Reply struct {
	Text    string
	Options []string
	Action  Action
}

// sessionEntry привязывает к сессии собственный мьютекс: сообщения
// одного пользователя обрабатываются строго по одному, разные
// пользователи друг друга не блокируют.
type sessionEntry struct {
	mu sync.Mutex
	s  model.ConversationSession
}

// DialogManager — конечный автомат диалога сбора анкеты.
// Idle → AwaitingGender → AwaitingAge → AwaitingWeight →
// AwaitingHeight → AwaitingActivity → AwaitingGoal → Complete.
type DialogManager struct {
	repo repository.Repository

	mu       sync.Mutex
	sessions map[int64]*sessionEntry
}

func NewDialogManager(repo repository.Repository) *DialogManager {
	return &DialogManager{
		repo:     repo,
		sessions: make(map[int64]*sessionEntry),
	}
}

func (m *DialogManager) entry(userID int64) *sessionEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.sessions[userID]
	if !ok {
		e = &sessionEntry{s: model.ConversationSession{UserID: userID, State: model.StateIdle}}
		m.sessions[userID] = e
	}
	return e
}

// State возвращает текущее состояние сессии пользователя.
func (m *DialogManager) State(userID int64) model.DialogState {
	e := m.entry(userID)
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.s.State
}

// StartDialog запускает сбор анкеты. Если профиль уже собран,
// предлагает выбор: использовать имеющиеся данные или пройти
// анкету заново.
func (m *DialogManager) StartDialog(ctx context.Context, userID int64) (Reply, error) {
	e := m.entry(userID)
	e.mu.Lock()
	defer e.mu.Unlock()

	profile, err := m.repo.Get(ctx, userID)
	if err != nil {
		return Reply{}, fmt.Errorf("failed to load profile: %w", err)
	}

	if profile != nil && profile.Completed && (e.s.State == model.StateIdle || e.s.State == model.StateComplete) {
		e.s.State = model.StateComplete
		e.s.LastActivity = time.Now()
		return Reply{
			Text: fmt.Sprintf(
				"Welcome back! 🍎\n\n"+
					"I already have your profile: daily calorie target %.0f kcal (%s).\n\n"+
					"Use your existing data or update your information?",
				profile.CalorieTarget, profile.Goal.Label()),
			Options: []string{optUseMyData, optUpdateInfo},
		}, nil
	}

	return m.beginCollection(e), nil
}

// beginCollection сбрасывает накопленные ответы и переводит автомат
// к первому вопросу. Вызывается под мьютексом сессии.
func (m *DialogManager) beginCollection(e *sessionEntry) Reply {
	e.s.Pending = model.PendingAnswers{}
	e.s.State = model.StateAwaitingGender
	e.s.LastActivity = time.Now()
	return Reply{
		Text: "Welcome to the Nutrition Bot! 🍎\n\n" +
			"I will help you calculate your daily caloric needs and generate a personalized diet plan.\n\n" +
			"Type /cancel at any time to stop our conversation.\n\n" +
			"Please select your gender:",
		Options: genderOptions(),
	}
}

// HandleAnswer обрабатывает свободный ответ пользователя в текущем
// состоянии. Невалидный ввод не продвигает автомат — тот же вопрос
// задаётся повторно.
func (m *DialogManager) HandleAnswer(ctx context.Context, userID int64, text string) (Reply, error) {
	e := m.entry(userID)
	e.mu.Lock()
	defer e.mu.Unlock()

	e.s.LastActivity = time.Now()

	switch e.s.State {
	case model.StateIdle:
		return Reply{Text: "Use /start to begin, or /weekly_menu if you already have a profile."}, nil

	case model.StateAwaitingGender:
		gender, ok := model.ParseGender(text)
		if !ok {
			return Reply{Text: "Please choose Male or Female.", Options: genderOptions()}, nil
		}
		e.s.Pending.Gender = gender
		e.s.State = model.StateAwaitingAge
		return Reply{Text: "Great! Now please enter your age:"}, nil

	case model.StateAwaitingAge:
		age, err := strconv.Atoi(strings.TrimSpace(text))
		if err != nil || age < minAge || age > maxAge {
			return Reply{Text: fmt.Sprintf("Please enter a valid age (%d-%d):", minAge, maxAge)}, nil
		}
		e.s.Pending.Age = age
		e.s.State = model.StateAwaitingWeight
		return Reply{Text: "Now enter your weight in kg (e.g. 70):"}, nil

	case model.StateAwaitingWeight:
		weight, err := parseFloatAnswer(text)
		if err != nil || weight < minWeight || weight > maxWeight {
			return Reply{Text: fmt.Sprintf("Please enter a valid weight in kg (%.0f-%.0f):", minWeight, maxWeight)}, nil
		}
		e.s.Pending.WeightKG = weight
		e.s.State = model.StateAwaitingHeight
		return Reply{Text: "Now enter your height in cm (e.g. 175):"}, nil

	case model.StateAwaitingHeight:
		height, err := parseFloatAnswer(text)
		if err != nil || height < minHeight || height > maxHeight {
			return Reply{Text: fmt.Sprintf("Please enter a valid height in cm (%.0f-%.0f):", minHeight, maxHeight)}, nil
		}
		e.s.Pending.HeightCM = height
		e.s.State = model.StateAwaitingActivity
		return Reply{Text: "Select your activity level:", Options: activityOptions()}, nil

	case model.StateAwaitingActivity:
		level, ok := model.ParseActivityLevel(text)
		if !ok {
			return Reply{Text: "Please choose one of the activity levels:", Options: activityOptions()}, nil
		}
		e.s.Pending.Activity = level
		e.s.State = model.StateAwaitingGoal
		return Reply{Text: "What is your goal?", Options: goalOptions()}, nil

	case model.StateAwaitingGoal:
		goal, ok := model.ParseGoal(text)
		if !ok {
			return Reply{Text: "Please choose one of the goals:", Options: goalOptions()}, nil
		}
		e.s.Pending.Goal = goal
		return m.completeDialog(ctx, e)

	case model.StateComplete:
		return m.handleCompleteAnswer(e, text), nil
	}

	return Reply{Text: "Use /start to begin."}, nil
}

// completeDialog записывает собранные ответы в хранилище и
// финализирует профиль. Вызывается под мьютексом сессии.
func (m *DialogManager) completeDialog(ctx context.Context, e *sessionEntry) (Reply, error) {
	userID := e.s.UserID
	p := e.s.Pending

	fields := []struct {
		field repository.ProfileField
		value any
	}{
		{repository.FieldGender, p.Gender},
		{repository.FieldAge, p.Age},
		{repository.FieldWeight, p.WeightKG},
		{repository.FieldHeight, p.HeightCM},
		{repository.FieldActivity, p.Activity},
		{repository.FieldGoal, p.Goal},
	}
	for _, f := range fields {
		if err := m.repo.UpsertField(ctx, userID, f.field, f.value); err != nil {
			return Reply{}, fmt.Errorf("failed to save answer: %w", err)
		}
	}

	profile, err := m.repo.Finalize(ctx, userID)
	if err != nil {
		return Reply{}, fmt.Errorf("failed to finalize profile: %w", err)
	}

	e.s.State = model.StateComplete
	e.s.Pending = model.PendingAnswers{}

	return Reply{
		Text: fmt.Sprintf(
			"All done! ✅ Here are your results:\n\n"+
				"🔥 BMR: %.0f kcal\n"+
				"⚡ TDEE: %.0f kcal\n"+
				"🎯 Daily calorie target: %.0f kcal (%s)\n\n"+
				"Would you like me to generate your weekly menu now?",
			profile.BMR, profile.TDEE, profile.CalorieTarget, profile.Goal.Label()),
		Options: []string{optYes, optNo},
	}, nil
}

// handleCompleteAnswer разбирает ответ на развилку завершённого
// профиля: сгенерировать меню, оставить как есть или пройти анкету
// заново.
func (m *DialogManager) handleCompleteAnswer(e *sessionEntry, text string) Reply {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case strings.ToLower(optYes), strings.ToLower(optUseMyData):
		return Reply{Text: "Working on your weekly menu... 🍽", Action: ActionGenerateWeekly}
	case strings.ToLower(optNo):
		return Reply{Text: "No problem! Use /diet or /weekly_menu whenever you are ready."}
	case strings.ToLower(optUpdateInfo):
		return m.beginCollection(e)
	}
	return Reply{
		Text:    "Please choose one of the options, or use /diet and /weekly_menu commands.",
		Options: []string{optYes, optNo, optUpdateInfo},
	}
}

// Cancel прерывает диалог из любого незавершённого состояния.
// Накопленные ответы отбрасываются, сохранённый профиль не меняется.
func (m *DialogManager) Cancel(userID int64) Reply {
	e := m.entry(userID)
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.s.State {
	case model.StateIdle, model.StateComplete:
		return Reply{Text: "Nothing to cancel. Use /start to begin."}
	}

	e.s.Pending = model.PendingAnswers{}
	e.s.State = model.StateIdle
	e.s.LastActivity = time.Now()
	return Reply{Text: "Conversation cancelled. Type /start to begin again. 👋"}
}

// ClearData удаляет профиль и сбрасывает сессию: следующий диалог
// начнётся с чистого листа.
func (m *DialogManager) ClearData(ctx context.Context, userID int64) (Reply, error) {
	e := m.entry(userID)
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := m.repo.Clear(ctx, userID); err != nil {
		return Reply{}, fmt.Errorf("failed to clear profile: %w", err)
	}

	// Флаг Generating не трогаем: запрос к провайдеру может быть в
	// полёте, снять пометку вправе только завершившая его горутина
	e.s.Pending = model.PendingAnswers{}
	e.s.State = model.StateIdle
	e.s.LastActivity = time.Now()
	return Reply{Text: "Your data has been removed. Use /start to set up a new profile."}, nil
}

// BeginGeneration помечает сессию как ожидающую ответа провайдера.
// Повторный запрос, пока первый в полёте, отклоняется. Мьютекс
// сессии на время обращения к провайдеру не удерживается.
func (m *DialogManager) BeginGeneration(userID int64) bool {
	e := m.entry(userID)
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.s.Generating {
		return false
	}
	e.s.Generating = true
	return true
}

// EndGeneration снимает пометку генерации.
func (m *DialogManager) EndGeneration(userID int64) {
	e := m.entry(userID)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.s.Generating = false
}

// Варианты ответов для клавиатур. Сопоставление — без учёта регистра.
const (
	optYes        = "Yes"
	optNo         = "No"
	optUseMyData  = "Use my data"
	optUpdateInfo = "Update information"
)

func genderOptions() []string {
	return []string{model.Male.Label(), model.Female.Label()}
}

func activityOptions() []string {
	return []string{
		model.NoActivity.Label(),
		model.Minimal.Label(),
		model.Medium.Label(),
		model.High.Label(),
		model.VeryHigh.Label(),
	}
}

func goalOptions() []string {
	return []string{
		model.LoseWeight.Label(),
		model.Maintain.Label(),
		model.GainWeight.Label(),
	}
}

// parseFloatAnswer терпимо относится к запятой в качестве
// десятичного разделителя. ParseFloat принимает "nan" и "inf" —
// такие значения отвергаются сразу, иначе они проходят проверки
// диапазона и отравляют профиль.
func parseFloatAnswer(text string) (float64, error) {
	text = strings.ReplaceAll(strings.TrimSpace(text), ",", ".")
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not a finite number: %q", text)
	}
	return v, nil
}
