package service

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/igorsavinkin/ai-diet-planner/internal/calc"
	"github.com/igorsavinkin/ai-diet-planner/internal/model"
	"github.com/igorsavinkin/ai-diet-planner/internal/repository"
)

var dialogAdjustment = calc.Adjustment{Deficit: 500, Surplus: 500, Floor: 1200}

func newDialogFixture() (*DialogManager, *repository.MemoryRepository) {
	repo := repository.NewMemoryRepository(dialogAdjustment)
	return NewDialogManager(repo), repo
}

// answer прогоняет один ответ и требует отсутствия ошибки.
func answer(t *testing.T, m *DialogManager, userID int64, text string) Reply {
	t.Helper()
	reply, err := m.HandleAnswer(context.Background(), userID, text)
	require.NoError(t, err)
	return reply
}

// runFullDialog проходит весь диалог эталонными ответами.
func runFullDialog(t *testing.T, m *DialogManager, userID int64) Reply {
	t.Helper()
	_, err := m.StartDialog(context.Background(), userID)
	require.NoError(t, err)
	answer(t, m, userID, "Male")
	answer(t, m, userID, "30")
	answer(t, m, userID, "70")
	answer(t, m, userID, "175")
	answer(t, m, userID, "Medium activity")
	return answer(t, m, userID, "Lose weight")
}

func TestDialog_FullRoundTrip(t *testing.T) {
	m, repo := newDialogFixture()
	reply := runFullDialog(t, m, 1)

	assert.Equal(t, model.StateComplete, m.State(1))
	assert.Contains(t, reply.Text, "2129")

	profile, err := repo.Get(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.True(t, profile.Completed)

	// Производные метрики совпадают с прямым вызовом движка расчёта
	bmr, tdee, target, err := calc.Derive(model.Male, 70, 175, 30, model.Medium, model.LoseWeight, dialogAdjustment)
	require.NoError(t, err)
	assert.Equal(t, bmr, profile.BMR)
	assert.Equal(t, tdee, profile.TDEE)
	assert.Equal(t, target, profile.CalorieTarget)
}

func TestDialog_StateOrder(t *testing.T) {
	m, _ := newDialogFixture()
	ctx := context.Background()

	_, err := m.StartDialog(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, model.StateAwaitingGender, m.State(1))

	answer(t, m, 1, "Female")
	assert.Equal(t, model.StateAwaitingAge, m.State(1))

	answer(t, m, 1, "25")
	assert.Equal(t, model.StateAwaitingWeight, m.State(1))

	answer(t, m, 1, "60")
	assert.Equal(t, model.StateAwaitingHeight, m.State(1))

	answer(t, m, 1, "165")
	assert.Equal(t, model.StateAwaitingActivity, m.State(1))

	answer(t, m, 1, "No activity")
	assert.Equal(t, model.StateAwaitingGoal, m.State(1))

	answer(t, m, 1, "Maintain weight")
	assert.Equal(t, model.StateComplete, m.State(1))
}

// TestDialog_CaseInsensitive: "MALE", "male" и "Male" продвигают
// автомат одинаково.
func TestDialog_CaseInsensitive(t *testing.T) {
	for _, input := range []string{"MALE", "male", "Male"} {
		t.Run(input, func(t *testing.T) {
			m, _ := newDialogFixture()
			_, err := m.StartDialog(context.Background(), 1)
			require.NoError(t, err)

			answer(t, m, 1, input)
			assert.Equal(t, model.StateAwaitingAge, m.State(1))
		})
	}
}

// TestDialog_InvalidInputStays: невалидный ответ не продвигает
// автомат, переспрашивается тот же вопрос.
func TestDialog_InvalidInputStays(t *testing.T) {
	m, _ := newDialogFixture()
	ctx := context.Background()
	_, err := m.StartDialog(ctx, 1)
	require.NoError(t, err)

	answer(t, m, 1, "attack helicopter")
	assert.Equal(t, model.StateAwaitingGender, m.State(1))

	answer(t, m, 1, "Male")
	for _, bad := range []string{"abc", "-5", "0", "150"} {
		answer(t, m, 1, bad)
		assert.Equal(t, model.StateAwaitingAge, m.State(1), "input %q", bad)
	}

	answer(t, m, 1, "30")
	answer(t, m, 1, "1000") // вес вне диапазона
	assert.Equal(t, model.StateAwaitingWeight, m.State(1))
}

// TestDialog_RejectsNonFiniteNumbers: ParseFloat принимает "nan" и
// "inf", но такие ответы не должны продвигать автомат — иначе профиль
// финализируется с NaN во всех производных метриках.
func TestDialog_RejectsNonFiniteNumbers(t *testing.T) {
	m, repo := newDialogFixture()
	ctx := context.Background()
	_, err := m.StartDialog(ctx, 1)
	require.NoError(t, err)

	answer(t, m, 1, "Male")
	answer(t, m, 1, "30")

	for _, bad := range []string{"nan", "NaN", "inf", "+Inf", "-inf"} {
		answer(t, m, 1, bad)
		assert.Equal(t, model.StateAwaitingWeight, m.State(1), "input %q", bad)
	}

	answer(t, m, 1, "70")
	for _, bad := range []string{"nan", "inf"} {
		answer(t, m, 1, bad)
		assert.Equal(t, model.StateAwaitingHeight, m.State(1), "input %q", bad)
	}

	// Диалог завершается валидными ответами, метрики конечны
	answer(t, m, 1, "175")
	answer(t, m, 1, "Medium activity")
	answer(t, m, 1, "Lose weight")

	p, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.True(t, p.Completed)
	assert.False(t, math.IsNaN(p.BMR))
	assert.InDelta(t, 70.0, *p.WeightKG, 0.001)
	assert.InDelta(t, 2128.8, p.CalorieTarget, 0.001)
}

func TestDialog_CancelDiscardsPending(t *testing.T) {
	m, repo := newDialogFixture()
	ctx := context.Background()

	// Сначала полный профиль, потом повторный диалог с отменой
	runFullDialog(t, m, 1)
	before, err := repo.Get(ctx, 1)
	require.NoError(t, err)

	_, err = m.StartDialog(ctx, 1)
	require.NoError(t, err)
	answer(t, m, 1, "Update information")
	answer(t, m, 1, "Female")
	answer(t, m, 1, "40")

	reply := m.Cancel(1)
	assert.Equal(t, model.StateIdle, m.State(1))
	assert.Contains(t, reply.Text, "cancelled")

	// Отмена не тронула сохранённый профиль: ответы до завершения
	// диалога в хранилище не попадают
	after, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, after)
	assert.Equal(t, *before.Gender, *after.Gender)
	assert.Equal(t, *before.Age, *after.Age)
	assert.True(t, after.Completed)
	assert.Equal(t, before.CalorieTarget, after.CalorieTarget)
}

func TestDialog_CancelFromIdle(t *testing.T) {
	m, _ := newDialogFixture()
	reply := m.Cancel(1)
	assert.Contains(t, reply.Text, "Nothing to cancel")
	assert.Equal(t, model.StateIdle, m.State(1))
}

func TestDialog_ClearData(t *testing.T) {
	m, repo := newDialogFixture()
	ctx := context.Background()
	runFullDialog(t, m, 1)

	_, err := m.ClearData(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, model.StateIdle, m.State(1))

	p, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, p)

	// Новый цикл сбора начинается с пустых ответов
	reply, err := m.StartDialog(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, model.StateAwaitingGender, m.State(1))
	assert.NotContains(t, reply.Text, "Welcome back")
}

// TestDialog_RestartResetsPending: повторный /start посреди диалога
// сбрасывает накопленные ответы, а не смешивает их со старыми.
func TestDialog_RestartResetsPending(t *testing.T) {
	m, repo := newDialogFixture()
	ctx := context.Background()

	_, err := m.StartDialog(ctx, 1)
	require.NoError(t, err)
	answer(t, m, 1, "Male")
	answer(t, m, 1, "30")

	_, err = m.StartDialog(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, model.StateAwaitingGender, m.State(1))

	answer(t, m, 1, "Female")
	answer(t, m, 1, "25")
	answer(t, m, 1, "60")
	answer(t, m, 1, "165")
	answer(t, m, 1, "Minimal activity")
	answer(t, m, 1, "Gain weight")

	p, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, p.Gender)
	assert.Equal(t, model.Female, *p.Gender)
	assert.Equal(t, 25, *p.Age)
}

func TestDialog_ReturningUserFastPath(t *testing.T) {
	m, _ := newDialogFixture()
	ctx := context.Background()
	runFullDialog(t, m, 1)

	reply, err := m.StartDialog(ctx, 1)
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "Welcome back")
	assert.Contains(t, reply.Options, "Use my data")
	assert.Contains(t, reply.Options, "Update information")

	// Использование существующих данных ведёт сразу к генерации меню
	reply = answer(t, m, 1, "use my data")
	assert.Equal(t, ActionGenerateWeekly, reply.Action)

	// Обновление данных запускает анкету заново
	_, err = m.StartDialog(ctx, 1)
	require.NoError(t, err)
	reply = answer(t, m, 1, "Update information")
	assert.Equal(t, model.StateAwaitingGender, m.State(1))
	assert.Equal(t, genderOptions(), reply.Options)
}

func TestDialog_MenuConfirmAfterCompletion(t *testing.T) {
	m, _ := newDialogFixture()
	reply := runFullDialog(t, m, 1)
	assert.Contains(t, reply.Options, "Yes")

	got := answer(t, m, 1, "yes")
	assert.Equal(t, ActionGenerateWeekly, got.Action)

	got = answer(t, m, 1, "No")
	assert.Equal(t, ActionNone, got.Action)
}

// TestDialog_GenerationGuard: второй запрос генерации, пока первый
// в полёте, отклоняется.
func TestDialog_GenerationGuard(t *testing.T) {
	m, _ := newDialogFixture()

	assert.True(t, m.BeginGeneration(1))
	assert.False(t, m.BeginGeneration(1))

	// Другой пользователь не блокируется
	assert.True(t, m.BeginGeneration(2))

	m.EndGeneration(1)
	assert.True(t, m.BeginGeneration(1))
}

// TestDialog_ClearKeepsGenerationFlag: очистка данных во время
// генерации не разрешает второй параллельный запрос — пометку
// снимает только завершившая генерацию горутина.
func TestDialog_ClearKeepsGenerationFlag(t *testing.T) {
	m, _ := newDialogFixture()
	ctx := context.Background()

	require.True(t, m.BeginGeneration(1))

	_, err := m.ClearData(ctx, 1)
	require.NoError(t, err)
	assert.False(t, m.BeginGeneration(1))

	m.EndGeneration(1)
	assert.True(t, m.BeginGeneration(1))
}

func TestDialog_IdleMessage(t *testing.T) {
	m, _ := newDialogFixture()
	reply := answer(t, m, 1, "hello")
	assert.Contains(t, reply.Text, "/start")
}
