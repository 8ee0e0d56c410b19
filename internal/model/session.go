package model

import "time"

// DialogState — состояние диалога сбора анкеты (конечный автомат).
type DialogState int

const (
	StateIdle DialogState = iota
	StateAwaitingGender
	StateAwaitingAge
	StateAwaitingWeight
	StateAwaitingHeight
	StateAwaitingActivity
	StateAwaitingGoal
	StateComplete
)

func (s DialogState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingGender:
		return "awaiting_gender"
	case StateAwaitingAge:
		return "awaiting_age"
	case StateAwaitingWeight:
		return "awaiting_weight"
	case StateAwaitingHeight:
		return "awaiting_height"
	case StateAwaitingActivity:
		return "awaiting_activity"
	case StateAwaitingGoal:
		return "awaiting_goal"
	case StateComplete:
		return "complete"
	}
	return "unknown"
}

// PendingAnswers — ответы, собранные в ходе текущего диалога.
// Заполняются строго в порядке состояний, поэтому валидность поля
// определяется достигнутым состоянием, а не отдельными флагами.
type PendingAnswers struct {
	Gender   Gender
	Age      int
	WeightKG float64
	HeightCM float64
	Activity ActivityLevel
	Goal     Goal
}

// ConversationSession — эфемерное состояние диалога одного пользователя.
// Принадлежит исключительно конечному автомату; другие компоненты
// читают данные только через профиль в хранилище.
type ConversationSession struct {
	UserID       int64
	State        DialogState
	Pending      PendingAnswers
	Generating   bool // идёт обращение к генеративному провайдеру
	LastActivity time.Time
}
