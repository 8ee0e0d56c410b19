package charts

import (
	"bytes"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"

	"github.com/igorsavinkin/ai-diet-planner/internal/model"
	"github.com/igorsavinkin/ai-diet-planner/internal/service"
)

// ChartGenerator строит графики для административной статистики.
type ChartGenerator struct{}

func NewChartGenerator() *ChartGenerator {
	return &ChartGenerator{}
}

// goalOrder — стабильный порядок секторов на диаграмме.
var goalOrder = []model.Goal{model.LoseWeight, model.Maintain, model.GainWeight}

// GenerateGoalDistribution рисует круговую диаграмму распределения
// целей пользователей. Возвращает nil, если данных для графика нет.
func (g *ChartGenerator) GenerateGoalDistribution(stats *service.Stats) ([]byte, error) {
	if stats == nil || len(stats.GoalDistribution) == 0 {
		return nil, nil
	}

	values := make([]chart.Value, 0, len(goalOrder))
	for _, goal := range goalOrder {
		count := stats.GoalDistribution[goal]
		if count == 0 {
			continue
		}
		values = append(values, chart.Value{
			Value: float64(count),
			Label: fmt.Sprintf("%s (%d)", goal.Label(), count),
		})
	}
	if len(values) == 0 {
		return nil, nil
	}

	pie := chart.PieChart{
		Width:  600,
		Height: 600,
		Values: values,
	}

	var buf bytes.Buffer
	if err := pie.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("failed to render goal chart: %w", err)
	}
	return buf.Bytes(), nil
}
