package deepseek

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/igorsavinkin/ai-diet-planner/internal/model"
)

func completedProfile() *model.UserProfile {
	gender := model.Male
	age := 30
	weight := 70.0
	height := 175.0
	activity := model.Medium
	goal := model.LoseWeight
	return &model.UserProfile{
		UserID:        1,
		Gender:        &gender,
		Age:           &age,
		WeightKG:      &weight,
		HeightCM:      &height,
		Activity:      &activity,
		Goal:          &goal,
		BMR:           1696,
		TDEE:          2628.8,
		CalorieTarget: 2128.8,
		Completed:     true,
	}
}

func completionBody(content string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	})
	return string(b)
}

func TestGenerateWeeklyMenu_Success(t *testing.T) {
	var gotReq chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, chatPath, r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Write([]byte(completionBody("Monday: oatmeal...")))
	}))
	defer srv.Close()

	c := NewClient("test-key", srv.URL, 5*time.Second)
	text, err := c.GenerateWeeklyMenu(context.Background(), completedProfile())
	require.NoError(t, err)
	assert.Equal(t, "Monday: oatmeal...", text)

	assert.Equal(t, chatModel, gotReq.Model)
	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, "system", gotReq.Messages[0].Role)
	assert.Contains(t, gotReq.Messages[1].Content, "2129 calories")
}

func TestGenerate_Quota(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient("test-key", srv.URL, 5*time.Second)
	_, err := c.GenerateDiet(context.Background(), completedProfile())

	var perr *ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, CauseQuota, perr.Cause)
}

func TestGenerate_MalformedResponse(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"not json", "<html>oops</html>"},
		{"empty choices", `{"choices":[]}`},
		{"error in body", `{"error":{"message":"bad request","type":"invalid_request_error"}}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			c := NewClient("test-key", srv.URL, 5*time.Second)
			_, err := c.GenerateWeeklyMenu(context.Background(), completedProfile())

			var perr *ProviderError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, CauseMalformed, perr.Cause)
		})
	}
}

func TestGenerate_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.Write([]byte(completionBody("too late")))
	}))
	defer srv.Close()

	c := NewClient("test-key", srv.URL, 50*time.Millisecond)
	_, err := c.GenerateWeeklyMenu(context.Background(), completedProfile())

	var perr *ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, CauseTimeout, perr.Cause)
}

func TestGenerate_NoAPIKey(t *testing.T) {
	c := NewClient("", "", 5*time.Second)
	assert.False(t, c.Available())

	_, err := c.GenerateWeeklyMenu(context.Background(), completedProfile())
	var perr *ProviderError
	require.ErrorAs(t, err, &perr)
}

func TestGenerate_UnfinalizedProfile(t *testing.T) {
	c := NewClient("test-key", "", 5*time.Second)
	p := completedProfile()
	p.Completed = false

	// Ошибка программирования, не сбой провайдера
	_, err := c.GenerateWeeklyMenu(context.Background(), p)
	require.Error(t, err)
	var perr *ProviderError
	assert.False(t, errors.As(err, &perr))
}

// TestBuildWeeklyMenuPrompt_Deterministic: один профиль — один текст.
func TestBuildWeeklyMenuPrompt_Deterministic(t *testing.T) {
	p := completedProfile()
	first := BuildWeeklyMenuPrompt(p)
	second := BuildWeeklyMenuPrompt(p)
	assert.Equal(t, first, second)

	assert.Contains(t, first, "30-year-old male")
	assert.Contains(t, first, "Weight: 70.0 kg")
	assert.Contains(t, first, "Height: 175.0 cm")
	assert.Contains(t, first, "Medium activity")
	assert.Contains(t, first, "Lose weight")
	assert.Contains(t, first, "Daily calorie target: 2129 calories")
	assert.Contains(t, first, "BMR: 1696 calories")
	assert.Contains(t, first, "TDEE: 2629 calories")
}

func TestBuildDietPrompt(t *testing.T) {
	p := completedProfile()
	prompt := BuildDietPrompt(p)
	assert.Contains(t, prompt, "2129 calories")
	assert.Contains(t, prompt, "one-day sample menu")
}
