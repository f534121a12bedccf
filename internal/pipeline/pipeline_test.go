package pipeline

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/riskpoint/internal/message"
	"github.com/ppiankov/riskpoint/internal/model"
	"github.com/ppiankov/riskpoint/internal/observability"
)

var fixedNow = time.Date(2025, 3, 11, 14, 46, 0, 0, time.UTC)

// fullAnswers answers every visible question of the bundled feed
var fullAnswers = map[string]string{
	"1": "1", "2": "2", "3": "1", "4": "1", "5": "0",
	"6": "0", "7": "0", "8": "1", "9": "1", "10": "0",
}

func testConfig() *model.Config {
	cfg := model.DefaultConfig()
	cfg.Feed.Mock = true
	cfg.Cache.Enabled = false
	cfg.RateLimiting.RequestsPerSecond = 0
	return cfg
}

func loadedPipeline(t *testing.T, cfg *model.Config, opts ...Option) *Pipeline {
	t.Helper()
	opts = append([]Option{WithLogger(observability.Discard()), WithClock(func() time.Time { return fixedNow })}, opts...)
	p := NewPipeline(cfg, opts...)
	_, err := p.Load(context.Background())
	require.NoError(t, err)
	return p
}

func copyAnswers(except ...string) map[string]string {
	out := make(map[string]string, len(fullAnswers))
	for k, v := range fullAnswers {
		out[k] = v
	}
	for _, k := range except {
		delete(out, k)
	}
	return out
}

func TestLoad_Mock(t *testing.T) {
	p := NewPipeline(testConfig(), WithLogger(observability.Discard()))
	assert.False(t, p.Loaded())

	set, err := p.Load(context.Background())
	require.NoError(t, err)

	assert.True(t, p.Loaded())
	assert.Equal(t, 11, set.Count())
	assert.Equal(t, []string{"家族", "コミュニティ", "家屋", "情報", "お金"}, set.Categories())
	assert.Len(t, set.Visible(), 10, "disabled question is hidden")
	assert.Empty(t, p.Validation().Issues)
	assert.Equal(t, 11, p.Validation().Records)
}

func TestLoad_Live(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get("x-api-key") != "k-123" {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		_, _ = w.Write(SampleFeed())
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.Feed.Mock = false
	cfg.Feed.URL = server.URL
	cfg.Feed.APIKey = "k-123"

	p := NewPipeline(cfg, WithLogger(observability.Discard()))
	set, err := p.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 11, set.Len())

	cfg.Feed.APIKey = "wrong"
	_, err = NewPipeline(cfg, WithLogger(observability.Discard())).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load feed")
}

func TestLoad_DecodeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>gateway error</html>"))
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.Feed.Mock = false
	cfg.Feed.URL = server.URL

	_, err := NewPipeline(cfg, WithLogger(observability.Discard())).Load(context.Background())
	require.Error(t, err)
}

func TestNotLoaded(t *testing.T) {
	p := NewPipeline(testConfig(), WithLogger(observability.Discard()))

	_, err := p.Questionnaire(nil)
	assert.ErrorIs(t, err, ErrNotLoaded)

	_, err = p.Score(context.Background(), fullAnswers)
	assert.ErrorIs(t, err, ErrNotLoaded)
}

func TestQuestionnaire(t *testing.T) {
	p := loadedPipeline(t, testConfig())

	q, err := p.Questionnaire(map[string]string{"2": "2"})
	require.NoError(t, err)

	assert.Equal(t, 10, q.Questions)
	assert.Equal(t, 1, q.Answered)
	require.Len(t, q.Categories, 5)

	family := q.Categories[0]
	assert.Equal(t, "家族", family.Category)
	assert.Equal(t, "category-1", family.Class)
	require.Len(t, family.Questions, 2)

	second := family.Questions[1]
	assert.Equal(t, "2", second.RecordNumber)
	assert.Equal(t, 2, second.Index)
	assert.Empty(t, second.DisplayOrder, "display order only in debug mode")
	require.Len(t, second.Choices, 3)
	assert.Equal(t, "", second.Choices[0].Formula, "risk 0 does not satisfy >= 4")
	assert.Equal(t, "", second.Choices[1].Formula)
	assert.Equal(t, "1*1.50", second.Choices[2].Formula)
	assert.True(t, second.Choices[2].Selected)
	assert.Empty(t, second.Choices[2].Diagnostic)

	house := q.Categories[2]
	assert.Equal(t, "家屋", house.Category)
	assert.Len(t, house.Questions, 2)
}

func TestQuestionnaire_Debug(t *testing.T) {
	cfg := testConfig()
	cfg.Output.Debug = true
	p := loadedPipeline(t, cfg)

	q, err := p.Questionnaire(nil)
	require.NoError(t, err)
	assert.True(t, q.Debug)

	question := q.Categories[0].Questions[1]
	assert.Equal(t, "2", question.DisplayOrder)
	assert.Equal(t, "Num: 2 / RP: 4 / Effect: 1*1.50", question.Choices[2].Diagnostic)
	assert.Equal(t, "Num: 2 / RP: 0 / Effect: none", question.Choices[0].Diagnostic)
}

func TestCategoryClass(t *testing.T) {
	assert.Equal(t, "category-5", CategoryClass("お金"))
	assert.Equal(t, "category-default", CategoryClass("その他"))
}

func TestScore_EndToEnd(t *testing.T) {
	metrics, _ := observability.NewMetricsForTesting()
	p := loadedPipeline(t, testConfig(), WithMetrics(metrics))

	result, err := p.Score(context.Background(), fullAnswers)
	require.NoError(t, err)

	assert.Equal(t, fixedNow, result.ScoredAt)
	assert.True(t, result.Complete)
	assert.Equal(t, 10, result.Answered)
	assert.Equal(t, 10, result.Expected)
	assert.InDelta(t, 27.74, result.TotalScore, 1e-9)
	assert.Empty(t, result.Unresolved)

	require.Len(t, result.Categories, 5)
	totals := map[string]float64{}
	for _, c := range result.Categories {
		totals[c.Category] = c.Total
	}
	assert.InDelta(t, 11.5, totals["家族"], 1e-9)
	assert.InDelta(t, 9.24, totals["コミュニティ"], 1e-9)
	assert.InDelta(t, 0, totals["家屋"], 1e-9)
	assert.InDelta(t, 4, totals["情報"], 1e-9)
	assert.InDelta(t, 3, totals["お金"], 1e-9)
	assert.Equal(t, "./img/family_low.webp", result.Categories[0].Image)

	assert.Equal(t, "家族", result.HighRisk.Category)
	assert.InDelta(t, 11.5, result.HighRisk.Score, 1e-9)
	assert.Equal(t, "1", result.HighRisk.RecordNumber)
	assert.Contains(t, result.HighRisk.Message, "家族で集合場所")
	assert.Contains(t, result.HighRisk.MessageHTML, "<br>")
	assert.Equal(t, "./img/family_low.webp", result.HighRisk.Image)

	assert.Equal(t, "家屋", result.LowRisk.Category)
	assert.Equal(t, "5", result.LowRisk.RecordNumber, "tie resolves to the first question")
	assert.Contains(t, result.LowRisk.Message, "住まいの対策")
	assert.Equal(t, "./img/residence_low.webp", result.LowRisk.Image)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ScoringPasses.WithLabelValues("success")))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.MessageFallbacks))
}

func TestScore_AppliesCoefficients(t *testing.T) {
	p := loadedPipeline(t, testConfig())

	result, err := p.Score(context.Background(), fullAnswers)
	require.NoError(t, err)

	byNumber := map[string]model.ScoredAnswer{}
	for _, a := range result.Answers {
		byNumber[a.RecordNumber] = a
	}

	assert.Equal(t, []float64{1.5}, byNumber["1"].Coefficients)
	assert.InDelta(t, 7.5, byNumber["1"].Final, 1e-9)
	assert.Equal(t, []float64{1.2, 1.3}, byNumber["3"].Coefficients)
	assert.Equal(t, "3*1.20", byNumber["4"].Formula)
	assert.Empty(t, byNumber["6"].Formula, "risk 0 does not equal 5")
}

func TestScore_Incomplete(t *testing.T) {
	metrics, _ := observability.NewMetricsForTesting()
	p := loadedPipeline(t, testConfig(), WithMetrics(metrics))

	_, err := p.Score(context.Background(), copyAnswers("7"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIncomplete))
	assert.Contains(t, err.Error(), "9 of 10")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ScoringPasses.WithLabelValues("incomplete")))
}

func TestScore_DebugAllowsPartial(t *testing.T) {
	cfg := testConfig()
	cfg.Output.Debug = true
	metrics, _ := observability.NewMetricsForTesting()
	p := loadedPipeline(t, cfg, WithMetrics(metrics))

	// question 3 is unanswered, so the impacts of 4 and 8 have no target
	result, err := p.Score(context.Background(), copyAnswers("3"))
	require.NoError(t, err)
	assert.False(t, result.Complete)
	assert.Equal(t, 9, result.Answered)
	assert.Equal(t, []string{"3"}, result.Unresolved)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.UnresolvedTargets))
}

func TestScore_DebugNoAnswers(t *testing.T) {
	cfg := testConfig()
	cfg.Output.Debug = true
	p := loadedPipeline(t, cfg)

	result, err := p.Score(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, result.TotalScore)
	assert.Empty(t, result.HighRisk.Category)
	assert.Empty(t, result.LowRisk.Category)
}

func TestScore_InvalidSelection(t *testing.T) {
	p := loadedPipeline(t, testConfig())

	answers := copyAnswers()
	answers["1"] = "7"
	_, err := p.Score(context.Background(), answers)
	assert.ErrorIs(t, err, ErrInvalidSelection)

	answers["1"] = "first"
	_, err = p.Score(context.Background(), answers)
	assert.ErrorIs(t, err, ErrInvalidSelection)
}

func TestScore_IgnoresUnknownKeys(t *testing.T) {
	p := loadedPipeline(t, testConfig())

	answers := copyAnswers()
	answers["lang"] = "ja"
	answers["11"] = "1" // disabled question
	result, err := p.Score(context.Background(), answers)
	require.NoError(t, err)
	assert.Equal(t, 10, result.Answered)
}

func TestScore_MessageFallback(t *testing.T) {
	metrics, _ := observability.NewMetricsForTesting()
	resolver := message.NewResolver(message.StaticSource(`{}`), observability.Discard())
	p := loadedPipeline(t, testConfig(), WithMetrics(metrics), WithResolver(resolver))

	result, err := p.Score(context.Background(), fullAnswers)
	require.NoError(t, err)
	assert.Equal(t, message.Fallback(message.VariantHigh, "1"), result.HighRisk.Message)
	assert.Equal(t, message.Fallback(message.VariantLow, "5"), result.LowRisk.Message)
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.MessageFallbacks))
}

func TestScore_MessageStoreOverHTTP(t *testing.T) {
	var hits atomic.Int32
	store := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{"家族":{"1":{"messages":{"high_risk":"remote high","low_risk":"remote low"}}}}`))
	}))
	defer store.Close()

	cfg := testConfig()
	cfg.Messages.URL = store.URL + "/messages.json"
	p := loadedPipeline(t, cfg)

	for i := 0; i < 3; i++ {
		result, err := p.Score(context.Background(), fullAnswers)
		require.NoError(t, err)
		assert.Equal(t, "remote high", result.HighRisk.Message)
		assert.Equal(t, message.Fallback(message.VariantLow, "5"), result.LowRisk.Message)
	}
	assert.Equal(t, int32(1), hits.Load(), "store is fetched once per resolver")
}

func TestScoreQuery(t *testing.T) {
	p := loadedPipeline(t, testConfig())

	result, err := p.ScoreQuery(context.Background(), "?1=1&2=2&3=1&4=1&5=0&6=0&7=0&8=1&9=1&10=0")
	require.NoError(t, err)
	assert.InDelta(t, 27.74, result.TotalScore, 1e-9)

	_, err = p.ScoreQuery(context.Background(), "1=%zz")
	assert.Error(t, err)
}

func TestShareURL(t *testing.T) {
	link, err := ShareURL("https://survey.example.org/?lang=ja#result", map[string]string{"2": "1", "10": "0"})
	require.NoError(t, err)
	assert.Equal(t, "https://survey.example.org/?10=0&2=1&lang=ja", link)

	_, err = ShareURL("://bad", nil)
	assert.Error(t, err)
}
