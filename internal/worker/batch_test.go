package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/riskpoint/internal/model"
)

type stubScorer struct {
	mu   sync.Mutex
	seen []map[string]string
}

func (s *stubScorer) Score(_ context.Context, selections map[string]string) (*model.Result, error) {
	s.mu.Lock()
	s.seen = append(s.seen, selections)
	s.mu.Unlock()

	if _, ok := selections["fail"]; ok {
		return nil, errors.New("incomplete")
	}
	return &model.Result{TotalScore: float64(len(selections)), Answered: len(selections)}, nil
}

func TestReadAnswerSets(t *testing.T) {
	input := strings.Join([]string{
		"# respondents",
		"1=0&2=1",
		"",
		"?3=1",
		"  4=0  ",
	}, "\n")

	sets, err := ReadAnswerSets(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []AnswerSet{
		{Line: 2, Query: "1=0&2=1"},
		{Line: 4, Query: "3=1"},
		{Line: 5, Query: "4=0"},
	}, sets)
}

func TestBatchProcessor_Process(t *testing.T) {
	scorer := &stubScorer{}
	b := NewBatchProcessor(scorer, 3)

	sets := []AnswerSet{
		{Line: 3, Query: "1=0&2=1&3=0"},
		{Line: 1, Query: "1=1"},
		{Line: 2, Query: "fail=1"},
		{Line: 4, Query: "%zz"},
	}

	results := b.Process(context.Background(), sets)
	require.Len(t, results, 4)

	assert.Equal(t, 1, results[0].Line)
	require.NoError(t, results[0].GetError())
	assert.Equal(t, 1.0, results[0].Result.TotalScore)

	assert.Equal(t, 2, results[1].Line)
	assert.ErrorContains(t, results[1].GetError(), "line 2")

	assert.Equal(t, 3, results[2].Line)
	assert.Equal(t, 3, results[2].Result.Answered)

	assert.Equal(t, 4, results[3].Line)
	assert.Error(t, results[3].GetError(), "invalid query escape")

	assert.Len(t, scorer.seen, 3, "unparseable query never reaches the scorer")
}

func TestBatchProcessor_Empty(t *testing.T) {
	b := NewBatchProcessor(&stubScorer{}, 2)
	assert.Empty(t, b.Process(context.Background(), nil))
}

func TestBatchProcessor_ProcessFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "answers.txt")
	require.NoError(t, os.WriteFile(path, []byte("1=0\n2=1\n"), 0o644))

	results, err := NewBatchProcessor(&stubScorer{}, 2).ProcessFile(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "2=1", results[1].Query)

	_, err = NewBatchProcessor(&stubScorer{}, 2).ProcessFile(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
