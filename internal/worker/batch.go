package worker

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/ppiankov/riskpoint/internal/model"
	"github.com/ppiankov/riskpoint/internal/params"
)

// Scorer scores one answer set (record number -> option index)
type Scorer interface {
	Score(ctx context.Context, selections map[string]string) (*model.Result, error)
}

// AnswerSet is one line of a batch file: a query string of selections
type AnswerSet struct {
	Line  int
	Query string
}

// ScoreJob scores one answer set
type ScoreJob struct {
	Set    AnswerSet
	Scorer Scorer
}

// Execute parses the query and scores it
func (j *ScoreJob) Execute(ctx context.Context) Result {
	res := &ScoreResult{Line: j.Set.Line, Query: j.Set.Query}

	store, err := params.FromQuery(j.Set.Query, nil)
	if err != nil {
		res.Error = fmt.Errorf("line %d: %w", j.Set.Line, err)
		return res
	}

	res.Result, res.Error = j.Scorer.Score(ctx, store.All())
	if res.Error != nil {
		res.Error = fmt.Errorf("line %d: %w", j.Set.Line, res.Error)
	}
	return res
}

// ScoreResult is the outcome of one ScoreJob
type ScoreResult struct {
	Line   int
	Query  string
	Result *model.Result
	Error  error
}

// GetError returns the job error
func (r *ScoreResult) GetError() error {
	return r.Error
}

// BatchProcessor scores many answer sets concurrently
type BatchProcessor struct {
	scorer      Scorer
	concurrency int
}

// NewBatchProcessor creates a batch processor
func NewBatchProcessor(scorer Scorer, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		scorer:      scorer,
		concurrency: concurrency,
	}
}

// Process scores sets and returns results ordered by line
func (b *BatchProcessor) Process(ctx context.Context, sets []AnswerSet) []*ScoreResult {
	if len(sets) == 0 {
		return []*ScoreResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	go func() {
		for _, set := range sets {
			if err := pool.Submit(&ScoreJob{Set: set, Scorer: b.scorer}); err != nil {
				break
			}
		}
		pool.Close()
	}()

	results := make([]*ScoreResult, 0, len(sets))
	for r := range pool.Results() {
		results = append(results, r.(*ScoreResult))
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Line < results[j].Line })
	return results
}

// ProcessFile reads answer sets from a file and scores them
func (b *BatchProcessor) ProcessFile(ctx context.Context, path string) ([]*ScoreResult, error) {
	sets, err := ReadAnswerSetsFromFile(path)
	if err != nil {
		return nil, err
	}
	return b.Process(ctx, sets), nil
}

// ReadAnswerSetsFromFile reads one query string per line
func ReadAnswerSetsFromFile(path string) ([]AnswerSet, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return ReadAnswerSets(file)
}

// ReadAnswerSets skips blank lines and # comments; a leading "?" is dropped
func ReadAnswerSets(r io.Reader) ([]AnswerSet, error) {
	var sets []AnswerSet

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		sets = append(sets, AnswerSet{Line: line, Query: strings.TrimPrefix(text, "?")})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan answer sets: %w", err)
	}

	return sets, nil
}
