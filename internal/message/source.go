package message

import (
	"context"
	_ "embed"
	"fmt"
	"os"
)

//go:embed messages.json
var defaultStore []byte

// Source yields the raw message-store document
type Source interface {
	Load(ctx context.Context) ([]byte, error)
	String() string
}

// Getter fetches a URL body; pipeline.Fetcher satisfies it
type Getter interface {
	Get(ctx context.Context, rawURL string) ([]byte, error)
}

// HTTPSource loads the store from a URL
type HTTPSource struct {
	URL    string
	Getter Getter
}

func (s HTTPSource) Load(ctx context.Context) ([]byte, error) {
	body, err := s.Getter.Get(ctx, s.URL)
	if err != nil {
		return nil, fmt.Errorf("fetch message store: %w", err)
	}
	return body, nil
}

func (s HTTPSource) String() string { return s.URL }

// FileSource loads the store from a local file
type FileSource struct {
	Path string
}

func (s FileSource) Load(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read message store: %w", err)
	}
	return data, nil
}

func (s FileSource) String() string { return s.Path }

// EmbeddedSource serves the store compiled into the binary
type EmbeddedSource struct{}

func (EmbeddedSource) Load(_ context.Context) ([]byte, error) {
	return defaultStore, nil
}

func (EmbeddedSource) String() string { return "embedded" }

// StaticSource serves an in-memory document
type StaticSource []byte

func (s StaticSource) Load(_ context.Context) ([]byte, error) {
	return s, nil
}

func (StaticSource) String() string { return "static" }
