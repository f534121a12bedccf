package pipeline

import (
	"fmt"
	"slices"

	"github.com/ppiankov/riskpoint/internal/params"
)

// ShareURL writes selections into base's query so the answer set can be reopened
func ShareURL(base string, selections map[string]string) (string, error) {
	syncer, err := params.NewURLSync(base)
	if err != nil {
		return "", fmt.Errorf("parse share URL: %w", err)
	}

	store := params.NewStore(nil, syncer)
	keys := make([]string, 0, len(selections))
	for k := range selections {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		if err := store.Set(k, selections[k]); err != nil {
			return "", fmt.Errorf("persist answer %s: %w", k, err)
		}
	}
	return syncer.String(), nil
}
