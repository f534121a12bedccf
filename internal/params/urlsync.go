package params

import (
	"net/url"
	"sync"
)

// URLSync mirrors the store into the query string of a shareable URL,
// keeping any unrelated query parameters
type URLSync struct {
	mu  sync.Mutex
	url url.URL
}

// NewURLSync parses the base URL the selections are written into
func NewURLSync(base string) (*URLSync, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, err
	}
	return &URLSync{url: *u}, nil
}

// Persist writes values into the URL query
func (u *URLSync) Persist(values map[string]string) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	q := u.url.Query()
	for k, v := range values {
		q.Set(k, v)
	}
	u.url.RawQuery = q.Encode()
	return nil
}

// String returns the current URL without its fragment
func (u *URLSync) String() string {
	u.mu.Lock()
	defer u.mu.Unlock()

	out := u.url
	out.Fragment = ""
	return out.String()
}
