// Package transfer moves report files to and from the planner's drop area.
package transfer

import (
	"context"
	"errors"
	"regexp"
	"sort"
)

// ErrNotFound is returned when a remote file does not exist.
var ErrNotFound = errors.New("transfer: file not found")

// Remote is a flat file drop.
type Remote interface {
	Upload(ctx context.Context, name string, data []byte) error
	List(ctx context.Context) ([]string, error)
	Download(ctx context.Context, name string) ([]byte, error)
	Delete(ctx context.Context, name string) error
}

// Latest returns the lexicographically greatest name fully matching pattern.
func Latest(ctx context.Context, r Remote, pattern *regexp.Regexp) (string, error) {
	names, err := r.List(ctx)
	if err != nil {
		return "", err
	}
	full, err := regexp.Compile(`^(?:` + pattern.String() + `)$`)
	if err != nil {
		return "", err
	}
	var matched []string
	for _, name := range names {
		if full.MatchString(name) {
			matched = append(matched, name)
		}
	}
	if len(matched) == 0 {
		return "", ErrNotFound
	}
	sort.Strings(matched)
	return matched[len(matched)-1], nil
}
