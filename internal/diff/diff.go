// Package diff renders unified diffs of JSON documents.
package diff

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/papapumpkin/casmproj/internal/jsonio"
)

// DefaultContext is the number of context lines around each hunk.
const DefaultContext = 3

// Unified returns the unified diff of two texts, or "" when they are equal.
func Unified(fromName, toName, from, to string, context int) (string, error) {
	if from == to {
		return "", nil
	}
	out, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(from),
		B:        difflib.SplitLines(to),
		FromFile: fromName,
		ToFile:   toName,
		Context:  context,
	})
	if err != nil {
		return "", fmt.Errorf("computing diff: %w", err)
	}
	return out, nil
}

// JSON pretty-prints from and to and returns their unified diff.
func JSON(fromName, toName string, from, to any) (string, error) {
	a, err := jsonio.PrettyJSON(from)
	if err != nil {
		return "", fmt.Errorf("encoding %s: %w", fromName, err)
	}
	b, err := jsonio.PrettyJSON(to)
	if err != nil {
		return "", fmt.Errorf("encoding %s: %w", toName, err)
	}
	return Unified(fromName, toName, string(a), string(b), DefaultContext)
}

// Stat counts the added and removed lines of a unified diff, excluding the
// file headers.
func Stat(unified string) (added, removed int) {
	for _, line := range strings.Split(unified, "\n") {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
		case strings.HasPrefix(line, "+"):
			added++
		case strings.HasPrefix(line, "-"):
			removed++
		}
	}
	return added, removed
}
