package services

import (
	"encoding/json"
	"strings"

	"github.com/rpupo63/campus-connect-backend/errs"
)

// ContributorsPolicy decides what happens to a contributors field that is not a JSON array
// of strings.
type ContributorsPolicy int

const (
	// ContributorsLenient treats malformed input as "no contributors".
	ContributorsLenient ContributorsPolicy = iota
	// ContributorsStrict rejects malformed input with a validation error.
	ContributorsStrict
)

// ParseContributors decodes the serialized contributor list sent with a new project.
// The bool result is false when the input was malformed and the lenient policy dropped it.
func ParseContributors(raw string, policy ContributorsPolicy) ([]string, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{}, true, nil
	}

	var names []string
	if err := json.Unmarshal([]byte(raw), &names); err != nil {
		if policy == ContributorsStrict {
			return nil, false, errs.NewInvalidFieldError("contributors", "must be a JSON array of names")
		}
		return []string{}, false, nil
	}

	contributors := make([]string, 0, len(names))
	for _, name := range names {
		if name = strings.TrimSpace(name); name != "" {
			contributors = append(contributors, name)
		}
	}
	return contributors, true, nil
}
