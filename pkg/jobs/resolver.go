// Package jobs locates a job from the short hash fragment a user types.
package jobs

import (
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/bacalhau-project/cryri/pkg/cryerrors"
	"github.com/bacalhau-project/cryri/pkg/models"
)

// ResolveID returns the full ID of the single job in summaries whose ID
// starts with fragment. Matching is case sensitive. An ID equal to the
// fragment wins over longer IDs sharing it as a prefix. Several matches are
// never narrowed down to one: the caller gets an AmbiguousError listing them.
func ResolveID(fragment string, region string, summaries []models.JobSummary) (string, error) {
	if err := ValidateFragment(fragment); err != nil {
		return "", err
	}

	ids := lo.Uniq(lo.FilterMap(summaries, func(s models.JobSummary, _ int) (string, bool) {
		return s.ID, strings.HasPrefix(s.ID, fragment)
	}))
	if lo.Contains(ids, fragment) {
		return fragment, nil
	}

	switch len(ids) {
	case 0:
		return "", cryerrors.NewNotFoundError(fragment, region)
	case 1:
		return ids[0], nil
	default:
		sort.Strings(ids)
		return "", cryerrors.NewAmbiguousError(fragment, region, ids)
	}
}

// ValidateFragment rejects fragments that would match every job. Callers
// use it to fail before listing jobs.
func ValidateFragment(fragment string) error {
	if strings.TrimSpace(fragment) == "" {
		return cryerrors.NewValidationError("job id", "must not be empty")
	}
	return nil
}
