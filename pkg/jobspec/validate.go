package jobspec

import (
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/bacalhau-project/cryri/pkg/cryerrors"
)

const (
	fieldImage              = "container.image"
	fieldCommand            = "container.command"
	fieldCopyDir            = "container.cry_copy_dir"
	fieldNWorkers           = "cloud.n_workers"
	fieldPriority           = "cloud.priority"
	fieldProcessesPerWorker = "cloud.processes_per_worker"
)

// Validate checks the rules that do not depend on tool settings. It is run
// once, right after parsing, and again by the Builder.
func (c *JobConfig) Validate() error {
	mErr := newValidationErrors()
	if strings.TrimSpace(c.Container.Image) == "" {
		mErr = multierror.Append(mErr, cryerrors.NewValidationError(fieldImage, "must not be empty"))
	}
	if strings.TrimSpace(c.Container.Command) == "" {
		mErr = multierror.Append(mErr, cryerrors.NewValidationError(fieldCommand, "must not be empty"))
	}
	if c.Cloud.NWorkers != DefaultNWorkers {
		mErr = multierror.Append(mErr, cryerrors.NewValidationError(fieldNWorkers,
			"must be %d, multi-worker jobs are not supported (got %d)", DefaultNWorkers, c.Cloud.NWorkers))
	}
	if !c.Cloud.Priority.IsValid() {
		mErr = multierror.Append(mErr, cryerrors.NewValidationError(fieldPriority,
			"%q is not one of high, medium, low", c.Cloud.Priority))
	}
	if c.Cloud.ProcessesPerWorker < 1 {
		mErr = multierror.Append(mErr, cryerrors.NewValidationError(fieldProcessesPerWorker,
			"must be at least 1 (got %d)", c.Cloud.ProcessesPerWorker))
	}
	if c.Container.RunFromCopy && strings.TrimSpace(c.Container.CopyDir) == "" {
		mErr = multierror.Append(mErr, cryerrors.NewValidationError(fieldCopyDir,
			"must be set when run_from_copy is true"))
	}
	return mErr.ErrorOrNil()
}

// ValidateImage checks that image starts with one of the accepted registry
// prefixes. An empty prefix list accepts any non-empty image.
func ValidateImage(image string, allowedPrefixes []string) error {
	if strings.TrimSpace(image) == "" {
		return cryerrors.NewValidationError(fieldImage, "must not be empty")
	}
	if len(allowedPrefixes) == 0 {
		return nil
	}
	for _, prefix := range allowedPrefixes {
		if strings.HasPrefix(image, prefix) {
			return nil
		}
	}
	return cryerrors.NewValidationError(fieldImage,
		"%q must start with one of: %s", image, strings.Join(allowedPrefixes, ", "))
}

func newValidationErrors() *multierror.Error {
	return &multierror.Error{ErrorFormat: func(errs []error) string {
		msgs := make([]string, 0, len(errs))
		for _, err := range errs {
			msgs = append(msgs, err.Error())
		}
		return strings.Join(msgs, "; ")
	}}
}
