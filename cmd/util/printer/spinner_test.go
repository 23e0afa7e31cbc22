//go:build unit || !integration

package printer

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bacalhau-project/cryri/pkg/logger"
)

func TestDisabledSpinnerWritesNothing(t *testing.T) {
	logger.ConfigureTestLogging(t)
	var buf bytes.Buffer

	s, err := NewSpinner(context.Background(), &buf, false)
	require.NoError(t, err)
	s.NextStep("Copying workspace")
	s.NextStep("Submitting job")
	s.Done(true)

	assert.Empty(t, buf.String())
}

func TestSpinnerSteps(t *testing.T) {
	logger.ConfigureTestLogging(t)
	var buf bytes.Buffer

	s, err := NewSpinner(context.Background(), &buf, true)
	require.NoError(t, err)
	s.NextStep("Copying workspace")
	s.NextStep("Submitting job")
	s.Done(false)

	out := buf.String()
	assert.Contains(t, out, "Copying workspace")
	assert.Contains(t, out, "Submitting job")
	assert.Equal(t, 1, strings.Count(out, "failed after"))
}
