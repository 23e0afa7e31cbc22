//go:build unit || !integration

package flags

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bacalhau-project/cryri/cmd/util/output"
	"github.com/bacalhau-project/cryri/pkg/logger"
)

func TestOutputFormatFlag(t *testing.T) {
	format := output.TableFormat
	flag := OutputFormatFlag(&format)

	require.NoError(t, flag.Set("json"))
	assert.Equal(t, output.JSONFormat, format)
	assert.Equal(t, "json", flag.String())
	assert.Equal(t, "format", flag.Type())

	require.Error(t, flag.Set("xml"))
	assert.Equal(t, output.JSONFormat, format, "a rejected value leaves the previous one")
}

func TestLoggingFlag(t *testing.T) {
	mode := logger.LogModeDefault
	flag := LoggingFlag(&mode)

	require.NoError(t, flag.Set("json"))
	assert.Equal(t, logger.LogModeJSON, mode)
	require.Error(t, flag.Set("station"))
}

func TestOutputFormatFlags(t *testing.T) {
	opts := output.OutputOptions{Format: output.TableFormat}
	flagset := OutputFormatFlags(&opts)

	require.NoError(t, flagset.Parse([]string{"--output", "yaml", "--wide", "--hide-header"}))
	assert.Equal(t, output.YAMLFormat, opts.Format)
	assert.True(t, opts.Wide)
	assert.True(t, opts.HideHeader)
	assert.False(t, opts.NoStyle)
}
