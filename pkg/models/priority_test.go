//go:build unit || !integration

package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePriority(t *testing.T) {
	for _, name := range PriorityNames() {
		p, err := ParsePriority(name)
		require.NoError(t, err)
		assert.Equal(t, name, p.String())
	}

	_, err := ParsePriority("urgent")
	require.ErrorContains(t, err, "high, medium, low")

	_, err = ParsePriority("HIGH")
	require.Error(t, err)
}

func TestJobRequestCopy(t *testing.T) {
	r := &JobRequest{Image: "cr.x/img", Environment: map[string]string{"A": "1"}}
	c := r.Copy()
	c.Environment["A"] = "2"
	assert.Equal(t, "1", r.Environment["A"])

	var nilReq *JobRequest
	assert.Nil(t, nilReq.Copy())
}
