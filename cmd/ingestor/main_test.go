package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		mode  runMode
		files []string
	}{
		{"no arguments consumes", nil, modeConsume, nil},
		{"files are imported", []string{"a.json", "b.json"}, modeImport, []string{"a.json", "b.json"}},
		{"queue with files", []string{"queue", "a.json"}, modeQueue, []string{"a.json"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mode, files, err := parseArgs(tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.mode, mode)
			assert.Equal(t, tt.files, files)
		})
	}
}

func TestParseArgs_QueueWithoutFiles(t *testing.T) {
	_, files, err := parseArgs([]string{"queue"})
	require.ErrorIs(t, err, errQueueUsage)
	assert.Empty(t, files)
}
