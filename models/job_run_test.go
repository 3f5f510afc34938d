package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJobRunStatusValid(t *testing.T) {
	assert.True(t, JobRunStatusPending.Valid())
	assert.True(t, JobRunStatusRunning.Valid())
	assert.True(t, JobRunStatusCompleted.Valid())
	assert.True(t, JobRunStatusFailed.Valid())
	assert.False(t, JobRunStatus("CANCELLED").Valid())
}

func TestJobRunStatusIsTerminal(t *testing.T) {
	assert.False(t, JobRunStatusPending.IsTerminal())
	assert.False(t, JobRunStatusRunning.IsTerminal())
	assert.True(t, JobRunStatusCompleted.IsTerminal())
	assert.True(t, JobRunStatusFailed.IsTerminal())
}

func TestJobRunCanTransitionTo(t *testing.T) {
	tests := []struct {
		name    string
		from    JobRunStatus
		to      JobRunStatus
		allowed bool
	}{
		{"pending to running", JobRunStatusPending, JobRunStatusRunning, true},
		{"pending to completed skips running", JobRunStatusPending, JobRunStatusCompleted, false},
		{"pending to failed skips running", JobRunStatusPending, JobRunStatusFailed, false},
		{"running to completed", JobRunStatusRunning, JobRunStatusCompleted, true},
		{"running to failed", JobRunStatusRunning, JobRunStatusFailed, true},
		{"running back to pending", JobRunStatusRunning, JobRunStatusPending, false},
		{"completed is final", JobRunStatusCompleted, JobRunStatusRunning, false},
		{"failed is final", JobRunStatusFailed, JobRunStatusRunning, false},
		{"failed cannot complete", JobRunStatusFailed, JobRunStatusCompleted, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			run := &JobRun{Status: tt.from}
			assert.Equal(t, tt.allowed, run.CanTransitionTo(tt.to))
		})
	}
}
