package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProjectStatusValid(t *testing.T) {
	assert.True(t, ProjectStatusActive.Valid())
	assert.True(t, ProjectStatusCompleted.Valid())
	assert.True(t, ProjectStatusArchived.Valid())
	assert.False(t, ProjectStatus("paused").Valid())
	assert.False(t, ProjectStatus("").Valid())
}
