package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/devtrackhq/statusboard/internal/events"
	"github.com/devtrackhq/statusboard/internal/models"
	"github.com/devtrackhq/statusboard/internal/repository"
	syncpkg "github.com/devtrackhq/statusboard/internal/sync"
)

func newGatewayFixture(t *testing.T) (*SyncGateway, *events.Bus, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	require.NoError(t, db.AutoMigrate(
		&models.Developer{},
		&models.Role{},
		&models.Project{},
		&models.Task{},
		&models.TaskAssignee{},
		&models.ChangeLog{},
	))

	actor := &models.Developer{Name: "Lead", Username: "lead", PasswordHash: "x", Color: "#1A535C"}
	require.NoError(t, db.Create(actor).Error)
	require.NoError(t, db.Create(&models.Project{Name: "Board", Status: models.ProjectStatusActive}).Error)

	bus := events.NewBus()
	t.Cleanup(bus.Close)

	taskService := NewTaskService(
		repository.NewTaskRepository(db),
		repository.NewProjectRepository(db),
		repository.NewChangeLogRepository(db),
		bus,
	)
	return NewSyncGateway(taskService, actor.ID), bus, db
}

func TestSessionFlushPersistsThroughGateway(t *testing.T) {
	gateway, bus, db := newGatewayFixture(t)
	ctx := context.Background()

	for _, title := range []string{"One", "Two"} {
		_, err := gateway.CreateTask(ctx, models.Task{
			ProjectID:  1,
			Title:      title,
			StartDate:  models.NewDate(2026, time.March, 2),
			TargetDate: models.NewDate(2026, time.March, 16),
		})
		require.NoError(t, err)
	}

	session := syncpkg.NewSession(gateway, syncpkg.Options{})
	require.NoError(t, session.LoadProject(ctx, 1))
	require.Equal(t, 2, session.Cache().Len())

	sub := bus.Subscribe(16)
	title := "One, renamed"
	status := models.TaskStatusInProgress
	session.UpdateTaskLocally(1, models.TaskPatch{Title: &title})
	session.UpdateTaskLocally(2, models.TaskPatch{Status: &status})
	require.NoError(t, session.SaveAllChanges(ctx))

	var first models.Task
	require.NoError(t, db.First(&first, 1).Error)
	assert.Equal(t, "One, renamed", first.Title)
	var second models.Task
	require.NoError(t, db.First(&second, 2).Error)
	assert.Equal(t, models.TaskStatusInProgress, second.Status)

	// One rebroadcast per flushed row.
	var updates int
	for len(sub.C) > 0 {
		if _, ok := (<-sub.C).(events.TaskUpdated); ok {
			updates++
		}
	}
	assert.Equal(t, 2, updates)
	assert.False(t, session.HasPendingChanges())
}

func TestGatewayDeleteRemovesRowAndBroadcasts(t *testing.T) {
	gateway, bus, db := newGatewayFixture(t)
	ctx := context.Background()

	created, err := gateway.CreateTask(ctx, models.Task{
		ProjectID:  1,
		Title:      "Doomed",
		StartDate:  models.NewDate(2026, time.March, 2),
		TargetDate: models.NewDate(2026, time.March, 9),
	})
	require.NoError(t, err)

	sub := bus.Subscribe(16)
	require.NoError(t, gateway.DeleteTask(ctx, created.ID))

	var count int64
	db.Model(&models.Task{}).Where("id = ?", created.ID).Count(&count)
	assert.Zero(t, count)

	e := <-sub.C
	deleted, ok := e.(events.TaskDeleted)
	require.True(t, ok)
	assert.Equal(t, created.ID, deleted.TaskID)
}

func TestGatewayCreateFillsColorAndAudits(t *testing.T) {
	gateway, _, db := newGatewayFixture(t)

	created, err := gateway.CreateTask(context.Background(), models.Task{
		ProjectID:  1,
		Title:      "Colorless",
		StartDate:  models.NewDate(2026, time.March, 2),
		TargetDate: models.NewDate(2026, time.March, 9),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.Color)

	var entry models.ChangeLog
	require.NoError(t, db.Where("entity_id = ?", created.ID).First(&entry).Error)
	assert.Equal(t, models.ChangeActionCreate, entry.Action)
	assert.Equal(t, gateway.ActorID, entry.ActorID)
}
