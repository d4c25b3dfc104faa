package jobs

import (
	"context"
	"errors"
	"lingua_backend/internal/model"
	"lingua_backend/internal/repository"
	dbtest "lingua_backend/internal/testutil"
	"lingua_backend/pkg/monitoring"
	"testing"
	"time"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCounter struct {
	counts map[model.TaskType]int64
	err    error
}

func (s stubCounter) CountOpenByType(ctx context.Context) (map[model.TaskType]int64, error) {
	return s.counts, s.err
}

func TestRefreshOpenTasks_SetsGauge(t *testing.T) {
	s := New(stubCounter{counts: map[model.TaskType]int64{
		model.TaskPost:         3,
		model.TaskConversation: 0,
	}}, 1)

	s.RefreshOpenTasks()

	assert.Equal(t, 3.0, promtest.ToFloat64(monitoring.OpenTasks.WithLabelValues("post")))
	assert.Equal(t, 0.0, promtest.ToFloat64(monitoring.OpenTasks.WithLabelValues("conversation")))
}

func TestRefreshOpenTasks_KeepsGaugeOnError(t *testing.T) {
	monitoring.OpenTasks.WithLabelValues("quiz").Set(7)
	New(stubCounter{err: errors.New("db down")}, 1).RefreshOpenTasks()
	assert.Equal(t, 7.0, promtest.ToFloat64(monitoring.OpenTasks.WithLabelValues("quiz")))
}

func TestCountOpenByType_FromDatabase(t *testing.T) {
	db := dbtest.DB(t)
	user := dbtest.CreateUser(t, db, "jobs@example.com")
	repo := repository.NewTaskRepository(db)

	slot := model.OpenSlotValue
	now := time.Now()
	require.NoError(t, db.Create(&model.Task{ID: "t1", UserID: user.ID, TopicName: "travel", Level: 1, TaskType: model.TaskFlashcard, OpenSlot: &slot, CreatedAt: now}).Error)
	require.NoError(t, db.Create(&model.Task{ID: "t2", UserID: user.ID, TopicName: "food", Level: 1, TaskType: model.TaskFlashcard, OpenSlot: &slot, CreatedAt: now}).Error)
	require.NoError(t, db.Create(&model.Task{ID: "t3", UserID: user.ID, TopicName: "food", Level: 1, TaskType: model.TaskQuiz, CompletedAt: &now, CreatedAt: now}).Error)

	counts, err := repo.CountOpenByType(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[model.TaskFlashcard])
	assert.Equal(t, int64(0), counts[model.TaskQuiz])
	assert.Len(t, counts, len(model.AllTaskTypes))
}
