package service

import (
	"context"
	"lingua_backend/internal/model"
	"lingua_backend/internal/repository"
	"lingua_backend/internal/testutil"
	"lingua_backend/internal/util"
	"lingua_backend/pkg/lock"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db          *gorm.DB
	tasks       *TaskService
	progression *ProgressionService
	now         time.Time
}

func (f *fixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.DB(t)

	taskRepo := repository.NewTaskRepository(db)
	levelRepo := repository.NewUserLevelRepository(db)
	topicRepo := repository.NewTopicRepository(db)

	f := &fixture{db: db, now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	clock := func() time.Time { return f.now }

	f.progression = NewProgressionService(db, taskRepo, levelRepo, topicRepo)
	f.progression.Clock = clock

	f.tasks = NewTaskService(db, taskRepo,
		repository.NewUserRepository(db),
		topicRepo,
		repository.NewWordRepository(db),
		f.progression,
		lock.NewLocalLocker(),
	)
	f.tasks.Clock = clock
	return f
}

func (f *fixture) completedTask(t *testing.T, userID, topic string, level int, taskType model.TaskType, score float64) *model.Task {
	t.Helper()
	task, _, err := f.tasks.CreateTask(context.Background(), userID, topic, level, taskType)
	require.NoError(t, err)
	_, err = f.tasks.CompleteTask(context.Background(), task.ID, score, nil)
	require.NoError(t, err)
	return task
}

func TestCreateTask_IsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, f.db, "a@example.com")

	first, created, err := f.tasks.CreateTask(ctx, user.ID, "travel", 1, model.TaskFlashcard)
	require.NoError(t, err)
	assert.True(t, created)
	require.NotNil(t, first.Score)
	assert.Equal(t, 0.0, *first.Score)
	assert.Nil(t, first.CompletedAt)

	second, created, err := f.tasks.CreateTask(ctx, user.ID, "travel", 1, model.TaskFlashcard)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	other, created, err := f.tasks.CreateTask(ctx, user.ID, "travel", 1, model.TaskPost)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, first.ID, other.ID)

	state, err := f.progression.LevelState(ctx, user.ID, "travel", 1)
	require.NoError(t, err)
	assert.Equal(t, model.LevelInProgress, state)
}

func TestCreateTask_ConcurrentCallsShareOneOpenTask(t *testing.T) {
	f := newFixture(t)
	user := testutil.CreateUser(t, f.db, "c@example.com")

	const workers = 8
	ids := make([]string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			task, _, err := f.tasks.CreateTask(context.Background(), user.ID, "food", 2, model.TaskQuiz)
			if assert.NoError(t, err) {
				ids[i] = task.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}

	var count int64
	require.NoError(t, f.db.Model(&model.Task{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCreateTask_WithoutLockerStillSingleOpenTask(t *testing.T) {
	f := newFixture(t)
	f.tasks.Locker = nil
	user := testutil.CreateUser(t, f.db, "nolock@example.com")

	first, _, err := f.tasks.CreateTask(context.Background(), user.ID, "work", 1, model.TaskPost)
	require.NoError(t, err)

	// 直接插入第二个未完成任务必须被唯一索引拒绝
	slot := model.OpenSlotValue
	dup := &model.Task{ID: "dup", UserID: user.ID, TopicName: "work", Level: 1, TaskType: model.TaskPost, OpenSlot: &slot, CreatedAt: f.now}
	inserted, err := repository.NewTaskRepository(f.db).CreateIfAbsent(context.Background(), dup)
	require.NoError(t, err)
	assert.False(t, inserted)

	again, _, err := f.tasks.CreateTask(context.Background(), user.ID, "work", 1, model.TaskPost)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
}

func TestCreateTask_ReferenceErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, f.db, "r@example.com")

	tests := []struct {
		name     string
		userID   string
		topic    string
		level    int
		taskType model.TaskType
		wantErr  error
	}{
		{"unknown user", "missing", "travel", 1, model.TaskPost, util.ErrUserNotFound},
		{"unknown topic", user.ID, "astronomy", 1, model.TaskPost, util.ErrTopicLevelNotFound},
		{"level beyond catalog", user.ID, "travel", 9, model.TaskPost, util.ErrTopicLevelNotFound},
		{"zero level", user.ID, "travel", 0, model.TaskPost, util.ErrInvalidLevel},
		{"invalid type", user.ID, "travel", 1, model.TaskType(0), util.ErrInvalidTaskType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task, created, err := f.tasks.CreateTask(ctx, tt.userID, tt.topic, tt.level, tt.taskType)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, task)
			assert.False(t, created)
		})
	}

	var count int64
	require.NoError(t, f.db.Model(&model.Task{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCompleteTask_ComputesDuration(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, f.db, "d@example.com")

	task, _, err := f.tasks.CreateTask(ctx, user.ID, "health", 1, model.TaskFlashcard)
	require.NoError(t, err)

	f.advance(95*time.Second + 400*time.Millisecond)
	done, err := f.tasks.CompleteTask(ctx, task.ID, 42, nil)
	require.NoError(t, err)
	require.NotNil(t, done.DurationSeconds)
	assert.Equal(t, 95, *done.DurationSeconds)

	stored, err := f.tasks.GetTask(ctx, user.ID, task.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.CompletedAt)
	assert.Equal(t, 42.0, *stored.Score)
	assert.Equal(t, 95, *stored.DurationSeconds)
	assert.Nil(t, stored.OpenSlot)
}

func TestCompleteTask_UsesSuppliedDuration(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, f.db, "sd@example.com")

	task, _, err := f.tasks.CreateTask(ctx, user.ID, "health", 1, model.TaskQuiz)
	require.NoError(t, err)

	supplied := 30
	done, err := f.tasks.CompleteTask(ctx, task.ID, 10, &supplied)
	require.NoError(t, err)
	assert.Equal(t, 30, *done.DurationSeconds)
}

func TestCompleteTask_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, f.db, "e@example.com")
	task, _, err := f.tasks.CreateTask(ctx, user.ID, "travel", 1, model.TaskPost)
	require.NoError(t, err)

	_, err = f.tasks.CompleteTask(ctx, "missing", 10, nil)
	assert.ErrorIs(t, err, util.ErrTaskNotFound)

	_, err = f.tasks.CompleteTask(ctx, task.ID, -1, nil)
	assert.ErrorIs(t, err, util.ErrInvalidScore)

	negative := -5
	_, err = f.tasks.CompleteTask(ctx, task.ID, 1, &negative)
	assert.ErrorIs(t, err, util.ErrInvalidDuration)

	_, err = f.tasks.CompleteTask(ctx, task.ID, 10, nil)
	require.NoError(t, err)
	_, err = f.tasks.CompleteTask(ctx, task.ID, 10, nil)
	assert.ErrorIs(t, err, util.ErrTaskAlreadyCompleted)
}

func TestCompleteTask_FreesOpenSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, f.db, "slot@example.com")

	first := f.completedTask(t, user.ID, "travel", 1, model.TaskFlashcard, 50)

	next, created, err := f.tasks.CreateTask(ctx, user.ID, "travel", 1, model.TaskFlashcard)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, first.ID, next.ID)
}

func TestCompleteTask_UpdatesLevelScoreForEveryType(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, f.db, "sum@example.com")

	f.completedTask(t, user.ID, "food", 1, model.TaskFlashcard, 30)
	f.completedTask(t, user.ID, "food", 1, model.TaskQuiz, 25)

	ul, err := repository.NewUserLevelRepository(f.db).Find(ctx, user.ID, "food", 1)
	require.NoError(t, err)
	assert.Equal(t, 55.0, ul.EarnedScore)
	assert.Nil(t, ul.CompletedAt)

	state, err := f.progression.LevelState(ctx, user.ID, "food", 2)
	require.NoError(t, err)
	assert.Equal(t, model.LevelNotStarted, state)
}

func TestAddWordsToTask(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, f.db, "w@example.com")
	task, _, err := f.tasks.CreateTask(ctx, user.ID, "travel", 1, model.TaskPost)
	require.NoError(t, err)

	hotel := testutil.CreateWord(t, f.db, "travel", 1, "hotel")
	passport := testutil.CreateWord(t, f.db, "travel", 1, "passport")

	t.Run("empty list", func(t *testing.T) {
		res, err := f.tasks.AddWordsToTask(ctx, task.ID, nil)
		require.NoError(t, err)
		assert.Empty(t, res.Linked)
		assert.Empty(t, res.Failed)
	})

	t.Run("partial failure", func(t *testing.T) {
		res, err := f.tasks.AddWordsToTask(ctx, task.ID, []string{hotel.ID, "ghost", passport.ID, hotel.ID})
		require.NoError(t, err)
		assert.Equal(t, []string{hotel.ID, passport.ID}, res.Linked)
		assert.Equal(t, []string{"ghost"}, res.Failed)
	})

	t.Run("duplicate association is a no-op", func(t *testing.T) {
		res, err := f.tasks.AddWordsToTask(ctx, task.ID, []string{hotel.ID})
		require.NoError(t, err)
		assert.Equal(t, []string{hotel.ID}, res.Linked)

		words, err := f.tasks.GetTaskWords(ctx, task.ID)
		require.NoError(t, err)
		require.Len(t, words, 2)
		assert.Equal(t, "hotel", words[0].Text)
		assert.Equal(t, "passport", words[1].Text)
	})

	t.Run("unknown task", func(t *testing.T) {
		_, err := f.tasks.AddWordsToTask(ctx, "missing", []string{hotel.ID})
		assert.ErrorIs(t, err, util.ErrTaskNotFound)
	})
}

func TestGetUserTasks_OpenFirstThenNewest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, f.db, "o@example.com")

	create := func(topic string, tt model.TaskType) *model.Task {
		f.advance(time.Minute)
		task, _, err := f.tasks.CreateTask(ctx, user.ID, topic, 1, tt)
		require.NoError(t, err)
		return task
	}

	oldDone := create("travel", model.TaskFlashcard)
	openOld := create("travel", model.TaskPost)
	newDone := create("travel", model.TaskQuiz)
	openNew := create("food", model.TaskPost)

	f.advance(time.Minute)
	_, err := f.tasks.CompleteTask(ctx, oldDone.ID, 10, nil)
	require.NoError(t, err)
	_, err = f.tasks.CompleteTask(ctx, newDone.ID, 10, nil)
	require.NoError(t, err)

	all, err := f.tasks.GetUserTasks(ctx, user.ID, "")
	require.NoError(t, err)
	assert.Equal(t, []string{openNew.ID, openOld.ID, newDone.ID, oldDone.ID}, taskIDs(all))

	travel, err := f.tasks.GetUserTasks(ctx, user.ID, "travel")
	require.NoError(t, err)
	assert.Equal(t, []string{openOld.ID, newDone.ID, oldDone.ID}, taskIDs(travel))
}

func TestGetTask_ChecksOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, f.db, "owner@example.com")
	other := testutil.CreateUser(t, f.db, "other@example.com")

	task, _, err := f.tasks.CreateTask(ctx, owner.ID, "work", 1, model.TaskPost)
	require.NoError(t, err)

	_, err = f.tasks.GetTask(ctx, other.ID, task.ID)
	assert.ErrorIs(t, err, util.ErrPermissionDenied)

	_, err = f.tasks.GetTask(ctx, owner.ID, "nope")
	assert.ErrorIs(t, err, util.ErrTaskNotFound)
}

func TestElapsedSeconds(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 0, elapsedSeconds(start, start.Add(-time.Second)))
	assert.Equal(t, 59, elapsedSeconds(start, start.Add(59900*time.Millisecond)))
	assert.Equal(t, 3600, elapsedSeconds(start, start.Add(time.Hour)))
}

func taskIDs(tasks []model.Task) []string {
	ids := make([]string, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	return ids
}

