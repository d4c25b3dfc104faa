package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"lingua_backend/internal/config"
	"lingua_backend/internal/middleware"
	"lingua_backend/internal/model"
	"lingua_backend/internal/repository"
	"lingua_backend/internal/service"
	"lingua_backend/internal/testutil"
	"lingua_backend/internal/util"
	"lingua_backend/pkg/lock"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "controller-test-secret-controller-test"

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	db     *gorm.DB
	router *gin.Engine
	tasks  *service.TaskService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.DB(t)

	cfg := &config.Config{JWT: config.JWTConfig{Secret: testSecret, ExpireTime: time.Hour}}

	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	topicRepo := repository.NewTopicRepository(db)
	wordRepo := repository.NewWordRepository(db)

	progression := service.NewProgressionService(db, taskRepo, repository.NewUserLevelRepository(db), topicRepo)
	tasks := service.NewTaskService(db, taskRepo, userRepo, topicRepo, wordRepo, progression, lock.NewLocalLocker())
	auth := NewAuthController(service.NewAuthService(userRepo, progression, cfg))
	taskCtl := NewTaskController(tasks, service.NewSubmissionService(tasks))
	levelCtl := NewLevelController(progression)
	commentCtl := NewCommentController()

	r := gin.New()
	api := r.Group("/api")
	api.POST("/register", auth.Register)
	api.POST("/login", auth.Login)
	api.GET("/topics", levelCtl.ListTopics)
	api.POST("/comments/validate", commentCtl.Validate)
	api.POST("/comments/score", commentCtl.Score)

	authed := r.Group("/api")
	authed.Use(middleware.AuthMiddleware(testSecret))
	authed.POST("/tasks", taskCtl.CreateTask)
	authed.GET("/tasks", taskCtl.GetTasks)
	authed.GET("/tasks/:id", taskCtl.GetTask)
	authed.POST("/tasks/:id/complete", taskCtl.CompleteTask)
	authed.POST("/tasks/:id/words", taskCtl.AddWords)
	authed.POST("/tasks/:id/submit", taskCtl.Submit)
	authed.GET("/levels", levelCtl.GetLevels)
	authed.POST("/levels/complete", levelCtl.CompleteLevel)
	authed.POST("/levels/initialize", levelCtl.InitializeLevels)

	return &testServer{db: db, router: r, tasks: tasks}
}

func (s *testServer) token(t *testing.T, user *model.User) string {
	t.Helper()
	token, err := util.GenerateJWT(user, testSecret, time.Hour)
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func TestRegisterAndLogin(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(t, http.MethodPost, "/api/register", "", gin.H{
		"username": "ana",
		"email":    "ana@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w, env := s.do(t, http.MethodPost, "/api/register", "", gin.H{
		"username": "ana",
		"email":    "ANA@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, util.ErrEmailRegistered.Error(), env.Message)

	w, env = s.do(t, http.MethodPost, "/api/login", "", gin.H{
		"email":    "ana@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &login))
	assert.NotEmpty(t, login.Token)

	w, _ = s.do(t, http.MethodPost, "/api/login", "", gin.H{
		"email":    "ana@example.com",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// 注册时已初始化各主题第 1 级
	w, env = s.do(t, http.MethodGet, "/api/levels", login.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var levels []service.LevelProgress
	require.NoError(t, json.Unmarshal(env.Data, &levels))
	assert.Len(t, levels, len(s.topicNames(t)))
}

func (s *testServer) topicNames(t *testing.T) []string {
	t.Helper()
	names, err := repository.NewTopicRepository(s.db).FindNames(context.Background())
	require.NoError(t, err)
	return names
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(t, http.MethodGet, "/api/tasks", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.do(t, http.MethodGet, "/api/tasks", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateTask_IdempotentOverHTTP(t *testing.T) {
	s := newTestServer(t)
	user := testutil.CreateUser(t, s.db, "http@example.com")
	token := s.token(t, user)

	body := gin.H{"topicName": "travel", "level": 1, "taskType": "flashcard"}
	w, env := s.do(t, http.MethodPost, "/api/tasks", token, body)
	require.Equal(t, http.StatusCreated, w.Code)
	var first model.Task
	require.NoError(t, json.Unmarshal(env.Data, &first))

	w, env = s.do(t, http.MethodPost, "/api/tasks", token, body)
	require.Equal(t, http.StatusOK, w.Code)
	var second model.Task
	require.NoError(t, json.Unmarshal(env.Data, &second))
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, model.TaskFlashcard, second.TaskType)
}

func TestCreateTask_Errors(t *testing.T) {
	s := newTestServer(t)
	user := testutil.CreateUser(t, s.db, "errs@example.com")
	token := s.token(t, user)

	tests := []struct {
		name string
		body gin.H
		code int
	}{
		{"unknown type", gin.H{"topicName": "travel", "level": 1, "taskType": "essay"}, http.StatusBadRequest},
		{"zero level", gin.H{"topicName": "travel", "level": 0, "taskType": "quiz"}, http.StatusBadRequest},
		{"unknown topic", gin.H{"topicName": "astronomy", "level": 1, "taskType": "quiz"}, http.StatusNotFound},
		{"level beyond catalog", gin.H{"topicName": "travel", "level": 9, "taskType": "quiz"}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _ := s.do(t, http.MethodPost, "/api/tasks", token, tt.body)
			assert.Equal(t, tt.code, w.Code)
		})
	}
}

func TestCompleteTask_OverHTTP(t *testing.T) {
	s := newTestServer(t)
	user := testutil.CreateUser(t, s.db, "complete@example.com")
	other := testutil.CreateUser(t, s.db, "other@example.com")
	token := s.token(t, user)

	task, _, err := s.tasks.CreateTask(context.Background(), user.ID, "food", 1, model.TaskQuiz)
	require.NoError(t, err)
	path := "/api/tasks/" + task.ID + "/complete"

	w, _ := s.do(t, http.MethodPost, path, s.token(t, other), gin.H{"score": 50})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = s.do(t, http.MethodPost, path, token, gin.H{"score": -1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env := s.do(t, http.MethodPost, path, token, gin.H{"score": 75, "durationSeconds": 40})
	require.Equal(t, http.StatusOK, w.Code)
	var done model.Task
	require.NoError(t, json.Unmarshal(env.Data, &done))
	require.NotNil(t, done.Score)
	assert.Equal(t, 75.0, *done.Score)
	require.NotNil(t, done.DurationSeconds)
	assert.Equal(t, 40, *done.DurationSeconds)

	w, _ = s.do(t, http.MethodPost, path, token, gin.H{"score": 80})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = s.do(t, http.MethodPost, "/api/tasks/missing/complete", token, gin.H{"score": 80})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAddWordsAndGetTask(t *testing.T) {
	s := newTestServer(t)
	user := testutil.CreateUser(t, s.db, "words@example.com")
	token := s.token(t, user)
	hotel := testutil.CreateWord(t, s.db, "travel", 1, "hotel")

	task, _, err := s.tasks.CreateTask(context.Background(), user.ID, "travel", 1, model.TaskPost)
	require.NoError(t, err)

	w, env := s.do(t, http.MethodPost, "/api/tasks/"+task.ID+"/words", token, gin.H{
		"wordIds": []string{hotel.ID, "missing"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	var link service.WordLinkResult
	require.NoError(t, json.Unmarshal(env.Data, &link))
	assert.Equal(t, []string{hotel.ID}, link.Linked)
	assert.Equal(t, []string{"missing"}, link.Failed)

	w, env = s.do(t, http.MethodGet, "/api/tasks/"+task.ID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var detail struct {
		Task  model.Task   `json:"task"`
		Words []model.Word `json:"words"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &detail))
	assert.Equal(t, task.ID, detail.Task.ID)
	require.Len(t, detail.Words, 1)
	assert.Equal(t, "hotel", detail.Words[0].Text)
}

func TestSubmit_OverHTTP(t *testing.T) {
	s := newTestServer(t)
	user := testutil.CreateUser(t, s.db, "submit@example.com")
	token := s.token(t, user)

	task, _, err := s.tasks.CreateTask(context.Background(), user.ID, "travel", 1, model.TaskPost)
	require.NoError(t, err)
	path := "/api/tasks/" + task.ID + "/submit"

	w, env := s.do(t, http.MethodPost, path, token, gin.H{"comment": "too short"})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var rejected service.SubmissionResult
	require.NoError(t, json.Unmarshal(env.Data, &rejected))
	assert.False(t, rejected.Validation.Valid)
	assert.Nil(t, rejected.Scoring)

	comment := "I think every trip teaches me something new about culture. " +
		"Last summer my flight to Lisbon was delayed, however the hotel staff were kind and helpful."
	w, env = s.do(t, http.MethodPost, path, token, gin.H{"comment": comment})
	require.Equal(t, http.StatusOK, w.Code, env.Message)
	var accepted service.SubmissionResult
	require.NoError(t, json.Unmarshal(env.Data, &accepted))
	require.NotNil(t, accepted.Scoring)
	require.NotNil(t, accepted.Task)
	require.NotNil(t, accepted.Task.Score)
	assert.Equal(t, float64(accepted.Scoring.Total), *accepted.Task.Score)
	assert.NotNil(t, accepted.Task.CompletedAt)
}

func TestCompleteLevel_OverHTTP(t *testing.T) {
	s := newTestServer(t)
	user := testutil.CreateUser(t, s.db, "level@example.com")
	token := s.token(t, user)

	w, env := s.do(t, http.MethodPost, "/api/levels/complete", token, gin.H{"topicName": "work", "level": 1})
	require.Equal(t, http.StatusOK, w.Code)
	var res service.LevelCompletionResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.True(t, res.Success)
	assert.Equal(t, float64(util.DefaultLevelScore), res.EarnedScore)
	assert.Equal(t, 2, res.NextLevel)

	w, env = s.do(t, http.MethodPost, "/api/levels/complete", token, gin.H{"topicName": "work", "level": 0})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Error)

	w, env = s.do(t, http.MethodGet, "/api/levels?topic=work", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var levels []service.LevelProgress
	require.NoError(t, json.Unmarshal(env.Data, &levels))
	require.Len(t, levels, 2)
	assert.Equal(t, model.LevelCompleted, levels[0].State)
	assert.Equal(t, model.LevelInProgress, levels[1].State)
}

func TestCommentTools(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(t, http.MethodPost, "/api/comments/validate", "", gin.H{
		"comment":    "ok",
		"sourceText": "A post about food.",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var validation struct {
		Valid  bool     `json:"valid"`
		Issues []string `json:"issues"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &validation))
	assert.False(t, validation.Valid)
	assert.NotEmpty(t, validation.Issues)

	w, env = s.do(t, http.MethodPost, "/api/comments/score", "", gin.H{
		"comment":       "I believe cooking a healthy meal at home is important because the taste is better.",
		"requiredWords": []string{"meal", "recipe"},
		"topic":         "food",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var scoring struct {
		Total     int `json:"total"`
		WordUsage []struct {
			Word string `json:"word"`
			Used bool   `json:"used"`
		} `json:"wordUsage"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &scoring))
	assert.Greater(t, scoring.Total, 0)
	assert.LessOrEqual(t, scoring.Total, 200)
	require.Len(t, scoring.WordUsage, 2)
	assert.True(t, scoring.WordUsage[0].Used)
	assert.False(t, scoring.WordUsage[1].Used)
}

func TestListTopics(t *testing.T) {
	s := newTestServer(t)
	w, env := s.do(t, http.MethodGet, "/api/topics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var topics []model.Topic
	require.NoError(t, json.Unmarshal(env.Data, &topics))
	assert.Len(t, topics, len(s.topicNames(t)))
}
