package handlers

import (
	"bytes"
	"encoding/json"
	"fan-nation/app/server/jwt"
	"fan-nation/app/server/models"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const testPassword = "password123"

// 起一套完整的测试环境：内存 sqlite + miniredis + 空日志
func newTestApp(t *testing.T) (*App, *echo.Echo, *miniredis.Miniredis) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
	})
	require.NoError(t, err)

	// 内存库只允许一个连接，避免每个连接各开一份空库
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.AuthLog{},
		&models.Category{},
		&models.Thread{},
		&models.Comment{},
		&models.Poll{},
		&models.PollOption{},
		&models.PollVote{},
		&models.UserFollow{},
		&models.CategoryFollow{},
		&models.ThreadLike{},
		&models.CommentLike{},
	))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	j, err := jwt.New("test-secret")
	require.NoError(t, err)

	a := NewApp(zap.NewNop(), db, rdb, j)
	e := echo.New()
	RegisterRoutes(e, a)

	return a, e, mr
}

func createTestUser(t *testing.T, a *App, username string, role string) *models.User {
	t.Helper()

	hash, err := argon2id.CreateHash(testPassword, argon2id.DefaultParams)
	require.NoError(t, err)

	user := &models.User{
		Username: username,
		Email:    username + "@test.local",
		Role:     role,
		Password: hash,
	}
	require.NoError(t, a.db.Create(user).Error)
	return user
}

func createTestCategory(t *testing.T, a *App, name string) *models.Category {
	t.Helper()

	category := &models.Category{Name: name}
	require.NoError(t, a.db.Create(category).Error)
	return category
}

func createTestThread(t *testing.T, a *App, user *models.User, category *models.Category) *models.Thread {
	t.Helper()

	thread := &models.Thread{
		Title:      "test thread",
		Content:    "test content",
		UserID:     user.ID,
		CategoryID: category.ID,
	}
	require.NoError(t, a.db.Create(thread).Error)
	return thread
}

func createTestComment(t *testing.T, a *App, user *models.User, thread *models.Thread, parentID *uint) *models.Comment {
	t.Helper()

	comment := &models.Comment{
		Content:         "test comment",
		UserID:          user.ID,
		ThreadID:        thread.ID,
		ParentCommentID: parentID,
	}
	require.NoError(t, a.db.Create(comment).Error)
	return comment
}

func createTestPoll(t *testing.T, a *App, user *models.User, category *models.Category, expiresAt time.Time, options ...string) (*models.Poll, []models.PollOption) {
	t.Helper()

	poll := &models.Poll{
		Question:   "test poll",
		ExpiresAt:  expiresAt,
		UserID:     user.ID,
		CategoryID: category.ID,
	}
	require.NoError(t, a.db.Create(poll).Error)

	var created []models.PollOption
	for _, text := range options {
		option := models.PollOption{Text: text, PollID: poll.ID}
		require.NoError(t, a.db.Create(&option).Error)
		created = append(created, option)
	}
	return poll, created
}

func tokenFor(t *testing.T, a *App, user *models.User) string {
	t.Helper()

	token, err := a.jwt.SignToken(&jwt.User{
		ID:       user.ID,
		Username: user.Username,
		Role:     user.Role,
		Expires:  time.Now().Add(time.Hour).Unix(),
	})
	require.NoError(t, err)
	return token
}

func doRequest(t *testing.T, e *echo.Echo, method string, path string, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dest any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dest))
}

func userPoints(t *testing.T, a *App, id uint) int {
	t.Helper()

	var user models.User
	require.NoError(t, a.db.First(&user, "id = ?", id).Error)
	return user.Points
}

func ptr[T any](v T) *T {
	return &v
}
