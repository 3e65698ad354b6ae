package handlers

import (
	"fan-nation/app/server/constants"
	"fan-nation/app/server/models"
	"fan-nation/app/server/types"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUserFollowIdempotent(t *testing.T) {
	a, e, _ := newTestApp(t)
	alice := createTestUser(t, a, "alice", constants.RoleUser)
	bob := createTestUser(t, a, "bob", constants.RoleUser)
	token := tokenFor(t, a, alice)

	path := fmt.Sprintf("/api/users/%d/follow", bob.ID)

	// 重复关注只留一条边
	for i := 0; i < 3; i++ {
		rec := doRequest(t, e, http.MethodPost, path, token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	var count int64
	require.NoError(t, a.db.Model(&models.UserFollow{}).
		Where("follower_id = ? AND followee_id = ?", alice.ID, bob.ID).
		Count(&count).Error)
	require.EqualValues(t, 1, count)

	// 取关之后边消失，再取关也是无操作成功
	for i := 0; i < 2; i++ {
		rec := doRequest(t, e, http.MethodDelete, path, token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	require.NoError(t, a.db.Model(&models.UserFollow{}).Count(&count).Error)
	require.EqualValues(t, 0, count)

	// 取关之后可以重新关注
	rec := doRequest(t, e, http.MethodPost, path, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, a.db.Model(&models.UserFollow{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestUserFollowSelfAndMissing(t *testing.T) {
	a, e, _ := newTestApp(t)
	alice := createTestUser(t, a, "alice", constants.RoleUser)
	token := tokenFor(t, a, alice)

	// 不能关注自己
	rec := doRequest(t, e, http.MethodPost, fmt.Sprintf("/api/users/%d/follow", alice.ID), token, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// 目标用户不存在
	rec = doRequest(t, e, http.MethodPost, "/api/users/99999/follow", token, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	// 未登录
	rec = doRequest(t, e, http.MethodPost, fmt.Sprintf("/api/users/%d/follow", alice.ID), "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUserFollowLists(t *testing.T) {
	a, e, _ := newTestApp(t)
	alice := createTestUser(t, a, "alice", constants.RoleUser)
	bob := createTestUser(t, a, "bob", constants.RoleUser)
	carol := createTestUser(t, a, "carol", constants.RoleUser)

	// alice、carol 关注 bob ；bob 关注 carol
	rec := doRequest(t, e, http.MethodPost, fmt.Sprintf("/api/users/%d/follow", bob.ID), tokenFor(t, a, alice), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doRequest(t, e, http.MethodPost, fmt.Sprintf("/api/users/%d/follow", bob.ID), tokenFor(t, a, carol), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doRequest(t, e, http.MethodPost, fmt.Sprintf("/api/users/%d/follow", carol.ID), tokenFor(t, a, bob), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// bob 的粉丝
	rec = doRequest(t, e, http.MethodGet, fmt.Sprintf("/api/users/%d/followers", bob.ID), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var followers []types.UserInfo
	decodeBody(t, rec, &followers)
	require.Len(t, followers, 2)
	require.Equal(t, alice.ID, followers[0].ID)
	require.Equal(t, carol.ID, followers[1].ID)

	// bob 关注的人
	rec = doRequest(t, e, http.MethodGet, fmt.Sprintf("/api/users/%d/following", bob.ID), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var following []types.UserInfo
	decodeBody(t, rec, &following)
	require.Len(t, following, 1)
	require.Equal(t, carol.ID, following[0].ID)

	// 不存在的用户
	rec = doRequest(t, e, http.MethodGet, "/api/users/99999/followers", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCategoryFollow(t *testing.T) {
	a, e, _ := newTestApp(t)
	alice := createTestUser(t, a, "alice", constants.RoleUser)
	category := createTestCategory(t, a, "Basketball")
	token := tokenFor(t, a, alice)

	path := fmt.Sprintf("/api/categories/%d/follow", category.ID)

	// 分类关注同样幂等
	for i := 0; i < 2; i++ {
		rec := doRequest(t, e, http.MethodPost, path, token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	var count int64
	require.NoError(t, a.db.Model(&models.CategoryFollow{}).
		Where("user_id = ? AND category_id = ?", alice.ID, category.ID).
		Count(&count).Error)
	require.EqualValues(t, 1, count)

	// 取关
	rec := doRequest(t, e, http.MethodDelete, path, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, a.db.Model(&models.CategoryFollow{}).Count(&count).Error)
	require.EqualValues(t, 0, count)

	// 分类不存在
	rec = doRequest(t, e, http.MethodPost, "/api/categories/99999/follow", token, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUserFollowedCategoriesList(t *testing.T) {
	a, e, _ := newTestApp(t)
	alice := createTestUser(t, a, "alice", constants.RoleUser)
	bob := createTestUser(t, a, "bob", constants.RoleUser)
	football := createTestCategory(t, a, "Football")
	tennis := createTestCategory(t, a, "Tennis")
	createTestCategory(t, a, "Cricket")
	token := tokenFor(t, a, alice)

	// alice 关注两个分类
	for _, category := range []*models.Category{football, tennis} {
		rec := doRequest(t, e, http.MethodPost, fmt.Sprintf("/api/categories/%d/follow", category.ID), token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := doRequest(t, e, http.MethodGet, fmt.Sprintf("/api/users/%d/categories", alice.ID), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var followed []types.CategoryInfo
	decodeBody(t, rec, &followed)
	require.Len(t, followed, 2)
	require.Equal(t, football.ID, followed[0].ID)
	require.Equal(t, tennis.ID, followed[1].ID)

	// 没关注任何分类的用户拿到空列表
	rec = doRequest(t, e, http.MethodGet, fmt.Sprintf("/api/users/%d/categories", bob.ID), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &followed)
	require.Len(t, followed, 0)

	// 取关之后从列表里消失
	rec = doRequest(t, e, http.MethodDelete, fmt.Sprintf("/api/categories/%d/follow", tennis.ID), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doRequest(t, e, http.MethodGet, fmt.Sprintf("/api/users/%d/categories", alice.ID), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &followed)
	require.Len(t, followed, 1)
	require.Equal(t, football.ID, followed[0].ID)

	// 用户不存在
	rec = doRequest(t, e, http.MethodGet, "/api/users/99999/categories", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
