package handlers

import (
	"fan-nation/app/server/constants"
	"fan-nation/app/server/types"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCommentCreateAwardsPoints(t *testing.T) {
	a, e, _ := newTestApp(t)
	alice := createTestUser(t, a, "alice", constants.RoleUser)
	category := createTestCategory(t, a, "Football")
	thread := createTestThread(t, a, alice, category)
	token := tokenFor(t, a, alice)

	rec := doRequest(t, e, http.MethodPost, fmt.Sprintf("/api/threads/%d/comments", thread.ID), token, &types.CommentInput{
		Content: ptr("first!"),
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var info types.CommentInfo
	decodeBody(t, rec, &info)
	require.Equal(t, "first!", info.Content)
	require.Equal(t, alice.ID, info.AuthorID)
	require.Nil(t, info.ParentID)

	// 评论积分
	require.Equal(t, constants.PointsCommentCreate, userPoints(t, a, alice.ID))

	// 删除不收回积分
	rec = doRequest(t, e, http.MethodDelete, fmt.Sprintf("/api/comments/%d", info.ID), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, constants.PointsCommentCreate, userPoints(t, a, alice.ID))

	// 帖子不存在
	rec = doRequest(t, e, http.MethodPost, "/api/threads/99999/comments", token, &types.CommentInput{
		Content: ptr("void"),
	})
	require.Equal(t, http.StatusNotFound, rec.Code)

	// 空内容
	rec = doRequest(t, e, http.MethodPost, fmt.Sprintf("/api/threads/%d/comments", thread.ID), token, &types.CommentInput{
		Content: ptr(""),
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCommentReplyTree(t *testing.T) {
	a, e, _ := newTestApp(t)
	alice := createTestUser(t, a, "alice", constants.RoleUser)
	bob := createTestUser(t, a, "bob", constants.RoleUser)
	category := createTestCategory(t, a, "Football")
	thread := createTestThread(t, a, alice, category)

	top := createTestComment(t, a, alice, thread, nil)
	reply := createTestComment(t, a, bob, thread, &top.ID)
	createTestComment(t, a, alice, thread, &reply.ID)

	rec := doRequest(t, e, http.MethodGet, fmt.Sprintf("/api/threads/%d/comments", thread.ID), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// 只有顶层评论出现在列表里，回复逐层挂在下面
	var res types.CommentListResponse
	decodeBody(t, rec, &res)
	require.Len(t, res.List, 1)
	require.Equal(t, top.ID, res.List[0].ID)
	require.Len(t, res.List[0].Replies, 1)
	require.Equal(t, reply.ID, res.List[0].Replies[0].ID)
	require.Len(t, res.List[0].Replies[0].Replies, 1)
}

func TestCommentReplyWrongThread(t *testing.T) {
	a, e, _ := newTestApp(t)
	alice := createTestUser(t, a, "alice", constants.RoleUser)
	category := createTestCategory(t, a, "Football")
	threadA := createTestThread(t, a, alice, category)
	threadB := createTestThread(t, a, alice, category)
	parent := createTestComment(t, a, alice, threadA, nil)
	token := tokenFor(t, a, alice)

	// 父评论不属于同一个帖子
	rec := doRequest(t, e, http.MethodPost, fmt.Sprintf("/api/threads/%d/comments", threadB.ID), token, &types.CommentInput{
		Content:  ptr("cross-thread reply"),
		ParentID: &parent.ID,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// 父评论不存在
	rec = doRequest(t, e, http.MethodPost, fmt.Sprintf("/api/threads/%d/comments", threadA.ID), token, &types.CommentInput{
		Content:  ptr("orphan reply"),
		ParentID: ptr(uint(99999)),
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCommentUpdatePermissions(t *testing.T) {
	a, e, _ := newTestApp(t)
	author := createTestUser(t, a, "author", constants.RoleUser)
	other := createTestUser(t, a, "other", constants.RoleUser)
	mod := createTestUser(t, a, "mod", constants.RoleModerator)
	category := createTestCategory(t, a, "Football")
	thread := createTestThread(t, a, author, category)
	comment := createTestComment(t, a, author, thread, nil)

	path := fmt.Sprintf("/api/comments/%d", comment.ID)

	rec := doRequest(t, e, http.MethodPut, path, tokenFor(t, a, other), &types.CommentInput{
		Content: ptr("hijacked"),
	})
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(t, e, http.MethodPut, path, tokenFor(t, a, author), &types.CommentInput{
		Content: ptr("edited"),
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var info types.CommentInfo
	decodeBody(t, rec, &info)
	require.Equal(t, "edited", info.Content)

	rec = doRequest(t, e, http.MethodDelete, path, tokenFor(t, a, other), nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	rec = doRequest(t, e, http.MethodDelete, path, tokenFor(t, a, mod), nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCommentLikeRoundTrip(t *testing.T) {
	a, e, _ := newTestApp(t)
	author := createTestUser(t, a, "author", constants.RoleUser)
	fan := createTestUser(t, a, "fan", constants.RoleUser)
	category := createTestCategory(t, a, "Football")
	thread := createTestThread(t, a, author, category)
	comment := createTestComment(t, a, author, thread, nil)
	token := tokenFor(t, a, fan)

	path := fmt.Sprintf("/api/comments/%d/like", comment.ID)

	// 重复点赞只加一次分
	for i := 0; i < 2; i++ {
		rec := doRequest(t, e, http.MethodPost, path, token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	require.Equal(t, constants.PointsContentLike, userPoints(t, a, author.ID))

	// 取消点赞扣回，重复取消不再扣
	for i := 0; i < 2; i++ {
		rec := doRequest(t, e, http.MethodDelete, path, token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	require.Equal(t, 0, userPoints(t, a, author.ID))

	rec := doRequest(t, e, http.MethodPost, "/api/comments/99999/like", token, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
