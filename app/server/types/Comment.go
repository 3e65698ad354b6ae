package types

import "time"

type CommentInfo struct {
	ID         uint          `json:"id"`
	Content    string        `json:"content"`
	AuthorID   uint          `json:"authorId"`
	AuthorName string        `json:"authorName"`
	ThreadID   uint          `json:"threadId"`
	ParentID   *uint         `json:"parentId,omitempty"`
	LikeCount  int64         `json:"likeCount"`
	Replies    []CommentInfo `json:"replies"`
	CreatedAt  time.Time     `json:"createdAt"`
}

type CommentInput struct {
	Content  *string `json:"content"`
	ParentID *uint   `json:"parentId"` // 回复某条评论时填写
}

type CommentListResponse struct {
	Limit   int           `json:"limit"`
	PageMax int64         `json:"pageMax"`
	List    []CommentInfo `json:"list"`
}
