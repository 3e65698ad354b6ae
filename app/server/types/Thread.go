package types

import "time"

type ThreadInfo struct {
	ID           uint      `json:"id"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	AuthorID     uint      `json:"authorId"`
	AuthorName   string    `json:"authorName"`
	CategoryID   uint      `json:"categoryId"`
	CategoryName string    `json:"categoryName"`
	ViewCount    int64     `json:"viewCount"`
	LikeCount    int64     `json:"likeCount"`
	CommentCount int64     `json:"commentCount"`
	CreatedAt    time.Time `json:"createdAt"`
}

type ThreadInput struct {
	Title      *string `json:"title"`
	Content    *string `json:"content"`
	CategoryID *uint   `json:"categoryId"`
}

type ThreadListResponse struct {
	Limit   int          `json:"limit"`
	PageMax int64        `json:"pageMax"`
	List    []ThreadInfo `json:"list"`
}
