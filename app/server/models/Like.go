package models

import "time"

// 点赞边，形状与关注边一致；插入、删除会同步调整作者积分

type ThreadLike struct {
	ID        uint      `gorm:"primarykey"`
	CreatedAt time.Time

	UserID   uint `gorm:"column:user_id;uniqueIndex:idx_thread_likes_pair"`
	ThreadID uint `gorm:"column:thread_id;uniqueIndex:idx_thread_likes_pair"`
}

type CommentLike struct {
	ID        uint      `gorm:"primarykey"`
	CreatedAt time.Time

	UserID    uint `gorm:"column:user_id;uniqueIndex:idx_comment_likes_pair"`
	CommentID uint `gorm:"column:comment_id;uniqueIndex:idx_comment_likes_pair"`
}
