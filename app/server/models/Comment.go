package models

import "gorm.io/gorm"

type Comment struct {
	gorm.Model

	Content string `gorm:"column:content"`

	UserID          uint  `gorm:"column:user_id;index"`           // 作者 ID
	ThreadID        uint  `gorm:"column:thread_id;index"`         // 所属帖子 ID
	ParentCommentID *uint `gorm:"column:parent_comment_id;index"` // 回复的父评论 ID ， NULL 表示顶层评论

	// 连接模型时使用
	User   User   `gorm:"foreignKey:UserID"`
	Thread Thread `gorm:"foreignKey:ThreadID"`
}
