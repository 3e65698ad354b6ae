package models

import (
	"time"

	"gorm.io/gorm"
)

type Poll struct {
	gorm.Model

	Question  string    `gorm:"column:question"`
	ExpiresAt time.Time `gorm:"column:expires_at"` // 截止时间，超过后不再接受投票

	UserID     uint `gorm:"column:user_id;index"`     // 发起人 ID
	CategoryID uint `gorm:"column:category_id;index"` // 所属分类 ID

	// 连接模型时使用
	User     User     `gorm:"foreignKey:UserID"`
	Category Category `gorm:"foreignKey:CategoryID"`
}

type PollOption struct {
	gorm.Model

	Text   string `gorm:"column:text"`
	PollID uint   `gorm:"column:poll_id;index"` // 所属投票 ID
}
