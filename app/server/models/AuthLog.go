package models

import "time"

// 登录尝试记录，只追加不修改。没有使用 gorm.Model ，这张表不需要软删除
type AuthLog struct {
	ID        uint      `gorm:"primarykey"`
	UserID    *uint     `gorm:"column:user_id;index"` // 允许为空：登录失败时可能解析不出用户
	Status    string    `gorm:"column:status"`        // Success / Failed
	LoginTime time.Time `gorm:"column:login_time"`
}
