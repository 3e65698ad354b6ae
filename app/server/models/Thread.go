package models

import "gorm.io/gorm"

type Thread struct {
	gorm.Model

	Title     string `gorm:"column:title"`
	Content   string `gorm:"column:content"`
	ViewCount int64  `gorm:"column:view_count"` // 浏览数，每次读取详情 +1

	UserID     uint `gorm:"column:user_id;index"`     // 作者 ID
	CategoryID uint `gorm:"column:category_id;index"` // 所属分类 ID

	// 连接模型时使用
	User     User     `gorm:"foreignKey:UserID"`
	Category Category `gorm:"foreignKey:CategoryID"`
}
