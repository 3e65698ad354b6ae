package models

import "gorm.io/gorm"

type Category struct {
	gorm.Model

	Name        string `gorm:"column:name;uniqueIndex"` // 分类名称，全局唯一
	Description string `gorm:"column:description"`      // 分类描述
}
