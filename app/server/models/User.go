package models

import "gorm.io/gorm"

type User struct {
	gorm.Model

	// 基础信息
	Username string `gorm:"column:username;uniqueIndex"` // 用户名，全局唯一
	Email    string `gorm:"column:email;uniqueIndex"`    // 邮箱，全局唯一
	Bio      string `gorm:"column:bio"`                  // 个人简介
	Role     string `gorm:"column:role"`                 // 角色： user / moderator / admin

	// 登录与授权认证相关
	Password string `gorm:"column:password"` // 密码，使用 argon2id 储存

	// 积分，由发帖、点赞等事件调整
	Points int `gorm:"column:points"`
}
