package models

import "time"

// 关注关系都是有向边，唯一索引保证同一对主体只会存在一条边，
// 并发重复插入由索引兜底。不使用软删除，否则取关后无法重新关注

type UserFollow struct {
	ID        uint      `gorm:"primarykey"`
	CreatedAt time.Time

	FollowerID uint `gorm:"column:follower_id;uniqueIndex:idx_user_follows_pair"` // 关注者
	FolloweeID uint `gorm:"column:followee_id;uniqueIndex:idx_user_follows_pair"` // 被关注者
}

type CategoryFollow struct {
	ID        uint      `gorm:"primarykey"`
	CreatedAt time.Time

	UserID     uint `gorm:"column:user_id;uniqueIndex:idx_category_follows_pair"`
	CategoryID uint `gorm:"column:category_id;uniqueIndex:idx_category_follows_pair"`
}
