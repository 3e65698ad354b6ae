package models

import "time"

// 投票记录。 poll_id 从选项冗余下来，让「每人每个投票只能投一次」
// 可以直接用唯一索引兜底，不用扫全部选项。
// 不使用软删除，否则删除后的记录会继续占住唯一索引
type PollVote struct {
	ID        uint      `gorm:"primarykey"`
	CreatedAt time.Time

	UserID   uint `gorm:"column:user_id;uniqueIndex:idx_poll_votes_user_poll"`
	PollID   uint `gorm:"column:poll_id;uniqueIndex:idx_poll_votes_user_poll"`
	OptionID uint `gorm:"column:option_id;index"`
}
