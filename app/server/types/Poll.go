package types

import "time"

type PollOptionInfo struct {
	ID    uint   `json:"id"`
	Text  string `json:"text"`
	Votes int64  `json:"votes"` // 实时统计，不落库
}

type PollInfo struct {
	ID           uint             `json:"id"`
	Question     string           `json:"question"`
	AuthorID     uint             `json:"authorId"`
	AuthorName   string           `json:"authorName"`
	CategoryID   uint             `json:"categoryId"`
	CategoryName string           `json:"categoryName"`
	Options      []PollOptionInfo `json:"options"`
	TotalVotes   int64            `json:"totalVotes"`
	ExpiresAt    time.Time        `json:"expiresAt"`
	CreatedAt    time.Time        `json:"createdAt"`
}

type PollInput struct {
	Question   *string    `json:"question"`
	CategoryID *uint      `json:"categoryId"`
	Options    []string   `json:"options"`
	ExpiresAt  *time.Time `json:"expiresAt"` // 不填默认七天后截止
}

type PollListResponse struct {
	Limit   int        `json:"limit"`
	PageMax int64      `json:"pageMax"`
	List    []PollInfo `json:"list"`
}
