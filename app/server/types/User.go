package types

import "time"

type UserInfo struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Bio       string    `json:"bio,omitempty"`
	Points    int       `json:"points"`
	CreatedAt time.Time `json:"createdAt"`
}

// 个人主页用，比 UserInfo 多出各种统计数字
type UserProfile struct {
	UserInfo

	FollowersCount int64 `json:"followersCount"`
	FollowingCount int64 `json:"followingCount"`
	ThreadCount    int64 `json:"threadCount"`
	CommentCount   int64 `json:"commentCount"`
}

type UserUpdateRequest struct {
	Bio   *string `json:"bio"`
	Email *string `json:"email"`
}

type UserPasswordUpdateRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type UserRoleUpdateRequest struct {
	Role *string `json:"role"`
}

type UserListResponse struct {
	Limit   int        `json:"limit"`
	PageMax int64      `json:"pageMax"`
	List    []UserInfo `json:"list"`
}
