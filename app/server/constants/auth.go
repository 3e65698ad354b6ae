package constants

import "time"

const AuthTokenDuration = 7 * 24 * time.Hour // 登录令牌有效期

// 登录尝试的记录状态
const (
	AuthStatusSuccess = "Success"
	AuthStatusFailed  = "Failed"
)
