package constants

// 积分规则：创建内容的积分只在创建时发放一次，删除不会收回；
// 点赞的积分跟随点赞边的增删，保证反复点赞取消后积分不变
const (
	PointsThreadCreate  = 5
	PointsCommentCreate = 2
	PointsPollCreate    = 5
	PointsContentLike   = 1
)
