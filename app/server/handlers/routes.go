package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo, a *App) {
	e.GET("/api/healthcheck", a.HealthCheck)

	// 认证
	e.POST("/api/auth/signup", a.AuthSignup)
	e.POST("/api/auth/login", a.AuthLogin)
	e.GET("/api/auth/me", a.AuthMe)

	// 用户
	e.GET("/api/users", a.UserList)
	e.GET("/api/users/top", a.UserTopContributors)
	e.GET("/api/users/:id", withID(a.UserInfoGet))
	e.PUT("/api/users/:id", withID(a.UserInfoUpdate))
	e.PUT("/api/users/:id/password", withID(a.UserPasswordUpdate))
	e.PUT("/api/users/:id/role", withID(a.UserRoleUpdate))
	e.GET("/api/users/:id/followers", withID(a.UserFollowersList))
	e.GET("/api/users/:id/following", withID(a.UserFollowingList))
	e.GET("/api/users/:id/categories", withID(a.UserFollowedCategoriesList))
	e.POST("/api/users/:id/follow", withID(a.UserFollowCreate))
	e.DELETE("/api/users/:id/follow", withID(a.UserFollowDelete))

	// 分类
	e.GET("/api/categories", a.CategoryList)
	e.POST("/api/categories", a.CategoryCreate)
	e.GET("/api/categories/:id", withID(a.CategoryInfoGet))
	e.PUT("/api/categories/:id", withID(a.CategoryInfoUpdate))
	e.DELETE("/api/categories/:id", withID(a.CategoryDelete))
	e.POST("/api/categories/:id/follow", withID(a.CategoryFollowCreate))
	e.DELETE("/api/categories/:id/follow", withID(a.CategoryFollowDelete))
	e.GET("/api/categories/:id/threads", withID(a.ThreadListByCategory))
	e.GET("/api/categories/:id/polls", withID(a.PollListByCategory))

	// 帖子
	e.GET("/api/threads", a.ThreadList)
	e.POST("/api/threads", a.ThreadCreate)
	e.GET("/api/threads/:id", withID(a.ThreadInfoGet))
	e.PUT("/api/threads/:id", withID(a.ThreadInfoUpdate))
	e.DELETE("/api/threads/:id", withID(a.ThreadDelete))
	e.POST("/api/threads/:id/like", withID(a.ThreadLikeCreate))
	e.DELETE("/api/threads/:id/like", withID(a.ThreadLikeDelete))
	e.GET("/api/threads/:id/comments", withID(a.CommentListByThread))
	e.POST("/api/threads/:id/comments", withID(a.CommentCreate))

	// 评论
	e.PUT("/api/comments/:id", withID(a.CommentInfoUpdate))
	e.DELETE("/api/comments/:id", withID(a.CommentDelete))
	e.POST("/api/comments/:id/like", withID(a.CommentLikeCreate))
	e.DELETE("/api/comments/:id/like", withID(a.CommentLikeDelete))

	// 投票
	e.GET("/api/polls", a.PollList)
	e.POST("/api/polls", a.PollCreate)
	e.GET("/api/polls/active", a.PollListActive)
	e.GET("/api/polls/:id", withID(a.PollInfoGet))
	e.DELETE("/api/polls/:id", withID(a.PollDelete))
	e.POST("/api/polls/options/:id/vote", withID(a.PollVoteCreate))
}

// 解析路径里的 :id 后转交给具体的 handler
func withID(h func(c echo.Context, id uint) error) echo.HandlerFunc {
	return func(c echo.Context) error {
		idUint64, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			return c.NoContent(http.StatusBadRequest)
		}
		return h(c, uint(idUint64))
	}
}
