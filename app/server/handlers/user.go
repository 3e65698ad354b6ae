package handlers

import (
	"encoding/json"
	"errors"
	"fan-nation/app/server/constants"
	"fan-nation/app/server/models"
	"fan-nation/app/server/types"
	"net/http"

	"github.com/alexedwards/argon2id"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func (a *App) userInfo(user *models.User) *types.UserInfo {
	return &types.UserInfo{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Role:      user.Role,
		Bio:       user.Bio,
		Points:    user.Points,
		CreatedAt: user.CreatedAt,
	}
}

func (a *App) userMapFields(req *types.UserUpdateRequest, user *models.User) {
	if req.Bio != nil {
		user.Bio = *req.Bio
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
}

func (a *App) UserList(c echo.Context) error {
	// 抓取 user 信息（认证）
	_, err, statusCode := a.authUser(c, constants.RoleAdmin, nil)
	if err != nil {
		a.l.Error("failed to auth", zap.Error(err))
		return a.er(c, statusCode)
	}

	rctx := c.Request().Context()

	var (
		users      []models.User
		usersCount int64
	)

	showAll, page, limit := a.parsePagination(c)
	queryBase := a.db.WithContext(rctx).Model(&models.User{}).Order("id ASC")
	if !showAll {
		queryBase = queryBase.Limit(limit).Offset(page * limit)
	}

	if err := queryBase.Find(&users).Error; err != nil {
		a.l.Error("failed to get user list", zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}
	if err := a.db.WithContext(rctx).Model(&models.User{}).Count(&usersCount).Error; err != nil {
		a.l.Error("failed to count user", zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	resUsers := []types.UserInfo{}
	for _, user := range users {
		resUsers = append(resUsers, *a.userInfo(&user))
	}

	return c.JSON(http.StatusOK, &types.UserListResponse{
		Limit:   limit,
		PageMax: a.calcMaxPage(usersCount, showAll, limit),
		List:    resUsers,
	})
}

func (a *App) UserInfoGet(c echo.Context, id uint) error {
	rctx := c.Request().Context()

	// 从数据库中获得指定的用户
	var user models.User
	if err := a.db.WithContext(rctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return a.er(c, http.StatusNotFound)
		} else {
			a.l.Error("failed to get user", zap.Uint("id", id), zap.Error(err))
			return a.er(c, http.StatusInternalServerError)
		}
	}

	// 统计数字都从边表实时数出来，不在用户行上冗余
	profile := types.UserProfile{UserInfo: *a.userInfo(&user)}
	counts := []struct {
		model any
		query string
		dest  *int64
	}{
		{&models.UserFollow{}, "followee_id = ?", &profile.FollowersCount},
		{&models.UserFollow{}, "follower_id = ?", &profile.FollowingCount},
		{&models.Thread{}, "user_id = ?", &profile.ThreadCount},
		{&models.Comment{}, "user_id = ?", &profile.CommentCount},
	}
	for _, count := range counts {
		if err := a.db.WithContext(rctx).Model(count.model).Where(count.query, id).Count(count.dest).Error; err != nil {
			a.l.Error("failed to count user relations", zap.Uint("id", id), zap.Error(err))
			return a.er(c, http.StatusInternalServerError)
		}
	}

	return c.JSON(http.StatusOK, &profile)
}

func (a *App) UserInfoUpdate(c echo.Context, id uint) error {
	// 抓取 user 信息（认证）：本人或管理员
	_, err, statusCode := a.authUser(c, constants.RoleAdmin, &id)
	if err != nil {
		a.l.Error("failed to auth", zap.Error(err))
		return a.er(c, statusCode)
	}

	rctx := c.Request().Context()

	// 绑定请求体
	var req types.UserUpdateRequest
	if err = c.Bind(&req); err != nil {
		a.l.Error("failed to bind request", zap.Error(err))
		return a.er(c, http.StatusBadRequest)
	}

	// 从数据库中获得指定的用户
	var user models.User
	if err := a.db.WithContext(rctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return a.er(c, http.StatusNotFound)
		} else {
			a.l.Error("failed to get user", zap.Uint("id", id), zap.Error(err))
			return a.er(c, http.StatusInternalServerError)
		}
	}

	// 修改邮箱需要检查唯一性
	if req.Email != nil && *req.Email != user.Email {
		var count int64
		if err := a.db.WithContext(rctx).Model(&models.User{}).
			Where("email = ?", *req.Email).Count(&count).Error; err != nil {
			a.l.Error("failed to count email", zap.Error(err))
			return a.er(c, http.StatusInternalServerError)
		}
		if count > 0 {
			return a.er(c, http.StatusConflict)
		}
	}

	a.userMapFields(&req, &user)

	// 更新用户信息
	if err := a.db.WithContext(rctx).Updates(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return a.er(c, http.StatusConflict)
		}
		a.l.Error("failed to update user", zap.Uint("id", id), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	return c.JSON(http.StatusOK, a.userInfo(&user))
}

func (a *App) UserPasswordUpdate(c echo.Context, id uint) error {
	// 抓取 user 信息（认证）：本人或管理员
	_, err, statusCode := a.authUser(c, constants.RoleAdmin, &id)
	if err != nil {
		a.l.Error("failed to auth", zap.Error(err))
		return a.er(c, statusCode)
	}

	rctx := c.Request().Context()

	// 绑定请求体
	var req types.UserPasswordUpdateRequest
	if err = c.Bind(&req); err != nil {
		a.l.Error("failed to bind request", zap.Error(err))
		return a.er(c, http.StatusBadRequest)
	}
	if req.NewPassword == "" {
		return a.er(c, http.StatusBadRequest)
	}

	// 从数据库中获得指定的用户
	var user models.User
	if err := a.db.WithContext(rctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return a.er(c, http.StatusNotFound)
		} else {
			a.l.Error("failed to get user", zap.Uint("id", id), zap.Error(err))
			return a.er(c, http.StatusInternalServerError)
		}
	}

	// 先校验当前密码
	if match, _, err := argon2id.CheckHash(req.CurrentPassword, user.Password); err != nil {
		a.l.Error("failed to check password", zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	} else if !match {
		return a.er(c, http.StatusUnauthorized)
	}

	newPasswordHash, err := argon2id.CreateHash(req.NewPassword, argon2id.DefaultParams)
	if err != nil {
		a.l.Error("failed to hash password", zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	// 更新用户信息
	if err := a.db.WithContext(rctx).Model(&user).Update("password", newPasswordHash).Error; err != nil {
		a.l.Error("failed to update user", zap.Uint("id", id), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	return c.NoContent(http.StatusOK)
}

func (a *App) UserRoleUpdate(c echo.Context, id uint) error {
	// 抓取 user 信息（认证）：只有管理员可以调整角色
	_, err, statusCode := a.authUser(c, constants.RoleAdmin, nil)
	if err != nil {
		a.l.Error("failed to auth", zap.Error(err))
		return a.er(c, statusCode)
	}

	rctx := c.Request().Context()

	// 绑定请求体
	var req types.UserRoleUpdateRequest
	if err = c.Bind(&req); err != nil {
		a.l.Error("failed to bind request", zap.Error(err))
		return a.er(c, http.StatusBadRequest)
	}
	if req.Role == nil {
		return a.er(c, http.StatusBadRequest)
	}
	if _, ok := roleRank[*req.Role]; !ok {
		return a.er(c, http.StatusBadRequest)
	}

	// 从数据库中获得指定的用户
	var user models.User
	if err := a.db.WithContext(rctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return a.er(c, http.StatusNotFound)
		} else {
			a.l.Error("failed to get user", zap.Uint("id", id), zap.Error(err))
			return a.er(c, http.StatusInternalServerError)
		}
	}

	// 更新用户信息
	if err := a.db.WithContext(rctx).Model(&user).Update("role", *req.Role).Error; err != nil {
		a.l.Error("failed to update user", zap.Uint("id", id), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	return c.JSON(http.StatusOK, a.userInfo(&user))
}

func (a *App) UserTopContributors(c echo.Context) error {
	rctx := c.Request().Context()

	// 查询缓存
	if cacheBytes, err := a.rdb.Get(rctx, constants.CacheKeyTopUsers).Bytes(); err != nil {
		if !errors.Is(err, redis.Nil) {
			a.l.Error("failed to query cache for top users", zap.Error(err))
		}
	} else {
		var cached []types.UserInfo
		if err = json.Unmarshal(cacheBytes, &cached); err != nil {
			a.l.Error("failed to unmarshal top users", zap.ByteString("cacheBytes", cacheBytes), zap.Error(err))
			// 可能是无效的缓存，清理掉
			a.rdb.Del(rctx, constants.CacheKeyTopUsers)
		} else {
			return c.JSON(http.StatusOK, cached)
		}
	}

	// 查询数据库
	var users []models.User
	if err := a.db.WithContext(rctx).Model(&models.User{}).
		Order("points DESC").Limit(10).Find(&users).Error; err != nil {
		a.l.Error("failed to get top users", zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	resUsers := []types.UserInfo{}
	for _, user := range users {
		resUsers = append(resUsers, *a.userInfo(&user))
	}

	// 格式化并加入缓存，方便下一次查询
	if cacheBytes, err := json.Marshal(&resUsers); err != nil {
		a.l.Error("failed to marshal top users", zap.Error(err))
	} else {
		a.rdb.Set(rctx, constants.CacheKeyTopUsers, cacheBytes, constants.CacheExpireTopUsers)
	}

	return c.JSON(http.StatusOK, resUsers)
}
