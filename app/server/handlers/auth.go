package handlers

import (
	"context"
	"errors"
	"fan-nation/app/server/constants"
	"fan-nation/app/server/jwt"
	"fan-nation/app/server/models"
	"fan-nation/app/server/types"
	"net/http"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func (a *App) AuthSignup(c echo.Context) error {
	rctx := c.Request().Context()

	// 绑定请求体
	var req types.SignupRequest
	if err := c.Bind(&req); err != nil {
		a.l.Error("failed to bind json body", zap.Error(err))
		return a.er(c, http.StatusBadRequest)
	}

	if req.Username == "" || req.Email == "" || req.Password == "" {
		return a.er(c, http.StatusBadRequest)
	}

	// 检查用户名和邮箱是否已被占用
	var count int64
	if err := a.db.WithContext(rctx).Model(&models.User{}).
		Where("username = ? OR email = ?", req.Username, req.Email).
		Count(&count).Error; err != nil {
		a.l.Error("failed to count existing users", zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}
	if count > 0 {
		return a.er(c, http.StatusConflict)
	}

	// 处理密码
	passwordHash, err := argon2id.CreateHash(req.Password, argon2id.DefaultParams)
	if err != nil {
		a.l.Error("failed to hash password", zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	// 创建用户
	user := models.User{
		Username: req.Username,
		Email:    req.Email,
		Role:     constants.RoleUser,
		Password: passwordHash,
	}
	if err := a.db.WithContext(rctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// 并发注册撞上唯一索引
			return a.er(c, http.StatusConflict)
		}
		a.l.Error("failed to create user", zap.String("username", user.Username), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	// 签出 JWT
	token, err := a.signToken(&user)
	if err != nil {
		a.l.Error("failed to sign token", zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	return c.JSON(http.StatusCreated, &types.AuthResponse{
		Token: token,
		User:  a.userInfo(&user),
	})
}

func (a *App) AuthLogin(c echo.Context) error {
	rctx := c.Request().Context()

	// 绑定请求体
	var req types.LoginRequest
	if err := c.Bind(&req); err != nil {
		a.l.Error("failed to bind json body", zap.Error(err))
		return a.er(c, http.StatusBadRequest)
	}

	if req.Identifier == "" || req.Password == "" {
		return a.er(c, http.StatusBadRequest)
	}

	// 按邮箱或用户名查找用户。找不到用户和密码错误必须对外表现一致，
	// 防止用这个接口枚举已注册用户
	var user models.User
	if err := a.db.WithContext(rctx).First(&user, "email = ? OR username = ?", req.Identifier, req.Identifier).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			a.logAuthAttempt(rctx, nil, constants.AuthStatusFailed)
			return a.er(c, http.StatusUnauthorized)
		} else {
			a.l.Error("failed to find user", zap.Error(err))
			return a.er(c, http.StatusInternalServerError)
		}
	}

	// 提取密码 hash 并进行校验
	if match, _, err := argon2id.CheckHash(req.Password, user.Password); err != nil {
		a.l.Error("failed to check password", zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	} else if !match {
		// 密码不一致，内部记录能解析出的用户 ID
		a.logAuthAttempt(rctx, &user.ID, constants.AuthStatusFailed)
		return a.er(c, http.StatusUnauthorized)
	}

	// 签出 JWT
	token, err := a.signToken(&user)
	if err != nil {
		a.l.Error("failed to sign token", zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	a.logAuthAttempt(rctx, &user.ID, constants.AuthStatusSuccess)

	return c.JSON(http.StatusOK, &types.AuthResponse{
		Token: token,
		User:  a.userInfo(&user),
	})
}

func (a *App) AuthMe(c echo.Context) error {
	// 这里不是按 id 操作，只能从令牌里取用户
	jwtUser, err := a.getJwtUser(c)
	if err != nil {
		a.l.Error("failed to get jwt user", zap.Error(err))
		return a.er(c, http.StatusUnauthorized)
	}

	rctx := c.Request().Context()

	// 令牌有效但用户已不存在时同样按无效令牌处理
	var user models.User
	if err := a.db.WithContext(rctx).First(&user, "id = ?", jwtUser.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return a.er(c, http.StatusUnauthorized)
		} else {
			a.l.Error("failed to get user", zap.Uint("id", jwtUser.ID), zap.Error(err))
			return a.er(c, http.StatusInternalServerError)
		}
	}

	return c.JSON(http.StatusOK, a.userInfo(&user))
}

func (a *App) signToken(user *models.User) (string, error) {
	expires := time.Now().Add(constants.AuthTokenDuration)
	return a.jwt.SignToken(&jwt.User{
		ID:       user.ID,
		Username: user.Username,
		Role:     user.Role,
		Expires:  expires.Unix(),
	})
}

// 记录登录尝试。写入失败只记日志，不影响登录流程本身
func (a *App) logAuthAttempt(rctx context.Context, userID *uint, status string) {
	log := models.AuthLog{
		UserID:    userID,
		Status:    status,
		LoginTime: time.Now(),
	}
	if err := a.db.WithContext(rctx).Create(&log).Error; err != nil {
		a.l.Error("failed to write auth log", zap.String("status", status), zap.Error(err))
	}
}
