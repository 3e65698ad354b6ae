package handlers

import (
	"fan-nation/app/server/constants"
	"fan-nation/app/server/jwt"
	"fan-nation/app/server/types"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

func (a *App) er(c echo.Context, statusCode int) error {
	return c.JSON(statusCode, &types.ErrorMessage{
		Message: http.StatusText(statusCode),
	})
}

// 角色等级，数字越大权限越高
var roleRank = map[string]int{
	constants.RoleUser:      0,
	constants.RoleModerator: 1,
	constants.RoleAdmin:     2,
}

func (a *App) getJwtUser(c echo.Context) (*jwt.User, error) {
	// 提取 token
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return nil, fmt.Errorf("missing auth token")
	}

	splits := strings.Split(authHeader, " ")
	if len(splits) != 2 {
		return nil, fmt.Errorf("invalid auth header: %s", authHeader)
	}

	if strings.ToLower(splits[0]) != "bearer" {
		return nil, fmt.Errorf("unknown auth method: %s", splits[0])
	}

	// 验证 token
	jwtUser, err := a.jwt.ParseUser(splits[1])
	if err != nil {
		// 无效的 token
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	return jwtUser, nil
}

// 认证并检查权限： selfID 不为空时允许本人操作，否则要求角色不低于 minRole
func (a *App) authUser(c echo.Context, minRole string, selfID *uint) (*jwt.User, error, int) {
	jwtUser, err := a.getJwtUser(c)
	if err != nil {
		return nil, err, http.StatusUnauthorized
	}

	if selfID != nil && jwtUser.ID == *selfID {
		return jwtUser, nil, http.StatusOK
	}

	if roleRank[jwtUser.Role] < roleRank[minRole] {
		return nil, fmt.Errorf("requires %s role", minRole), http.StatusForbidden
	}

	return jwtUser, nil, http.StatusOK
}

// 内容归属检查：作者本人或版主以上可以修改
func canModify(jwtUser *jwt.User, ownerID uint) bool {
	return jwtUser.ID == ownerID || roleRank[jwtUser.Role] >= roleRank[constants.RoleModerator]
}
