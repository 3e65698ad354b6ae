package handlers

import (
	"errors"
	"fan-nation/app/server/constants"
	"fan-nation/app/server/models"
	"fan-nation/app/server/types"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func (a *App) UserFollowCreate(c echo.Context, id uint) error {
	// 抓取 user 信息（认证）
	jwtUser, err, statusCode := a.authUser(c, constants.RoleUser, nil)
	if err != nil {
		a.l.Error("failed to auth", zap.Error(err))
		return a.er(c, statusCode)
	}

	// 不能关注自己
	if jwtUser.ID == id {
		return a.er(c, http.StatusBadRequest)
	}

	rctx := c.Request().Context()

	// 目标用户必须存在
	var target models.User
	if err := a.db.WithContext(rctx).First(&target, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return a.er(c, http.StatusNotFound)
		} else {
			a.l.Error("failed to get user", zap.Uint("id", id), zap.Error(err))
			return a.er(c, http.StatusInternalServerError)
		}
	}

	// 查边、插边在同一个事务里完成，并发下由唯一索引兜底
	if err := a.db.WithContext(rctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.UserFollow{}).
			Where("follower_id = ? AND followee_id = ?", jwtUser.ID, id).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			// 已关注，幂等
			return nil
		}
		if err := tx.Create(&models.UserFollow{
			FollowerID: jwtUser.ID,
			FolloweeID: id,
		}).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil
			}
			return err
		}
		return nil
	}); err != nil {
		a.l.Error("failed to follow user", zap.Uint("follower", jwtUser.ID), zap.Uint("followee", id), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	return c.NoContent(http.StatusOK)
}

func (a *App) UserFollowDelete(c echo.Context, id uint) error {
	// 抓取 user 信息（认证）
	jwtUser, err, statusCode := a.authUser(c, constants.RoleUser, nil)
	if err != nil {
		a.l.Error("failed to auth", zap.Error(err))
		return a.er(c, statusCode)
	}

	rctx := c.Request().Context()

	// 没有这条边时也是无操作成功
	if err := a.db.WithContext(rctx).
		Where("follower_id = ? AND followee_id = ?", jwtUser.ID, id).
		Delete(&models.UserFollow{}).Error; err != nil {
		a.l.Error("failed to unfollow user", zap.Uint("follower", jwtUser.ID), zap.Uint("followee", id), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	return c.NoContent(http.StatusOK)
}

// 同一张有向边表从两个方向读的两条固定 JOIN 子句，占位符是锚定的那一端
const (
	joinFollowersOfUser = "JOIN user_follows ON user_follows.follower_id = users.id AND user_follows.followee_id = ?"
	joinFollowedByUser  = "JOIN user_follows ON user_follows.followee_id = users.id AND user_follows.follower_id = ?"
)

func (a *App) UserFollowersList(c echo.Context, id uint) error {
	return a.followEdgeList(c, id, joinFollowersOfUser)
}

func (a *App) UserFollowingList(c echo.Context, id uint) error {
	return a.followEdgeList(c, id, joinFollowedByUser)
}

func (a *App) followEdgeList(c echo.Context, id uint, joinClause string) error {
	rctx := c.Request().Context()

	var target models.User
	if err := a.db.WithContext(rctx).First(&target, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return a.er(c, http.StatusNotFound)
		} else {
			a.l.Error("failed to get user", zap.Uint("id", id), zap.Error(err))
			return a.er(c, http.StatusInternalServerError)
		}
	}

	var users []models.User
	if err := a.db.WithContext(rctx).Model(&models.User{}).
		Joins(joinClause, id).
		Order("users.id ASC").
		Find(&users).Error; err != nil {
		a.l.Error("failed to list follow edges", zap.Uint("id", id), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	resUsers := []types.UserInfo{}
	for _, user := range users {
		resUsers = append(resUsers, *a.userInfo(&user))
	}

	return c.JSON(http.StatusOK, resUsers)
}

// 某用户关注的分类列表
func (a *App) UserFollowedCategoriesList(c echo.Context, id uint) error {
	rctx := c.Request().Context()

	var target models.User
	if err := a.db.WithContext(rctx).First(&target, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return a.er(c, http.StatusNotFound)
		} else {
			a.l.Error("failed to get user", zap.Uint("id", id), zap.Error(err))
			return a.er(c, http.StatusInternalServerError)
		}
	}

	var categories []models.Category
	if err := a.db.WithContext(rctx).Model(&models.Category{}).
		Joins("JOIN category_follows ON category_follows.category_id = categories.id AND category_follows.user_id = ?", id).
		Order("categories.id ASC").
		Find(&categories).Error; err != nil {
		a.l.Error("failed to list followed categories", zap.Uint("id", id), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	resCategories := []types.CategoryInfo{}
	for _, category := range categories {
		resCategories = append(resCategories, *a.categoryInfo(&category))
	}

	return c.JSON(http.StatusOK, resCategories)
}

func (a *App) CategoryFollowCreate(c echo.Context, id uint) error {
	// 抓取 user 信息（认证）。注意这里没有用户自关注那样的限制
	jwtUser, err, statusCode := a.authUser(c, constants.RoleUser, nil)
	if err != nil {
		a.l.Error("failed to auth", zap.Error(err))
		return a.er(c, statusCode)
	}

	rctx := c.Request().Context()

	// 目标分类必须存在
	var category models.Category
	if err := a.db.WithContext(rctx).First(&category, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return a.er(c, http.StatusNotFound)
		} else {
			a.l.Error("failed to get category", zap.Uint("id", id), zap.Error(err))
			return a.er(c, http.StatusInternalServerError)
		}
	}

	if err := a.db.WithContext(rctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.CategoryFollow{}).
			Where("user_id = ? AND category_id = ?", jwtUser.ID, id).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		if err := tx.Create(&models.CategoryFollow{
			UserID:     jwtUser.ID,
			CategoryID: id,
		}).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil
			}
			return err
		}
		return nil
	}); err != nil {
		a.l.Error("failed to follow category", zap.Uint("user", jwtUser.ID), zap.Uint("category", id), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	return c.NoContent(http.StatusOK)
}

func (a *App) CategoryFollowDelete(c echo.Context, id uint) error {
	// 抓取 user 信息（认证）
	jwtUser, err, statusCode := a.authUser(c, constants.RoleUser, nil)
	if err != nil {
		a.l.Error("failed to auth", zap.Error(err))
		return a.er(c, statusCode)
	}

	rctx := c.Request().Context()

	if err := a.db.WithContext(rctx).
		Where("user_id = ? AND category_id = ?", jwtUser.ID, id).
		Delete(&models.CategoryFollow{}).Error; err != nil {
		a.l.Error("failed to unfollow category", zap.Uint("user", jwtUser.ID), zap.Uint("category", id), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	return c.NoContent(http.StatusOK)
}
