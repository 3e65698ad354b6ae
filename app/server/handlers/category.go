package handlers

import (
	"encoding/json"
	"errors"
	"fan-nation/app/server/constants"
	"fan-nation/app/server/models"
	"fan-nation/app/server/types"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func (a *App) categoryInfo(category *models.Category) *types.CategoryInfo {
	return &types.CategoryInfo{
		ID:          category.ID,
		Name:        category.Name,
		Description: category.Description,
	}
}

func (a *App) categoryMapFields(req *types.CategoryInput, category *models.Category) {
	if req.Name != nil {
		category.Name = *req.Name
	}
	if req.Description != nil {
		category.Description = *req.Description
	}
}

func (a *App) CategoryList(c echo.Context) error {
	rctx := c.Request().Context()

	var (
		categories      []models.Category
		categoriesCount int64
	)

	showAll, page, limit := a.parsePagination(c)
	queryBase := a.db.WithContext(rctx).Model(&models.Category{}).Order("id ASC")
	if !showAll {
		queryBase = queryBase.Limit(limit).Offset(page * limit)
	}

	if err := queryBase.Find(&categories).Error; err != nil {
		a.l.Error("failed to get category list", zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}
	if err := a.db.WithContext(rctx).Model(&models.Category{}).Count(&categoriesCount).Error; err != nil {
		a.l.Error("failed to count category", zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	resCategories := []types.CategoryInfo{}
	for _, category := range categories {
		resCategories = append(resCategories, *a.categoryInfo(&category))
	}

	return c.JSON(http.StatusOK, &types.CategoryListResponse{
		Limit:   limit,
		PageMax: a.calcMaxPage(categoriesCount, showAll, limit),
		List:    resCategories,
	})
}

func (a *App) CategoryCreate(c echo.Context) error {
	// 抓取 user 信息（认证）
	_, err, statusCode := a.authUser(c, constants.RoleAdmin, nil)
	if err != nil {
		a.l.Error("failed to auth", zap.Error(err))
		return a.er(c, statusCode)
	}

	rctx := c.Request().Context()

	// 绑定请求体
	var req types.CategoryInput
	if err = c.Bind(&req); err != nil {
		a.l.Error("failed to bind request", zap.Error(err))
		return a.er(c, http.StatusBadRequest)
	}
	if req.Name == nil || *req.Name == "" {
		return a.er(c, http.StatusBadRequest)
	}

	// 分类名称唯一
	var count int64
	if err := a.db.WithContext(rctx).Model(&models.Category{}).
		Where("name = ?", *req.Name).Count(&count).Error; err != nil {
		a.l.Error("failed to count category", zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}
	if count > 0 {
		return a.er(c, http.StatusConflict)
	}

	// 创建
	var category models.Category
	a.categoryMapFields(&req, &category)

	if err := a.db.WithContext(rctx).Create(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return a.er(c, http.StatusConflict)
		}
		a.l.Error("failed to create category", zap.Any("category", category), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	return c.JSON(http.StatusCreated, a.categoryInfo(&category))
}

func (a *App) CategoryInfoGet(c echo.Context, id uint) error {
	rctx := c.Request().Context()

	var category models.Category

	// 查询缓存
	cacheKey := fmt.Sprintf(constants.CacheKeyCategoryInfo, id)
	if cacheBytes, err := a.rdb.Get(rctx, cacheKey).Bytes(); err != nil {
		if !errors.Is(err, redis.Nil) {
			a.l.Error("failed to query cache for category info", zap.Uint("id", id), zap.Error(err))
		}
	} else if err = json.Unmarshal(cacheBytes, &category); err != nil {
		a.l.Error("failed to unmarshal category info", zap.Uint("id", id), zap.ByteString("cacheBytes", cacheBytes), zap.Error(err))
		// 可能是无效的缓存，清理掉
		a.rdb.Del(rctx, cacheKey)
	} else {
		// 成功拉取到并格式化
		return c.JSON(http.StatusOK, a.categoryInfo(&category))
	}

	// 查询数据库
	if err := a.db.WithContext(rctx).First(&category, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return a.er(c, http.StatusNotFound)
		} else {
			a.l.Error("failed to get category", zap.Uint("id", id), zap.Error(err))
			return a.er(c, http.StatusInternalServerError)
		}
	}

	// 格式化并加入缓存，方便下一次查询
	if cacheBytes, err := json.Marshal(&category); err != nil {
		a.l.Error("failed to marshal category info", zap.Uint("id", id), zap.Error(err))
	} else {
		a.rdb.Set(rctx, cacheKey, cacheBytes, constants.CacheExpireCategoryInfo)
	}

	return c.JSON(http.StatusOK, a.categoryInfo(&category))
}

func (a *App) CategoryInfoUpdate(c echo.Context, id uint) error {
	// 抓取 user 信息（认证）
	_, err, statusCode := a.authUser(c, constants.RoleAdmin, nil)
	if err != nil {
		a.l.Error("failed to auth", zap.Error(err))
		return a.er(c, statusCode)
	}

	rctx := c.Request().Context()

	// 绑定请求体
	var req types.CategoryInput
	if err = c.Bind(&req); err != nil {
		a.l.Error("failed to bind request", zap.Error(err))
		return a.er(c, http.StatusBadRequest)
	}

	// 从数据库中获得指定的分类
	var category models.Category
	if err := a.db.WithContext(rctx).First(&category, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return a.er(c, http.StatusNotFound)
		} else {
			a.l.Error("failed to get category", zap.Uint("id", id), zap.Error(err))
			return a.er(c, http.StatusInternalServerError)
		}
	}

	a.categoryMapFields(&req, &category)

	// 更新分类信息
	if err := a.db.WithContext(rctx).Updates(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return a.er(c, http.StatusConflict)
		}
		a.l.Error("failed to update category", zap.Uint("id", id), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	// 旧缓存作废
	a.rdb.Del(rctx, fmt.Sprintf(constants.CacheKeyCategoryInfo, id))

	return c.JSON(http.StatusOK, a.categoryInfo(&category))
}

func (a *App) CategoryDelete(c echo.Context, id uint) error {
	// 抓取 user 信息（认证）
	_, err, statusCode := a.authUser(c, constants.RoleAdmin, nil)
	if err != nil {
		a.l.Error("failed to auth", zap.Error(err))
		return a.er(c, statusCode)
	}

	rctx := c.Request().Context()

	// 删除分类
	if err := a.db.WithContext(rctx).Delete(&models.Category{}, id).Error; err != nil {
		a.l.Error("failed to delete category", zap.Uint("id", id), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	// 旧缓存作废
	a.rdb.Del(rctx, fmt.Sprintf(constants.CacheKeyCategoryInfo, id))

	return c.NoContent(http.StatusOK)
}
