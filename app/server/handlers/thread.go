package handlers

import (
	"context"
	"errors"
	"fan-nation/app/server/constants"
	"fan-nation/app/server/models"
	"fan-nation/app/server/types"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func (a *App) threadInfo(rctx context.Context, thread *models.Thread) (*types.ThreadInfo, error) {
	info := &types.ThreadInfo{
		ID:           thread.ID,
		Title:        thread.Title,
		Content:      thread.Content,
		AuthorID:     thread.UserID,
		AuthorName:   thread.User.Username,
		CategoryID:   thread.CategoryID,
		CategoryName: thread.Category.Name,
		ViewCount:    thread.ViewCount,
		CreatedAt:    thread.CreatedAt,
	}

	// 点赞数和评论数都从边表实时数出来
	if err := a.db.WithContext(rctx).Model(&models.ThreadLike{}).
		Where("thread_id = ?", thread.ID).Count(&info.LikeCount).Error; err != nil {
		return nil, err
	}
	if err := a.db.WithContext(rctx).Model(&models.Comment{}).
		Where("thread_id = ?", thread.ID).Count(&info.CommentCount).Error; err != nil {
		return nil, err
	}

	return info, nil
}

func (a *App) threadList(c echo.Context, categoryID *uint) error {
	rctx := c.Request().Context()

	var (
		threads      []models.Thread
		threadsCount int64
	)

	showAll, page, limit := a.parsePagination(c)
	queryBase := a.db.WithContext(rctx).Model(&models.Thread{}).
		Preload("User").Preload("Category").
		Order("created_at DESC")
	countBase := a.db.WithContext(rctx).Model(&models.Thread{})
	if categoryID != nil {
		queryBase = queryBase.Where("category_id = ?", *categoryID)
		countBase = countBase.Where("category_id = ?", *categoryID)
	}
	if !showAll {
		queryBase = queryBase.Limit(limit).Offset(page * limit)
	}

	if err := queryBase.Find(&threads).Error; err != nil {
		a.l.Error("failed to get thread list", zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}
	if err := countBase.Count(&threadsCount).Error; err != nil {
		a.l.Error("failed to count thread", zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	resThreads := []types.ThreadInfo{}
	for _, thread := range threads {
		info, err := a.threadInfo(rctx, &thread)
		if err != nil {
			a.l.Error("failed to build thread info", zap.Uint("id", thread.ID), zap.Error(err))
			return a.er(c, http.StatusInternalServerError)
		}
		resThreads = append(resThreads, *info)
	}

	return c.JSON(http.StatusOK, &types.ThreadListResponse{
		Limit:   limit,
		PageMax: a.calcMaxPage(threadsCount, showAll, limit),
		List:    resThreads,
	})
}

func (a *App) ThreadList(c echo.Context) error {
	return a.threadList(c, nil)
}

func (a *App) ThreadListByCategory(c echo.Context, id uint) error {
	rctx := c.Request().Context()

	var category models.Category
	if err := a.db.WithContext(rctx).First(&category, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return a.er(c, http.StatusNotFound)
		} else {
			a.l.Error("failed to get category", zap.Uint("id", id), zap.Error(err))
			return a.er(c, http.StatusInternalServerError)
		}
	}

	return a.threadList(c, &id)
}

func (a *App) ThreadCreate(c echo.Context) error {
	// 抓取 user 信息（认证）
	jwtUser, err, statusCode := a.authUser(c, constants.RoleUser, nil)
	if err != nil {
		a.l.Error("failed to auth", zap.Error(err))
		return a.er(c, statusCode)
	}

	rctx := c.Request().Context()

	// 绑定请求体
	var req types.ThreadInput
	if err = c.Bind(&req); err != nil {
		a.l.Error("failed to bind request", zap.Error(err))
		return a.er(c, http.StatusBadRequest)
	}
	if req.Title == nil || *req.Title == "" || req.Content == nil || req.CategoryID == nil {
		return a.er(c, http.StatusBadRequest)
	}

	// 所属分类必须存在
	var category models.Category
	if err := a.db.WithContext(rctx).First(&category, "id = ?", *req.CategoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return a.er(c, http.StatusNotFound)
		} else {
			a.l.Error("failed to get category", zap.Uint("id", *req.CategoryID), zap.Error(err))
			return a.er(c, http.StatusInternalServerError)
		}
	}

	// 创建帖子并发放积分。发帖积分只发这一次，删帖不收回
	thread := models.Thread{
		Title:      *req.Title,
		Content:    *req.Content,
		UserID:     jwtUser.ID,
		CategoryID: *req.CategoryID,
	}
	if err := a.db.WithContext(rctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&thread).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", jwtUser.ID).
			Update("points", gorm.Expr("points + ?", constants.PointsThreadCreate)).Error
	}); err != nil {
		a.l.Error("failed to create thread", zap.Uint("user", jwtUser.ID), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	thread.Category = category
	if err := a.db.WithContext(rctx).First(&thread.User, "id = ?", jwtUser.ID).Error; err != nil {
		a.l.Error("failed to get user", zap.Uint("id", jwtUser.ID), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	info, err := a.threadInfo(rctx, &thread)
	if err != nil {
		a.l.Error("failed to build thread info", zap.Uint("id", thread.ID), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	return c.JSON(http.StatusCreated, info)
}

func (a *App) ThreadInfoGet(c echo.Context, id uint) error {
	rctx := c.Request().Context()

	// 从数据库中获得指定的帖子
	var thread models.Thread
	if err := a.db.WithContext(rctx).Preload("User").Preload("Category").
		First(&thread, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return a.er(c, http.StatusNotFound)
		} else {
			a.l.Error("failed to get thread", zap.Uint("id", id), zap.Error(err))
			return a.er(c, http.StatusInternalServerError)
		}
	}

	// 浏览数 +1
	if err := a.db.WithContext(rctx).Model(&models.Thread{}).Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error; err != nil {
		a.l.Error("failed to bump view count", zap.Uint("id", id), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}
	thread.ViewCount++

	info, err := a.threadInfo(rctx, &thread)
	if err != nil {
		a.l.Error("failed to build thread info", zap.Uint("id", id), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	return c.JSON(http.StatusOK, info)
}

func (a *App) ThreadInfoUpdate(c echo.Context, id uint) error {
	// 抓取 user 信息（认证）
	jwtUser, err, statusCode := a.authUser(c, constants.RoleUser, nil)
	if err != nil {
		a.l.Error("failed to auth", zap.Error(err))
		return a.er(c, statusCode)
	}

	rctx := c.Request().Context()

	// 绑定请求体
	var req types.ThreadInput
	if err = c.Bind(&req); err != nil {
		a.l.Error("failed to bind request", zap.Error(err))
		return a.er(c, http.StatusBadRequest)
	}

	// 从数据库中获得指定的帖子
	var thread models.Thread
	if err := a.db.WithContext(rctx).Preload("User").Preload("Category").
		First(&thread, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return a.er(c, http.StatusNotFound)
		} else {
			a.l.Error("failed to get thread", zap.Uint("id", id), zap.Error(err))
			return a.er(c, http.StatusInternalServerError)
		}
	}

	// 作者本人或版主以上
	if !canModify(jwtUser, thread.UserID) {
		return a.er(c, http.StatusForbidden)
	}

	if req.Title != nil {
		thread.Title = *req.Title
	}
	if req.Content != nil {
		thread.Content = *req.Content
	}
	if req.CategoryID != nil {
		var category models.Category
		if err := a.db.WithContext(rctx).First(&category, "id = ?", *req.CategoryID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return a.er(c, http.StatusNotFound)
			} else {
				a.l.Error("failed to get category", zap.Uint("id", *req.CategoryID), zap.Error(err))
				return a.er(c, http.StatusInternalServerError)
			}
		}
		thread.CategoryID = *req.CategoryID
		thread.Category = category
	}

	// 更新帖子信息
	if err := a.db.WithContext(rctx).Updates(&thread).Error; err != nil {
		a.l.Error("failed to update thread", zap.Uint("id", id), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	info, err := a.threadInfo(rctx, &thread)
	if err != nil {
		a.l.Error("failed to build thread info", zap.Uint("id", id), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	return c.JSON(http.StatusOK, info)
}

func (a *App) ThreadDelete(c echo.Context, id uint) error {
	// 抓取 user 信息（认证）
	jwtUser, err, statusCode := a.authUser(c, constants.RoleUser, nil)
	if err != nil {
		a.l.Error("failed to auth", zap.Error(err))
		return a.er(c, statusCode)
	}

	rctx := c.Request().Context()

	var thread models.Thread
	if err := a.db.WithContext(rctx).First(&thread, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return a.er(c, http.StatusNotFound)
		} else {
			a.l.Error("failed to get thread", zap.Uint("id", id), zap.Error(err))
			return a.er(c, http.StatusInternalServerError)
		}
	}

	if !canModify(jwtUser, thread.UserID) {
		return a.er(c, http.StatusForbidden)
	}

	// 删除帖子。发帖时的积分不收回
	if err := a.db.WithContext(rctx).Delete(&models.Thread{}, id).Error; err != nil {
		a.l.Error("failed to delete thread", zap.Uint("id", id), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	return c.NoContent(http.StatusOK)
}

func (a *App) ThreadLikeCreate(c echo.Context, id uint) error {
	// 抓取 user 信息（认证）
	jwtUser, err, statusCode := a.authUser(c, constants.RoleUser, nil)
	if err != nil {
		a.l.Error("failed to auth", zap.Error(err))
		return a.er(c, statusCode)
	}

	rctx := c.Request().Context()

	// 点赞目标必须存在，同时拿到作者
	var thread models.Thread
	if err := a.db.WithContext(rctx).First(&thread, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return a.er(c, http.StatusNotFound)
		} else {
			a.l.Error("failed to get thread", zap.Uint("id", id), zap.Error(err))
			return a.er(c, http.StatusInternalServerError)
		}
	}

	// 只有真正插入了点赞边才给作者加分，重复点赞是无操作
	if err := a.db.WithContext(rctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.ThreadLike{}).
			Where("user_id = ? AND thread_id = ?", jwtUser.ID, id).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		if err := tx.Create(&models.ThreadLike{
			UserID:   jwtUser.ID,
			ThreadID: id,
		}).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil
			}
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", thread.UserID).
			Update("points", gorm.Expr("points + ?", constants.PointsContentLike)).Error
	}); err != nil {
		a.l.Error("failed to like thread", zap.Uint("user", jwtUser.ID), zap.Uint("thread", id), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	return c.NoContent(http.StatusOK)
}

func (a *App) ThreadLikeDelete(c echo.Context, id uint) error {
	// 抓取 user 信息（认证）
	jwtUser, err, statusCode := a.authUser(c, constants.RoleUser, nil)
	if err != nil {
		a.l.Error("failed to auth", zap.Error(err))
		return a.er(c, statusCode)
	}

	rctx := c.Request().Context()

	var thread models.Thread
	if err := a.db.WithContext(rctx).First(&thread, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return a.er(c, http.StatusNotFound)
		} else {
			a.l.Error("failed to get thread", zap.Uint("id", id), zap.Error(err))
			return a.er(c, http.StatusInternalServerError)
		}
	}

	// 只有真正删掉了点赞边才扣作者的分，保证和点赞严格互逆
	if err := a.db.WithContext(rctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND thread_id = ?", jwtUser.ID, id).
			Delete(&models.ThreadLike{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		return tx.Model(&models.User{}).Where("id = ?", thread.UserID).
			Update("points", gorm.Expr("points - ?", constants.PointsContentLike)).Error
	}); err != nil {
		a.l.Error("failed to unlike thread", zap.Uint("user", jwtUser.ID), zap.Uint("thread", id), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	return c.NoContent(http.StatusOK)
}
