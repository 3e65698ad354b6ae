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

// 构建单条评论的展示结构，递归带上它的所有回复
func (a *App) commentInfo(rctx context.Context, comment *models.Comment) (*types.CommentInfo, error) {
	info := &types.CommentInfo{
		ID:         comment.ID,
		Content:    comment.Content,
		AuthorID:   comment.UserID,
		AuthorName: comment.User.Username,
		ThreadID:   comment.ThreadID,
		ParentID:   comment.ParentCommentID,
		Replies:    []types.CommentInfo{},
		CreatedAt:  comment.CreatedAt,
	}

	if err := a.db.WithContext(rctx).Model(&models.CommentLike{}).
		Where("comment_id = ?", comment.ID).Count(&info.LikeCount).Error; err != nil {
		return nil, err
	}

	var replies []models.Comment
	if err := a.db.WithContext(rctx).Preload("User").
		Where("parent_comment_id = ?", comment.ID).
		Order("created_at ASC").
		Find(&replies).Error; err != nil {
		return nil, err
	}
	for _, reply := range replies {
		replyInfo, err := a.commentInfo(rctx, &reply)
		if err != nil {
			return nil, err
		}
		info.Replies = append(info.Replies, *replyInfo)
	}

	return info, nil
}

func (a *App) CommentListByThread(c echo.Context, id uint) error {
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

	var (
		comments      []models.Comment
		commentsCount int64
	)

	// 只分页顶层评论，回复挂在各自的父评论下面
	showAll, page, limit := a.parsePagination(c)
	queryBase := a.db.WithContext(rctx).Model(&models.Comment{}).Preload("User").
		Where("thread_id = ? AND parent_comment_id IS NULL", id).
		Order("created_at DESC")
	if !showAll {
		queryBase = queryBase.Limit(limit).Offset(page * limit)
	}

	if err := queryBase.Find(&comments).Error; err != nil {
		a.l.Error("failed to get comment list", zap.Uint("thread", id), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}
	if err := a.db.WithContext(rctx).Model(&models.Comment{}).
		Where("thread_id = ? AND parent_comment_id IS NULL", id).
		Count(&commentsCount).Error; err != nil {
		a.l.Error("failed to count comment", zap.Uint("thread", id), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	resComments := []types.CommentInfo{}
	for _, comment := range comments {
		info, err := a.commentInfo(rctx, &comment)
		if err != nil {
			a.l.Error("failed to build comment info", zap.Uint("id", comment.ID), zap.Error(err))
			return a.er(c, http.StatusInternalServerError)
		}
		resComments = append(resComments, *info)
	}

	return c.JSON(http.StatusOK, &types.CommentListResponse{
		Limit:   limit,
		PageMax: a.calcMaxPage(commentsCount, showAll, limit),
		List:    resComments,
	})
}

func (a *App) CommentCreate(c echo.Context, id uint) error {
	// 抓取 user 信息（认证）
	jwtUser, err, statusCode := a.authUser(c, constants.RoleUser, nil)
	if err != nil {
		a.l.Error("failed to auth", zap.Error(err))
		return a.er(c, statusCode)
	}

	rctx := c.Request().Context()

	// 绑定请求体
	var req types.CommentInput
	if err = c.Bind(&req); err != nil {
		a.l.Error("failed to bind request", zap.Error(err))
		return a.er(c, http.StatusBadRequest)
	}
	if req.Content == nil || *req.Content == "" {
		return a.er(c, http.StatusBadRequest)
	}

	// 所属帖子必须存在
	var thread models.Thread
	if err := a.db.WithContext(rctx).First(&thread, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return a.er(c, http.StatusNotFound)
		} else {
			a.l.Error("failed to get thread", zap.Uint("id", id), zap.Error(err))
			return a.er(c, http.StatusInternalServerError)
		}
	}

	// 回复时父评论必须存在，且属于同一个帖子
	if req.ParentID != nil {
		var parent models.Comment
		if err := a.db.WithContext(rctx).First(&parent, "id = ?", *req.ParentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return a.er(c, http.StatusNotFound)
			} else {
				a.l.Error("failed to get parent comment", zap.Uint("id", *req.ParentID), zap.Error(err))
				return a.er(c, http.StatusInternalServerError)
			}
		}
		if parent.ThreadID != id {
			return a.er(c, http.StatusBadRequest)
		}
	}

	// 创建评论并发放积分。评论积分只发这一次，删除不收回
	comment := models.Comment{
		Content:         *req.Content,
		UserID:          jwtUser.ID,
		ThreadID:        id,
		ParentCommentID: req.ParentID,
	}
	if err := a.db.WithContext(rctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&comment).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", jwtUser.ID).
			Update("points", gorm.Expr("points + ?", constants.PointsCommentCreate)).Error
	}); err != nil {
		a.l.Error("failed to create comment", zap.Uint("user", jwtUser.ID), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	if err := a.db.WithContext(rctx).First(&comment.User, "id = ?", jwtUser.ID).Error; err != nil {
		a.l.Error("failed to get user", zap.Uint("id", jwtUser.ID), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	info, err := a.commentInfo(rctx, &comment)
	if err != nil {
		a.l.Error("failed to build comment info", zap.Uint("id", comment.ID), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	return c.JSON(http.StatusCreated, info)
}

func (a *App) CommentInfoUpdate(c echo.Context, id uint) error {
	// 抓取 user 信息（认证）
	jwtUser, err, statusCode := a.authUser(c, constants.RoleUser, nil)
	if err != nil {
		a.l.Error("failed to auth", zap.Error(err))
		return a.er(c, statusCode)
	}

	rctx := c.Request().Context()

	// 绑定请求体
	var req types.CommentInput
	if err = c.Bind(&req); err != nil {
		a.l.Error("failed to bind request", zap.Error(err))
		return a.er(c, http.StatusBadRequest)
	}
	if req.Content == nil || *req.Content == "" {
		return a.er(c, http.StatusBadRequest)
	}

	// 从数据库中获得指定的评论
	var comment models.Comment
	if err := a.db.WithContext(rctx).Preload("User").First(&comment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return a.er(c, http.StatusNotFound)
		} else {
			a.l.Error("failed to get comment", zap.Uint("id", id), zap.Error(err))
			return a.er(c, http.StatusInternalServerError)
		}
	}

	// 作者本人或版主以上
	if !canModify(jwtUser, comment.UserID) {
		return a.er(c, http.StatusForbidden)
	}

	// 更新评论内容
	if err := a.db.WithContext(rctx).Model(&comment).Update("content", *req.Content).Error; err != nil {
		a.l.Error("failed to update comment", zap.Uint("id", id), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	info, err := a.commentInfo(rctx, &comment)
	if err != nil {
		a.l.Error("failed to build comment info", zap.Uint("id", id), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	return c.JSON(http.StatusOK, info)
}

func (a *App) CommentDelete(c echo.Context, id uint) error {
	// 抓取 user 信息（认证）
	jwtUser, err, statusCode := a.authUser(c, constants.RoleUser, nil)
	if err != nil {
		a.l.Error("failed to auth", zap.Error(err))
		return a.er(c, statusCode)
	}

	rctx := c.Request().Context()

	var comment models.Comment
	if err := a.db.WithContext(rctx).First(&comment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return a.er(c, http.StatusNotFound)
		} else {
			a.l.Error("failed to get comment", zap.Uint("id", id), zap.Error(err))
			return a.er(c, http.StatusInternalServerError)
		}
	}

	if !canModify(jwtUser, comment.UserID) {
		return a.er(c, http.StatusForbidden)
	}

	// 删除评论。发评论时的积分不收回
	if err := a.db.WithContext(rctx).Delete(&models.Comment{}, id).Error; err != nil {
		a.l.Error("failed to delete comment", zap.Uint("id", id), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	return c.NoContent(http.StatusOK)
}

func (a *App) CommentLikeCreate(c echo.Context, id uint) error {
	// 抓取 user 信息（认证）
	jwtUser, err, statusCode := a.authUser(c, constants.RoleUser, nil)
	if err != nil {
		a.l.Error("failed to auth", zap.Error(err))
		return a.er(c, statusCode)
	}

	rctx := c.Request().Context()

	// 点赞目标必须存在，同时拿到作者
	var comment models.Comment
	if err := a.db.WithContext(rctx).First(&comment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return a.er(c, http.StatusNotFound)
		} else {
			a.l.Error("failed to get comment", zap.Uint("id", id), zap.Error(err))
			return a.er(c, http.StatusInternalServerError)
		}
	}

	// 只有真正插入了点赞边才给作者加分，重复点赞是无操作
	if err := a.db.WithContext(rctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.CommentLike{}).
			Where("user_id = ? AND comment_id = ?", jwtUser.ID, id).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		if err := tx.Create(&models.CommentLike{
			UserID:    jwtUser.ID,
			CommentID: id,
		}).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil
			}
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", comment.UserID).
			Update("points", gorm.Expr("points + ?", constants.PointsContentLike)).Error
	}); err != nil {
		a.l.Error("failed to like comment", zap.Uint("user", jwtUser.ID), zap.Uint("comment", id), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	return c.NoContent(http.StatusOK)
}

func (a *App) CommentLikeDelete(c echo.Context, id uint) error {
	// 抓取 user 信息（认证）
	jwtUser, err, statusCode := a.authUser(c, constants.RoleUser, nil)
	if err != nil {
		a.l.Error("failed to auth", zap.Error(err))
		return a.er(c, statusCode)
	}

	rctx := c.Request().Context()

	var comment models.Comment
	if err := a.db.WithContext(rctx).First(&comment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return a.er(c, http.StatusNotFound)
		} else {
			a.l.Error("failed to get comment", zap.Uint("id", id), zap.Error(err))
			return a.er(c, http.StatusInternalServerError)
		}
	}

	// 只有真正删掉了点赞边才扣作者的分，保证和点赞严格互逆
	if err := a.db.WithContext(rctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND comment_id = ?", jwtUser.ID, id).
			Delete(&models.CommentLike{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		return tx.Model(&models.User{}).Where("id = ?", comment.UserID).
			Update("points", gorm.Expr("points - ?", constants.PointsContentLike)).Error
	}); err != nil {
		a.l.Error("failed to unlike comment", zap.Uint("user", jwtUser.ID), zap.Uint("comment", id), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	return c.NoContent(http.StatusOK)
}
