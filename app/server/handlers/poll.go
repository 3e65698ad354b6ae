package handlers

import (
	"context"
	"errors"
	"fan-nation/app/server/constants"
	"fan-nation/app/server/models"
	"fan-nation/app/server/types"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const pollDefaultDuration = 7 * 24 * time.Hour // 不指定截止时间时的默认投票时长

// 构建投票的展示结构。每个选项的票数都是实时 count 出来的，
// 不在任何地方冗余存储，读的开销换一致性
func (a *App) pollInfo(rctx context.Context, poll *models.Poll) (*types.PollInfo, error) {
	info := &types.PollInfo{
		ID:           poll.ID,
		Question:     poll.Question,
		AuthorID:     poll.UserID,
		AuthorName:   poll.User.Username,
		CategoryID:   poll.CategoryID,
		CategoryName: poll.Category.Name,
		Options:      []types.PollOptionInfo{},
		ExpiresAt:    poll.ExpiresAt,
		CreatedAt:    poll.CreatedAt,
	}

	var options []models.PollOption
	if err := a.db.WithContext(rctx).
		Where("poll_id = ?", poll.ID).
		Order("id ASC").
		Find(&options).Error; err != nil {
		return nil, err
	}

	for _, option := range options {
		var votes int64
		if err := a.db.WithContext(rctx).Model(&models.PollVote{}).
			Where("option_id = ?", option.ID).Count(&votes).Error; err != nil {
			return nil, err
		}
		info.Options = append(info.Options, types.PollOptionInfo{
			ID:    option.ID,
			Text:  option.Text,
			Votes: votes,
		})
		info.TotalVotes += votes
	}

	return info, nil
}

func (a *App) pollList(c echo.Context, where string, args ...any) error {
	rctx := c.Request().Context()

	var (
		polls      []models.Poll
		pollsCount int64
	)

	showAll, page, limit := a.parsePagination(c)
	queryBase := a.db.WithContext(rctx).Model(&models.Poll{}).
		Preload("User").Preload("Category").
		Order("created_at DESC")
	countBase := a.db.WithContext(rctx).Model(&models.Poll{})
	if where != "" {
		queryBase = queryBase.Where(where, args...)
		countBase = countBase.Where(where, args...)
	}
	if !showAll {
		queryBase = queryBase.Limit(limit).Offset(page * limit)
	}

	if err := queryBase.Find(&polls).Error; err != nil {
		a.l.Error("failed to get poll list", zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}
	if err := countBase.Count(&pollsCount).Error; err != nil {
		a.l.Error("failed to count poll", zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	resPolls := []types.PollInfo{}
	for _, poll := range polls {
		info, err := a.pollInfo(rctx, &poll)
		if err != nil {
			a.l.Error("failed to build poll info", zap.Uint("id", poll.ID), zap.Error(err))
			return a.er(c, http.StatusInternalServerError)
		}
		resPolls = append(resPolls, *info)
	}

	return c.JSON(http.StatusOK, &types.PollListResponse{
		Limit:   limit,
		PageMax: a.calcMaxPage(pollsCount, showAll, limit),
		List:    resPolls,
	})
}

func (a *App) PollList(c echo.Context) error {
	return a.pollList(c, "")
}

func (a *App) PollListActive(c echo.Context) error {
	return a.pollList(c, "expires_at > ?", time.Now())
}

func (a *App) PollListByCategory(c echo.Context, id uint) error {
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

	return a.pollList(c, "category_id = ?", id)
}

func (a *App) PollCreate(c echo.Context) error {
	// 抓取 user 信息（认证）
	jwtUser, err, statusCode := a.authUser(c, constants.RoleUser, nil)
	if err != nil {
		a.l.Error("failed to auth", zap.Error(err))
		return a.er(c, statusCode)
	}

	rctx := c.Request().Context()

	// 绑定请求体
	var req types.PollInput
	if err = c.Bind(&req); err != nil {
		a.l.Error("failed to bind request", zap.Error(err))
		return a.er(c, http.StatusBadRequest)
	}
	// 至少要有两个选项才构成投票
	if req.Question == nil || *req.Question == "" || req.CategoryID == nil || len(req.Options) < 2 {
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

	expiresAt := time.Now().Add(pollDefaultDuration)
	if req.ExpiresAt != nil {
		expiresAt = *req.ExpiresAt
	}

	// 创建投票、选项并发放积分。发起投票的积分只发这一次，删除不收回
	poll := models.Poll{
		Question:   *req.Question,
		ExpiresAt:  expiresAt,
		UserID:     jwtUser.ID,
		CategoryID: *req.CategoryID,
	}
	if err := a.db.WithContext(rctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&poll).Error; err != nil {
			return err
		}
		for _, text := range req.Options {
			if err := tx.Create(&models.PollOption{
				Text:   text,
				PollID: poll.ID,
			}).Error; err != nil {
				return err
			}
		}
		return tx.Model(&models.User{}).Where("id = ?", jwtUser.ID).
			Update("points", gorm.Expr("points + ?", constants.PointsPollCreate)).Error
	}); err != nil {
		a.l.Error("failed to create poll", zap.Uint("user", jwtUser.ID), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	poll.Category = category
	if err := a.db.WithContext(rctx).First(&poll.User, "id = ?", jwtUser.ID).Error; err != nil {
		a.l.Error("failed to get user", zap.Uint("id", jwtUser.ID), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	info, err := a.pollInfo(rctx, &poll)
	if err != nil {
		a.l.Error("failed to build poll info", zap.Uint("id", poll.ID), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	return c.JSON(http.StatusCreated, info)
}

func (a *App) PollInfoGet(c echo.Context, id uint) error {
	rctx := c.Request().Context()

	// 从数据库中获得指定的投票
	var poll models.Poll
	if err := a.db.WithContext(rctx).Preload("User").Preload("Category").
		First(&poll, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return a.er(c, http.StatusNotFound)
		} else {
			a.l.Error("failed to get poll", zap.Uint("id", id), zap.Error(err))
			return a.er(c, http.StatusInternalServerError)
		}
	}

	info, err := a.pollInfo(rctx, &poll)
	if err != nil {
		a.l.Error("failed to build poll info", zap.Uint("id", id), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	return c.JSON(http.StatusOK, info)
}

func (a *App) PollDelete(c echo.Context, id uint) error {
	// 抓取 user 信息（认证）
	jwtUser, err, statusCode := a.authUser(c, constants.RoleUser, nil)
	if err != nil {
		a.l.Error("failed to auth", zap.Error(err))
		return a.er(c, statusCode)
	}

	rctx := c.Request().Context()

	var poll models.Poll
	if err := a.db.WithContext(rctx).First(&poll, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return a.er(c, http.StatusNotFound)
		} else {
			a.l.Error("failed to get poll", zap.Uint("id", id), zap.Error(err))
			return a.er(c, http.StatusInternalServerError)
		}
	}

	if !canModify(jwtUser, poll.UserID) {
		return a.er(c, http.StatusForbidden)
	}

	// 删除投票。发起时的积分不收回
	if err := a.db.WithContext(rctx).Delete(&models.Poll{}, id).Error; err != nil {
		a.l.Error("failed to delete poll", zap.Uint("id", id), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	return c.NoContent(http.StatusOK)
}

func (a *App) PollVoteCreate(c echo.Context, id uint) error {
	// 抓取 user 信息（认证）
	jwtUser, err, statusCode := a.authUser(c, constants.RoleUser, nil)
	if err != nil {
		a.l.Error("failed to auth", zap.Error(err))
		return a.er(c, statusCode)
	}

	rctx := c.Request().Context()

	// 选项和所属投票必须都能解析出来
	var option models.PollOption
	if err := a.db.WithContext(rctx).First(&option, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return a.er(c, http.StatusNotFound)
		} else {
			a.l.Error("failed to get poll option", zap.Uint("id", id), zap.Error(err))
			return a.er(c, http.StatusInternalServerError)
		}
	}

	var poll models.Poll
	if err := a.db.WithContext(rctx).Preload("User").Preload("Category").
		First(&poll, "id = ?", option.PollID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return a.er(c, http.StatusNotFound)
		} else {
			a.l.Error("failed to get poll", zap.Uint("id", option.PollID), zap.Error(err))
			return a.er(c, http.StatusInternalServerError)
		}
	}

	// 过了截止时间就不再接受投票，无论这个用户有没有投过
	if time.Now().After(poll.ExpiresAt) {
		return a.er(c, http.StatusGone)
	}

	// 查重、落票在同一个事务里完成。唯一键是 (user, poll) 而不是
	// (user, option) ：换一个选项再投也要被拦下来，并发下由唯一索引兜底
	var alreadyVoted bool
	if err := a.db.WithContext(rctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.PollVote{}).
			Where("user_id = ? AND poll_id = ?", jwtUser.ID, poll.ID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			alreadyVoted = true
			return nil
		}
		if err := tx.Create(&models.PollVote{
			UserID:   jwtUser.ID,
			PollID:   poll.ID,
			OptionID: option.ID,
		}).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				alreadyVoted = true
				return nil
			}
			return err
		}
		return nil
	}); err != nil {
		a.l.Error("failed to vote", zap.Uint("user", jwtUser.ID), zap.Uint("option", id), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}
	if alreadyVoted {
		return a.er(c, http.StatusConflict)
	}

	// 返回最新的计票结果
	info, err := a.pollInfo(rctx, &poll)
	if err != nil {
		a.l.Error("failed to build poll info", zap.Uint("id", poll.ID), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	return c.JSON(http.StatusOK, info)
}
