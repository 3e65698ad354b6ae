package inits

import (
	"fan-nation/app/server/constants"
	"fan-nation/app/server/models"
	"fmt"

	"github.com/alexedwards/argon2id"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func DB(conn string) (db *gorm.DB, err error) {
	// 打开连接，开启错误翻译以便识别唯一索引冲突
	if db, err = gorm.Open(postgres.Open(conn), &gorm.Config{
		TranslateError: true,
	}); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// 迁移
	if err = mig(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	// 初始化启动数据
	if err = initData(db); err != nil {
		return nil, fmt.Errorf("failed to init data into database: %w", err)
	}

	// 返回
	return db, nil
}

func mig(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.AuthLog{},
		&models.Category{},
		&models.Thread{},
		&models.Comment{},
		&models.Poll{},
		&models.PollOption{},
		&models.PollVote{},
		&models.UserFollow{},
		&models.CategoryFollow{},
		&models.ThreadLike{},
		&models.CommentLike{},
	)
}

func initData(db *gorm.DB) (err error) {
	// 查询现有记录数量
	var counter int64

	// 初始化用户
	if err = db.Model(&models.User{}).Count(&counter).Error; err != nil {
		return fmt.Errorf("failed to get user count: %w", err)
	} else if counter == 0 { // 没有任何用户，添加初始管理员
		// 创建密码
		var password string
		if password, err = argon2id.CreateHash("password", argon2id.DefaultParams); err != nil {
			return fmt.Errorf("failed to generate password: %w", err)
		}

		// 插入记录
		if err = db.Create(&models.User{
			Username: "admin",
			Email:    "admin@fan-nation.local",
			Role:     constants.RoleAdmin,
			Password: password,
		}).Error; err != nil {
			return fmt.Errorf("failed to create admin user: %w", err)
		}
	}

	// 初始化分类
	if err = db.Model(&models.Category{}).Count(&counter).Error; err != nil {
		return fmt.Errorf("failed to get category count: %w", err)
	} else if counter == 0 { // 没有任何分类，添加初始体育分类
		// 插入记录
		if err = db.Create([]*models.Category{
			{Name: "Football", Description: "足球相关的讨论"},
			{Name: "Basketball", Description: "篮球相关的讨论"},
			{Name: "Cricket", Description: "板球相关的讨论"},
			{Name: "Tennis", Description: "网球相关的讨论"},
			{Name: "Formula 1", Description: "F1 赛事相关的讨论"},
		}).Error; err != nil {
			return fmt.Errorf("failed to create initial categories: %w", err)
		}
	}

	// 已有数据或全部导入成功
	return nil
}
