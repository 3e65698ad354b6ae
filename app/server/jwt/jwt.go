package jwt

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type JWT struct {
	key []byte
}

type User struct {
	ID       uint
	Username string
	Role     string
	Expires  int64 // Unix second
}

func New(key string) (*JWT, error) {
	if len(key) == 0 {
		return nil, errors.New("key is empty")
	}

	return &JWT{key: []byte(key)}, nil
}

func (j *JWT) ParseUser(tokenString string) (*User, error) {
	// 检查是否有效
	if len(tokenString) == 0 {
		return nil, errors.New("token string is empty")
	}

	// 映射字段
	user := &User{}
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return j.key, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse jwt failed: %w", err)
	}

	// 匹配内容。声明缺失或类型不对的令牌一律按无效处理
	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		id, idOk := claims["id"].(float64)
		name, nameOk := claims["name"].(string)
		role, roleOk := claims["role"].(string)
		exp, expOk := claims["exp"].(float64)
		if !idOk || !nameOk || !roleOk || !expOk {
			return nil, fmt.Errorf("invalid token")
		}
		user.ID = uint(id)
		user.Username = name
		user.Role = role
		user.Expires = int64(exp)
	} else {
		return nil, fmt.Errorf("invalid token")
	}

	return user, nil
}

func (j *JWT) SignToken(user *User) (string, error) {
	// 创建声明， jti 保证每次签发的令牌都不同
	claims := jwt.MapClaims{
		"id":   user.ID,
		"name": user.Username,
		"role": user.Role,
		"jti":  uuid.NewString(),
		"exp":  user.Expires,
	}

	// 创建令牌
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	// 签名并返回
	return token.SignedString(j.key)
}
