package jwt

import (
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestNewRequiresKey(t *testing.T) {
	_, err := New("")
	require.Error(t, err)

	j, err := New("secret")
	require.NoError(t, err)
	require.NotNil(t, j)
}

func TestSignAndParse(t *testing.T) {
	j, err := New("secret")
	require.NoError(t, err)

	expires := time.Now().Add(time.Hour).Unix()
	token, err := j.SignToken(&User{
		ID:       42,
		Username: "alice",
		Role:     "moderator",
		Expires:  expires,
	})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	parsed, err := j.ParseUser(token)
	require.NoError(t, err)
	require.Equal(t, uint(42), parsed.ID)
	require.Equal(t, "alice", parsed.Username)
	require.Equal(t, "moderator", parsed.Role)
	require.Equal(t, expires, parsed.Expires)
}

func TestParseExpired(t *testing.T) {
	j, err := New("secret")
	require.NoError(t, err)

	// 已经过期的令牌必须解析失败
	token, err := j.SignToken(&User{
		ID:       1,
		Username: "alice",
		Role:     "user",
		Expires:  time.Now().Add(-time.Hour).Unix(),
	})
	require.NoError(t, err)

	_, err = j.ParseUser(token)
	require.Error(t, err)
}

func TestParseWrongKey(t *testing.T) {
	j1, err := New("secret-one")
	require.NoError(t, err)
	j2, err := New("secret-two")
	require.NoError(t, err)

	token, err := j1.SignToken(&User{
		ID:       1,
		Username: "alice",
		Role:     "user",
		Expires:  time.Now().Add(time.Hour).Unix(),
	})
	require.NoError(t, err)

	_, err = j2.ParseUser(token)
	require.Error(t, err)
}

func TestParseGarbage(t *testing.T) {
	j, err := New("secret")
	require.NoError(t, err)

	_, err = j.ParseUser("")
	require.Error(t, err)

	_, err = j.ParseUser("not-a-jwt")
	require.Error(t, err)
}

func TestParseMissingClaims(t *testing.T) {
	j, err := New("secret")
	require.NoError(t, err)

	// 签名正确但声明不完整的令牌必须返回错误而不是崩溃
	cases := []gojwt.MapClaims{
		{"exp": time.Now().Add(time.Hour).Unix()},                                            // 只有过期时间
		{"name": "alice", "role": "user", "exp": time.Now().Add(time.Hour).Unix()},           // 缺 id
		{"id": 1, "name": "alice", "role": "user"},                                           // 缺 exp
		{"id": "1", "name": "alice", "role": "user", "exp": time.Now().Add(time.Hour).Unix()}, // id 类型不对
	}

	for _, claims := range cases {
		token, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
		require.NoError(t, err)

		_, err = j.ParseUser(token)
		require.Error(t, err)
	}
}

func TestTokensDiffer(t *testing.T) {
	j, err := New("secret")
	require.NoError(t, err)

	user := &User{ID: 1, Username: "alice", Role: "user", Expires: time.Now().Add(time.Hour).Unix()}

	// jti 保证同一用户两次签发的令牌不同
	t1, err := j.SignToken(user)
	require.NoError(t, err)
	t2, err := j.SignToken(user)
	require.NoError(t, err)
	require.NotEqual(t, t1, t2)
}
