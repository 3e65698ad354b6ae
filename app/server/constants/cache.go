package constants

import "time"

const (
	CacheKeyCategoryInfo = "fn:category:info:%d"
	CacheKeyTopUsers     = "fn:users:top"
)

const (
	CacheExpireCategoryInfo = 1 * time.Hour
	CacheExpireTopUsers     = 5 * time.Minute
)
