package middleware

import (
	"bitwise74/rental-api/internal/model"
	"bitwise74/rental-api/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	keyRequestID = "requestID"
	keyUserID    = "userID"
	keyClaims    = "claims"
	keyItem      = "item"
	keyItemLimit = "itemLimit"
	keyIsAdmin   = "isAdmin"
)

// ItemLimit is what ItemQuota found when it let the request through
type ItemLimit struct {
	CurrentItems int64 `json:"currentItems"`
	MaxItems     int64 `json:"maxItems"`
	Remaining    int64 `json:"remaining"`
}

// Claims returns the caller set by Authenticate. Panics on routes without it
func Claims(c *gin.Context) *service.Claims {
	return c.MustGet(keyClaims).(*service.Claims)
}

// Item returns the item attached by RequireItemOwner
func Item(c *gin.Context) *model.Item {
	return c.MustGet(keyItem).(*model.Item)
}

func Limit(c *gin.Context) ItemLimit {
	return c.MustGet(keyItemLimit).(ItemLimit)
}
