package middleware

import (
	"errors"
	"fmt"
	"strings"

	"bitwise74/rental-api/internal/apierr"
	"bitwise74/rental-api/internal/service"
	"bitwise74/rental-api/internal/store"

	"github.com/gin-gonic/gin"
)

type TokenVerifier interface {
	Verify(token string) (*service.Claims, error)
}

// Authenticate requires "Authorization: Bearer <token>" and stores the
// verified claims on the context
func Authenticate(tv TokenVerifier) Guard {
	return func(c *gin.Context) error {
		scheme, token, ok := strings.Cut(c.GetHeader("Authorization"), " ")
		if !ok || scheme != "Bearer" || strings.TrimSpace(token) == "" {
			return apierr.Unauthenticated("Not authorized, no token provided")
		}

		claims, err := tv.Verify(strings.TrimSpace(token))
		if err != nil {
			if errors.Is(err, service.ErrTokenExpired) {
				return apierr.Wrap(apierr.KindUnauthenticated, "Token expired", err)
			}
			return apierr.Wrap(apierr.KindUnauthenticated, "Invalid token", err)
		}

		c.Set(keyClaims, claims)
		c.Set(keyUserID, claims.ID)
		return nil
	}
}

// IsAdmin reports whether the caller is an admin according to the token OR
// the current user record. The record is only fetched when the token says
// no, and the answer is memoized on the context
func IsAdmin(c *gin.Context, users store.UserStore) (bool, error) {
	if v, ok := c.Get(keyIsAdmin); ok {
		return v.(bool), nil
	}

	claims := Claims(c)
	if claims.IsAdmin {
		c.Set(keyIsAdmin, true)
		return true, nil
	}

	u, err := users.UserByID(c.Request.Context(), claims.ID)
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, store.ErrInvalidID):
		// a deleted caller is just not an admin
		c.Set(keyIsAdmin, false)
		return false, nil
	case err != nil:
		return false, fmt.Errorf("failed to look up caller, %w", err)
	}

	c.Set(keyIsAdmin, u.IsAdmin)
	return u.IsAdmin, nil
}

func RequireAdmin(users store.UserStore) Guard {
	return func(c *gin.Context) error {
		ok, err := IsAdmin(c, users)
		if err != nil {
			return err
		}

		if !ok {
			return apierr.Forbidden("Access denied. Admin privileges required.")
		}

		return nil
	}
}

// RequireItemOwner loads the item named by :id and lets the owner or an admin
// through. The loaded item is attached to the context
func RequireItemOwner(items store.ItemStore, users store.UserStore) Guard {
	return func(c *gin.Context) error {
		id := c.Param("id")
		if !store.ValidID(id) {
			return apierr.BadRequest("Invalid item ID")
		}

		item, err := items.ItemByID(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return apierr.NotFound("Item not found")
			}
			return err
		}

		if item.OwnerID != Claims(c).ID {
			admin, err := IsAdmin(c, users)
			if err != nil {
				return err
			}

			if !admin {
				return apierr.Forbidden("You can only perform this action on your own items")
			}
		}

		c.Set(keyItem, item)
		return nil
	}
}

// ItemQuota rejects the request once the caller owns maxItems items. The count and
// the following insert aren't atomic, two parallel creates can both pass
func ItemQuota(items store.ItemStore, maxItems int64) Guard {
	return func(c *gin.Context) error {
		n, err := items.CountByOwner(c.Request.Context(), Claims(c).ID)
		if err != nil {
			return fmt.Errorf("failed to count items, %w", err)
		}

		if n >= maxItems {
			return apierr.BadRequest(fmt.Sprintf(
				"You can only post maximum %d items. Current items: %d. Please delete some items to add new ones.", maxItems, n))
		}

		c.Set(keyItemLimit, ItemLimit{
			CurrentItems: n,
			MaxItems:     maxItems,
			Remaining:    maxItems - n,
		})
		return nil
	}
}
