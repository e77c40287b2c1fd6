package internal

import (
	"bitwise74/rental-api/internal/service"
	"bitwise74/rental-api/internal/store"
	"bitwise74/rental-api/pkg/security"
)

type Deps struct {
	Store    store.Store
	Argon    *security.ArgonHash
	Tokens   *service.TokenService
	Verifier *service.Verifier
	// nil when image storage is disabled
	Images   service.Images
	MaxItems int64
}
