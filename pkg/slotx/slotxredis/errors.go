package slotxredis

import "github.com/Abraxas-365/slotx/pkg/errx"

var redisErrors = errx.NewRegistry("SLOTX_REDIS")

var (
	ErrPublish   = redisErrors.Register("PUBLISH", errx.TypeExternal, 500, "Redis publish failed")
	ErrGet       = redisErrors.Register("GET_STATE", errx.TypeExternal, 500, "Redis get state failed")
	ErrSubscribe = redisErrors.Register("SUBSCRIBE", errx.TypeExternal, 500, "Redis subscribe failed")
	ErrNotFound  = redisErrors.Register("NOT_FOUND", errx.TypeNotFound, 404, "Slot state not found in Redis")
	ErrMarshal   = redisErrors.Register("MARSHAL", errx.TypeInternal, 500, "Failed to marshal slot snapshot")
	ErrUnmarshal = redisErrors.Register("UNMARSHAL", errx.TypeInternal, 500, "Failed to unmarshal slot snapshot")
)
