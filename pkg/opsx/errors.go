package opsx

import (
	"net/http"

	"github.com/Abraxas-365/slotx/pkg/errx"
)

var opsErrors = errx.NewRegistry("OPSX")

var (
	ErrInvalidArgs = opsErrors.Register("INVALID_ARGS", errx.TypeValidation, http.StatusBadRequest, "Invalid operation arguments")
	ErrEchoFailed  = opsErrors.Register("ECHO_FAILED", errx.TypeOperation, http.StatusUnprocessableEntity, "Echo failed as requested")
	ErrSearch      = opsErrors.Register("SEARCH", errx.TypeExternal, http.StatusBadGateway, "Search query failed")
)
