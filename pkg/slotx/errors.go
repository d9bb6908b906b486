package slotx

import (
	"net/http"

	"github.com/Abraxas-365/slotx/pkg/errx"
)

var slotxErrors = errx.NewRegistry("SLOTX")

var (
	ErrNoOperation       = slotxErrors.Register("NO_OPERATION", errx.TypeOperation, http.StatusUnprocessableEntity, "No operation is bound to the slot")
	ErrOperationPanicked = slotxErrors.Register("OPERATION_PANICKED", errx.TypeOperation, http.StatusUnprocessableEntity, "Operation panicked")
	ErrEncodeSnapshot    = slotxErrors.Register("ENCODE_SNAPSHOT", errx.TypeInternal, http.StatusInternalServerError, "Failed to encode slot snapshot")
)
