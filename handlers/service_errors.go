package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/linkbay/linkbay-ai/services"
	"github.com/linkbay/linkbay-ai/services/orchestrator"
	"github.com/linkbay/linkbay-ai/utils"
)

// writeServiceError maps service-layer errors onto HTTP responses.
func (h *Handlers) writeServiceError(w http.ResponseWriter, err error) {
	var allFailed *orchestrator.AllProvidersFailedError
	if errors.As(err, &allFailed) {
		details := make(map[string]interface{}, len(allFailed.Failures))
		for _, f := range allFailed.Failures {
			details[f.Provider] = f.Err.Error()
		}
		utils.WriteBadGateway(w, "All providers failed", details)
		return
	}

	switch {
	case services.IsBudgetError(err):
		utils.WriteTooManyRequests(w, err.Error(), services.GetErrorDetails(err))
	case services.IsValidationError(err):
		utils.WriteBadRequest(w, err.Error(), services.GetErrorDetails(err))
	case services.IsNotFoundError(err):
		utils.WriteNotFound(w, err.Error())
	case services.IsToolError(err):
		utils.WriteJSON(w, http.StatusUnprocessableEntity, utils.ErrorResponse{
			Error:   string(services.GetErrorType(err)),
			Message: err.Error(),
			Details: services.GetErrorDetails(err),
		})
	default:
		h.logger.Error("unhandled service error", zap.Error(err))
		utils.WriteInternalServerError(w, "")
	}
}
