package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/wager-daemon/internal/core/application"
	"github.com/tdex-network/wager-daemon/internal/core/domain"
	"github.com/tdex-network/wager-daemon/internal/infrastructure/oracle/manual"
	"github.com/tdex-network/wager-daemon/internal/infrastructure/oracle/optimistic"
	"github.com/tdex-network/wager-daemon/internal/infrastructure/oracle/pricethreshold"
	webhookpubsub "github.com/tdex-network/wager-daemon/internal/infrastructure/pubsub/webhook"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error    string `json:"error"`
	Category string `json:"category,omitempty"`
}

var errorStatuses = []struct {
	err    error
	status int
}{
	{domain.ErrAcceptanceDeadlineNotReached, http.StatusTooEarly},
	{domain.ErrChallengePeriodNotOver, http.StatusTooEarly},
	{domain.ErrConditionNotResolved, http.StatusFailedDependency},
	{domain.ErrOracleConfidenceTooLow, http.StatusFailedDependency},
	{application.ErrReentrantCall, http.StatusConflict},
	{application.ErrPubSubNotInitialized, http.StatusServiceUnavailable},

	{webhookpubsub.ErrUnknownWebhookAction, http.StatusBadRequest},
	{webhookpubsub.ErrInvalidEndpoint, http.StatusBadRequest},
	{webhookpubsub.ErrWebhookNotFound, http.StatusNotFound},

	{pricethreshold.ErrConditionNotFound, http.StatusNotFound},
	{pricethreshold.ErrConditionAlreadyExists, http.StatusConflict},
	{pricethreshold.ErrInvalidCondition, http.StatusBadRequest},
	{pricethreshold.ErrDeadlineNotReached, http.StatusTooEarly},
	{pricethreshold.ErrStalePrice, http.StatusFailedDependency},
	{pricethreshold.ErrPriceBeforeDeadline, http.StatusFailedDependency},

	{optimistic.ErrConditionNotFound, http.StatusNotFound},
	{optimistic.ErrConditionAlreadyExists, http.StatusConflict},
	{optimistic.ErrInvalidCondition, http.StatusBadRequest},
	{optimistic.ErrBondTooLow, http.StatusBadRequest},
	{optimistic.ErrAlreadyAsserted, http.StatusConflict},
	{optimistic.ErrNotAsserted, http.StatusConflict},
	{optimistic.ErrAlreadyDisputed, http.StatusConflict},
	{optimistic.ErrNotDisputed, http.StatusConflict},
	{optimistic.ErrAlreadySettled, http.StatusConflict},
	{optimistic.ErrLivenessOver, http.StatusConflict},
	{optimistic.ErrLivenessNotOver, http.StatusTooEarly},
	{optimistic.ErrSelfDispute, http.StatusForbidden},

	{manual.ErrConditionNotFound, http.StatusNotFound},
	{manual.ErrConditionAlreadyExists, http.StatusConflict},
	{manual.ErrInvalidCondition, http.StatusBadRequest},
	{manual.ErrNotAttester, http.StatusForbidden},
	{manual.ErrAlreadyAttested, http.StatusConflict},
	{manual.ErrConditionResolved, http.StatusConflict},
}

var categoryStatuses = map[domain.ErrorCategory]int{
	domain.CategoryAuthorization: http.StatusForbidden,
	domain.CategoryTemporal:      http.StatusConflict,
	domain.CategoryState:         http.StatusConflict,
	domain.CategoryValue:         http.StatusBadRequest,
	domain.CategoryExternal:      http.StatusBadGateway,
	domain.CategoryNotFound:      http.StatusNotFound,
}

// StatusOf returns the http status code for the given error.
func StatusOf(err error) int {
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	if status, ok := categoryStatuses[domain.CategoryOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func writeError(c *gin.Context, err error) {
	status := StatusOf(err)
	resp := ErrorResponse{Error: err.Error()}
	if category := domain.CategoryOf(err); category != domain.CategoryUnknown {
		resp.Category = category.String()
	}
	if status >= http.StatusInternalServerError {
		log.WithError(err).Warnf("%s %s failed", c.Request.Method, c.FullPath())
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, resp)
}

func writeBadRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
}
