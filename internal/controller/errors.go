package controller

import (
	"errors"
	"net/http"

	"english_edu_dashboard/internal/apiclient"
	"english_edu_dashboard/internal/auth"
	"english_edu_dashboard/internal/exam"
	"english_edu_dashboard/internal/service"
	"english_edu_dashboard/internal/store"
	"english_edu_dashboard/internal/util"

	"github.com/gin-gonic/gin"
)

// respondError maps domain and backend errors onto the response envelope.
func respondError(ctx *gin.Context, err error) {
	var apiErr *apiclient.APIError
	var transportErr *apiclient.TransportError

	switch {
	case errors.Is(err, exam.ErrBusy), errors.Is(err, store.ErrBusy):
		util.Conflict(ctx, err.Error())
	case errors.Is(err, exam.ErrNotInExam), errors.Is(err, exam.ErrStaleResponse), errors.Is(err, store.ErrStale):
		util.Conflict(ctx, err.Error())
	case errors.Is(err, exam.ErrNoAnswers),
		errors.Is(err, exam.ErrUnknownQuestion),
		errors.Is(err, exam.ErrUnknownOption),
		errors.Is(err, exam.ErrWrongAnswerKind),
		errors.Is(err, exam.ErrPageOutOfRange),
		errors.Is(err, store.ErrInvalidInput),
		errors.Is(err, util.ErrInvalidID),
		errors.Is(err, util.ErrMissingAnswer),
		errors.Is(err, util.ErrMissingToken):
		util.BadRequest(ctx, err.Error())
	case errors.Is(err, service.ErrTokenExpired),
		errors.Is(err, service.ErrUnknownSession),
		errors.Is(err, service.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenNotFound),
		errors.Is(err, auth.ErrNoSubject),
		errors.Is(err, exam.ErrSessionClosed):
		util.Error(ctx, http.StatusUnauthorized, err.Error())
	case errors.As(err, &apiErr):
		if apiErr.Status == http.StatusUnauthorized {
			util.Error(ctx, http.StatusUnauthorized, apiErr.Message)
			return
		}
		util.BadGateway(ctx, apiErr.Message)
	case errors.As(err, &transportErr):
		util.BadGateway(ctx, apiclient.MessageOf(err))
	default:
		util.LogInternalError(ctx, err)
	}
}

func pathID(ctx *gin.Context, name string) (uint, bool) {
	id, err := util.ParseID(ctx.Param(name))
	if err != nil {
		respondError(ctx, err)
		return 0, false
	}
	return id, true
}
