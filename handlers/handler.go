package handlers

import (
	"errors"

	"friendbox/errs"
	"friendbox/social"
	"friendbox/store"
	"friendbox/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler serves the HTTP API on top of a social.Service.
type Handler struct {
	social   *social.Service
	accounts store.Accounts
	tokens   *utils.TokenManager
	log      *zap.Logger
}

func New(svc *social.Service, accounts store.Accounts, tokens *utils.TokenManager, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		social:   svc,
		accounts: accounts,
		tokens:   tokens,
		log:      log.Named("http"),
	}
}

// respondError maps a domain error kind to its HTTP status.
func (h *Handler) respondError(c *gin.Context, err error) {
	switch errs.KindOf(err) {
	case errs.KindInvalidTransition, errs.KindValidation:
		utils.BadRequest(c, publicMessage(err))
	case errs.KindStaleRequest:
		utils.Conflict(c, publicMessage(err))
	case errs.KindNotFriends:
		utils.Forbidden(c, publicMessage(err))
	case errs.KindTargetNotFound, errs.KindEdgeNotFound:
		utils.NotFound(c, publicMessage(err))
	case errs.KindUnauthorized:
		utils.Unauthorized(c, publicMessage(err))
	default:
		h.log.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
		utils.InternalError(c, "internal server error")
	}
}

func publicMessage(err error) string {
	var base *errs.BaseError
	if errors.As(err, &base) {
		return base.Message
	}
	return err.Error()
}

// withWarning adds the partial-write warning to a response body, if any.
func withWarning(body gin.H, partial *errs.PartialWriteFailure) gin.H {
	if partial != nil {
		body["warning"] = partial.Error()
	}
	return body
}
