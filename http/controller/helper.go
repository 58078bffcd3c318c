package controller

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/tnqbao/gau-drive-service/provider"
	"github.com/tnqbao/gau-drive-service/utils"
)

// respondProviderError maps provider sentinel errors onto HTTP statuses.
func respondProviderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, provider.ErrNotFound):
		utils.JSON404(c, err.Error())
	case errors.Is(err, provider.ErrInvalidArgument), errors.Is(err, provider.ErrArchiveNotReady):
		utils.JSON400(c, err.Error())
	case errors.Is(err, provider.ErrPermissionDenied):
		utils.JSON403(c, err.Error())
	default:
		utils.JSON500(c, "Internal server error")
	}
}
