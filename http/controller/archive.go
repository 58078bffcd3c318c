package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tnqbao/gau-drive-service/entity"
	"github.com/tnqbao/gau-drive-service/utils"
)

// RequestFolderArchive accepts a folder-to-zip request and returns a request
// id for polling. The build itself runs in the background.
func (ctrl *Controller) RequestFolderArchive(c *gin.Context) {
	ctx := c.Request.Context()
	userID, err := utils.GetUserIDFromContext(c)
	if err != nil {
		utils.JSON401(c, "Unauthorized: "+err.Error())
		return
	}

	folderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.JSON400(c, "Invalid folder id format")
		return
	}

	requestID, err := ctrl.Provider.Archive.Request(ctx, folderID, userID)
	if err != nil {
		respondProviderError(c, err)
		return
	}

	ctrl.Infra.Logger.InfoWithContextf(ctx, "[Archive] User %s requested archive of folder %s: %s", userID, folderID, requestID)
	utils.JSON200(c, gin.H{"request_id": requestID})
}

func (ctrl *Controller) GetArchiveStatus(c *gin.Context) {
	requestID, err := uuid.Parse(c.Param("request_id"))
	if err != nil {
		utils.JSON400(c, "Invalid request id format")
		return
	}

	job, err := ctrl.Provider.Archive.Status(requestID)
	if err != nil {
		respondProviderError(c, err)
		return
	}

	body := gin.H{"status": job.Status}
	if job.Status == entity.ArchiveReady {
		body["download_url"] = "/api/v1/archives/" + requestID.String() + "/file"
	}
	utils.JSON200(c, body)
}

func (ctrl *Controller) DownloadArchive(c *gin.Context) {
	ctx := c.Request.Context()

	requestID, err := uuid.Parse(c.Param("request_id"))
	if err != nil {
		utils.JSON400(c, "Invalid request id format")
		return
	}

	job, reader, err := ctrl.Provider.Archive.Fetch(ctx, requestID)
	if err != nil {
		respondProviderError(c, err)
		return
	}
	defer reader.Close()

	c.DataFromReader(http.StatusOK, -1, "application/zip", reader, map[string]string{
		"Content-Disposition": `attachment; filename="` + job.RequestID.String() + `.zip"`,
	})
}
