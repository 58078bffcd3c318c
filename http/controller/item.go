package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tnqbao/gau-drive-service/entity"
	"github.com/tnqbao/gau-drive-service/http/controller/dto"
	"github.com/tnqbao/gau-drive-service/utils"
)

func (ctrl *Controller) UploadFiles(c *gin.Context) {
	ctx := c.Request.Context()
	userID, err := utils.GetUserIDFromContext(c)
	if err != nil {
		utils.JSON401(c, "Unauthorized: "+err.Error())
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		utils.JSON400(c, "Failed to parse multipart form: "+err.Error())
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		utils.JSON400(c, "File is empty")
		return
	}

	var parentID *uuid.UUID
	if raw := c.PostForm("parent_id"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			utils.JSON400(c, "Invalid parent_id format")
			return
		}
		parentID = &parsed
	}

	items := make([]*entity.Item, 0, len(files))
	for _, fileHeader := range files {
		if fileHeader.Size == 0 {
			continue
		}

		src, err := fileHeader.Open()
		if err != nil {
			ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Item] Failed to open uploaded file %q", fileHeader.Filename)
			utils.JSON400(c, "Failed to read file: "+fileHeader.Filename)
			return
		}

		contentType := fileHeader.Header.Get("Content-Type")
		item, err := ctrl.Provider.Item.UploadFile(ctx, fileHeader.Filename, contentType, fileHeader.Size, src, parentID, userID)
		src.Close()
		if err != nil {
			ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Item] Failed to upload %q for user %s", fileHeader.Filename, userID)
			respondProviderError(c, err)
			return
		}
		items = append(items, item)
	}

	utils.JSON200(c, items)
}

func (ctrl *Controller) CreateFolder(c *gin.Context) {
	ctx := c.Request.Context()
	userID, err := utils.GetUserIDFromContext(c)
	if err != nil {
		utils.JSON401(c, "Unauthorized: "+err.Error())
		return
	}

	var req dto.CreateFolderRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSON400(c, "Invalid request: "+err.Error())
		return
	}

	folder, err := ctrl.Provider.Item.CreateFolder(ctx, req.Name, req.ParentID, userID)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Item] Failed to create folder %q for user %s", req.Name, userID)
		respondProviderError(c, err)
		return
	}

	utils.JSON201(c, folder)
}

func (ctrl *Controller) ListChildren(c *gin.Context) {
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

	children, err := ctrl.Provider.Item.ListChildren(ctx, folderID, userID)
	if err != nil {
		respondProviderError(c, err)
		return
	}

	utils.JSON200(c, children)
}

func (ctrl *Controller) DownloadFile(c *gin.Context) {
	ctx := c.Request.Context()
	userID, err := utils.GetUserIDFromContext(c)
	if err != nil {
		utils.JSON401(c, "Unauthorized: "+err.Error())
		return
	}

	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.JSON400(c, "Invalid item id format")
		return
	}

	item, reader, err := ctrl.Provider.Item.Download(ctx, itemID, userID)
	if err != nil {
		respondProviderError(c, err)
		return
	}
	defer reader.Close()

	contentType := item.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	c.DataFromReader(http.StatusOK, item.Size, contentType, reader, map[string]string{
		"Content-Disposition": `attachment; filename="` + item.Name + `"`,
	})
}

func (ctrl *Controller) ShareItem(c *gin.Context) {
	ctx := c.Request.Context()
	userID, err := utils.GetUserIDFromContext(c)
	if err != nil {
		utils.JSON401(c, "Unauthorized: "+err.Error())
		return
	}

	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.JSON400(c, "Invalid item id format")
		return
	}

	var req dto.ShareItemRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSON400(c, "Invalid request: "+err.Error())
		return
	}

	err = ctrl.Provider.Item.Share(ctx, itemID, userID, req.Email, entity.PermissionLevel(req.Level))
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Item] Failed to share item %s with %s", itemID, req.Email)
		respondProviderError(c, err)
		return
	}

	utils.JSON200(c, gin.H{"message": "Item shared successfully"})
}

func (ctrl *Controller) SharedWithMe(c *gin.Context) {
	ctx := c.Request.Context()
	userID, err := utils.GetUserIDFromContext(c)
	if err != nil {
		utils.JSON401(c, "Unauthorized: "+err.Error())
		return
	}

	shared, err := ctrl.Provider.Item.SharedWithMe(ctx, userID)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Item] Failed to list shared items for %s", userID)
		utils.JSON500(c, "Failed to list shared items")
		return
	}

	utils.JSON200(c, shared)
}

func (ctrl *Controller) SearchItems(c *gin.Context) {
	ctx := c.Request.Context()
	userID, err := utils.GetUserIDFromContext(c)
	if err != nil {
		utils.JSON401(c, "Unauthorized: "+err.Error())
		return
	}

	var parentID *uuid.UUID
	if raw := c.Query("parentId"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			utils.JSON400(c, "Invalid parentId format")
			return
		}
		parentID = &parsed
	}

	var fromSize, toSize *int64
	if raw := c.Query("fromSize"); raw != "" {
		val, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			utils.JSON400(c, "Invalid fromSize format")
			return
		}
		fromSize = &val
	}
	if raw := c.Query("toSize"); raw != "" {
		val, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			utils.JSON400(c, "Invalid toSize format")
			return
		}
		toSize = &val
	}

	items, err := ctrl.Provider.Item.Search(ctx, userID, c.Query("q"), c.Query("type"), parentID, fromSize, toSize)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Item] Search failed for user %s", userID)
		utils.JSON500(c, "Search failed")
		return
	}

	utils.JSON200(c, items)
}

func (ctrl *Controller) UsageAnalytics(c *gin.Context) {
	ctx := c.Request.Context()
	userID, err := utils.GetUserIDFromContext(c)
	if err != nil {
		utils.JSON401(c, "Unauthorized: "+err.Error())
		return
	}

	stats, err := ctrl.Provider.Item.Usage(ctx, userID)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Item] Failed to compute usage for %s", userID)
		utils.JSON500(c, "Failed to compute usage")
		return
	}

	utils.JSON200(c, stats)
}

func (ctrl *Controller) DeleteItem(c *gin.Context) {
	ctx := c.Request.Context()
	userID, err := utils.GetUserIDFromContext(c)
	if err != nil {
		utils.JSON401(c, "Unauthorized: "+err.Error())
		return
	}

	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.JSON400(c, "Invalid item id format")
		return
	}

	if err := ctrl.Provider.Item.SoftDelete(ctx, itemID, userID); err != nil {
		respondProviderError(c, err)
		return
	}

	utils.JSON200(c, gin.H{"message": "Item moved to trash"})
}
