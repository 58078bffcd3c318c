package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/tnqbao/gau-drive-service/http/controller"
	middlewares "github.com/tnqbao/gau-drive-service/http/middleware"
)

func SetupRouter(ctrl *controller.Controller) *gin.Engine {
	r := gin.Default()
	middles, err := middlewares.NewMiddlewares(ctrl)
	if err != nil {
		panic(err)
	}

	r.Use(middles.CORSMiddleware)

	apiRoutes := r.Group("/api/v1")
	{
		userRoutes := apiRoutes.Group("/users")
		{
			userRoutes.POST("/register", ctrl.Register)
			userRoutes.POST("/login", ctrl.Login)
		}

		authRoutes := apiRoutes.Group("/")
		{
			authRoutes.Use(middles.AuthMiddleware)

			fileRoutes := authRoutes.Group("/files")
			{
				fileRoutes.POST("", ctrl.UploadFiles)
				fileRoutes.GET("", ctrl.SearchItems)
				fileRoutes.GET("/shared-with-me", ctrl.SharedWithMe)
				fileRoutes.GET("/:id/download", ctrl.DownloadFile)
				fileRoutes.POST("/:id/share", ctrl.ShareItem)
				fileRoutes.DELETE("/:id", ctrl.DeleteItem)
			}

			folderRoutes := authRoutes.Group("/folders")
			{
				folderRoutes.POST("", ctrl.CreateFolder)
				folderRoutes.GET("/:id/children", ctrl.ListChildren)
				folderRoutes.POST("/:id/archive", ctrl.RequestFolderArchive)
			}

			archiveRoutes := authRoutes.Group("/archives")
			{
				archiveRoutes.GET("/:request_id", ctrl.GetArchiveStatus)
				archiveRoutes.GET("/:request_id/file", ctrl.DownloadArchive)
			}

			authRoutes.GET("/analytics/usage", ctrl.UsageAnalytics)
		}
	}
	return r
}
