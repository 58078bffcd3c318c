package controller

import (
	"github.com/gin-gonic/gin"
	"github.com/tnqbao/gau-drive-service/entity"
	"github.com/tnqbao/gau-drive-service/http/controller/dto"
	"github.com/tnqbao/gau-drive-service/utils"
)

func (ctrl *Controller) Register(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.RegisterRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSON400(c, "Invalid request: "+err.Error())
		return
	}

	exists, err := ctrl.Repository.UserRepo.ExistsByEmail(req.Email)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[User] Failed to check email existence")
		utils.JSON500(c, "Failed to check email existence")
		return
	}
	if exists {
		utils.JSON409(c, "Email is already registered")
		return
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[User] Failed to hash password")
		utils.JSON500(c, "Failed to register user")
		return
	}

	user := &entity.User{
		Email:    req.Email,
		Password: hashed,
	}
	if err := ctrl.Repository.UserRepo.Create(user); err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[User] Failed to create user")
		utils.JSON500(c, "Failed to register user")
		return
	}

	ctrl.Infra.Logger.InfoWithContextf(ctx, "[User] Registered user %s", user.ID)
	utils.JSON201(c, gin.H{
		"id":    user.ID,
		"email": user.Email,
	})
}

func (ctrl *Controller) Login(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.LoginRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSON400(c, "Invalid request: "+err.Error())
		return
	}

	user, err := ctrl.Repository.UserRepo.FindByEmail(req.Email)
	if err != nil {
		utils.JSON401(c, "Invalid email or password")
		return
	}
	if !utils.CheckPassword(user.Password, req.Password) {
		utils.JSON401(c, "Invalid email or password")
		return
	}

	token, err := utils.GenerateToken(user.ID, ctrl.Config.EnvConfig)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[User] Failed to generate token for %s", user.ID)
		utils.JSON500(c, "Failed to generate token")
		return
	}

	utils.JSON200(c, gin.H{
		"access_token": token,
		"user": gin.H{
			"id":    user.ID,
			"email": user.Email,
		},
	})
}
