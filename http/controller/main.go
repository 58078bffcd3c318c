package controller

import (
	"github.com/tnqbao/gau-drive-service/config"
	"github.com/tnqbao/gau-drive-service/infra"
	"github.com/tnqbao/gau-drive-service/provider"
	"github.com/tnqbao/gau-drive-service/repository"
)

type Controller struct {
	Config     *config.Config
	Infra      *infra.Infra
	Repository *repository.Repository
	Provider   *provider.Provider
}

func NewController(config *config.Config, infra *infra.Infra, repo *repository.Repository, prov *provider.Provider) *Controller {
	if repo == nil {
		panic("Failed to initialize Repository")
	}
	if prov == nil {
		panic("Failed to initialize Provider")
	}
	return &Controller{
		Config:     config,
		Infra:      infra,
		Repository: repo,
		Provider:   prov,
	}
}
