package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/tnqbao/gau-drive-service/config"
	"github.com/tnqbao/gau-drive-service/http/controller"
	routes "github.com/tnqbao/gau-drive-service/http/route"
	infraPkg "github.com/tnqbao/gau-drive-service/infra"
	"github.com/tnqbao/gau-drive-service/provider"
	"github.com/tnqbao/gau-drive-service/repository"
)

func main() {
	err := godotenv.Load("staging.env")
	if err != nil {
		log.Println("No .env file found, continuing with environment variables")
	}

	cfg := config.NewConfig()
	infra := infraPkg.InitInfra(cfg)
	repo := repository.InitRepository(infra.Postgres.DB)
	prov := provider.InitProvider(cfg, infra, repo)

	ctrl := controller.NewController(cfg, infra, repo, prov)

	router := routes.SetupRouter(ctrl)

	log.Println("HTTP Server started on :8080")
	if err := router.Run(":8080"); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
