package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"gostat/adapters/tabular"
	"gostat/app"
	"gostat/internal/config"
	"gostat/internal/render"
	"gostat/ui"
)

// Standalone JSON API server. The HTML workbench in the repository root
// serves browsers; this binary serves scripts and notebooks.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	gin.SetMode(appConfig.Server.GinMode)

	reader := tabular.NewReader(appConfig.MaxUploadBytes())
	workbench := app.NewWorkbench(reader, render.NewRenderer())
	server := ui.NewAPIServer(workbench, ui.NewRegistry())

	log.Fatal(server.Start(appConfig.Server.APIPort))
}
