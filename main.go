package main

import (
	"log"
	"net/http"
	_ "net/http/pprof"

	"github.com/joho/godotenv"

	"gostat/adapters/tabular"
	"gostat/app"
	"gostat/internal/config"
	"gostat/internal/render"
	"gostat/ui"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	reader := tabular.NewReader(appConfig.MaxUploadBytes())
	workbench := app.NewWorkbench(reader, render.NewRenderer())

	webApp, err := ui.NewApp(ui.Config{
		Port:           appConfig.Server.Port,
		MaxUploadBytes: appConfig.MaxUploadBytes(),
	}, workbench)
	if err != nil {
		log.Fatalf("Failed to initialize UI: %v", err)
	}

	// Start pprof server for performance profiling
	if appConfig.Profiling.Enabled {
		go func() {
			log.Printf("🚀 Performance profiling server starting on :%s", appConfig.Profiling.Port)
			if err := http.ListenAndServe(":"+appConfig.Profiling.Port, nil); err != nil {
				log.Printf("❌ pprof server failed: %v", err)
			}
		}()
	}

	log.Printf("🚀 Starting gostat workbench on port %s", appConfig.Server.Port)
	log.Fatal(webApp.Start(":" + appConfig.Server.Port))
}
