package main

import (
	"log"

	"github.com/farxc/nfe_consolidator/internal/env"
	"github.com/farxc/nfe_consolidator/internal/logger"
	"github.com/joho/godotenv"
)

func main() {
	// Missing .env is fine, the environment may be set directly.
	if err := godotenv.Load(); err != nil {
		log.Printf(".env file not loaded: %v", err)
	}

	cfg := config{
		addr:           env.GetString("ADDR", ":8080"),
		uploadDir:      env.GetString("UPLOAD_DIR", "tmp/uploads"),
		maxUploadBytes: env.GetInt64("MAX_UPLOAD_BYTES", 200<<20),
		logLevel:       env.GetString("LOG_LEVEL", "info"),
	}

	appLogger := logger.New(logger.ParseLevel(cfg.logLevel))

	app := &application{
		config:    cfg,
		appLogger: appLogger,
	}

	mux := app.mount()

	log.Fatal(app.run(mux))
}
