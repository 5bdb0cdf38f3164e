package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"

	"github.com/pvtools/casedup/internal/config"
	"github.com/pvtools/casedup/internal/core/assess"
	"github.com/pvtools/casedup/internal/core/cases"
	"github.com/pvtools/casedup/internal/core/detect"
	"github.com/pvtools/casedup/internal/core/resolve"
	"github.com/pvtools/casedup/internal/llm"
	"github.com/pvtools/casedup/internal/logging"
	"github.com/pvtools/casedup/internal/server"
	"github.com/pvtools/casedup/internal/store"
)

func main() {
	log := logging.Get()

	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found, using environment as-is")
	}

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/config.toml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.WithError(err).Warnf("Could not load %s, using defaults and environment", cfgPath)
		cfg = config.Default()
	}

	st, err := store.Connect(cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer st.Close()

	caseSvc := cases.NewService(st, cases.NewCache(cfg.Redis))
	resolver := resolve.NewService(st)
	scanner := detect.NewScanner(st, cfg.Detection.MinScore)

	var assessor *assess.Assessor
	if cfg.LLM.Provider != "" {
		model, err := llm.NewModel(context.Background(), cfg.LLM)
		if err != nil {
			log.WithError(err).Fatal("Failed to initialize language model")
		}
		assessor = assess.NewAssessor(model)
	} else {
		log.Info("No LLM provider configured, assessment endpoint disabled")
	}

	srv := server.New(st, caseSvc, resolver, scanner, assessor)
	r := srv.SetupRouter()

	log.Infof("Starting server on port %s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.WithError(err).Fatal("Server stopped")
	}
}
