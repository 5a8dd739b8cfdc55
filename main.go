package main

import (
	"flag"
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"customer_insights/api"
	"customer_insights/internal/config"
	"customer_insights/internal/logger"
	"customer_insights/internal/sheets"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Errorf("error loading config: %v", err))
	}

	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		panic(fmt.Errorf("error building logger: %v", err))
	}
	defer log.Sync()

	source, err := sheets.OpenSource(cfg.Sources.Workbook, cfg.Sources.RemoteURL, log)
	if err != nil {
		log.Fatal("failed to open source", zap.Error(err))
	}
	opts := api.Options{
		Sheets:   cfg.Sources.Sheets,
		Defaults: cfg.Params(),
		Logger:   log,
	}
	if source != nil {
		defer source.Close()
		opts.Source = source
	}

	r := gin.Default()
	api.InitRoutes(r, opts)

	log.Info("listening", zap.String("addr", cfg.Server.Addr))
	if err := r.Run(cfg.Server.Addr); err != nil {
		panic(fmt.Errorf("error trying to start server: %v", err))
	}
}
