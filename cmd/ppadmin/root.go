package main

import (
	"fmt"

	"pastpapers-go/internal/config"
	"pastpapers-go/pkg/database"
	"pastpapers-go/pkg/log"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

type appContext struct {
	configPath string
	cfg        config.Config
}

// load 读取配置并初始化日志，每个子命令执行前调用一次。
func (a *appContext) load() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	// 命令行工具只写控制台
	logCfg := cfg.Log
	logCfg.OutputPath = ""
	return log.Init(logCfg)
}

func (a *appContext) openDB() (*gorm.DB, error) {
	db, err := database.Open(a.cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return db, nil
}

func newRootCmd() *cobra.Command {
	app := &appContext{}

	cmd := &cobra.Command{
		Use:           "ppadmin",
		Short:         "Administrative commands for the past papers repository",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.load()
		},
	}
	cmd.PersistentFlags().StringVar(&app.configPath, "config", "./configs/config.yaml", "path to the YAML config file")

	cmd.AddCommand(
		newMigrateCmd(app),
		newCreateSuperuserCmd(app),
		newReindexCmd(app),
		newImportCmd(app),
	)
	return cmd
}
