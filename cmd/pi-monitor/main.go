package main

import (
	"os"

	"pi_monitor_go/config"
	"pi_monitor_go/db"
	"pi_monitor_go/logging"
	"pi_monitor_go/models"
	"pi_monitor_go/services"
	"pi_monitor_go/services/adapters"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// app holds what every command needs once configuration is loaded
type app struct {
	cfg       *config.Config
	log       *logrus.Logger
	resources *services.LocalResources
	registry  *adapters.Registry
}

func newApp() (*app, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logCfg, err := logging.ConfigFromSettings(cfg.LogLevel, cfg.LogDir, cfg.LogJSON)
	if err != nil {
		return nil, err
	}
	logging.SetDefaultConfig(logCfg)
	log := logging.NewLogger()

	resources := services.NewLocalResources(cfg.ResourcesDir)
	registry, err := adapters.NewDefaultRegistry(resources, cfg.Adapters)
	if err != nil {
		return nil, err
	}

	return &app{cfg: cfg, log: log, resources: resources, registry: registry}, nil
}

// openDB connects and migrates; callers close with db.Close
func (a *app) openDB() error {
	if err := db.Initialize(a.cfg.DBPath, a.cfg.Environment, a.log); err != nil {
		return err
	}
	return db.AutoMigrate(models.All()...)
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "pi-monitor",
		Short:         "Load and compare public information request statistics",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newPopulateCmd(),
		newAdaptersCmd(),
		newWdtkCountsCmd(),
		newExportCmd(),
		newSyncResourcesCmd(),
		newScheduleCmd(),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logging.NewLogger().WithError(err).Error("Command failed")
		os.Exit(1)
	}
}
