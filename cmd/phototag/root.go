package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/phototag/internal/api"
	"github.com/JaimeStill/phototag/internal/config"
	"github.com/JaimeStill/phototag/internal/infrastructure"
)

type app struct {
	cfg    *config.Config
	infra  *infrastructure.Infrastructure
	domain *api.Domain
}

func (a *app) init() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	infra, err := infrastructure.New(cfg)
	if err != nil {
		return err
	}

	if cfg.Database.AutoMigrate {
		if err := infra.Database.Migrate(); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	a.cfg = cfg
	a.infra = infra
	a.domain = api.NewDomain(api.NewRuntime(cfg, infra))
	return nil
}

func (a *app) close() {
	if a.infra == nil {
		return
	}
	if err := a.infra.Database.Connection().Close(); err != nil {
		a.infra.Logger.Error("database close failed", "error", err)
	}
}

func newRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:          "phototag",
		Short:        "Classify catalog photos into searchable tags",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}

	root.AddCommand(
		runCommand(a),
		classifyCommand(a),
		previewCommand(a),
	)

	return root
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
