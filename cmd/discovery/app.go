package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ArystanIgen/master-thesis-files/internal/config"
	"github.com/ArystanIgen/master-thesis-files/internal/di"
	"github.com/ArystanIgen/master-thesis-files/internal/graphdb"
	"github.com/ArystanIgen/master-thesis-files/internal/logging"
)

// app carries what every command needs once flags are parsed.
type app struct {
	configDir string
	env       string

	loader    *config.Loader
	container *di.Container
	cleanup   func()
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{}
	root := &cobra.Command{
		Use:               "discovery",
		Short:             "Sign-Air discovery graph client",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.PersistentFlags().StringVar(&a.configDir, "config-dir", "config", "Directory holding base.yaml and <env>.yaml")
	root.PersistentFlags().StringVar(&a.env, "env", "", "Environment (development, staging, production, test); defaults to $ENV")

	root.AddCommand(tspCmd(a))
	root.AddCommand(catalogCmd(a))
	root.AddCommand(queryCmd(a))
	root.AddCommand(probeCmd(a))
	return root, a
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	env := config.Environment(a.env)
	if a.env == "" {
		env = config.GetEnvironment()
	}

	a.loader = config.NewLoader(a.configDir, env)
	cfg, err := a.loader.Load()
	if err != nil {
		return err
	}

	container, cleanup, err := di.InitializeContainer(cfg)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	a.container = container
	a.cleanup = cleanup

	container.Logger.Debug("Configuration loaded",
		zap.String("environment", string(cfg.Environment)),
		zap.Strings("sources", cfg.LoadedFrom),
		zap.String("address", cfg.Database.Address()),
	)
	return nil
}

func (a *app) close() {
	if a.cleanup != nil {
		a.cleanup()
		a.cleanup = nil
	}
}

// within runs fn in one unit of work tagged with a fresh operation id.
func (a *app) within(ctx context.Context, command string, fn func(ctx context.Context, sm *graphdb.SessionManager) error) error {
	ctx = logging.WithOperationID(ctx, uuid.NewString())
	logger := logging.WithContext(ctx, a.container.Logger).With(zap.String("command", command))

	start := time.Now()
	if err := a.container.Factory.Run(ctx, fn); err != nil {
		logging.LogError(logger, err, "Command failed")
		return err
	}
	logger.Debug("Command completed", zap.Duration("elapsed", time.Since(start)))
	return nil
}

func printJSON(w io.Writer, v any) error {
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	_, err = fmt.Fprintln(w, string(payload))
	return err
}

func parseNodeID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid node id %q: %w", arg, err)
	}
	return id, nil
}

func parseNodeIDs(args []string) ([]int64, error) {
	ids := make([]int64, len(args))
	for i, arg := range args {
		id, err := parseNodeID(arg)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}
