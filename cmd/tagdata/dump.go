package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/Sokol111/tagdata/pkg/core"
	"github.com/Sokol111/tagdata/pkg/host"
	"github.com/Sokol111/tagdata/pkg/host/mongo"
	"github.com/Sokol111/tagdata/pkg/tag"
	"github.com/Sokol111/tagdata/pkg/tag/tagbson"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/fx"
)

type dumpOptions struct {
	configPath string
	id         string
	format     string
	timeout    time.Duration
}

func newDumpCmd() *cobra.Command {
	opts := &dumpOptions{}

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print a stored host tree",
		Long: `Print a stored host tree from the MongoDB store.

The store is configured by the mongo section of the config file.

Example:
  tagdata dump --config config.yaml --id player-42 --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Config file (required)")
	cmd.Flags().StringVar(&opts.id, "id", "", "Host id (required)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text or json")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "Timeout for connecting and loading")

	_ = cmd.MarkFlagRequired("config")
	_ = cmd.MarkFlagRequired("id")

	return cmd
}

func runDump(ctx context.Context, w io.Writer, opts *dumpOptions) error {
	render, err := renderer(opts.format)
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	var store host.Store
	app := fx.New(
		core.NewCoreModule(core.WithConfigPath(opts.configPath)),
		mongo.NewMongoStoreModule(),
		fx.Populate(&store),
	)
	if err := app.Start(ctx); err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer stopCancel()
		_ = app.Stop(stopCtx)
	}()

	snap, ok, err := store.Load(ctx, opts.id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("host %q not found", opts.id)
	}

	out, err := render(snap)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, out)
	return err
}

func renderer(format string) (func(host.Snapshot) (string, error), error) {
	switch format {
	case "text":
		return func(s host.Snapshot) (string, error) {
			return fmt.Sprintf("version %d\n%s", s.Version, tag.Format(s.Root)), nil
		}, nil
	case "json":
		return func(s host.Snapshot) (string, error) {
			doc, err := tagbson.ToDocument(s.Root)
			if err != nil {
				return "", err
			}
			data, err := bson.MarshalExtJSON(bson.D{{Key: "version", Value: s.Version}, {Key: "root", Value: doc}}, false, false)
			if err != nil {
				return "", fmt.Errorf("failed to encode tree: %w", err)
			}
			return string(data), nil
		}, nil
	}
	return nil, fmt.Errorf("unknown format %q, want text or json", format)
}
