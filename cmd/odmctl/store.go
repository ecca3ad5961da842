package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/forgo/odmapi/internal/config"
	"github.com/forgo/odmapi/internal/odm"
	"github.com/forgo/odmapi/internal/repository"
)

func newMigrateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the tables, collections and indexes of every model",
		Long: `Connect to the configured store and prepare storage for every model in
the schema. Running it again is safe.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd.Context(), opts, func(ctx context.Context, cfg *config.Config, reg *odm.Registry, backend odm.Backend) error {
				if err := backend.Init(ctx, reg.Models()); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "initialized %d models on %s\n", len(reg.Models()), cfg.Store.Backend)
				return nil
			})
		},
	}
}

func newGetCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "get <ref>",
		Short: "Print a stored entity",
		Long: `Load the entity with the given ref ("<model>:<uid>") straight from the
store, bypassing the HTTP API capability checks.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), opts, func(ctx context.Context, _ *config.Config, reg *odm.Registry, backend odm.Backend) error {
				e, err := odm.NewStore(reg, backend).GetByRef(ctx, args[0])
				if err != nil {
					return err
				}
				if e == nil {
					return fmt.Errorf("%s: %w", args[0], odm.ErrDocumentNotFound)
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(e.AsJSONable())
			})
		},
	}
}

func withStore(ctx context.Context, opts *options, fn func(context.Context, *config.Config, *odm.Registry, odm.Backend) error) error {
	cfg, reg, err := opts.load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	backend, closeFn, err := repository.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closeFn() }()
	return fn(ctx, cfg, reg, backend)
}
