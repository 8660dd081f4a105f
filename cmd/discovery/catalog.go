package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ArystanIgen/master-thesis-files/internal/domain/tsp"
	"github.com/ArystanIgen/master-thesis-files/internal/graphdb"
	"github.com/ArystanIgen/master-thesis-files/internal/repository"
)

func catalogCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Browse reference nodes (TSP_TYPE, COUNTRY, TIME_SLOT, DATA_REQUIREMENT)",
	}
	cmd.AddCommand(catalogListCmd(a))
	cmd.AddCommand(catalogFindCmd(a))
	return cmd
}

func catalogListCmd(a *app) *cobra.Command {
	var (
		label string
		size  int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List reference nodes with a label",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var nodes []tsp.CatalogNode
			err := a.within(cmd.Context(), "catalog.list", func(ctx context.Context, sm *graphdb.SessionManager) error {
				res, err := a.container.Catalog.List(ctx, sm, strings.ToUpper(label), size)
				nodes = res.Records()
				return err
			})
			if err != nil {
				return err
			}
			if nodes == nil {
				nodes = []tsp.CatalogNode{}
			}
			return printJSON(cmd.OutOrStdout(), nodes)
		},
	}
	cmd.Flags().StringVar(&label, "label", tsp.CountryLabel, "Reference node label")
	cmd.Flags().IntVar(&size, "size", repository.DefaultListSize, "Maximum number of nodes")
	return cmd
}

func catalogFindCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "find <label> <name>",
		Short: "Find a reference node by name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			label := strings.ToUpper(args[0])
			var node *tsp.CatalogNode
			err := a.within(cmd.Context(), "catalog.find", func(ctx context.Context, sm *graphdb.SessionManager) error {
				var err error
				node, err = a.container.Catalog.FindByName(ctx, sm, label, args[1])
				return err
			})
			if err != nil {
				return err
			}
			if node == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %q not found\n", label, args[1])
				return nil
			}
			return printJSON(cmd.OutOrStdout(), node)
		},
	}
}
