package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ArystanIgen/master-thesis-files/internal/domain/tsp"
	"github.com/ArystanIgen/master-thesis-files/internal/graphdb"
	"github.com/ArystanIgen/master-thesis-files/internal/repository"
)

func tspCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tsp",
		Short: "Manage transport service providers",
	}
	cmd.AddCommand(tspCreateCmd(a))
	cmd.AddCommand(tspGetCmd(a))
	cmd.AddCommand(tspListCmd(a))
	cmd.AddCommand(tspUpdateCmd(a))
	cmd.AddCommand(tspDeleteCmd(a))
	cmd.AddCommand(tspRecommendCmd(a))
	cmd.AddCommand(tspLinkCmd(a, "add-country", "Link a provider to the country it operates in", (*repository.TSPRepository).AddCountry))
	cmd.AddCommand(tspLinkCmd(a, "add-time-slot", "Link a provider to a time slot it is available in", (*repository.TSPRepository).AddTimeSlot))
	cmd.AddCommand(tspLinkCmd(a, "add-data-requirement", "Link a provider to a data requirement it can provide", (*repository.TSPRepository).AddDataRequirement))
	cmd.AddCommand(tspRemoveDataRequirementCmd(a))
	cmd.AddCommand(tspHasDataRequirementCmd(a))
	return cmd
}

func tspCreateCmd(a *app) *cobra.Command {
	var in tsp.Create
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a provider and attach it to its type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var created *tsp.TSP
			err := a.within(cmd.Context(), "tsp.create", func(ctx context.Context, sm *graphdb.SessionManager) error {
				var err error
				created, err = a.container.TSPs.Create(ctx, sm, in)
				return err
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), created)
		},
	}
	cmd.Flags().StringVar(&in.ID, "id", "", "Provider business id")
	cmd.Flags().StringVar(&in.Name, "name", "", "Provider display name")
	cmd.Flags().StringVar(&in.Type, "type", "", "Name of the provider type")
	return cmd
}

func tspGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Find a provider by its business id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var found *tsp.TSP
			err := a.within(cmd.Context(), "tsp.get", func(ctx context.Context, sm *graphdb.SessionManager) error {
				var err error
				found, err = a.container.TSPs.FindByID(ctx, sm, args[0])
				return err
			})
			if err != nil {
				return err
			}
			if found == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "provider %q not found\n", args[0])
				return nil
			}
			return printJSON(cmd.OutOrStdout(), found)
		},
	}
}

func tspListCmd(a *app) *cobra.Command {
	var (
		typeName string
		size     int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List providers, optionally of one type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var records []tsp.TSP
			err := a.within(cmd.Context(), "tsp.list", func(ctx context.Context, sm *graphdb.SessionManager) error {
				var (
					res repository.Result[tsp.TSP]
					err error
				)
				if typeName != "" {
					res, err = a.container.TSPs.ListByType(ctx, sm, typeName, size)
				} else {
					res, err = a.container.TSPs.Get(ctx, sm, size, nil)
				}
				records = res.Records()
				return err
			})
			if err != nil {
				return err
			}
			if records == nil {
				records = []tsp.TSP{}
			}
			return printJSON(cmd.OutOrStdout(), records)
		},
	}
	cmd.Flags().StringVar(&typeName, "type", "", "Only providers of this type")
	cmd.Flags().IntVar(&size, "size", repository.DefaultListSize, "Maximum number of providers")
	return cmd
}

func tspUpdateCmd(a *app) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "update <node-id>",
		Short: "Update the properties of a provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			nodeID, err := parseNodeID(args[0])
			if err != nil {
				return err
			}
			var upd tsp.Update
			if cmd.Flags().Changed("name") {
				upd.Name = &name
			}

			var updated *tsp.TSP
			err = a.within(cmd.Context(), "tsp.update", func(ctx context.Context, sm *graphdb.SessionManager) error {
				var err error
				updated, err = a.container.TSPs.UpdateByID(ctx, sm, nodeID, upd)
				return err
			})
			if err != nil {
				return err
			}
			if updated == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "node %d not found\n", nodeID)
				return nil
			}
			return printJSON(cmd.OutOrStdout(), updated)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "New display name")
	return cmd
}

func tspDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <node-id>",
		Short: "Delete a provider and its edges",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			nodeID, err := parseNodeID(args[0])
			if err != nil {
				return err
			}
			err = a.within(cmd.Context(), "tsp.delete", func(ctx context.Context, sm *graphdb.SessionManager) error {
				return a.container.TSPs.DeleteByID(ctx, sm, nodeID)
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted node %d\n", nodeID)
			return nil
		},
	}
}

func tspRecommendCmd(a *app) *cobra.Command {
	var (
		filter tsp.RecommendationFilter
		size   int
	)
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Recommend providers by country, type and time slot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var recs []tsp.Recommendation
			err := a.within(cmd.Context(), "tsp.recommend", func(ctx context.Context, sm *graphdb.SessionManager) error {
				res, err := a.container.TSPs.Recommendations(ctx, sm, filter, size)
				recs = res.Records()
				return err
			})
			if err != nil {
				return err
			}
			if recs == nil {
				recs = []tsp.Recommendation{}
			}
			return printJSON(cmd.OutOrStdout(), recs)
		},
	}
	cmd.Flags().StringSliceVar(&filter.Countries, "country", nil, "Country names (repeatable)")
	cmd.Flags().StringSliceVar(&filter.TSPTypes, "type", nil, "Provider type names (repeatable)")
	cmd.Flags().StringSliceVar(&filter.TimeSlots, "time-slot", nil, "Time slot names (repeatable)")
	cmd.Flags().IntVar(&size, "size", repository.DefaultRecommendationSize, "Maximum number of recommendations")
	return cmd
}

// linkFunc is one of the TSPRepository Add* methods.
type linkFunc func(r *repository.TSPRepository, ctx context.Context, exec repository.Executor, tspNodeID, targetNodeID int64) (*tsp.TSP, error)

func tspLinkCmd(a *app, use, short string, link linkFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <tsp-node-id> <node-id>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseNodeIDs(args)
			if err != nil {
				return err
			}
			var linked *tsp.TSP
			err = a.within(cmd.Context(), "tsp."+use, func(ctx context.Context, sm *graphdb.SessionManager) error {
				var err error
				linked, err = link(a.container.TSPs, ctx, sm, ids[0], ids[1])
				return err
			})
			if err != nil {
				return err
			}
			if linked == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "nodes %d and %d not found\n", ids[0], ids[1])
				return nil
			}
			return printJSON(cmd.OutOrStdout(), linked)
		},
	}
}

func tspRemoveDataRequirementCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove-data-requirement <tsp-node-id> <node-id>",
		Short: "Remove the edge between a provider and a data requirement",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseNodeIDs(args)
			if err != nil {
				return err
			}
			err = a.within(cmd.Context(), "tsp.remove-data-requirement", func(ctx context.Context, sm *graphdb.SessionManager) error {
				return a.container.TSPs.RemoveDataRequirement(ctx, sm, ids[0], ids[1])
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "unlinked %d from %d\n", ids[1], ids[0])
			return nil
		},
	}
}

func tspHasDataRequirementCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "has-data-requirement <tsp-node-id> <node-id>",
		Short: "Report whether a provider can provide a data requirement",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseNodeIDs(args)
			if err != nil {
				return err
			}
			var has bool
			err = a.within(cmd.Context(), "tsp.has-data-requirement", func(ctx context.Context, sm *graphdb.SessionManager) error {
				var err error
				has, err = a.container.TSPs.HasDataRequirement(ctx, sm, ids[0], ids[1])
				return err
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]bool{"has_data_requirement": has})
		},
	}
}
