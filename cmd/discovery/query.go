package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ArystanIgen/master-thesis-files/internal/graphdb"
)

func queryCmd(a *app) *cobra.Command {
	var (
		dialect string
		maxRows int
	)
	cmd := &cobra.Command{
		Use:   "query <statement...>",
		Short: "Run a raw statement and print the rows as JSON",
		Example: `  discovery query "GRAPH::SCAN('TSP')"
  discovery query --dialect cypher "MATCH (c:COUNTRY) RETURN c.name as name"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d := graphdb.Dialect(strings.ToLower(dialect))
			if !d.Valid() {
				return fmt.Errorf("unknown dialect %q (want %s or %s)", dialect, graphdb.DialectAlgebra, graphdb.DialectCypher)
			}
			if maxRows <= 0 {
				maxRows = a.container.Config.Database.MaxRows
			}
			stmt := graphdb.Statement{Text: strings.Join(args, " "), Dialect: d}

			var rows [][]any
			err := a.within(cmd.Context(), "query", func(ctx context.Context, sm *graphdb.SessionManager) error {
				result, err := sm.ExecuteQuery(ctx, stmt, maxRows)
				if err != nil {
					return err
				}
				rows = make([][]any, len(result))
				for i, row := range result {
					rows[i] = row.Values()
				}
				return nil
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), rows)
		},
	}
	cmd.Flags().StringVar(&dialect, "dialect", string(graphdb.DialectAlgebra), "Statement dialect: algebra or cypher")
	cmd.Flags().IntVar(&maxRows, "max-rows", 0, "Maximum rows to fetch (defaults to database.max_rows)")
	return cmd
}
