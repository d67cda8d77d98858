package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/Ramsey-B/fern/pkg/ingest"
)

func newResetCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Truncate the ingestion tables so the next run starts clean",
		Long: "Truncate order_items, payments, orders, products, sellers and customers.\n" +
			"api_notes is kept.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return errors.New("reset deletes all ingested rows; pass --yes to confirm")
			}

			db, err := a.openDatabase(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			return ingest.NewLoader(db, a.logger, a.cfg.IngestBatchSize).Reset(cmd.Context())
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm truncation")
	return cmd
}
