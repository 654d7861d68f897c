package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"complaint-workers/internal/common/logger"
	"complaint-workers/internal/matching/ticket"
)

func newTicketCmd() *cobra.Command {
	var (
		req  ticket.Request
		unit int64
	)
	cmd := &cobra.Command{
		Use:   "ticket",
		Short: "Build and validate a ticket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if unit > 0 {
				req.UnitReference = &unit
			}
			t, err := ticket.NewAssembler(logger.NewNoOpLogger()).Build(req)
			if err != nil {
				return fmt.Errorf("ticket rejected: %w", err)
			}
			return printJSON(cmd.OutOrStdout(), t)
		},
	}

	f := cmd.Flags()
	f.Int64Var(&req.CatalogID, "id", 0, "Catalog id (required)")
	f.Float64Var(&req.Confidence, "confidence", 0, "Candidate confidence")
	f.StringVar(&req.ComplaintText, "text", "", "Complaint text")
	f.Int64Var(&unit, "unit", 0, "Unit reference (0 = none)")
	f.StringVar(&req.Scope, "scope", "", "Scope (UNIT or COMMON)")

	_ = cmd.MarkFlagRequired("id")
	return cmd
}
