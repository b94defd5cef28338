package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"studioq/internal/api"
	"studioq/internal/archive"
	"studioq/internal/queue"
)

func newArchiveCommand(ctx *commandContext) *cobra.Command {
	archiveCmd := &cobra.Command{
		Use:   "archive",
		Short: "Query and manage archived jobs",
	}

	archiveCmd.AddCommand(newArchiveSearchCommand(ctx))
	archiveCmd.AddCommand(newArchiveRunCommand(ctx))

	return archiveCmd
}

func newArchiveSearchCommand(ctx *commandContext) *cobra.Command {
	var searchFlag string
	var typeFlag string
	var statusFlag string
	var limitFlag int
	var offsetFlag int

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search the archive",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := archive.Filter{
				Search: searchFlag,
				Limit:  limitFlag,
				Offset: offsetFlag,
			}
			if typeFlag != "" {
				jobType, ok := queue.ParseJobType(typeFlag)
				if !ok {
					return fmt.Errorf("unknown type %q", typeFlag)
				}
				filter.Type = jobType
			}
			if statusFlag != "" {
				status, ok := queue.ParseStatus(statusFlag)
				if !ok {
					return fmt.Errorf("unknown status %q", statusFlag)
				}
				filter.Status = status
			}

			return ctx.withService(cmd.Context(), func(runCtx context.Context, svc *api.Service) error {
				result, err := svc.ArchiveSearch(runCtx, filter)
				if err != nil {
					return err
				}
				if result.Total == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No matching archive entries")
					return nil
				}

				rows := make([][]string, 0, len(result.Entries))
				for _, entry := range result.Entries {
					rows = append(rows, []string{
						entry.ID,
						string(entry.Type),
						string(entry.Status),
						entry.ArchivedAt.Format(time.RFC3339),
						truncate(entry.Description, 48),
					})
				}
				out := renderTable(
					[]string{"ID", "Type", "Status", "Archived", "Description"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
				)
				fmt.Fprintln(cmd.OutOrStdout(), out)
				fmt.Fprintf(cmd.OutOrStdout(), "%d of %d entries\n", len(result.Entries), result.Total)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&searchFlag, "search", "", "Substring match on description or id")
	cmd.Flags().StringVar(&typeFlag, "type", "", "Filter by job type")
	cmd.Flags().StringVar(&statusFlag, "status", "", "Filter by status")
	cmd.Flags().IntVar(&limitFlag, "limit", 0, "Page size (capped at "+strconv.Itoa(archive.MaxSearchLimit)+")")
	cmd.Flags().IntVar(&offsetFlag, "offset", 0, "Page offset")
	return cmd
}

func newArchiveRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run <job-id>",
		Short: "Move a terminal job into the archive now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd.Context(), func(runCtx context.Context, svc *api.Service) error {
				entry, err := svc.Archive(runCtx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Archived %s at %s\n", entry.ID, entry.ArchivedAt.Format(time.RFC3339))
				return nil
			})
		},
	}
}
