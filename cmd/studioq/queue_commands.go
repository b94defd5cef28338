package main

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"studioq/internal/api"
	"studioq/internal/queue"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the job queue",
	}

	queueCmd.AddCommand(newQueueStatusCommand(ctx))
	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueShowCommand(ctx))
	queueCmd.AddCommand(newQueueAddCommand(ctx))
	queueCmd.AddCommand(newQueueCancelCommand(ctx))
	queueCmd.AddCommand(newQueueRetryCommand(ctx))
	queueCmd.AddCommand(newQueuePriorityCommand(ctx))
	queueCmd.AddCommand(newQueueScheduleCommand(ctx))
	queueCmd.AddCommand(newQueueNarrationCommand(ctx))

	return queueCmd
}

func newQueueStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show queue status summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd.Context(), func(runCtx context.Context, svc *api.Service) error {
				stats, err := svc.Stats(runCtx)
				if err != nil {
					return err
				}
				if len(stats) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}

				rows := make([][]string, 0, len(stats))
				for _, status := range queue.AllStatuses() {
					if count := stats[status]; count > 0 {
						rows = append(rows, []string{string(status), strconv.Itoa(count)})
					}
				}
				out := renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight})
				fmt.Fprintln(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var statusFlags []string
	var pipelineFlag string
	var sourceFlag string
	var limitFlag int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs in scheduling order",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := queue.Filter{Limit: limitFlag}
			for _, raw := range statusFlags {
				status, ok := queue.ParseStatus(raw)
				if !ok {
					return fmt.Errorf("unknown status %q", raw)
				}
				filter.Statuses = append(filter.Statuses, status)
			}
			if pipelineFlag != "" {
				pipeline, ok := queue.ParsePipeline(pipelineFlag)
				if !ok {
					return fmt.Errorf("unknown pipeline %q", pipelineFlag)
				}
				filter.Pipeline = pipeline
			}
			if sourceFlag != "" {
				source, ok := queue.ParseSource(sourceFlag)
				if !ok {
					return fmt.Errorf("unknown source %q", sourceFlag)
				}
				filter.Source = source
			}

			return ctx.withService(cmd.Context(), func(runCtx context.Context, svc *api.Service) error {
				jobs, err := svc.List(runCtx, filter)
				if err != nil {
					return err
				}
				if len(jobs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No matching jobs")
					return nil
				}

				rows := make([][]string, 0, len(jobs))
				for _, job := range jobs {
					rows = append(rows, []string{
						job.ID,
						string(job.Type),
						string(job.Status),
						strconv.Itoa(job.Priority),
						string(job.Pipeline),
						truncate(job.Description, 48),
					})
				}
				out := renderTable(
					[]string{"ID", "Type", "Status", "Priority", "Pipeline", "Description"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
				)
				fmt.Fprintln(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&statusFlags, "status", nil, "Filter by status (repeatable)")
	cmd.Flags().StringVar(&pipelineFlag, "pipeline", "", "Filter by pipeline")
	cmd.Flags().StringVar(&sourceFlag, "source", "", "Filter by source")
	cmd.Flags().IntVar(&limitFlag, "limit", 0, "Maximum jobs to list")
	return cmd
}

func newQueueShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <job-id>",
		Short: "Show one job in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd.Context(), func(runCtx context.Context, svc *api.Service) error {
				job, err := svc.Get(runCtx, args[0])
				if err != nil {
					return err
				}
				printJob(cmd, job)
				return nil
			})
		},
	}
}

func newQueueAddCommand(ctx *commandContext) *cobra.Command {
	var input queue.CreateInput
	var scheduleFlag string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Submit a new generation job",
		RunE: func(cmd *cobra.Command, args []string) error {
			if scheduleFlag != "" {
				at, err := time.Parse(time.RFC3339, scheduleFlag)
				if err != nil {
					return fmt.Errorf("parse --schedule: %w", err)
				}
				input.Scheduled = &at
			}
			return ctx.withService(cmd.Context(), func(runCtx context.Context, svc *api.Service) error {
				job, err := svc.Create(runCtx, input)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", job.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&input.Type, "type", "", "Job type (image, clip, lesson, chat, news-content)")
	cmd.Flags().StringVar(&input.Description, "description", "", "Request description")
	cmd.Flags().IntVar(&input.Priority, "priority", 0, "Scheduling priority (higher first)")
	cmd.Flags().StringVar(&input.Pipeline, "pipeline", "", "Execution pipeline")
	cmd.Flags().StringVar(&scheduleFlag, "schedule", "", "Future dispatch time (RFC3339)")
	cmd.Flags().StringVar(&input.VoiceKey, "voice", "", "Voice selection hint")
	cmd.Flags().StringVar(&input.ImageModelAlias, "image-model", "", "Image model alias")
	cmd.Flags().StringVar(&input.VideoModelAlias, "video-model", "", "Video model alias")
	cmd.Flags().StringVar(&input.NarrationMode, "narration-mode", "", "Narration mode (auto, manual)")
	cmd.Flags().StringVar(&input.NarrationScript, "script", "", "Manual narration script")
	cmd.Flags().StringVar(&input.FilmTemplateKey, "film-template", "", "Film template key")
	cmd.Flags().IntVar(&input.SceneCount, "scenes", 0, "Scene count for lessons")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("description")
	return cmd
}

func newQueueCancelCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <job-id>",
		Short: "Cancel a pending job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd.Context(), func(runCtx context.Context, svc *api.Service) error {
				job, err := svc.Cancel(runCtx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cancelled %s\n", job.ID)
				return nil
			})
		},
	}
}

func newQueueRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry <job-id>",
		Short: "Return a failed job to pending",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd.Context(), func(runCtx context.Context, svc *api.Service) error {
				job, err := svc.Retry(runCtx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Retrying %s\n", job.ID)
				return nil
			})
		},
	}
}

func newQueuePriorityCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "priority <job-id> <priority>",
		Short: "Set a job's scheduling priority",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			priority, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("parse priority: %w", err)
			}
			return ctx.withService(cmd.Context(), func(runCtx context.Context, svc *api.Service) error {
				job, err := svc.SetPriority(runCtx, args[0], priority)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Job %s priority set to %d\n", job.ID, job.Priority)
				return nil
			})
		},
	}
}

func newQueueScheduleCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "schedule <job-id> <rfc3339-time|clear>",
		Short: "Set or clear a job's future dispatch time",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var scheduledAt *time.Time
			if !strings.EqualFold(args[1], "clear") {
				at, err := time.Parse(time.RFC3339, args[1])
				if err != nil {
					return fmt.Errorf("parse schedule time: %w", err)
				}
				scheduledAt = &at
			}
			return ctx.withService(cmd.Context(), func(runCtx context.Context, svc *api.Service) error {
				job, err := svc.SetSchedule(runCtx, args[0], scheduledAt)
				if err != nil {
					return err
				}
				if job.ScheduledAt == nil {
					fmt.Fprintf(cmd.OutOrStdout(), "Job %s schedule cleared\n", job.ID)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "Job %s scheduled for %s\n", job.ID, job.ScheduledAt.Format(time.RFC3339))
				}
				return nil
			})
		},
	}
}

func newQueueNarrationCommand(ctx *commandContext) *cobra.Command {
	var scriptFlag string

	cmd := &cobra.Command{
		Use:   "narration <job-id> <mode>",
		Short: "Set a job's narration mode (auto, manual)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, ok := queue.ParseNarrationMode(args[1])
			if !ok {
				return fmt.Errorf("unknown narration mode %q", args[1])
			}
			return ctx.withService(cmd.Context(), func(runCtx context.Context, svc *api.Service) error {
				job, err := svc.SetNarrationMode(runCtx, args[0], mode, scriptFlag)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Job %s narration mode set to %s (status %s)\n",
					job.ID, job.NarrationMode, job.NarrationStatus)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&scriptFlag, "script", "", "Manual narration script")
	return cmd
}

func printJob(cmd *cobra.Command, job *queue.Job) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "ID:          %s\n", job.ID)
	fmt.Fprintf(out, "Type:        %s\n", job.Type)
	fmt.Fprintf(out, "Status:      %s\n", job.Status)
	fmt.Fprintf(out, "Priority:    %d\n", job.Priority)
	fmt.Fprintf(out, "Source:      %s\n", job.Source)
	fmt.Fprintf(out, "Pipeline:    %s\n", job.Pipeline)
	fmt.Fprintf(out, "Description: %s\n", job.Description)
	if job.ScheduledAt != nil {
		fmt.Fprintf(out, "Scheduled:   %s\n", job.ScheduledAt.Format(time.RFC3339))
	}
	fmt.Fprintf(out, "Narration:   %s (%s)\n", job.NarrationStatus, job.NarrationMode)
	if len(job.OutputPaths) > 0 {
		paths := make([]string, len(job.OutputPaths))
		copy(paths, job.OutputPaths)
		sort.Strings(paths)
		fmt.Fprintf(out, "Outputs:     %s\n", strings.Join(paths, ", "))
	}
	if job.Error != "" {
		fmt.Fprintf(out, "Error:       %s\n", job.Error)
	}
	fmt.Fprintf(out, "Created:     %s\n", job.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(out, "Updated:     %s\n", job.UpdatedAt.Format(time.RFC3339))
	if job.CompletedAt != nil {
		fmt.Fprintf(out, "Completed:   %s\n", job.CompletedAt.Format(time.RFC3339))
	}
}

func truncate(value string, max int) string {
	value = strings.TrimSpace(value)
	if len(value) <= max {
		return value
	}
	if max <= 3 {
		return value[:max]
	}
	return value[:max-3] + "..."
}
