package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Log-Tools/event-canary/canary"
)

var dryRun bool

var postCmd = &cobra.Command{
	Use:   "post [stream...]",
	Short: "Post canary events to every datacenter-specific event service",
	Long: `Builds one canary event per stream from its schema example, groups the
events by datacenter-specific event service URL, and POSTs each batch.
Every destination is attempted; the exit code is non-zero if any
destination did not fully accept its batch (status 201 or 202).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, factory, engine, err := buildCollaborators(ctx)
		if err != nil {
			return err
		}

		streamNames := args
		if len(streamNames) == 0 {
			streamNames = cfg.Streams
		}
		if len(streamNames) == 0 {
			streamNames = factory.Config().CachedStreamNames()
		}

		batches, err := engine.BuildBatches(ctx, streamNames)
		if err != nil {
			return err
		}

		if dryRun {
			if outputFormat == "json" {
				return printJSON(batches)
			}
			for serviceURL, batch := range batches {
				fmt.Printf("%s <- %d events\n", serviceURL, len(batch))
			}
			return nil
		}

		post := canary.HTTPPoster(newHTTPClient(cfg), canary.IntakeAccepted)
		results := engine.Deliver(ctx, batches, post)

		if outputFormat == "json" {
			if err := printJSON(results); err != nil {
				return err
			}
		} else {
			for serviceURL, result := range results {
				if result.Success {
					fmt.Printf("✅ %s: %d events accepted (status %d)\n", serviceURL, len(batches[serviceURL]), result.Status)
				} else {
					fmt.Printf("❌ %s: %s\n", serviceURL, result.Message)
				}
			}
		}

		for _, result := range results {
			if !result.Success {
				return fmt.Errorf("one or more canary event deliveries failed")
			}
		}
		return nil
	},
}

func init() {
	postCmd.Flags().BoolVar(&dryRun, "dry-run", false, "build batches but do not POST")
	rootCmd.AddCommand(postCmd)
}
