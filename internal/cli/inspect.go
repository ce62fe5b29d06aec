package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Log-Tools/event-canary/canary"
	"github.com/Log-Tools/event-canary/streamconfig"
)

var streamsCmd = &cobra.Command{
	Use:   "streams",
	Short: "List every stream known to the configured stream config source",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		_, factory, _, err := buildCollaborators(ctx)
		if err != nil {
			return err
		}

		names := factory.Config().CachedStreamNames()
		if outputFormat == "json" {
			return printJSON(names)
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	},
}

var topicsCmd = &cobra.Command{
	Use:   "topics [stream...]",
	Short: "Show the topics composing the given streams (all streams if none given)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		_, factory, _, err := buildCollaborators(ctx)
		if err != nil {
			return err
		}

		var topics []string
		if len(args) == 0 {
			topics = streamconfig.AsStrings(factory.Config().CollectAllCachedSettings(streamconfig.TopicsSetting))
		} else {
			values, err := factory.Config().CollectSettings(ctx, args, streamconfig.TopicsSetting)
			if err != nil {
				return err
			}
			topics = streamconfig.AsStrings(values)
		}

		if outputFormat == "json" {
			return printJSON(topics)
		}
		for _, topic := range topics {
			fmt.Println(topic)
		}
		return nil
	},
}

var eventCmd = &cobra.Command{
	Use:   "event <stream>",
	Short: "Print the canary event that would be posted for a stream",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		_, factory, _, err := buildCollaborators(ctx)
		if err != nil {
			return err
		}

		streamName := args[0]
		example, _, err := factory.Stream(streamName).ExampleEvent(ctx)
		if err != nil {
			return err
		}

		event, err := canary.AssembleEvent(streamName, example)
		if err != nil {
			return err
		}
		return printJSON(event)
	},
}

func printJSON(value any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

func init() {
	rootCmd.AddCommand(streamsCmd)
	rootCmd.AddCommand(topicsCmd)
	rootCmd.AddCommand(eventCmd)
}
