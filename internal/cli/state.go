package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/matzehuels/ifcwatch/pkg/format"
	"github.com/matzehuels/ifcwatch/pkg/inspect"
	"github.com/matzehuels/ifcwatch/pkg/payload"
)

func (c *CLI) stateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect or reset persisted node data",
		Long: `Inspect or reset the data ifcwatch keeps per node: label, display mode
(properties.displayMode) and size (width, height).`,
	}

	cmd.AddCommand(c.stateListCommand())
	cmd.AddCommand(c.stateGetCommand())
	cmd.AddCommand(c.stateSetModeCommand())
	cmd.AddCommand(c.stateResetCommand())

	return cmd
}

func (c *CLI) stateListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List nodes with stored data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			ids, err := store.List(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(ids) == 0 {
				printInfo(out, "No stored nodes")
				return nil
			}
			for _, id := range ids {
				fmt.Fprintln(out, id)
			}
			return nil
		},
	}
}

func (c *CLI) stateGetCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:               "get <node>",
		Short:             "Show a node's stored data",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeNode,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			data, err := store.Get(ctx, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				if data == nil {
					data = map[string]any{}
				}
				fmt.Fprintln(out, payload.MustSerialize(data))
				return nil
			}
			if data == nil {
				printInfo(out, "No stored data for %s", args[0])
				return nil
			}

			size := inspect.VisualStateFrom(data)
			fmt.Fprintln(out, StyleTitle.Render(args[0]))
			printKeyValue(out, "mode", inspect.ModeFromNodeData(data).Label())
			printKeyValue(out, "size", fmt.Sprintf("%d × %d", size.Width, size.Height))

			keys := make([]string, 0, len(data))
			for k := range data {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				printKeyValue(out, k, format.Value(data[k], format.Options{MaxLength: 60}))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw stored document")

	return cmd
}

func (c *CLI) stateSetModeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set-mode <node> <table|raw|summary>",
		Short:             "Set a node's display mode",
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: c.completeNodeThenMode,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := inspect.ParseMode(args[1])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			store, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			if _, err := store.Update(ctx, args[0], func(data map[string]any) map[string]any {
				return inspect.WithMode(data, mode)
			}); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "%s now shows %s", args[0], mode.Label())
			return nil
		},
	}
}

func (c *CLI) stateResetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reset <node>...",
		Short:             "Delete stored node data",
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: c.completeNodes,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			for _, id := range args {
				if err := store.Delete(ctx, id); err != nil {
					return err
				}
				printSuccess(out, "Reset %s", id)
			}
			return nil
		},
	}
}
