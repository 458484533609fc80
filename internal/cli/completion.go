package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/ifcwatch/pkg/nodestate"
)

// Values offered when completing enumerated flags and arguments.
var (
	modeNames   = []string{"table", "raw", "summary"}
	statusNames = []string{"idle", "working", "success", "error"}
	kindNames   = []string{"array", "object", "primitive", "propertyResults"}
)

// completionCommand prints a shell completion script. Node IDs, display
// modes and payload kinds complete dynamically.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate a shell completion script for ifcwatch.

Node IDs complete from the configured state store, so "ifcwatch state get <TAB>"
lists the nodes with stored data.

  $ source <(ifcwatch completion bash)
  $ ifcwatch completion zsh > "${fpath[1]}/_ifcwatch"
  $ ifcwatch completion fish > ~/.config/fish/completions/ifcwatch.fish
  PS> ifcwatch completion powershell | Out-String | Invoke-Expression`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(out, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
}

// completeValues offers a fixed set of values for a flag.
func completeValues(values []string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return withPrefix(values, toComplete, nil), cobra.ShellCompDirectiveNoFileComp
	}
}

// completeNodes offers the IDs of nodes with stored data, skipping those
// already given. Completion runs without the root's pre-run, so it loads
// the config itself.
func (c *CLI) completeNodes(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if err := c.setup(cmd, args); err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	ctx := cmd.Context()
	store, err := nodestate.Open(ctx, c.cfg.storeConfig())
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	defer store.Close()

	ids, err := store.List(ctx)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	return withPrefix(ids, toComplete, args), cobra.ShellCompDirectiveNoFileComp
}

// completeNode completes the single node argument.
func (c *CLI) completeNode(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return c.completeNodes(cmd, args, toComplete)
}

// completeNodeThenMode completes "<node> <mode>" argument pairs.
func (c *CLI) completeNodeThenMode(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	switch len(args) {
	case 0:
		return c.completeNodes(cmd, args, toComplete)
	case 1:
		return withPrefix(modeNames, toComplete, nil), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

func withPrefix(values []string, prefix string, exclude []string) []string {
	var out []string
	for _, v := range values {
		if !strings.HasPrefix(v, prefix) {
			continue
		}
		skip := false
		for _, e := range exclude {
			if e == v {
				skip = true
				break
			}
		}
		if !skip {
			out = append(out, v)
		}
	}
	return out
}
