package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/matzehuels/ifcwatch/pkg/inspect"
)

func (c *CLI) geometryCommand() *cobra.Command {
	var (
		width   int
		noColor bool
	)

	cmd := &cobra.Command{
		Use:   "geometry <node.json|->",
		Short: "Print a geometry-summary node",
		Long: `Print a geometry-summary node from its JSON state:

  {"label": "...", "status": "working", "progress": {"percentage": 40},
   "properties": {"elementType": "IfcWall", "includeOpenings": "true",
   "useActualGeometry": false}, "elements": [...]}

While the node is working only the loading indicator is shown; a failed node
shows its error instead of the settings.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := loadGeometryNode(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			if noColor || !*c.cfg.Display.Color {
				lipgloss.SetColorProfile(termenv.Ascii)
			}
			o := drawOptions{}
			if width > 0 {
				o.width = c.cells(max(width, inspect.MinWidth))
			}
			view := inspect.RenderGeometry(n)
			loggerFromContext(cmd.Context()).Debug("geometry node",
				"label", view.Label, "status", view.Projection.Status, "visible", view.Projection.Visible)
			fmt.Fprintln(cmd.OutOrStdout(), drawGeometry(view, o))
			return nil
		},
	}

	cmd.Flags().IntVar(&width, "width", 0, "node width in canvas pixels (0 sizes to content)")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colors")

	return cmd
}
