package cli

import (
	"context"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/matzehuels/ifcwatch/pkg/cache"
	"github.com/matzehuels/ifcwatch/pkg/feed"
	"github.com/matzehuels/ifcwatch/pkg/inspect"
)

func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr     string
		cacheDir string
		noCache  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Accept node payloads and status over HTTP",
		Long: `Run the HTTP feed. An upstream pipeline pushes payloads and status to nodes;
every node can be fetched as data, as a rendered frame, or as its full
serialized value. Node data (mode, size, label) is kept in the configured
state store, so interactive hosts sharing that store see the same nodes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = c.cfg.Feed.Addr
			}
			if cacheDir == "" {
				cacheDir = c.cfg.Feed.CacheDir
			}
			return c.runServe(cmd, addr, cacheDir, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, "+defaultFeedAddr+")")
	cmd.Flags().StringVar(&cacheDir, "cache-dir", "", "keep rendered frames in this directory instead of memory")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "render every frame request")

	return cmd
}

func (c *CLI) runServe(cmd *cobra.Command, addr, cacheDir string, noCache bool) error {
	ctx := cmd.Context()
	store, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	// Rendered frames go to HTTP clients, not this terminal.
	lipgloss.SetColorProfile(termenv.Ascii)

	hub := feed.NewHub(store)
	srv := feed.NewServer(hub, c.feedRender, loggerFromContext(ctx))
	frames, err := openFrameCache(cacheDir, noCache)
	if err != nil {
		return err
	}
	defer frames.Close()
	srv.CacheFrames(frames, feed.DefaultFrameTTL)

	out := cmd.OutOrStdout()
	printInfo(out, "Feed on http://%s (state: %s)", addr, c.cfg.State.Backend)
	printDetail(out, "PUT  /nodes/{id}/input   payload (JSON or YAML)")
	printDetail(out, "PUT  /nodes/{id}/status  {\"status\", \"progress\", \"error\"}")
	printDetail(out, "PUT  /nodes/{id}/mode    {\"mode\": \"table|raw|summary\"}")
	printDetail(out, "GET  /nodes/{id}/render  plain-text frame")
	printNextStep(out, "Push a payload", "curl -X PUT --data-binary @walls.json http://"+addr+"/nodes/watch-1/input")

	return srv.ListenAndServe(ctx, addr)
}

// openFrameCache picks where /render keeps frames.
func openFrameCache(dir string, disabled bool) (cache.Cache, error) {
	switch {
	case disabled:
		return cache.NullCache{}, nil
	case dir == "":
		return cache.NewMemoryCache(0), nil
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return nil, err
	}
	return fc, nil
}

// feedRender draws a feed snapshot the way render prints a payload file.
func (c *CLI) feedRender(ctx context.Context, snap feed.Snapshot, width int) string {
	label, _ := snap.Data["label"].(string)
	return c.renderText(ctx, watchNode{
		label:  label,
		input:  snap.Input,
		mode:   inspect.ModeFromNodeData(snap.Data),
		status: snap.Status,
	}, width)
}
