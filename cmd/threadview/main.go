package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/idursun/threadview/internal/config"
	"github.com/idursun/threadview/internal/logger"
	"github.com/idursun/threadview/internal/readstate"
	"github.com/idursun/threadview/internal/schedule"
	"github.com/idursun/threadview/internal/topic"
	"github.com/idursun/threadview/internal/ui"
	"github.com/idursun/threadview/internal/ui/common"
)

var Version = "dev"

// samplePosts is the size of the demo topic shown without a topic file.
const samplePosts = 200

// settlePasses bounds the debounced ticks a one-shot render waits for.
const settlePasses = 10

type options struct {
	Debug   bool
	LogFile string
	Dump    bool
	Width   int
	Height  int
}

func main() {
	var opts options
	rootCmd := newRootCmd(&opts)
	if err := fang.Execute(context.Background(), rootCmd,
		fang.WithVersion(Version),
	); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "threadview [flags] [topic.yaml]",
		Short: "Read long discussion threads in the terminal",
		Long: `threadview renders a forum topic as a scrollable post stream. Posts far
from the screen are replaced by placeholders of the same height so very long
topics stay fast.`,
		Example: `  # Read a topic exported to YAML
  threadview topic.yaml

  # Show a generated demo topic
  threadview

  # Print a single frame, e.g. for a pager
  threadview --dump --width 100 --height 40 topic.yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 1 {
				path = args[0]
			}
			return run(cmd.Context(), cmd.OutOrStdout(), path, *opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Debug, "debug", "d", false, "Enable debug logging")
	cmd.Flags().StringVar(&opts.LogFile, "log-file", "", "Path to the log file (default "+logger.DefaultLogPath+")")
	cmd.Flags().BoolVar(&opts.Dump, "dump", false, "Print one frame to stdout and exit")
	cmd.Flags().IntVar(&opts.Width, "width", 80, "Frame width used by --dump")
	cmd.Flags().IntVar(&opts.Height, "height", 24, "Frame height used by --dump")
	return cmd
}

func run(ctx context.Context, out io.Writer, path string, opts options) error {
	if opts.LogFile != "" {
		if err := logger.Init(opts.LogFile); err != nil {
			return err
		}
	}
	defer logger.Close()
	logger.SetDebug(opts.Debug)
	log := logger.ComponentLogger("main")

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	colors, err := cfg.ResolveTheme()
	if err != nil {
		return fmt.Errorf("failed to load theme: %w", err)
	}
	common.DefaultPalette.Update(colors)
	if cfg.Site.Username == "" {
		cfg.Site.Username = os.Getenv("USER")
	}

	t, err := loadTopic(path)
	if err != nil {
		return err
	}
	reload := reloader(path, t)

	if opts.Dump || !isatty.IsTerminal(os.Stdout.Fd()) {
		frame := dump(cfg, t, reload, opts.Width, opts.Height)
		if !isatty.IsTerminal(os.Stdout.Fd()) {
			frame = ansi.Strip(frame)
		}
		_, err := fmt.Fprintln(out, frame)
		return err
	}

	loop := schedule.NewLoop()
	uiOpts := []ui.Option{ui.WithScheduler(loop), ui.WithReload(reload)}
	if store := openReadState(cfg, t); store != nil {
		defer store.Close()
		uiOpts = append(uiOpts, ui.WithScreenTrack(store), ui.WithReadState(store.IsRead))
		log.Info("read state loaded", "topic", t.ID, "read", store.ReadCount(), "last_read", store.LastRead())
	}

	m := ui.NewUI(cfg, t, uiOpts...)
	defer m.Close()
	p := tea.NewProgram(ui.New(m), tea.WithContext(ctx))
	loop.Attach(p.Send)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running app: %w", err)
	}
	return nil
}

func loadTopic(path string) (*topic.Topic, error) {
	if path == "" {
		return topic.Sample(samplePosts, time.Now()), nil
	}
	return topic.Load(path)
}

// reloader reads a post again from the topic file. The demo topic has no
// source, so its posts reload as they are.
func reloader(path string, t *topic.Topic) func(int) (topic.Post, error) {
	return func(number int) (topic.Post, error) {
		source := t
		if path != "" {
			fresh, err := topic.Load(path)
			if err != nil {
				return topic.Post{}, err
			}
			source = fresh
		}
		p, ok := source.Post(number)
		if !ok {
			return topic.Post{}, fmt.Errorf("%w %d", topic.ErrUnknownPost, number)
		}
		return p, nil
	}
}

// openReadState opens the read-state store. Reading works without it, so
// failures are only logged.
func openReadState(cfg *config.Config, t *topic.Topic) *readstate.Store {
	log := logger.ComponentLogger("main")
	path := cfg.ReadState.Path
	if path == "" {
		var err error
		if path, err = readstate.DefaultPath(); err != nil {
			log.Warn("no read state location", "err", err)
			return nil
		}
	}
	store, err := readstate.Open(path, t.ID)
	if err != nil {
		log.Warn("read state unavailable", "path", path, "err", err)
		return nil
	}
	return store
}

// dump renders one settled frame without a terminal.
func dump(cfg *config.Config, t *topic.Topic, reload func(int) (topic.Post, error), width, height int) string {
	sched := schedule.NewManual()
	m := ui.NewUI(cfg, t, ui.WithScheduler(sched), ui.WithReload(reload))
	defer m.Close()
	m.Init()
	m.Update(tea.WindowSizeMsg{Width: width, Height: height})
	for range settlePasses {
		sched.Advance(cfg.Viewport.DebounceInterval())
	}
	return m.Render()
}
