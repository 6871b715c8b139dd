package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v2"

	"github.com/satchel-kb/satchel/internal/config"
	"github.com/satchel-kb/satchel/internal/entry"
	"github.com/satchel-kb/satchel/internal/keybind"
	"github.com/satchel-kb/satchel/internal/list"
	"github.com/satchel-kb/satchel/internal/mutation"
	"github.com/satchel-kb/satchel/internal/notify"
	"github.com/satchel-kb/satchel/internal/persist"
	"github.com/satchel-kb/satchel/internal/prefs"
	"github.com/satchel-kb/satchel/internal/procedure"
	"github.com/satchel-kb/satchel/internal/query"
	"github.com/satchel-kb/satchel/internal/tui"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp() *cli.App {
	app := &cli.App{
		Name:    "satchel",
		Usage:   "Terminal client for a satchel knowledge base",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "server", Usage: "Procedure server address (overrides config)"},
			&cli.StringFlag{Name: "workspace", Aliases: []string{"w"}, Usage: "Workspace slug (overrides config)"},
		},
		Commands: []*cli.Command{
			browseCmd(),
			listCmd(),
			searchCmd(),
			deleteCmd(),
			requeueCmd(),
		},
		// Running without a subcommand opens the browser.
		Action: runBrowse,
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// session is the composition root: everything a command needs, built from
// config plus command-line overrides.
type session struct {
	cfg    *config.Config
	kv     persist.KV
	client *procedure.Client
	cache  *query.Cache
}

func newSession(c *cli.Context) (*session, error) {
	baseDir, err := config.BaseDir()
	if err != nil {
		return nil, fmt.Errorf("failed to determine base directory: %w", err)
	}
	cfg, err := config.Load(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if s := c.String("server"); s != "" {
		cfg.ServerAddr = s
	}
	if w := c.String("workspace"); w != "" {
		cfg.Workspace = w
	}
	if cfg.Workspace == "" {
		return nil, fmt.Errorf("no workspace configured: pass --workspace or set it in config.json")
	}

	endpoint := strings.TrimRight(cfg.ServerAddr, "/") + "/api/v1/procedure"
	return &session{
		cfg:    cfg,
		kv:     persist.OpenOrMemory(baseDir),
		client: procedure.New(endpoint, nil),
		cache:  query.New(),
	}, nil
}

func (s *session) staleTime() time.Duration {
	return time.Duration(s.cfg.StaleTimeSeconds) * time.Second
}

func (s *session) entriesFetch(ctx context.Context) (any, error) {
	payload := map[string]any{"workspace_slug": s.cfg.Workspace}
	page, err := s.client.ListAllEntries(ctx, procedure.ListWorkspaceEntries, payload)
	if err != nil {
		return nil, err
	}
	return page, nil
}

// systemClipboard adapts the OS clipboard to the bridge contract.
type systemClipboard struct{}

func (systemClipboard) WriteAll(text string) error { return clipboard.WriteAll(text) }

// browseCmd opens the interactive entries browser.
func browseCmd() *cli.Command {
	return &cli.Command{
		Name:   "browse",
		Usage:  "Browse workspace entries interactively",
		Action: runBrowse,
	}
}

func runBrowse(c *cli.Context) error {
	s, err := newSession(c)
	if err != nil {
		return err
	}

	_, wsState, err := prefs.Open(s.kv)
	if err != nil {
		return fmt.Errorf("failed to open preference stores: %w", err)
	}

	router := keybind.NewRouter()
	router.Disable(s.cfg.DisabledChords)

	model := tui.NewModel(tui.Options{
		Cache:          s.cache,
		Client:         s.client,
		Controller:     list.NewController(),
		Router:         router,
		Notifier:       &notify.Recorder{},
		Clipboard:      systemClipboard{},
		Workspace:      s.cfg.Workspace,
		LinkBase:       s.cfg.LinkBase(),
		WorkspaceState: wsState,
		StaleTime:      s.staleTime(),
		Retries:        s.cfg.QueryRetries,
	})

	_, err = tea.NewProgram(model, tea.WithAltScreen()).Run()
	return err
}

// listCmd prints workspace entries as JSON, after the same filter and sort
// pipeline the browser uses.
func listCmd() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List workspace entries as JSON",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "status", Usage: "Filter by status (repeatable)"},
			&cli.StringSliceFlag{Name: "type", Usage: "Filter by entry type (repeatable)"},
			&cli.StringFlag{Name: "collection", Usage: "Filter by collection id"},
			&cli.StringFlag{Name: "sort", Value: "default", Usage: "Sort order: default|newest|oldest|name_asc|name_desc|collection_asc|collection_desc"},
		},
		Action: func(c *cli.Context) error {
			s, err := newSession(c)
			if err != nil {
				return err
			}

			data, err := s.cache.Fetch(c.Context, query.WorkspaceEntriesKey(s.cfg.Workspace),
				s.entriesFetch, query.Options{Retry: query.RetryPolicy{Count: s.cfg.QueryRetries}})
			if err != nil {
				return err
			}
			page := data.(entry.Page)

			ctrl := list.NewController()
			for _, v := range c.StringSlice("status") {
				ctrl.ToggleFilter(entry.Filter{Kind: entry.FilterStatus, Value: v})
			}
			for _, v := range c.StringSlice("type") {
				ctrl.ToggleFilter(entry.Filter{Kind: entry.FilterType, Value: v})
			}
			if v := c.String("collection"); v != "" {
				ctrl.ToggleFilter(entry.Filter{Kind: entry.FilterCollection, Value: v})
			}
			ctrl.SetSortBy(entry.SortBy(c.String("sort")))

			return outputJSON(ctrl.Apply(page.Entries))
		},
	}
}

// searchCmd runs a server-side search and prints the ranked results.
func searchCmd() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search entries in the workspace",
		ArgsUsage: "<term>",
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return fmt.Errorf("search term is required")
			}
			s, err := newSession(c)
			if err != nil {
				return err
			}
			term := strings.Join(c.Args().Slice(), " ")

			fetch := func(ctx context.Context) (any, error) {
				var page entry.Page
				payload := map[string]any{"workspace_slug": s.cfg.Workspace, "term": term}
				if err := s.client.Query(ctx, procedure.SearchEntries, payload, &page); err != nil {
					return nil, err
				}
				return page, nil
			}
			data, err := s.cache.Fetch(c.Context, query.SearchKey(s.cfg.Workspace, term),
				fetch, query.Options{Retry: query.RetryPolicy{Count: s.cfg.QueryRetries}})
			if err != nil {
				return err
			}
			// Server rank is the order; no client-side sort.
			return outputJSON(data.(entry.Page).Entries)
		},
	}
}

// deleteCmd deletes entries by id.
func deleteCmd() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete entries by id",
		ArgsUsage: "<id> [id...]",
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return fmt.Errorf("at least one entry id is required")
			}
			s, err := newSession(c)
			if err != nil {
				return err
			}

			m := mutation.New(procedure.DeleteEntries, s.client, s.cache, notify.Log{}, mutation.Options{
				Invalidates:    mutation.Keys([]string{procedure.ListWorkspaceEntries, s.cfg.Workspace}),
				SuccessMessage: fmt.Sprintf("Deleted %d entrie(s)", c.NArg()),
			})
			_, err = m.Call(c.Context, map[string]any{"ids": c.Args().Slice()})
			return err
		},
	}
}

// requeueCmd re-queues failed entries for processing.
func requeueCmd() *cli.Command {
	return &cli.Command{
		Name:      "requeue",
		Usage:     "Requeue entries for processing",
		ArgsUsage: "<id> [id...]",
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return fmt.Errorf("at least one entry id is required")
			}
			s, err := newSession(c)
			if err != nil {
				return err
			}

			m := mutation.New(procedure.RequeueEntries, s.client, s.cache, notify.Log{}, mutation.Options{
				Invalidates: mutation.Keys([]string{procedure.ListWorkspaceEntries, s.cfg.Workspace}),
			})
			_, err = m.Call(c.Context, map[string]any{"ids": c.Args().Slice()})
			return err
		},
	}
}

// outputJSON writes indented JSON to stdout.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
