package main

import (
	"bufio"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/hamper/internal/api"
	"github.com/hpungsan/hamper/internal/errors"
	"github.com/hpungsan/hamper/internal/intake"
	"github.com/hpungsan/hamper/internal/laundry"
	"github.com/hpungsan/hamper/internal/mcp"
	"github.com/hpungsan/hamper/internal/ops"
	"github.com/hpungsan/hamper/internal/web"
)

// newCLIApp creates the CLI application with all commands. env and client
// may be nil when only help or version output is needed.
func newCLIApp(env *ops.Env, client *api.Client) *cli.App {
	app := &cli.App{
		Name:    "hamper",
		Usage:   "Care-label reader and laundry basket",
		Version: Version,
		Commands: []*cli.Command{
			captureCmd(env),
			basketCmd(env),
			solveCmd(env),
			hamperCmd(env),
			symbolsCmd(env),
			chatCmd(client),
			loginCmd(client),
			logoutCmd(client),
			meCmd(client),
			serveCmd(env),
			mcpCmd(env),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// filterFlags are shared by the commands that select records by attribute.
func filterFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Usage: "Filter by garment type"},
		&cli.StringFlag{Name: "material", Usage: "Filter by material"},
		&cli.StringFlag{Name: "symbol", Usage: "Filter by care symbol code"},
	}
}

func filterFrom(c *cli.Context) ops.Filter {
	return ops.Filter{
		Type:     c.String("type"),
		Material: c.String("material"),
		Symbol:   c.String("symbol"),
	}
}

// captureCmd runs one capture flow end to end: analyze the label, optionally
// attach a garment photo and corrections, then confirm and save.
func captureCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "capture",
		Usage: "Analyze a care-label photo and save the result to the basket",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "label", Aliases: []string{"l"}, Required: true, Usage: "Care-label photo"},
			&cli.StringFlag{Name: "clothes", Aliases: []string{"c"}, Usage: "Garment photo (optional)"},
			&cli.StringFlag{Name: "type", Usage: "Override the detected garment type"},
			&cli.StringFlag{Name: "color", Usage: "Override the detected color"},
			&cli.StringFlag{Name: "materials", Usage: "Override materials (comma-separated)"},
			&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Save without asking"},
		},
		Action: func(c *cli.Context) error {
			ctx := c.Context
			label, err := intake.FromPath(c.String("label"))
			if err != nil {
				return outputError(err)
			}

			analysis, err := ops.AnalyzeLabel(ctx, env, ops.AnalyzeInput{File: label})
			if err != nil {
				return outputError(err)
			}
			for _, code := range analysis.Unknown {
				fmt.Fprintf(c.App.ErrWriter, "warning: unknown care symbol %q\n", code)
			}

			if path := c.String("clothes"); path != "" {
				clothes, err := intake.FromPath(path)
				if err != nil {
					return outputError(err)
				}
				if _, err := ops.AttachClothes(ctx, env, ops.AttachClothesInput{File: clothes}); err != nil {
					return outputError(err)
				}
			}

			if patch := capturePatch(c); !patch.IsEmpty() {
				if _, err := ops.EditDraft(env, patch); err != nil {
					return outputError(err)
				}
			}

			d, err := ops.ConfirmDraft(env)
			if err != nil {
				return outputError(err)
			}

			if !c.Bool("yes") {
				if err := outputJSON(c, d.Garment); err != nil {
					return err
				}
				if !ask(c, "Save to basket?") {
					ops.CancelDraft(env)
					return outputJSON(c, map[string]any{"saved": false, "flowId": d.FlowID})
				}
			}

			out, err := ops.CommitDraft(ctx, env)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, out)
		},
	}
}

func capturePatch(c *cli.Context) laundry.GarmentPatch {
	var patch laundry.GarmentPatch
	if c.IsSet("type") {
		v := c.String("type")
		patch.Type = &v
	}
	if c.IsSet("color") {
		v := c.String("color")
		patch.Color = &v
	}
	if c.IsSet("materials") {
		patch.Materials = splitList(c.String("materials"))
	}
	return patch
}

// basketCmd groups the stored-record commands.
func basketCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "basket",
		Usage: "Browse and manage saved laundry",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List saved laundry, newest first",
				Flags: append(filterFlags(),
					&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: ops.DefaultListLimit, Usage: "Maximum items to return"},
					&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Usage: "Items to skip"},
				),
				Action: func(c *cli.Context) error {
					return run(c, func() (any, error) {
						return ops.List(c.Context, env.DB, ops.ListInput{
							Filter: filterFrom(c),
							Limit:  c.Int("limit"),
							Offset: c.Int("offset"),
						})
					})
				},
			},
			{
				Name:      "show",
				Usage:     "Show one record",
				ArgsUsage: "<id>",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "no-images", Usage: "Omit image payloads"},
				},
				Action: func(c *cli.Context) error {
					id, err := argID(c)
					if err != nil {
						return outputError(err)
					}
					input := ops.FetchInput{ID: id}
					if c.Bool("no-images") {
						include := false
						input.IncludeImages = &include
					}
					return run(c, func() (any, error) { return ops.Fetch(c.Context, env.DB, input) })
				},
			},
			{
				Name:  "latest",
				Usage: "Show the most recently saved record",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "full", Usage: "Include the full record"},
				},
				Action: func(c *cli.Context) error {
					return run(c, func() (any, error) {
						return ops.Latest(c.Context, env.DB, ops.LatestInput{Full: c.Bool("full")})
					})
				},
			},
			{
				Name:      "search",
				Usage:     "Search saved laundry",
				ArgsUsage: "<query>",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: ops.DefaultSearchLimit, Usage: "Maximum items to return"},
					&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Usage: "Items to skip"},
				},
				Action: func(c *cli.Context) error {
					return run(c, func() (any, error) {
						return ops.Search(c.Context, env.DB, ops.SearchInput{
							Query:  strings.Join(c.Args().Slice(), " "),
							Limit:  c.Int("limit"),
							Offset: c.Int("offset"),
						})
					})
				},
			},
			{
				Name:  "inventory",
				Usage: "Count saved laundry by type, material and symbol",
				Flags: filterFlags(),
				Action: func(c *cli.Context) error {
					return run(c, func() (any, error) {
						return ops.Inventory(c.Context, env.DB, ops.InventoryInput{Filter: filterFrom(c)})
					})
				},
			},
			{
				Name:  "add",
				Usage: "Add a record (reads {\"garment\": ..., \"solutions\": ...} JSON from stdin)",
				Action: func(c *cli.Context) error {
					var body struct {
						Garment   laundry.Garment    `json:"garment"`
						Solutions []laundry.Solution `json:"solutions"`
					}
					if err := readStdinJSON(c, &body); err != nil {
						return outputError(err)
					}
					return run(c, func() (any, error) {
						out, err := ops.Store(c.Context, env.DB, ops.StoreInput{Garment: body.Garment, Solutions: body.Solutions})
						if err == nil {
							env.Metrics.ObserveStore("add")
						}
						return out, err
					})
				},
			},
			{
				Name:      "update",
				Usage:     "Patch a record (reads patch JSON from stdin)",
				ArgsUsage: "<id>",
				Action: func(c *cli.Context) error {
					id, err := argID(c)
					if err != nil {
						return outputError(err)
					}
					var patch laundry.Patch
					if err := readStdinJSON(c, &patch); err != nil {
						return outputError(err)
					}
					return run(c, func() (any, error) {
						return ops.Update(c.Context, env.DB, ops.UpdateInput{ID: id, Patch: patch})
					})
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete records by id or by filter",
				ArgsUsage: "[id...]",
				Flags:     filterFlags(),
				Action: func(c *cli.Context) error {
					ids, err := parseIDs(c.Args().Slice())
					if err != nil {
						return outputError(err)
					}
					if len(ids) == 1 && filterFrom(c).IsEmpty() {
						return run(c, func() (any, error) {
							return ops.Delete(c.Context, env.DB, ops.DeleteInput{ID: ids[0]})
						})
					}
					return run(c, func() (any, error) {
						return ops.BulkDelete(c.Context, env.DB, ops.BulkDeleteInput{IDs: ids, Filter: filterFrom(c)})
					})
				},
			},
			{
				Name:  "clear",
				Usage: "Delete every record in the basket",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Do not ask for confirmation"},
				},
				Action: func(c *cli.Context) error {
					confirm := c.Bool("yes") || ask(c, "Delete every record in the basket?")
					return run(c, func() (any, error) {
						return ops.Clear(c.Context, env.DB, ops.ClearInput{Confirm: confirm})
					})
				},
			},
			{
				Name:  "export",
				Usage: "Write the basket to a JSONL backup",
				Flags: append(filterFlags(),
					&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Backup file path (default: ~/.hamper/exports/basket-<timestamp>.jsonl)"},
				),
				Action: func(c *cli.Context) error {
					return run(c, func() (any, error) {
						return ops.Export(c.Context, env.DB, env.Config, ops.ExportInput{Path: c.String("path"), Filter: filterFrom(c)})
					})
				},
			},
			{
				Name:  "import",
				Usage: "Restore records from a JSONL backup",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Required: true, Usage: "Backup file path"},
					&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: string(ops.ImportModeError), Usage: "Collision mode: error|replace|append"},
				},
				Action: func(c *cli.Context) error {
					return run(c, func() (any, error) {
						return ops.Import(c.Context, env.DB, env.Config, ops.ImportInput{
							Path: c.String("path"),
							Mode: ops.ImportMode(c.String("mode")),
						})
					})
				},
			},
		},
	}
}

// solveCmd creates the solve command.
func solveCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:      "solve",
		Usage:     "Fetch care instructions for a saved record",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "force", Aliases: []string{"f"}, Usage: "Regenerate existing instructions"},
		},
		Action: func(c *cli.Context) error {
			id, err := argID(c)
			if err != nil {
				return outputError(err)
			}
			return run(c, func() (any, error) {
				return ops.Solve(c.Context, env, ops.SolveInput{ID: id, Force: c.Bool("force")})
			})
		},
	}
}

// hamperCmd creates the hamper command.
func hamperCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:      "hamper",
		Usage:     "Group saved laundry into wash loads",
		ArgsUsage: "[id...]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "all", Aliases: []string{"a"}, Usage: "Use the whole basket"},
			&cli.BoolFlag{Name: "markdown", Usage: "Print a markdown plan instead of JSON"},
		},
		Action: func(c *cli.Context) error {
			ids, err := parseIDs(c.Args().Slice())
			if err != nil {
				return outputError(err)
			}
			input := ops.HamperInput{IDs: ids, All: c.Bool("all")}
			if c.Bool("markdown") {
				input.Format = "markdown"
			}

			out, err := ops.HamperSolve(c.Context, env, input)
			if err != nil {
				return outputError(err)
			}
			if c.Bool("markdown") {
				_, err := fmt.Fprintln(c.App.Writer, out.Markdown)
				return err
			}
			return outputJSON(c, out)
		},
	}
}

// symbolsCmd lists or looks up care symbols.
func symbolsCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:      "symbols",
		Usage:     "Look up care symbols",
		ArgsUsage: "[code]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "category", Usage: "Only list one category (wash, bleach, dry, iron, professional)"},
		},
		Action: func(c *cli.Context) error {
			if code := c.Args().First(); code != "" {
				entry, ok := env.Catalog.Lookup(code)
				if !ok {
					return outputError(errors.NewSymbolNotFound(code))
				}
				return outputJSON(c, entry)
			}

			category := c.String("category")
			entries := env.Catalog.List(category)
			if category != "" && len(entries) == 0 {
				return outputError(errors.NewInvalidRequest("unknown category: " + category))
			}
			return outputJSON(c, entries)
		},
	}
}

// chatCmd opens an interactive assistant conversation. Each stdin line is
// sent as a message; replies are printed as they stream in.
func chatCmd(client *api.Client) *cli.Command {
	return &cli.Command{
		Name:  "chat",
		Usage: "Talk to the laundry assistant",
		Action: func(c *cli.Context) error {
			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			session, err := client.CreateChatSession(ctx)
			if err != nil {
				return outputError(err)
			}
			events, err := client.StreamChat(ctx, session.ID)
			if err != nil {
				return outputError(err)
			}

			done := make(chan struct{})
			go func() {
				defer close(done)
				printChatEvents(c.App.Writer, events)
			}()

			scanner := bufio.NewScanner(c.App.Reader)
			for scanner.Scan() {
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}
				if line == "/quit" {
					break
				}
				if err := client.SendChatMessage(ctx, session.ID, line); err != nil {
					stop()
					<-done
					return outputError(err)
				}
			}
			stop()
			<-done
			return nil
		},
	}
}

func printChatEvents(w io.Writer, events <-chan api.ChatEvent) {
	for ev := range events {
		switch ev.Type {
		case api.EventAnswer:
			fmt.Fprintf(w, "assistant: %s\n", ev.Message)
		case api.EventSuggestions:
			for _, s := range ev.Suggestions {
				fmt.Fprintf(w, "  > %s\n", s)
			}
		case api.EventError:
			fmt.Fprintf(w, "error: %v\n", ev.Err)
		}
	}
}

// loginCmd prints the URL that starts the sign-in flow.
func loginCmd(client *api.Client) *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Print the sign-in URL, or store the session cookies from the browser",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "provider", Value: "google", Usage: "OAuth provider (google, kakao, naver)"},
			&cli.StringSliceFlag{Name: "cookie", Usage: "Session cookie as name=value (repeatable, or one Cookie header)"},
		},
		Action: func(c *cli.Context) error {
			values := c.StringSlice("cookie")
			if len(values) == 0 {
				return outputJSON(c, map[string]string{
					"url":  client.LoginURL(c.String("provider")),
					"hint": "after signing in, run: hamper login --cookie name=value",
				})
			}

			var cookies []*http.Cookie
			for _, v := range values {
				parsed, err := http.ParseCookie(v)
				if err != nil {
					return outputError(errors.NewInvalidRequest(fmt.Sprintf("invalid cookie %q: %v", v, err)))
				}
				cookies = append(cookies, parsed...)
			}
			if err := client.ImportSession(cookies); err != nil {
				return outputError(err)
			}
			return run(c, func() (any, error) { return client.Me(c.Context) })
		},
	}
}

// logoutCmd ends the remote session.
func logoutCmd(client *api.Client) *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "Sign out",
		Action: func(c *cli.Context) error {
			if err := client.Logout(c.Context); err != nil {
				return outputError(err)
			}
			return outputJSON(c, client.Auth().Get())
		},
	}
}

// meCmd shows the signed-in user.
func meCmd(client *api.Client) *cli.Command {
	return &cli.Command{
		Name:  "me",
		Usage: "Show the signed-in user",
		Action: func(c *cli.Context) error {
			return run(c, func() (any, error) { return client.Me(c.Context) })
		},
	}
}

// serveCmd starts the HTTP API.
func serveCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the basket over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Address to bind"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Value: 7878, Usage: "Port to listen on"},
		},
		Action: func(c *cli.Context) error {
			srv := web.NewServer(env, Version, c.String("bind"), c.Int("port"))
			return web.Run(srv, env.Log)
		},
	}
}

// mcpCmd starts the MCP server on stdio explicitly.
func mcpCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Run the MCP server on stdio",
		Action: func(c *cli.Context) error {
			return mcp.Run(env, Version)
		},
	}
}

// Helper functions

// run executes fn and prints its result or error.
func run(c *cli.Context, fn func() (any, error)) error {
	out, err := fn()
	if err != nil {
		return outputError(err)
	}
	return outputJSON(c, out)
}

// outputJSON marshals result to the app's writer as JSON.
func outputJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return cli.Exit("cancelled", 1)
	}
	hErr := errors.As(err)
	if hErr.Code == errors.ErrInternal {
		return cli.Exit(fmt.Sprintf("[%s] %v", hErr.Code, err), 1)
	}
	return cli.Exit(fmt.Sprintf("[%s] %s", hErr.Code, hErr.Message), 1)
}

// ask prompts on stderr and reads a yes/no answer from the app's reader.
func ask(c *cli.Context, question string) bool {
	fmt.Fprintf(c.App.ErrWriter, "%s [y/N] ", question)
	line, err := bufio.NewReader(c.App.Reader).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// readStdinJSON decodes one JSON document from the app's reader.
func readStdinJSON(c *cli.Context, v any) error {
	if f, ok := c.App.Reader.(*os.File); ok && !stdinHasData(f) {
		return errors.NewInvalidRequest("JSON input must be piped via stdin")
	}
	if err := json.NewDecoder(c.App.Reader).Decode(v); err != nil {
		if stderrors.Is(err, io.EOF) {
			return errors.NewInvalidRequest("JSON input is required")
		}
		return errors.NewInvalidRequest(fmt.Sprintf("invalid JSON input: %v", err))
	}
	return nil
}

// stdinHasData returns true if f has piped data (not a terminal).
func stdinHasData(f *os.File) bool {
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// argID parses the first positional argument as a record id.
func argID(c *cli.Context) (int64, error) {
	if c.NArg() == 0 {
		return 0, errors.NewInvalidRequest("id is required")
	}
	ids, err := parseIDs(c.Args().Slice()[:1])
	if err != nil {
		return 0, err
	}
	return ids[0], nil
}

// parseIDs parses positive integer ids.
func parseIDs(args []string) ([]int64, error) {
	if len(args) == 0 {
		return nil, nil
	}
	ids := make([]int64, 0, len(args))
	for _, a := range args {
		id, err := strconv.ParseInt(strings.TrimSpace(a), 10, 64)
		if err != nil || id <= 0 {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid id %q", a))
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// splitList splits a comma-separated string, dropping empty entries.
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
