package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"product_advisor/internal/core"
	"product_advisor/internal/server"
	"product_advisor/internal/storage"
	"product_advisor/pkg"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp() *cli.App {
	app := &cli.App{
		Name:    "product-advisor",
		Usage:   "Conversational product recommendation assistant",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Value: "config.yaml", Usage: "Path to the YAML config file"},
		},
		Commands: []*cli.Command{
			serveCmd(),
			chatCmd(),
			searchCmd(),
			seedCmd(),
			exportCmd(),
			toolCmd(),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// withApplication wires the components for one command run
func withApplication(c *cli.Context, autoSeed bool, fn func(app *application) error) error {
	app, err := newApplication(c.Context, c.String("config"), autoSeed)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	defer app.Close()
	return fn(app)
}

// serveCmd creates the serve command.
func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Usage: "Listen host (overrides config)"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "Listen port (overrides config)"},
		},
		Action: func(c *cli.Context) error {
			return withApplication(c, true, func(app *application) error {
				cfg := &server.Config{Host: app.config.HTTP.Host, Port: app.config.HTTP.Port}
				if c.IsSet("host") {
					cfg.Host = c.String("host")
				}
				if c.IsSet("port") {
					cfg.Port = c.Int("port")
				}

				srv, err := server.NewServer(app.advisor, app.registry, cfg)
				if err != nil {
					return cli.Exit(err.Error(), 1)
				}
				srv.RegisterTools(app.tools)

				ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
				defer stop()

				errCh := make(chan error, 1)
				go func() { errCh <- srv.Start() }()

				select {
				case err := <-errCh:
					if err != nil && !errors.Is(err, http.ErrServerClosed) {
						return cli.Exit(err.Error(), 1)
					}
					return nil
				case <-ctx.Done():
				}

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})
		},
	}
}

// chatCmd creates the interactive chat command.
func chatCmd() *cli.Command {
	return &cli.Command{
		Name:  "chat",
		Usage: "Chat with the advisor from the terminal (reads lines from stdin)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "session", Aliases: []string{"s"}, Usage: "Session id (defaults to a new uuid)"},
		},
		Action: func(c *cli.Context) error {
			return withApplication(c, true, func(app *application) error {
				sessionID := c.String("session")
				if sessionID == "" {
					sessionID = uuid.NewString()
				}
				return runChat(c.Context, app.advisor, sessionID, c.App.Reader, c.App.Writer)
			})
		},
	}
}

// runChat reads one utterance per line until EOF or "quit"; "reset" forgets the session
func runChat(ctx context.Context, advisor *core.Orchestrator, sessionID string, in io.Reader, out io.Writer) error {
	fmt.Fprintf(out, "Session %s (backend: %s). Type 'reset' to start over or 'quit' to exit.\n", sessionID, advisor.Backend())

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.EqualFold(line, "quit") || strings.EqualFold(line, "exit") {
			return nil
		}
		if strings.EqualFold(line, "reset") {
			if _, err := advisor.Reset(ctx, sessionID); err != nil {
				fmt.Fprintf(out, "(warning: %v)\n", err)
				continue
			}
			fmt.Fprintln(out, "Session cleared. What are you looking for?")
			continue
		}

		result, err := advisor.HandleTurn(ctx, sessionID, line)
		if err != nil {
			fmt.Fprintf(out, "(warning: %v)\n", err)
		}
		fmt.Fprintln(out, result.Reply)
	}
}

// searchCmd creates the direct search command.
func searchCmd() *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search the catalog directly, bypassing the dialogue",
		Flags: []cli.Flag{
			&cli.Float64Flag{Name: "budget", Aliases: []string{"b"}, Usage: "Maximum price"},
			&cli.StringFlag{Name: "category", Usage: "Exact category"},
			&cli.StringFlag{Name: "purpose", Usage: "Use case keyword"},
			&cli.StringFlag{Name: "brand", Usage: "Brand keyword"},
			&cli.IntFlag{Name: "ram", Usage: "Minimum RAM in GB"},
			&cli.IntFlag{Name: "storage", Usage: "Minimum storage in GB"},
		},
		Action: func(c *cli.Context) error {
			return withApplication(c, true, func(app *application) error {
				var record pkg.PreferenceRecord
				if c.IsSet("budget") {
					record.Budget = pkg.Float(c.Float64("budget"))
				}
				if c.IsSet("ram") {
					record.MemorySize = pkg.Int(c.Int("ram"))
				}
				if c.IsSet("storage") {
					record.StorageSize = pkg.Int(c.Int("storage"))
				}
				record.Category = c.String("category")
				record.Purpose = pkg.Purpose(c.String("purpose"))
				record.BrandPreference = c.String("brand")

				products, err := app.advisor.SearchDirect(c.Context, record)
				if err != nil {
					return cli.Exit(err.Error(), 1)
				}
				if products == nil {
					products = []pkg.ProductRecord{}
				}
				return outputJSON(c.App.Writer, products)
			})
		},
	}
}

// seedCmd creates the seed command.
func seedCmd() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "Load products into an empty catalog",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "JSON product file (defaults to the built-in catalog)"},
		},
		Action: func(c *cli.Context) error {
			return withApplication(c, false, func(app *application) error {
				var (
					products []pkg.ProductRecord
					err      error
				)
				if file := c.String("file"); file != "" {
					products, err = storage.LoadProducts(file)
				} else {
					products, err = storage.SeedProducts()
				}
				if err != nil {
					return cli.Exit(err.Error(), 1)
				}

				n, err := storage.Seed(c.Context, app.catalog, products)
				if err != nil {
					return cli.Exit(err.Error(), 1)
				}
				return outputJSON(c.App.Writer, map[string]int{"inserted": n})
			})
		},
	}
}

// exportCmd creates the export command.
func exportCmd() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export the catalog as JSON",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Required: true, Usage: "Output file"},
		},
		Action: func(c *cli.Context) error {
			return withApplication(c, false, func(app *application) error {
				products, err := app.catalog.All(c.Context)
				if err != nil {
					return cli.Exit(err.Error(), 1)
				}
				if err := storage.ExportProducts(c.String("out"), products); err != nil {
					return cli.Exit(err.Error(), 1)
				}
				return outputJSON(c.App.Writer, map[string]any{"exported": len(products), "path": c.String("out")})
			})
		},
	}
}

// toolCmd creates the agent tool command.
func toolCmd() *cli.Command {
	return &cli.Command{
		Name:      "tool",
		Usage:     "Run an agent tool against the catalog",
		ArgsUsage: "<name> [json-arguments]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "list", Aliases: []string{"l"}, Usage: "List the available tools"},
		},
		Action: func(c *cli.Context) error {
			return withApplication(c, true, func(app *application) error {
				if c.Bool("list") {
					names := make([]string, 0, len(app.tools.Infos()))
					for _, info := range app.tools.Infos() {
						names = append(names, info.Name)
					}
					return outputJSON(c.App.Writer, names)
				}

				if c.NArg() == 0 {
					return cli.Exit("tool name is required", 1)
				}
				output, err := app.tools.Run(c.Context, c.Args().First(), c.Args().Get(1))
				if err != nil {
					return cli.Exit(err.Error(), 1)
				}
				_, err = fmt.Fprintln(c.App.Writer, output)
				return err
			})
		},
	}
}

// outputJSON writes v as indented JSON.
func outputJSON(w io.Writer, v any) error {
	data, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
