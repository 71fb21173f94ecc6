package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/techdocs/internal"
	"github.com/starford/techdocs/internal/convert"
	"github.com/starford/techdocs/internal/markdown"
	"github.com/starford/techdocs/internal/models"
	pkgconfig "github.com/starford/techdocs/pkg/config"
)

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:        "config",
		Aliases:     []string{"c"},
		Usage:       "Path to config file",
		DefaultText: "config/config.yaml",
		Value:       "config/config.yaml",
		Sources:     cli.EnvVars("APP_CONFIG_FILE"),
	}
}

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if _, err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunMCP(ctx, internal.WithConfig(cfg))
}

// readInput reads the file named by the first argument, or stdin for "-"
// or no argument.
func readInput(cmd *cli.Command) (string, error) {
	name := cmd.Args().First()
	if name == "" || name == "-" {
		data, err := io.ReadAll(os.Stdin)
		return string(data), err
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func render(_ context.Context, cmd *cli.Command) error {
	src, err := readInput(cmd)
	if err != nil {
		return err
	}
	nodes := markdown.Parse(src)
	if cmd.Bool("json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(nodes)
	}
	_, err = fmt.Fprintln(os.Stdout, markdown.RenderHTML(nodes))
	return err
}

func convertCmd(_ context.Context, cmd *cli.Command) error {
	to := models.Format(cmd.String("to"))
	if !to.Valid() {
		return fmt.Errorf("--to must be %s or %s", models.FormatMarkdown, models.FormatWord)
	}
	from := models.FormatWord
	if to == models.FormatWord {
		from = models.FormatMarkdown
	}
	src, err := readInput(cmd)
	if err != nil {
		return err
	}
	out := convert.Toggle(src, from, to)
	if to == models.FormatWord {
		out = convert.NewSanitizer().Sanitize(out)
	}
	_, err = fmt.Fprintln(os.Stdout, out)
	return err
}

func exportCmd(ctx context.Context, cmd *cli.Command) error {
	id := cmd.Args().First()
	if id == "" {
		return fmt.Errorf("document id is required")
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	path, err := internal.Export(ctx, id, cmd.String("out"), cmd.String("theme"),
		internal.WithConfig(cfg), internal.WithLogOutput(os.Stderr))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(os.Stdout, path)
	return err
}

func main() {
	cmd := &cli.Command{
		Name:   "techdocs",
		Usage:  "Technical documentation workspace with a markdown dialect renderer and word conversion",
		Action: serve,
		Flags:  []cli.Flag{configFlag()},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API (default)",
				Flags:  []cli.Flag{configFlag()},
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools on stdio",
				Flags:  []cli.Flag{configFlag()},
				Action: serveMCP,
			},
			{
				Name:      "render",
				Usage:     "Render a dialect markdown file to HTML",
				ArgsUsage: "[file]",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "Print the parsed nodes instead of HTML"},
				},
				Action: render,
			},
			{
				Name:      "convert",
				Usage:     "Convert a file between markdown and word (HTML)",
				ArgsUsage: "[file]",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "to", Usage: "Target format: markdown or word", Required: true},
				},
				Action: convertCmd,
			},
			{
				Name:      "export",
				Usage:     "Export a stored document as a standalone HTML file",
				ArgsUsage: "<id>",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Output directory (default export.path)"},
					&cli.StringFlag{Name: "theme", Usage: "light or dark (default app.theme)"},
				},
				Action: exportCmd,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
