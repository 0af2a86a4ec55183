package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"

	"stylefinder/internal/config"
	"stylefinder/internal/logging"
	"stylefinder/internal/models"
	"stylefinder/pkg/rabbitmq"
)

const usage = `usage: stylefinder [flags] <command>

commands:
  index                      embed the catalog into the vector index
  search <query>             search products by free text
  trends                     rank seasonal and trending products of a group
  import                     load products from a JSON file into the catalog
  tail-events                print published search and trend events

flags:
`

var errUsage = errors.New("invalid usage")

// command is one parsed invocation.
type command struct {
	name       string
	query      string
	configPath string
	numResults int
	category   string
	audience   string
	file       string
}

func parseArgs(args []string, stderr io.Writer) (command, error) {
	var cmd command
	fs := pflag.NewFlagSet("stylefinder", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	fs.StringVarP(&cmd.configPath, "config", "c", "", "path to a YAML config file")
	fs.IntVarP(&cmd.numResults, "num-results", "n", 0, "maximum number of search results")
	fs.StringVar(&cmd.category, "category", "", "main category for trends, e.g. \"Western Wear\"")
	fs.StringVar(&cmd.audience, "audience", "", "target audience for trends, e.g. Female")
	fs.StringVarP(&cmd.file, "file", "f", "", "JSON file of products to import")

	if err := fs.Parse(args); err != nil {
		return cmd, err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return cmd, errUsage
	}
	cmd.name = fs.Arg(0)
	cmd.query = strings.TrimSpace(strings.Join(fs.Args()[1:], " "))

	switch cmd.name {
	case "index", "tail-events":
	case "search":
		if cmd.query == "" {
			return cmd, fmt.Errorf("%w: search needs a query", errUsage)
		}
	case "trends":
		if cmd.category == "" || cmd.audience == "" {
			return cmd, fmt.Errorf("%w: trends needs --category and --audience", errUsage)
		}
	case "import":
		if cmd.file == "" {
			return cmd, fmt.Errorf("%w: import needs --file", errUsage)
		}
	default:
		fs.Usage()
		return cmd, fmt.Errorf("%w: unknown command %q", errUsage, cmd.name)
	}
	return cmd, nil
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.Warn().Err(err).Msg("failed to load .env file")
	}

	cmd, err := parseArgs(os.Args[1:], os.Stderr)
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg, err := config.Load(cmd.configPath)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(cfg, afero.NewOsFs())
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to initialize")
	}

	err = run(ctx, a, cmd, os.Stdout)
	if closeErr := a.Close(); closeErr != nil {
		logging.Warn().Err(closeErr).Msg("error during shutdown")
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Str("command", cmd.name).Msg("command failed")
		os.Exit(1)
	}
}

// run executes cmd and writes its JSON result to out.
func run(ctx context.Context, a *app, cmd command, out io.Writer) error {
	switch cmd.name {
	case "index":
		n, err := a.products.IndexCatalog(ctx)
		if err != nil {
			return err
		}
		return writeJSON(out, map[string]int{"indexed": n})

	case "search":
		if err := a.products.PrepareSearch(ctx, a.inProcessIndex()); err != nil {
			return err
		}
		results, err := a.search.Search(ctx, models.SearchRequest{Query: cmd.query, NumResults: cmd.numResults})
		if err != nil {
			return err
		}
		return writeJSON(out, results)

	case "trends":
		svc, err := a.trends(ctx)
		if err != nil {
			return err
		}
		result, err := svc.Rank(ctx, models.TrendRequest{MainCategory: cmd.category, TargetAudience: cmd.audience})
		if err != nil {
			return err
		}
		return writeJSON(out, result)

	case "import":
		data, err := os.ReadFile(cmd.file)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", cmd.file, err)
		}
		var products []models.Product
		if err := json.Unmarshal(data, &products); err != nil {
			return fmt.Errorf("failed to decode %s: %w", cmd.file, err)
		}
		if err := a.repo.Migrate(ctx); err != nil {
			return err
		}
		n, err := a.products.ImportProducts(ctx, products)
		if err != nil {
			return err
		}
		return writeJSON(out, map[string]int{"imported": n})

	case "tail-events":
		if a.mq == nil {
			return errors.New("rabbitmq is not enabled")
		}
		return a.mq.ConsumeEvents(ctx, func(event rabbitmq.Event) error {
			payload, err := rabbitmq.Decode(event)
			if err != nil {
				return err
			}
			return writeJSON(out, map[string]any{"routing_key": event.RoutingKey, "event": payload})
		})
	}
	return fmt.Errorf("%w: unknown command %q", errUsage, cmd.name)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
