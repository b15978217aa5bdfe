package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/tendant/simple-media/pkg/simplemedia"
	"github.com/tendant/simple-media/pkg/simplemedia/config"
	"github.com/tendant/simple-media/pkg/simplemedia/reconcile"
)

const usage = `Simple Media Admin CLI

Maintenance tool for the media store and its content repository.

USAGE:
  admin <command> [options]

COMMANDS:
  list <kind>          List entities of a kind (event, program, founder, history, team)
  count                Count entities per kind
  delete <kind> <id>   Delete an entity and cascade-delete its media
  orphans              Find stored objects no entity references

ENVIRONMENT VARIABLES:
  DATABASE_URL      "memory", "postgres://..." or "mongodb://..." (default: memory)
  DB_SCHEMA         PostgreSQL schema name
  MONGO_DATABASE    MongoDB database name (default: simple_media)
  STORAGE_URL       "memory://", "file:///path" or "s3://bucket" (default: memory)
  OBJECT_KEY_PREFIX Prefix prepended to every object key

  Configuration can be loaded from a .env file in the current directory.
  Command line environment variables override .env file values.

EXAMPLES:
  # List published events
  admin list event --status=published

  # List with pagination
  admin list team --limit=10 --offset=10

  # Report orphaned objects under a prefix
  admin orphans --prefix=programs/

  # Delete orphaned objects
  admin orphans --delete

  # Output as JSON
  admin count --json

OPTIONS:
  --status=<status>   Filter by status (draft, published, archived; list only)
  --limit=<n>         Maximum results (list only, default: 50)
  --offset=<n>        Pagination offset (list only, default: 0)
  --prefix=<prefix>   Only consider keys under prefix (orphans only)
  --min-age=<dur>     Skip objects newer than this (orphans only, default: 1h)
  --delete            Delete orphans instead of reporting them (orphans only)
  --json              Output as JSON
`

type options struct {
	status  *simplemedia.Status
	limit   int
	offset  int
	prefix  string
	minAge  time.Duration
	delete  bool
	useJSON bool
	args    []string
}

func main() {
	// Load .env file if it exists (silently ignore if not found)
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Print(usage + "\n")
		os.Exit(1)
	}

	command := os.Args[1]
	if command == "help" || command == "--help" || command == "-h" {
		fmt.Print(usage + "\n")
		os.Exit(0)
	}

	cfg, err := config.Load(config.WithEnv(""))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	comps, err := cfg.BuildComponents(ctx, logger)
	if err != nil {
		log.Fatalf("Failed to initialize components: %v", err)
	}
	defer comps.Close()

	opts := parseOptions(os.Args[2:])

	switch command {
	case "list":
		handleList(ctx, comps, opts)
	case "count":
		handleCount(ctx, comps, opts)
	case "delete":
		handleDelete(ctx, comps, opts)
	case "orphans":
		handleOrphans(ctx, comps, logger, opts)
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		fmt.Print(usage + "\n")
		os.Exit(1)
	}
}

func parseOptions(args []string) options {
	opts := options{limit: 50, minAge: time.Hour}

	for _, arg := range args {
		key, value := parseFlag(arg)
		switch key {
		case "":
			opts.args = append(opts.args, arg)
		case "json":
			opts.useJSON = true
		case "status":
			s := simplemedia.Status(value)
			opts.status = &s
		case "limit":
			if n, err := strconv.Atoi(value); err == nil {
				opts.limit = n
			}
		case "offset":
			if n, err := strconv.Atoi(value); err == nil {
				opts.offset = n
			}
		case "prefix":
			opts.prefix = value
		case "min-age":
			if d, err := time.ParseDuration(value); err == nil && d >= 0 {
				opts.minAge = d
			}
		case "delete":
			opts.delete = value == "true"
		}
	}
	return opts
}

func parseFlag(arg string) (string, string) {
	if len(arg) > 2 && arg[:2] == "--" {
		arg = arg[2:]
		for i, c := range arg {
			if c == '=' {
				return arg[:i], arg[i+1:]
			}
		}
		return arg, "true"
	}
	return "", ""
}

func parseKind(opts options) simplemedia.Kind {
	if len(opts.args) == 0 {
		log.Fatalf("Missing kind argument")
	}
	kind := simplemedia.Kind(opts.args[0])
	if !kind.IsValid() {
		log.Fatalf("Unknown kind: %s", opts.args[0])
	}
	return kind
}

func printJSON(v interface{}) {
	data, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(data))
}

func handleList(ctx context.Context, comps *config.Components, opts options) {
	kind := parseKind(opts)
	entities, err := comps.Service.List(ctx, simplemedia.ListRequest{
		Kind:   kind,
		Status: opts.status,
		Limit:  opts.limit,
		Offset: opts.offset,
	})
	if err != nil {
		log.Fatalf("Failed to list %s entities: %v", kind, err)
	}

	if opts.useJSON {
		printJSON(entities)
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID\tTITLE\tSTATUS\tMEDIA\tCREATED\n")
	for _, e := range entities {
		m := e.Base()
		title, _, _ := e.SearchFields()
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			m.ID.String()[:8]+"...",
			truncate(title, 30),
			m.Status,
			len(e.Slots().References()),
			m.CreatedAt.Format("2006-01-02 15:04:05"),
		)
	}
	w.Flush()

	fmt.Printf("\nTotal: %d", len(entities))
	if len(entities) == opts.limit {
		fmt.Printf(" (may have more, use --offset=%d to continue)", opts.offset+opts.limit)
	}
	fmt.Println()
}

func handleCount(ctx context.Context, comps *config.Components, opts options) {
	counts := make(map[simplemedia.Kind]int, len(simplemedia.Kinds))
	const batch = 100
	for _, kind := range simplemedia.Kinds {
		for offset := 0; ; offset += batch {
			docs, err := comps.Repository.List(ctx, simplemedia.ListFilter{Kind: kind, Limit: batch, Offset: offset})
			if err != nil {
				log.Fatalf("Failed to count %s entities: %v", kind, err)
			}
			counts[kind] += len(docs)
			if len(docs) < batch {
				break
			}
		}
	}

	if opts.useJSON {
		printJSON(counts)
		return
	}

	fmt.Println("=== Entity Counts ===")
	for _, kind := range simplemedia.Kinds {
		fmt.Printf("  %-10s: %d\n", kind, counts[kind])
	}
}

func handleDelete(ctx context.Context, comps *config.Components, opts options) {
	kind := parseKind(opts)
	if len(opts.args) < 2 {
		log.Fatalf("Missing id argument")
	}
	id, err := uuid.Parse(opts.args[1])
	if err != nil {
		log.Fatalf("Invalid id %q: %v", opts.args[1], err)
	}

	result, err := comps.Service.Delete(ctx, kind, id)
	if err != nil {
		log.Fatalf("Failed to delete %s %s: %v", kind, id, err)
	}

	if opts.useJSON {
		printJSON(result)
		return
	}

	fmt.Printf("Deleted %s %s\n", kind, id)
	if result.Cascade != nil {
		fmt.Printf("  Media deleted: %d of %d\n", len(result.Cascade.Deleted), result.Cascade.Attempted)
	}
	for _, d := range result.Diagnostics {
		fmt.Printf("  warning: %s\n", d)
	}
}

func handleOrphans(ctx context.Context, comps *config.Components, logger *slog.Logger, opts options) {
	sweeper := reconcile.New(comps.Repository, comps.Blob, reconcile.WithLogger(logger))
	report, err := sweeper.Sweep(ctx, reconcile.SweepOptions{
		Prefix: opts.prefix,
		MinAge: opts.minAge,
		DryRun: !opts.delete,
	})
	if opts.useJSON {
		printJSON(report)
	} else {
		fmt.Println("=== Orphan Sweep ===")
		fmt.Printf("\nDocuments scanned: %d\n", report.Documents)
		fmt.Printf("References:        %d\n", report.References)
		fmt.Printf("Stored objects:    %d\n", report.Objects)
		fmt.Printf("Too recent:        %d\n", report.Recent)
		fmt.Printf("Orphans:           %d\n", len(report.Orphans))
		for _, key := range report.Orphans {
			fmt.Printf("  %s\n", key)
		}
		if opts.delete {
			fmt.Printf("\nDeleted: %d, failed: %d\n", report.Deleted, report.Failed)
		} else if len(report.Orphans) > 0 {
			fmt.Println("\nRun with --delete to remove them")
		}
	}

	if err != nil {
		log.Fatalf("Sweep incomplete: %v", err)
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
