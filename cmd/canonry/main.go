// Command canonry is the command-line entry point for the Canonry
// consistency engine. It validates planned entities against a campaign
// catalog and scans generated content for canon discoveries and conflicts.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrWong99/canonry/internal/config"
	"github.com/MrWong99/canonry/internal/extract"
	"github.com/MrWong99/canonry/internal/forge"
	"github.com/MrWong99/canonry/internal/match"
	"github.com/MrWong99/canonry/internal/mint"
	"github.com/MrWong99/canonry/internal/observe"
	"github.com/MrWong99/canonry/internal/storage/codexfile"
	"github.com/MrWong99/canonry/internal/storage/memstore"
	"github.com/MrWong99/canonry/internal/storage/postgres"
	"github.com/MrWong99/canonry/internal/validate"
	"github.com/MrWong99/canonry/pkg/canon"
)

const usage = `usage: canonry [-config FILE] <command> [flags]

Commands:
  validate   run pre-generation checks for a planned entity
  scan       scan generated content for discoveries and conflicts

Run "canonry <command> -h" for command-specific flags.`

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "canonry.yaml", "path to the YAML configuration file")
	flag.Usage = func() { fmt.Fprintln(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		return 2
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "canonry: %v\n", err)
		return 1
	}

	slog.SetDefault(newLogger(cfg.Server.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: cfg.Telemetry.ServiceVersion,
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	env, cleanup, err := buildEnv(ctx, cfg)
	if err != nil {
		slog.Error("failed to initialise storage", "err", err)
		return 1
	}
	defer cleanup()

	switch cmd := flag.Arg(0); cmd {
	case "validate":
		return runValidate(ctx, env, flag.Args()[1:])
	case "scan":
		return runScan(ctx, env, flag.Args()[1:])
	default:
		fmt.Fprintf(os.Stderr, "canonry: unknown command %q\n%s\n", cmd, usage)
		return 2
	}
}

// loadConfig reads the config file, falling back to defaults (plus env
// overrides) when the file does not exist.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Debug("config file not found, using defaults", "path", path)
		cfg = config.Default()
		if verr := config.Validate(cfg); verr != nil {
			return nil, verr
		}
		return cfg, nil
	}
	return cfg, err
}

// env bundles the wired engine and its storage for command handlers.
type env struct {
	engine  *forge.Engine
	catalog canon.Catalog
}

// buildEnv wires the storage backend, codex source, and engine from config.
// The returned cleanup func closes the backend; it is safe to call always.
func buildEnv(ctx context.Context, cfg *config.Config) (*env, func(), error) {
	var (
		store   canon.Store
		codex   canon.CodexProvider
		cleanup = func() {}
	)

	switch cfg.Storage.Backend {
	case config.BackendPostgres:
		pg, err := postgres.NewStore(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, cleanup, err
		}
		store = pg
		codex = pg
		cleanup = pg.Close
	default:
		mem := memstore.New()
		store = mem
		codex = mem
	}

	// A configured codex file takes precedence over the stored codex.
	if cfg.Codex.Path != "" {
		codex = codexfile.New(cfg.Codex.Path)
	}

	var exOpts []extract.Option
	if cfg.Scan.ContextRadius > 0 {
		exOpts = append(exOpts, extract.WithContextRadius(cfg.Scan.ContextRadius))
	}
	if cfg.Scan.VerbWindow > 0 {
		exOpts = append(exOpts, extract.WithVerbWindow(cfg.Scan.VerbWindow))
	}

	fgOpts := []forge.Option{forge.WithExtractor(extract.New(exOpts...))}
	if cfg.Scan.NearThreshold > 0 {
		fgOpts = append(fgOpts, forge.WithMatchOptions(match.WithNearThreshold(cfg.Scan.NearThreshold)))
	}

	minter := mint.New(store, store, store)
	engine := forge.New(store, codex, minter, fgOpts...)

	return &env{engine: engine, catalog: store}, cleanup, nil
}

// runValidate handles the "validate" subcommand.
func runValidate(ctx context.Context, e *env, args []string) int {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	campaign := fs.String("campaign", "", "campaign identifier (required)")
	kind := fs.String("kind", "npc", "entity type: npc, location, item, faction, quest, creature")
	name := fs.String("name", "", "planned entity name (required)")
	description := fs.String("description", "", "seed prose for the planned entity")
	location := fs.String("location", "", "name of the location the entity belongs to")
	faction := fs.String("faction", "", "faction the entity belongs to")
	role := fs.String("role", "", "organisational role within the faction")
	fs.Parse(args)

	if *campaign == "" || *name == "" {
		fmt.Fprintln(os.Stderr, "canonry validate: -campaign and -name are required")
		return 2
	}
	entityType := canon.EntityType(*kind)
	if !entityType.IsValid() {
		fmt.Fprintf(os.Stderr, "canonry validate: invalid -kind %q\n", *kind)
		return 2
	}

	res, err := e.engine.ValidatePreGeneration(ctx, *campaign, entityType, validate.Input{
		Name:        *name,
		Description: *description,
		Location:    *location,
		Faction:     *faction,
		Role:        *role,
	})
	if err != nil {
		slog.Error("validation failed", "err", err)
		return 1
	}
	if err := printJSON(res); err != nil {
		slog.Error("encode result", "err", err)
		return 1
	}
	if !res.CanProceed {
		return 3
	}
	return 0
}

// runScan handles the "scan" subcommand.
func runScan(ctx context.Context, e *env, args []string) int {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	campaign := fs.String("campaign", "", "campaign identifier (required)")
	kind := fs.String("kind", "npc", "entity type being authored")
	entity := fs.String("entity", "", "name of the entity being authored")
	file := fs.String("file", "-", "file with generated content, or - for stdin")
	catalogFile := fs.String("catalog", "", "JSON file with catalog entities to import before scanning (memory backend)")
	fs.Parse(args)

	if *campaign == "" {
		fmt.Fprintln(os.Stderr, "canonry scan: -campaign is required")
		return 2
	}
	entityType := canon.EntityType(*kind)
	if !entityType.IsValid() {
		fmt.Fprintf(os.Stderr, "canonry scan: invalid -kind %q\n", *kind)
		return 2
	}

	if *catalogFile != "" {
		if err := importCatalog(ctx, e.catalog, *catalogFile); err != nil {
			slog.Error("catalog import failed", "err", err)
			return 1
		}
	}

	text, err := readInput(*file)
	if err != nil {
		slog.Error("read content", "err", err)
		return 1
	}

	res, err := e.engine.ScanGeneratedContent(ctx, *campaign, forge.ScanRequest{
		EntityName: *entity,
		Kind:       entityType,
		Text:       text,
	})
	if err != nil {
		slog.Error("scan failed", "err", err)
		return 1
	}
	if err := printJSON(res); err != nil {
		slog.Error("encode result", "err", err)
		return 1
	}
	return 0
}

// importCatalog loads a JSON array of entities into the catalog so one-shot
// memory-backed scans have something to match against.
func importCatalog(ctx context.Context, catalog canon.Catalog, path string) error {
	writer, ok := catalog.(canon.EntityWriter)
	if !ok {
		return errors.New("configured backend does not accept catalog imports")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read catalog %q: %w", path, err)
	}
	var entities []canon.Entity
	if err := json.Unmarshal(data, &entities); err != nil {
		return fmt.Errorf("parse catalog %q: %w", path, err)
	}
	for i, e := range entities {
		if err := writer.PutEntity(ctx, e); err != nil {
			return fmt.Errorf("import entity %d (name %q): %w", i, e.Name, err)
		}
	}
	slog.Info("catalog imported", "path", path, "entities", len(entities))
	return nil
}

func readInput(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %q: %w", path, err)
	}
	return string(data), nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
