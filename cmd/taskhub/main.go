package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/andreazorzetto/yh/highlight"
	"github.com/hokaccha/go-prettyjson"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"gopkg.in/yaml.v3"

	"github.com/girmesh03/taskhub/conf"
	"github.com/girmesh03/taskhub/internal/authz"
	"github.com/girmesh03/taskhub/internal/build"
	"github.com/girmesh03/taskhub/internal/entities"
	"github.com/girmesh03/taskhub/internal/log"
	"github.com/girmesh03/taskhub/internal/server"
	"github.com/girmesh03/taskhub/internal/server/biz"
	"github.com/girmesh03/taskhub/internal/storage"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "config":
			handleConfigCommand()
			return
		case "bootstrap":
			runBootstrap(os.Args[2:])
			return
		case "version", "--version", "-v":
			showVersion()
			return
		case "build-info":
			fmt.Println(build.GetBuildInfo())
			return
		case "help", "--help", "-h":
			showHelp()
			return
		}
	}

	start()
}

type logger struct{}

func (l *logger) LogEvent(event fxevent.Event) {
	log.Debug(context.Background(), "fx event", log.Any("event", event))
}

func start() {
	server.Run(
		fx.WithLogger(func() fxevent.Logger {
			return &logger{}
		}),
		fx.Provide(conf.Load),
	)
}

// runBootstrap seeds the platform tenant and its first administrator, then
// exits. It is meant to run once against a fresh database.
func runBootstrap(args []string) {
	fs := flag.NewFlagSet("bootstrap", flag.ExitOnError)
	tenantName := fs.String("tenant", "platform", "platform tenant name")
	tenantSlug := fs.String("slug", "platform", "platform tenant slug")
	adminEmail := fs.String("email", "", "platform administrator email")
	adminName := fs.String("name", "", "platform administrator display name")
	_ = fs.Parse(args)

	if *adminEmail == "" {
		fmt.Fprintln(os.Stderr, "bootstrap requires --email")
		os.Exit(1)
	}

	config, err := conf.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	drv, err := storage.Open(config.DB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
		os.Exit(1)
	}

	graph, err := entities.NewGraph()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid entity graph: %v\n", err)
		os.Exit(1)
	}

	store := storage.New(drv, graph)
	defer func() { _ = store.Close() }()

	ctx := authz.NewSystemContext(context.Background())

	if err := store.Migrate(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Migration failed: %v\n", err)
		os.Exit(1)
	}

	matrix, err := authz.NewMatrix(graph)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid authorization matrix: %v\n", err)
		os.Exit(1)
	}

	svc := biz.NewSystemService(biz.SystemServiceParams{
		Store:    store,
		Resolver: authz.NewResolver(matrix, graph),
		Retry:    config.Retry,
	})

	res, err := svc.Bootstrap(ctx, biz.BootstrapInput{
		TenantName: *tenantName,
		TenantSlug: *tenantSlug,
		AdminEmail: *adminEmail,
		AdminName:  *adminName,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Bootstrap failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Platform tenant %s created, administrator %s\n",
		res.Tenant.Meta.ID, res.Admin.Meta.ID)
}

func handleConfigCommand() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: taskhub config <preview|validate|get>")
		os.Exit(1)
	}

	switch os.Args[2] {
	case "preview":
		configPreview()
	case "validate":
		configValidate()
	case "get":
		configGet()
	default:
		fmt.Println("Usage: taskhub config <preview|validate|get>")
		os.Exit(1)
	}
}

func configPreview() {
	format := "yml"

	for i := 3; i < len(os.Args); i++ {
		if os.Args[i] == "--format" || os.Args[i] == "-f" {
			if i+1 < len(os.Args) {
				format = os.Args[i+1]
			}
		}
	}

	config, err := conf.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	var output string

	switch format {
	case "json":
		b, err := prettyjson.Marshal(config)
		if err != nil {
			fmt.Printf("Failed to preview config: %v\n", err)
			os.Exit(1)
		}

		output = string(b)
	case "yml", "yaml":
		b, err := yaml.Marshal(config)
		if err != nil {
			fmt.Printf("Failed to preview config: %v\n", err)
			os.Exit(1)
		}

		output, err = highlight.Highlight(bytes.NewBuffer(b))
		if err != nil {
			fmt.Printf("Failed to preview config: %v\n", err)
			os.Exit(1)
		}
	default:
		fmt.Printf("Unsupported format: %s\n", format)
		os.Exit(1)
	}

	fmt.Println(output)
}

func configValidate() {
	config, err := conf.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	errors := validateConfig(config)

	if len(errors) == 0 {
		fmt.Println("Configuration is valid!")
		return
	}

	fmt.Println("Configuration validation failed:")

	for _, err := range errors {
		fmt.Printf("  - %s\n", err)
	}

	os.Exit(1)
}

func validateConfig(config conf.Config) []string {
	var errors []string

	if config.DB.DSN == "" {
		errors = append(errors, "db.dsn cannot be empty")
	}

	if config.Log.Name == "" {
		errors = append(errors, "log.name cannot be empty")
	}

	if config.Purge.CRON == "" {
		errors = append(errors, "purge.cron cannot be empty")
	}

	if config.Purge.BatchSize < 0 {
		errors = append(errors, "purge.batch_size cannot be negative")
	}

	return errors
}

func configGet() {
	if len(os.Args) < 4 {
		fmt.Println("Usage: taskhub config get <key>")
		fmt.Println("")
		fmt.Println("Available keys:")
		fmt.Println("  db.dialect       Database dialect")
		fmt.Println("  db.dsn           Database DSN")
		fmt.Println("  log.level        Log level")
		fmt.Println("  purge.cron       Purge sweep schedule")
		os.Exit(1)
	}

	key := os.Args[3]

	config, err := conf.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	var value interface{}

	switch key {
	case "db.dialect":
		value = config.DB.Dialect
	case "db.dsn":
		value = config.DB.DSN
	case "log.level":
		value = config.Log.Level
	case "purge.cron":
		value = config.Purge.CRON
	case "purge.batch_size":
		value = config.Purge.BatchSize
	default:
		fmt.Fprintf(os.Stderr, "Unknown config key: %s\n", key)
		os.Exit(1)
	}

	fmt.Println(value)
}

func showHelp() {
	fmt.Println("TaskHub")
	fmt.Println("")
	fmt.Println("Usage:")
	fmt.Println("  taskhub                    Start the process (default)")
	fmt.Println("  taskhub bootstrap          Seed the platform tenant")
	fmt.Println("  taskhub config preview     Preview configuration")
	fmt.Println("  taskhub config validate    Validate configuration")
	fmt.Println("  taskhub config get <key>   Get a specific config value")
	fmt.Println("  taskhub version            Show version")
	fmt.Println("  taskhub help               Show this help message")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -f, --format FORMAT       Output format for config preview (yml, json)")
}

func showVersion() {
	fmt.Println(build.Version)
}
