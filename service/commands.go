package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"postpanel/app/cache"
	"postpanel/app/models"
	"postpanel/app/repositories"
	"postpanel/app/services"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Version is stamped at build time with -ldflags "-X postpanel/service.Version=...".
var Version = "dev"

// NewRootCommand builds the postpanel command tree.
func NewRootCommand() *cobra.Command {
	opts := &options{}
	rootCmd := &cobra.Command{
		Use:           "postpanel",
		Short:         "Admin panel for blog posts, categories and authors",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	opts.register(rootCmd)

	rootCmd.AddCommand(
		serveCmd(opts),
		migrateCmd(opts),
		seedCmd(opts),
		backupCmd(opts),
		restoreCmd(opts),
		versionCmd(),
	)
	return rootCmd
}

func serveCmd(opts *options) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the admin panel HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.HTTPAddr = addr
			}
			return RunAppServer(cfg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides HTTP_ADDR")
	return cmd
}

func migrateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			// Opening a SQL store runs AutoMigrate; badger has no schema.
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "Database migrated (%s)\n", cfg.DBDriver)
			return nil
		},
	}
}

var (
	demoCategories = []models.Category{
		{Name: "News", Slug: "news"},
		{Name: "Sports", Slug: "sports"},
		{Name: "Technology", Slug: "technology"},
	}
	demoAuthors = []models.Author{
		{Name: "Alice", Email: "alice@example.com"},
		{Name: "Bob", Email: "bob@example.com"},
	}
)

func seedCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert demo categories and authors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			categories, authors, err := seed(cmd.Context(), store)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d categories and %d authors\n", categories, authors)
			return nil
		},
	}
}

// seed inserts the demo records that are not there yet and reports how many were added.
func seed(ctx context.Context, store *repositories.Store) (int, int, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := zap.NewNop()
	optionsCache, err := cache.NewMemoryOptionsCache(optionsTTL)
	if err != nil {
		return 0, 0, err
	}
	defer optionsCache.Close()
	categoryService := services.NewCategoryService(store.Categories, optionsCache, logger)
	authorService := services.NewAuthorService(store, logger)

	var categories int
	for _, c := range demoCategories {
		err := categoryService.Create(ctx, &c)
		var verr models.ValidationErrors
		if errors.As(err, &verr) && verr["slug"] != "" {
			continue
		}
		if err != nil {
			return 0, 0, fmt.Errorf("failed to seed category %s: %w", c.Slug, err)
		}
		categories++
	}

	existing, err := authorService.List(ctx, "")
	if err != nil {
		return 0, 0, err
	}
	known := make(map[string]bool, len(existing))
	for _, a := range existing {
		known[a.Email] = true
	}
	var authors int
	for _, a := range demoAuthors {
		if known[a.Email] {
			continue
		}
		if err := authorService.Create(ctx, &a); err != nil {
			return 0, 0, fmt.Errorf("failed to seed author %s: %w", a.Name, err)
		}
		authors++
	}
	return categories, authors, nil
}

func backupCmd(opts *options) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "backup [file]",
		Short: "Write a badger backup",
		Long:  "Write a full backup of the badger database to file, or to a timestamped file in --dir.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.DBDriver != repositories.DriverBadger {
				return repositories.ErrBackupUnsupported
			}
			if _, err := os.Stat(cfg.BadgerPath); os.IsNotExist(err) {
				return fmt.Errorf("no database exists at %s", cfg.BadgerPath)
			}

			target := filepath.Join(dir, fmt.Sprintf("backup_%d.db", time.Now().Unix()))
			if len(args) == 1 {
				target = args[0]
			}
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return fmt.Errorf("failed to create backup directory: %w", err)
			}

			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			f, err := os.Create(target)
			if err != nil {
				return fmt.Errorf("failed to create backup file: %w", err)
			}
			defer f.Close()

			if err := store.Backup(f); err != nil {
				return fmt.Errorf("failed to backup database: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Database backed up successfully to %s\n", target)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "data/backups", "directory for timestamped backups")
	return cmd
}

func restoreCmd(opts *options) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "restore <file>",
		Short: "Restore the badger database from a backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.DBDriver != repositories.DriverBadger {
				return repositories.ErrBackupUnsupported
			}
			return restore(cmd.OutOrStdout(), cfg.BadgerPath, args[0], force)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "replace an existing database")
	return cmd
}

func restore(out io.Writer, dbPath, backupFile string, force bool) error {
	fi, err := os.Stat(backupFile)
	if os.IsNotExist(err) {
		return fmt.Errorf("backup file does not exist: %s", backupFile)
	}
	if err != nil {
		return fmt.Errorf("failed to stat backup file: %w", err)
	}
	if fi.Size() == 0 {
		return fmt.Errorf("backup file is empty: %s", backupFile)
	}

	if _, err := os.Stat(dbPath); err == nil {
		if !force {
			return fmt.Errorf("a database already exists at %s, pass --force to replace it", dbPath)
		}
		if err := os.RemoveAll(dbPath); err != nil {
			return fmt.Errorf("failed to remove existing database: %w", err)
		}
	}

	f, err := os.Open(backupFile)
	if err != nil {
		return fmt.Errorf("failed to open backup file: %w", err)
	}
	defer f.Close()

	store, err := repositories.OpenBadger(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Restore(f); err != nil {
		return fmt.Errorf("failed to restore database: %w", err)
	}
	fmt.Fprintln(out, "Database restored successfully")
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "postpanel version %s\n", Version)
		},
	}
}
