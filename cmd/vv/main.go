package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"vv-go/internal/app"
	"vv-go/internal/catalog"
	"vv-go/internal/config"
	"vv-go/internal/database"
	"vv-go/internal/encryption"
	"vv-go/internal/vault"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates a VVApp. The caller must defer a.Close().
// operation identifies the CLI command being run (e.g. "Scan", "Dedupe").
func newApp(operation string) (*app.VVApp, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewVVApp(cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

var rootCmd = &cobra.Command{
	Use:   "vv",
	Short: "Video file catalog and deduplication tool",
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		// Generate a new host ID
		hostID := uuid.New().String()

		cfg := config.NewConfig(hostID, defaults["base_dir"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		// Create the catalog database up front so the first scan does not
		// trip the migration check.
		if err := database.Migrate(cfg.Database, cfg.HostID); err != nil {
			return fmt.Errorf("initializing catalog database: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Host ID: %s\n", hostID)
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Host ID:    %s\n", cfg.HostID)
		fmt.Printf("Base Dir:   %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:    %s\n", cfg.LogDir)
		fmt.Printf("Extensions: %v\n", cfg.Scanner.Extensions)
		return nil
	},
}

// key command
var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage encryption keys",
}

var keyInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate an encryption key pair for catalog snapshots",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
		if err != nil {
			return fmt.Errorf("creating encryptor: %w", err)
		}
		if enc == nil {
			return fmt.Errorf("encryption is not enabled; set encryption.type in %s", defaults["config_path"])
		}
		if enc.IsConfigured() {
			return fmt.Errorf("key pair already exists at %s", cfg.Encryption.PublicKeyPath)
		}

		passphrase, err := promptPassphrase(true)
		if err != nil {
			return err
		}

		if err := enc.Setup(passphrase); err != nil {
			return fmt.Errorf("generating key pair: %w", err)
		}

		fmt.Printf("Key pair written:\n  public:  %s\n  private: %s\n",
			cfg.Encryption.PublicKeyPath, cfg.Encryption.PrivateKeyPath)
		return nil
	},
}

// migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending catalog database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		if err := database.Migrate(cfg.Database, cfg.HostID); err != nil {
			return fmt.Errorf("migrating catalog database: %w", err)
		}

		fmt.Println("Catalog database is up to date.")
		return nil
	},
}

// scan command
var scanCmd = &cobra.Command{
	Use:   "scan PATH",
	Short: "Catalog video files under a directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Scan")
		if err != nil {
			return err
		}
		defer a.Close()

		onProgress := func(current, total int, label string) {
			fmt.Printf("\r[%d/%d] %s\033[K", current, total, label)
		}

		result, err := a.Scan(cmd.Context(), args[0], onProgress)
		fmt.Println()
		if err != nil {
			a.MarkError()
			if result != nil {
				fmt.Printf("Interrupted: %d file(s) cataloged, %d skipped\n", result.Added, result.Skipped)
			}
			return fmt.Errorf("scan failed: %w", err)
		}

		fmt.Printf("Cataloged %d file(s), skipped %d\n", result.Added, result.Skipped)
		return nil
	},
}

// ls command
var lsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List cataloged files",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("List")
		if err != nil {
			return err
		}
		defer a.Close()

		entries, err := a.List()
		if err != nil {
			return err
		}

		if len(entries) == 0 {
			fmt.Println("Catalog is empty.")
			return nil
		}

		for _, e := range entries {
			dup := ""
			if e.DuplicateOf != "" {
				dup = "  [dup]"
			}
			fmt.Printf("%s  %10s  %s%s\n",
				e.Fingerprint[:12], humanBytes(e.SizeBytes), e.Path, dup)
		}
		return nil
	},
}

// dupes command
var dupesCmd = &cobra.Command{
	Use:   "dupes",
	Short: "List duplicate groups",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("FindDuplicates")
		if err != nil {
			return err
		}
		defer a.Close()

		onGroup := func(group *catalog.DuplicateGroup) {
			fmt.Printf("%s  (%d copies)\n", group.Fingerprint, len(group.Members))
			for i, m := range group.Members {
				marker := " "
				if i == 0 {
					marker = "*" // copy that dedupe would keep
				}
				fmt.Printf("  %s %10s  %s\n", marker, humanBytes(m.SizeBytes), m.Path)
			}
		}

		groups, err := a.FindDuplicates(cmd.Context(), nil, onGroup)
		if err != nil {
			a.MarkError()
			return err
		}

		if len(groups) == 0 {
			fmt.Println("No duplicates found.")
		}
		return nil
	},
}

// dedupe command
var dedupeCmd = &cobra.Command{
	Use:   "dedupe",
	Short: "Delete redundant copies, keeping one file per duplicate group",
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		a, err := newApp("Dedupe")
		if err != nil {
			return err
		}
		defer a.Close()

		summary, err := a.Dedupe(cmd.Context(), dryRun)
		if err != nil {
			a.MarkError()
			return err
		}

		if dryRun {
			if len(summary.Planned) == 0 {
				fmt.Println("Nothing to delete.")
				return nil
			}
			var reclaim int64
			for _, e := range summary.Planned {
				fmt.Printf("would delete  %10s  %s\n", humanBytes(e.SizeBytes), e.Path)
				reclaim += e.SizeBytes
			}
			fmt.Printf("%d file(s) in %d group(s), %s reclaimable\n",
				len(summary.Planned), summary.Groups, humanBytes(reclaim))
			return nil
		}

		for _, r := range summary.Results {
			if r.Outcome == catalog.OutcomeDeleted {
				fmt.Printf("deleted  %s\n", r.Entry.Path)
			} else {
				fmt.Printf("FAILED   %s (%s: %s)\n", r.Entry.Path, r.Outcome, r.Reason)
			}
		}
		fmt.Printf("Deleted %d file(s), %d failed\n", summary.Deleted, summary.Failed)

		if summary.Failed > 0 {
			a.MarkError()
		}
		return nil
	},
}

// rm command
var rmCmd = &cobra.Command{
	Use:   "rm PATH...",
	Short: "Delete specific cataloged files, refusing to delete the last copy",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Remove")
		if err != nil {
			return err
		}
		defer a.Close()

		report, err := a.Remove(cmd.Context(), args)
		if err != nil {
			a.MarkError()
			return err
		}

		for _, r := range report.Results {
			if r.Outcome == catalog.OutcomeDeleted {
				fmt.Printf("deleted  %s\n", r.Entry.Path)
			} else {
				fmt.Printf("FAILED   %s (%s: %s)\n", r.Entry.Path, r.Outcome, r.Reason)
			}
		}
		fmt.Printf("Deleted %d file(s), %d failed\n", report.Deleted, report.Failed)

		if report.Failed > 0 {
			a.MarkError()
		}
		return nil
	},
}

// prune command
var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Drop catalog entries for files that no longer exist",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Prune")
		if err != nil {
			return err
		}
		defer a.Close()

		count, err := a.Prune()
		if err != nil {
			a.MarkError()
			return err
		}

		fmt.Printf("Pruned %d entr%s\n", count, plural(count, "y", "ies"))
		return nil
	},
}

// stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show catalog statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Stats")
		if err != nil {
			return err
		}
		defer a.Close()

		stats, err := a.Stats(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("Entries:           %d\n", stats.TotalEntries)
		fmt.Printf("Total size:        %s\n", humanBytes(stats.TotalBytes))
		fmt.Printf("Duplicate groups:  %d\n", stats.DuplicateGroups)
		fmt.Printf("Duplicate files:   %d\n", stats.DuplicateEntries)
		fmt.Printf("Reclaimable:       %s\n", humanBytes(stats.ReclaimableBytes))
		return nil
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View catalog operation history",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp("GetHistory")
		if err != nil {
			return err
		}
		defer a.Close()

		ops, err := a.History(limit)
		if err != nil {
			return err
		}

		if len(ops) == 0 {
			fmt.Println("No catalog operations recorded.")
			return nil
		}

		for _, op := range ops {
			duration := ""
			if op.FinishedAt.Valid {
				d := op.FinishedAt.Time.Sub(op.StartedAt)
				duration = d.Truncate(time.Millisecond).String()
			}
			fmt.Printf("#%d  %-15s  %s  %-10s  %s\n",
				op.ID,
				op.Operation,
				op.StartedAt.Format("2006-01-02 15:04:05"),
				op.Status,
				duration,
			)
		}
		return nil
	},
}

// snapshot command
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Manage catalog snapshots in the vault",
}

var snapshotRestoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Replace the local catalog with the vault snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		return runSnapshotRestore(force)
	},
}

func runSnapshotRestore(force bool) error {
	defaults, err := app.GetDefaults()
	if err != nil {
		return fmt.Errorf("failed to get defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	if len(cfg.Vaults) == 0 {
		return fmt.Errorf("no vaults configured")
	}
	v, err := vault.NewVaultFromConfig(cfg.Vaults[0])
	if err != nil {
		return fmt.Errorf("creating vault: %w", err)
	}

	version, err := v.SnapshotVersion(cfg.HostID)
	if err != nil {
		return fmt.Errorf("checking vault snapshot: %w", err)
	}
	if version == 0 {
		return fmt.Errorf("no catalog snapshot in vault for host %s", cfg.HostID)
	}

	target, err := database.StorePath(cfg.Database, cfg.HostID)
	if err != nil {
		return err
	}
	if _, err := os.Stat(target); err == nil && !force {
		return fmt.Errorf("local catalog exists at %s; use --force to overwrite", target)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("creating database directory: %w", err)
	}

	// Download next to the target so the final rename stays on one filesystem.
	tmp, err := os.CreateTemp(filepath.Dir(target), ".vv-restore-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := v.GetSnapshot(cfg.HostID, tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("downloading snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}

	restorePath := tmpPath

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		return fmt.Errorf("creating encryptor: %w", err)
	}
	if enc != nil && enc.IsConfigured() {
		passphrase, err := promptPassphrase(false)
		if err != nil {
			return err
		}
		decrypter, err := enc.Unlock(passphrase)
		if err != nil {
			return fmt.Errorf("unlocking private key: %w", err)
		}

		decPath, err := decryptFile(decrypter, tmpPath)
		if err != nil {
			return err
		}
		defer os.Remove(decPath)
		restorePath = decPath
	}

	if err := os.Rename(restorePath, target); err != nil {
		return fmt.Errorf("installing snapshot: %w", err)
	}

	fmt.Printf("Restored catalog snapshot (version %d) to %s\n", version, target)
	return nil
}

// decryptFile decrypts src into a sibling temp file and returns its path.
func decryptFile(d encryption.Decrypter, src string) (string, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("opening snapshot: %w", err)
	}
	defer in.Close()

	out, err := os.CreateTemp(filepath.Dir(src), ".vv-restore-dec-*")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}

	if err := d.Decrypt(in, out); err != nil {
		out.Close()
		os.Remove(out.Name())
		return "", fmt.Errorf("decrypting snapshot: %w", err)
	}

	if err := out.Close(); err != nil {
		os.Remove(out.Name())
		return "", fmt.Errorf("writing decrypted snapshot: %w", err)
	}

	return out.Name(), nil
}

// promptPassphrase reads a passphrase from the terminal without echo.
// With confirm, it prompts twice and requires both entries to match.
func promptPassphrase(confirm bool) (string, error) {
	fmt.Fprint(os.Stderr, "Passphrase: ")
	first, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	if len(first) == 0 {
		return "", fmt.Errorf("passphrase must not be empty")
	}

	if confirm {
		fmt.Fprint(os.Stderr, "Confirm passphrase: ")
		second, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("reading passphrase: %w", err)
		}
		if string(first) != string(second) {
			return "", fmt.Errorf("passphrases do not match")
		}
	}

	return string(first), nil
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGT"[exp])
}

func plural(n int, singular, pluralForm string) string {
	if n == 1 {
		return singular
	}
	return pluralForm
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	keyCmd.AddCommand(keyInitCmd)

	snapshotCmd.AddCommand(snapshotRestoreCmd)
	snapshotRestoreCmd.Flags().BoolP("force", "f", false, "Overwrite an existing local catalog")

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(keyCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(lsCmd)
	rootCmd.AddCommand(dupesCmd)
	dedupeCmd.Flags().Bool("dry-run", false, "Show what would be deleted without deleting")
	rootCmd.AddCommand(dedupeCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(pruneCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 50, "Maximum number of operations to show")
	rootCmd.AddCommand(snapshotCmd)
}
