package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"conia-sync/internal/app"
	"conia-sync/internal/conia"
	"conia-sync/internal/config"
	"conia-sync/internal/database"
	"conia-sync/internal/model"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config file from its default or overridden location.
func loadConfig() (*config.Config, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return cfg, nil
}

// newApp reads the config and creates a SyncApp. The caller must defer a.Close().
// operation identifies the CLI command being run (e.g. "push", "daemon").
func newApp(ctx context.Context, operation string) (*app.SyncApp, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	a, err := app.NewSyncApp(ctx, cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

// promptSecret reads a secret from the terminal without echoing it.
func promptSecret(prompt string) (string, error) {
	fmt.Print(prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return string(b), nil
}

// parseID converts a numeric CLI argument into a row id.
func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}

// printResult prints per-table counts for a sync pass and returns the joined
// table failures so the command exits non-zero when the run reported one.
func printResult(res *conia.SyncResult) error {
	for _, table := range conia.SyncOrder {
		tr, ok := res.Tables[table]
		if !ok {
			continue
		}
		status := "ok"
		if tr.Err != nil {
			status = "FAILED"
		}
		fmt.Printf("%-15s %4d synced  %s\n", table, tr.Synced, status)
	}
	fmt.Printf("total: %d\n", res.TotalSynced)
	return res.Err()
}

var rootCmd = &cobra.Command{
	Use:   "conia-sync",
	Short: "Sync engine for the Conia notes and tasks app",
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
			return fmt.Errorf("getting defaults: %w", err)
		}

		// Generate a new device ID
		deviceID := uuid.New().String()

		cfg := config.NewConfig(deviceID, defaults["base_dir"])

		remoteURL, _ := cmd.Flags().GetString("remote-url")
		if remoteURL != "" {
			cfg.Remote.BaseURL = remoteURL
			apiKey, err := promptSecret("Remote API key: ")
			if err != nil {
				return err
			}
			cfg.Remote.APIKey = apiKey
		}

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("initializing config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Device ID: %s\n", deviceID)
		fmt.Printf("Base Dir:  %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("getting defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("reading config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Device ID:  %s\n", cfg.DeviceID)
		fmt.Printf("Base Dir:   %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:    %s\n", cfg.LogDir)
		fmt.Printf("Database:   %s (%s)\n", cfg.Database.Path, cfg.Database.Type)
		fmt.Printf("Remote:     %s (%s)\n", cfg.Remote.BaseURL, cfg.Remote.Type)
		fmt.Printf("Snapshots:  %s\n", cfg.Snapshot.Type)
		fmt.Printf("Schedule:   %s\n", cfg.Sync.Schedule)
		return nil
	},
}

// migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := app.RunMigrations(cfg); err != nil {
			return fmt.Errorf("migrating: %w", err)
		}
		fmt.Println("Store is up to date.")
		return nil
	},
}

// push command
var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Replicate local pending changes to the backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "push")
		if err != nil {
			return err
		}
		defer a.Close()

		return printResult(a.Push(cmd.Context()))
	},
}

// pull command
var pullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Apply remote changes newer than the local watermarks",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "pull")
		if err != nil {
			return err
		}
		defer a.Close()

		return printResult(a.Pull(cmd.Context()))
	},
}

// sync command
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Push then pull in one run",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "sync")
		if err != nil {
			return err
		}
		defer a.Close()

		return printResult(a.Sync(cmd.Context()))
	},
}

// resync command
var resyncCmd = &cobra.Command{
	Use:   "resync",
	Short: "Rebuild the local dataset from a complete remote fetch",
	RunE: func(cmd *cobra.Command, args []string) error {
		skipSnapshot, _ := cmd.Flags().GetBool("skip-snapshot")

		a, err := newApp(cmd.Context(), "resync")
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.Resync(cmd.Context(), skipSnapshot)
		if err != nil {
			return err
		}
		return printResult(res)
	},
}

// status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "View replication status",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "status")
		if err != nil {
			return err
		}
		defer a.Close()

		report, err := a.Status(cmd.Context())
		if err != nil {
			return err
		}

		for _, table := range conia.EnvelopeTables {
			ts := report.Tables[table]
			wm := "-"
			if !ts.Watermark.IsZero() {
				wm = model.FormatTime(ts.Watermark)
			}
			fmt.Printf("%-15s synced:%-4d pending:%-4d pending_delete:%-4d failed:%-4d watermark:%s\n",
				table,
				ts.Counts[model.StatusSynced],
				ts.Counts[model.StatusPending],
				ts.Counts[model.StatusPendingDelete],
				ts.Counts[model.StatusFailed],
				wm,
			)
		}
		fmt.Printf("%-15s %d link(s)\n", conia.TableTaskTagLinks, report.LinkCount)

		if report.LastRun != nil {
			run := report.LastRun
			outcome := "ok"
			if !run.Success {
				outcome = "FAILED"
			}
			if run.FinishedAt == nil {
				outcome = "unfinished"
			}
			fmt.Printf("\nlast run: %s %s at %s (%s)\n",
				run.Operation, run.RunID, run.StartedAt.Format("2006-01-02 15:04:05"), outcome)
		}
		return nil
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View sync run history",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp(cmd.Context(), "history")
		if err != nil {
			return err
		}
		defer a.Close()

		runs, err := a.History(cmd.Context(), limit)
		if err != nil {
			return err
		}

		if len(runs) == 0 {
			fmt.Println("No sync runs recorded.")
			return nil
		}

		for _, run := range runs {
			duration := ""
			outcome := "unfinished"
			if run.FinishedAt != nil {
				duration = run.FinishedAt.Sub(run.StartedAt).Truncate(time.Millisecond).String()
				outcome = "ok"
				if !run.Success {
					outcome = "FAILED"
				}
			}
			fmt.Printf("%s  %-6s  %s  pushed:%-4d pulled:%-4d %-10s %s\n",
				run.RunID,
				run.Operation,
				run.StartedAt.Format("2006-01-02 15:04:05"),
				run.Pushed,
				run.Pulled,
				outcome,
				duration,
			)
		}
		return nil
	},
}

// daemon command
var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Sync on a schedule until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, "daemon")
		if err != nil {
			return err
		}
		defer a.Close()

		return a.RunDaemon(ctx)
	},
}

// snapshot command
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Manage encrypted database snapshots",
}

var snapshotSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Capture, encrypt, and upload a snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "snapshot-save")
		if err != nil {
			return err
		}
		defer a.Close()

		name, err := a.SaveSnapshot(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Snapshot stored as %s\n", name)
		return nil
	},
}

var snapshotListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored snapshots",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "snapshot-list")
		if err != nil {
			return err
		}
		defer a.Close()

		infos, err := a.ListSnapshots(cmd.Context())
		if err != nil {
			return err
		}

		if len(infos) == 0 {
			fmt.Println("No snapshots stored.")
			return nil
		}
		for _, info := range infos {
			fmt.Printf("%s  %d bytes\n", info.Name, info.Size)
		}
		return nil
	},
}

var snapshotRestoreCmd = &cobra.Command{
	Use:   "restore NAME",
	Short: "Download and decrypt a snapshot to a local file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")
		force, _ := cmd.Flags().GetBool("force")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if out == "" {
			out = cfg.Database.Path + ".restored"
		}

		passphrase, err := promptSecret("Key passphrase: ")
		if err != nil {
			return err
		}

		if err := app.RestoreSnapshot(cmd.Context(), cfg, args[0], out, passphrase, force); err != nil {
			return err
		}
		fmt.Printf("Snapshot %s restored to %s\n", args[0], out)
		fmt.Println("Point database.path at this file (or replace the live file) to use it.")
		return nil
	},
}

// key command
var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage snapshot encryption keys",
}

var keyInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate the snapshot encryption key pair",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		passphrase, err := promptSecret("Passphrase for the private key: ")
		if err != nil {
			return err
		}
		confirm, err := promptSecret("Confirm passphrase: ")
		if err != nil {
			return err
		}
		if passphrase != confirm {
			return fmt.Errorf("passphrases do not match")
		}

		if err := app.SetupKeys(cfg, passphrase); err != nil {
			return err
		}
		fmt.Printf("Keys written to %s and %s\n", cfg.Encryption.PublicKeyPath, cfg.Encryption.PrivateKeyPath)
		return nil
	},
}

// project command
var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects",
}

var projectAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Create a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "project-add")
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := a.CreateProject(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Created project #%d %s\n", p.ID, p.Name)
		return nil
	},
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "project-list")
		if err != nil {
			return err
		}
		defer a.Close()

		projects, err := a.ListProjects(cmd.Context())
		if err != nil {
			return err
		}

		if len(projects) == 0 {
			fmt.Println("No projects.")
			return nil
		}
		for _, p := range projects {
			fmt.Printf("#%-4d %-30s %s\n", p.ID, p.Name, p.SyncStatus)
		}
		return nil
	},
}

var projectRmCmd = &cobra.Command{
	Use:   "rm ID",
	Short: "Delete a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context(), "project-rm")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.DeleteProject(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Printf("Deleted project #%d (takes effect remotely on next push)\n", id)
		return nil
	},
}

// section command
var sectionCmd = &cobra.Command{
	Use:   "section",
	Short: "Manage sections",
}

var sectionAddCmd = &cobra.Command{
	Use:   "add PROJECT_ID NAME",
	Short: "Create a section in a project",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		projectID, err := parseID(args[0])
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context(), "section-add")
		if err != nil {
			return err
		}
		defer a.Close()

		sec, err := a.CreateSection(cmd.Context(), projectID, args[1])
		if err != nil {
			return err
		}
		fmt.Printf("Created section #%d %s\n", sec.ID, sec.Name)
		return nil
	},
}

var sectionListCmd = &cobra.Command{
	Use:   "list PROJECT_ID",
	Short: "List the sections of a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		projectID, err := parseID(args[0])
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context(), "section-list")
		if err != nil {
			return err
		}
		defer a.Close()

		sections, err := a.ListSections(cmd.Context(), projectID)
		if err != nil {
			return err
		}

		if len(sections) == 0 {
			fmt.Println("No sections.")
			return nil
		}
		for _, sec := range sections {
			fmt.Printf("#%-4d %-30s %s\n", sec.ID, sec.Name, sec.SyncStatus)
		}
		return nil
	},
}

// tag command
var tagCmd = &cobra.Command{
	Use:   "tag",
	Short: "Manage tags",
}

var tagAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Create a tag",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "tag-add")
		if err != nil {
			return err
		}
		defer a.Close()

		tag, err := a.CreateTag(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Created tag #%d %s\n", tag.ID, tag.Name)
		return nil
	},
}

var tagListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tags",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "tag-list")
		if err != nil {
			return err
		}
		defer a.Close()

		tags, err := a.ListTags(cmd.Context())
		if err != nil {
			return err
		}

		if len(tags) == 0 {
			fmt.Println("No tags.")
			return nil
		}
		for _, tag := range tags {
			fmt.Printf("#%-4d %-30s %s\n", tag.ID, tag.Name, tag.SyncStatus)
		}
		return nil
	},
}

// task command
var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks",
}

var taskAddCmd = &cobra.Command{
	Use:   "add TITLE...",
	Short: "Create a task",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		projectID, _ := cmd.Flags().GetInt64("project")
		if projectID == 0 {
			return fmt.Errorf("--project is required")
		}
		description, _ := cmd.Flags().GetString("desc")

		params := database.CreateTaskParams{
			ProjectID:   projectID,
			Title:       strings.Join(args, " "),
			Description: description,
		}
		if v, _ := cmd.Flags().GetInt64("section"); v != 0 {
			params.SectionID = &v
		}
		if v, _ := cmd.Flags().GetInt64("parent"); v != 0 {
			params.ParentID = &v
		}

		a, err := newApp(cmd.Context(), "task-add")
		if err != nil {
			return err
		}
		defer a.Close()

		task, err := a.CreateTask(cmd.Context(), params)
		if err != nil {
			return err
		}
		fmt.Printf("Created task #%d %s\n", task.ID, task.Title)
		return nil
	},
}

var taskListCmd = &cobra.Command{
	Use:   "list PROJECT_ID",
	Short: "List the tasks of a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		projectID, err := parseID(args[0])
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context(), "task-list")
		if err != nil {
			return err
		}
		defer a.Close()

		tasks, err := a.ListTasks(cmd.Context(), projectID)
		if err != nil {
			return err
		}

		if len(tasks) == 0 {
			fmt.Println("No tasks.")
			return nil
		}
		for _, task := range tasks {
			mark := " "
			if task.Completed {
				mark = "x"
			}
			line := fmt.Sprintf("[%s] #%-4d %s", mark, task.ID, task.Title)

			tags, err := a.TagsForTask(cmd.Context(), task.ID)
			if err != nil {
				return err
			}
			for _, tag := range tags {
				line += "  #" + tag.Name
			}
			fmt.Println(line)
		}
		return nil
	},
}

var taskDoneCmd = &cobra.Command{
	Use:   "done ID",
	Short: "Mark a task completed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context(), "task-done")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.CompleteTask(cmd.Context(), id, true); err != nil {
			return err
		}
		fmt.Printf("Completed task #%d\n", id)
		return nil
	},
}

var taskRmCmd = &cobra.Command{
	Use:   "rm ID",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context(), "task-rm")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.DeleteTask(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Printf("Deleted task #%d (takes effect remotely on next push)\n", id)
		return nil
	},
}

var taskTagCmd = &cobra.Command{
	Use:   "tag ID TAG",
	Short: "Attach a tag to a task",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context(), "task-tag")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.TagTask(cmd.Context(), id, args[1]); err != nil {
			return err
		}
		fmt.Printf("Tagged task #%d with %s\n", id, args[1])
		return nil
	},
}

var taskUntagCmd = &cobra.Command{
	Use:   "untag ID TAG",
	Short: "Detach a tag from a task",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context(), "task-untag")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.UntagTask(cmd.Context(), id, args[1]); err != nil {
			return err
		}
		fmt.Printf("Untagged task #%d from %s\n", id, args[1])
		return nil
	},
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)
	configInitCmd.Flags().String("remote-url", "", "Remote backend base URL")

	// snapshot subcommands
	snapshotCmd.AddCommand(snapshotSaveCmd)
	snapshotCmd.AddCommand(snapshotListCmd)
	snapshotCmd.AddCommand(snapshotRestoreCmd)
	snapshotRestoreCmd.Flags().String("out", "", "Output path (default: database path + .restored)")
	snapshotRestoreCmd.Flags().Bool("force", false, "Overwrite the output file if it exists")

	// key subcommands
	keyCmd.AddCommand(keyInitCmd)

	// project subcommands
	projectCmd.AddCommand(projectAddCmd)
	projectCmd.AddCommand(projectListCmd)
	projectCmd.AddCommand(projectRmCmd)

	// section subcommands
	sectionCmd.AddCommand(sectionAddCmd)
	sectionCmd.AddCommand(sectionListCmd)

	// tag subcommands
	tagCmd.AddCommand(tagAddCmd)
	tagCmd.AddCommand(tagListCmd)

	// task subcommands
	taskCmd.AddCommand(taskAddCmd)
	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskDoneCmd)
	taskCmd.AddCommand(taskRmCmd)
	taskCmd.AddCommand(taskTagCmd)
	taskCmd.AddCommand(taskUntagCmd)
	taskAddCmd.Flags().Int64("project", 0, "Project the task belongs to (required)")
	taskAddCmd.Flags().Int64("section", 0, "Section within the project")
	taskAddCmd.Flags().Int64("parent", 0, "Parent task for subtasks")
	taskAddCmd.Flags().String("desc", "", "Task description")

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(pushCmd)
	rootCmd.AddCommand(pullCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(resyncCmd)
	resyncCmd.Flags().Bool("skip-snapshot", false, "Skip the safety snapshot before the import")
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 20, "Maximum number of runs to show")
	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(keyCmd)
	rootCmd.AddCommand(projectCmd)
	rootCmd.AddCommand(sectionCmd)
	rootCmd.AddCommand(tagCmd)
	rootCmd.AddCommand(taskCmd)
}
