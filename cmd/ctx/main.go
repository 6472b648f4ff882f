// Package main provides the ctx CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/kingrea/ctxlayer/internal/config"
	"github.com/kingrea/ctxlayer/internal/controller"
	"github.com/kingrea/ctxlayer/internal/ctxerr"
	"github.com/kingrea/ctxlayer/internal/logbook"
	"github.com/kingrea/ctxlayer/internal/prompt"
	"github.com/kingrea/ctxlayer/internal/tui"
)

// Version is the current ctx CLI version
var Version = "0.3.0"

// noTUIEnv forces non-interactive mode even on a terminal.
const noTUIEnv = "CONTEXT_LAYER_NO_TUI"

var errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

var (
	assumeYes bool
	logLines  int
)

var rootCmd = &cobra.Command{
	Use:     "ctx",
	Short:   "ctx - link shared domain/task context folders into any workspace",
	Long:    `ctx keeps domains and tasks in a central store (~/.ctxlayer/domains) and links the ones you work on into .ctxlayer/ of the current directory.`,
	Version: Version,

	SilenceUsage:  true,
	SilenceErrors: true,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Prepare this directory and pick an active domain",
	Args:  cobra.NoArgs,
	RunE:  runInit,
}

var newCmd = &cobra.Command{
	Use:   "new [task]",
	Short: "Create a task and make it active",
	Long: `Create a task in the active domain, or in a domain fetched from git,
created from scratch, or selected from the store.

Examples:
  ctx new                 # Prompt for everything
  ctx new login-flow      # Name the task up front`,
	Args: cobra.MaximumNArgs(1),
	RunE: runNew,
}

var importCmd = &cobra.Command{
	Use:   "import [domain [task]]",
	Short: "Link an existing task into this directory",
	Long: `Link a task from the store into .ctxlayer/. The active selection only
changes when this directory has no active task yet.`,
	Args: cobra.MaximumNArgs(2),
	RunE: runImport,
}

var setCmd = &cobra.Command{
	Use:   "set [domain [task]]",
	Short: "Set the active domain and task",
	Args:  cobra.MaximumNArgs(2),
	RunE:  runSet,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the active selection and linked tasks",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List every domain and task in the store",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Show recent changes made by ctx",
	Args:  cobra.NoArgs,
	RunE:  runLog,
}

var dropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Remove links from this directory (the store is untouched)",
}

var dropTaskCmd = &cobra.Command{
	Use:   "task [name]",
	Short: "Remove one task link",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDropTask,
}

var dropDomainCmd = &cobra.Command{
	Use:   "domain [name]",
	Short: "Remove a domain folder and all of its task links",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDropDomain,
}

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete from the store",
}

var deleteTaskCmd = &cobra.Command{
	Use:   "task [name]",
	Short: "Delete a task and its files",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDeleteTask,
}

var deleteDomainCmd = &cobra.Command{
	Use:   "domain [name]",
	Short: "Delete a domain with all of its tasks",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDeleteDomain,
}

var gitCmd = &cobra.Command{
	Use:   "git [args...]",
	Short: "Run git inside the active task's folder",
	Long: `Run git with the given arguments inside the store folder of the active task.

Examples:
  ctx git status
  ctx git commit -m "Notes about the login flow"`,
	DisableFlagParsing: true,
	RunE:               runGit,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "Answer yes to every confirmation")
	logCmd.Flags().IntVarP(&logLines, "lines", "n", controller.DefaultLogLines, "Number of entries to show")

	dropCmd.AddCommand(dropTaskCmd)
	dropCmd.AddCommand(dropDomainCmd)
	deleteCmd.AddCommand(deleteTaskCmd)
	deleteCmd.AddCommand(deleteDomainCmd)

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(newCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(dropCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(gitCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		if ctxerr.IsCancelled(err) {
			fmt.Fprintln(os.Stderr, "Cancelled.")
		} else {
			fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		}
		os.Exit(ctxerr.ExitCode(err))
	}
}

// newController wires a Controller for the current process.
func newController(cmd *cobra.Command) (*controller.Controller, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	// The journal is best effort; a nil logbook records nothing.
	book, _ := logbook.New(cfg.LogPath())

	var chooser prompt.Chooser = prompt.Unavailable{}
	if isatty.IsTerminal(os.Stdin.Fd()) && os.Getenv(noTUIEnv) == "" {
		chooser = tui.NewPrompter()
	}
	if assumeYes {
		chooser = prompt.AssumeYes(chooser)
	}
	return controller.New(cfg, chooser,
		controller.WithOutput(cmd.OutOrStdout()),
		controller.WithLogbook(book),
	), nil
}

func argAt(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

func runInit(cmd *cobra.Command, args []string) error {
	c, err := newController(cmd)
	if err != nil {
		return err
	}
	return c.Init(cmd.Context())
}

func runNew(cmd *cobra.Command, args []string) error {
	c, err := newController(cmd)
	if err != nil {
		return err
	}
	return c.NewTask(cmd.Context(), argAt(args, 0))
}

func runImport(cmd *cobra.Command, args []string) error {
	c, err := newController(cmd)
	if err != nil {
		return err
	}
	return c.Import(cmd.Context(), argAt(args, 0), argAt(args, 1))
}

func runSet(cmd *cobra.Command, args []string) error {
	c, err := newController(cmd)
	if err != nil {
		return err
	}
	return c.SetActive(cmd.Context(), argAt(args, 0), argAt(args, 1))
}

func runStatus(cmd *cobra.Command, args []string) error {
	c, err := newController(cmd)
	if err != nil {
		return err
	}
	return c.Status(cmd.Context())
}

func runList(cmd *cobra.Command, args []string) error {
	c, err := newController(cmd)
	if err != nil {
		return err
	}
	return c.List(cmd.Context())
}

func runLog(cmd *cobra.Command, args []string) error {
	c, err := newController(cmd)
	if err != nil {
		return err
	}
	return c.Log(cmd.Context(), logLines)
}

func runDropTask(cmd *cobra.Command, args []string) error {
	c, err := newController(cmd)
	if err != nil {
		return err
	}
	return c.DropTask(cmd.Context(), argAt(args, 0))
}

func runDropDomain(cmd *cobra.Command, args []string) error {
	c, err := newController(cmd)
	if err != nil {
		return err
	}
	return c.DropDomain(cmd.Context(), argAt(args, 0))
}

func runDeleteTask(cmd *cobra.Command, args []string) error {
	c, err := newController(cmd)
	if err != nil {
		return err
	}
	return c.DeleteTask(cmd.Context(), argAt(args, 0))
}

func runDeleteDomain(cmd *cobra.Command, args []string) error {
	c, err := newController(cmd)
	if err != nil {
		return err
	}
	return c.DeleteDomain(cmd.Context(), argAt(args, 0))
}

func runGit(cmd *cobra.Command, args []string) error {
	// Flag parsing is off so -h reaches git; answer it ourselves only when
	// it is the sole argument.
	if len(args) == 1 && (args[0] == "-h" || args[0] == "--help") {
		return cmd.Help()
	}
	c, err := newController(cmd)
	if err != nil {
		return err
	}
	return c.Git(cmd.Context(), args)
}
