package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rejot-dev/thalo/internal/checker"
	"github.com/rejot-dev/thalo/internal/rules"
	"github.com/rejot-dev/thalo/internal/services"
)

var lspWatch bool

// lspCmd loads the workspace and keeps it live for an external language
// server transport. Transport wiring (JSON-RPC over stdio) is out of
// scope for the core; this command provides the watch loop the
// transport layer attaches to.
var lspCmd = &cobra.Command{
	Use:   "lsp [paths]",
	Short: "Run the language-service workspace loop",
	RunE:  runLSP,
}

func init() {
	lspCmd.Flags().BoolVar(&lspWatch, "watch", false, "Re-check documents when files change on disk")
}

func runLSP(cmd *cobra.Command, args []string) error {
	ws, files, err := loadWorkspace(args)
	if err != nil {
		return err
	}
	logger.Info("workspace loaded", zap.Int("files", len(files)))

	if !lspWatch {
		diags := checker.Check(ws, rules.All(), checker.Options{Config: cfg})
		fmt.Fprintf(os.Stderr, "workspace ready: %d files, %d diagnostics\n", len(files), len(diags))
		return nil
	}

	watcher, err := services.NewWatcher(ws)
	if err != nil {
		return err
	}
	defer watcher.Stop()

	dirs := map[string]bool{}
	for _, f := range files {
		dirs[filepath.Dir(f)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return err
		}
	}
	watcher.OnChange = func(filename string) {
		model := ws.GetModel(filename)
		if model == nil {
			return
		}
		diags := checker.CheckModel(ws, model, rules.All(), checker.Options{Config: cfg})
		for _, d := range diags {
			fmt.Printf("%s:%d:%d: %s [%s] %s\n", d.File, d.Line, d.Column, d.Severity, d.Code, d.Message)
		}
	}
	watcher.Start()

	fmt.Fprintln(os.Stderr, "watching for changes; interrupt to stop")
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	return nil
}
