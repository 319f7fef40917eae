package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dirsail/dirsail/bus"
	"github.com/dirsail/dirsail/cha"
	"github.com/dirsail/dirsail/dds"
	"github.com/dirsail/dirsail/internal/config"
	"github.com/dirsail/dirsail/internal/xlog"
	"github.com/dirsail/dirsail/scheduler"
	"github.com/dirsail/dirsail/vfs"
	"github.com/dirsail/dirsail/vfs/archivefs"
	"github.com/dirsail/dirsail/vfs/localfs"
	"github.com/dirsail/dirsail/vfsurl"
	"github.com/dirsail/dirsail/watcher"
)

func runRoot(cmd *cobra.Command, args []string) error {
	if v, _ := cmd.Flags().GetBool("version"); v {
		fmt.Printf("dirsail %s\n", Version)
		return nil
	}

	cfgPath, _ := cmd.Flags().GetString("config")
	opt, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("cmd: load config: %w", err)
	}

	if clear, _ := cmd.Flags().GetBool("clear-cache"); clear {
		return clearCache(opt.CacheRoot)
	}

	logger := xlog.New(os.Stderr, slog.LevelInfo)

	cwdFlag, _ := cmd.Flags().GetString("cwd")
	if cwdFlag == "" {
		cwdFlag, err = os.Getwd()
		if err != nil {
			return fmt.Errorf("cmd: resolve working directory: %w", err)
		}
	}
	cwd, err := vfsurl.Parse(cwdFlag)
	if err != nil {
		return fmt.Errorf("cmd: parse --cwd %q: %w", cwdFlag, err)
	}
	cwdFile, _ := cmd.Flags().GetString("cwd-file")
	chooserFile, _ := cmd.Flags().GetString("chooser-file")

	router := &vfs.Router{
		Local:   localfs.New(),
		Archive: archivefs.New(),
		Sftp: func(domain string) (vfs.Provider, error) {
			return nil, fmt.Errorf("cmd: sftp domain %q not configured", domain)
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		cancel()
	}()

	sched := scheduler.New(ctx, opt.QueueDepth)
	defer sched.Stop()
	b := bus.New(opt.QueueDepth)
	defer b.Close()

	publish := func(op cha.FilesOp) {
		b.Publish(bus.CallEvent(bus.NewCmd("files_op", bus.Str(filesOpSummary(op)))))
	}

	w, err := watcher.New(ctx, router, publish)
	if err != nil {
		return fmt.Errorf("cmd: start watcher: %w", err)
	}
	w.SetLogger(func(format string, a ...any) { logger.Info(fmt.Sprintf(format, a...)) })
	defer w.Close()

	if err := w.Watch([]vfsurl.Url{cwd}); err != nil {
		return fmt.Errorf("cmd: watch %q: %w", cwd.Path(), err)
	}

	statePath := filepath.Join(opt.StateDir, ".dds")
	if err := os.MkdirAll(opt.StateDir, 0o755); err != nil {
		return fmt.Errorf("cmd: create state dir: %w", err)
	}
	store, err := dds.Open(statePath)
	if err != nil {
		return fmt.Errorf("cmd: open dds state: %w", err)
	}
	defer store.Close()

	logger.Info("dirsail started", "cwd", cwd.Path(), "state_dir", opt.StateDir)

	for {
		select {
		case <-ctx.Done():
			return writeExitFiles(cwdFile, chooserFile, cwd)
		case ev := <-b.Events():
			line, err := eventToMessage(ev)
			if err != nil {
				logger.Warn("cmd: encode event", "err", err)
				continue
			}
			if err := dds.WriteMessage(os.Stdout, line); err != nil {
				return fmt.Errorf("cmd: write event: %w", err)
			}
		}
	}
}

// writeExitFiles implements --cwd-file/--chooser-file (§6's CLI
// contract): on exit, the final working directory is written to
// cwdFile; chooserFile is only written if a file was chosen, which this
// driver (no UI, no selection state) never does.
func writeExitFiles(cwdFile, chooserFile string, cwd vfsurl.Url) error {
	_ = chooserFile
	if cwdFile == "" {
		return nil
	}
	if err := os.WriteFile(cwdFile, []byte(cwd.Path()+"\n"), 0o644); err != nil {
		return fmt.Errorf("cmd: write --cwd-file: %w", err)
	}
	return nil
}

func clearCache(root string) error {
	if root == "" {
		return fmt.Errorf("cmd: empty cache root")
	}
	if err := os.RemoveAll(root); err != nil {
		return fmt.Errorf("cmd: clear cache %q: %w", root, err)
	}
	fmt.Printf("cleared %s\n", root)
	return nil
}

func filesOpSummary(op cha.FilesOp) string {
	return fmt.Sprintf("kind=%d", op.Kind)
}

// eventToMessage renders a bus.Event as the DDS wire message the root
// driver streams to stdout (§6).
func eventToMessage(ev bus.Event) (dds.Message, error) {
	return dds.NewMessage(ev.Kind.String(), dds.Broadcast, dds.SeverityInfo, 0, ev)
}
