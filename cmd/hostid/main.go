package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tusharlock10/hostid"
	"github.com/tusharlock10/hostid/internal/config"
	"github.com/tusharlock10/hostid/internal/hardware"
	"github.com/tusharlock10/hostid/internal/ipc"
	"github.com/tusharlock10/hostid/internal/log"
)

// version is set at build time via -ldflags "-X main.version=<version>"
var version string

func main() {
	if err := run(newRootCmd()); err != nil {
		os.Exit(1)
	}
}

// usageError marks errors that are followed by the command's usage.
type usageError struct{ error }

func (e usageError) Unwrap() error { return e.error }

// run executes cmd and reports any error on the stderr of the command that
// failed, including argument and unknown-command errors raised by cobra.
func run(cmd *cobra.Command) error {
	c, err := cmd.ExecuteC()
	if err == nil {
		return nil
	}
	w := c.ErrOrStderr()
	fmt.Fprintf(w, "Error: %v\n", err)
	if errors.As(err, new(usageError)) {
		fmt.Fprintf(w, "\n%s", c.UsageString())
	}
	return err
}

// app holds what every subcommand needs once flags have been parsed.
type app struct {
	cfg  *config.Config
	log  *log.Logger
	host *hardware.Host
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "hostid",
		Short:         "Print the numeric identifier of the current host",
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		RunE: a.runPrint,
	}
	config.RegisterFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "report",
			Short: "Print the host identifier with its provenance as JSON",
			Args:  cobra.NoArgs,
			RunE:  a.runReport,
		},
		&cobra.Command{
			Use:   "encode <ipv4>...",
			Short: "Print the identifier each IPv4 address would produce",
			Args:  cobra.MinimumNArgs(1),
			RunE:  a.runEncode,
		},
		&cobra.Command{
			Use:   "serve",
			Short: "Answer host identifier queries over a local socket",
			Args:  cobra.NoArgs,
			RunE:  a.runServe,
		},
		&cobra.Command{
			Use:   "query [method]",
			Short: "Query a running hostid server (default method: get_host_id)",
			Args:  cobra.MaximumNArgs(1),
			RunE:  a.runQuery,
		},
	)

	// Usage is only shown for flag errors, not for resolution failures.
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})
	return rootCmd
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	a.cfg = cfg
	a.log = log.New(log.WithLevel(cfg.Log.Level), log.WithWriter(cmd.ErrOrStderr()))

	fs := cfg.Fs()
	opts := append(cfg.ResolverOptions(fs), hostid.WithLogger(a.log.Zerolog()))
	a.host = &hardware.Host{Resolver: hostid.New(opts...), Fs: fs}
	return nil
}

func (a *app) runPrint(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()

	switch a.cfg.Format {
	case config.FormatJSON:
		rep, err := a.host.Report()
		if err != nil {
			return err
		}
		return writeJSON(out, rep, false)

	case config.FormatUUID:
		res, err := a.host.Resolver.Lookup()
		if err != nil {
			return err
		}
		fmt.Fprintln(out, res.UUID())
		return nil

	default:
		id, err := a.host.HostID()
		if err != nil {
			return err
		}
		fmt.Fprintln(out, id)
		return nil
	}
}

func (a *app) runReport(cmd *cobra.Command, _ []string) error {
	rep, err := a.host.Report()
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), rep, true)
}

func (a *app) runEncode(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	for _, addr := range args {
		id, err := hostid.EncodeAddress(addr)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s\t%s\n", addr, id)
	}
	return nil
}

func (a *app) runServe(cmd *cobra.Command, _ []string) error {
	ctx, cancel := setupSignalHandler(cmd.Context(), a.log)
	defer cancel()

	srvLog := log.New(log.WithLogger(a.log), log.WithFields(log.Fields{"socket": a.cfg.Socket}))
	srv, err := ipc.NewServer(a.cfg.Socket, a.host, srvLog)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer srv.Close()

	srvLog.Info("Serving host identifier", nil)
	if err := srv.Serve(ctx); err != nil {
		return err
	}
	return nil
}

func (a *app) runQuery(cmd *cobra.Command, args []string) error {
	method := ipc.MethodGetHostID
	if len(args) == 1 {
		method = args[0]
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
	defer cancel()

	resp, err := ipc.Query(ctx, a.cfg.Socket, method)
	if err != nil {
		return err
	}
	if resp.Status != "ok" {
		return fmt.Errorf("server error: %s", resp.Error)
	}

	if method == ipc.MethodGetHostID {
		fmt.Fprintln(cmd.OutOrStdout(), resp.HostID)
		return nil
	}
	return writeJSON(cmd.OutOrStdout(), resp, true)
}

func writeJSON(w io.Writer, v any, indent bool) error {
	enc := json.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

// setupSignalHandler returns a context that is cancelled on SIGINT/SIGTERM.
func setupSignalHandler(parent context.Context, l *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigCh)
		select {
		case sig := <-sigCh:
			l.Info("Received signal, shutting down", log.Fields{"signal": sig.String()})
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
