package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/torosent/udprtt/internal/config"
	"github.com/torosent/udprtt/internal/echo"
	"github.com/torosent/udprtt/internal/logging"
)

type options struct {
	address   string
	logLevel  string
	logFormat string
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, logOut io.Writer) error {
	cmd := newCommand(ctx, logOut)
	cmd.SetArgs(args)
	return cmd.Execute()
}

func newCommand(ctx context.Context, logOut io.Writer) *cobra.Command {
	opts := options{}
	cmd := &cobra.Command{
		Use:           "udpecho",
		Short:         "Echo every UDP datagram back to its sender",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), opts, logOut)
		},
	}
	cmd.SetContext(ctx)

	flags := cmd.Flags()
	flags.StringVarP(&opts.address, "address", "a", config.DefaultTarget, "Address to listen on (host:port)")
	flags.StringVar(&opts.logLevel, "log-level", config.DefaultLogLevel, "Log level: trace, debug, info, warn, error")
	flags.StringVar(&opts.logFormat, "log-format", config.DefaultLogFormat, "Log format: text or json")
	return cmd
}

func serve(ctx context.Context, opts options, logOut io.Writer) error {
	log, err := logging.New(opts.logLevel, opts.logFormat, logOut)
	if err != nil {
		return err
	}

	conn, err := net.ListenPacket("udp", opts.address)
	if err != nil {
		return fmt.Errorf("listen %s: %w", opts.address, err)
	}
	defer conn.Close()

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	srv := &echo.Server{Conn: conn, Log: log}
	return srv.Serve(ctx)
}
