// Command sidx talks to a running sidx-srv and can run a local demo of the
// index.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/go-sod/sidx/internal/buildinfo"
)

const (
	formatTable = "table"
	formatJSON  = "json"
)

type globalFlags struct {
	addr     string
	grpcAddr string
	token    string
	user     string
	password string
	timeout  time.Duration
	format   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	rootCmd := &cobra.Command{
		Use:           "sidx",
		Short:         "Client of the sidx spatial index",
		Long:          "sidx stores 2D points in named layers and answers range, nearest and radius queries.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.addr, "addr", envOr("SIDX_CLI_ADDR", "localhost:8787"), "HTTP address of the server")
	pf.StringVar(&flags.grpcAddr, "grpc", os.Getenv("SIDX_CLI_GRPC_ADDR"), "send point operations over gRPC to this address")
	pf.StringVar(&flags.token, "token", "", "bearer token")
	pf.StringVar(&flags.user, "user", "", "basic auth user")
	pf.StringVar(&flags.password, "password", "", "basic auth password")
	pf.DurationVar(&flags.timeout, "timeout", 30*time.Second, "request timeout")
	pf.StringVarP(&flags.format, "output", "o", formatTable, "output format: table or json")

	rootCmd.AddCommand(
		insertCmd(flags),
		deleteCmd(flags),
		searchCmd(flags),
		nearestCmd(flags),
		withinCmd(flags),
		dumpCmd(flags),
		layersCmd(flags),
		dropCmd(flags),
		demoCmd(),
		versionCmd(),
	)
	return rootCmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), buildinfo.Info.String())
		},
	}
}

func envOr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}
