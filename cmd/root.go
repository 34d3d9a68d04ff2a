package cmd

import (
	"fmt"
	"os"

	"github.com/lockforge/lockd/cmd/kv"
	"github.com/lockforge/lockd/cmd/lock"
	"github.com/lockforge/lockd/cmd/serve"
	"github.com/lockforge/lockd/cmd/util"
	"github.com/spf13/cobra"
)

const (
	Version = "1.0.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "lockd",
		Short: "distributed lock service",
		Long: fmt.Sprintf(`lockd (v%s)

A distributed lock service written in Go. Locks are leased, fenced by
unique tokens and backed by either an in-memory store or redis.`, Version),
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of lockd",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("lockd v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(kv.KeyValueCommands)
	RootCmd.AddCommand(lock.LockCommands)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "serializer"
	RootCmd.PersistentFlags().String(key, "json", util.WrapString("serializer to use (json, gob, binary)"))
	key = "transport"
	RootCmd.PersistentFlags().String(key, "http", util.WrapString("transport to use (http, tcp, unix)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
