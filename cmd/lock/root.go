package lock

import (
	"fmt"
	"time"

	"github.com/lockforge/lockd/cmd/util"
	"github.com/lockforge/lockd/lib/lock"
	"github.com/lockforge/lockd/rpc/client"
	"github.com/spf13/cobra"
)

var (
	rpcLockMgr   lock.ILockManager
	leaseSeconds uint64

	// LockCommands represents the lock command group
	LockCommands = &cobra.Command{
		Use:               "lock",
		Short:             "Perform lock operations",
		PersistentPreRunE: setupLockClient,
	}

	// acquireCmd represents the acquire command
	acquireCmd = &cobra.Command{
		Use:   "acquire [key]",
		Short: "Acquire a lock",
		Long:  "Acquire a lock with a lease. The lock expires after the lease unless it is renewed. The printed token is needed to release or renew the lock.",
		Args:  cobra.ExactArgs(1),
		RunE:  runAcquire,
	}

	// releaseCmd represents the release command
	releaseCmd = &cobra.Command{
		Use:   "release [key] [token]",
		Short: "Release a previously acquired lock",
		Long:  "Release a lock using the key and token. The token is the string returned by the acquire command.",
		Args:  cobra.ExactArgs(2),
		RunE:  runRelease,
	}

	// renewCmd represents the renew command
	renewCmd = &cobra.Command{
		Use:   "renew [key] [token]",
		Short: "Extend the lease of a held lock",
		Long:  "Extend the lease of a lock using the key and token. The token is the string returned by the acquire command.",
		Args:  cobra.ExactArgs(2),
		RunE:  runRenew,
	}

	// heldCmd represents the held command
	heldCmd = &cobra.Command{
		Use:   "held [key]",
		Short: "Check whether a lock is currently held",
		Args:  cobra.ExactArgs(1),
		RunE:  runHeld,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitClientConfig)

	// Add subcommands to lock command
	LockCommands.AddCommand(acquireCmd)
	LockCommands.AddCommand(releaseCmd)
	LockCommands.AddCommand(renewCmd)
	LockCommands.AddCommand(heldCmd)

	// Add common RPC flags to the lock command
	util.SetupRPCClientFlags(LockCommands)

	// Set default shard ID for lock operations (different from KV default)
	LockCommands.PersistentFlags().Int("shard", 200, util.WrapString("ID of the shard to connect to"))

	// Add flags specific to acquire and renew
	acquireCmd.Flags().Uint64Var(&leaseSeconds, "lease", 30, "Lease duration in seconds")
	renewCmd.Flags().Uint64Var(&leaseSeconds, "lease", 30, "Lease duration in seconds")
}

// setupLockClient initializes the lock manager client
func setupLockClient(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	// Get client configuration components
	config := util.GetClientConfig()
	shardId := util.GetShardID()

	// Get serializer and transport
	s, err := util.GetSerializer()
	if err != nil {
		return err
	}

	t, err := util.GetTransport()
	if err != nil {
		return err
	}

	// Create the lock manager client
	rpcLockMgr, err = client.NewRPCLockManager(
		shardId,
		*config,
		t,
		s,
	)

	return err
}

// runAcquire handles the acquire lock command
func runAcquire(_ *cobra.Command, args []string) error {
	key := args[0]

	// Attempt to acquire the lock
	handle, acquired, err := rpcLockMgr.Acquire(key, time.Duration(leaseSeconds)*time.Second)

	if err != nil {
		return fmt.Errorf("failed to acquire lock: %v", err)
	}

	if !acquired {
		fmt.Printf("acquired=false\n")
		return nil
	}

	fmt.Printf("acquired=true, token=%s\n", handle.Token)

	return nil
}

// runRelease handles the release lock command
func runRelease(_ *cobra.Command, args []string) error {
	key := args[0]
	token := args[1]

	// Attempt to release the lock
	released, err := rpcLockMgr.Release(&lock.Handle{Key: key, Token: token})

	if err != nil {
		return fmt.Errorf("failed to release lock: %v", err)
	}

	fmt.Printf("released=%v\n", released)

	return nil
}

// runRenew handles the renew lock command
func runRenew(_ *cobra.Command, args []string) error {
	key := args[0]
	token := args[1]

	// Attempt to renew the lock
	renewed, err := rpcLockMgr.Renew(&lock.Handle{Key: key, Token: token}, time.Duration(leaseSeconds)*time.Second)

	if err != nil {
		return fmt.Errorf("failed to renew lock: %v", err)
	}

	fmt.Printf("renewed=%v\n", renewed)

	return nil
}

// runHeld handles the held command
func runHeld(_ *cobra.Command, args []string) error {
	key := args[0]

	held, err := rpcLockMgr.IsHeld(key)

	if err != nil {
		return fmt.Errorf("failed to check lock: %v", err)
	}

	fmt.Printf("held=%v\n", held)

	return nil
}
