package kv

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	setTTLMillis   uint64
	setnxTTLMillis uint64

	setCmd = &cobra.Command{
		Use:   "set [key] [value]",
		Short: "Sets the value for a key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			value := args[1]
			if err := rpcStore.Set(key, []byte(value), time.Duration(setTTLMillis)*time.Millisecond); err != nil {
				return err
			}
			fmt.Println("set successfully")
			return nil
		},
	}
	setnxCmd = &cobra.Command{
		Use:   "setnx [key] [value]",
		Short: "Sets the value for a key only if the key does not exist",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			value := args[1]
			ok, err := rpcStore.SetIfAbsent(key, []byte(value), time.Duration(setnxTTLMillis)*time.Millisecond)
			if err != nil {
				return err
			}
			fmt.Printf("set=%v\n", ok)
			return nil
		},
	}
	getCmd = &cobra.Command{
		Use:   "get [key]",
		Short: "Reads the value for a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			resp, ok, err := rpcStore.Get(key)
			if err != nil {
				return err
			}
			fmt.Printf("key=%s, found=%v, resp=%s\n", key, ok, resp)
			return nil
		},
	}
	delCmd = &cobra.Command{
		Use:   "del [key]",
		Short: "Deletes a key value pair",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if err := rpcStore.Delete(key); err != nil {
				return err
			}
			fmt.Println("delete successfully")
			return nil
		},
	}
	incrCmd = &cobra.Command{
		Use:   "incr [key]",
		Short: "Increments the integer value of a key by one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			value, err := rpcStore.Increment(key)
			if err != nil {
				return err
			}
			fmt.Printf("key=%s, value=%d\n", key, value)
			return nil
		},
	}
	hasCmd = &cobra.Command{
		Use:   "has [key]",
		Short: "Checks if a key exists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			found, err := rpcStore.Has(key)
			if err != nil {
				return err
			}
			fmt.Printf("key=%s, found=%t\n", key, found)
			return nil
		},
	}
)

func init() {
	setCmd.Flags().Uint64Var(&setTTLMillis, "ttl", 0, "Expiry in milliseconds (0 = no expiry)")
	setnxCmd.Flags().Uint64Var(&setnxTTLMillis, "ttl", 0, "Expiry in milliseconds (0 = no expiry)")
}
