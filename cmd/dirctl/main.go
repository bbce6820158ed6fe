package main

import (
	"context"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/openclerk/directory/modules/directory/infrastructure/persistence"
	"github.com/openclerk/directory/modules/directory/services"
	"github.com/openclerk/directory/pkg/configuration"
	"github.com/openclerk/directory/pkg/kvstore"
)

// dirctl operates on the shared cache store. With the memory cache
// backend there is nothing to reach from another process, so it requires
// the redis backend.
func newStore(conf *configuration.Configuration) (kvstore.Store, error) {
	if conf.Cache.Backend != "redis" {
		return nil, fmt.Errorf("dirctl requires CACHE_BACKEND=redis; the memory cache is process-local")
	}
	return kvstore.NewRedisStore(redis.NewClient(&redis.Options{Addr: conf.Cache.RedisURL})), nil
}

func newCacheClearCmd() *cobra.Command {
	var table string
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear cached record fetches, optionally for a single table",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := configuration.Load()
			if err != nil {
				return err
			}
			defer conf.Unload()

			store, err := newStore(conf)
			if err != nil {
				return err
			}
			records := persistence.NewRecordStore(persistence.RecordStoreConfig{Cache: store})

			ctx := context.Background()
			if table == "" {
				if err := records.Invalidate(ctx); err != nil {
					return err
				}
				cmd.Println("cleared all cached record fetches")
				return nil
			}
			if err := records.InvalidateTable(ctx, table); err != nil {
				return err
			}
			cmd.Printf("cleared cached record fetches for table %q\n", table)
			return nil
		},
	}
	cmd.Flags().StringVar(&table, "table", "", "only clear fingerprints of this table")
	return cmd
}

func newSlugsClearCmd() *cobra.Command {
	var index string
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear slug indexes so the next resolution rebuilds them",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := configuration.Load()
			if err != nil {
				return err
			}
			defer conf.Unload()

			store, err := newStore(conf)
			if err != nil {
				return err
			}

			ctx := context.Background()
			switch index {
			case "":
				if err := store.Delete(ctx, services.DepartmentSlugCacheKey); err != nil {
					return err
				}
				if err := store.Delete(ctx, services.EmployeeSlugCacheKey); err != nil {
					return err
				}
				cmd.Println("cleared both slug indexes")
			case "departments":
				if err := store.Delete(ctx, services.DepartmentSlugCacheKey); err != nil {
					return err
				}
				cmd.Println("cleared department slug index")
			case "employees":
				if err := store.Delete(ctx, services.EmployeeSlugCacheKey); err != nil {
					return err
				}
				cmd.Println("cleared employee slug index")
			default:
				return fmt.Errorf("unknown index %q (expected departments|employees)", index)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&index, "index", "", "only clear one index (departments|employees)")
	return cmd
}

func main() {
	root := &cobra.Command{
		Use:          "dirctl",
		Short:        "Operational commands for the directory cache",
		SilenceUsage: true,
	}

	cacheCmd := &cobra.Command{Use: "cache", Short: "Record cache operations"}
	cacheCmd.AddCommand(newCacheClearCmd())

	slugsCmd := &cobra.Command{Use: "slugs", Short: "Slug index operations"}
	slugsCmd.AddCommand(newSlugsClearCmd())

	root.AddCommand(cacheCmd, slugsCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
