package main

import (
	"fmt"

	"ventarapida/internal/infra"
	"ventarapida/internal/worker"

	"github.com/spf13/cobra"
)

var dlqCantidad int

// ventarapida dlq: inspect and drain the dead letter queue of stock alerts.
var dlqCmd = &cobra.Command{
	Use:   "dlq",
	Short: "Show the dead-lettered alert jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := cargarConfig()
		if err != nil {
			return err
		}
		rdb, err := infra.NewRedis(cfg.RedisURL)
		if err != nil {
			return err
		}
		defer rdb.Close()

		n, err := worker.NewDLQ(rdb).Longitud(cmd.Context(), worker.QueueAlertas)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d jobs\n", worker.DLQPrefix+worker.QueueAlertas, n)
		return nil
	},
}

var dlqRequeueCmd = &cobra.Command{
	Use:   "requeue",
	Short: "Push dead-lettered alert jobs back to their queue",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := cargarConfig()
		if err != nil {
			return err
		}
		rdb, err := infra.NewRedis(cfg.RedisURL)
		if err != nil {
			return err
		}
		defer rdb.Close()

		movidos, err := worker.NewDLQ(rdb).Reencolar(cmd.Context(), worker.QueueAlertas, dlqCantidad)
		fmt.Fprintf(cmd.OutOrStdout(), "%d jobs reencolados\n", movidos)
		return err
	},
}

func init() {
	dlqRequeueCmd.Flags().IntVarP(&dlqCantidad, "n", "n", 100, "maximum jobs to move")
	dlqCmd.AddCommand(dlqRequeueCmd)
}
