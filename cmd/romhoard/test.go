// test.go romhoard test 子命令：连接 + 传输根写入测试。
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cubicalbatch/romhoard-sub002/internal/device"
	"github.com/cubicalbatch/romhoard-sub002/internal/transfer"
)

func newTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test <slug>",
		Short: "测试设备连接和传输根的可写性",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := device.LoadCatalog()
			if err != nil {
				return err
			}
			d, err := catalog.Find(args[0])
			if err != nil {
				return err
			}

			client, err := transfer.NewClient(d)
			if err != nil {
				return err
			}
			defer client.Close()

			fmt.Printf("连接 %s (%s)...\n", d.Name, d.Addr())
			if err := client.Connect(); err != nil {
				return fmt.Errorf("✗ 连接失败: %w", err)
			}
			fmt.Println("  ✓ 连接成功")

			root := d.TransferRoot("")
			if err := client.TestWrite(root); err != nil {
				return fmt.Errorf("✗ 写入测试失败 (%s): %w", root, err)
			}
			fmt.Printf("  ✓ 写入测试通过 (%s)\n", root)
			return nil
		},
	}
}
