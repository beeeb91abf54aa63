package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

// 构建时通过 ldflags 注入
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "romhoard",
		Short: "掌机 ROM 目录与传输工具",
		Long:  "RomHoard — 管理掌机设备目录，经 FTP/FTPS/SFTP 批量传输 ROM 和封面图。",
	}

	rootCmd.AddCommand(newDeviceCmd())
	rootCmd.AddCommand(newTestCmd())
	rootCmd.AddCommand(newPushCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "显示版本信息",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("romhoard %s\n", version)
			fmt.Printf("  commit: %s\n", commit)
			fmt.Printf("  built:  %s\n", date)
			fmt.Printf("  go:     %s\n", runtime.Version())
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
