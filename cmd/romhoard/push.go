// push.go romhoard push 子命令：扫描本地 ROM 目录并批量上传到设备。
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/cubicalbatch/romhoard-sub002/internal/device"
	"github.com/cubicalbatch/romhoard-sub002/internal/romfile"
	"github.com/cubicalbatch/romhoard-sub002/internal/transfer"
)

func newPushCmd() *cobra.Command {
	var (
		imagesDir string
		retries   int
		system    string
	)

	pushCmd := &cobra.Command{
		Use:   "push <slug> <rom-dir>",
		Short: "把本地 ROM 目录推送到设备",
		Long: "扫描 <rom-dir>（结构: <rom-dir>/<system>/[game/]file，zip 按成员展开），\n" +
			"把其中的 ROM 经设备配置的协议上传。远程已有同大小文件的自动跳过。",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := device.LoadCatalog()
			if err != nil {
				return err
			}
			d, err := catalog.Find(args[0])
			if err != nil {
				return err
			}
			if d.Protocol == device.ProtocolNone {
				return transfer.ErrNoProtocol
			}

			roms, source, err := romfile.ScanDir(args[1])
			if err != nil {
				return err
			}
			if system != "" {
				roms = filterSystem(roms, system)
			}
			if len(roms) == 0 {
				fmt.Println("没有找到可传输的 ROM")
				return nil
			}

			var renderer transfer.ImageRenderer
			if imagesDir != "" {
				renderer = &romfile.FileRenderer{Root: imagesDir}
			}

			status := &statusLine{out: os.Stdout}
			orch := &transfer.Orchestrator{
				Device:     d,
				Source:     source,
				Images:     renderer,
				Output:     status,
				Progress:   pushProgress(status),
				MaxRetries: retries,
			}

			result, err := orch.Run(cmd.Context(), roms)
			status.clear()
			if err != nil {
				return err
			}

			fmt.Printf("\n完成: 上传 %d, 跳过 %d, 失败 %d", len(result.Uploaded), len(result.Skipped), len(result.Failed))
			if len(result.Images) > 0 {
				fmt.Printf(" (封面 %d)", len(result.Images))
			}
			fmt.Println()

			if len(result.Failed) > 0 {
				for _, f := range result.Failed {
					fmt.Printf("  ✗ %s: %s\n", f.Name, f.Error)
				}
				return fmt.Errorf("%d 个文件传输失败", len(result.Failed))
			}
			return nil
		},
	}

	pushCmd.Flags().StringVar(&imagesDir, "images", "", "封面图目录（<dir>[/<kind>]/<system>/<romname>.png）")
	pushCmd.Flags().IntVar(&retries, "retries", transfer.DefaultMaxRetries, "单文件上传尝试次数")
	pushCmd.Flags().StringVar(&system, "system", "", "只推送指定系统")

	return pushCmd
}

// statusLine 单行进度显示：update 用 \r 原地刷新，正式行输出前先清掉进度行
type statusLine struct {
	out   io.Writer
	width int
}

func (s *statusLine) update(text string) {
	fmt.Fprintf(s.out, "\r%s", text)
	if len(text) < s.width {
		fmt.Fprintf(s.out, "%*s", s.width-len(text), "")
	} else {
		s.width = len(text)
	}
}

func (s *statusLine) clear() {
	if s.width == 0 {
		return
	}
	fmt.Fprintf(s.out, "\r%*s\r", s.width, "")
	s.width = 0
}

func (s *statusLine) Write(p []byte) (int, error) {
	s.clear()
	return s.out.Write(p)
}

// pushProgress 把会话的字节计数刷到进度行上，按块粒度更新
func pushProgress(status *statusLine) transfer.ProgressSink {
	return func(s *transfer.Session) {
		if s.TotalBytes == 0 || s.CurrentFile == "" {
			return
		}
		pct := s.BytesSent * 100 / s.TotalBytes
		status.update(fmt.Sprintf("  ↑ %s  %d%% (%s / %s)",
			s.CurrentFile, pct, formatBytes(s.BytesSent), formatBytes(s.TotalBytes)))
	}
}

func formatBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	}
	return fmt.Sprintf("%d B", n)
}

func filterSystem(roms []transfer.ROMFile, system string) []transfer.ROMFile {
	var out []transfer.ROMFile
	for _, r := range roms {
		if r.System == system {
			out = append(out, r)
		}
	}
	return out
}
