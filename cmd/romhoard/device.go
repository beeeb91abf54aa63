// device.go romhoard device 子命令：设备登记、列表、移除。
package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cubicalbatch/romhoard-sub002/internal/device"
)

func newDeviceCmd() *cobra.Command {
	deviceCmd := &cobra.Command{
		Use:   "device",
		Short: "管理设备目录",
	}

	deviceCmd.AddCommand(newDeviceAddCmd())
	deviceCmd.AddCommand(newDeviceListCmd())
	deviceCmd.AddCommand(newDeviceRemoveCmd())

	return deviceCmd
}

func newDeviceAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add",
		Short: "交互式登记新设备",
		RunE: func(cmd *cobra.Command, args []string) error {
			prompter := device.NewDefaultPrompter()

			d, err := promptDevice(prompter)
			if err != nil {
				return err
			}

			catalog, err := device.LoadCatalog()
			if err != nil {
				if !errors.Is(err, device.ErrCatalogNotFound) {
					return err
				}
				catalog = device.NewCatalog()
			}

			if err := catalog.Add(*d); err != nil {
				return err
			}
			if err := device.SaveCatalog(catalog); err != nil {
				return err
			}

			fmt.Printf("✓ 已登记设备 %s (%s)\n", d.Name, d.Slug)
			return nil
		},
	}
}

func newDeviceListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "列出已登记的设备",
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := device.LoadCatalog()
			if err != nil {
				if errors.Is(err, device.ErrCatalogNotFound) {
					fmt.Println("尚未登记任何设备，先运行 romhoard device add")
					return nil
				}
				return err
			}

			for _, d := range catalog.Devices {
				protocol := d.Protocol
				if protocol == device.ProtocolNone {
					protocol = "无传输"
				}
				fmt.Printf("%-16s %-8s %s  root=%s\n", d.Slug, protocol, d.Addr(), d.TransferRoot(""))
			}
			return nil
		},
	}
}

func newDeviceRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <slug>",
		Short: "移除设备",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := device.LoadCatalog()
			if err != nil {
				return err
			}
			if err := catalog.Remove(args[0]); err != nil {
				return err
			}
			if err := device.SaveCatalog(catalog); err != nil {
				return err
			}
			fmt.Printf("✓ 已移除设备 %s\n", args[0])
			return nil
		},
	}
}

// promptDevice 交互式收集设备配置
func promptDevice(p *device.Prompter) (*device.Device, error) {
	d := &device.Device{}

	name, err := p.Prompt("设备名称: ")
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, fmt.Errorf("设备名称不能为空")
	}
	d.Name = name

	slug, err := p.PromptWithDefault("设备标识", slugify(name))
	if err != nil {
		return nil, err
	}
	d.Slug = slug

	protocols := []string{"ftp", "ftps", "sftp"}
	idx, err := p.PromptSelect("传输协议:", protocols)
	if err != nil {
		return nil, err
	}
	d.Protocol = protocols[idx]

	host, err := p.Prompt("主机地址: ")
	if err != nil {
		return nil, err
	}
	d.Host = host

	portStr, err := p.PromptWithDefault("端口", strconv.Itoa(device.DefaultPort(d.Protocol)))
	if err != nil {
		return nil, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("端口无效: %s", portStr)
	}
	d.Port = port

	if d.Protocol != device.ProtocolSFTP {
		anonymous, err := p.PromptConfirm("匿名登录?", false)
		if err != nil {
			return nil, err
		}
		d.Anonymous = anonymous
	}

	if !d.Anonymous {
		username, err := p.Prompt("用户名: ")
		if err != nil {
			return nil, err
		}
		d.Username = username

		password, err := p.PromptPassword("密码 (留空则连接时从 ROMHOARD_PASSWORD 读取): ")
		if err != nil {
			return nil, err
		}
		d.Password = password
	}

	prefix, err := p.PromptWithDefault("设备侧挂载前缀", "/mnt/SDCARD")
	if err != nil {
		return nil, err
	}
	d.PathPrefix = prefix

	root, err := p.PromptWithDefault("ROM 根目录", "Roms")
	if err != nil {
		return nil, err
	}
	d.RootPath = root

	images, err := p.PromptConfirm("上传封面图?", false)
	if err != nil {
		return nil, err
	}
	if images {
		d.Images.Enabled = true
		tmpl, err := p.PromptWithDefault("封面路径模板", "{root_path}/{system}/Imgs/{romname}.png")
		if err != nil {
			return nil, err
		}
		d.Images.PathTemplate = tmpl

		widthStr, err := p.PromptWithDefault("封面最大宽度", "320")
		if err != nil {
			return nil, err
		}
		width, err := strconv.Atoi(widthStr)
		if err != nil {
			return nil, fmt.Errorf("宽度无效: %s", widthStr)
		}
		d.Images.MaxWidth = width
	}

	return d, nil
}

// slugify 从设备名派生默认标识：小写，空白转连字符
func slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.Join(strings.Fields(slug), "-")
	return slug
}
