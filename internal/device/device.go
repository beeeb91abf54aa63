// Package device 管理 RomHoard 的设备目录和远程路径计算。
// 设备目录（devices.json）记录所有已登记的掌机设备及其传输配置。
package device

import (
	"encoding/json"
	"errors"
	"fmt"
)

// 传输协议
const (
	ProtocolNone = ""
	ProtocolFTP  = "ftp"
	ProtocolFTPS = "ftps"
	ProtocolSFTP = "sftp"
)

var (
	ErrUnknownProtocol = errors.New("unknown transfer protocol")
)

// SystemConfig 单个游戏系统（GBA、SNES 等）在设备上的目录配置。
// 旧版目录文件用裸字符串表示目录名，新版用对象；两种形式都要能解析。
type SystemConfig struct {
	Folder         string `json:"folder"`
	UseGameFolders bool   `json:"use_game_folders,omitempty"`
}

// UnmarshalJSON 兼容旧版裸字符串形式："GBA" 等价于 {"folder": "GBA"}。
// 裸字符串形式永远不启用 game folder。
func (s *SystemConfig) UnmarshalJSON(data []byte) error {
	var folder string
	if err := json.Unmarshal(data, &folder); err == nil {
		s.Folder = folder
		s.UseGameFolders = false
		return nil
	}

	type plain SystemConfig
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("invalid system config: %w", err)
	}
	*s = SystemConfig(p)
	return nil
}

// ImageSettings 封面图上传配置。PathTemplate 为空表示该设备不放图。
// 模板占位符：{root_path} {system} {romname} {romname_ext}
type ImageSettings struct {
	Enabled      bool   `json:"enabled"`
	Kind         string `json:"kind,omitempty"` // boxart / screenshot / ...
	PathTemplate string `json:"path_template,omitempty"`
	MaxWidth     int    `json:"max_width,omitempty"`
}

// Device 一台目标设备的完整配置（身份 + 传输 + ROM 目录组织 + 封面图）
type Device struct {
	Name string `json:"name"`
	Slug string `json:"slug"`

	Protocol   string `json:"protocol"` // none / ftp / ftps / sftp
	Host       string `json:"host"`
	Port       int    `json:"port"`
	Username   string `json:"username,omitempty"`
	Password   string `json:"password,omitempty"`
	Anonymous  bool   `json:"anonymous,omitempty"`
	PathPrefix string `json:"path_prefix,omitempty"` // 设备侧挂载点，如 /mnt/SDCARD

	RootPath string                  `json:"root_path"` // ROM 根目录（相对挂载点）
	Systems  map[string]SystemConfig `json:"systems,omitempty"`

	Images ImageSettings `json:"images,omitempty"`
}

// Addr 返回 host:port 形式的连接地址
func (d *Device) Addr() string {
	return fmt.Sprintf("%s:%d", d.Host, d.Port)
}

// DefaultPort 返回协议的默认端口（21 / 22），未知协议返回 0
func DefaultPort(protocol string) int {
	switch protocol {
	case ProtocolFTP, ProtocolFTPS:
		return 21
	case ProtocolSFTP:
		return 22
	}
	return 0
}
