// catalog.go 设备目录的持久化：~/.romhoard/devices.json。
// 每次保存前把旧文件复制为 devices.backup.json，误操作后可手工恢复。
package device

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	CatalogFileVersion = "1.0"
	CatalogDirName     = ".romhoard"           // 目录位于用户 home 下
	CatalogFileName    = "devices.json"        // 设备目录文件名
	CatalogBackupName  = "devices.backup.json" // 保存前的上一版快照
)

var (
	ErrCatalogNotFound  = errors.New("device catalog not found")
	ErrCatalogCorrupted = errors.New("device catalog corrupted")
	ErrDeviceExists     = errors.New("device already exists")
	ErrDeviceNotFound   = errors.New("device not found")
)

// Catalog 所有已登记设备的集合，序列化为 devices.json
type Catalog struct {
	Version   string   `json:"version"`
	UpdatedAt string   `json:"updated_at"`
	Devices   []Device `json:"devices"`
}

// NewCatalog 创建空目录（自动填充版本号）
func NewCatalog() *Catalog {
	return &Catalog{Version: CatalogFileVersion}
}

// Find 按 slug 查找设备
func (c *Catalog) Find(slug string) (*Device, error) {
	for i := range c.Devices {
		if c.Devices[i].Slug == slug {
			return &c.Devices[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, slug)
}

// Add 登记新设备，slug 必须唯一
func (c *Catalog) Add(d Device) error {
	for i := range c.Devices {
		if c.Devices[i].Slug == d.Slug {
			return fmt.Errorf("%w: %s", ErrDeviceExists, d.Slug)
		}
	}
	c.Devices = append(c.Devices, d)
	return nil
}

// Remove 按 slug 移除设备
func (c *Catalog) Remove(slug string) error {
	for i := range c.Devices {
		if c.Devices[i].Slug == slug {
			c.Devices = append(c.Devices[:i], c.Devices[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrDeviceNotFound, slug)
}

// GetCatalogDir 返回目录路径（~/.romhoard/）
func GetCatalogDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, CatalogDirName), nil
}

// LoadCatalog 从默认路径加载设备目录
func LoadCatalog() (*Catalog, error) {
	dir, err := GetCatalogDir()
	if err != nil {
		return nil, err
	}
	return LoadCatalogFrom(dir)
}

// LoadCatalogFrom 从指定目录加载设备目录
func LoadCatalogFrom(dir string) (*Catalog, error) {
	data, err := os.ReadFile(filepath.Join(dir, CatalogFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrCatalogNotFound
		}
		return nil, fmt.Errorf("failed to read device catalog: %w", err)
	}

	var catalog Catalog
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogCorrupted, err)
	}
	return &catalog, nil
}

// SaveCatalog 保存设备目录到默认路径
func SaveCatalog(c *Catalog) error {
	dir, err := GetCatalogDir()
	if err != nil {
		return err
	}
	return SaveCatalogTo(dir, c)
}

// SaveCatalogTo 保存设备目录到指定目录（自动创建目录 0700，文件 0600）。
// 已存在的 devices.json 先复制为备份再覆盖。
func SaveCatalogTo(dir string, c *Catalog) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create catalog directory: %w", err)
	}

	path := filepath.Join(dir, CatalogFileName)
	if old, err := os.ReadFile(path); err == nil {
		// 备份失败不阻塞保存
		_ = os.WriteFile(filepath.Join(dir, CatalogBackupName), old, 0600)
	}

	c.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal device catalog: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write device catalog: %w", err)
	}
	return nil
}

// DeleteCatalogFrom 删除指定目录下的设备目录文件（含备份）
func DeleteCatalogFrom(dir string) error {
	for _, name := range []string{CatalogFileName, CatalogBackupName} {
		if err := os.Remove(filepath.Join(dir, name)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete device catalog: %w", err)
		}
	}
	return nil
}
