// path.go 远程路径计算：传输根目录合并、系统目录解析、ROM 路径、封面图路径模板。
// 全部为纯函数，不做任何 I/O，路径分隔符固定为 "/"（设备侧文件系统）。
package device

import (
	"path"
	"strings"
)

// sanitizer 替换远程路径段中设备固件无法接受的字符
var sanitizer = strings.NewReplacer(
	"<", "_", ">", "_", ":", "_", "\"", "_", "|", "_", "?", "_", "*", "_",
)

// SanitizeName 清洗用于远程路径段的名称（游戏名、文件名）。
// 系统目录和根目录来自设备配置，不做清洗。
func SanitizeName(name string) string {
	return sanitizer.Replace(name)
}

// MergeTransferPath 合并挂载前缀和 ROM 根目录，附加可选的相对路径。
// 前缀去掉尾部斜杠，根目录去掉首尾斜杠，用单个 "/" 连接；
// 前缀原本以 "/" 开头时结果也必须以 "/" 开头（合并过程丢失时补回）。
func MergeTransferPath(prefix, root string, rel ...string) string {
	strippedPrefix := strings.TrimRight(prefix, "/")
	strippedRoot := strings.Trim(root, "/")

	merged := strippedRoot
	if strippedPrefix != "" {
		if strippedRoot != "" {
			merged = strippedPrefix + "/" + strippedRoot
		} else {
			merged = strippedPrefix
		}
	}

	if strings.HasPrefix(prefix, "/") && !strings.HasPrefix(merged, "/") {
		merged = "/" + merged
	}

	for _, r := range rel {
		r = strings.TrimLeft(r, "/")
		if r == "" {
			continue
		}
		if merged == "" {
			merged = r
		} else {
			merged = merged + "/" + r
		}
	}

	return merged
}

// TransferRoot 返回设备的有效传输根目录，rel 非空时附加相对路径
func (d *Device) TransferRoot(rel string) string {
	if rel == "" {
		return MergeTransferPath(d.PathPrefix, d.RootPath)
	}
	return MergeTransferPath(d.PathPrefix, d.RootPath, rel)
}

// SystemFolder 返回系统在设备上的目录名，未配置时默认系统标识大写
func (d *Device) SystemFolder(system string) string {
	if cfg, ok := d.Systems[system]; ok && cfg.Folder != "" {
		return cfg.Folder
	}
	return strings.ToUpper(system)
}

// UseGameFolders 返回该系统是否启用每游戏一个子目录，未配置默认 false
func (d *Device) UseGameFolders(system string) bool {
	if cfg, ok := d.Systems[system]; ok {
		return cfg.UseGameFolders
	}
	return false
}

// ROMPath 返回 ROM 文件的完整远程路径：
// {root}/{system_folder}[/{game}]/{filename}，game 段仅在系统启用 game folder 时存在
func (d *Device) ROMPath(system, game, filename string) string {
	segments := []string{d.SystemFolder(system)}
	if d.UseGameFolders(system) && game != "" {
		segments = append(segments, SanitizeName(game))
	}
	segments = append(segments, SanitizeName(filename))
	return MergeTransferPath(d.PathPrefix, d.RootPath, segments...)
}

// ImagePath 按模板计算封面图路径。未启用封面图或模板为空时返回 false。
// 模板自行决定是否包含根目录——部分设备约定把封面放在与 ROM 根无关的位置。
func (d *Device) ImagePath(system, filename string) (string, bool) {
	if !d.Images.Enabled || d.Images.PathTemplate == "" {
		return "", false
	}

	filename = SanitizeName(filename)
	romname := strings.TrimSuffix(filename, path.Ext(filename))

	replacer := strings.NewReplacer(
		"{root_path}", strings.Trim(d.RootPath, "/"),
		"{system}", d.SystemFolder(system),
		"{romname}", romname,
		"{romname_ext}", filename,
	)
	return replacer.Replace(d.Images.PathTemplate), true
}

// EffectiveImagePath 返回加上挂载前缀后的封面图路径。
// 只加 path_prefix，不加 root_path——模板已经决定了是否包含根目录。
func (d *Device) EffectiveImagePath(system, filename string) (string, bool) {
	img, ok := d.ImagePath(system, filename)
	if !ok {
		return "", false
	}

	strippedPrefix := strings.TrimRight(d.PathPrefix, "/")
	if strippedPrefix != "" {
		img = strippedPrefix + "/" + strings.TrimLeft(img, "/")
	}
	if strings.HasPrefix(d.PathPrefix, "/") && !strings.HasPrefix(img, "/") {
		img = "/" + img
	}
	return img, true
}
