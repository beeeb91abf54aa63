// scan.go 本地 ROM 目录扫描：<root>/<system>/[game/]file 结构 → ROMFile 列表。
package romfile

import (
	"archive/zip"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cubicalbatch/romhoard-sub002/internal/transfer"
)

// ScanDir 扫描本地 ROM 目录。第一层子目录是系统标识，再往下一层
// 可选的子目录是游戏名；zip 按成员展开，记录解压后大小
// （跳过判断要和设备上的裸文件比对，压缩包本身的大小没有意义）。
// 返回 ROM 列表和对应的 DirSource，列表按 系统/文件名 排序。
func ScanDir(root string) ([]transfer.ROMFile, *DirSource, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, nil, fmt.Errorf("扫描目录失败 (%s): %w", root, err)
	}

	source := NewDirSource()
	var roms []transfer.ROMFile

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		parts := strings.Split(filepath.ToSlash(rel), "/")
		if len(parts) < 2 {
			// 根目录下的散文件不属于任何系统
			return nil
		}
		system := parts[0]
		game := ""
		if len(parts) > 2 {
			game = parts[1]
		}

		if strings.EqualFold(path.Ext(d.Name()), ".zip") {
			return scanZip(source, &roms, p, system, game)
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		rom := transfer.ROMFile{
			Game:   gameName(game, d.Name()),
			System: system,
			Name:   d.Name(),
			Size:   info.Size(),
		}
		source.Register(rom, p)
		roms = append(roms, rom)
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("扫描目录失败 (%s): %w", root, err)
	}

	sort.Slice(roms, func(i, j int) bool {
		if roms[i].System != roms[j].System {
			return roms[i].System < roms[j].System
		}
		return roms[i].Name < roms[j].Name
	})
	return roms, source, nil
}

// scanZip 把压缩包的每个成员登记为独立的 ROM
func scanZip(source *DirSource, roms *[]transfer.ROMFile, archive, system, game string) error {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return fmt.Errorf("打开压缩包失败 (%s): %w", archive, err)
	}
	defer r.Close()

	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		name := baseName(f.Name)
		rom := transfer.ROMFile{
			Game:   gameName(game, name),
			System: system,
			Name:   name,
			Size:   int64(f.UncompressedSize64),
		}
		source.Register(rom, archive+ZipSeparator+f.Name)
		*roms = append(*roms, rom)
	}
	return nil
}

// gameName 游戏名：有游戏子目录用目录名，否则取文件名去扩展名
func gameName(dir, filename string) string {
	if dir != "" {
		return dir
	}
	return strings.TrimSuffix(filename, path.Ext(filename))
}
