// Package romfile 提供传输引擎外部协作者的本地实现：
// 目录扫描、文件解析（含压缩包透明解出）、封面图渲染。
package romfile

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cubicalbatch/romhoard-sub002/internal/transfer"
)

// ZipSeparator 压缩包内成员的地址分隔符：path/to/pack.zip!member.gba
const ZipSeparator = "!"

var (
	ErrROMNotFound    = errors.New("rom file not found")
	ErrMemberNotFound = errors.New("zip member not found")
)

// DirSource 基于本地目录的 FileSource 实现。
// paths 把 ROM 标识映射到本地位置（普通文件路径或 zip 成员地址），由 ScanDir 填充。
type DirSource struct {
	paths map[string]string
}

// NewDirSource 创建空的 DirSource（测试或手工登记用）
func NewDirSource() *DirSource {
	return &DirSource{paths: make(map[string]string)}
}

// Register 登记一个 ROM 的本地位置
func (s *DirSource) Register(rom transfer.ROMFile, localPath string) {
	s.paths[romKey(rom)] = localPath
}

func romKey(rom transfer.ROMFile) string {
	return rom.System + "/" + rom.Name
}

// Acquire 把 ROM 解析为本地可读文件。zip 成员解压到临时文件，
// Release 时删除；普通文件的 Release 是空操作。
func (s *DirSource) Acquire(rom transfer.ROMFile) (transfer.LocalFile, error) {
	localPath, ok := s.paths[romKey(rom)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrROMNotFound, rom.Name)
	}

	if archive, member, isZip := splitZipAddr(localPath); isZip {
		return extractZipMember(archive, member)
	}

	if _, err := os.Stat(localPath); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrROMNotFound, localPath, err)
	}
	return &plainFile{path: localPath, name: rom.Name}, nil
}

func splitZipAddr(addr string) (archive, member string, ok bool) {
	idx := strings.Index(addr, ZipSeparator)
	if idx < 0 {
		return "", "", false
	}
	return addr[:idx], addr[idx+1:], true
}

// extractZipMember 把 zip 成员解出到临时文件
func extractZipMember(archive, member string) (transfer.LocalFile, error) {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return nil, fmt.Errorf("打开压缩包失败 (%s): %w", archive, err)
	}
	defer r.Close()

	for _, f := range r.File {
		if f.Name != member {
			continue
		}

		src, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("读取压缩包成员失败 (%s): %w", member, err)
		}
		defer src.Close()

		tmp, err := os.CreateTemp("", "romhoard-*")
		if err != nil {
			return nil, fmt.Errorf("创建临时文件失败: %w", err)
		}
		if _, err := io.Copy(tmp, src); err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
			return nil, fmt.Errorf("解出压缩包成员失败 (%s): %w", member, err)
		}
		if err := tmp.Close(); err != nil {
			os.Remove(tmp.Name())
			return nil, fmt.Errorf("写入临时文件失败: %w", err)
		}

		return &tempFile{path: tmp.Name(), name: baseName(member)}, nil
	}

	return nil, fmt.Errorf("%w: %s in %s", ErrMemberNotFound, member, archive)
}

func baseName(p string) string {
	if idx := strings.LastIndexAny(p, "/\\"); idx >= 0 {
		return p[idx+1:]
	}
	return p
}

// plainFile 直接位于本地文件系统的 ROM
type plainFile struct {
	path string
	name string
}

func (f *plainFile) Path() string { return f.path }
func (f *plainFile) Name() string { return f.name }
func (f *plainFile) Release()     {}

// tempFile 从压缩包解出的临时文件，Release 时删除
type tempFile struct {
	path string
	name string
}

func (f *tempFile) Path() string { return f.path }
func (f *tempFile) Name() string { return f.name }
func (f *tempFile) Release()     { os.Remove(f.path) }
