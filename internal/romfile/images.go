// images.go 基于本地目录的封面图渲染：<root>[/<kind>]/<system>/<romname>.{png,jpg}。
// 超过 maxWidth 的图按比例缩小后重编码为 PNG。
package romfile

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg" // 注册 jpeg 解码器
	"image/png"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"

	"github.com/cubicalbatch/romhoard-sub002/internal/transfer"
)

// imageExts 按优先级尝试的封面图扩展名
var imageExts = []string{".png", ".jpg", ".jpeg"}

// FileRenderer 读取预先准备好的封面图文件的 ImageRenderer 实现
type FileRenderer struct {
	Root string
}

// Render 查找并渲染 ROM 的封面图。找不到文件返回 (nil, false, nil)，
// 文件存在但解码失败才算错误。
func (r *FileRenderer) Render(rom transfer.ROMFile, kind string, maxWidth int) ([]byte, bool, error) {
	dir := r.Root
	if kind != "" {
		dir = filepath.Join(r.Root, kind)
	}
	romname := strings.TrimSuffix(rom.Name, path.Ext(rom.Name))

	for _, ext := range imageExts {
		p := filepath.Join(dir, rom.System, romname+ext)
		data, err := os.ReadFile(p)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, false, fmt.Errorf("读取封面图失败 (%s): %w", p, err)
		}
		out, err := encode(data, maxWidth)
		if err != nil {
			return nil, false, fmt.Errorf("渲染封面图失败 (%s): %w", p, err)
		}
		return out, true, nil
	}

	return nil, false, nil
}

// encode 解码 → 按需缩放 → 重编码 PNG
func encode(data []byte, maxWidth int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	if maxWidth > 0 && img.Bounds().Dx() > maxWidth {
		img = scaleToWidth(img, maxWidth)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// scaleToWidth 等比缩放到指定宽度
func scaleToWidth(img image.Image, width int) image.Image {
	bounds := img.Bounds()
	height := bounds.Dy() * width / bounds.Dx()
	if height < 1 {
		height = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}
