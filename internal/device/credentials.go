// credentials.go 连接密码解析。目录文件里的密码明文可留空，
// 改用环境变量在连接时注入（CI / 不想把密码写进 devices.json 的场景）。
package device

import (
	"os"
	"strings"
)

const (
	PasswordEnv = "ROMHOARD_PASSWORD"
)

// ResolvePassword 解析设备的连接密码，优先级：
// ROMHOARD_PASSWORD_<SLUG>（slug 大写，- 转 _）> ROMHOARD_PASSWORD > 目录文件中的密码。
// 匿名登录的设备始终返回空串。
func ResolvePassword(d *Device) string {
	if d.Anonymous {
		return ""
	}

	slugKey := PasswordEnv + "_" + strings.ToUpper(strings.ReplaceAll(d.Slug, "-", "_"))
	if pw := os.Getenv(slugKey); pw != "" {
		return pw
	}
	if pw := os.Getenv(PasswordEnv); pw != "" {
		return pw
	}
	return d.Password
}
