// ftp.go FTP/FTPS 客户端变体，基于 jlaffaye/ftp。
// FTPS 为显式 TLS（AUTH TLS），证书校验关闭——目标是封闭的嵌入式设备，
// 没有证书分发渠道，这是有意的取舍。
package transfer

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"io"
	"os"

	"github.com/jlaffaye/ftp"

	"github.com/cubicalbatch/romhoard-sub002/internal/device"
)

type ftpClient struct {
	dev  *device.Device
	tls  bool
	conn *ftp.ServerConn
	home string // 登录后的初始目录，目录探测后要切回来
}

func newFTPClient(d *device.Device, useTLS bool) *ftpClient {
	return &ftpClient{dev: d, tls: useTLS}
}

func (c *ftpClient) Connect() error {
	opts := []ftp.DialOption{ftp.DialWithTimeout(ConnectTimeout)}
	if c.tls {
		opts = append(opts, ftp.DialWithExplicitTLS(&tls.Config{
			ServerName:         c.dev.Host,
			InsecureSkipVerify: true,
		}))
	}

	conn, err := ftp.Dial(c.dev.Addr(), opts...)
	if err != nil {
		return fmt.Errorf("FTP 连接失败 (%s): %w", c.dev.Addr(), err)
	}

	user := c.dev.Username
	pass := device.ResolvePassword(c.dev)
	if c.dev.Anonymous || user == "" {
		user, pass = "anonymous", "anonymous@"
	}

	if err := conn.Login(user, pass); err != nil {
		_ = conn.Quit()
		return fmt.Errorf("FTP 登录失败 (%s): %w", user, err)
	}

	home, err := conn.CurrentDir()
	if err != nil {
		home = "/"
	}

	c.conn = conn
	c.home = home
	return nil
}

func (c *ftpClient) TestWrite(dir string) error {
	if c.conn == nil {
		return ErrNotConnected
	}
	if err := c.EnsureDirectory(dir); err != nil {
		return err
	}

	path := TestArtifactName
	if dir != "" {
		path = dir + "/" + TestArtifactName
	}

	if err := c.conn.Stor(path, bytes.NewReader(testPayload)); err != nil {
		return fmt.Errorf("写入测试失败 (%s): %w", path, err)
	}

	// 清理失败忽略，留下测试文件可以接受
	_ = c.conn.Delete(path)
	return nil
}

func (c *ftpClient) RemoteSize(path string) int64 {
	if c.conn == nil {
		return SizeAbsent
	}
	size, err := c.conn.FileSize(path)
	if err != nil {
		return SizeAbsent
	}
	return size
}

// EnsureDirectory 逐级探测 + 创建目录。存在性探测用 ChangeDir，
// 创建失败一律按"可能已存在"容忍（部分固件把已存在报成 550 权限错误）。
// 探测会移动工作目录，结束后切回登录目录，保证相对路径语义不变。
func (c *ftpClient) EnsureDirectory(path string) error {
	if c.conn == nil {
		return ErrNotConnected
	}
	if path == "" {
		return nil
	}

	defer func() {
		_ = c.conn.ChangeDir(c.home)
	}()

	for _, dir := range dirChain(path) {
		// CWD 探测成功会移动工作目录，每个组件都先切回登录目录，
		// 让探测和 MakeDir 始终以同一基准解析相对路径
		_ = c.conn.ChangeDir(c.home)
		if err := c.conn.ChangeDir(dir); err == nil {
			continue
		}
		// 创建失败不报错：下一级探测或真正的上传会暴露真问题
		_ = c.conn.MakeDir(dir)
	}
	return nil
}

func (c *ftpClient) UploadFile(localPath, remotePath string, progress ProgressFunc) error {
	if c.conn == nil {
		return ErrNotConnected
	}

	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("打开本地文件失败 (%s): %w", localPath, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("读取本地文件信息失败 (%s): %w", localPath, err)
	}

	reader := &progressReader{r: f, total: info.Size(), progress: progress}
	if err := c.conn.Stor(remotePath, reader); err != nil {
		return fmt.Errorf("上传失败 (%s): %w", remotePath, err)
	}
	return nil
}

func (c *ftpClient) UploadData(data []byte, remotePath string) error {
	if c.conn == nil {
		return ErrNotConnected
	}
	if err := c.conn.Stor(remotePath, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("上传失败 (%s): %w", remotePath, err)
	}
	return nil
}

func (c *ftpClient) IsConnected() bool {
	return c.conn != nil && c.conn.NoOp() == nil
}

func (c *ftpClient) SendKeepalive() bool {
	return c.IsConnected()
}

func (c *ftpClient) Reconnect() error {
	_ = c.Close()
	return c.Connect()
}

func (c *ftpClient) Close() error {
	if c.conn != nil {
		_ = c.conn.Quit()
		c.conn = nil
	}
	return nil
}

// progressReader 包装上传源，按底层传输块粒度上报进度
type progressReader struct {
	r        io.Reader
	sent     int64
	total    int64
	progress ProgressFunc
}

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.r.Read(buf)
	if n > 0 {
		p.sent += int64(n)
		if p.progress != nil {
			p.progress(p.sent, p.total)
		}
	}
	return n, err
}
