// sftp.go SFTP 客户端变体，基于 pkg/sftp + golang.org/x/crypto/ssh。
// 仅密码认证，不走本地 key agent；host key 校验关闭（trust-on-first-use）——
// 目标设备是封闭的嵌入式系统，没有公钥分发机制，这是有意记录的取舍。
package transfer

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"

	"github.com/cubicalbatch/romhoard-sub002/internal/device"
)

type sftpClient struct {
	dev  *device.Device
	ssh  *ssh.Client
	sftp *sftp.Client
}

func newSFTPClient(d *device.Device) *sftpClient {
	return &sftpClient{dev: d}
}

func (c *sftpClient) Connect() error {
	config := &ssh.ClientConfig{
		User: c.dev.Username,
		Auth: []ssh.AuthMethod{
			ssh.Password(device.ResolvePassword(c.dev)),
		},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         ConnectTimeout,
	}

	sshConn, err := ssh.Dial("tcp", c.dev.Addr(), config)
	if err != nil {
		return fmt.Errorf("SSH 连接失败 (%s): %w", c.dev.Addr(), err)
	}

	sftpConn, err := sftp.NewClient(sshConn)
	if err != nil {
		sshConn.Close()
		return fmt.Errorf("SFTP 连接失败: %w", err)
	}

	c.ssh = sshConn
	c.sftp = sftpConn
	return nil
}

func (c *sftpClient) TestWrite(dir string) error {
	if c.sftp == nil {
		return ErrNotConnected
	}
	if err := c.EnsureDirectory(dir); err != nil {
		return err
	}

	path := TestArtifactName
	if dir != "" {
		path = dir + "/" + TestArtifactName
	}

	f, err := c.sftp.Create(path)
	if err != nil {
		return fmt.Errorf("写入测试失败 (%s): %w", path, err)
	}
	if _, err := f.Write(testPayload); err != nil {
		f.Close()
		return fmt.Errorf("写入测试失败 (%s): %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("写入测试失败 (%s): %w", path, err)
	}

	// 清理失败忽略，留下测试文件可以接受
	_ = c.sftp.Remove(path)
	return nil
}

func (c *sftpClient) RemoteSize(path string) int64 {
	if c.sftp == nil {
		return SizeAbsent
	}
	info, err := c.sftp.Stat(path)
	if err != nil {
		// NotExist 和权限错误一律视为不存在
		return SizeAbsent
	}
	return info.Size()
}

// EnsureDirectory 逐级创建目录链。Mkdir 的错误一律按"可能已存在"容忍，
// 包括部分固件把已存在误报成权限错误的情况。
func (c *sftpClient) EnsureDirectory(path string) error {
	if c.sftp == nil {
		return ErrNotConnected
	}
	if path == "" {
		return nil
	}

	for _, dir := range dirChain(path) {
		if _, err := c.sftp.Stat(dir); err == nil {
			continue
		}
		_ = c.sftp.Mkdir(dir)
	}
	return nil
}

func (c *sftpClient) UploadFile(localPath, remotePath string, progress ProgressFunc) error {
	if c.sftp == nil {
		return ErrNotConnected
	}

	local, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("打开本地文件失败 (%s): %w", localPath, err)
	}
	defer local.Close()

	info, err := local.Stat()
	if err != nil {
		return fmt.Errorf("读取本地文件信息失败 (%s): %w", localPath, err)
	}

	return c.copyTo(local, info.Size(), remotePath, progress)
}

func (c *sftpClient) UploadData(data []byte, remotePath string) error {
	if c.sftp == nil {
		return ErrNotConnected
	}
	return c.copyTo(bytes.NewReader(data), int64(len(data)), remotePath, nil)
}

// copyTo 分块写入远程文件，每块结束上报一次进度
func (c *sftpClient) copyTo(r io.Reader, total int64, remotePath string, progress ProgressFunc) error {
	remote, err := c.sftp.Create(remotePath)
	if err != nil {
		return fmt.Errorf("创建远程文件失败 (%s): %w", remotePath, err)
	}
	defer remote.Close()

	buf := make([]byte, uploadChunkSize)
	var sent int64
	for {
		n, rerr := r.Read(buf)
		if n > 0 {
			if _, werr := remote.Write(buf[:n]); werr != nil {
				return fmt.Errorf("写入远程文件失败 (%s): %w", remotePath, werr)
			}
			sent += int64(n)
			if progress != nil {
				progress(sent, total)
			}
		}
		if rerr == io.EOF {
			return nil
		}
		if rerr != nil {
			return fmt.Errorf("读取上传源失败: %w", rerr)
		}
	}
}

func (c *sftpClient) IsConnected() bool {
	if c.sftp == nil {
		return false
	}
	_, err := c.sftp.Getwd()
	return err == nil
}

func (c *sftpClient) SendKeepalive() bool {
	return c.IsConnected()
}

func (c *sftpClient) Reconnect() error {
	_ = c.Close()
	return c.Connect()
}

func (c *sftpClient) Close() error {
	if c.sftp != nil {
		_ = c.sftp.Close()
		c.sftp = nil
	}
	if c.ssh != nil {
		_ = c.ssh.Close()
		c.ssh = nil
	}
	return nil
}
