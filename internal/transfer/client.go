// Package transfer 实现向掌机设备批量上传 ROM/封面图的传输引擎。
// 一次调用 = 一条网络连接：FTP/FTPS 走 jlaffaye/ftp，SFTP 走 pkg/sftp，
// 上层编排（跳过、重试、断线重连、keepalive、进度回调）对协议无感。
package transfer

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cubicalbatch/romhoard-sub002/internal/device"
)

const (
	// ConnectTimeout 建连 + 认证的上限，超时按连接失败处理
	ConnectTimeout = 30 * time.Second

	// TestArtifactName 写入测试使用的远程临时文件名
	TestArtifactName = ".romhoard_test"

	// uploadChunkSize 分块上传的块大小，同时是进度回调的粒度
	uploadChunkSize = 32 * 1024
)

var (
	ErrNoProtocol   = errors.New("device has no transfer protocol configured")
	ErrNotConnected = errors.New("client is not connected")

	// testPayload 写入测试的固定内容
	testPayload = []byte("romhoard write test\n")
)

// ProgressFunc 上传进度回调：(已发送字节, 总字节)。按协议块粒度触发，频率不固定。
type ProgressFunc func(sent, total int64)

// SizeAbsent RemoteSize 的"远程文件不存在"哨兵值
const SizeAbsent int64 = -1

// Client 一条到设备的传输连接。实现不要求并发安全，
// 前台上传和后台 keepalive 之间由调用方用同一把锁串行化。
type Client interface {
	// Connect 建立连接并认证。普通网络/认证失败通过返回值报告，不 panic。
	Connect() error
	// TestWrite 向 dir 写入一个小测试文件再尽力删除（删除失败忽略）。
	// dir 的目录链必须先创建——两个协议变体都要做，缺一个就是 bug。
	TestWrite(dir string) error
	// RemoteSize 返回远程文件大小；不存在或无法确定时返回 SizeAbsent，从不报错
	RemoteSize(path string) int64
	// EnsureDirectory 逐级创建目录链。已存在必须静默容忍；
	// 部分设备固件把"已存在"误报成权限错误，同样容忍。
	EnsureDirectory(path string) error
	// UploadFile 把本地文件流式写入远程路径，progress 可为 nil
	UploadFile(localPath, remotePath string, progress ProgressFunc) error
	// UploadData 把内存缓冲区写入远程路径（封面图走这里）
	UploadData(data []byte, remotePath string) error
	// IsConnected 廉价的存活探测，从不 panic
	IsConnected() bool
	// SendKeepalive 同样的存活探测，供后台 keepalive 循环使用
	SendKeepalive() bool
	// Reconnect 释放现有资源后重新 Connect
	Reconnect() error
	// Close 释放全部资源，可重复调用
	Close() error
}

// NewClient 按设备配置的协议构造对应的客户端
func NewClient(d *device.Device) (Client, error) {
	switch d.Protocol {
	case device.ProtocolFTP:
		return newFTPClient(d, false), nil
	case device.ProtocolFTPS:
		return newFTPClient(d, true), nil
	case device.ProtocolSFTP:
		return newSFTPClient(d), nil
	case device.ProtocolNone:
		return nil, ErrNoProtocol
	}
	return nil, fmt.Errorf("%w: %q", device.ErrUnknownProtocol, d.Protocol)
}

// dirChain 返回路径的全部中间目录，逐级展开。
// "/a/b/c" → ["/a", "/a/b", "/a/b/c"]；"a/b" → ["a", "a/b"]。
func dirChain(path string) []string {
	absolute := strings.HasPrefix(path, "/")
	var chain []string
	var current string

	for _, seg := range strings.Split(strings.Trim(path, "/"), "/") {
		if seg == "" {
			continue
		}
		if current == "" {
			current = seg
			if absolute {
				current = "/" + seg
			}
		} else {
			current = current + "/" + seg
		}
		chain = append(chain, current)
	}
	return chain
}

// parentDir 返回远程路径的父目录（"/" 分隔），无父目录时返回空串
func parentDir(path string) string {
	idx := strings.LastIndex(path, "/")
	if idx <= 0 {
		return ""
	}
	return path[:idx]
}
