package transfer

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"path"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/cubicalbatch/romhoard-sub002/internal/device"
)

// fakeFTPServer 进程内最小 FTP 服务端，按 RFC 959 的相对路径语义
// 维护工作目录和目录树：CWD/MKD/STOR 的相对参数都相对当前工作目录解析。
// 只实现测试需要的命令子集。
type fakeFTPServer struct {
	ln     net.Listener
	dataLn net.Listener

	mu      sync.Mutex
	dirs    map[string]bool
	files   map[string][]byte
	created []string // MKD 解析后的绝对路径，按时间序
	deleted []string
}

func newFakeFTPServer(t *testing.T, existing ...string) *fakeFTPServer {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	dataLn, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen data: %v", err)
	}

	s := &fakeFTPServer{
		ln:     ln,
		dataLn: dataLn,
		dirs:   map[string]bool{"/": true},
		files:  map[string][]byte{},
	}
	for _, d := range existing {
		s.dirs[path.Clean(d)] = true
	}

	go s.serve()
	t.Cleanup(func() {
		ln.Close()
		dataLn.Close()
	})
	return s
}

// device 返回指向该服务端的匿名 FTP 设备配置
func (s *fakeFTPServer) device() *device.Device {
	return &device.Device{
		Name:      "Fake Handheld",
		Slug:      "fake",
		Protocol:  device.ProtocolFTP,
		Host:      "127.0.0.1",
		Port:      s.ln.Addr().(*net.TCPAddr).Port,
		Anonymous: true,
	}
}

func (s *fakeFTPServer) serve() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		go s.handle(conn)
	}
}

func (s *fakeFTPServer) handle(conn net.Conn) {
	defer conn.Close()
	fmt.Fprintf(conn, "220 fake ftp ready\r\n")

	cwd := "/"
	sc := bufio.NewScanner(conn)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		cmd, arg, _ := strings.Cut(line, " ")

		switch cmd {
		case "USER":
			fmt.Fprintf(conn, "331 password please\r\n")
		case "PASS":
			fmt.Fprintf(conn, "230 logged in\r\n")
		case "FEAT":
			fmt.Fprintf(conn, "500 not supported\r\n")
		case "TYPE", "OPTS", "NOOP":
			fmt.Fprintf(conn, "200 ok\r\n")
		case "PWD":
			fmt.Fprintf(conn, "257 %q is the current directory\r\n", cwd)
		case "CWD":
			p := resolveFTP(cwd, arg)
			if s.hasDir(p) {
				cwd = p
				fmt.Fprintf(conn, "250 ok\r\n")
			} else {
				fmt.Fprintf(conn, "550 no such directory\r\n")
			}
		case "MKD":
			p := resolveFTP(cwd, arg)
			s.mu.Lock()
			s.dirs[p] = true
			s.created = append(s.created, p)
			s.mu.Unlock()
			fmt.Fprintf(conn, "257 %q created\r\n", p)
		case "SIZE":
			p := resolveFTP(cwd, arg)
			s.mu.Lock()
			data, ok := s.files[p]
			s.mu.Unlock()
			if ok {
				fmt.Fprintf(conn, "213 %d\r\n", len(data))
			} else {
				fmt.Fprintf(conn, "550 no such file\r\n")
			}
		case "EPSV":
			port := s.dataLn.Addr().(*net.TCPAddr).Port
			fmt.Fprintf(conn, "229 Entering Extended Passive Mode (|||%d|)\r\n", port)
		case "STOR":
			p := resolveFTP(cwd, arg)
			if !s.hasDir(path.Dir(p)) {
				fmt.Fprintf(conn, "550 parent directory missing\r\n")
				continue
			}
			fmt.Fprintf(conn, "150 send it\r\n")
			data, err := s.acceptData()
			if err != nil {
				fmt.Fprintf(conn, "426 data connection failed\r\n")
				continue
			}
			s.mu.Lock()
			s.files[p] = data
			s.mu.Unlock()
			fmt.Fprintf(conn, "226 stored\r\n")
		case "DELE":
			p := resolveFTP(cwd, arg)
			s.mu.Lock()
			_, ok := s.files[p]
			if ok {
				delete(s.files, p)
				s.deleted = append(s.deleted, p)
			}
			s.mu.Unlock()
			if ok {
				fmt.Fprintf(conn, "250 deleted\r\n")
			} else {
				fmt.Fprintf(conn, "550 no such file\r\n")
			}
		case "QUIT":
			fmt.Fprintf(conn, "221 bye\r\n")
			return
		default:
			fmt.Fprintf(conn, "502 not implemented\r\n")
		}
	}
}

func (s *fakeFTPServer) acceptData() ([]byte, error) {
	conn, err := s.dataLn.Accept()
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	return io.ReadAll(conn)
}

func (s *fakeFTPServer) hasDir(p string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirs[p]
}

func (s *fakeFTPServer) createdDirs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.created...)
}

func (s *fakeFTPServer) fileData(p string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.files[p]
	return data, ok
}

func (s *fakeFTPServer) deletedFiles() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.deleted...)
}

func resolveFTP(cwd, arg string) string {
	if strings.HasPrefix(arg, "/") {
		return path.Clean(arg)
	}
	return path.Join(cwd, arg)
}

func connectFTP(t *testing.T, s *fakeFTPServer) *ftpClient {
	t.Helper()
	c := newFTPClient(s.device(), false)
	if err := c.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

// 相对路径的目录链必须始终从登录目录解析。前缀目录已存在时
// CWD 探测会移动工作目录，后续组件不能在漂移后的目录下创建。
func TestFTPClient_EnsureDirectoryResolvesFromLoginDir(t *testing.T) {
	s := newFakeFTPServer(t, "/Roms")
	c := connectFTP(t, s)

	if err := c.EnsureDirectory("Roms/GBA"); err != nil {
		t.Fatalf("EnsureDirectory: %v", err)
	}

	if !s.hasDir("/Roms/GBA") {
		t.Errorf("/Roms/GBA not created, mkd calls: %v", s.createdDirs())
	}
	if s.hasDir("/Roms/Roms/GBA") {
		t.Error("directory created relative to drifted working directory")
	}

	// 紧随其后的相对路径上传要能落到刚建好的目录里
	if err := c.UploadData([]byte("cart"), "Roms/GBA/mario.gba"); err != nil {
		t.Fatalf("UploadData: %v", err)
	}
	if data, ok := s.fileData("/Roms/GBA/mario.gba"); !ok || string(data) != "cart" {
		t.Error("upload did not land at /Roms/GBA/mario.gba")
	}
}

func TestFTPClient_TestWriteCreatesEveryParent(t *testing.T) {
	s := newFakeFTPServer(t)
	c := connectFTP(t, s)

	if err := c.TestWrite("Roms/GBA/sub"); err != nil {
		t.Fatalf("TestWrite: %v", err)
	}

	want := []string{"/Roms", "/Roms/GBA", "/Roms/GBA/sub"}
	if got := s.createdDirs(); !reflect.DeepEqual(got, want) {
		t.Errorf("created dirs = %v, want %v", got, want)
	}

	// 测试文件写入后清理
	artifact := "/Roms/GBA/sub/" + TestArtifactName
	if _, ok := s.fileData(artifact); ok {
		t.Errorf("%s left behind", artifact)
	}
	if got := s.deletedFiles(); !reflect.DeepEqual(got, []string{artifact}) {
		t.Errorf("deleted = %v, want [%s]", got, artifact)
	}
}

func TestFTPClient_TestWriteExistingChainIssuesNoMkd(t *testing.T) {
	s := newFakeFTPServer(t, "/Roms", "/Roms/GBA")
	c := connectFTP(t, s)

	if err := c.TestWrite("Roms/GBA"); err != nil {
		t.Fatalf("TestWrite: %v", err)
	}
	if got := s.createdDirs(); len(got) != 0 {
		t.Errorf("no mkd expected for existing chain, got %v", got)
	}
}
