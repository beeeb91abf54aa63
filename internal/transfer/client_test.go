package transfer

import (
	"errors"
	"reflect"
	"testing"

	"github.com/cubicalbatch/romhoard-sub002/internal/device"
)

func TestDirChain(t *testing.T) {
	cases := []struct {
		path string
		want []string
	}{
		{"/mnt/SDCARD/Roms", []string{"/mnt", "/mnt/SDCARD", "/mnt/SDCARD/Roms"}},
		{"Roms/GBA", []string{"Roms", "Roms/GBA"}},
		{"Roms", []string{"Roms"}},
		{"/Roms/", []string{"/Roms"}},
		{"a//b", []string{"a", "a/b"}},
		{"", nil},
		{"/", nil},
	}

	for _, c := range cases {
		got := dirChain(c.path)
		if !reflect.DeepEqual(got, c.want) {
			t.Errorf("dirChain(%q) = %v, want %v", c.path, got, c.want)
		}
	}
}

func TestParentDir(t *testing.T) {
	cases := []struct {
		path, want string
	}{
		{"/mnt/SDCARD/Roms/mario.gba", "/mnt/SDCARD/Roms"},
		{"Roms/mario.gba", "Roms"},
		{"mario.gba", ""},
		{"/mario.gba", ""},
	}

	for _, c := range cases {
		if got := parentDir(c.path); got != c.want {
			t.Errorf("parentDir(%q) = %q, want %q", c.path, got, c.want)
		}
	}
}

func TestNewClient_ProtocolDispatch(t *testing.T) {
	d := &device.Device{Host: "192.168.1.30", Port: 21}

	d.Protocol = device.ProtocolFTP
	if c, err := NewClient(d); err != nil || c == nil {
		t.Errorf("ftp: got (%v, %v)", c, err)
	}

	d.Protocol = device.ProtocolFTPS
	if c, err := NewClient(d); err != nil || c == nil {
		t.Errorf("ftps: got (%v, %v)", c, err)
	}

	d.Protocol = device.ProtocolSFTP
	if c, err := NewClient(d); err != nil || c == nil {
		t.Errorf("sftp: got (%v, %v)", c, err)
	}

	d.Protocol = device.ProtocolNone
	if _, err := NewClient(d); !errors.Is(err, ErrNoProtocol) {
		t.Errorf("none: got %v, want ErrNoProtocol", err)
	}

	d.Protocol = "gopher"
	if _, err := NewClient(d); !errors.Is(err, device.ErrUnknownProtocol) {
		t.Errorf("unknown: got %v, want ErrUnknownProtocol", err)
	}
}

// 未连接的客户端的操作必须安全返回，而不是崩溃
func TestClients_SafeWhenDisconnected(t *testing.T) {
	d := &device.Device{Host: "127.0.0.1", Port: 1, Protocol: device.ProtocolFTP}

	for _, c := range []Client{newFTPClient(d, false), newSFTPClient(d)} {
		if c.IsConnected() {
			t.Error("disconnected client reports connected")
		}
		if c.SendKeepalive() {
			t.Error("disconnected client keepalive succeeded")
		}
		if size := c.RemoteSize("x"); size != SizeAbsent {
			t.Errorf("got size %d, want SizeAbsent", size)
		}
		if err := c.Close(); err != nil {
			t.Errorf("close: %v", err)
		}
		// Close 可重复调用
		if err := c.Close(); err != nil {
			t.Errorf("double close: %v", err)
		}
		if err := c.TestWrite("Roms"); !errors.Is(err, ErrNotConnected) {
			t.Errorf("test write: got %v, want ErrNotConnected", err)
		}
	}
}
