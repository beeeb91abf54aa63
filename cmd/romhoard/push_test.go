package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/cubicalbatch/romhoard-sub002/internal/transfer"
)

func TestPushProgress_RendersByteCounter(t *testing.T) {
	var buf bytes.Buffer
	status := &statusLine{out: &buf}
	sink := pushProgress(status)

	sink(&transfer.Session{CurrentFile: "mario.gba", BytesSent: 512, TotalBytes: 1024})

	out := buf.String()
	if !strings.Contains(out, "mario.gba") {
		t.Errorf("progress line missing file name: %q", out)
	}
	if !strings.Contains(out, "50%") {
		t.Errorf("progress line missing percentage: %q", out)
	}
	if !strings.Contains(out, "512 B") || !strings.Contains(out, "1.0 KB") {
		t.Errorf("progress line missing byte counter: %q", out)
	}
}

func TestPushProgress_SilentBetweenFiles(t *testing.T) {
	var buf bytes.Buffer
	sink := pushProgress(&statusLine{out: &buf})

	// 还没进入任何文件时不刷进度行
	sink(&transfer.Session{TotalBytes: 1024})
	sink(&transfer.Session{CurrentFile: "mario.gba"})

	if buf.Len() != 0 {
		t.Errorf("unexpected output: %q", buf.String())
	}
}

func TestStatusLine_ClearsBeforeRegularOutput(t *testing.T) {
	var buf bytes.Buffer
	status := &statusLine{out: &buf}

	status.update("  ↑ mario.gba  50%")
	if _, err := status.Write([]byte("  ✓ mario.gba\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	out := buf.String()
	// 正式行之前先回到行首并抹掉进度文本
	if !strings.Contains(out, "\r  ✓ mario.gba\n") {
		t.Errorf("regular output not preceded by line clear: %q", out)
	}
	if status.width != 0 {
		t.Errorf("width not reset after clear: %d", status.width)
	}
}

func TestStatusLine_UpdatePadsShrinkingText(t *testing.T) {
	var buf bytes.Buffer
	status := &statusLine{out: &buf}

	status.update("a long progress line")
	buf.Reset()
	status.update("short")

	// 变短的文本要补空格盖掉上一次的残留
	if got := buf.String(); len(got) < 1+len("a long progress line") {
		t.Errorf("shrinking update left stale tail: %q", got)
	}
}

func TestFormatBytes(t *testing.T) {
	cases := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1536, "1.5 KB"},
		{3 << 20, "3.0 MB"},
	}
	for _, c := range cases {
		if got := formatBytes(c.n); got != c.want {
			t.Errorf("formatBytes(%d) = %q, want %q", c.n, got, c.want)
		}
	}
}
