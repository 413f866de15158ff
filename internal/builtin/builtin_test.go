package builtin

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/MarcoPolo483/eva-mcp/internal/registry"
	"github.com/MarcoPolo483/eva-mcp/internal/sandbox"
)

func newTestSandbox(t *testing.T) sandbox.Sandbox {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hello world"), 0o600); err != nil {
		t.Fatalf("setup write failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "b.md"), []byte("# heading"), 0o600); err != nil {
		t.Fatalf("setup write failed: %v", err)
	}
	sb, err := sandbox.New(dir)
	if err != nil {
		t.Fatalf("sandbox.New() error = %v", err)
	}
	return sb
}

func TestPingDefaultsToPong(t *testing.T) {
	result, err := pingHandler(context.Background(), registry.HandlerContext{}, nil)
	if err != nil {
		t.Fatalf("pingHandler() error = %v", err)
	}
	if result.Content[0].Text != "pong" {
		t.Errorf("text = %q, want pong", result.Content[0].Text)
	}
}

func TestPingEchoesMessage(t *testing.T) {
	args, _ := json.Marshal(map[string]string{"message": "hi there"})
	result, err := pingHandler(context.Background(), registry.HandlerContext{}, args)
	if err != nil {
		t.Fatalf("pingHandler() error = %v", err)
	}
	if result.Content[0].Text != "hi there" {
		t.Errorf("text = %q, want %q", result.Content[0].Text, "hi there")
	}
}

func TestEchoReturnsText(t *testing.T) {
	args, _ := json.Marshal(map[string]string{"text": "hi"})
	result, err := echoHandler(context.Background(), registry.HandlerContext{}, args)
	if err != nil {
		t.Fatalf("echoHandler() error = %v", err)
	}
	if result.Content[0].Text != "hi" {
		t.Errorf("text = %q, want hi", result.Content[0].Text)
	}
}

func TestTimeUsesInjectedClock(t *testing.T) {
	fixed := time.Date(2026, 8, 6, 12, 0, 0, 0, time.UTC)
	hc := registry.HandlerContext{Now: func() time.Time { return fixed }}

	result, err := timeHandler(context.Background(), hc, nil)
	if err != nil {
		t.Fatalf("timeHandler() error = %v", err)
	}
	want := fixed.Format(time.RFC3339)
	if result.Content[0].Text != want {
		t.Errorf("text = %q, want %q", result.Content[0].Text, want)
	}
}

func TestSearchFilesMatchesGlob(t *testing.T) {
	sb := newTestSandbox(t)
	handler := searchFilesHandler(sb, sandbox.DefaultMaxList)

	args, _ := json.Marshal(map[string]string{"pattern": "*.txt"})
	result, err := handler(context.Background(), registry.HandlerContext{}, args)
	if err != nil {
		t.Fatalf("handler() error = %v", err)
	}
	if result.IsError {
		t.Fatalf("result.IsError = true, want false: %v", result.Content)
	}
	if !strings.Contains(result.Content[0].Text, "a.txt") {
		t.Errorf("text = %q, want to contain a.txt", result.Content[0].Text)
	}
}

func TestSearchFilesNoMatchIsEmptySuccessfulResult(t *testing.T) {
	sb := newTestSandbox(t)
	handler := searchFilesHandler(sb, sandbox.DefaultMaxList)

	args, _ := json.Marshal(map[string]string{"pattern": "*.nope"})
	result, err := handler(context.Background(), registry.HandlerContext{}, args)
	if err != nil {
		t.Fatalf("handler() error = %v", err)
	}
	if result.IsError {
		t.Fatal("result.IsError = true, want false for zero matches")
	}
	if len(result.Content) != 1 || result.Content[0].Text != "" {
		t.Errorf("content = %+v, want a single empty text part", result.Content)
	}
}

func TestEditFileReplacesOnce(t *testing.T) {
	sb := newTestSandbox(t)
	handler := editFileHandler(sb)

	args, _ := json.Marshal(map[string]any{"path": "a.txt", "oldText": "world", "newText": "galaxy"})
	result, err := handler(context.Background(), registry.HandlerContext{}, args)
	if err != nil {
		t.Fatalf("handler() error = %v", err)
	}
	if result.IsError {
		t.Fatalf("result.IsError = true, want false: %v", result.Content)
	}
	if !strings.Contains(result.Content[0].Text, "a.txt") {
		t.Errorf("diff missing filename: %q", result.Content[0].Text)
	}

	updated, err := sb.Read("a.txt")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if updated.Content != "hello galaxy" {
		t.Errorf("file content = %q, want %q", updated.Content, "hello galaxy")
	}
}

func TestEditFileDryRunLeavesFileUnchanged(t *testing.T) {
	sb := newTestSandbox(t)
	handler := editFileHandler(sb)

	args, _ := json.Marshal(map[string]any{"path": "a.txt", "oldText": "world", "newText": "galaxy", "dryRun": true})
	result, err := handler(context.Background(), registry.HandlerContext{}, args)
	if err != nil {
		t.Fatalf("handler() error = %v", err)
	}
	if result.IsError {
		t.Fatalf("result.IsError = true, want false")
	}

	unchanged, err := sb.Read("a.txt")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if unchanged.Content != "hello world" {
		t.Errorf("dryRun modified file: content = %q", unchanged.Content)
	}
}

func TestEditFileOldTextNotFoundIsToolError(t *testing.T) {
	sb := newTestSandbox(t)
	handler := editFileHandler(sb)

	args, _ := json.Marshal(map[string]any{"path": "a.txt", "oldText": "nonexistent", "newText": "x"})
	result, err := handler(context.Background(), registry.HandlerContext{}, args)
	if err != nil {
		t.Fatalf("handler() error = %v", err)
	}
	if !result.IsError {
		t.Fatal("result.IsError = false, want true when oldText is absent")
	}
}

func TestFileResourceReaderRootListsAllFiles(t *testing.T) {
	sb := newTestSandbox(t)
	reader := fileResourceReader(sb, sandbox.DefaultMaxList)

	content, err := reader(context.Background(), fileResourceURI)
	if err != nil {
		t.Fatalf("reader() error = %v", err)
	}
	if !strings.Contains(content.Text, "a.txt") || !strings.Contains(content.Text, "b.md") {
		t.Errorf("listing = %q, want both a.txt and b.md", content.Text)
	}
}

func TestFileResourceReaderReadsIndividualFile(t *testing.T) {
	sb := newTestSandbox(t)
	reader := fileResourceReader(sb, sandbox.DefaultMaxList)

	content, err := reader(context.Background(), fileResourceURI+"a.txt")
	if err != nil {
		t.Fatalf("reader() error = %v", err)
	}
	if content.Text != "hello world" {
		t.Errorf("text = %q, want %q", content.Text, "hello world")
	}
	if content.MimeType != mimeTypeText {
		t.Errorf("MimeType = %q, want %q", content.MimeType, mimeTypeText)
	}
}
