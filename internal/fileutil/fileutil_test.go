package fileutil

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/sys/unix"

	"copyartifacts/internal/testsupport"
)

func TestCopyFileVerified(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.bin")
	dst := filepath.Join(dir, "dst.bin")

	content := []byte("verified copy content")
	if err := os.WriteFile(src, content, 0o640); err != nil {
		t.Fatal(err)
	}

	if err := CopyFileVerified(src, dst); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(content) {
		t.Fatalf("content mismatch: got %q, want %q", got, content)
	}
	info, err := os.Stat(dst)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o640 {
		t.Fatalf("expected source permissions, got %o", info.Mode().Perm())
	}
	assertNoTempFiles(t, dir)
}

func TestCopyFileVerifiedOverwritesExisting(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "dst.txt")
	if err := os.WriteFile(src, []byte("new"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dst, []byte("old and longer"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := CopyFileVerified(src, dst); err != nil {
		t.Fatal(err)
	}
	got, _ := os.ReadFile(dst)
	if string(got) != "new" {
		t.Fatalf("expected overwrite, got %q", got)
	}
}

func TestCopyFileVerified_MissingSource(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "nonexistent")
	dst := filepath.Join(dir, "dst.bin")

	if err := CopyFileVerified(src, dst); err == nil {
		t.Fatal("expected error for missing source")
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Fatalf("expected no destination, got %v", err)
	}
}

func TestCopyFileVerified_MissingDestDir(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	if err := os.WriteFile(src, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := CopyFileVerified(src, filepath.Join(dir, "missing", "dst")); err == nil {
		t.Fatal("expected error when destination directory is missing")
	}
}

func TestCopyFileVerifiedMultiChunk(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "scan.tiff")
	dst := filepath.Join(dir, "copy.tiff")
	want := testsupport.WriteSized(t, src, 3*32*1024+17)

	if err := CopyFileVerified(src, dst); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, want) {
		t.Fatal("copied bytes differ from source")
	}
}

func TestCopyFileVerifiedRejectsCorruptedTempFile(t *testing.T) {
	tests := []struct {
		name    string
		corrupt func(t *testing.T, path string)
		wantErr string
	}{
		{
			name: "flipped byte",
			corrupt: func(t *testing.T, path string) {
				f, err := os.OpenFile(path, os.O_WRONLY, 0)
				if err != nil {
					t.Fatal(err)
				}
				defer f.Close()
				if _, err := f.WriteAt([]byte{0xff}, 100); err != nil {
					t.Fatal(err)
				}
			},
			wantErr: "hash mismatch",
		},
		{
			name: "truncated",
			corrupt: func(t *testing.T, path string) {
				if err := os.Truncate(path, 10); err != nil {
					t.Fatal(err)
				}
			},
			wantErr: "size mismatch",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			src := filepath.Join(dir, "booklet.pdf")
			dst := filepath.Join(dir, "copy.pdf")
			testsupport.WriteSized(t, src, 4096)

			original := beforeVerify
			beforeVerify = func(path string) { tt.corrupt(t, path) }
			t.Cleanup(func() { beforeVerify = original })

			err := CopyFileVerified(src, dst)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected %q error, got %v", tt.wantErr, err)
			}
			if _, statErr := os.Stat(dst); !os.IsNotExist(statErr) {
				t.Fatalf("destination must not exist after failed verification, got %v", statErr)
			}
			assertNoTempFiles(t, dir)
		})
	}
}

func TestSameContent(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a")
	b := filepath.Join(dir, "b")
	c := filepath.Join(dir, "c")
	d := filepath.Join(dir, "d")
	mustWrite(t, a, "same bytes")
	mustWrite(t, b, "same bytes")
	mustWrite(t, c, "diff bytes")
	mustWrite(t, d, "short")

	tests := []struct {
		name string
		x, y string
		want bool
	}{
		{"identical", a, b, true},
		{"same size different bytes", a, c, false},
		{"different size", a, d, false},
		{"self", a, a, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SameContent(tt.x, tt.y)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Fatalf("SameContent(%s, %s) = %v, want %v", filepath.Base(tt.x), filepath.Base(tt.y), got, tt.want)
			}
		})
	}

	if _, err := SameContent(a, filepath.Join(dir, "missing")); err == nil {
		t.Fatal("expected error for missing file")
	}
	if same, err := SameContent(a, dir); err != nil || same {
		t.Fatalf("directory must never match a file: same=%v err=%v", same, err)
	}
}

func TestMoveFileSameDevice(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	mustWrite(t, src, "payload")

	if err := MoveFile(src, dst); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Fatalf("expected source removed, got %v", err)
	}
	got, _ := os.ReadFile(dst)
	if string(got) != "payload" {
		t.Fatalf("unexpected destination content %q", got)
	}
}

func TestMoveFileCrossDeviceFallsBackToCopy(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	mustWrite(t, src, "across devices")

	original := rename
	rename = func(oldpath, newpath string) error {
		return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: unix.EXDEV}
	}
	t.Cleanup(func() { rename = original })

	if err := MoveFile(src, dst); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Fatalf("expected source removed after verified copy, got %v", err)
	}
	got, _ := os.ReadFile(dst)
	if string(got) != "across devices" {
		t.Fatalf("unexpected destination content %q", got)
	}
}

func TestMoveFileOtherErrorsKeepSource(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	mustWrite(t, src, "payload")

	err := MoveFile(src, filepath.Join(dir, "missing", "dst"))
	if err == nil {
		t.Fatal("expected move error")
	}
	if IsCrossDevice(err) {
		t.Fatalf("unexpected cross-device classification: %v", err)
	}
	if _, err := os.Stat(src); err != nil {
		t.Fatalf("source must survive a failed move: %v", err)
	}
}

func TestLinkAndLinksTo(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	mustWrite(t, src, "linked")

	sym := filepath.Join(dir, "sym")
	if err := Link(src, sym, false); err != nil {
		t.Fatal(err)
	}
	if !LinksTo(src, sym, false) {
		t.Fatal("expected symlink to point at source")
	}
	if LinksTo(src, sym, true) {
		t.Fatal("symlink must not count as a hard link")
	}

	hard := filepath.Join(dir, "hard")
	if err := Link(src, hard, true); err != nil {
		t.Fatal(err)
	}
	if !LinksTo(src, hard, true) {
		t.Fatal("expected hard link to share the source inode")
	}

	other := filepath.Join(dir, "other")
	mustWrite(t, other, "linked")
	if LinksTo(src, other, true) || LinksTo(src, other, false) {
		t.Fatal("plain copy must not count as a link")
	}
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, entry := range entries {
		if strings.Contains(entry.Name(), ".tmp-") {
			t.Fatalf("temp file left behind: %s", entry.Name())
		}
	}
}
