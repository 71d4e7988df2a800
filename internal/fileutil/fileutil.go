package fileutil

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// rename is swapped in tests to simulate cross-device moves.
var rename = os.Rename

// beforeVerify runs once the temp copy is closed; tests use it to corrupt it.
var beforeVerify = func(string) {}

// CopyFileVerified copies src to dst with SHA256 + size integrity verification.
// The data lands in a temp file beside dst and is renamed into place, so dst
// never holds a partial copy. The source permission bits are kept.
func CopyFileVerified(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}
	srcSize := srcInfo.Size()

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := out.Name()
	committed := false
	defer func() {
		_ = out.Close()
		if !committed {
			_ = os.Remove(tmpPath)
		}
	}()

	srcHasher := sha256.New()
	written, err := io.Copy(out, io.TeeReader(in, srcHasher))
	if err != nil {
		return err
	}
	if err := out.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := out.Close(); err != nil {
		return err
	}
	if written != srcSize {
		return fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", srcSize, written)
	}

	// Verify what actually reached the disk, not the stream that was written.
	beforeVerify(tmpPath)
	copied, copiedSize, err := HashFile(tmpPath)
	if err != nil {
		return fmt.Errorf("hash temp file: %w", err)
	}
	if copiedSize != srcSize {
		return fmt.Errorf("copy size mismatch: source %d bytes, temp file %d bytes", srcSize, copiedSize)
	}
	if !bytes.Equal(srcHasher.Sum(nil), copied) {
		return fmt.Errorf("copy hash mismatch: file corrupted during copy")
	}

	if err := os.Chmod(tmpPath, srcInfo.Mode().Perm()); err != nil {
		return fmt.Errorf("set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		return fmt.Errorf("commit copy: %w", err)
	}
	committed = true
	return nil
}

// HashFile returns the SHA256 digest and size of path.
func HashFile(path string) ([]byte, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer file.Close()

	hasher := sha256.New()
	size, err := io.Copy(hasher, file)
	if err != nil {
		return nil, 0, err
	}
	return hasher.Sum(nil), size, nil
}

// SameContent reports whether a and b hold identical bytes. Sizes are compared
// before hashing.
func SameContent(a, b string) (bool, error) {
	infoA, err := os.Stat(a)
	if err != nil {
		return false, err
	}
	infoB, err := os.Stat(b)
	if err != nil {
		return false, err
	}
	if !infoA.Mode().IsRegular() || !infoB.Mode().IsRegular() {
		return false, nil
	}
	if infoA.Size() != infoB.Size() {
		return false, nil
	}
	if os.SameFile(infoA, infoB) {
		return true, nil
	}
	sumA, _, err := HashFile(a)
	if err != nil {
		return false, err
	}
	sumB, _, err := HashFile(b)
	if err != nil {
		return false, err
	}
	return bytes.Equal(sumA, sumB), nil
}

// MoveFile renames src to dst. When the two sit on different filesystems it
// falls back to a verified copy and removes src only after the copy is
// confirmed.
func MoveFile(src, dst string) error {
	err := rename(src, dst)
	if err == nil {
		return nil
	}
	if !IsCrossDevice(err) {
		return fmt.Errorf("move file: %w", err)
	}
	if err := CopyFileVerified(src, dst); err != nil {
		return fmt.Errorf("copy file across devices: %w", err)
	}
	if err := os.Remove(src); err != nil {
		return fmt.Errorf("remove source after copy: %w", err)
	}
	return nil
}

// IsCrossDevice reports whether err is the EXDEV failure of a rename across
// filesystems.
func IsCrossDevice(err error) bool {
	var linkErr *os.LinkError
	if errors.As(err, &linkErr) {
		return errors.Is(linkErr.Err, unix.EXDEV)
	}
	return errors.Is(err, unix.EXDEV)
}

// Link creates dst as a symbolic or hard link to src.
func Link(src, dst string, hard bool) error {
	if hard {
		return os.Link(src, dst)
	}
	return os.Symlink(src, dst)
}

// LinksTo reports whether dst is already a link of the requested kind to src.
func LinksTo(src, dst string, hard bool) bool {
	if hard {
		srcInfo, err := os.Stat(src)
		if err != nil {
			return false
		}
		dstInfo, err := os.Lstat(dst)
		if err != nil || !dstInfo.Mode().IsRegular() {
			return false
		}
		return os.SameFile(srcInfo, dstInfo)
	}
	target, err := os.Readlink(dst)
	if err != nil {
		return false
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(dst), target)
	}
	return filepath.Clean(target) == filepath.Clean(src)
}
