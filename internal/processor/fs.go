package processor

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// isPartial checks if a filename ends with one of the partial-download suffixes
func isPartial(fileName string, suffixes []string) bool {
	nameLower := strings.ToLower(fileName)

	for _, s := range suffixes {
		if strings.HasSuffix(nameLower, strings.ToLower(s)) {
			return true
		}
	}
	return false
}

// within reports whether path is root itself or somewhere below it
func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// treeSize sums the size of every regular file under root
func treeSize(root string) (int64, error) {
	var total int64
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			info, err := d.Info()
			if err != nil {
				return err
			}
			total += info.Size()
		}
		return nil
	})
	return total, err
}

// copyTree recreates the directory src at dst, which must not exist yet.
func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		info, err := d.Info()
		if err != nil {
			return err
		}

		switch {
		case d.IsDir():
			return os.MkdirAll(target, info.Mode().Perm()|0700)
		case d.Type()&fs.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return err
			}
			return os.Symlink(link, target)
		case d.Type().IsRegular():
			return copyFile(path, target, info.Mode().Perm())
		default:
			return fmt.Errorf("cannot copy %s: unsupported file type %s", path, d.Type())
		}
	})
}

// copyFile copies into a hidden temp file next to destPath and renames it into place,
// so a half-written file never carries the final name.
func copyFile(sourcePath, destPath string, perm fs.FileMode) error {
	src, err := os.Open(sourcePath)
	if err != nil {
		return err
	}
	defer src.Close()

	tempDest := filepath.Join(filepath.Dir(destPath), "."+filepath.Base(destPath)+".tmp")

	dst, err := os.OpenFile(tempDest, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm)
	if err != nil {
		return err
	}

	// io.Copy uses copy_file_range(2) or sendfile(2) where available
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(tempDest)
		return err
	}

	if err := dst.Sync(); err != nil {
		dst.Close()
		os.Remove(tempDest)
		return err
	}

	if err := dst.Close(); err != nil {
		os.Remove(tempDest)
		return err
	}

	if err := os.Rename(tempDest, destPath); err != nil {
		os.Remove(tempDest)
		return err
	}

	return nil
}
