// Package tasksource turns a line-oriented video list into download tasks.
package tasksource

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/phiroict/yt-parallel/internal/domain"
)

const maxLineBytes = 1024 * 1024

// Read returns one task per non-blank line of r, in input order.
// Lines starting with '#' are comments. Any read or decode failure fails the
// whole list so that nothing is dispatched from a half-read input.
func Read(r io.Reader, workDir string) ([]domain.DownloadTask, error) {
	var tasks []domain.DownloadTask

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxLineBytes)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := scanner.Text()
		if !utf8.ValidString(raw) {
			return nil, fmt.Errorf("%w: line %d is not valid UTF-8", domain.ErrConfiguration, lineNo)
		}

		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		tasks = append(tasks, domain.NewDownloadTask(line, workDir))
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading line %d: %v", domain.ErrConfiguration, lineNo+1, err)
	}

	return tasks, nil
}

// ReadFile opens the video list at path and reads it with Read
func ReadFile(path, workDir string) ([]domain.DownloadTask, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: could not open video list %s: %v", domain.ErrConfiguration, path, err)
	}
	defer f.Close()

	return Read(f, workDir)
}
