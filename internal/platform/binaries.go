package platform

import (
	"fmt"
	"os/exec"

	"github.com/phiroict/yt-parallel/internal/domain"
)

// LookupTool probes PATH for the download tool and returns its full path
func LookupTool(name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: '%s' not found in PATH: %v", domain.ErrToolUnavailable, name, err)
	}
	return path, nil
}
