// Package browser opens post links in the system browser.
package browser

import (
	"errors"
	"os/exec"
	"runtime"
)

var ErrNoURL = errors.New("browser: no url to open")

// Command returns the command that opens url on goos.
func Command(goos, url string) *exec.Cmd {
	switch goos {
	case "darwin":
		return exec.Command("open", url)
	case "windows":
		return exec.Command("cmd", "/c", "start", url)
	default:
		return exec.Command("xdg-open", url)
	}
}

// Open starts the browser and does not wait for it.
func Open(url string) error {
	if url == "" {
		return ErrNoURL
	}
	return Command(runtime.GOOS, url).Start()
}
