// Package downloads watches a browser's download directory.
package downloads

import (
	"context"
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang/glog"
)

// PollInterval is how often WaitForFile lists the directory.
var PollInterval = 500 * time.Millisecond

// ErrNotDownloaded is returned when no file appears before the timeout.
var ErrNotDownloaded = errors.New("download did not complete")

// partialSuffixes mark files a browser is still writing.
var partialSuffixes = []string{".crdownload", ".part", ".tmp"}

// Set is the names of the complete files in a directory.
type Set map[string]bool

// Snapshot lists the complete files in dir. A missing directory is empty.
func Snapshot(dir string) (Set, error) {
	infos, err := ioutil.ReadDir(dir)
	if os.IsNotExist(err) {
		return Set{}, nil
	}
	if err != nil {
		return nil, err
	}
	names := make(map[string]bool, len(infos))
	for _, fi := range infos {
		if fi.IsDir() {
			continue
		}
		names[fi.Name()] = true
	}
	s := make(Set, len(names))
	for name := range names {
		if !inProgress(name, names) {
			s[name] = true
		}
	}
	return s, nil
}

// inProgress reports whether name is a partial file, or a placeholder that
// still has a partial file beside it. Firefox creates both.
func inProgress(name string, names map[string]bool) bool {
	for _, suffix := range partialSuffixes {
		if strings.HasSuffix(name, suffix) || names[name+suffix] {
			return true
		}
	}
	return false
}

// WaitForFile polls dir until the file called name is complete, and returns
// its path. If it has not appeared when timeout elapses, any complete file
// not in before is taken instead; ErrNotDownloaded is returned when there is
// none.
func WaitForFile(ctx context.Context, dir, name string, before Set, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()
poll:
	for {
		files, err := Snapshot(dir)
		if err != nil {
			return "", err
		}
		if name != "" && files[name] {
			path := filepath.Join(dir, name)
			glog.Infof("downloaded %s", path)
			return path, nil
		}
		select {
		case <-ctx.Done():
			break poll
		case <-ticker.C:
		}
	}

	files, err := Snapshot(dir)
	if err != nil {
		return "", err
	}
	for f := range files {
		if !before[f] {
			path := filepath.Join(dir, f)
			glog.Infof("%q did not appear in %s; found new file %s", name, dir, path)
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: no new file in %s after %v", ErrNotDownloaded, dir, timeout)
}

// Remove deletes path. Failures are logged, not returned.
func Remove(path string) {
	if err := os.Remove(path); err != nil {
		glog.Warningf("removing %s: %v", path, err)
		return
	}
	glog.Infof("removed %s", path)
}
