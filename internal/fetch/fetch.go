// Package fetch downloads and unpacks the WebDriver binaries the scenarios
// need.
package fetch

import (
	"context"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"strings"

	"github.com/golang/glog"
	"golang.org/x/sync/errgroup"
)

// File describes how to download a file from the Web.
type File struct {
	URL  string
	Name string
	// Hash is the hex digest of the file; empty skips verification.
	Hash     string
	HashType string // sha256 (default), sha1 or md5
	// Rename moves Rename[0] to Rename[1], both relative to Dir, after the
	// archive is unpacked.
	Rename []string
	// Browser marks a browser build rather than a driver.
	Browser bool
	// Dir is the directory in which to store the file.
	Dir string
}

// Path is where the downloaded file is stored.
func (f File) Path() string {
	if f.Dir != "" {
		return filepath.Join(f.Dir, f.Name)
	}
	return f.Name
}

// execCommand is replaced in tests.
var execCommand = exec.Command

func newHash(hashType string) hash.Hash {
	switch strings.ToLower(hashType) {
	case "md5":
		return md5.New()
	case "sha1":
		return sha1.New()
	default:
		return sha256.New()
	}
}

// Download fetches file unless a copy with the same hash is already present,
// then unpacks and renames it.
func Download(ctx context.Context, file File) error {
	if file.Dir != "" {
		if err := os.MkdirAll(file.Dir, 0755); err != nil {
			return err
		}
	}
	if file.Hash != "" && fileSameHash(file) {
		glog.Infof("Skipping file %q which has already been downloaded.", file.Name)
	} else {
		glog.Infof("Downloading %q from %q", file.Name, file.URL)
		if err := downloadFile(ctx, file); err != nil {
			return err
		}
	}

	if err := Unpack(file); err != nil {
		return err
	}

	if rename := file.Rename; len(rename) == 2 {
		from := filepath.Join(file.Dir, rename[0])
		to := filepath.Join(file.Dir, rename[1])
		glog.Infof("Renaming %q to %q", from, to)
		os.RemoveAll(to) // Ignore error.
		if err := os.Rename(from, to); err != nil {
			return fmt.Errorf("renaming %q to %q: %v", from, to, err)
		}
	}
	return nil
}

// All downloads files into dir in parallel, returning the first error.
func All(ctx context.Context, dir string, files []File) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, file := range files {
		file := file
		file.Dir = dir
		g.Go(func() error {
			if err := Download(ctx, file); err != nil {
				return fmt.Errorf("error handling %s: %v", file.Name, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func downloadFile(ctx context.Context, file File) (err error) {
	req, err := http.NewRequest("GET", file.URL, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("%s: error downloading %q: %v", file.Name, file.URL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: error downloading %q: %s", file.Name, file.URL, resp.Status)
	}

	f, err := os.Create(file.Path())
	if err != nil {
		return fmt.Errorf("error creating %q: %v", file.Path(), err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("error closing %q: %v", file.Path(), closeErr)
		}
	}()

	h := newHash(file.HashType)
	if _, err := io.Copy(io.MultiWriter(f, h), resp.Body); err != nil {
		return fmt.Errorf("%s: error downloading %q: %v", file.Name, file.URL, err)
	}
	if file.Hash == "" {
		return nil
	}
	if sum := hex.EncodeToString(h.Sum(nil)); sum != strings.ToLower(file.Hash) {
		return fmt.Errorf("%s: got %s hash %q, want %q", file.Name, hashName(file.HashType), sum, file.Hash)
	}
	return nil
}

func hashName(hashType string) string {
	if hashType == "" {
		return "sha256"
	}
	return strings.ToLower(hashType)
}

func fileSameHash(file File) bool {
	f, err := os.Open(file.Path())
	if err != nil {
		return false
	}
	defer f.Close()

	h := newHash(file.HashType)
	if _, err := io.Copy(h, f); err != nil {
		return false
	}

	sum := hex.EncodeToString(h.Sum(nil))
	if sum != strings.ToLower(file.Hash) {
		glog.Warningf("File %q: got hash %q, expect hash %q", file.Name, sum, file.Hash)
		return false
	}
	return true
}

// Unpack extracts a .zip, .tar.gz or .tar.bz2 file into its directory using
// the system tools. Other files are left alone.
func Unpack(file File) error {
	dir := "."
	if file.Dir != "" {
		dir = file.Dir
	}

	var unzipCmd []string
	switch path.Ext(file.Name) {
	case ".zip":
		unzipCmd = []string{"unzip", "-o", "-d", dir, file.Path()}
	case ".gz", ".tgz":
		unzipCmd = []string{"tar", "-xzf", file.Path(), "-C", dir}
	case ".bz2":
		unzipCmd = []string{"tar", "-xjf", file.Path(), "-C", dir}
	default:
		return nil
	}

	glog.Infof("Unzipping %q", file.Path())
	if out, err := execCommand(unzipCmd[0], unzipCmd[1:]...).CombinedOutput(); err != nil {
		return fmt.Errorf("error unzipping %q: %v: %s", file.Name, err, out)
	}
	return nil
}
