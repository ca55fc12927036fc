package fetch

import (
	"context"
	"encoding/hex"
	"fmt"
	"io/ioutil"
	"net/http"
	"path"
	"regexp"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

const (
	// chromeBucket holds the Chrome for Testing builds.
	// See https://googlechromelabs.github.io/chrome-for-testing/.
	chromeBucket = "chrome-for-testing-public"
)

// LatestStableURL publishes the current stable Chrome for Testing version.
var LatestStableURL = "https://googlechromelabs.github.io/chrome-for-testing/LATEST_RELEASE_STABLE"

var chromeVersionRE = regexp.MustCompile(`^\d+\.\d+\.\d+\.\d+$`)

// Chrome for Testing platform names, keyed by the platform names used here.
var chromePlatforms = map[string]string{
	"linux64":   "linux64",
	"mac-x64":   "mac-x64",
	"mac-arm64": "mac-arm64",
	"win64":     "win64",
}

// LatestChromeVersion returns the current stable Chrome for Testing version,
// e.g. "120.0.6099.109".
func LatestChromeVersion(ctx context.Context) (string, error) {
	req, err := http.NewRequest("GET", LatestStableURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := http.DefaultClient.Do(req.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("fetching the latest chrome version: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching the latest chrome version from %s: %s", LatestStableURL, resp.Status)
	}
	data, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	v := strings.TrimSpace(string(data))
	if !chromeVersionRE.MatchString(v) {
		return "", fmt.Errorf("%s returned %q, which is not a chrome version", LatestStableURL, v)
	}
	return v, nil
}

// chromeObjects names the bucket objects for the driver and browser builds
// of version on platform.
func chromeObjects(version, platform string) (driver, browser string, err error) {
	p, ok := chromePlatforms[platform]
	if !ok {
		return "", "", fmt.Errorf("unsupported platform %q", platform)
	}
	if !chromeVersionRE.MatchString(version) {
		return "", "", fmt.Errorf("invalid chrome version %q", version)
	}
	driver = path.Join(version, p, "chromedriver-"+p+".zip")
	browser = path.Join(version, p, "chrome-"+p+".zip")
	return driver, browser, nil
}

// fileFromAttrs describes how to download a bucket object.
func fileFromAttrs(attrs *storage.ObjectAttrs, name string, rename []string, browser bool) File {
	return File{
		URL:      attrs.MediaLink,
		Name:     name,
		Hash:     hex.EncodeToString(attrs.MD5),
		HashType: "md5",
		Rename:   rename,
		Browser:  browser,
	}
}

// ChromeFiles returns the chromedriver build of version for platform, and the
// matching Chrome build when withBrowser is set. An empty version means the
// latest stable one.
func ChromeFiles(ctx context.Context, version, platform string, withBrowser bool) ([]File, error) {
	if version == "" {
		var err error
		if version, err = LatestChromeVersion(ctx); err != nil {
			return nil, err
		}
	}
	driverObj, browserObj, err := chromeObjects(version, platform)
	if err != nil {
		return nil, err
	}

	gcsPath := fmt.Sprintf("gs://%s/", chromeBucket)
	client, err := storage.NewClient(ctx, option.WithHTTPClient(http.DefaultClient))
	if err != nil {
		return nil, fmt.Errorf("cannot create a storage client for downloading chromedriver: %v", err)
	}
	defer client.Close()
	bkt := client.Bucket(chromeBucket)

	attrs, err := bkt.Object(driverObj).Attrs(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot get the chromedriver package %s%s attrs: %v", gcsPath, driverObj, err)
	}
	p := chromePlatforms[platform]
	files := []File{fileFromAttrs(attrs, "chromedriver.zip", []string{path.Join("chromedriver-"+p, driverBinary("chromedriver", platform)), driverBinary("chromedriver", platform)}, false)}

	if withBrowser {
		attrs, err := bkt.Object(browserObj).Attrs(ctx)
		if err != nil {
			return nil, fmt.Errorf("cannot get the chrome package %s%s attrs: %v", gcsPath, browserObj, err)
		}
		files = append(files, fileFromAttrs(attrs, "chrome.zip", []string{"chrome-" + p, "chrome"}, true))
	}
	return files, nil
}

// driverBinary is the executable name of a driver on platform.
func driverBinary(name, platform string) string {
	if strings.HasPrefix(platform, "win") {
		return name + ".exe"
	}
	return name
}
