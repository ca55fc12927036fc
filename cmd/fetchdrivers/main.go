// Binary fetchdrivers downloads the ChromeDriver and GeckoDriver binaries,
// and optionally matching browsers, that the UI scenarios run against.
package main

import (
	"context"
	"flag"
	"runtime"

	"github.com/golang/glog"

	"github.com/wanmail/uitest/internal/fetch"
)

var (
	dir              = flag.String("dir", "drivers", "The directory to download into.")
	platform         = flag.String("platform", defaultPlatform(), "The target platform: linux64, mac-x64, mac-arm64 or win64.")
	chromeVersion    = flag.String("chrome_version", "", "The Chrome for Testing version to fetch, e.g. 120.0.6099.109. Empty means the latest stable.")
	withChrome       = flag.Bool("chrome", true, "If true, download chromedriver.")
	withGecko        = flag.Bool("geckodriver", true, "If true, download geckodriver.")
	downloadBrowsers = flag.Bool("download_browsers", false, "If true, also download the Chrome for Testing browser.")
)

func defaultPlatform() string {
	switch runtime.GOOS + "/" + runtime.GOARCH {
	case "darwin/arm64":
		return "mac-arm64"
	case "darwin/amd64":
		return "mac-x64"
	case "windows/amd64":
		return "win64"
	default:
		return "linux64"
	}
}

func main() {
	flag.Parse()
	ctx := context.Background()

	var files []fetch.File
	if *withChrome {
		chrome, err := fetch.ChromeFiles(ctx, *chromeVersion, *platform, *downloadBrowsers)
		if err != nil {
			glog.Exitf("Unable to find chromedriver: %v", err)
		}
		files = append(files, chrome...)
	}
	if *withGecko {
		gecko, v, err := fetch.GeckoDriverFile(ctx, nil, *platform)
		if err != nil {
			glog.Exitf("Unable to find the latest geckodriver: %v", err)
		}
		glog.Infof("Latest geckodriver is %v", v)
		files = append(files, gecko)
	}
	if len(files) == 0 {
		glog.Exit("Nothing to download; pass -chrome or -geckodriver.")
	}

	if err := fetch.All(ctx, *dir, files); err != nil {
		glog.Exitf("Download failed: %v", err)
	}
	glog.Infof("Downloaded %d files into %s", len(files), *dir)
	glog.Flush()
}
