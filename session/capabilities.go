package session

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tebeka/selenium"
	"github.com/tebeka/selenium/chrome"
	"github.com/tebeka/selenium/firefox"
	"github.com/tebeka/selenium/log"
)

// chromeArgs are always passed to Chrome; they let it run inside containers.
var chromeArgs = []string{
	"--no-sandbox",
	"--disable-dev-shm-usage",
}

// downloadMIMETypes are saved by Firefox without asking.
var downloadMIMETypes = []string{
	"text/plain",
	"text/csv",
	"application/octet-stream",
	"application/pdf",
	"application/json",
	"application/zip",
	"image/png",
	"image/jpeg",
}

// NewCapabilities returns the capabilities for a new session described by cfg.
func NewCapabilities(cfg Config) (selenium.Capabilities, error) {
	caps := selenium.Capabilities{"browserName": cfg.Browser}

	switch cfg.Browser {
	case Chrome:
		cc, err := chromeCapabilities(cfg)
		if err != nil {
			return nil, err
		}
		caps.AddChrome(cc)
	case Firefox:
		fc, err := firefoxCapabilities(cfg)
		if err != nil {
			return nil, err
		}
		caps.AddFirefox(fc)
	default:
		return nil, fmt.Errorf("unsupported browser %q", cfg.Browser)
	}

	if cfg.Proxy != "" {
		caps.AddProxy(selenium.Proxy{
			Type:         selenium.Manual,
			SOCKS:        cfg.Proxy,
			SOCKSVersion: 5,
		})
	}
	if cfg.BrowserLogLevel != "" {
		level := log.Level(strings.ToUpper(cfg.BrowserLogLevel))
		switch level {
		case log.Off, log.Severe, log.Warning, log.Info, log.Debug, log.All:
		default:
			return nil, fmt.Errorf("unknown browser log level %q", cfg.BrowserLogLevel)
		}
		caps.SetLogLevel(log.Browser, level)
	}
	return caps, nil
}

func chromeCapabilities(cfg Config) (chrome.Capabilities, error) {
	cc := chrome.Capabilities{
		Path: cfg.BrowserBinary,
		W3C:  true,
	}
	cc.Args = append(cc.Args, chromeArgs...)
	if cfg.WindowSize != "" {
		w, h, err := parseWindowSize(cfg.WindowSize)
		if err != nil {
			return cc, err
		}
		cc.Args = append(cc.Args, fmt.Sprintf("--window-size=%d,%d", w, h))
	}
	if cfg.Headless {
		cc.Args = append(cc.Args, "--headless")
	}
	cc.Args = append(cc.Args, cfg.ExtraArgs...)

	if cfg.DownloadDir != "" {
		cc.Prefs = map[string]interface{}{
			"download.default_directory":   cfg.DownloadDir,
			"download.prompt_for_download": false,
			"download.directory_upgrade":   true,
			"safebrowsing.enabled":         true,
		}
	}

	for _, ext := range cfg.Extensions {
		if err := cc.AddUnpackedExtension(ext); err != nil {
			return cc, fmt.Errorf("packing extension %s: %v", ext, err)
		}
	}
	return cc, nil
}

func firefoxCapabilities(cfg Config) (firefox.Capabilities, error) {
	fc := firefox.Capabilities{Binary: cfg.BrowserBinary}
	if cfg.WindowSize != "" {
		w, h, err := parseWindowSize(cfg.WindowSize)
		if err != nil {
			return fc, err
		}
		fc.Args = append(fc.Args, "--width="+strconv.Itoa(w), "--height="+strconv.Itoa(h))
	}
	if cfg.Headless {
		fc.Args = append(fc.Args, "-headless")
	}
	fc.Args = append(fc.Args, cfg.ExtraArgs...)

	if cfg.DownloadDir != "" {
		fc.Prefs = map[string]interface{}{
			// 2 selects a custom download directory.
			"browser.download.folderList":             2,
			"browser.download.dir":                    cfg.DownloadDir,
			"browser.download.useDownloadDir":         true,
			"browser.download.manager.showWhenStarting": false,
			"browser.helperApps.neverAsk.saveToDisk":  strings.Join(downloadMIMETypes, ","),
			"pdfjs.disabled":                          true,
		}
	}
	if cfg.Debug {
		fc.Log = &firefox.Log{Level: firefox.Trace}
	}
	return fc, nil
}
