package session

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Browsers the session knows how to configure.
const (
	Chrome  = "chrome"
	Firefox = "firefox"
)

// Config describes how to obtain a browser session.
type Config struct {
	// Browser is Chrome or Firefox.
	Browser string
	// DriverPath is the chromedriver or geckodriver binary to launch. It is
	// ignored when RemoteURL is set.
	DriverPath string
	// Port for the launched driver. Zero picks an unused one.
	Port int
	// RemoteURL is an already running WebDriver endpoint, e.g. a Selenium grid
	// at "http://localhost:4444/wd/hub".
	RemoteURL string
	// BrowserBinary overrides the browser executable.
	BrowserBinary string

	Headless   bool
	WindowSize string // "width,height"
	// ExtraArgs are appended to the browser command line.
	ExtraArgs []string
	// Extensions are unpacked Chrome extension directories to install.
	Extensions []string

	ImplicitWait    time.Duration
	PageLoadTimeout time.Duration
	// CommandTimeout bounds the raw commands sent outside the client.
	CommandTimeout time.Duration

	// DownloadDir receives downloaded files. Empty leaves the browser default.
	DownloadDir string
	// Proxy is a SOCKS5 proxy address (host:port) for all browser traffic.
	Proxy string

	// FrameBuffer starts the launched driver inside an Xvfb server.
	FrameBuffer bool
	// ScreenSize is the Xvfb screen as WxH or WxHxD. Empty keeps the Xvfb
	// default of 1280x1024x8.
	ScreenSize string
	// Display and XAuthPath point the launched driver at an existing X server.
	Display, XAuthPath string

	// BrowserLogLevel is the level of browser console logs kept for
	// BrowserLogs, e.g. "SEVERE". Empty disables collection.
	BrowserLogLevel string
	// Debug logs every WebDriver request and reply.
	Debug bool
}

// DefaultConfig returns the settings used by the scenarios: Chrome without
// the sandbox, a 1920x1080 window and a ten second implicit wait.
func DefaultConfig() Config {
	return Config{
		Browser:         Chrome,
		WindowSize:      "1920,1080",
		ImplicitWait:    10 * time.Second,
		PageLoadTimeout: 30 * time.Second,
		CommandTimeout:  30 * time.Second,
		BrowserLogLevel: "SEVERE",
	}
}

// envPrefix is prepended to every environment variable read by LoadEnv.
const envPrefix = "UITEST_"

// LoadEnv reads the given dotenv files (".env" when none are given; missing
// files are skipped) and then overrides c from UITEST_* environment
// variables. Variables already set in the environment win over the files.
func (c *Config) LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("loading %s: %v", f, err)
		}
	}

	strs := map[string]*string{
		"BROWSER":           &c.Browser,
		"DRIVER_PATH":       &c.DriverPath,
		"REMOTE_URL":        &c.RemoteURL,
		"BROWSER_BINARY":    &c.BrowserBinary,
		"WINDOW_SIZE":       &c.WindowSize,
		"DOWNLOAD_DIR":      &c.DownloadDir,
		"PROXY":             &c.Proxy,
		"SCREEN_SIZE":       &c.ScreenSize,
		"DISPLAY":           &c.Display,
		"XAUTHORITY":        &c.XAuthPath,
		"BROWSER_LOG_LEVEL": &c.BrowserLogLevel,
	}
	for name, dst := range strs {
		if v, ok := os.LookupEnv(envPrefix + name); ok {
			*dst = v
		}
	}

	bools := map[string]*bool{
		"HEADLESS":     &c.Headless,
		"FRAME_BUFFER": &c.FrameBuffer,
		"DEBUG":        &c.Debug,
	}
	for name, dst := range bools {
		v, ok := os.LookupEnv(envPrefix + name)
		if !ok {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s%s: %v", envPrefix, name, err)
		}
		*dst = b
	}

	durations := map[string]*time.Duration{
		"IMPLICIT_WAIT":     &c.ImplicitWait,
		"PAGE_LOAD_TIMEOUT": &c.PageLoadTimeout,
		"COMMAND_TIMEOUT":   &c.CommandTimeout,
	}
	for name, dst := range durations {
		v, ok := os.LookupEnv(envPrefix + name)
		if !ok {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s%s: %v", envPrefix, name, err)
		}
		*dst = d
	}

	if v, ok := os.LookupEnv(envPrefix + "PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sPORT: %v", envPrefix, err)
		}
		c.Port = port
	}
	if v, ok := os.LookupEnv(envPrefix + "EXTRA_ARGS"); ok {
		c.ExtraArgs = splitList(v)
	}
	if v, ok := os.LookupEnv(envPrefix + "EXTENSIONS"); ok {
		c.Extensions = splitList(v)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// listFlag is a comma-separated flag.Value.
type listFlag struct{ dst *[]string }

func (l listFlag) String() string {
	if l.dst == nil {
		return ""
	}
	return strings.Join(*l.dst, ",")
}

func (l listFlag) Set(s string) error {
	*l.dst = append(*l.dst, splitList(s)...)
	return nil
}

// RegisterFlags binds the fields of c to flags on fs, using the current
// values as defaults.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Browser, "browser", c.Browser, "The browser to drive: chrome or firefox.")
	fs.StringVar(&c.DriverPath, "driver_path", c.DriverPath, "The path to the chromedriver or geckodriver binary. Ignored when -remote_url is set.")
	fs.IntVar(&c.Port, "driver_port", c.Port, "The port for the launched driver. Zero picks an unused port.")
	fs.StringVar(&c.RemoteURL, "remote_url", c.RemoteURL, "The URL of a running WebDriver server, e.g. http://localhost:4444/wd/hub.")
	fs.StringVar(&c.BrowserBinary, "browser_binary", c.BrowserBinary, "The path to the browser binary. Empty lets the driver find it.")
	fs.BoolVar(&c.Headless, "headless", c.Headless, "If true, run the browser without a window.")
	fs.StringVar(&c.WindowSize, "window_size", c.WindowSize, "The browser window size as width,height.")
	fs.Var(listFlag{&c.ExtraArgs}, "browser_arg", "An extra browser command-line argument. May be repeated or comma-separated.")
	fs.Var(listFlag{&c.Extensions}, "extension", "An unpacked Chrome extension directory to install. May be repeated.")
	fs.DurationVar(&c.ImplicitWait, "implicit_wait", c.ImplicitWait, "The driver's implicit wait for element lookups.")
	fs.DurationVar(&c.PageLoadTimeout, "page_load_timeout", c.PageLoadTimeout, "The driver's page load timeout.")
	fs.DurationVar(&c.CommandTimeout, "command_timeout", c.CommandTimeout, "The timeout for raw driver commands.")
	fs.StringVar(&c.DownloadDir, "download_dir", c.DownloadDir, "The directory downloads are saved to.")
	fs.StringVar(&c.Proxy, "proxy", c.Proxy, "A SOCKS5 proxy (host:port) for browser traffic.")
	fs.BoolVar(&c.FrameBuffer, "start_frame_buffer", c.FrameBuffer, "If true, start an Xvfb subprocess and run the browser in that X server.")
	fs.StringVar(&c.ScreenSize, "screen_size", c.ScreenSize, "The Xvfb screen size as WxH or WxHxD.")
	fs.StringVar(&c.Display, "display", c.Display, "The X display (x or x.y) for the launched driver.")
	fs.StringVar(&c.XAuthPath, "xauthority", c.XAuthPath, "The X authority file for -display.")
	fs.StringVar(&c.BrowserLogLevel, "browser_log_level", c.BrowserLogLevel, "The browser console log level to collect (OFF, SEVERE, WARNING, INFO, DEBUG, ALL).")
	fs.BoolVar(&c.Debug, "webdriver_debug", c.Debug, "If true, log every WebDriver request and reply.")
}

// Validate reports configuration errors before any process is started.
func (c Config) Validate() error {
	switch c.Browser {
	case Chrome, Firefox:
	default:
		return fmt.Errorf("unsupported browser %q", c.Browser)
	}
	if c.RemoteURL == "" && c.DriverPath == "" {
		return errors.New("either a driver path or a remote URL is required")
	}
	if c.RemoteURL != "" && (c.FrameBuffer || c.Display != "") {
		return errors.New("a frame buffer or display can only be used with a launched driver")
	}
	if c.FrameBuffer && c.Display != "" {
		return errors.New("a frame buffer and an explicit display are mutually exclusive")
	}
	if c.Display != "" && !isDisplay(c.Display) {
		return fmt.Errorf("supplied display %q must be of the format 'x' or 'x.y' where x and y are integers", c.Display)
	}
	if c.ScreenSize != "" {
		if !c.FrameBuffer {
			return errors.New("a screen size requires a frame buffer")
		}
		if !screenSizeExpression.MatchString(c.ScreenSize) {
			return fmt.Errorf("invalid screen size: expected 'WxH[xD]', got %q", c.ScreenSize)
		}
	}
	if c.WindowSize != "" {
		if _, _, err := parseWindowSize(c.WindowSize); err != nil {
			return err
		}
	}
	if len(c.Extensions) > 0 && c.Browser != Chrome {
		return errors.New("extensions are only supported for chrome")
	}
	return nil
}

var screenSizeExpression = regexp.MustCompile(`^\d+x\d+(?:x\d+)?$`)

func parseWindowSize(s string) (width, height int, err error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("window size %q must be width,height", s)
	}
	if width, err = strconv.Atoi(strings.TrimSpace(parts[0])); err != nil || width <= 0 {
		return 0, 0, fmt.Errorf("window size %q has an invalid width", s)
	}
	if height, err = strconv.Atoi(strings.TrimSpace(parts[1])); err != nil || height <= 0 {
		return 0, 0, fmt.Errorf("window size %q has an invalid height", s)
	}
	return width, height, nil
}
