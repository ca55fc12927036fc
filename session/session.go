// Package session starts and tears down the browser sessions used by the UI
// scenarios.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/blang/semver"
	cdppage "github.com/chromedp/cdproto/page"
	"github.com/golang/glog"
	"github.com/tebeka/selenium"
	"github.com/tebeka/selenium/log"

	"github.com/wanmail/uitest/internal/wire"
)

// ErrUnsupported is returned for commands the session's browser lacks.
var ErrUnsupported = errors.New("not supported by this browser")

// browserDownloadBehavior is the first chromedriver release whose DevTools
// exposes Browser.setDownloadBehavior; older ones only have the Page domain
// command.
var browserDownloadBehavior = semver.MustParse("77.0.0")

// cmdBrowserSetDownloadBehavior is sent raw: the cdproto revision in use
// only carries the Page domain variant.
const cmdBrowserSetDownloadBehavior = "Browser.setDownloadBehavior"

// Session is a live browser session. It is a selenium.WebDriver, extended with
// the commands the client does not provide.
type Session struct {
	selenium.WebDriver

	cfg     Config
	service *driverService
	wire    *wire.Client
}

// Start opens a new browser session described by cfg, launching a local
// driver unless cfg.RemoteURL is set. The caller must Close it.
func Start(cfg Config) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	caps, err := NewCapabilities(cfg)
	if err != nil {
		return nil, err
	}
	selenium.SetDebug(cfg.Debug)

	s := &Session{cfg: cfg}
	executor := cfg.RemoteURL
	if executor == "" {
		if s.service, err = startService(cfg); err != nil {
			return nil, err
		}
		executor = s.service.url
	}

	wd, err := selenium.NewRemote(caps, executor)
	if err != nil {
		s.stopService()
		return nil, fmt.Errorf("opening %s session at %s: %v", cfg.Browser, executor, err)
	}
	s.WebDriver = wd
	s.wire = wire.New(executor, wd.SessionID())
	glog.Infof("started %s session %s", cfg.Browser, wd.SessionID())

	if err := s.setup(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Session) setup() error {
	if s.cfg.ImplicitWait > 0 {
		if err := s.SetImplicitWaitTimeout(s.cfg.ImplicitWait); err != nil {
			return fmt.Errorf("setting implicit wait: %v", err)
		}
	}
	if s.cfg.PageLoadTimeout > 0 {
		if err := s.SetPageLoadTimeout(s.cfg.PageLoadTimeout); err != nil {
			return fmt.Errorf("setting page load timeout: %v", err)
		}
	}
	if s.cfg.Browser == Chrome && s.cfg.DownloadDir != "" {
		if err := s.AllowDownloads(s.cfg.DownloadDir); err != nil {
			return err
		}
	}
	return nil
}

// Config returns the configuration the session was started with.
func (s *Session) Config() Config { return s.cfg }

func (s *Session) commandContext() (context.Context, context.CancelFunc) {
	timeout := s.cfg.CommandTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return context.WithTimeout(context.Background(), timeout)
}

// SwitchParentFrame moves the browsing context to the parent of the current
// frame. At the top level it does nothing.
func (s *Session) SwitchParentFrame() error {
	ctx, cancel := s.commandContext()
	defer cancel()
	return s.wire.SwitchToParentFrame(ctx)
}

// HoverElement rests the mouse on the centre of elem using W3C pointer
// actions, which every current driver accepts in place of the legacy moveto
// command.
func (s *Session) HoverElement(elem selenium.WebElement) error {
	id, err := wire.ElementID(elem)
	if err != nil {
		return err
	}
	mouse, err := wire.NewPointerInput(wire.PointerMouse, "mouse")
	if err != nil {
		return err
	}
	mouse.MoveToElement(id, 0, 0, wire.DefaultMoveDuration)

	ctx, cancel := s.commandContext()
	defer cancel()
	if err := s.wire.PerformActions(ctx, mouse); err != nil {
		return fmt.Errorf("hovering over element %s: %v", id, err)
	}
	return nil
}

// AllowDownloads makes Chrome save downloads into dir without prompting,
// including in headless mode where the download.default_directory preference
// is ignored.
func (s *Session) AllowDownloads(dir string) error {
	if s.cfg.Browser != Chrome {
		return fmt.Errorf("download behavior: %w", ErrUnsupported)
	}
	ctx, cancel := s.commandContext()
	defer cancel()

	v, err := s.DriverVersion()
	if err != nil {
		glog.Warningf("could not determine the driver version, assuming a current one: %v", err)
	}
	if err == nil && v.LT(browserDownloadBehavior) {
		params := cdppage.SetDownloadBehavior(cdppage.SetDownloadBehaviorBehaviorAllow).WithDownloadPath(dir)
		if _, err := s.wire.ExecuteCDP(ctx, cdppage.CommandSetDownloadBehavior, params); err != nil {
			return fmt.Errorf("allowing downloads into %s: %v", dir, err)
		}
		return nil
	}
	params := map[string]interface{}{
		"behavior":     string(cdppage.SetDownloadBehaviorBehaviorAllow),
		"downloadPath": dir,
	}
	if _, err := s.wire.Execute(ctx, http.MethodPost, "/goog/cdp/execute", map[string]interface{}{
		"cmd":    cmdBrowserSetDownloadBehavior,
		"params": params,
	}); err != nil {
		return fmt.Errorf("allowing downloads into %s: %v", dir, err)
	}
	glog.V(1).Infof("downloads go to %s", dir)
	return nil
}

var versionExpression = regexp.MustCompile(`^(\d+)\.(\d+)\.(\d+)`)

// DriverVersion reports the version of the driver behind the session, as
// published in its status. Chrome's four-part versions are truncated to
// major.minor.build.
func (s *Session) DriverVersion() (semver.Version, error) {
	status, err := s.Status()
	if err != nil {
		return semver.Version{}, err
	}
	return parseDriverVersion(status.Build.Version)
}

func parseDriverVersion(raw string) (semver.Version, error) {
	m := versionExpression.FindStringSubmatch(raw)
	if m == nil {
		return semver.Version{}, fmt.Errorf("driver reported no usable version: %q", raw)
	}
	return semver.Parse(m[1] + "." + m[2] + "." + m[3])
}

// BrowserLogs returns the browser console entries collected since the last
// call, at the configured level or above.
func (s *Session) BrowserLogs() ([]log.Message, error) {
	if s.cfg.BrowserLogLevel == "" {
		return nil, nil
	}
	return s.Log(log.Browser)
}

// Close quits the browser and stops any driver or frame buffer started for
// it. It returns the first error encountered.
func (s *Session) Close() error {
	var err error
	if s.WebDriver != nil {
		if err = s.Quit(); err != nil {
			glog.Errorf("quitting session: %v", err)
		}
	}
	if svcErr := s.stopService(); svcErr != nil && err == nil {
		err = svcErr
	}
	return err
}

func (s *Session) stopService() error {
	if s.service == nil {
		return nil
	}
	err := s.service.Stop()
	if err != nil {
		glog.Errorf("stopping driver: %v", err)
	}
	s.service = nil
	return err
}
