package scenarios

import (
	"flag"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/golang/glog"
	"github.com/stretchr/testify/require"

	"github.com/wanmail/uitest/internal/demosite"
	"github.com/wanmail/uitest/page"
	"github.com/wanmail/uitest/session"
)

const (
	publicSite       = "https://the-internet.herokuapp.com"
	publicFramesSite = "https://demoqa.com"
)

var (
	cfg = session.DefaultConfig()

	public        = flag.Bool("public", false, "If true, run against the public demo sites instead of the local copy.")
	siteURL       = flag.String("site_url", "", "The base URL of the demo site. Overrides -public.")
	framesSiteURL = flag.String("frames_site_url", "", "The base URL of the frames demo site. Overrides -public.")
	artifacts     = flag.String("artifacts", "", "If set, save a screenshot of every failed scenario into this directory.")
)

func TestMain(m *testing.M) {
	envFile := os.Getenv("UITEST_ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := cfg.LoadEnv(envFile); err != nil {
		glog.Exitf("loading the environment: %v", err)
	}
	cfg.RegisterFlags(flag.CommandLine)
	flag.Parse()

	var local *httptest.Server
	switch {
	case *public:
		setDefault(siteURL, publicSite)
		setDefault(framesSiteURL, publicFramesSite)
	case *siteURL == "" || *framesSiteURL == "":
		local = httptest.NewServer(demosite.Handler)
		setDefault(siteURL, local.URL)
		setDefault(framesSiteURL, local.URL)
	}
	glog.Infof("scenarios use %s and %s", *siteURL, *framesSiteURL)

	code := m.Run()
	if local != nil {
		local.Close()
	}
	glog.Flush()
	os.Exit(code)
}

func setDefault(s *string, v string) {
	if *s == "" {
		*s = v
	}
}

func site(path string) string       { return *siteURL + path }
func framesSite(path string) string { return *framesSiteURL + path }

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// newSession starts a browser for the calling test and closes it when the
// test ends. modify adjusts a copy of the shared configuration.
func newSession(t *testing.T, modify ...func(*session.Config)) (*page.Page, *session.Session) {
	t.Helper()
	if cfg.DriverPath == "" && cfg.RemoteURL == "" {
		t.Skip("no browser driver configured; set -driver_path or -remote_url")
	}

	c := cfg
	c.ExtraArgs = append([]string(nil), cfg.ExtraArgs...)
	for _, f := range modify {
		f(&c)
	}
	s, err := session.Start(c)
	require.NoError(t, err, "starting the browser session")

	p := page.New(s)
	t.Cleanup(func() {
		if t.Failed() {
			saveFailure(t, p, s)
		}
		if err := s.Close(); err != nil {
			t.Logf("closing the session: %v", err)
		}
	})
	return p, s
}

// saveFailure records what the browser saw when a scenario failed.
func saveFailure(t *testing.T, p *page.Page, s *session.Session) {
	if u, err := p.CurrentURL(); err == nil {
		t.Logf("failed at %s", u)
	}
	logs, err := s.BrowserLogs()
	if err != nil {
		glog.Warningf("reading browser logs: %v", err)
	}
	for _, l := range logs {
		t.Logf("browser %s: %s", l.Level, l.Message)
	}
	if *artifacts == "" {
		return
	}
	path := filepath.Join(*artifacts, fmt.Sprintf("%s.png", unsafeChars.ReplaceAllString(t.Name(), "_")))
	if err := p.Screenshot(path); err != nil {
		glog.Warningf("saving a screenshot: %v", err)
		return
	}
	t.Logf("screenshot saved to %s", path)
}

// skipIfRemote skips scenarios that need the browser on this machine's
// filesystem.
func skipIfRemote(t *testing.T) {
	t.Helper()
	if cfg.RemoteURL != "" {
		t.Skip("the browser runs on a remote host and cannot share files with the test")
	}
}
