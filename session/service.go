package session

import (
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/golang/glog"
	"github.com/tebeka/selenium"
)

// isDisplay validates that the given disp is in the format "x" or "x.y", where
// x and y are both integers.
func isDisplay(disp string) bool {
	ds := strings.Split(disp, ".")
	if len(ds) > 2 {
		return false
	}

	for _, d := range ds {
		if _, err := strconv.Atoi(d); err != nil {
			return false
		}
	}
	return true
}

// pickUnusedPort asks the kernel for a free loopback port.
func pickUnusedPort() (int, error) {
	addr, err := net.ResolveTCPAddr("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}

	l, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return 0, err
	}
	port := l.Addr().(*net.TCPAddr).Port
	if err := l.Close(); err != nil {
		return 0, err
	}
	return port, nil
}

// newFrameBuffer starts an Xvfb server with the given screen size, or the
// Xvfb default when it is empty.
func newFrameBuffer(screenSize string) (*selenium.FrameBuffer, error) {
	fb, err := selenium.NewFrameBufferWithOptions(selenium.FrameBufferOptions{
		ScreenSize: screenSize,
	})
	if err != nil {
		return nil, fmt.Errorf("starting Xvfb: %v", err)
	}
	glog.Infof("Xvfb listening on display :%s", fb.Display)
	return fb, nil
}

// driverService is a launched chromedriver or geckodriver together with the
// frame buffer it renders into, if any.
type driverService struct {
	svc *selenium.Service
	fb  *selenium.FrameBuffer
	url string
}

// startService launches the driver named by cfg on a local port and returns
// the WebDriver URL it serves.
func startService(cfg Config) (*driverService, error) {
	port := cfg.Port
	if port == 0 {
		var err error
		if port, err = pickUnusedPort(); err != nil {
			return nil, fmt.Errorf("picking a driver port: %v", err)
		}
	}

	ds := new(driverService)
	var opts []selenium.ServiceOption
	var out io.Writer
	if cfg.Debug {
		out = os.Stderr
	}
	opts = append(opts, selenium.Output(out))

	switch {
	case cfg.FrameBuffer:
		fb, err := newFrameBuffer(cfg.ScreenSize)
		if err != nil {
			return nil, err
		}
		ds.fb = fb
		opts = append(opts, selenium.Display(fb.Display, fb.AuthPath))
	case cfg.Display != "":
		opts = append(opts, selenium.Display(cfg.Display, cfg.XAuthPath))
	}

	var err error
	switch cfg.Browser {
	case Chrome:
		// chromedriver is started with --url-base=wd/hub.
		ds.svc, err = selenium.NewChromeDriverService(cfg.DriverPath, port, opts...)
		ds.url = fmt.Sprintf("http://127.0.0.1:%d/wd/hub", port)
	case Firefox:
		ds.svc, err = selenium.NewGeckoDriverService(cfg.DriverPath, port, opts...)
		ds.url = fmt.Sprintf("http://127.0.0.1:%d", port)
	default:
		err = fmt.Errorf("unsupported browser %q", cfg.Browser)
	}
	if err != nil {
		if ds.fb != nil {
			ds.fb.Stop()
		}
		return nil, fmt.Errorf("starting %s driver %s: %v", cfg.Browser, cfg.DriverPath, err)
	}
	glog.Infof("%s driver %s listening on %s", cfg.Browser, cfg.DriverPath, ds.url)
	return ds, nil
}

// Stop terminates the driver and then the frame buffer.
func (ds *driverService) Stop() error {
	err := ds.svc.Stop()
	if ds.fb != nil {
		if fbErr := ds.fb.Stop(); fbErr != nil && err == nil {
			err = fbErr
		}
	}
	return err
}
