package page

import (
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"time"

	"github.com/golang/glog"
	"github.com/tebeka/selenium"
)

const (
	// DefaultTimeout bounds every element wait.
	DefaultTimeout = 10 * time.Second
	// DefaultPageLoadTimeout bounds WaitForPageLoad.
	DefaultPageLoadTimeout = 30 * time.Second
	// DefaultPollInterval is the delay between two checks of a condition.
	DefaultPollInterval = 500 * time.Millisecond
)

var (
	// ErrElementNotFound is returned when no element matched a locator in time.
	ErrElementNotFound = errors.New("element not found")
	// ErrTimeout is returned when a wait condition did not hold in time.
	ErrTimeout = errors.New("timed out")
	// ErrUnsupported is returned when the driver lacks a command.
	ErrUnsupported = errors.New("not supported by driver")
)

// ParentFrameSwitcher is implemented by drivers that can leave the current
// frame for its parent.
type ParentFrameSwitcher interface {
	SwitchParentFrame() error
}

// Hoverer is implemented by drivers that can rest the mouse on an element
// with W3C pointer actions. Drivers without it fall back to the legacy
// element moveto command.
type Hoverer interface {
	HoverElement(selenium.WebElement) error
}

// Option configures a Page.
type Option func(*Page)

// WithTimeout sets the default wait timeout.
func WithTimeout(d time.Duration) Option {
	return func(p *Page) { p.timeout = d }
}

// WithPageLoadTimeout sets the timeout used by WaitForPageLoad.
func WithPageLoadTimeout(d time.Duration) Option {
	return func(p *Page) { p.pageLoadTimeout = d }
}

// WithPollInterval sets the delay between condition checks.
func WithPollInterval(d time.Duration) Option {
	return func(p *Page) { p.interval = d }
}

// Page wraps a WebDriver with bounded waits and logging.
type Page struct {
	wd              selenium.WebDriver
	timeout         time.Duration
	pageLoadTimeout time.Duration
	interval        time.Duration
}

// New returns a Page driving wd.
func New(wd selenium.WebDriver, opts ...Option) *Page {
	p := &Page{
		wd:              wd,
		timeout:         DefaultTimeout,
		pageLoadTimeout: DefaultPageLoadTimeout,
		interval:        DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Within returns a copy of p whose waits use timeout d.
func (p *Page) Within(d time.Duration) *Page {
	c := *p
	c.timeout = d
	return &c
}

// Driver returns the underlying WebDriver.
func (p *Page) Driver() selenium.WebDriver {
	return p.wd
}

func (p *Page) waitFor(cond selenium.Condition, timeout time.Duration) error {
	var condErr error
	err := p.wd.WaitWithTimeoutAndInterval(func(wd selenium.WebDriver) (bool, error) {
		ok, err := cond(wd)
		if err != nil {
			condErr = err
		}
		return ok, err
	}, timeout, p.interval)
	switch {
	case err == nil:
		return nil
	case condErr != nil:
		return condErr
	}
	return fmt.Errorf("%w after %v", ErrTimeout, timeout)
}

// FindElement waits for an element matching loc to be present in the DOM.
func (p *Page) FindElement(loc Locator) (selenium.WebElement, error) {
	var elem selenium.WebElement
	if err := p.waitFor(presenceOf(loc, &elem), p.timeout); err != nil {
		glog.Errorf("Element not found: %s", loc)
		if errors.Is(err, ErrTimeout) {
			return nil, fmt.Errorf("%w: %s", ErrElementNotFound, loc)
		}
		return nil, fmt.Errorf("finding %s: %w", loc, err)
	}
	return elem, nil
}

// FindElements waits for at least one element matching loc. It returns an
// empty result when none shows up in time.
func (p *Page) FindElements(loc Locator) []selenium.WebElement {
	var elems []selenium.WebElement
	if err := p.waitFor(presenceOfAll(loc, &elems), p.timeout); err != nil {
		glog.Errorf("Elements not found: %s: %v", loc, err)
		return nil
	}
	return elems
}

// Click waits for the element to be clickable and clicks it.
func (p *Page) Click(loc Locator) error {
	elem, err := p.WaitClickable(loc)
	if err != nil {
		return err
	}
	if err := elem.Click(); err != nil {
		return fmt.Errorf("clicking %s: %w", loc, err)
	}
	glog.Infof("Clicked element: %s", loc)
	return nil
}

// InputText clears the element and types text into it.
func (p *Page) InputText(loc Locator, text string) error {
	elem, err := p.FindElement(loc)
	if err != nil {
		return err
	}
	if err := elem.Clear(); err != nil {
		return fmt.Errorf("clearing %s: %w", loc, err)
	}
	if err := elem.SendKeys(text); err != nil {
		return fmt.Errorf("typing into %s: %w", loc, err)
	}
	glog.Infof("Input text 「%s」 to element: %s", text, loc)
	return nil
}

// Text returns the visible text of the element.
func (p *Page) Text(loc Locator) (string, error) {
	elem, err := p.FindElement(loc)
	if err != nil {
		return "", err
	}
	text, err := elem.Text()
	if err != nil {
		return "", fmt.Errorf("reading text of %s: %w", loc, err)
	}
	glog.Infof("Got text 「%s」 from element: %s", text, loc)
	return text, nil
}

// Attribute returns the named attribute (or property) of the element.
func (p *Page) Attribute(loc Locator, name string) (string, error) {
	elem, err := p.FindElement(loc)
	if err != nil {
		return "", err
	}
	value, err := elem.GetAttribute(name)
	if err != nil {
		return "", fmt.Errorf("reading attribute %q of %s: %w", name, loc, err)
	}
	glog.Infof("Got attribute 「%s」 value 「%s」 from element: %s", name, value, loc)
	return value, nil
}

// IsVisible reports whether the element becomes displayed within the timeout.
func (p *Page) IsVisible(loc Locator) bool {
	_, err := p.WaitVisible(loc)
	return err == nil
}

// IsPresent reports whether the element is in the DOM right now. Only the
// driver's implicit wait applies.
func (p *Page) IsPresent(loc Locator) bool {
	_, err := p.wd.FindElement(loc.By, loc.Value)
	if err != nil && !isCode(err, noSuchElement) {
		glog.Errorf("Looking up %s: %v", loc, err)
	}
	return err == nil
}

// WaitVisible waits for the element to be displayed.
func (p *Page) WaitVisible(loc Locator) (selenium.WebElement, error) {
	var elem selenium.WebElement
	if err := p.waitFor(visibilityOf(loc, &elem), p.timeout); err != nil {
		return nil, fmt.Errorf("waiting for %s to be visible: %w", loc, err)
	}
	return elem, nil
}

// WaitInvisible waits for the element to be hidden or removed.
func (p *Page) WaitInvisible(loc Locator) error {
	if err := p.waitFor(invisibilityOf(loc), p.timeout); err != nil {
		return fmt.Errorf("waiting for %s to disappear: %w", loc, err)
	}
	return nil
}

// WaitClickable waits for the element to be displayed and enabled.
func (p *Page) WaitClickable(loc Locator) (selenium.WebElement, error) {
	var elem selenium.WebElement
	if err := p.waitFor(clickableOf(loc, &elem), p.timeout); err != nil {
		return nil, fmt.Errorf("waiting for %s to be clickable: %w", loc, err)
	}
	return elem, nil
}

// ScrollTo scrolls the element into view.
func (p *Page) ScrollTo(loc Locator) error {
	elem, err := p.FindElement(loc)
	if err != nil {
		return err
	}
	if _, err := p.wd.ExecuteScript("arguments[0].scrollIntoView(true);", []interface{}{elem}); err != nil {
		return fmt.Errorf("scrolling to %s: %w", loc, err)
	}
	glog.Infof("Scrolled to element: %s", loc)
	return nil
}

// Hover moves the mouse over the element.
func (p *Page) Hover(loc Locator) error {
	if err := p.moveTo(loc); err != nil {
		return err
	}
	glog.Infof("Hovered over element: %s", loc)
	return nil
}

// MoveTo moves the mouse to the centre of the element.
func (p *Page) MoveTo(loc Locator) error {
	if err := p.moveTo(loc); err != nil {
		return err
	}
	glog.Infof("Moved mouse to element: %s", loc)
	return nil
}

func (p *Page) moveTo(loc Locator) error {
	elem, err := p.FindElement(loc)
	if err != nil {
		return err
	}
	if h, ok := p.wd.(Hoverer); ok {
		err = h.HoverElement(elem)
	} else {
		err = elem.MoveTo(0, 0)
	}
	if err != nil {
		return fmt.Errorf("moving to %s: %w", loc, err)
	}
	return nil
}

func (p *Page) selectElement(loc Locator) (*Select, error) {
	elem, err := p.FindElement(loc)
	if err != nil {
		return nil, err
	}
	return NewSelect(elem)
}

// SelectByText picks the dropdown option whose visible text is text.
func (p *Page) SelectByText(loc Locator, text string) error {
	s, err := p.selectElement(loc)
	if err != nil {
		return err
	}
	if err := s.SelectByVisibleText(text); err != nil {
		return err
	}
	glog.Infof("Selected dropdown option 「%s」 for element: %s", text, loc)
	return nil
}

// SelectByValue picks the dropdown option whose value attribute is value.
func (p *Page) SelectByValue(loc Locator, value string) error {
	s, err := p.selectElement(loc)
	if err != nil {
		return err
	}
	if err := s.SelectByValue(value); err != nil {
		return err
	}
	glog.Infof("Selected dropdown value 「%s」 for element: %s", value, loc)
	return nil
}

// SelectByIndex picks the dropdown option with the given index property.
func (p *Page) SelectByIndex(loc Locator, index int) error {
	s, err := p.selectElement(loc)
	if err != nil {
		return err
	}
	if err := s.SelectByIndex(index); err != nil {
		return err
	}
	glog.Infof("Selected dropdown index 「%d」 for element: %s", index, loc)
	return nil
}

// SelectedOption returns the text of the first selected dropdown option.
func (p *Page) SelectedOption(loc Locator) (string, error) {
	s, err := p.selectElement(loc)
	if err != nil {
		return "", err
	}
	opt, err := s.FirstSelectedOption()
	if err != nil {
		return "", err
	}
	text, err := opt.Text()
	if err != nil {
		return "", fmt.Errorf("reading the selected option of %s: %w", loc, err)
	}
	glog.Infof("Selected option 「%s」 of element: %s", text, loc)
	return text, nil
}

// Navigate loads url and waits for the document to finish loading.
func (p *Page) Navigate(url string) error {
	if err := p.wd.Get(url); err != nil {
		return fmt.Errorf("navigating to %s: %w", url, err)
	}
	if err := p.WaitForPageLoad(); err != nil {
		return err
	}
	glog.Infof("Navigated to: 「%s」", url)
	return nil
}

// WaitForPageLoad waits for document.readyState to become "complete".
func (p *Page) WaitForPageLoad() error {
	if err := p.waitFor(documentReady, p.pageLoadTimeout); err != nil {
		return fmt.Errorf("waiting for page load: %w", err)
	}
	glog.Info("Page loaded completely")
	return nil
}

// WaitForURL reports whether the current URL comes to contain fragment
// within the timeout.
func (p *Page) WaitForURL(fragment string) bool {
	return p.waitFor(urlContains(fragment), p.timeout) == nil
}

// CurrentURL returns the URL of the current page.
func (p *Page) CurrentURL() (string, error) {
	url, err := p.wd.CurrentURL()
	if err != nil {
		return "", err
	}
	glog.Infof("Current URL: 「%s」", url)
	return url, nil
}

// Title returns the title of the current page.
func (p *Page) Title() (string, error) {
	title, err := p.wd.Title()
	if err != nil {
		return "", err
	}
	glog.Infof("Page title: 「%s」", title)
	return title, nil
}

// Refresh reloads the current page.
func (p *Page) Refresh() error {
	if err := p.wd.Refresh(); err != nil {
		return err
	}
	glog.Info("Page refreshed")
	return nil
}

// Back moves backward in history.
func (p *Page) Back() error {
	if err := p.wd.Back(); err != nil {
		return err
	}
	glog.Info("Navigated back")
	return nil
}

// Forward moves forward in history.
func (p *Page) Forward() error {
	if err := p.wd.Forward(); err != nil {
		return err
	}
	glog.Info("Navigated forward")
	return nil
}

// Screenshot saves a PNG of the browser window to path.
func (p *Page) Screenshot(path string) error {
	img, err := p.wd.Screenshot()
	if err != nil {
		return fmt.Errorf("taking screenshot: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	if err := ioutil.WriteFile(path, img, 0644); err != nil {
		return err
	}
	glog.Infof("Screenshot saved: 「%s」", path)
	return nil
}

// ExecuteScript runs script in the page with args bound to arguments[i].
func (p *Page) ExecuteScript(script string, args ...interface{}) (interface{}, error) {
	result, err := p.wd.ExecuteScript(script, args)
	if err != nil {
		return nil, fmt.Errorf("executing script: %w", err)
	}
	glog.Infof("Executed script: 「%s」", script)
	return result, nil
}

// SwitchToFrame waits for the frame located by loc and switches into it.
func (p *Page) SwitchToFrame(loc Locator) bool {
	if err := p.waitFor(frameAvailable(loc), p.timeout); err != nil {
		glog.Errorf("Failed to switch to frame: %s: %v", loc, err)
		return false
	}
	glog.Infof("Switched to frame: %s", loc)
	return true
}

// SwitchToDefaultContent returns to the top-level browsing context.
func (p *Page) SwitchToDefaultContent() bool {
	if err := p.wd.SwitchFrame(nil); err != nil {
		glog.Errorf("Failed to switch to default content: %v", err)
		return false
	}
	glog.Info("Switched back to default content")
	return true
}

// SwitchToParentFrame moves to the parent of the current frame. The driver
// must implement ParentFrameSwitcher.
func (p *Page) SwitchToParentFrame() bool {
	pf, ok := p.wd.(ParentFrameSwitcher)
	if !ok {
		glog.Errorf("Failed to switch to parent frame: %v", ErrUnsupported)
		return false
	}
	if err := pf.SwitchParentFrame(); err != nil {
		glog.Errorf("Failed to switch to parent frame: %v", err)
		return false
	}
	glog.Info("Switched to parent frame")
	return true
}
