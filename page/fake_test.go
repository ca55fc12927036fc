package page

import (
	"fmt"
	"time"

	"github.com/tebeka/selenium"
)

// fakeDriver is an in-memory WebDriver. Methods the tests never reach are
// left to the embedded nil interface.
type fakeDriver struct {
	selenium.WebDriver

	elements map[Locator][]*fakeElement
	// hidden counts the lookups of a locator that still fail before it
	// becomes present.
	hidden map[Locator]int
	// findErr is returned by every lookup when set.
	findErr error

	url, title string
	readyState string
	history    []string
	scripts    []string
	scriptArgs [][]interface{}
	screenshot []byte

	frame       interface{}
	frameErr    error
	parentCalls int
	parentErr   error
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		elements:   make(map[Locator][]*fakeElement),
		hidden:     make(map[Locator]int),
		readyState: "complete",
	}
}

func (d *fakeDriver) add(loc Locator, elems ...*fakeElement) {
	d.elements[loc] = append(d.elements[loc], elems...)
}

func noSuchElementError(by, value string) error {
	return &selenium.Error{
		Err:      "no such element",
		Message:  fmt.Sprintf("no element for %s=%s", by, value),
		HTTPCode: 404,
	}
}

func (d *fakeDriver) lookup(by, value string) []*fakeElement {
	loc := Locator{by, value}
	if d.hidden[loc] > 0 {
		d.hidden[loc]--
		return nil
	}
	return d.elements[loc]
}

func (d *fakeDriver) FindElement(by, value string) (selenium.WebElement, error) {
	if d.findErr != nil {
		return nil, d.findErr
	}
	elems := d.lookup(by, value)
	if len(elems) == 0 {
		return nil, noSuchElementError(by, value)
	}
	return elems[0], nil
}

func (d *fakeDriver) FindElements(by, value string) ([]selenium.WebElement, error) {
	if d.findErr != nil {
		return nil, d.findErr
	}
	var out []selenium.WebElement
	for _, e := range d.lookup(by, value) {
		out = append(out, e)
	}
	return out, nil
}

// WaitWithTimeoutAndInterval polls like the selenium client does.
func (d *fakeDriver) WaitWithTimeoutAndInterval(condition selenium.Condition, timeout, interval time.Duration) error {
	startTime := time.Now()
	for {
		done, err := condition(d)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		if elapsed := time.Since(startTime); elapsed > timeout {
			return fmt.Errorf("timeout after %v", elapsed)
		}
		time.Sleep(interval)
	}
}

func (d *fakeDriver) Get(url string) error {
	d.url = url
	d.history = append(d.history, "get "+url)
	return nil
}

func (d *fakeDriver) CurrentURL() (string, error) { return d.url, nil }
func (d *fakeDriver) Title() (string, error)      { return d.title, nil }

func (d *fakeDriver) Refresh() error {
	d.history = append(d.history, "refresh")
	return nil
}

func (d *fakeDriver) Back() error {
	d.history = append(d.history, "back")
	return nil
}

func (d *fakeDriver) Forward() error {
	d.history = append(d.history, "forward")
	return nil
}

func (d *fakeDriver) Screenshot() ([]byte, error) { return d.screenshot, nil }

func (d *fakeDriver) ExecuteScript(script string, args []interface{}) (interface{}, error) {
	d.scripts = append(d.scripts, script)
	d.scriptArgs = append(d.scriptArgs, args)
	if script == "return document.readyState" {
		return d.readyState, nil
	}
	return nil, nil
}

func (d *fakeDriver) SwitchFrame(frame interface{}) error {
	if frame != nil && d.frameErr != nil {
		return d.frameErr
	}
	d.frame = frame
	return nil
}

// parentFrameDriver adds the parent frame command to fakeDriver.
type parentFrameDriver struct {
	*fakeDriver
}

func (d parentFrameDriver) SwitchParentFrame() error {
	d.parentCalls++
	return d.parentErr
}

// hoverDriver adds W3C pointer hovering to fakeDriver.
type hoverDriver struct {
	*fakeDriver
	hovered []selenium.WebElement
	err     error
}

func (d *hoverDriver) HoverElement(elem selenium.WebElement) error {
	d.hovered = append(d.hovered, elem)
	return d.err
}

type fakeElement struct {
	selenium.WebElement

	tag       string
	text      string
	attrs     map[string]string
	displayed bool
	disabled  bool
	selected  bool
	textErr   error

	// children maps a child locator to its matches.
	children map[Locator][]*fakeElement
	// shownAfter counts IsDisplayed calls answered with false first.
	shownAfter int

	clicks  int
	cleared bool
	keys    string
	movedTo bool
	onClick func(*fakeElement)
}

func (e *fakeElement) Click() error {
	e.clicks++
	if e.onClick != nil {
		e.onClick(e)
	}
	return nil
}

func (e *fakeElement) Clear() error {
	e.cleared = true
	e.keys = ""
	return nil
}

func (e *fakeElement) SendKeys(keys string) error {
	e.keys += keys
	return nil
}

func (e *fakeElement) MoveTo(x, y int) error {
	e.movedTo = true
	return nil
}

func (e *fakeElement) TagName() (string, error) { return e.tag, nil }
func (e *fakeElement) Text() (string, error)    { return e.text, e.textErr }

func (e *fakeElement) GetAttribute(name string) (string, error) {
	v, ok := e.attrs[name]
	if !ok {
		return "", fmt.Errorf("nil return value")
	}
	return v, nil
}

func (e *fakeElement) IsDisplayed() (bool, error) {
	if e.shownAfter > 0 {
		e.shownAfter--
		return false, nil
	}
	return e.displayed, nil
}

func (e *fakeElement) IsEnabled() (bool, error)  { return !e.disabled, nil }
func (e *fakeElement) IsSelected() (bool, error) { return e.selected, nil }

func (e *fakeElement) FindElements(by, value string) ([]selenium.WebElement, error) {
	var out []selenium.WebElement
	for _, c := range e.children[Locator{by, value}] {
		out = append(out, c)
	}
	return out, nil
}
