package page

import (
	"errors"
	"strings"

	"github.com/tebeka/selenium"
)

// W3C error codes the conditions treat as "not yet".
const (
	noSuchElement = "no such element"
	noSuchFrame   = "no such frame"
	staleElement  = "stale element reference"
)

// isCode reports whether err is a driver error with the given W3C code.
// Servers speaking the legacy protocol only give us the message.
func isCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var e *selenium.Error
	if errors.As(err, &e) {
		return e.Err == code
	}
	return strings.Contains(err.Error(), code)
}

func presenceOf(loc Locator, found *selenium.WebElement) selenium.Condition {
	return func(wd selenium.WebDriver) (bool, error) {
		elem, err := wd.FindElement(loc.By, loc.Value)
		if isCode(err, noSuchElement) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		*found = elem
		return true, nil
	}
}

func presenceOfAll(loc Locator, found *[]selenium.WebElement) selenium.Condition {
	return func(wd selenium.WebDriver) (bool, error) {
		elems, err := wd.FindElements(loc.By, loc.Value)
		if isCode(err, noSuchElement) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		if len(elems) == 0 {
			return false, nil
		}
		*found = elems
		return true, nil
	}
}

func visibilityOf(loc Locator, found *selenium.WebElement) selenium.Condition {
	return func(wd selenium.WebDriver) (bool, error) {
		elem, err := wd.FindElement(loc.By, loc.Value)
		if isCode(err, noSuchElement) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		shown, err := elem.IsDisplayed()
		if isCode(err, staleElement) {
			return false, nil
		}
		if err != nil || !shown {
			return false, err
		}
		*found = elem
		return true, nil
	}
}

// invisibilityOf is satisfied once the element is hidden, stale or gone.
func invisibilityOf(loc Locator) selenium.Condition {
	return func(wd selenium.WebDriver) (bool, error) {
		elem, err := wd.FindElement(loc.By, loc.Value)
		if isCode(err, noSuchElement) {
			return true, nil
		}
		if err != nil {
			return false, err
		}
		shown, err := elem.IsDisplayed()
		if isCode(err, staleElement) {
			return true, nil
		}
		return !shown, err
	}
}

// clickableOf is satisfied by a displayed, enabled element.
func clickableOf(loc Locator, found *selenium.WebElement) selenium.Condition {
	visible := visibilityOf(loc, found)
	return func(wd selenium.WebDriver) (bool, error) {
		ok, err := visible(wd)
		if err != nil || !ok {
			return false, err
		}
		enabled, err := (*found).IsEnabled()
		if isCode(err, staleElement) {
			return false, nil
		}
		return enabled, err
	}
}

func urlContains(fragment string) selenium.Condition {
	return func(wd selenium.WebDriver) (bool, error) {
		url, err := wd.CurrentURL()
		if err != nil {
			return false, err
		}
		return strings.Contains(url, fragment), nil
	}
}

func documentReady(wd selenium.WebDriver) (bool, error) {
	state, err := wd.ExecuteScript("return document.readyState", nil)
	if err != nil {
		return false, err
	}
	return state == "complete", nil
}

// frameAvailable switches into the frame as soon as it can be located.
func frameAvailable(loc Locator) selenium.Condition {
	return func(wd selenium.WebDriver) (bool, error) {
		frame, err := wd.FindElement(loc.By, loc.Value)
		if isCode(err, noSuchElement) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		err = wd.SwitchFrame(frame)
		if isCode(err, noSuchFrame) || isCode(err, staleElement) {
			return false, nil
		}
		return err == nil, err
	}
}
