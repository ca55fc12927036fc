package page

import (
	"fmt"

	"github.com/tebeka/selenium"
)

// Locator identifies DOM elements by a WebDriver strategy and a selector.
type Locator struct {
	By    string
	Value string
}

func (l Locator) String() string {
	return fmt.Sprintf("「%s=%s」", l.By, l.Value)
}

// ID locates by element id.
func ID(id string) Locator { return Locator{selenium.ByID, id} }

// XPath locates by an XPath expression.
func XPath(expr string) Locator { return Locator{selenium.ByXPATH, expr} }

// CSS locates by a CSS selector.
func CSS(selector string) Locator { return Locator{selenium.ByCSSSelector, selector} }

// Name locates by the name attribute.
func Name(name string) Locator { return Locator{selenium.ByName, name} }

// ClassName locates by a single class name.
func ClassName(class string) Locator { return Locator{selenium.ByClassName, class} }

// TagName locates by tag name.
func TagName(tag string) Locator { return Locator{selenium.ByTagName, tag} }

// LinkText locates anchors by their exact visible text.
func LinkText(text string) Locator { return Locator{selenium.ByLinkText, text} }

// PartialLinkText locates anchors whose visible text contains text.
func PartialLinkText(text string) Locator { return Locator{selenium.ByPartialLinkText, text} }
