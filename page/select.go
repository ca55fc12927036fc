package page

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tebeka/selenium"
)

// Select drives a <select> element.
type Select struct {
	element  selenium.WebElement
	multiple bool
}

// NewSelect wraps el, which must be a <select>.
func NewSelect(el selenium.WebElement) (*Select, error) {
	tagName, err := el.TagName()
	if err != nil {
		return nil, err
	}
	if strings.ToLower(tagName) != "select" {
		return nil, fmt.Errorf(`element should have been "select" but was %q`, tagName)
	}

	// Absent attributes come back as an error from the driver.
	mult, err := el.GetAttribute("multiple")
	multiple := err == nil && mult != "" && strings.ToLower(mult) != "false"
	return &Select{element: el, multiple: multiple}, nil
}

// Element returns the raw <select> element.
func (s *Select) Element() selenium.WebElement {
	return s.element
}

// IsMultiple reports whether several options can be selected at once.
func (s *Select) IsMultiple() bool {
	return s.multiple
}

// Options returns every <option> of the select.
func (s *Select) Options() ([]selenium.WebElement, error) {
	return s.element.FindElements(selenium.ByTagName, "option")
}

// SelectedOptions returns the options that are currently selected.
func (s *Select) SelectedOptions() ([]selenium.WebElement, error) {
	opts, err := s.Options()
	if err != nil {
		return nil, err
	}
	var selected []selenium.WebElement
	for _, o := range opts {
		ok, err := o.IsSelected()
		if err != nil {
			return nil, err
		}
		if ok {
			selected = append(selected, o)
		}
	}
	return selected, nil
}

// FirstSelectedOption returns the first selected option.
func (s *Select) FirstSelectedOption() (selenium.WebElement, error) {
	opts, err := s.SelectedOptions()
	if err != nil {
		return nil, err
	}
	if len(opts) == 0 {
		return nil, fmt.Errorf("%w: no option is selected", ErrElementNotFound)
	}
	return opts[0], nil
}

// SelectByVisibleText selects all options that display text matching the
// argument. That is, when given "Bar" this would select an option like:
//
//	<option value="foo">Bar</option>
func (s *Select) SelectByVisibleText(text string) error {
	options, err := s.element.FindElements(selenium.ByXPATH, ".//option[normalize-space(.) = "+xpathLiteral(text)+"]")
	if err != nil {
		return err
	}

	for _, option := range options {
		if err := s.setSelected(option, true); err != nil {
			return err
		}
		if !s.multiple {
			return nil
		}
	}

	matched := len(options) > 0
	if !matched && strings.Contains(text, " ") {
		var candidates []selenium.WebElement
		if sub := longestToken(text); sub == "" {
			// The text is empty or only spaces.
			candidates, err = s.Options()
		} else {
			candidates, err = s.element.FindElements(selenium.ByXPATH, ".//option[contains(., "+xpathLiteral(sub)+")]")
		}
		if err != nil {
			return err
		}

		trimmed := strings.TrimSpace(text)
		for _, option := range candidates {
			o, err := option.Text()
			if err != nil {
				return err
			}
			if trimmed != strings.TrimSpace(o) {
				continue
			}
			if err := s.setSelected(option, true); err != nil {
				return err
			}
			if !s.multiple {
				return nil
			}
			matched = true
		}
	}
	if !matched {
		return fmt.Errorf("%w: cannot locate option with text: %s", ErrElementNotFound, text)
	}
	return nil
}

// SelectByValue selects all options whose value attribute matches value.
func (s *Select) SelectByValue(value string) error {
	opts, err := s.findOptionsByValue(value)
	if err != nil {
		return err
	}
	for _, option := range opts {
		if err := s.setSelected(option, true); err != nil {
			return err
		}
		if !s.multiple {
			return nil
		}
	}
	return nil
}

// SelectByIndex selects the option whose index property is idx. This looks
// at the property, not at the position among the children.
func (s *Select) SelectByIndex(idx int) error {
	return s.setSelectedByIndex(idx, true)
}

// DeselectAll clears every selected entry of a multi-select.
func (s *Select) DeselectAll() error {
	if !s.multiple {
		return fmt.Errorf("you may only deselect all options of a multi-select")
	}
	opts, err := s.Options()
	if err != nil {
		return err
	}
	for _, o := range opts {
		if err := s.setSelected(o, false); err != nil {
			return err
		}
	}
	return nil
}

// DeselectByValue deselects all options whose value attribute matches value.
func (s *Select) DeselectByValue(value string) error {
	if !s.multiple {
		return fmt.Errorf("you may only deselect options of a multi-select")
	}
	opts, err := s.findOptionsByValue(value)
	if err != nil {
		return err
	}
	for _, o := range opts {
		if err := s.setSelected(o, false); err != nil {
			return err
		}
	}
	return nil
}

// xpathLiteral quotes str for use inside an XPath expression. XPath 1.0 has
// no escape sequences, so strings holding both quote kinds become concat().
func xpathLiteral(str string) string {
	if !strings.Contains(str, `"`) {
		return `"` + str + `"`
	}
	if !strings.Contains(str, "'") {
		return "'" + str + "'"
	}
	parts := strings.Split(str, `"`)
	quoted := make([]string, 0, 2*len(parts))
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `'"'`)
		}
		if p != "" {
			quoted = append(quoted, `"`+p+`"`)
		}
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}

func longestToken(s string) string {
	result := ""
	for _, t := range strings.Split(s, " ") {
		if len(t) > len(result) {
			result = t
		}
	}
	return result
}

func (s *Select) findOptionsByValue(value string) ([]selenium.WebElement, error) {
	opts, err := s.element.FindElements(selenium.ByXPATH, ".//option[@value = "+xpathLiteral(value)+"]")
	if err != nil {
		return nil, err
	}
	if len(opts) == 0 {
		return nil, fmt.Errorf("%w: cannot locate option with value: %s", ErrElementNotFound, value)
	}
	return opts, nil
}

func (s *Select) setSelectedByIndex(index int, selected bool) error {
	opts, err := s.Options()
	if err != nil {
		return err
	}
	want := strconv.Itoa(index)
	for _, o := range opts {
		idx, err := o.GetAttribute("index")
		if err != nil {
			return err
		}
		if idx == want {
			return s.setSelected(o, selected)
		}
	}
	return fmt.Errorf("%w: cannot locate option with index: %d", ErrElementNotFound, index)
}

func (s *Select) setSelected(option selenium.WebElement, selected bool) error {
	sel, err := option.IsSelected()
	if err != nil {
		return err
	}
	if sel != selected {
		return option.Click()
	}
	return nil
}
