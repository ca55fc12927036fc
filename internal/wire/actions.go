package wire

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// DefaultMoveDuration is how long a pointer move takes.
const DefaultMoveDuration = 250 * time.Millisecond

// webElementKey identifies an element reference in W3C payloads.
const webElementKey = "element-6066-11e4-a52e-4f735466cecf"

// Pointer kinds.
const (
	PointerMouse = "mouse"
	PointerPen   = "pen"
	PointerTouch = "touch"
)

// Mouse buttons.
const (
	LeftButton   = 0
	MiddleButton = 1
	RightButton  = 2
)

// PointerInput is one pointer device and the actions queued for it.
type PointerInput struct {
	id      string
	kind    string
	actions []map[string]interface{}
}

// NewPointerInput returns an empty action sequence for the pointer id of the
// given kind.
func NewPointerInput(kind, id string) (*PointerInput, error) {
	switch kind {
	case PointerMouse, PointerPen, PointerTouch:
	default:
		return nil, fmt.Errorf("unknown pointer kind %q", kind)
	}
	return &PointerInput{id: id, kind: kind}, nil
}

func millis(d time.Duration) int64 { return int64(d / time.Millisecond) }

// MoveToElement moves the pointer to x, y relative to the centre of the
// element whose reference is elementID.
func (p *PointerInput) MoveToElement(elementID string, x, y int, d time.Duration) *PointerInput {
	p.actions = append(p.actions, map[string]interface{}{
		"type":     "pointerMove",
		"duration": millis(d),
		"x":        x,
		"y":        y,
		"origin":   map[string]string{webElementKey: elementID},
	})
	return p
}

// MoveBy moves the pointer relative to its current position.
func (p *PointerInput) MoveBy(x, y int, d time.Duration) *PointerInput {
	p.actions = append(p.actions, map[string]interface{}{
		"type":     "pointerMove",
		"duration": millis(d),
		"x":        x,
		"y":        y,
		"origin":   "pointer",
	})
	return p
}

// Down presses button.
func (p *PointerInput) Down(button int) *PointerInput {
	p.actions = append(p.actions, map[string]interface{}{"type": "pointerDown", "duration": 0, "button": button})
	return p
}

// Up releases button.
func (p *PointerInput) Up(button int) *PointerInput {
	p.actions = append(p.actions, map[string]interface{}{"type": "pointerUp", "duration": 0, "button": button})
	return p
}

// Pause waits for d.
func (p *PointerInput) Pause(d time.Duration) *PointerInput {
	p.actions = append(p.actions, map[string]interface{}{"type": "pause", "duration": millis(d)})
	return p
}

func (p *PointerInput) encode() map[string]interface{} {
	return map[string]interface{}{
		"type":       "pointer",
		"id":         p.id,
		"parameters": map[string]string{"pointerType": p.kind},
		"actions":    p.actions,
	}
}

// PerformActions runs the queued actions of every input, tick by tick.
func (c *Client) PerformActions(ctx context.Context, inputs ...*PointerInput) error {
	var encoded []map[string]interface{}
	for _, in := range inputs {
		if len(in.actions) > 0 {
			encoded = append(encoded, in.encode())
		}
	}
	if len(encoded) == 0 {
		return nil
	}
	_, err := c.Execute(ctx, "POST", "/actions", map[string]interface{}{"actions": encoded})
	return err
}

// ReleaseActions releases every key and button the session holds down.
func (c *Client) ReleaseActions(ctx context.Context) error {
	_, err := c.Execute(ctx, "DELETE", "/actions", nil)
	return err
}

// ElementID extracts the W3C reference of an element from its JSON form, as
// produced by the WebDriver client's elements.
func ElementID(elem interface{}) (string, error) {
	buf, err := json.Marshal(elem)
	if err != nil {
		return "", err
	}
	var ref map[string]string
	if err := json.Unmarshal(buf, &ref); err != nil {
		return "", fmt.Errorf("element %s is not a reference: %v", buf, err)
	}
	if id := ref[webElementKey]; id != "" {
		return id, nil
	}
	if id := ref["ELEMENT"]; id != "" {
		return id, nil
	}
	return "", fmt.Errorf("element %s has no id", buf)
}
