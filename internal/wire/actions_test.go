package wire

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

type fakeElement struct{ id string }

func (e fakeElement) MarshalJSON() ([]byte, error) {
	return []byte(`{"ELEMENT": "` + e.id + `", "` + webElementKey + `": "` + e.id + `"}`), nil
}

func TestPerformActions(t *testing.T) {
	s, reqs := newServer(t, http.StatusOK, `{"value": null}`)
	c := New(s.URL, "abc")

	mouse, err := NewPointerInput(PointerMouse, "mouse")
	if err != nil {
		t.Fatalf("NewPointerInput() returned error: %v", err)
	}
	mouse.MoveToElement("e1", 0, 0, DefaultMoveDuration).
		Pause(100 * time.Millisecond).
		Down(LeftButton).
		Up(LeftButton).
		MoveBy(5, -5, 0)
	if err := c.PerformActions(context.Background(), mouse); err != nil {
		t.Fatalf("PerformActions() returned error: %v", err)
	}
	if err := c.ReleaseActions(context.Background()); err != nil {
		t.Fatalf("ReleaseActions() returned error: %v", err)
	}

	want := []recorded{
		{
			Method: "POST",
			Path:   "/session/abc/actions",
			Accept: JSONType,
			Body: map[string]interface{}{
				"actions": []interface{}{
					map[string]interface{}{
						"type":       "pointer",
						"id":         "mouse",
						"parameters": map[string]interface{}{"pointerType": "mouse"},
						"actions": []interface{}{
							map[string]interface{}{
								"type":     "pointerMove",
								"duration": 250.0,
								"x":        0.0,
								"y":        0.0,
								"origin":   map[string]interface{}{webElementKey: "e1"},
							},
							map[string]interface{}{"type": "pause", "duration": 100.0},
							map[string]interface{}{"type": "pointerDown", "duration": 0.0, "button": 0.0},
							map[string]interface{}{"type": "pointerUp", "duration": 0.0, "button": 0.0},
							map[string]interface{}{
								"type":     "pointerMove",
								"duration": 0.0,
								"x":        5.0,
								"y":        -5.0,
								"origin":   "pointer",
							},
						},
					},
				},
			},
		},
		{Method: "DELETE", Path: "/session/abc/actions", Accept: JSONType},
	}
	if diff := cmp.Diff(want, *reqs); diff != "" {
		t.Errorf("requests differ (-want +got):\n%s", diff)
	}
}

func TestPerformActionsEmpty(t *testing.T) {
	s, reqs := newServer(t, http.StatusOK, `{"value": null}`)
	c := New(s.URL, "abc")

	mouse, _ := NewPointerInput(PointerMouse, "mouse")
	if err := c.PerformActions(context.Background(), mouse); err != nil {
		t.Fatalf("PerformActions() returned error: %v", err)
	}
	if len(*reqs) != 0 {
		t.Errorf("PerformActions() with no actions sent %d requests", len(*reqs))
	}
}

func TestNewPointerInputKind(t *testing.T) {
	if _, err := NewPointerInput("trackball", "t"); err == nil {
		t.Error("NewPointerInput(trackball) returned no error")
	}
}

func TestElementID(t *testing.T) {
	id, err := ElementID(fakeElement{"e-42"})
	if err != nil {
		t.Fatalf("ElementID() returned error: %v", err)
	}
	if id != "e-42" {
		t.Errorf("ElementID() = %q, want e-42", id)
	}

	legacy := map[string]string{"ELEMENT": "0.1-2"}
	if id, err := ElementID(legacy); err != nil || id != "0.1-2" {
		t.Errorf("ElementID(%v) = %q, %v; want 0.1-2", legacy, id, err)
	}

	for _, bad := range []interface{}{"e-1", map[string]string{"other": "x"}} {
		if id, err := ElementID(bad); err == nil {
			t.Errorf("ElementID(%v) = %q, want error", bad, id)
		}
	}
}
