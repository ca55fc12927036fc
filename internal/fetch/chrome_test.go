package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"cloud.google.com/go/storage"
	"github.com/google/go-cmp/cmp"
)

func TestLatestChromeVersion(t *testing.T) {
	reply := "120.0.6099.109\n"
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, reply)
	}))
	defer s.Close()
	old := LatestStableURL
	LatestStableURL = s.URL
	defer func() { LatestStableURL = old }()

	got, err := LatestChromeVersion(context.Background())
	if err != nil {
		t.Fatalf("LatestChromeVersion() returned error: %v", err)
	}
	if want := "120.0.6099.109"; got != want {
		t.Errorf("LatestChromeVersion() = %q, want %q", got, want)
	}

	reply = "<html>rate limited</html>"
	if _, err := LatestChromeVersion(context.Background()); err == nil {
		t.Error("LatestChromeVersion() accepted a non-version reply")
	}
}

func TestChromeObjects(t *testing.T) {
	driver, browser, err := chromeObjects("120.0.6099.109", "linux64")
	if err != nil {
		t.Fatalf("chromeObjects() returned error: %v", err)
	}
	if want := "120.0.6099.109/linux64/chromedriver-linux64.zip"; driver != want {
		t.Errorf("driver object = %q, want %q", driver, want)
	}
	if want := "120.0.6099.109/linux64/chrome-linux64.zip"; browser != want {
		t.Errorf("browser object = %q, want %q", browser, want)
	}

	if _, _, err := chromeObjects("120.0.6099.109", "amiga"); err == nil {
		t.Error("chromeObjects() accepted an unknown platform")
	}
	if _, _, err := chromeObjects("120", "linux64"); err == nil {
		t.Error("chromeObjects() accepted a partial version")
	}
}

func TestFileFromAttrs(t *testing.T) {
	attrs := &storage.ObjectAttrs{
		MediaLink: "https://storage.googleapis.com/download/storage/v1/b/chrome-for-testing-public/o/x?alt=media",
		MD5:       []byte{0xde, 0xad, 0xbe, 0xef},
	}
	got := fileFromAttrs(attrs, "chromedriver.zip", []string{"chromedriver-linux64/chromedriver", "chromedriver"}, false)
	want := File{
		URL:      attrs.MediaLink,
		Name:     "chromedriver.zip",
		Hash:     "deadbeef",
		HashType: "md5",
		Rename:   []string{"chromedriver-linux64/chromedriver", "chromedriver"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("fileFromAttrs() returned diff (-want/+got):\n%s", diff)
	}
}

func TestDriverBinary(t *testing.T) {
	if got := driverBinary("chromedriver", "win64"); got != "chromedriver.exe" {
		t.Errorf("driverBinary(win64) = %q, want chromedriver.exe", got)
	}
	if got := driverBinary("chromedriver", "linux64"); got != "chromedriver" {
		t.Errorf("driverBinary(linux64) = %q, want chromedriver", got)
	}
}
