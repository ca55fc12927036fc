package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/go-github/v27/github"
)

func fakeGitHub(t *testing.T, tag string) *github.Client {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/mozilla/geckodriver/releases/latest", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{
			"tag_name": %q,
			"assets": [
				{"name": "geckodriver-%[1]s-linux64.tar.gz.asc", "browser_download_url": "https://example.com/linux64.tar.gz.asc"},
				{"name": "geckodriver-%[1]s-linux64.tar.gz", "browser_download_url": "https://example.com/linux64.tar.gz"},
				{"name": "geckodriver-%[1]s-macos-aarch64.tar.gz", "browser_download_url": "https://example.com/macos-aarch64.tar.gz"},
				{"name": "geckodriver-%[1]s-win64.zip", "browser_download_url": "https://example.com/win64.zip"}
			]
		}`, tag)
	})
	s := httptest.NewServer(mux)
	t.Cleanup(s.Close)

	client := github.NewClient(nil)
	u, err := url.Parse(s.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	client.BaseURL = u
	return client
}

func TestGeckoDriverFile(t *testing.T) {
	client := fakeGitHub(t, "v0.34.0")

	tests := []struct {
		platform string
		want     File
	}{
		{"linux64", File{URL: "https://example.com/linux64.tar.gz", Name: "geckodriver.tar.gz"}},
		{"mac-arm64", File{URL: "https://example.com/macos-aarch64.tar.gz", Name: "geckodriver.tar.gz"}},
		{"win64", File{URL: "https://example.com/win64.zip", Name: "geckodriver.zip"}},
	}
	for _, tc := range tests {
		got, v, err := GeckoDriverFile(context.Background(), client, tc.platform)
		if err != nil {
			t.Errorf("GeckoDriverFile(%s) returned error: %v", tc.platform, err)
			continue
		}
		if got.URL != tc.want.URL || got.Name != tc.want.Name {
			t.Errorf("GeckoDriverFile(%s) = %+v, want %+v", tc.platform, got, tc.want)
		}
		if v.String() != "0.34.0" {
			t.Errorf("GeckoDriverFile(%s) version = %v, want 0.34.0", tc.platform, v)
		}
	}

	if _, _, err := GeckoDriverFile(context.Background(), client, "mac-x64"); err == nil {
		t.Error("GeckoDriverFile(mac-x64) returned no error for a missing asset")
	}
	if _, _, err := GeckoDriverFile(context.Background(), client, "amiga"); err == nil {
		t.Error("GeckoDriverFile(amiga) returned no error")
	}
}

func TestGeckoDriverFileTooOld(t *testing.T) {
	client := fakeGitHub(t, "v0.24.0")
	if _, _, err := GeckoDriverFile(context.Background(), client, "linux64"); err == nil {
		t.Error("GeckoDriverFile() accepted geckodriver 0.24.0")
	}
}
