package fetch

import (
	"context"
	"fmt"
	"regexp"

	"github.com/blang/semver"
	"github.com/google/go-github/v27/github"
)

// MinGeckoDriver is the oldest geckodriver that speaks the protocol the
// session package relies on.
var MinGeckoDriver = semver.MustParse("0.26.0")

// geckoAssets match the release asset for each platform.
var geckoAssets = map[string]*regexp.Regexp{
	"linux64":   regexp.MustCompile(`^geckodriver-v[\d.]+-linux64\.tar\.gz$`),
	"mac-x64":   regexp.MustCompile(`^geckodriver-v[\d.]+-macos\.tar\.gz$`),
	"mac-arm64": regexp.MustCompile(`^geckodriver-v[\d.]+-macos-aarch64\.tar\.gz$`),
	"win64":     regexp.MustCompile(`^geckodriver-v[\d.]+-win64\.zip$`),
}

// GeckoDriverFile finds the latest geckodriver release for platform on
// GitHub. A nil client uses an unauthenticated one.
func GeckoDriverFile(ctx context.Context, client *github.Client, platform string) (File, semver.Version, error) {
	assetRE, ok := geckoAssets[platform]
	if !ok {
		return File{}, semver.Version{}, fmt.Errorf("unsupported platform %q", platform)
	}
	if client == nil {
		client = github.NewClient(nil)
	}

	rel, _, err := client.Repositories.GetLatestRelease(ctx, "mozilla", "geckodriver")
	if err != nil {
		return File{}, semver.Version{}, err
	}
	v, err := semver.ParseTolerant(rel.GetTagName())
	if err != nil {
		return File{}, semver.Version{}, fmt.Errorf("geckodriver release tag %q: %v", rel.GetTagName(), err)
	}
	if v.LT(MinGeckoDriver) {
		return File{}, v, fmt.Errorf("latest geckodriver %v is older than %v", v, MinGeckoDriver)
	}

	for _, a := range rel.Assets {
		if !assetRE.MatchString(a.GetName()) {
			continue
		}
		u := a.GetBrowserDownloadURL()
		if u == "" {
			return File{}, v, fmt.Errorf("%s does not have a download URL", a.GetName())
		}
		name := "geckodriver.tar.gz"
		if platform == "win64" {
			name = "geckodriver.zip"
		}
		return File{URL: u, Name: name}, v, nil
	}
	return File{}, v, fmt.Errorf("release for %s not found at https://github.com/mozilla/geckodriver/releases", platform)
}
