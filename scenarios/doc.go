// Package scenarios holds the end-to-end UI scenarios: file download and
// upload, dropdown selection, hover, frames and the entry ad modal.
//
// They need a browser driver. Point them at one with flags or UITEST_*
// variables (see session.Config), for example:
//
//	go test ./scenarios -driver_path=$PWD/drivers/chromedriver -headless
//	UITEST_REMOTE_URL=http://localhost:4444/wd/hub go test ./scenarios
//
// Without a driver every scenario is skipped. By default the pages come from
// a local copy of the demo sites; -public uses the real ones.
package scenarios
