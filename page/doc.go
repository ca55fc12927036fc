/*
Package page wraps a WebDriver session with bounded waits, so that UI tests
read as a list of interactions instead of polling loops.

Every element operation takes a Locator, polls until a condition holds
(presence, visibility, clickability, frame availability) or the page timeout
elapses, then acts. Nothing is retried beyond that single wait.

Example usage:

	caps := selenium.Capabilities{"browserName": "chrome"}
	wd, err := selenium.NewRemote(caps, "http://localhost:4444/wd/hub")
	if err != nil {
		return err
	}
	defer wd.Quit()

	p := page.New(wd)
	if err := p.Navigate("https://the-internet.herokuapp.com/dropdown"); err != nil {
		return err
	}
	if err := p.SelectByText(page.ID("dropdown"), "Option 1"); err != nil {
		return err
	}

	// Give the modal five seconds instead of the default ten.
	if p.Within(5 * time.Second).IsVisible(page.ClassName("modal")) {
		...
	}
*/
package page
