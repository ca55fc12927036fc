package scenarios

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wanmail/uitest/page"
)

func TestDropdown(t *testing.T) {
	p, _ := newSession(t)
	require.NoError(t, p.Navigate(site("/dropdown")))

	dropdown := page.ID("dropdown")

	require.NoError(t, p.SelectByText(dropdown, "Option 1"))
	selected, err := p.SelectedOption(dropdown)
	require.NoError(t, err)
	require.Contains(t, selected, "Option 1")

	require.NoError(t, p.SelectByValue(dropdown, "2"))
	selected, err = p.SelectedOption(dropdown)
	require.NoError(t, err)
	require.Contains(t, selected, "Option 2")
}
