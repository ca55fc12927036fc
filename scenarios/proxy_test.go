package scenarios

import (
	"context"
	"net"
	"sync/atomic"
	"testing"

	"github.com/armon/go-socks5"
	"github.com/stretchr/testify/require"

	"github.com/wanmail/uitest/page"
	"github.com/wanmail/uitest/session"
)

// startSOCKS serves a SOCKS5 proxy on a loopback port for the duration of
// the test and counts the connections it makes.
func startSOCKS(t *testing.T) (string, *int32) {
	t.Helper()
	var dials int32
	var d net.Dialer
	socks, err := socks5.New(&socks5.Config{
		Dial: func(ctx context.Context, network, addr string) (net.Conn, error) {
			atomic.AddInt32(&dials, 1)
			return d.DialContext(ctx, network, addr)
		},
	})
	require.NoError(t, err)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		err := socks.Serve(l)
		select {
		case <-done:
			return
		default:
		}
		if err != nil {
			t.Errorf("socks.Serve() returned error: %v", err)
		}
	}()
	t.Cleanup(func() {
		close(done)
		l.Close()
	})
	return l.Addr().String(), &dials
}

func TestProxy(t *testing.T) {
	skipIfRemote(t)
	if cfg.Browser != session.Chrome {
		t.Skip("only chrome can be told to proxy loopback traffic")
	}
	addr, dials := startSOCKS(t)

	p, _ := newSession(t, func(c *session.Config) {
		c.Proxy = addr
		// Chrome bypasses proxies for localhost unless told otherwise.
		// https://crbug.com/899126
		c.ExtraArgs = append(c.ExtraArgs, "--proxy-bypass-list=<-loopback>")
	})

	require.NoError(t, p.Navigate(site("/dropdown")))
	heading, err := p.Text(page.TagName("h3"))
	require.NoError(t, err)
	require.Contains(t, heading, "Dropdown List")
	require.NotZero(t, atomic.LoadInt32(dials), "the page did not go through the proxy")
}
