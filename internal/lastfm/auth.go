package lastfm

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
)

const authPage = "https://www.last.fm/api/auth/"

// openers maps GOOS to the command that hands a URL to the desktop.
var openers = map[string][]string{
	"darwin":  {"open"},
	"linux":   {"xdg-open"},
	"freebsd": {"xdg-open"},
	"windows": {"rundll32", "url.dll,FileProtocolHandler"},
}

func authURL(apiKey, token string) string {
	q := url.Values{"api_key": {apiKey}, "token": {token}}
	return authPage + "?" + q.Encode()
}

// OpenBrowser opens u in the default browser without waiting for it.
func OpenBrowser(u string) error {
	argv, ok := openers[runtime.GOOS]
	if !ok {
		return fmt.Errorf("no browser opener for %s", runtime.GOOS)
	}
	args := append(argv[1:len(argv):len(argv)], u)
	return exec.Command(argv[0], args...).Start()
}
