package cookies

import (
	"fmt"
	"net/http"
	"os"

	"github.com/mengzhuo/cookiestxt"
)

// Load reads a browser-exported Netscape cookies.txt file.
// Expired cookies are kept on purpose: the export wants whatever session the
// browser had, and the server is the one that decides if it still works.
func Load(path string) ([]*http.Cookie, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cookies: open %s: %w", path, err)
	}
	defer f.Close()

	list, err := cookiestxt.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("cookies: parse %s: %w", path, err)
	}
	return list, nil
}
