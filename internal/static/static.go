// Package static serves files from a list of directory roots mounted under a
// single URL prefix.
//
// Roots are tried in order and the first one holding the requested file wins.
// Requests that no root can satisfy are passed to the next handler rather than
// answered with a 404, so a fallback handler (the request proxy) can take them.
package static

import (
	"errors"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"
)

const indexFile = "index.html"

type root struct {
	dir  string
	fsys fs.FS
}

type cascade struct {
	prefix string
	roots  []root
	next   http.Handler
}

// Cascade returns a middleware serving GET and HEAD requests under prefix from dirs.
//
// prefix must start with "/" and must not end with one. Directories are never listed;
// a directory request is answered with its index.html or falls through.
func Cascade(prefix string, dirs ...string) func(http.Handler) http.Handler {
	roots := make([]root, 0, len(dirs))
	for _, dir := range dirs {
		roots = append(roots, root{dir: dir, fsys: os.DirFS(dir)})
	}

	return func(next http.Handler) http.Handler {
		return &cascade{
			prefix: prefix,
			roots:  roots,
			next:   next,
		}
	}
}

func (c *cascade) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		c.next.ServeHTTP(w, r)
		return
	}

	rest, ok := c.match(r.URL.Path)
	if !ok {
		c.next.ServeHTTP(w, r)
		return
	}

	name, ok := cleanName(rest)
	if !ok {
		c.next.ServeHTTP(w, r)
		return
	}

	for _, rt := range c.roots {
		if c.serve(w, r, rt, name, strings.HasSuffix(rest, "/")) {
			return
		}
	}

	c.next.ServeHTTP(w, r)
}

// match reports whether urlPath is the prefix itself or lies under it,
// and returns the remainder. The remainder is empty for the bare prefix
// so that it gets redirected like any other directory.
func (c *cascade) match(urlPath string) (string, bool) {
	if urlPath == c.prefix {
		return "", true
	}
	if rest, ok := strings.CutPrefix(urlPath, c.prefix); ok && strings.HasPrefix(rest, "/") {
		return rest, true
	}
	return "", false
}

// cleanName turns the URL remainder into an fs.FS name.
// Paths containing dot segments (hidden files, traversal) are rejected.
func cleanName(rest string) (string, bool) {
	for _, segment := range strings.Split(rest, "/") {
		if strings.HasPrefix(segment, ".") {
			return "", false
		}
	}

	name := strings.TrimPrefix(path.Clean("/"+rest), "/")
	if name == "" {
		name = "."
	}
	if !fs.ValidPath(name) {
		return "", false
	}
	return name, true
}

// serve tries to answer the request from one root, returning false if the root has nothing for it
func (c *cascade) serve(w http.ResponseWriter, r *http.Request, rt root, name string, trailingSlash bool) bool {
	info, err := fs.Stat(rt.fsys, name)
	if err != nil {
		return false
	}

	if info.IsDir() {
		if !trailingSlash {
			redirectToDir(w, r)
			return true
		}
		name = path.Join(name, indexFile)
		info, err = fs.Stat(rt.fsys, name)
		if err != nil {
			return false
		}
	} else if trailingSlash {
		// a file addressed as a directory (file.html/) is a miss
		return false
	}

	if !info.Mode().IsRegular() {
		return false
	}

	return serveFile(w, r, rt.fsys, name, info)
}

func serveFile(w http.ResponseWriter, r *http.Request, fsys fs.FS, name string, info fs.FileInfo) bool {
	f, err := fsys.Open(name)
	if errors.Is(err, fs.ErrNotExist) {
		// removed since the Stat
		return false
	}
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return true
	}
	defer f.Close()

	content, ok := f.(io.ReadSeeker)
	if !ok {
		return false
	}

	// ServeContent picks the content type from the name's extension
	http.ServeContent(w, r, info.Name(), info.ModTime(), content)
	return true
}

func redirectToDir(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Path + "/"
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}
	http.Redirect(w, r, target, http.StatusMovedPermanently)
}
