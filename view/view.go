// Package view renders the HTML pages from an fs.FS of templates.
package view

import (
	"bytes"
	"crypto/sha1"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/diewo77/bon-de-commande/i18n"
	"github.com/shopspring/decimal"
)

const layoutName = "layout.html"

// Engine parses templates once (on every render in dev mode) and executes them
// with request-scoped helpers.
type Engine struct {
	templates fs.FS
	static    fs.FS
	dev       bool
	theme     func(*http.Request) string

	mu     sync.RWMutex
	cache  map[string]*template.Template
	hashes map[string]string
}

// Option configures an Engine.
type Option func(*Engine)

// WithDev disables the template cache.
func WithDev(dev bool) Option {
	return func(e *Engine) { e.dev = dev }
}

// WithThemeResolver sets how the page theme is read from the request.
func WithThemeResolver(f func(*http.Request) string) Option {
	return func(e *Engine) {
		if f != nil {
			e.theme = f
		}
	}
}

// New returns an engine over templates; static is used to version asset URLs.
func New(templates, static fs.FS, opts ...Option) *Engine {
	e := &Engine{
		templates: templates,
		static:    static,
		theme:     func(*http.Request) string { return "system" },
		cache:     map[string]*template.Template{},
		hashes:    map[string]string{},
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Funcs returns the helpers available to every template.
func (e *Engine) Funcs(r *http.Request) template.FuncMap {
	theme := "system"
	if r != nil {
		theme = e.theme(r)
	}
	return template.FuncMap{
		"t":      i18n.T,
		"lang":   func() string { return i18n.Lang },
		"theme":  func() string { return theme },
		"year":   func() int { return time.Now().Year() },
		"asset":  e.asset,
		"amount": func(d decimal.Decimal) string { return d.StringFixed(2) },
	}
}

// asset returns /static/<name>?v=<hash> for cache busting.
func (e *Engine) asset(rel string) string {
	e.mu.RLock()
	h, ok := e.hashes[rel]
	e.mu.RUnlock()
	if ok && !e.dev {
		return "/static/" + rel + h
	}
	h = ""
	if e.static != nil {
		if b, err := fs.ReadFile(e.static, rel); err == nil {
			sum := sha1.Sum(b)
			h = fmt.Sprintf("?v=%x", sum[:8])
		}
	}
	e.mu.Lock()
	e.hashes[rel] = h
	e.mu.Unlock()
	return "/static/" + rel + h
}

func (e *Engine) parse(name string) (*template.Template, error) {
	if !e.dev {
		e.mu.RLock()
		t, ok := e.cache[name]
		e.mu.RUnlock()
		if ok {
			return t, nil
		}
	}
	t, err := template.New(layoutName).Funcs(e.Funcs(nil)).ParseFS(e.templates, layoutName, name)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	if !e.dev {
		e.mu.Lock()
		e.cache[name] = t
		e.mu.Unlock()
	}
	return t, nil
}

// Render executes name inside the layout and writes it with status. Nothing is
// written when the template fails.
func (e *Engine) Render(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]any) error {
	base, err := e.parse(name)
	if err != nil {
		return err
	}
	// the cached tree is never executed, only its clones
	t, err := base.Clone()
	if err != nil {
		return err
	}
	t.Funcs(e.Funcs(r))

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, layoutName, data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err = buf.WriteTo(w)
	return err
}
