// Package template loads HTML email templates and fills their {{NAME}}
// placeholders. Templates ship embedded in the binary; a directory on disk
// can override them by file name.
package template

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"

	"github.com/osteele/liquid"
)

//go:embed templates/*.html
var embedded embed.FS

// ErrNotFound is returned when no template with the given name exists.
var ErrNotFound = errors.New("template not found")

// Engine selects how placeholders are filled.
type Engine string

const (
	// EnginePlaceholder replaces literal {{KEY}} tokens and leaves unknown
	// tokens untouched.
	EnginePlaceholder Engine = "placeholder"
	// EngineLiquid renders the file as a Liquid template, so templates can
	// use filters and conditionals. Unknown variables render empty.
	EngineLiquid Engine = "liquid"
)

// Renderer renders named templates. Safe for concurrent use.
type Renderer struct {
	engine  Engine
	sources []fs.FS
	liquid  *liquid.Engine

	cache sync.Map // name -> string or *liquid.Template
}

// New creates a renderer. dir may be empty; when set, files there take
// precedence over the embedded defaults.
func New(dir string, engine Engine) (*Renderer, error) {
	if engine == "" {
		engine = EnginePlaceholder
	}
	if engine != EnginePlaceholder && engine != EngineLiquid {
		return nil, fmt.Errorf("unknown template engine %q", engine)
	}
	defaults, err := fs.Sub(embedded, "templates")
	if err != nil {
		return nil, err
	}

	r := &Renderer{engine: engine}
	if dir != "" {
		if st, err := os.Stat(dir); err != nil || !st.IsDir() {
			return nil, fmt.Errorf("template dir %q is not a directory", dir)
		}
		r.sources = append(r.sources, os.DirFS(dir))
	}
	r.sources = append(r.sources, defaults)
	if engine == EngineLiquid {
		r.liquid = liquid.NewEngine()
	}
	return r, nil
}

// NewFromFS creates a renderer over a single filesystem.
func NewFromFS(fsys fs.FS, engine Engine) *Renderer {
	r := &Renderer{engine: engine, sources: []fs.FS{fsys}}
	if engine == EngineLiquid {
		r.liquid = liquid.NewEngine()
	}
	return r
}

// Render fills the template called name (without the .html suffix).
func (r *Renderer) Render(name string, vars map[string]string) (string, error) {
	if r.engine == EngineLiquid {
		tpl, err := r.liquidTemplate(name)
		if err != nil {
			return "", err
		}
		bindings := make(liquid.Bindings, len(vars))
		for k, v := range vars {
			bindings[k] = v
		}
		out, serr := tpl.RenderString(bindings)
		if serr != nil {
			return "", fmt.Errorf("render %s: %w", name, serr)
		}
		return out, nil
	}

	src, err := r.source(name)
	if err != nil {
		return "", err
	}
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	return strings.NewReplacer(pairs...).Replace(src), nil
}

func (r *Renderer) liquidTemplate(name string) (*liquid.Template, error) {
	if v, ok := r.cache.Load("liquid:" + name); ok {
		return v.(*liquid.Template), nil
	}
	src, err := r.source(name)
	if err != nil {
		return nil, err
	}
	tpl, serr := r.liquid.ParseString(src)
	if serr != nil {
		return nil, fmt.Errorf("parse %s: %w", name, serr)
	}
	r.cache.Store("liquid:"+name, tpl)
	return tpl, nil
}

func (r *Renderer) source(name string) (string, error) {
	if v, ok := r.cache.Load(name); ok {
		return v.(string), nil
	}
	if name == "" || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return "", fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	file := name + ".html"
	for _, fsys := range r.sources {
		data, err := fs.ReadFile(fsys, file)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("read template %s: %w", file, err)
		}
		src := string(data)
		r.cache.Store(name, src)
		return src, nil
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, name)
}
