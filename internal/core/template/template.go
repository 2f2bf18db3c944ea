// Package template renders notification titles and bodies per event kind.
// Templates are loaded at startup from *.yaml files in a directory, one
// template per file, and cached in memory. No hot reload.
package template

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	texttemplate "text/template"

	"gopkg.in/yaml.v3"

	v1 "github.com/kesher-crm/kesher/internal/api/v1"
	"github.com/kesher-crm/kesher/internal/core/clock"
)

// rawTemplate is the on-disk YAML shape. Title and body are Go
// text/template sources over templateData.
type rawTemplate struct {
	Kind  string `yaml:"kind"`
	Title string `yaml:"title"`
	Body  string `yaml:"body"`
}

// templateData is what title/body templates render against.
type templateData struct {
	Subject     string
	Description string
	StartDate   string
	StartTime   string
}

type compiled struct {
	title *texttemplate.Template
	body  *texttemplate.Template
}

// Set holds the compiled templates for all event kinds. A Set always
// renders something: kinds without a loaded template use the built-in
// default.
type Set struct {
	byKind map[v1.Kind]compiled
	def    compiled
}

// The CRM front end is Hebrew localized; the built-in fallback follows.
const (
	defaultTitle = "תזכורת: {{.Subject}}"
	defaultBody  = "{{.Subject}} בתאריך {{.StartDate}} בשעה {{.StartTime}}"
)

// Defaults returns a Set containing only the built-in template.
func Defaults() *Set {
	return &Set{
		byKind: make(map[v1.Kind]compiled),
		def:    mustCompile("default", defaultTitle, defaultBody),
	}
}

// LoadDir loads kind templates from *.yaml files in dir and layers them
// over the defaults. A missing directory is valid (zero custom
// templates); a malformed file is not.
func LoadDir(dir string) (*Set, error) {
	set := Defaults()

	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return set, nil
	}
	if err != nil {
		return nil, fmt.Errorf("template dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("template path %q is not a directory", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading template dir: %w", err)
	}

	for _, e := range entries {
		if e.IsDir() || (!strings.HasSuffix(e.Name(), ".yaml") && !strings.HasSuffix(e.Name(), ".yml")) {
			continue
		}

		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading template file %s: %w", path, err)
		}

		var raw rawTemplate
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parsing template file %s: %w", path, err)
		}
		if raw.Kind == "" {
			continue // skip empty / comment-only files
		}

		kind := v1.Kind(raw.Kind)
		if !v1.ValidKind(kind) {
			return nil, fmt.Errorf("template file %s: unknown kind %q", path, raw.Kind)
		}
		if _, exists := set.byKind[kind]; exists {
			return nil, fmt.Errorf("template file %s: duplicate kind %q", path, raw.Kind)
		}

		c, err := compile(raw.Kind, raw.Title, raw.Body)
		if err != nil {
			return nil, fmt.Errorf("template file %s: %w", path, err)
		}
		set.byKind[kind] = c
	}

	return set, nil
}

// Render produces the notification title and message for an event. Render
// never fails: a template execution error falls back to the bare subject
// label, which is always displayable.
func (s *Set) Render(evt *v1.Event) (title, message string) {
	c, ok := s.byKind[evt.Kind]
	if !ok {
		c = s.def
	}

	dateStr, timeStr := clock.ToDisplayLocal(evt.StartTime)
	data := templateData{
		Subject:     evt.SubjectLabel,
		Description: evt.Description,
		StartDate:   dateStr,
		StartTime:   timeStr,
	}

	var tb, bb strings.Builder
	if err := c.title.Execute(&tb, data); err != nil {
		return evt.SubjectLabel, evt.SubjectLabel
	}
	if err := c.body.Execute(&bb, data); err != nil {
		return tb.String(), evt.SubjectLabel
	}
	return tb.String(), bb.String()
}

func compile(name, title, body string) (compiled, error) {
	if title == "" || body == "" {
		return compiled{}, fmt.Errorf("template %q: title and body must not be empty", name)
	}
	t, err := texttemplate.New(name + ".title").Parse(title)
	if err != nil {
		return compiled{}, fmt.Errorf("template %q: invalid title: %w", name, err)
	}
	b, err := texttemplate.New(name + ".body").Parse(body)
	if err != nil {
		return compiled{}, fmt.Errorf("template %q: invalid body: %w", name, err)
	}
	return compiled{title: t, body: b}, nil
}

func mustCompile(name, title, body string) compiled {
	c, err := compile(name, title, body)
	if err != nil {
		panic(err)
	}
	return c
}
