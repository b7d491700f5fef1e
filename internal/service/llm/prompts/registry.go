// Package prompts loads the embedded prompt templates used by the writing
// services and renders them with text/template.
package prompts

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"sync"
	"text/template"

	"gopkg.in/yaml.v3"

	"episodic/internal/domain/models/writing"
)

//go:embed templates/*.yaml
var templateFiles embed.FS

// Prompt names
const (
	GenerateCards     = "generate_cards"
	RelatedCards      = "related_cards"
	RewriteParagraph  = "rewrite_paragraph"
	ExpandParagraph   = "expand_paragraph"
	DescribeParagraph = "describe_paragraph"
	SummarizeEpisode  = "summarize_episode"
)

// Definition is one YAML prompt file
type Definition struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Template    string `yaml:"template"`
}

// Data is the union of fields the templates reference. Each prompt uses a
// subset; unused fields stay zero.
type Data struct {
	Count            int
	EpisodeTitle     string
	Paragraphs       []string
	Target           string
	Text             string
	Context          []string
	ExistingTitles   []string
	AllEpisodes      []writing.EpisodeDigest
	DocumentSnippets []writing.DocumentSnippet
	WebResults       []writing.WebResult
	Card             *writing.ReferenceCard
}

// Registry holds parsed templates by name
type Registry struct {
	templates map[string]*template.Template
	defs      map[string]Definition
	mu        sync.RWMutex
}

// NewRegistry parses every embedded template file
func NewRegistry() (*Registry, error) {
	r := &Registry{
		templates: make(map[string]*template.Template),
		defs:      make(map[string]Definition),
	}

	files, err := fs.Glob(templateFiles, "templates/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to list prompt templates: %w", err)
	}
	for _, file := range files {
		if err := r.loadFile(file); err != nil {
			return nil, err
		}
	}

	for _, name := range []string{GenerateCards, RelatedCards, RewriteParagraph, ExpandParagraph, DescribeParagraph, SummarizeEpisode} {
		if _, ok := r.templates[name]; !ok {
			return nil, fmt.Errorf("missing prompt template %q", name)
		}
	}

	return r, nil
}

func (r *Registry) loadFile(filename string) error {
	data, err := templateFiles.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filename, err)
	}

	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", filename, err)
	}
	if def.Name == "" {
		def.Name = path.Base(filename[:len(filename)-len(path.Ext(filename))])
	}

	tmpl, err := template.New(def.Name).Option("missingkey=error").Parse(def.Template)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", filename, err)
	}

	r.mu.Lock()
	r.templates[def.Name] = tmpl
	r.defs[def.Name] = def
	r.mu.Unlock()
	return nil
}

// Render executes the named template against data
func (r *Registry) Render(name string, data Data) (string, error) {
	r.mu.RLock()
	tmpl, ok := r.templates[name]
	r.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("unknown prompt: %s", name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

// Names returns every registered prompt name, sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
