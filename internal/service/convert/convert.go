// Package convert turns uploaded reference documents into markdown text
// before they are stored and indexed.
package convert

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/microcosm-cc/bluemonday"
)

// Converter turns one file format into markdown
type Converter interface {
	Convert(ctx context.Context, input string) (string, error)
	Extensions() []string
	Name() string
}

// Registry routes uploads to a converter by file extension.
// Unknown extensions are stored as plain text.
type Registry struct {
	mu         sync.RWMutex
	converters map[string]Converter
	fallback   Converter
}

// NewRegistry returns a registry with the markdown, text and HTML converters
func NewRegistry() *Registry {
	r := &Registry{
		converters: make(map[string]Converter),
		fallback:   plainText{},
	}
	r.Register(markdown{})
	r.Register(plainText{})
	r.Register(NewHTMLConverter())
	return r
}

// Register adds c for each of its extensions, replacing earlier entries
func (r *Registry) Register(c Converter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ext := range c.Extensions() {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		r.converters[ext] = c
	}
}

// For returns the converter for filename
func (r *Registry) For(filename string) Converter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.converters[strings.ToLower(filepath.Ext(filename))]; ok {
		return c
	}
	return r.fallback
}

// Convert converts content according to filename's extension
func (r *Registry) Convert(ctx context.Context, filename, content string) (string, error) {
	c := r.For(filename)
	out, err := c.Convert(ctx, content)
	if err != nil {
		return "", fmt.Errorf("%s conversion of %q: %w", c.Name(), filename, err)
	}
	return strings.TrimSpace(out), nil
}

type markdown struct{}

func (markdown) Convert(_ context.Context, input string) (string, error) { return input, nil }
func (markdown) Extensions() []string                                      { return []string{".md", ".markdown"} }
func (markdown) Name() string                                              { return "markdown" }

type plainText struct{}

func (plainText) Convert(_ context.Context, input string) (string, error) { return input, nil }
func (plainText) Extensions() []string                                      { return []string{".txt", ".text"} }
func (plainText) Name() string                                              { return "plaintext" }

type htmlConverter struct {
	policy    *bluemonday.Policy
	converter *md.Converter
}

// NewHTMLConverter sanitizes HTML with a UGC policy and then converts
// what is left to markdown. Scripts and event handlers never reach the
// prompt context.
func NewHTMLConverter() Converter {
	return &htmlConverter{
		policy:    bluemonday.UGCPolicy(),
		converter: md.NewConverter("", true, nil),
	}
}

func (c *htmlConverter) Convert(_ context.Context, input string) (string, error) {
	out, err := c.converter.ConvertString(c.policy.Sanitize(input))
	if err != nil {
		return "", fmt.Errorf("failed to convert HTML to markdown: %w", err)
	}
	return out, nil
}

func (c *htmlConverter) Extensions() []string { return []string{".html", ".htm"} }
func (c *htmlConverter) Name() string         { return "html" }
