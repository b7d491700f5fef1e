package convert

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RoutesByExtension(t *testing.T) {
	r := NewRegistry()

	assert.Equal(t, "html", r.For("Notes.HTML").Name())
	assert.Equal(t, "markdown", r.For("world.md").Name())
	assert.Equal(t, "plaintext", r.For("names.txt").Name())
	assert.Equal(t, "plaintext", r.For("no-extension").Name())
}

func TestHTMLConverter_StripsScripts(t *testing.T) {
	r := NewRegistry()

	out, err := r.Convert(context.Background(), "clip.html",
		`<h1>Harbor</h1><p onclick="x()">Gulls <strong>circle</strong> the pier.</p><script>alert(1)</script>`)
	require.NoError(t, err)

	assert.Contains(t, out, "# Harbor")
	assert.Contains(t, out, "**circle**")
	assert.NotContains(t, out, "alert")
	assert.NotContains(t, out, "onclick")
}

func TestRegistry_PassthroughTrimsWhitespace(t *testing.T) {
	out, err := NewRegistry().Convert(context.Background(), "a.md", "\n  *dust* on the road \n")
	require.NoError(t, err)
	assert.Equal(t, "*dust* on the road", out)
}
