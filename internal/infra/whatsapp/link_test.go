package whatsapp

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildLink(t *testing.T) {
	l := NewLinker("")

	link := l.BuildLink("919876543210", "Dear Priya Sharma, your appointment is confirmed for 2025-07-08 at 3:00 PM.")

	parsed, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "https", parsed.Scheme)
	assert.Equal(t, "wa.me", parsed.Host)
	assert.Equal(t, "/919876543210", parsed.Path)
	assert.Equal(t, "Dear Priya Sharma, your appointment is confirmed for 2025-07-08 at 3:00 PM.", parsed.Query().Get("text"))
}

func TestBuildLinkEncodesReservedCharacters(t *testing.T) {
	l := NewLinker(DefaultBaseURL)

	link := l.BuildLink("919876543210", "Time: 3:00 PM & bring reports?")

	assert.Contains(t, link, "https://wa.me/919876543210?text=")
	assert.NotContains(t, link[len("https://wa.me/919876543210?"):], " ", "spaces are percent-encoded")
	assert.NotContains(t, link[len("https://wa.me/919876543210?text="):], "&", "ampersands cannot split the query")
}

func TestNewLinkerTrimsTrailingSlash(t *testing.T) {
	l := NewLinker("https://wa.me/")
	assert.Equal(t, "https://wa.me/919876543210?text=hi", l.BuildLink("919876543210", "hi"))
}
