package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSourceSelector_Allows(t *testing.T) {
	empty := SourceSelector{}
	assert.True(t, empty.Allows(FormatProxyText))
	assert.True(t, empty.Allows(FormatEHI))

	narrow := SourceSelector{IncludeFormats: []FormatID{FormatProxyText, FormatConfLines}}
	assert.True(t, narrow.Allows(FormatProxyText))
	assert.False(t, narrow.Allows(FormatEHI))

	wildcard := SourceSelector{IncludeFormats: []FormatID{"all"}}
	assert.True(t, wildcard.Allows(FormatOVPN))
}

func TestFetchWindowDefaults(t *testing.T) {
	first := FetchWindowDefaults(true)
	assert.True(t, first.FirstRun)
	assert.Equal(t, 2*time.Hour, first.MessageLookback)
	assert.Equal(t, 48*time.Hour, first.FileLookback)

	later := FetchWindowDefaults(false)
	assert.False(t, later.FirstRun)
	assert.Zero(t, later.MessageLookback)
	assert.Zero(t, later.FileLookback)
}

func TestRecord_PayloadAccessors(t *testing.T) {
	line := Record{Payload: map[string]any{"line": "vmess://abc"}}
	assert.Equal(t, "vmess://abc", line.Line())
	assert.Empty(t, line.BlobHash())

	opaque := Record{Payload: map[string]any{"blob_hash": "deadbeef", "filename": "a.ehi"}}
	assert.Empty(t, opaque.Line())
	assert.Equal(t, "deadbeef", opaque.BlobHash())
	assert.Equal(t, "a.ehi", opaque.DescriptorFilename())
}
