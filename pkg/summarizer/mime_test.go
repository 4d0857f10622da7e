package summarizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveAudioMIMEType(t *testing.T) {
	cases := map[string]string{
		"memo.wav":            "audio/wav",
		"/tmp/Voice Note.MP3": "audio/mpeg",
		"clip.m4a":            "audio/mp4",
		"clip.webm":           "audio/webm",
		"clip.ogg":            "audio/ogg",
		"clip.flac":           "audio/flac",
		"clip.aac":            "audio/aac",
	}
	for path, want := range cases {
		got, err := ResolveAudioMIMEType(path)
		require.NoError(t, err, path)
		assert.Equal(t, want, got, path)
	}
}

func TestResolveAudioMIMETypeRejectsNonAudio(t *testing.T) {
	for _, path := range []string{"notes", "notes.txt", "image.png", "archive.unknownext"} {
		_, err := ResolveAudioMIMEType(path)
		assert.Error(t, err, path)
	}
}

func TestExtensionFor(t *testing.T) {
	assert.Equal(t, ".mp3", extensionFor("audio/mpeg"))
	assert.Equal(t, ".m4a", extensionFor("audio/mp4"))
	assert.Equal(t, ".bin", extensionFor("application/x-unknown-thing"))
}
