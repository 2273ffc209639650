// Package media turns audio and photographs into plain text that can be
// classified like any typed note.
package media

import (
	"errors"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
)

// ErrSilentAudio reports an audio asset with nothing to transcribe.
var ErrSilentAudio = errors.New("audio contains no speech")

// knownTypes covers extensions the platform MIME table tends to miss.
var knownTypes = map[string]string{
	".m4a":  "audio/mp4",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".oga":  "audio/ogg",
	".aac":  "audio/aac",
	".flac": "audio/flac",
	".amr":  "audio/amr",
	".webm": "audio/webm",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".heic": "image/heic",
	".heif": "image/heif",
	".gif":  "image/gif",
}

// DetectMIME resolves a content type from the file extension, falling back
// to sniffing the leading bytes.
func DetectMIME(path string, data []byte) string {
	ext := strings.ToLower(filepath.Ext(path))
	if t, ok := knownTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		mediaType, _, err := mime.ParseMediaType(t)
		if err == nil {
			return mediaType
		}
	}
	t := http.DetectContentType(data)
	if mediaType, _, err := mime.ParseMediaType(t); err == nil {
		return mediaType
	}
	return t
}

// IsAudio reports whether path names an audio asset by extension.
func IsAudio(path string) bool {
	return strings.HasPrefix(DetectMIME(path, nil), "audio/")
}
