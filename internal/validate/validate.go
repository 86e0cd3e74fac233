package validate

import "strings"

// Upload and form limits. Pages and handlers read these so the browser hints and
// server checks cannot drift apart.
const (
	MaxVideoBytes           = 50 * 1024 * 1024
	MaxVideoMegabytes       = MaxVideoBytes / (1024 * 1024)
	VideoMIMEPrefix         = "video/"
	MaxContactNameLength    = 100
	MaxContactEmailLength   = 254
	MaxContactMessageLength = 5000
)

const (
	MsgNoExercise = "Please select an exercise first"
	MsgNotVideo   = "Please select a video file"
	MsgTooLarge   = "File is too large. Maximum size: 50MB"
)

// VideoMIMEType returns a message when mimeType does not describe a video.
func VideoMIMEType(mimeType string) string {
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(mimeType)), VideoMIMEPrefix) {
		return MsgNotVideo
	}
	return ""
}

// VideoSize returns a message when size exceeds the upload limit.
func VideoSize(size int64) string {
	if size > MaxVideoBytes {
		return MsgTooLarge
	}
	return ""
}

// VideoFile applies the type rule before the size rule; the first failure wins.
func VideoFile(mimeType string, size int64) string {
	if msg := VideoMIMEType(mimeType); msg != "" {
		return msg
	}
	return VideoSize(size)
}

// Limits returns the values exposed by /api/limits.
func Limits() map[string]any {
	return map[string]any{
		"maxVideoBytes":           MaxVideoBytes,
		"videoMimePrefix":         VideoMIMEPrefix,
		"maxContactNameLength":    MaxContactNameLength,
		"maxContactEmailLength":   MaxContactEmailLength,
		"maxContactMessageLength": MaxContactMessageLength,
	}
}
