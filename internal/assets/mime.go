package assets

import "strings"

// mimeByExt maps the asset extensions the editor is known to upload to
// their content types. Anything else falls back to content sniffing.
var mimeByExt = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".svg":  "image/svg+xml",
	".webp": "image/webp",
	".avif": "image/avif",
	".bmp":  "image/bmp",
	".ico":  "image/x-icon",
	".mp4":  "video/mp4",
	".webm": "video/webm",
	".mov":  "video/quicktime",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".pdf":  "application/pdf",
	".json": "application/json",
	".txt":  "text/plain",
}

// MIMEForExt returns the content type for a file extension. The lookup is
// case-insensitive.
func MIMEForExt(ext string) (string, bool) {
	m, ok := mimeByExt[strings.ToLower(ext)]
	return m, ok
}
