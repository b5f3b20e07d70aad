package transcribe

import "context"

// Backend is a pluggable transcription service. It receives the raw audio
// bytes, their MIME type, and the caller's instruction, and returns plain
// text.
type Backend interface {
	Transcribe(ctx context.Context, audio []byte, mimeType, instruction string) (string, error)
}
