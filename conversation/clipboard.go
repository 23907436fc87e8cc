package conversation

import "github.com/atotto/clipboard"

// Clipboard is the platform clipboard.
type Clipboard interface {
	WriteAll(text string) error
}

// clipboardWriteAll is swapped in tests.
var clipboardWriteAll = clipboard.WriteAll

// SystemClipboard writes to the OS clipboard.
type SystemClipboard struct{}

// WriteAll copies text to the clipboard.
func (SystemClipboard) WriteAll(text string) error {
	return clipboardWriteAll(text)
}
