package client

import (
	"github.com/sirupsen/logrus"
	"golang.design/x/clipboard"
)

var clipboardReady bool

// InitClipboard prepares the system clipboard. Copy actions report failure
// when it is unavailable, e.g. on a headless X server.
func InitClipboard(log *logrus.Entry) {
	if err := clipboard.Init(); err != nil {
		log.WithError(err).Warn("Clipboard unavailable")
		return
	}
	clipboardReady = true
}

// CopyText puts text on the clipboard and returns false if it could not.
func CopyText(text string) bool {
	if !clipboardReady || text == "" {
		return false
	}
	clipboard.Write(clipboard.FmtText, []byte(text))
	return true
}
