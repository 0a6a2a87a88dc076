// Command phototag runs single classification passes against the photo
// catalog: one batch, one photo, or a dry-run preview.
package main

import (
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
