// Package testdata provides recorded skeleton sequences for tests.
package testdata

import (
	"embed"
	"fmt"

	"github.com/ayusman/kinectkeys/internal/skeleton"
)

//go:embed recordings/*.json
var recordingsFS embed.FS

// LoadRecording loads an embedded recording by file name, e.g. "punch.json".
func LoadRecording(name string) (*skeleton.Recording, error) {
	data, err := recordingsFS.ReadFile("recordings/" + name)
	if err != nil {
		return nil, fmt.Errorf("load recording %s: %w", name, err)
	}
	return skeleton.ParseRecording(data)
}

// Recordings lists the embedded recording names.
func Recordings() ([]string, error) {
	entries, err := recordingsFS.ReadDir("recordings")
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}
