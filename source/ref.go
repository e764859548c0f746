// Package source describes and loads the picture being edited, and holds the
// small value types exchanged with the image and quote providers.
package source

import (
	"errors"
	"fmt"
	"net/url"
)

// ErrNoSource is returned when a Ref names neither a URL nor uploaded data.
var ErrNoSource = errors.New("source: no image")

// Ref identifies the picture an editor session works on. Exactly one of URL
// or Data is set. A Ref is not modified once a session has started.
type Ref struct {
	// ID is the provider's identifier, used to name exported files. Uploaded
	// pictures usually have none.
	ID  string `json:"id,omitempty"`
	URL string `json:"url,omitempty"`
	// Data holds the bytes of an uploaded picture.
	Data        []byte `json:"data,omitempty"`
	ContentType string `json:"contentType,omitempty"`
}

// IsRemote reports whether the picture must be fetched over the network.
func (r Ref) IsRemote() bool {
	return r.URL != ""
}

// Validate checks that the reference can be loaded.
func (r Ref) Validate() error {
	switch {
	case r.URL == "" && len(r.Data) == 0:
		return ErrNoSource
	case r.URL != "" && len(r.Data) > 0:
		return fmt.Errorf("source: both url and data set")
	case r.URL != "":
		u, err := url.Parse(r.URL)
		if err != nil {
			return fmt.Errorf("source: parse url: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("source: unsupported url scheme %q", u.Scheme)
		}
	}
	return nil
}
