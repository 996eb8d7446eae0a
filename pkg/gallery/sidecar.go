package gallery

import (
	"encoding/json"
	"fmt"
	"os"
)

// Sidecar holds per-photo caption text in <photo>.json. Title and description
// use the Takeout field names so exported sidecars can be dropped in as is.
type Sidecar struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags,omitempty"`
}

// Caption prefers the description over the title.
func (s *Sidecar) Caption() string {
	if s.Description != "" {
		return s.Description
	}
	return s.Title
}

// SidecarPath returns the sidecar location for a photo, e.g. a.jpg.json.
func SidecarPath(photo string) string {
	return photo + ".json"
}

// ReadSidecar loads the sidecar for photo.
func ReadSidecar(photo string) (*Sidecar, error) {
	bs, err := os.ReadFile(SidecarPath(photo))
	if err != nil {
		return nil, err
	}

	s := &Sidecar{}
	if err := json.Unmarshal(bs, s); err != nil {
		return nil, fmt.Errorf("parse sidecar: %w", err)
	}
	return s, nil
}

// WriteSidecar stores s next to photo.
func WriteSidecar(photo string, s *Sidecar) error {
	bs, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	return os.WriteFile(SidecarPath(photo), append(bs, '\n'), 0o644)
}
