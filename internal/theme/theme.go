package theme

import (
	"fmt"
	"strings"
)

// Bucket is a contiguous inclusive range of stage indices sharing one visual
// theme.
type Bucket struct {
	ID    string `yaml:"id" json:"id"`
	Label string `yaml:"label,omitempty" json:"label,omitempty"`
	From  int    `yaml:"from" json:"from"`
	To    int    `yaml:"to" json:"to"`
}

// Contains reports whether index falls inside the bucket.
func (b Bucket) Contains(index int) bool {
	return index >= b.From && index <= b.To
}

// Name returns the label, falling back to the ID.
func (b Bucket) Name() string {
	if strings.TrimSpace(b.Label) != "" {
		return b.Label
	}
	return b.ID
}

// Buckets is an ordered partition of [0, count-1].
type Buckets []Bucket

// Validate ensures the buckets are ordered, contiguous, non-overlapping and
// cover [0, count-1] exactly.
func (bs Buckets) Validate(count int) error {
	if count <= 0 {
		return fmt.Errorf("theme: stage count must be positive")
	}
	if len(bs) == 0 {
		return fmt.Errorf("theme: at least one bucket is required")
	}
	seen := make(map[string]struct{}, len(bs))
	next := 0
	for i, b := range bs {
		id := strings.TrimSpace(b.ID)
		if id == "" {
			return fmt.Errorf("theme: bucket %d is missing an id", i)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("theme: duplicate bucket %s", id)
		}
		seen[id] = struct{}{}
		if b.From > b.To {
			return fmt.Errorf("theme: bucket %s has from %d after to %d", id, b.From, b.To)
		}
		if b.From != next {
			return fmt.Errorf("theme: bucket %s starts at %d, expected %d", id, b.From, next)
		}
		next = b.To + 1
	}
	if next != count {
		return fmt.Errorf("theme: buckets cover [0, %d], expected [0, %d]", next-1, count-1)
	}
	return nil
}

// Select returns the bucket containing index.
func (bs Buckets) Select(index int) (Bucket, bool) {
	for _, b := range bs {
		if b.Contains(index) {
			return b, true
		}
	}
	return Bucket{}, false
}

// Clone returns a copy of the slice.
func (bs Buckets) Clone() Buckets {
	if bs == nil {
		return nil
	}
	out := make(Buckets, len(bs))
	copy(out, bs)
	return out
}

// Era IDs used by the built-in journey.
const (
	Ancient = "ancient"
	Modern  = "modern"
	Digital = "digital"
)

// Default splits count stages into the three eras using a 10:6:8 share.
// Short journeys collapse into fewer buckets; every result covers
// [0, count-1].
func Default(count int) Buckets {
	if count <= 0 {
		return nil
	}
	ancient := count * 10 / 24
	modern := count * 6 / 24
	if ancient == 0 {
		ancient = 1
	}
	var out Buckets
	out = append(out, Bucket{ID: Ancient, Label: "Ancient", From: 0, To: ancient - 1})
	if ancient >= count {
		out[0].To = count - 1
		return out
	}
	if modern > 0 {
		out = append(out, Bucket{ID: Modern, Label: "Modern", From: ancient, To: ancient + modern - 1})
	}
	if ancient+modern < count {
		out = append(out, Bucket{ID: Digital, Label: "Digital", From: ancient + modern, To: count - 1})
	}
	return out
}
