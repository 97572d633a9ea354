package engine

import (
	"fmt"

	"github.com/kingrea/relay/internal/theme"
)

// Dot is one progress indicator. Current and Completed are independent.
type Dot struct {
	Index     int
	ID        string
	Title     string
	Current   bool
	Completed bool
}

// Frame is everything the chrome needs to draw around the live structure.
type Frame struct {
	Index       int
	Count       int
	ID          string
	Title       string
	Indicator   string
	PrevEnabled bool
	NextEnabled bool
	Theme       theme.Bucket
	Dots        []Dot
}

// Frame snapshots the chrome state. NextEnabled is evaluated live, so it
// reflects completions that happened since the last render.
func (o *Orchestrator) Frame() Frame {
	infos := o.registry.Infos()
	info := o.info(o.current)
	bucket, _ := o.buckets.Select(o.current)
	dots := make([]Dot, len(infos))
	for i, in := range infos {
		dots[i] = Dot{
			Index:     i,
			ID:        in.ID,
			Title:     in.Title,
			Current:   i == o.current,
			Completed: o.tracker.Completed(i),
		}
	}
	return Frame{
		Index:       o.current,
		Count:       len(infos),
		ID:          info.ID,
		Title:       info.Title,
		Indicator:   Indicator(o.current, len(infos), info.Title),
		PrevEnabled: o.current > 0,
		NextEnabled: o.IsComplete(o.current),
		Theme:       bucket,
		Dots:        dots,
	}
}

// Buckets returns a copy of the theme partition.
func (o *Orchestrator) Buckets() theme.Buckets {
	return o.buckets.Clone()
}

// Indicator formats the position line shown above every stage.
func Indicator(index, count int, title string) string {
	return fmt.Sprintf("%d / %d : %s", index+1, count, title)
}
