// Package search implements an archive or browser stage. The user queries a
// fixed set of documents, opens results and must find every listed fact.
package search

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sahilm/fuzzy"

	"github.com/kingrea/relay/internal/stage"
	"github.com/kingrea/relay/internal/stages/prose"
)

// Kind is the catalogue key for search stages.
const Kind = "search"

// Document is one searchable entry.
type Document struct {
	Title    string
	Snippet  string
	Keywords []string
	Body     string
	Fact     string
}

// Stage is a searchable archive.
type Stage struct {
	stage.Base
	content string
	docs    []Document
	facts   []string
	browse  bool
	success string
}

// New builds a search stage. Params: results (list of title, snippet,
// keywords, body, fact), facts, browse, success.
func New(spec stage.Spec) (stage.Stage, error) {
	var docs []Document
	provided := map[string]bool{}
	for i, raw := range spec.Params.List("results") {
		doc := Document{
			Title:    raw.String("title", ""),
			Snippet:  raw.String("snippet", ""),
			Keywords: raw.Strings("keywords"),
			Body:     raw.String("body", ""),
			Fact:     raw.String("fact", ""),
		}
		if doc.Title == "" {
			return nil, fmt.Errorf("search: result %d needs a title", i)
		}
		for k, kw := range doc.Keywords {
			doc.Keywords[k] = strings.ToLower(kw)
		}
		if doc.Fact != "" {
			provided[doc.Fact] = true
		}
		docs = append(docs, doc)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("search: at least one result is required")
	}
	facts := spec.Params.Strings("facts")
	if len(facts) == 0 {
		return nil, fmt.Errorf("search: at least one fact is required")
	}
	for _, fact := range facts {
		if !provided[fact] {
			return nil, fmt.Errorf("search: no result provides fact %q", fact)
		}
	}
	return &Stage{
		Base:    stage.NewBase(stage.InfoFromSpec(spec)),
		content: spec.Content,
		docs:    docs,
		facts:   facts,
		browse:  spec.Params.Bool("browse", false),
		success: spec.Params.String("success", "You found everything you were looking for."),
	}, nil
}

// Register installs the search kind.
func Register(kinds *stage.Kinds) {
	kinds.MustRegister(Kind, New)
}

type keywordSource struct {
	words []string
	owner []int
}

func (k keywordSource) String(i int) string { return k.words[i] }
func (k keywordSource) Len() int            { return len(k.words) }

// Search returns the indexes of documents matching query, best first. Each
// query word is matched fuzzily against document keywords. In browse mode
// an empty query lists everything.
func (s *Stage) Search(query string) []int {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		if !s.browse {
			return nil
		}
		all := make([]int, len(s.docs))
		for i := range all {
			all[i] = i
		}
		return all
	}
	var src keywordSource
	for i, doc := range s.docs {
		for _, kw := range doc.Keywords {
			src.words = append(src.words, kw)
			src.owner = append(src.owner, i)
		}
	}
	scores := map[int]int{}
	for _, term := range terms {
		for _, m := range fuzzy.FindFrom(term, src) {
			if !closeEnough(term, m.Str) {
				continue
			}
			doc := src.owner[m.Index]
			scores[doc] += m.Score + len(term)*10
		}
		for i, kw := range src.words {
			if len(kw) >= 3 && len(term) > len(kw) && strings.HasPrefix(term, kw) {
				scores[src.owner[i]] += len(kw) * 10
			}
		}
	}
	hits := make([]int, 0, len(scores))
	for doc := range scores {
		hits = append(hits, doc)
	}
	sort.Slice(hits, func(a, b int) bool {
		if scores[hits[a]] != scores[hits[b]] {
			return scores[hits[a]] > scores[hits[b]]
		}
		return hits[a] < hits[b]
	})
	return hits
}

// closeEnough rejects subsequence matches that skip most of the keyword.
func closeEnough(term, keyword string) bool {
	return len(keyword)-len(term) <= 2
}

// Render returns a fresh archive view.
func (s *Stage) Render() stage.Widget {
	input := textinput.New()
	input.Prompt = "search › "
	input.Placeholder = "keywords"
	w := &widget{
		stage:  s,
		input:  input,
		reader: viewport.New(60, 8),
		found:  map[string]bool{},
		open:   -1,
	}
	if s.browse {
		w.results = s.Search("")
	}
	return w
}

// Setup binds the stage and focuses the query input.
func (s *Stage) Setup(sw stage.Widget, b stage.Binding) (stage.Widget, tea.Cmd) {
	w, ok := sw.(*widget)
	if !ok {
		return sw, nil
	}
	w.binding = b
	return w, w.input.Focus()
}

type widget struct {
	stage    *Stage
	binding  stage.Binding
	input    textinput.Model
	reader   viewport.Model
	width    int
	results  []int
	cursor   int
	open     int
	searched bool
	found    map[string]bool
	done     bool
}

func (w *widget) Update(msg tea.Msg) (stage.Widget, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		w.width = msg.Width
		if msg.Width > 4 {
			w.reader.Width = msg.Width - 4
		}
		return w, nil
	case tea.KeyMsg:
		if w.open >= 0 {
			return w.updateReader(msg)
		}
		if w.input.Focused() {
			return w.updateQuery(msg)
		}
		return w.updateResults(msg)
	}
	return w, nil
}

func (w *widget) updateQuery(msg tea.KeyMsg) (stage.Widget, tea.Cmd) {
	switch msg.String() {
	case "enter":
		w.results = w.stage.Search(w.input.Value())
		w.searched = true
		w.cursor = 0
		if len(w.results) > 0 {
			w.input.Blur()
		}
		return w, nil
	case "down", "tab":
		if len(w.results) > 0 {
			w.input.Blur()
		}
		return w, nil
	}
	var cmd tea.Cmd
	w.input, cmd = w.input.Update(msg)
	return w, cmd
}

func (w *widget) updateResults(msg tea.KeyMsg) (stage.Widget, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if w.cursor > 0 {
			w.cursor--
		}
	case "down", "j":
		if w.cursor < len(w.results)-1 {
			w.cursor++
		}
	case "enter", " ":
		if w.cursor < len(w.results) {
			w.read(w.results[w.cursor])
		}
	case "/", "esc", "tab":
		return w, w.input.Focus()
	}
	return w, nil
}

func (w *widget) updateReader(msg tea.KeyMsg) (stage.Widget, tea.Cmd) {
	switch msg.String() {
	case "esc", "q", "backspace":
		w.open = -1
		return w, nil
	}
	var cmd tea.Cmd
	w.reader, cmd = w.reader.Update(msg)
	return w, cmd
}

func (w *widget) read(doc int) {
	w.open = doc
	d := w.stage.docs[doc]
	w.reader.SetContent(prose.Render(d.Body, w.reader.Width))
	w.reader.GotoTop()
	if d.Fact == "" || w.found[d.Fact] {
		return
	}
	w.found[d.Fact] = true
	if w.done {
		return
	}
	for _, fact := range w.stage.facts {
		if !w.found[fact] {
			return
		}
	}
	w.done = true
	w.binding.Complete()
}

func (w *widget) View() string {
	status := prose.Hint(fmt.Sprintf("found %d/%d", w.foundCount(), len(w.stage.facts)))
	if w.done {
		status = prose.Success(w.stage.success)
	}
	if w.open >= 0 {
		d := w.stage.docs[w.open]
		return prose.Join(
			prose.Focus(d.Title),
			w.reader.View(),
			prose.Hint("esc: back to results"),
			status,
		)
	}
	var rows []string
	for i, doc := range w.results {
		d := w.stage.docs[doc]
		row := fmt.Sprintf("%s  %s", d.Title, prose.Hint(d.Snippet))
		if i == w.cursor && !w.input.Focused() {
			row = prose.Focus("› "+d.Title) + "  " + prose.Hint(d.Snippet)
		} else {
			row = "  " + row
		}
		rows = append(rows, row)
	}
	if w.searched && len(w.results) == 0 {
		rows = append(rows, prose.Hint("no results"))
	}
	help := prose.Hint("enter: search · ↓ results")
	if !w.input.Focused() {
		help = prose.Hint("↑/↓ choose · enter open · / new search")
	}
	return prose.Join(
		prose.Render(w.stage.content, w.width),
		w.input.View(),
		strings.Join(rows, "\n"),
		help,
		status,
	)
}

func (w *widget) foundCount() int {
	n := 0
	for _, fact := range w.stage.facts {
		if w.found[fact] {
			n++
		}
	}
	return n
}
