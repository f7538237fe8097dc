package splitter

import (
	"bufio"
	"fmt"
	"regexp"
	"strings"

	"github.com/mdsplit/mdsplit-mcp/pkg/types"
)

const (
	// maxLineBytes is the scanner buffer limit for a single input line.
	// Lines beyond this are an internal fault, not a parse result.
	maxLineBytes = 4 * 1024 * 1024
)

var (
	// headingLine matches an ATX heading: a '#' run at column zero followed
	// by whitespace or end of line. Indented '#' lines are content.
	headingLine = regexp.MustCompile(`^(#+)(?:\s+(.*))?$`)

	// fenceLine matches a code fence marker: three or more backticks or
	// tildes, optionally followed by a language tag.
	fenceLine = regexp.MustCompile("^(`{3,}|~{3,})\\s*([\\w+.-]*)\\s*$")
)

// Splitter splits markdown text into hierarchical sections.
//
// A Splitter holds no state between calls; a single instance is safe to
// share across any number of concurrent Split calls.
type Splitter struct{}

// New creates a new Splitter instance
func New() *Splitter {
	return &Splitter{}
}

// Split scans markdown text and returns its sections in document order,
// with parent-chain and sibling metadata attached.
//
// A document with no headings (including the empty string) yields an empty
// slice and nil error. A non-nil error indicates an internal scan fault,
// never a property of the input's markdown structure.
func (s *Splitter) Split(text string) ([]types.Section, error) {
	sections, err := s.scanSections(text)
	if err != nil {
		return nil, err
	}

	s.attachHierarchy(sections)
	return sections, nil
}

// openSection tracks the section currently receiving content lines during
// the first pass.
type openSection struct {
	header string
	level  int
	lines  []string
}

// scanSections is pass 1: classify lines and group them into sections.
//
// The scan keeps a fence flag so heading syntax inside fenced code blocks is
// never interpreted. Fence and code lines still land in the current
// section's content verbatim. Content before the first heading is discarded.
func (s *Splitter) scanSections(text string) ([]types.Section, error) {
	sections := make([]types.Section, 0)
	var current *openSection

	var inFence bool
	var fenceChar byte

	flush := func() {
		if current == nil {
			return
		}
		sec := types.NewSection(current.header, current.level, trimBlankLines(current.lines))
		sections = append(sections, sec)
		current = nil
	}

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), maxLineBytes)

	for scanner.Scan() {
		line := scanner.Text()

		if m := fenceLine.FindStringSubmatch(line); m != nil {
			if !inFence {
				inFence = true
				fenceChar = m[1][0]
			} else if m[1][0] == fenceChar {
				inFence = false
			}
			if current != nil {
				current.lines = append(current.lines, line)
			}
			continue
		}

		if !inFence {
			if m := headingLine.FindStringSubmatch(line); m != nil {
				flush()
				current = &openSection{header: m[2], level: len(m[1])}
				continue
			}
		}

		if current != nil {
			current.lines = append(current.lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan markdown: %w", err)
	}

	flush()
	return sections, nil
}

// attachHierarchy is pass 2: compute parent chains and sibling lists.
//
// Parents are computed online with a per-level ancestor table. Sibling lists
// need the complete section list, so they are assembled in a final grouping
// pass keyed by (level, parent chain).
func (s *Splitter) attachHierarchy(sections []types.Section) {
	// Nearest preceding ancestor header per level. A new heading at level L
	// invalidates everything tracked at L and deeper.
	ancestors := make(map[int]string)
	maxLevel := 0

	groups := make(map[string][]int)

	for i := range sections {
		sec := &sections[i]

		for l := sec.Level; l <= maxLevel; l++ {
			delete(ancestors, l)
		}

		for l := 1; l < sec.Level; l++ {
			if header, ok := ancestors[l]; ok {
				sec.Metadata.Parents[types.LevelLabel(l)] = header
			}
		}

		ancestors[sec.Level] = sec.Header
		if sec.Level > maxLevel {
			maxLevel = sec.Level
		}

		key := groupKey(sec)
		groups[key] = append(groups[key], i)
	}

	for _, members := range groups {
		if len(members) < 2 {
			continue
		}
		for _, i := range members {
			for _, j := range members {
				if i == j {
					continue
				}
				sections[i].Metadata.Siblings = append(sections[i].Metadata.Siblings, sections[j].Header)
			}
		}
	}
}

// groupKey identifies a sibling group: same level, same parent chain.
// Parents are encoded in ascending level order so the key is deterministic.
// Headers are quoted so delimiter characters in a header cannot collide
// with the key structure.
func groupKey(sec *types.Section) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d", sec.Level)
	for l := 1; l < sec.Level; l++ {
		if header, ok := sec.Metadata.Parents[types.LevelLabel(l)]; ok {
			fmt.Fprintf(&b, "|%d=%q", l, header)
		}
	}
	return b.String()
}

// trimBlankLines joins content lines, dropping leading and trailing blank
// lines while preserving interior whitespace verbatim.
func trimBlankLines(lines []string) string {
	start := 0
	for start < len(lines) && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	end := len(lines)
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return strings.Join(lines[start:end], "\n")
}
