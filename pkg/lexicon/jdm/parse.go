package jdm

import (
	"bufio"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/OFFIS-RIT/lexgraph/pkg/lexicon"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const maxLine = 4 << 20

var (
	reSense        = regexp.MustCompile(`^(.*?)\s;\s(.*?)\s;\s(\d+)$`)
	reNodeType     = regexp.MustCompile(`^nt;(\d+);'([^']*)'`)
	reEntity       = regexp.MustCompile(`^e;(\d+);'([^']+)';(\d+);(\d+)(?:;'([^']+)')?`)
	reRelation     = regexp.MustCompile(`^r;(\d+);(\d+);(\d+);(\d+);(\d+);([\d.]+);(\d+)`)
	reRelationText = regexp.MustCompile(`^rt;(\d+);'([^']+)';'([^']+)';(.*)`)
)

// Entity names carrying one of these markers are translations, raffinement
// pointers or external references, not lexical entries.
var skippedEntityMarkers = []string{">", "en:", "an:", "bn:", ":r", "wiki:", "umls:", "dbnary:"}

func newScanner(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLine)
	return sc
}

// ParseCompoundWords reads the multi-word expression list. Lines starting
// with "//" and blank lines are skipped; every other line with at least
// three ";"-separated fields contributes its second field, unquoted and
// lower-cased.
func ParseCompoundWords(r io.Reader) ([]string, error) {
	var words []string
	sc := newScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(line, "//") || strings.TrimSpace(line) == "" {
			continue
		}
		parts := strings.Split(line, ";")
		if len(parts) < 3 {
			continue
		}
		words = append(words, strings.ToLower(strings.Trim(parts[1], `"`)))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return words, nil
}

// ParseDisambiguation reads "term ; term>sense ; weight" lines into a table
// keyed by term. Lines whose middle field has no ">" are skipped.
func ParseDisambiguation(r io.Reader) (map[string][]lexicon.Candidate, error) {
	table := make(map[string][]lexicon.Candidate)
	sc := newScanner(r)
	for sc.Scan() {
		line := strings.ToLower(strings.TrimSpace(sc.Text()))
		m := reSense.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		parts := strings.Split(m[2], ">")
		if len(parts) < 2 {
			continue
		}
		weight, err := strconv.Atoi(m[3])
		if err != nil {
			continue
		}
		table[m[1]] = append(table[m[1]], lexicon.Candidate{Sense: parts[1], Weight: weight})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return table, nil
}

// codeText returns the text inside the <code> elements of page, or page
// itself when it has none.
func codeText(page string) string {
	z := html.NewTokenizer(strings.NewReader(page))
	var b strings.Builder
	depth, found := 0, false
	for {
		switch z.Next() {
		case html.ErrorToken:
			if !found {
				return page
			}
			return b.String()
		case html.StartTagToken:
			name, _ := z.TagName()
			if atom.Lookup(name) == atom.Code {
				depth++
				found = true
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if atom.Lookup(name) == atom.Code && depth > 0 {
				depth--
				b.WriteByte('\n')
			}
		case html.TextToken:
			if depth > 0 {
				b.Write(z.Text())
			}
		}
	}
}

func entityID(text string) string {
	for line := range strings.Lines(text) {
		_, after, ok := strings.Cut(line, "(eid=")
		if !ok {
			continue
		}
		id, _, _ := strings.Cut(after, ")")
		return strings.TrimSpace(id)
	}
	return ""
}

func skipEntity(name string) bool {
	for _, marker := range skippedEntityMarkers {
		if strings.Contains(name, marker) {
			return true
		}
	}
	return false
}

// cutComment ends a relation type comment at the next "rt;" or "//".
func cutComment(s string) string {
	end := len(s)
	if i := strings.Index(s, "rt;"); i >= 0 && i < end {
		end = i
	}
	if i := strings.Index(s, "//"); i >= 0 && i < end {
		end = i
	}
	return s[:end]
}

// ParseRelationDump reads a rezo-dump page. Records are taken from the
// <code> block; malformed records are skipped.
func ParseRelationDump(r io.Reader) (lexicon.RelationDump, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return lexicon.RelationDump{}, err
	}
	page := string(raw)
	text := codeText(page)

	dump := lexicon.RelationDump{EntityID: entityID(text)}
	if dump.EntityID == "" {
		dump.EntityID = entityID(page)
	}

	for line := range strings.Lines(text) {
		line = strings.TrimRight(line, "\r\n")
		switch {
		case strings.HasPrefix(line, "nt;"):
			if m := reNodeType.FindStringSubmatch(line); m != nil {
				id, _ := strconv.Atoi(m[1])
				dump.NodeTypes = append(dump.NodeTypes, lexicon.NodeType{ID: id, Name: m[2]})
			}
		case strings.HasPrefix(line, "e;"):
			if e, ok := parseEntity(line); ok {
				dump.Entities = append(dump.Entities, e)
			}
		case strings.HasPrefix(line, "rt;"):
			if m := reRelationText.FindStringSubmatch(line); m != nil {
				id, _ := strconv.Atoi(m[1])
				dump.RelationTexts = append(dump.RelationTexts, lexicon.RelationText{
					ID:      id,
					Name:    m[2],
					GPName:  m[3],
					Comment: cutComment(m[4]),
				})
			}
		case strings.HasPrefix(line, "r;"):
			if rel, ok := parseRelation(line); ok {
				dump.Relations = append(dump.Relations, rel)
			}
		}
	}
	return dump, nil
}

func parseEntity(line string) (lexicon.Entity, bool) {
	m := reEntity.FindStringSubmatch(line)
	if m == nil || skipEntity(m[2]) {
		return lexicon.Entity{}, false
	}
	id, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return lexicon.Entity{}, false
	}
	typ, err := strconv.Atoi(m[3])
	if err != nil {
		return lexicon.Entity{}, false
	}
	weight, err := strconv.Atoi(m[4])
	if err != nil {
		return lexicon.Entity{}, false
	}
	return lexicon.Entity{ID: id, Name: m[2], Type: typ, Weight: weight, FormattedName: m[5]}, true
}

func parseRelation(line string) (lexicon.Relation, bool) {
	m := reRelation.FindStringSubmatch(line)
	if m == nil {
		return lexicon.Relation{}, false
	}
	var ids [3]int64
	for i := range ids {
		v, err := strconv.ParseInt(m[i+1], 10, 64)
		if err != nil {
			return lexicon.Relation{}, false
		}
		ids[i] = v
	}
	typ, err := strconv.Atoi(m[4])
	if err != nil {
		return lexicon.Relation{}, false
	}
	weight, err := strconv.Atoi(m[5])
	if err != nil {
		return lexicon.Relation{}, false
	}
	norm, err := strconv.ParseFloat(m[6], 64)
	if err != nil {
		return lexicon.Relation{}, false
	}
	rank, err := strconv.Atoi(m[7])
	if err != nil {
		return lexicon.Relation{}, false
	}
	return lexicon.Relation{
		ID:               ids[0],
		SourceID:         ids[1],
		TargetID:         ids[2],
		Type:             typ,
		Weight:           weight,
		NormalizedWeight: norm,
		Rank:             rank,
	}, true
}
