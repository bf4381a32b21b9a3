package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"

	"github.com/dori/trailmap/internal/model"
)

// DocumentVersion is written into every new document
const DocumentVersion = "1.0.0"

// Document is the on-disk layout of the JSON store. Autoposting belongs to
// another collaborator and is carried through untouched.
type Document struct {
	Roadmaps    map[string]*model.Roadmap `json:"roadmaps"`
	LastUpdated time.Time                 `json:"lastUpdated"`
	Version     string                    `json:"version"`
	Autoposting json.RawMessage           `json:"autoposting,omitempty"`

	// skipped holds roadmap entries that did not decode, kept verbatim so
	// a rewrite does not drop them
	skipped map[string]json.RawMessage
}

// rawDocument is the first decoding pass. Only the shape of the top-level
// object is checked here.
type rawDocument struct {
	Roadmaps    map[string]json.RawMessage `json:"roadmaps"`
	LastUpdated json.RawMessage            `json:"lastUpdated"`
	Version     json.RawMessage            `json:"version"`
	Autoposting json.RawMessage            `json:"autoposting"`
}

var errEmptyDocument = errors.New("empty document")

// NewDocument returns an empty document
func NewDocument() *Document {
	return &Document{
		Roadmaps:    make(map[string]*model.Roadmap),
		LastUpdated: time.Now().UTC(),
		Version:     DocumentVersion,
		Autoposting: json.RawMessage("{}"),
	}
}

// decodeDocument parses raw file content. Empty content, a bare "{}" and
// anything that is not a JSON object with an object of roadmaps count as
// corrupt. A single roadmap that fails to decode is set aside instead.
func decodeDocument(raw []byte) (*Document, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "{}" {
		return nil, errEmptyDocument
	}

	var rd rawDocument
	if err := json.Unmarshal(trimmed, &rd); err != nil {
		return nil, err
	}

	doc := &Document{
		Roadmaps:    make(map[string]*model.Roadmap, len(rd.Roadmaps)),
		Autoposting: rd.Autoposting,
	}
	// Fields with the wrong type fall back to defaults in fill
	_ = json.Unmarshal(rd.LastUpdated, &doc.LastUpdated)
	_ = json.Unmarshal(rd.Version, &doc.Version)

	for key, entry := range rd.Roadmaps {
		var r *model.Roadmap
		if err := json.Unmarshal(entry, &r); err != nil {
			if doc.skipped == nil {
				doc.skipped = make(map[string]json.RawMessage)
			}
			doc.skipped[key] = entry
			continue
		}
		doc.Roadmaps[key] = r
	}

	doc.fill()
	return doc, nil
}

// fill repairs missing top-level fields and normalizes every roadmap
func (d *Document) fill() {
	if d.Roadmaps == nil {
		d.Roadmaps = make(map[string]*model.Roadmap)
	}
	if d.LastUpdated.IsZero() {
		d.LastUpdated = time.Now().UTC()
	}
	if d.Version == "" {
		d.Version = DocumentVersion
	}
	if len(d.Autoposting) == 0 || string(d.Autoposting) == "null" {
		d.Autoposting = json.RawMessage("{}")
	}
	for key, r := range d.Roadmaps {
		if r == nil {
			delete(d.Roadmaps, key)
			continue
		}
		if r.Key == "" {
			r.Key = key
		}
		r.Normalize()
	}
}

// set stores r under key, replacing any skipped entry with the same key
func (d *Document) set(key string, r *model.Roadmap) {
	delete(d.skipped, key)
	d.Roadmaps[key] = r
}

// remove drops key from both decoded and skipped entries
func (d *Document) remove(key string) bool {
	_, decoded := d.Roadmaps[key]
	_, skipped := d.skipped[key]
	delete(d.Roadmaps, key)
	delete(d.skipped, key)
	return decoded || skipped
}

func (d *Document) encode() ([]byte, error) {
	roadmaps := make(map[string]any, len(d.Roadmaps)+len(d.skipped))
	for key, entry := range d.skipped {
		roadmaps[key] = entry
	}
	for key, r := range d.Roadmaps {
		roadmaps[key] = r
	}

	return json.MarshalIndent(struct {
		Roadmaps    map[string]any  `json:"roadmaps"`
		LastUpdated time.Time       `json:"lastUpdated"`
		Version     string          `json:"version"`
		Autoposting json.RawMessage `json:"autoposting,omitempty"`
	}{roadmaps, d.LastUpdated, d.Version, d.Autoposting}, "", "  ")
}
