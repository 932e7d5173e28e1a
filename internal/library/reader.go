package library

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/desertthunder/ratingsync/internal/shared"
)

// Marker kinds. Value markers use the plist element name (string, integer, date, true, false, ...).
const (
	KindKey     = "key"
	KindString  = "string"
	KindInteger = "integer"
)

// Marker is one child element of a track dictionary.
type Marker struct {
	Kind string // Element name
	Text string // Character data, empty for <true/> and <false/>
}

// TrackNode is the alternating key/value marker run of a single track dictionary.
type TrackNode struct {
	Markers []Marker
}

// Key appends a key marker and returns the node for chaining.
func (n TrackNode) Key(name string) TrackNode {
	n.Markers = append(n.Markers, Marker{Kind: KindKey, Text: name})
	return n
}

// Value appends a value marker of the given kind and returns the node for chaining.
func (n TrackNode) Value(kind, text string) TrackNode {
	n.Markers = append(n.Markers, Marker{Kind: kind, Text: text})
	return n
}

type markerValue struct {
	Text string `xml:",chardata"`
}

// Scan streams track nodes out of a property list document.
//
// The sequence stops after the first error, which is yielded wrapped in [shared.ErrSourceParse].
func Scan(r io.Reader) iter.Seq2[TrackNode, error] {
	return func(yield func(TrackNode, error) bool) {
		d := xml.NewDecoder(r)
		var stack []string

		for {
			tok, err := d.Token()
			if errors.Is(err, io.EOF) {
				if len(stack) > 0 {
					yield(TrackNode{}, fmt.Errorf("%w: unexpected end of document inside <%s>", shared.ErrSourceParse, stack[len(stack)-1]))
				}
				return
			}
			if err != nil {
				yield(TrackNode{}, fmt.Errorf("%w: %v", shared.ErrSourceParse, err))
				return
			}

			switch t := tok.(type) {
			case xml.StartElement:
				name := t.Name.Local
				if name == "dict" && isTrackParent(stack) {
					node, err := readTrack(d)
					if err != nil {
						yield(TrackNode{}, fmt.Errorf("%w: %v", shared.ErrSourceParse, err))
						return
					}
					if !yield(node, nil) {
						return
					}
					continue
				}
				stack = append(stack, name)
			case xml.EndElement:
				if len(stack) > 0 {
					stack = stack[:len(stack)-1]
				}
			}
		}
	}
}

// ReadTracks collects every track node of a property list document.
func ReadTracks(r io.Reader) ([]TrackNode, error) {
	var nodes []TrackNode
	for node, err := range Scan(r) {
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

// isTrackParent reports whether a dict opened under the given element stack is a track (dict > dict > dict).
func isTrackParent(stack []string) bool {
	n := len(stack)
	return n >= 2 && stack[n-1] == "dict" && stack[n-2] == "dict"
}

// readTrack consumes a track dictionary up to and including its closing tag.
func readTrack(d *xml.Decoder) (TrackNode, error) {
	var node TrackNode
	for {
		tok, err := d.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return node, fmt.Errorf("unexpected end of document inside track")
			}
			return node, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			var v markerValue
			if err := d.DecodeElement(&v, &t); err != nil {
				return node, fmt.Errorf("failed to decode <%s>: %w", t.Name.Local, err)
			}
			node.Markers = append(node.Markers, Marker{Kind: t.Name.Local, Text: v.Text})
		case xml.EndElement:
			return node, nil
		}
	}
}
