package metadata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	mushaferrors "github.com/FocuswithJustin/mushaf/core/errors"
	"github.com/FocuswithJustin/mushaf/core/partition"
	"github.com/FocuswithJustin/mushaf/core/ref"
	"github.com/FocuswithJustin/mushaf/core/xml"
	"github.com/FocuswithJustin/mushaf/internal/validation"
)

// MarkerKeys returns the boundary keys every metadata file must carry, in
// kind order.
func MarkerKeys() []string {
	var keys []string
	for _, spec := range partition.Specs {
		if spec.Source == partition.SourceMarkers {
			keys = append(keys, spec.MarkerKey)
		}
	}
	return keys
}

// LoadBoundaries reads boundary markers from a JSON or XML file. The format
// comes from the extension, or from the first character for text files
// without one.
func LoadBoundaries(path string) (partition.Boundaries, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, mushaferrors.NewIO("read", path, err)
	}
	fileType, err := validation.DetectFileType(bytes.NewReader(data), path)
	if err != nil {
		return nil, mushaferrors.NewUnsupported("boundary format", err.Error())
	}
	if fileType == validation.FileTypeText {
		switch trimmed := bytes.TrimSpace(data); {
		case bytes.HasPrefix(trimmed, []byte("{")):
			fileType = validation.FileTypeJSON
		case bytes.HasPrefix(trimmed, []byte("<")):
			fileType = validation.FileTypeXML
		}
	}
	switch fileType {
	case validation.FileTypeJSON:
		return ParseBoundariesJSON(bytes.NewReader(data), path)
	case validation.FileTypeXML:
		return ParseBoundariesXML(bytes.NewReader(data), path)
	}
	return nil, mushaferrors.NewUnsupported("boundary format", string(fileType))
}

// ParseBoundariesJSON decodes an object of marker lists. Markers are either
// [chapter, verse] pairs or "chapter:verse" strings. Keys other than the
// marker keys are ignored.
func ParseBoundariesJSON(r io.Reader, source string) (partition.Boundaries, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, &mushaferrors.ParseError{Format: "JSON", Path: source, Message: err.Error(), Err: err}
	}

	b := make(partition.Boundaries)
	for _, key := range MarkerKeys() {
		msg, ok := raw[key]
		if !ok {
			return nil, mushaferrors.NewConfiguration(source, "missing %q markers", key)
		}
		var markers []ref.Ref
		if err := json.Unmarshal(msg, &markers); err != nil {
			return nil, &mushaferrors.ParseError{Format: "JSON", Path: source, Message: fmt.Sprintf("%s: %v", key, err), Err: err}
		}
		if err := validateMarkers(markers, key); err != nil {
			return nil, err
		}
		b[key] = markers
	}
	return b, nil
}

// ParseBoundariesXML reads /boundaries/<key>/marker elements. A marker has
// chapter and verse attributes, or "chapter:verse" text.
func ParseBoundariesXML(r io.Reader, source string) (partition.Boundaries, error) {
	doc, err := xml.Parse(r)
	if err != nil {
		return nil, &mushaferrors.ParseError{Format: "XML", Path: source, Message: err.Error(), Err: err}
	}

	b := make(partition.Boundaries)
	for _, key := range MarkerKeys() {
		section, err := doc.XPathFirst("/boundaries/" + key)
		if err != nil {
			return nil, err
		}
		if section == nil {
			return nil, mushaferrors.NewConfiguration(source, "missing %q markers", key)
		}
		nodes, err := doc.XPath("/boundaries/" + key + "/marker")
		if err != nil {
			return nil, err
		}
		markers := make([]ref.Ref, 0, len(nodes))
		for i, n := range nodes {
			m, err := markerFromNode(n)
			if err != nil {
				return nil, &mushaferrors.ParseError{Format: "XML", Path: source,
					Message: fmt.Sprintf("%s marker %d: %v", key, i+1, err), Err: err}
			}
			markers = append(markers, m)
		}
		if err := validateMarkers(markers, key); err != nil {
			return nil, err
		}
		b[key] = markers
	}
	return b, nil
}

func markerFromNode(n *xml.Node) (ref.Ref, error) {
	if !n.HasAttr("chapter") {
		return ref.Parse(n.Text())
	}
	chapter, err := strconv.Atoi(strings.TrimSpace(n.Attr("chapter")))
	if err != nil {
		return ref.Ref{}, fmt.Errorf("chapter: %w", err)
	}
	verse, err := strconv.Atoi(strings.TrimSpace(n.Attr("verse")))
	if err != nil {
		return ref.Ref{}, fmt.Errorf("verse: %w", err)
	}
	r := ref.Ref{Chapter: chapter, Verse: verse}
	return r, r.Validate()
}

func validateMarkers(markers []ref.Ref, key string) error {
	for i, m := range markers {
		if err := m.Validate(); err != nil {
			return mushaferrors.NewConfiguration(key, "marker %d: %v", i+1, err)
		}
	}
	return nil
}
