package querymap

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// UnknownModule is the module code of files whose name is shorter than three characters.
const UnknownModule = "unknown"

// ErrParse is returned when an input is not a well-formed queryMap document.
var ErrParse = errors.New("invalid queryMap XML")

// Query is one converted query.
type Query struct {
	ID       string `json:"id"`
	Desc     string `json:"desc"`
	FileName string `json:"file_name"`
	MapDesc  string `json:"query_map_desc"`
	Query    string `json:"query"`
}

// File is a converted queryMap: the queries of one input file under its module code.
// Queries keep document order; a repeated id replaces the earlier query in place.
type File struct {
	Module  string
	Queries *orderedmap.OrderedMap[string, Query]
}

type xmlQueryMap struct {
	Desc    string     `xml:"desc,attr"`
	Queries []xmlQuery `xml:"query"`
}

type xmlQuery struct {
	ID   string `xml:"id,attr"`
	Desc string `xml:"desc,attr"`
	Text string `xml:",chardata"`
}

// ModuleCode returns the lowercased first three characters of fileName.
func ModuleCode(fileName string) string {
	r := []rune(fileName)
	if len(r) < 3 {
		return UnknownModule
	}
	return strings.ToLower(string(r[:3]))
}

// WrapQuery trims the query text and wraps it in the CDATA marker kept in the output.
func WrapQuery(text string) string {
	return "<![CDATA[\n" + strings.TrimSpace(text) + "\n         ]]>"
}

// Parse converts the queryMap document read from r. fileName is the base name
// recorded in every query and the source of the module code.
func Parse(r io.Reader, fileName string) (*File, error) {
	var doc xmlQueryMap
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrParse, fileName, err)
	}

	f := &File{
		Module:  ModuleCode(fileName),
		Queries: orderedmap.New[string, Query](),
	}
	for _, q := range doc.Queries {
		f.Queries.Set(q.ID, Query{
			ID:       q.ID,
			Desc:     q.Desc,
			FileName: fileName,
			MapDesc:  doc.Desc,
			Query:    WrapQuery(q.Text),
		})
	}
	return f, nil
}

// ParseFile converts the queryMap file at path.
func ParseFile(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	return Parse(fh, filepath.Base(path))
}

// MarshalJSON encodes the file as {"<module>": {"<id>": {...}}} in document order.
// Markup characters are written as-is so the CDATA marker stays readable.
func (f *File) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if err := encodeRaw(&buf, f.Module); err != nil {
		return nil, err
	}
	buf.WriteString(":{")
	for pair := f.Queries.Oldest(); pair != nil; pair = pair.Next() {
		if pair != f.Queries.Oldest() {
			buf.WriteByte(',')
		}
		if err := encodeRaw(&buf, pair.Key); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := encodeRaw(&buf, pair.Value); err != nil {
			return nil, err
		}
	}
	buf.WriteString("}}")
	return buf.Bytes(), nil
}

// encodeRaw appends v to buf without HTML escaping or a trailing newline.
func encodeRaw(buf *bytes.Buffer, v any) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	buf.Truncate(buf.Len() - 1)
	return nil
}

// WriteJSON writes the file as JSON indented by four spaces.
func (f *File) WriteJSON(w io.Writer) error {
	compact, err := f.MarshalJSON()
	if err != nil {
		return err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, compact, "", "    "); err != nil {
		return err
	}
	out.WriteByte('\n')
	_, err = out.WriteTo(w)
	return err
}
