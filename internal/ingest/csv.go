package ingest

import (
	"bufio"
	"encoding/csv"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"

	"github.com/agentstation/featuresync/pkg/errors"
)

type csvSource struct {
	file *os.File
	r    *csv.Reader
	line int
}

func openCSV(path, enc string) (rowSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapIO("open", path, err)
	}

	decoder, err := lookupEncoding(enc)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	var in io.Reader = f
	if decoder != nil {
		in = transform.NewReader(f, decoder.NewDecoder())
	}

	r := csv.NewReader(stripUTF8BOM(bufio.NewReader(in)))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = false
	return &csvSource{file: f, r: r}, nil
}

func (s *csvSource) Next() ([]string, int, error) {
	record, err := s.r.Read()
	if err != nil {
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			return nil, perr.StartLine, err
		}
		return nil, s.line + 1, err
	}
	s.line, _ = s.r.FieldPos(0)
	return record, s.line, nil
}

func (s *csvSource) Close() error {
	return s.file.Close()
}

func stripUTF8BOM(r *bufio.Reader) *bufio.Reader {
	b, err := r.Peek(3)
	if err == nil && len(b) == 3 && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		_, _ = r.Discard(3)
	}
	return r
}

// lookupEncoding resolves a WHATWG encoding label. UTF-8 and the empty
// label need no decoding and return nil.
func lookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return nil, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, errors.NewValidationError("encoding", name, "unknown character encoding")
	}
	return enc, nil
}

func isEOF(err error) bool {
	return errors.Is(err, io.EOF)
}
