package extract

import (
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/lu4p/cat/docxtxt"
	"github.com/lu4p/cat/odtxt"
	"github.com/lu4p/cat/rtftxt"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// readText decodes a plain text file. A UTF-8 or UTF-16 byte-order mark
// selects the encoding and is dropped; without one the bytes are read as
// UTF-8 with invalid sequences replaced.
func readText(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtraction, err)
	}
	defer f.Close()

	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	data, err := io.ReadAll(transform.NewReader(f, dec))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtraction, err)
	}
	return string(data), nil
}

// officeReaders holds the lu4p/cat parser for each office media type.
var officeReaders = map[string]func([]byte) (string, error){
	TypeDOCX: docxtxt.BytesToStr,
	TypeODT:  odtxt.BytesToStr,
	TypeRTF:  rtftxt.BytesToStr,
}

// readOffice extracts .docx, .odt or .rtf text with the parser for typ.
// The content must sniff as typ; anything else is an extraction failure.
func readOffice(path, typ string) (string, error) {
	parse, ok := officeReaders[typ]
	if !ok {
		return "", ErrUnsupportedType
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtraction, err)
	}
	if got := DetectType(mimetype.Detect(data)); got != typ {
		return "", fmt.Errorf("%w: content is %s, not %s", ErrExtraction, got, typ)
	}

	text, err := parse(data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtraction, err)
	}
	if !utf8.ValidString(text) {
		return "", fmt.Errorf("%w: document text is not valid UTF-8", ErrExtraction)
	}
	return text, nil
}
