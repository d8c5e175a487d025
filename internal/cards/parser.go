// Package cards parses the line-oriented card file format:
//
//	uuid 3b9c4f4e-...   optional, assigned on import when absent
//	# free-form comment
//	en the dog
//	en the hound
//	gr ο σκύλος
//	pos noun
//	aoristos έγραψα
//
// Cards are separated by blank lines. The first word of each line is
// its kind tag; a line whose tag is not recognized fails the file.
package cards

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/mkaravas/melete/internal/model"
)

// File is one parsed card file.
type File struct {
	Path  string
	Cards []Card
}

// Card is a parsed card, not yet stored. UUID is uuid.Nil when the
// file does not carry one.
type Card struct {
	UUID      uuid.UUID
	StartLine int
	Lines     []model.CardLine
}

// ParseError reports the file position of an unusable line.
type ParseError struct {
	Path string
	Line int
	Kind string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: unrecognized line kind %q", e.Path, e.Line, e.Kind)
}

// ParseFile opens and parses a single card file.
func ParseFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(path, f)
}

// Parse reads card records from r. The path is used for diagnostics
// only.
func Parse(path string, r io.Reader) (*File, error) {
	file := &File{Path: path}
	scanner := bufio.NewScanner(r)

	var current *Card
	lineNo := 0
	finish := func() {
		if current != nil && (len(current.Lines) > 0 || current.UUID != uuid.Nil) {
			file.Cards = append(file.Cards, *current)
		}
		current = nil
	}

	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			finish()
			continue
		}
		if current == nil {
			current = &Card{StartLine: lineNo}
		}

		if strings.HasPrefix(line, "#") {
			current.Lines = append(current.Lines, model.CardLine{
				Kind: model.LineComment,
				Text: strings.TrimSpace(line[1:]),
			})
			continue
		}

		tag, rest, _ := strings.Cut(line, " ")
		rest = strings.TrimSpace(rest)
		switch tag {
		case "uuid":
			id, err := uuid.Parse(rest)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: bad uuid: %w", path, lineNo, err)
			}
			current.UUID = id
		case "en":
			current.Lines = append(current.Lines, model.CardLine{
				Kind: model.LineMeaning, Language: model.LanguageEnglish, Text: rest,
			})
		case "gr":
			current.Lines = append(current.Lines, model.CardLine{
				Kind: model.LineMeaning, Language: model.LanguageGreek, Text: rest,
			})
		case "pos":
			current.Lines = append(current.Lines, model.CardLine{
				Kind: model.LinePartOfSpeech, Text: rest,
			})
		case "aoristos":
			current.Lines = append(current.Lines, model.CardLine{
				Kind: model.LineAoristos, Text: rest,
			})
		default:
			return nil, &ParseError{Path: path, Line: lineNo, Kind: tag}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	finish()

	return file, nil
}
