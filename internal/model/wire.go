package model

import (
	"encoding/json"
	"fmt"
)

// Card records travel as {"lines":[{"kind":K,"text":T},...]} where K
// is either a plain string ("PartOfSpeech", "Comment", "Aoristos") or
// a tagged meaning, {"Meaning":"gr"}.

type wireLine struct {
	Kind json.RawMessage `json:"kind"`
	Text string          `json:"text"`
}

func (l CardLine) MarshalJSON() ([]byte, error) {
	var kind any
	switch l.Kind {
	case LineMeaning:
		kind = map[string]Language{"Meaning": l.Language}
	default:
		kind = string(l.Kind)
	}
	return json.Marshal(struct {
		Kind any    `json:"kind"`
		Text string `json:"text"`
	}{kind, l.Text})
}

func (l *CardLine) UnmarshalJSON(data []byte) error {
	var w wireLine
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	var s string
	if err := json.Unmarshal(w.Kind, &s); err == nil {
		switch LineKind(s) {
		case LinePartOfSpeech, LineComment, LineAoristos:
			l.Kind = LineKind(s)
			l.Language = ""
			l.Text = w.Text
			return nil
		}
		return fmt.Errorf("unrecognized line kind %q", s)
	}

	var tagged struct {
		Meaning *Language `json:"Meaning"`
	}
	if err := json.Unmarshal(w.Kind, &tagged); err == nil && tagged.Meaning != nil {
		l.Kind = LineMeaning
		l.Language = *tagged.Meaning
		l.Text = w.Text
		return nil
	}

	return fmt.Errorf("unrecognized line kind %s", string(w.Kind))
}
