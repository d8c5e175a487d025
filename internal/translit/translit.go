// Package translit converts Latin-keyboard input into the target
// script, one keystroke at a time. The mapping mirrors a Greek
// phonetic keyboard layout: `;` before a vowel adds an acute accent,
// `:` adds a diaeresis, and the two combine.
package translit

import (
	"strings"

	"github.com/mkaravas/melete/internal/model"
)

// Transliterate converts text typed on a Latin keyboard into the
// given language's script. Languages without a mapping pass through
// unchanged.
func Transliterate(lang model.Language, text string) string {
	if lang != model.LanguageGreek {
		return text
	}
	s := ""
	for _, c := range text {
		s = pushGreek(s, c)
	}
	return s
}

// pushGreek appends one keystroke to the partially transliterated
// string. Pending `;`/`:` modifiers at the end of s are consumed when
// the keystroke maps to an accented or diaeresis form.
func pushGreek(s string, c rune) string {
	push := func(neither, semi, colon, both rune) string {
		var hasSemi, hasColon bool
		switch {
		case strings.HasSuffix(s, ":;"), strings.HasSuffix(s, ";:"):
			hasSemi, hasColon = true, true
		case strings.HasSuffix(s, ":"):
			hasColon = true
		case strings.HasSuffix(s, ";"):
			hasSemi = true
		}

		modifiers, modified := 0, neither
		switch {
		case hasSemi && hasColon && neither != both:
			modifiers, modified = 2, both
		case hasSemi && neither != semi:
			modifiers, modified = 1, semi
		case hasColon && neither != colon:
			modifiers, modified = 1, colon
		}

		return s[:len(s)-modifiers] + string(modified)
	}

	switch c {
	case 'a':
		return push('α', 'ά', 'α', 'α')
	case 'b':
		return push('β', 'β', 'β', 'β')
	case 'g':
		return push('γ', 'γ', 'γ', 'γ')
	case 'd':
		return push('δ', 'δ', 'δ', 'δ')
	case 'e':
		return push('ε', 'έ', 'ε', 'ε')
	case 'z':
		return push('ζ', 'ζ', 'ζ', 'ζ')
	case 'h':
		return push('η', 'ή', 'η', 'η')
	case 'u':
		return push('θ', 'θ', 'θ', 'θ')
	case 'i':
		return push('ι', 'ί', 'ϊ', 'ΐ')
	case 'k':
		return push('κ', 'κ', 'κ', 'κ')
	case 'l':
		return push('λ', 'λ', 'λ', 'λ')
	case 'm':
		return push('μ', 'μ', 'μ', 'μ')
	case 'n':
		return push('ν', 'ν', 'ν', 'ν')
	case 'j':
		return push('ξ', 'ξ', 'ξ', 'ξ')
	case 'o':
		return push('ο', 'ό', 'ο', 'ο')
	case 'p':
		return push('π', 'π', 'π', 'π')
	case 'r':
		return push('ρ', 'ρ', 'ρ', 'ρ')
	case 's':
		return push('σ', 'σ', 'σ', 'σ')
	case 't':
		return push('τ', 'τ', 'τ', 'τ')
	case 'y':
		return push('υ', 'ύ', 'υ', 'υ')
	case 'f':
		return push('φ', 'φ', 'φ', 'φ')
	case 'x':
		return push('χ', 'χ', 'χ', 'χ')
	case 'c':
		return push('ψ', 'ψ', 'ψ', 'ψ')
	case 'v':
		return push('ω', 'ώ', 'ω', 'ω')
	case 'w':
		return push('ς', 'ς', 'ς', 'ς')
	case 'q':
		return push(';', ';', ';', ';')

	case 'A':
		return push('Α', 'Ά', 'Α', 'Α')
	case 'B':
		return push('Β', 'Β', 'Β', 'Β')
	case 'G':
		return push('Γ', 'Γ', 'Γ', 'Γ')
	case 'D':
		return push('Δ', 'Δ', 'Δ', 'Δ')
	case 'E':
		return push('Ε', 'Έ', 'Ε', 'Ε')
	case 'Z':
		return push('Ζ', 'Ζ', 'Ζ', 'Ζ')
	case 'H':
		return push('Η', 'Ή', 'Η', 'Η')
	case 'U':
		return push('Θ', 'Θ', 'Θ', 'Θ')
	case 'I':
		return push('Ι', 'Ί', 'Ϊ', 'Ι')
	case 'K':
		return push('Κ', 'Κ', 'Κ', 'Κ')
	case 'L':
		return push('Λ', 'Λ', 'Λ', 'Λ')
	case 'M':
		return push('Μ', 'Μ', 'Μ', 'Μ')
	case 'N':
		return push('Ν', 'Ν', 'Ν', 'Ν')
	case 'J':
		return push('Ξ', 'Ξ', 'Ξ', 'Ξ')
	case 'O':
		return push('Ο', 'Ό', 'Ο', 'Ο')
	case 'P':
		return push('Π', 'Π', 'Π', 'Π')
	case 'R':
		return push('Ρ', 'Ρ', 'Ρ', 'Ρ')
	case 'S':
		return push('Σ', 'Σ', 'Σ', 'Σ')
	case 'T':
		return push('Τ', 'Τ', 'Τ', 'Τ')
	case 'Y':
		return push('Υ', 'Ύ', 'Υ', 'Υ')
	case 'F':
		return push('Φ', 'Φ', 'Φ', 'Φ')
	case 'X':
		return push('Χ', 'Χ', 'Χ', 'Χ')
	case 'C':
		return push('Ψ', 'Ψ', 'Ψ', 'Ψ')
	case 'V':
		return push('Ω', 'Ώ', 'Ω', 'Ω')
	case 'Q':
		return push(':', ':', ':', ':')
	}

	return push(c, c, c, c)
}
