// Package command turns raw chat text into validated command intents.
//
// Every command-like string in the system passes through here before
// execution, whether it was typed by a user or produced by the language
// model. Parsing is a closed whitelist match on the first token; nothing
// outside the whitelist is ever executed.
package command

import (
	"strings"
)

// Kind classifies the outcome of parsing a raw string.
type Kind int

const (
	// NotACommand means the string carries no command sentinel and is
	// plain conversation. It must be treated as text, never executed.
	NotACommand Kind = iota
	// Unrecognized means the string looked like a command but failed the
	// whitelist or shape check. It must be reported, never executed.
	Unrecognized
	// Recognized means the string parsed to a whitelisted command.
	Recognized
)

// ArgPolicy describes what a command does with the text after its name.
type ArgPolicy int

const (
	// ArgNone discards any remainder. This is the default: no command
	// besides the ones explicitly marked otherwise accepts free-form
	// input, which closes the surface where a model could smuggle
	// parameters into an unrelated command.
	ArgNone ArgPolicy = iota
	// ArgRequired keeps the remainder and rejects the command without it.
	ArgRequired
	// ArgOptional keeps the remainder if present.
	ArgOptional
)

// Intent is the parsed, validated meaning of a raw text input.
type Intent struct {
	Kind Kind
	Name string // set for Recognized and Unrecognized (when a name was extracted)
	Arg  string // set for Recognized commands that keep their argument
}

// sentinels are the accepted command prefix characters.
const sentinels = "!/"

// Parser validates raw strings against a fixed command table.
type Parser struct {
	table map[string]ArgPolicy
}

// NewParser creates a Parser for the given command table. The table is
// copied; the Parser never changes after construction.
func NewParser(table map[string]ArgPolicy) *Parser {
	t := make(map[string]ArgPolicy, len(table))
	for name, policy := range table {
		t[strings.ToLower(name)] = policy
	}
	return &Parser{table: t}
}

// ModelTable is the whitelist for model-proposed commands. A completion
// reply may trigger these verbs and nothing else.
func ModelTable() map[string]ArgPolicy {
	return map[string]ArgPolicy{
		"play":   ArgRequired,
		"skip":   ArgNone,
		"pause":  ArgNone,
		"resume": ArgNone,
		"join":   ArgNone,
		"leave":  ArgNone,
	}
}

// Parse validates a raw string. It never returns an executable intent for
// input that does not exactly match a whitelisted command.
func (p *Parser) Parse(raw string) Intent {
	raw = trimEnclosing(raw)

	if raw == "" || !strings.ContainsRune(sentinels, rune(raw[0])) {
		return Intent{Kind: NotACommand}
	}

	// Strip exactly one sentinel. "!!play" is not a command invocation.
	body := strings.TrimSpace(raw[1:])
	if body == "" || strings.ContainsRune(sentinels, rune(body[0])) {
		return Intent{Kind: Unrecognized}
	}

	name, remainder, _ := strings.Cut(body, " ")
	name = strings.ToLower(name)
	remainder = strings.TrimSpace(remainder)

	policy, ok := p.table[name]
	if !ok {
		return Intent{Kind: Unrecognized, Name: name}
	}

	switch policy {
	case ArgRequired:
		if remainder == "" {
			return Intent{Kind: Unrecognized, Name: name}
		}
		return Intent{Kind: Recognized, Name: name, Arg: remainder}
	case ArgOptional:
		return Intent{Kind: Recognized, Name: name, Arg: remainder}
	default:
		return Intent{Kind: Recognized, Name: name}
	}
}

// trimEnclosing removes quote and code-fence punctuation wrapped around
// the whole string. Model replies routinely arrive fenced or quoted; no
// other escaping or sanitization happens here.
func trimEnclosing(s string) string {
	s = strings.TrimSpace(s)
	for {
		trimmed := strings.TrimSpace(strings.Trim(s, "`\"'"))
		if trimmed == s {
			return s
		}
		s = trimmed
	}
}
