package domain

import (
	"strings"
	"unicode/utf8"
)

// CommandKind tags what the bridge does with a polled string.
type CommandKind int

const (
	CommandIgnored CommandKind = iota
	CommandTerminate
	CommandLighting
)

func (k CommandKind) String() string {
	switch k {
	case CommandTerminate:
		return "terminate"
	case CommandLighting:
		return "lighting"
	default:
		return "ignored"
	}
}

const (
	terminateLiteral   = "end"
	legacyStopLiteral  = "fadestopreset"
	lightingPrefix     = "DMX"
	lightingStopPrefix = "DMX end"
	// The Host separates the prefix from the payload with one space, so the
	// payload starts after four characters, not after the three-char prefix.
	lightingPayloadOffset = 4
	escapedNewline        = `\n`
)

// Command is the classified form of one polled string.
type Command struct {
	Kind CommandKind
	// Raw is the string exactly as polled.
	Raw string
	// Payload is the Console-bound remainder for lighting commands.
	Payload string
	// StopAfter marks a lighting command that also ends the run once forwarded.
	StopAfter bool
}

// Classify maps a polled string to a Command. Matching is literal and
// case-sensitive; nothing is trimmed.
func Classify(s string) Command {
	if s == terminateLiteral {
		return Command{Kind: CommandTerminate, Raw: s}
	}
	if strings.HasPrefix(s, lightingPrefix) {
		return Command{
			Kind:      CommandLighting,
			Raw:       s,
			Payload:   lightingPayload(s),
			StopAfter: strings.HasPrefix(s, lightingStopPrefix),
		}
	}
	return Command{Kind: CommandIgnored, Raw: s}
}

// ClassifyOneShot is the legacy classification: "fadestopreset" also
// terminates and "DMX end" is forwarded without stopping the run.
func ClassifyOneShot(s string) Command {
	if s == terminateLiteral || s == legacyStopLiteral {
		return Command{Kind: CommandTerminate, Raw: s}
	}
	if strings.HasPrefix(s, lightingPrefix) {
		return Command{Kind: CommandLighting, Raw: s, Payload: lightingPayload(s)}
	}
	return Command{Kind: CommandIgnored, Raw: s}
}

// SubCommands expands escaped newlines and splits the payload into the
// ordered messages sent to the Console. Empty segments are kept.
func (c Command) SubCommands() []string {
	if c.Kind != CommandLighting {
		return nil
	}
	return strings.Split(strings.ReplaceAll(c.Payload, escapedNewline, "\n"), "\n")
}

// lightingPayload drops the first four characters, counted in runes so a
// multi-byte separator never leaves half a rune in the payload.
func lightingPayload(s string) string {
	for range lightingPayloadOffset {
		if s == "" {
			return ""
		}
		_, size := utf8.DecodeRuneInString(s)
		s = s[size:]
	}
	return s
}
