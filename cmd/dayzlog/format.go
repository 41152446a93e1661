package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/dayzlog/dayzlog-go/pkg/dayzlog/event"
)

// ValidFormats lists all valid output formats.
var ValidFormats = map[string]bool{
	"jsonl":  true,
	"pretty": true,
}

// OutputEvent writes an event in the specified format to the writer.
func OutputEvent(format string, ev event.Event, out io.Writer) error {
	switch format {
	case "jsonl":
		return OutputJSON(ev, out)
	case "pretty":
		return OutputPretty(ev, out)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// OutputJSON writes an event as JSON Lines format.
func OutputJSON(ev event.Event, out io.Writer) error {
	data, err := sonic.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

// OutputPretty writes an event in human-readable format.
func OutputPretty(ev event.Event, out io.Writer) error {
	ts := ev.Timestamp.Format("2006-01-02 15:04:05")

	var err error
	switch ev.Kind {
	case event.Connected:
		_, err = fmt.Fprintf(out, "[%s] + %s connected\n", ts, ev.Player.Name)
	case event.Disconnected:
		_, err = fmt.Fprintf(out, "[%s] - %s disconnected\n", ts, ev.Player.Name)
	case event.Kicked:
		_, err = fmt.Fprintf(out, "[%s] ! %s kicked\n", ts, ev.Player.Name)
	case event.KickedUnstableConnection:
		_, err = fmt.Fprintf(out, "[%s] ! %s kicked (unstable connection)\n", ts, ev.Player.Name)
	case event.ServerRestart:
		_, err = fmt.Fprintf(out, "[%s] # server restart\n", ts)
	default:
		// Custom kinds from pattern files or plugins
		switch {
		case len(ev.Data) > 0:
			_, err = fmt.Fprintf(out, "[%s] * %s: %s\n", ts, ev.Kind, formatData(ev.Data))
		case ev.Player.Name != "":
			_, err = fmt.Fprintf(out, "[%s] * %s: %s\n", ts, ev.Kind, ev.Player.Name)
		default:
			_, err = fmt.Fprintf(out, "[%s] * %s\n", ts, ev.Kind)
		}
	}

	return err
}

// formatData formats a map as sorted key=value pairs.
func formatData(data map[string]string) string {
	if len(data) == 0 {
		return ""
	}

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(data))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", quoteIfNeeded(k), quoteIfNeeded(data[k])))
	}
	return strings.Join(parts, " ")
}

// quoteIfNeeded quotes a value if it contains spaces, equals signs,
// quotes, backslashes or control characters.
func quoteIfNeeded(v string) string {
	if v == "" {
		return `""`
	}

	needsQuote := false
	for _, c := range v {
		if c == ' ' || c == '=' || c == '"' || c == '\\' || c < 0x20 || c == 0x7F {
			needsQuote = true
			break
		}
	}
	if !needsQuote {
		return v
	}

	var sb strings.Builder
	sb.WriteByte('"')
	for _, c := range v {
		switch {
		case c == '\\':
			sb.WriteString(`\\`)
		case c == '"':
			sb.WriteString(`\"`)
		case c == '\n':
			sb.WriteString(`\n`)
		case c == '\r':
			sb.WriteString(`\r`)
		case c == '\t':
			sb.WriteString(`\t`)
		case c < 0x20 || c == 0x7F:
			sb.WriteString(fmt.Sprintf(`\x%02x`, c))
		default:
			sb.WriteRune(c)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
