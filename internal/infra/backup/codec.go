package backup

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/Spok95/esencia/internal/domain/inventory"
)

type Format string

const (
	FormatJSON    Format = "json"
	FormatMsgpack Format = "msgpack"
)

// ParseFormat accepts a format name; empty means JSON.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatMsgpack:
		return FormatMsgpack, nil
	default:
		return "", fmt.Errorf("unknown backup format %q", s)
	}
}

func (f Format) ContentType() string {
	if f == FormatMsgpack {
		return "application/msgpack"
	}
	return "application/json"
}

func (f Format) Extension() string {
	if f == FormatMsgpack {
		return "msgpack"
	}
	return "json"
}

// Encode writes the snapshot. JSON is indented so exports stay readable.
func Encode(w io.Writer, snap inventory.Snapshot, f Format) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(snap); err != nil {
			return fmt.Errorf("encode json backup: %w", err)
		}
	case FormatMsgpack:
		if err := msgpack.NewEncoder(w).Encode(snap); err != nil {
			return fmt.Errorf("encode msgpack backup: %w", err)
		}
	default:
		return fmt.Errorf("unknown backup format %q", f)
	}
	return nil
}

func Decode(r io.Reader, f Format) (inventory.Snapshot, error) {
	var snap inventory.Snapshot
	switch f {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&snap); err != nil {
			return snap, fmt.Errorf("decode json backup: %w", err)
		}
	case FormatMsgpack:
		if err := msgpack.NewDecoder(r).Decode(&snap); err != nil {
			return snap, fmt.Errorf("decode msgpack backup: %w", err)
		}
	default:
		return snap, fmt.Errorf("unknown backup format %q", f)
	}
	return snap, nil
}
