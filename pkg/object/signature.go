package object

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Identity names the author or committer of a commit.
type Identity struct {
	Name  string
	Email string
}

// String renders the identity as "Name <email>".
func (id Identity) String() string {
	return id.Name + " <" + id.Email + ">"
}

// Validate rejects names and emails that the commit grammar cannot carry.
func (id Identity) Validate() error {
	if i := strings.IndexAny(id.Name, "\x00<>\n"); i >= 0 {
		return fmt.Errorf("%w: name %q contains %q", ErrInvalidIdentity, id.Name, id.Name[i])
	}
	if i := strings.IndexAny(id.Email, "\x00<>\n"); i >= 0 {
		return fmt.Errorf("%w: email %q contains %q", ErrInvalidIdentity, id.Email, id.Email[i])
	}
	return nil
}

// ParseIdentity parses "Name <email>", trimming surrounding whitespace.
func ParseIdentity(s string) (Identity, error) {
	lt := strings.IndexByte(s, '<')
	gt := strings.LastIndexByte(s, '>')
	if lt < 0 || gt < lt {
		return Identity{}, fmt.Errorf("%w: %q is not \"Name <email>\"", ErrInvalidIdentity, s)
	}
	id := Identity{
		Name:  strings.TrimSpace(s[:lt]),
		Email: strings.TrimSpace(s[lt+1 : gt]),
	}
	if err := id.Validate(); err != nil {
		return Identity{}, err
	}
	return id, nil
}

// appendSignature appends "name <email> seconds ±HHMM".
func appendSignature(dst []byte, id Identity, when time.Time) []byte {
	dst = append(dst, id.Name...)
	dst = append(dst, " <"...)
	dst = append(dst, id.Email...)
	dst = append(dst, "> "...)
	dst = strconv.AppendInt(dst, when.Unix(), 10)
	dst = append(dst, ' ')
	return append(dst, FormatZone(when)...)
}

// FormatZone renders the UTC offset of t as ±HHMM. Offsets with a seconds
// part, such as local mean time zones, are rounded to the nearest minute,
// halves away from zero. An offset that rounds to zero is "+0000".
func FormatZone(t time.Time) string {
	_, offset := t.Zone()
	sign := byte('+')
	if offset < 0 {
		sign = '-'
		offset = -offset
	}
	minutes := (offset + 30) / 60
	if minutes == 0 {
		sign = '+'
	}
	return fmt.Sprintf("%c%02d%02d", sign, minutes/60, minutes%60)
}

// parseZone parses ±HHMM into a fixed zone.
func parseZone(s string) (*time.Location, bool) {
	if len(s) != 5 || (s[0] != '+' && s[0] != '-') || !isDigits(s[1:]) {
		return nil, false
	}
	hours, _ := strconv.Atoi(s[1:3])
	mins, _ := strconv.Atoi(s[3:5])
	if mins >= 60 {
		return nil, false
	}
	offset := hours*3600 + mins*60
	if s[0] == '-' {
		offset = -offset
	}
	return time.FixedZone("", offset), true
}

// parseSignature parses the value of an author or committer header line.
func parseSignature(h Hash, key, val string) (Identity, time.Time, error) {
	lt := strings.IndexByte(val, '<')
	if lt < 1 || val[lt-1] != ' ' {
		return Identity{}, time.Time{}, corruptf(h, "malformed %s line %q", key, val)
	}
	gt := strings.IndexByte(val[lt:], '>')
	if gt < 0 {
		return Identity{}, time.Time{}, corruptf(h, "malformed %s line %q", key, val)
	}
	gt += lt
	id := Identity{Name: val[:lt-1], Email: val[lt+1 : gt]}
	if id.Validate() != nil {
		return Identity{}, time.Time{}, corruptf(h, "malformed %s identity %q", key, val)
	}

	rest := val[gt+1:]
	if !strings.HasPrefix(rest, " ") {
		return Identity{}, time.Time{}, corruptf(h, "malformed %s line %q", key, val)
	}
	secs, zone, ok := strings.Cut(rest[1:], " ")
	if !ok {
		return Identity{}, time.Time{}, corruptf(h, "malformed %s timestamp %q", key, rest)
	}
	unix, err := strconv.ParseInt(secs, 10, 64)
	if err != nil || !isDigits(strings.TrimPrefix(secs, "-")) {
		return Identity{}, time.Time{}, corruptf(h, "bad %s timestamp %q", key, secs)
	}
	loc, ok := parseZone(zone)
	if !ok {
		return Identity{}, time.Time{}, corruptf(h, "bad %s zone %q", key, zone)
	}
	return id, time.Unix(unix, 0).In(loc), nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
