// Package lmhosts implements the "lmhosts" resolution method (§4.I):
// a flat, statically configured name-to-address file, streamed and
// filtered on every lookup rather than loaded into memory up front.
//
// Each non-blank, non-comment line has the form:
//
//	<address> <name>[#<hex-suffix>]
//
// e.g. "192.168.1.10 FILESERVER#20". A name with no #suffix is treated as
// the workstation type (0x00), matching a bare hostname entry.
package lmhosts

import (
	"bufio"
	"io"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/netbios-go/nbtresolve/internal/ipservice"
	"github.com/netbios-go/nbtresolve/internal/nberrors"
	"github.com/netbios-go/nbtresolve/internal/netbios"
)

// Resolver streams a configured lmhosts file on every lookup.
type Resolver struct {
	path string
}

// New creates a Resolver reading from path.
func New(path string) *Resolver {
	return &Resolver{path: path}
}

// Resolve streams the configured file and returns every entry whose name
// matches (case-insensitively) and whose parsed suffix equals name.Suffix.
func (r *Resolver) Resolve(name netbios.Name) ([]ipservice.IPService, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, nberrors.Wrap(nberrors.Io, "lmhosts.Resolve", err)
	}
	defer func() { _ = f.Close() }()

	var out []ipservice.IPService
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		entry, ok := parseLine(scanner.Text())
		if !ok {
			continue
		}
		if entry.name.Suffix != name.Suffix || !strings.EqualFold(entry.name.Label, name.Label) {
			continue
		}
		out = append(out, ipservice.IPService{Addr: entry.addr, Port: ipservice.None})
	}
	if err := scanner.Err(); err != nil && err != io.EOF {
		return nil, nberrors.Wrap(nberrors.Io, "lmhosts.Resolve", err)
	}
	if len(out) == 0 {
		return nil, nberrors.New(nberrors.NotFound, "lmhosts.Resolve")
	}
	return out, nil
}

type lmhostsEntry struct {
	addr net.IP
	name netbios.Name
}

func parseLine(line string) (lmhostsEntry, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return lmhostsEntry{}, false
	}

	fields := strings.Fields(line)
	if len(fields) < 2 {
		return lmhostsEntry{}, false
	}

	ip := net.ParseIP(fields[0])
	if ip == nil {
		return lmhostsEntry{}, false
	}

	label, suffix, ok := splitNameSuffix(fields[1])
	if !ok {
		return lmhostsEntry{}, false
	}

	return lmhostsEntry{addr: ip, name: netbios.Name{Label: label, Suffix: suffix}}, true
}

func splitNameSuffix(field string) (label string, suffix byte, ok bool) {
	label = field
	suffix = netbios.SuffixWorkstation

	if idx := strings.IndexByte(field, '#'); idx >= 0 {
		label = field[:idx]
		parsed, err := strconv.ParseUint(field[idx+1:], 16, 8)
		if err != nil {
			return "", 0, false
		}
		suffix = byte(parsed)
	}
	if label == "" {
		return "", 0, false
	}
	return strings.ToUpper(label), suffix, true
}
