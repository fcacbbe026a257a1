// Copyright 2025 The packetd Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package webclient

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/edgeworker/webworker/internal/splitio"
)

// ValidateResult is the outcome of one Validate call over the bytes
// accumulated so far in c.Data.
type ValidateResult uint8

const (
	Ok ValidateResult = iota
	Incomplete
	MalformedUrl
	ExcessRequestData
	TooManyReadRetries
	NotSupported
	Redirect
)

func (r ValidateResult) String() string {
	switch r {
	case Ok:
		return "Ok"
	case Incomplete:
		return "Incomplete"
	case MalformedUrl:
		return "MalformedUrl"
	case ExcessRequestData:
		return "ExcessRequestData"
	case TooManyReadRetries:
		return "TooManyReadRetries"
	case NotSupported:
		return "NotSupported"
	case Redirect:
		return "Redirect"
	default:
		return "Unknown"
	}
}

var methodTable = map[string]Mode{
	"GET":     ModeGET,
	"OPTIONS": ModeOPTIONS,
	"POST":    ModePOST,
	"PUT":     ModePUT,
	"DELETE":  ModeDELETE,
	"STREAM":  ModeSTREAM,
}

var crlfcrlf = []byte("\r\n\r\n")

// ValidatorPolicy carries the TLS-redirect knobs §4.2 step 7 needs.
type ValidatorPolicy struct {
	ForceTLS   bool
	DefaultTLS bool
	HasTLSCtx  bool
}

// Validate runs the request-completeness/well-formedness state machine
// described in spec.md §4.2 over c.Data, which doubles as the receive
// buffer during header parse. Each call searches c.Data from its start
// for the end of the request head, so bytes examined by an earlier call
// are examined again; callers must only grow c.Data between calls,
// never rewrite its prefix.
func (c *Client) Validate(headerPolicy HeaderPolicy, tlsPolicy ValidatorPolicy) ValidateResult {
	c.Tries++
	if c.Tries > MaxHeaderFetch {
		slowClientsTotal.Inc()
		return TooManyReadRetries
	}

	buf := c.Data.Bytes()
	c.LastSize = len(buf)

	end := bytes.Index(buf, crlfcrlf)
	headComplete := end >= 0
	var headEnd int
	if headComplete {
		headEnd = end + len(crlfcrlf)
	}

	// Step 3: request-line method token.
	sp := indexByte(buf, ' ')
	if sp < 0 {
		if !headComplete {
			return Incomplete
		}
		return MalformedUrl
	}
	method := string(buf[:sp])
	mode, known := methodTable[method]
	if !known {
		return NotSupported
	}

	// STREAM is refused only when this connection is not itself already
	// encrypted and force-TLS is in effect — spec.md §4.2 step 4. A TLS
	// context merely existing elsewhere (HasTLSCtx) is not the gate.
	if mode == ModeSTREAM && !c.Transport.Encrypted() && tlsPolicy.ForceTLS {
		return NotSupported
	}

	// Step 5: find target and the literal " HTTP/" marker.
	rest := buf[sp+1:]
	httpIdx := bytes.Index(rest, []byte(" HTTP/"))
	if httpIdx < 0 {
		return Incomplete
	}
	target := rest[:httpIdx]

	if !headComplete {
		return Incomplete
	}

	c.Mode = mode
	path, query := decodeURL(target, mode == ModeSTREAM)
	c.URLAsReceived.Flush()
	c.URLAsReceived.StrCat(target)
	c.URLPath.Flush()
	if path != nil {
		c.URLPath.StrCat(path)
	}
	c.URLQuery.Flush()
	if query != nil {
		c.URLQuery.StrCat(query)
	}

	// Step 6 (folded into the single bytes.Index scan above): parse
	// each header line between the request line and the blank line.
	headerBlock := buf[sp+1+httpIdx+len(" HTTP/") : end]
	if nl := indexByte(headerBlock, '\n'); nl >= 0 {
		headerBlock = headerBlock[nl+1:]
	}
	for _, line := range splitCRLFLines(headerBlock) {
		if len(line) == 0 {
			continue
		}
		c.applyHeaderLine(line, headerPolicy)
	}

	// Step 8: POST/PUT body completeness, and excess-data detection.
	bodyStart := headEnd
	contentLength := c.contentLengthHeader(headerBlock)
	if mode == ModePOST || mode == ModePUT {
		if contentLength < 0 {
			contentLength = 0
		}
		if len(buf)-bodyStart < contentLength {
			return Incomplete
		}
		c.PostPayload.Flush()
		c.PostPayload.StrCat(buf[bodyStart : bodyStart+contentLength])
		if len(buf) > bodyStart+contentLength {
			return ExcessRequestData
		}
	} else if len(buf) > bodyStart {
		return ExcessRequestData
	}

	// Step 7: TLS upgrade redirect.
	if !c.Transport.LocalUnixSocket() && tlsPolicy.HasTLSCtx && !c.Transport.Encrypted() &&
		(tlsPolicy.ForceTLS || tlsPolicy.DefaultTLS) && mode != ModeSTREAM {
		return Redirect
	}

	return Ok
}

// contentLengthHeader scans the already-identified header block for a
// Content-Length value, independent of applyHeaderLine's effects (which
// do not store arbitrary headers).
func (c *Client) contentLengthHeader(headerBlock []byte) int {
	for _, line := range splitCRLFLines(headerBlock) {
		name, value, ok := splitHeaderLine(line)
		if !ok || !strings.EqualFold(name, "Content-Length") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return -1
		}
		return n
	}
	return -1
}

// splitCRLFLines splits a header block into lines with the terminator
// stripped, using the same zero-copy scanner the rest of the pack reaches
// for over bufio.Scanner when the input is already a fully-buffered slice.
func splitCRLFLines(b []byte) [][]byte {
	var lines [][]byte
	s := splitio.NewScanner(b)
	for s.Scan() {
		line := s.Bytes()
		if len(line) > 0 && line[len(line)-1] == '\n' {
			line = line[:len(line)-1]
		}
		lines = append(lines, trimCR(line))
	}
	return lines
}

func trimCR(b []byte) []byte {
	if len(b) > 0 && b[len(b)-1] == '\r' {
		return b[:len(b)-1]
	}
	return b
}
