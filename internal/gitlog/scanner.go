/*
Copyright (c) 2023 Purple Clay

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/

// Package gitlog parses batched `git log` output into structured
// commit records, used by the replicator to walk a branch's history
// commit by commit.
package gitlog

import "bytes"

// recordMarker begins every commit record emitted by the log format
// string. It is a control byte that can never appear in legitimate
// commit metadata, so it is safe to split on unconditionally.
const recordMarker = '\x01'

// fieldSep separates the fixed metadata fields of a single record
// from each other and from the trailing commit message.
const fieldSep = '\x02'

// records splits a batched log capture into one token per commit,
// adapted from a prefixed-line scanner that originally split unified
// diff hunks on an '@' marker instead of commit records on '\x01'.
func records(prefix byte) func(data []byte, atEOF bool) (advance int, token []byte, err error) {
	return func(data []byte, atEOF bool) (advance int, token []byte, err error) {
		if atEOF && len(data) == 0 {
			return 0, nil, nil
		}

		if i := bytes.IndexByte(data, prefix); i != 0 {
			return 0, nil, nil
		}

		if i := bytes.IndexByte(data[1:], prefix); i >= 0 {
			return i + 1, dropCR(data[1 : i+1]), nil
		}

		if atEOF {
			return len(data), dropCR(data[1:]), nil
		}

		return 0, nil, nil
	}
}

func dropCR(data []byte) []byte {
	if len(data) > 0 && data[len(data)-1] == '\n' {
		data = data[:len(data)-1]
	}
	if len(data) > 0 && data[len(data)-1] == '\r' {
		data = data[:len(data)-1]
	}
	return data
}
