package gitlog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCapturer struct {
	out string
	err error
}

func (s stubCapturer) Capture(ctx context.Context, dir, cmd string) (string, error) {
	return s.out, s.err
}

func TestWalkParsesMultipleRecords(t *testing.T) {
	out := "\x01aaa111\x02\x02Jane Doe\x02jane@example.com\x022024-01-02T03:04:05Z\x02" +
		"Jane Doe\x02jane@example.com\x022024-01-02T03:04:05Z\x02Initial commit\n" +
		"\x01bbb222\x02aaa111\x02John Roe\x02john@example.com\x022024-01-03T03:04:05Z\x02" +
		"John Roe\x02john@example.com\x022024-01-03T03:04:05Z\x02Second commit\nwith body\n"

	commits, err := Walk(context.Background(), stubCapturer{out: out}, "/repo", "main")
	require.NoError(t, err)
	require.Len(t, commits, 2)

	assert.Equal(t, "aaa111", commits[0].Hash)
	assert.Empty(t, commits[0].ParentHashes)
	assert.Equal(t, "Jane Doe <jane@example.com>", commits[0].Author())
	assert.Equal(t, "Initial commit", commits[0].Message)

	assert.Equal(t, "bbb222", commits[1].Hash)
	assert.Equal(t, []string{"aaa111"}, commits[1].ParentHashes)
	assert.Equal(t, "Second commit\nwith body", commits[1].Message)
}

func TestWalkEmptyHistory(t *testing.T) {
	commits, err := Walk(context.Background(), stubCapturer{out: ""}, "/repo", "main")
	require.NoError(t, err)
	assert.Empty(t, commits)
}
