package pathtext_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/go-jsonstream/jsonstream"
	"github.com/go-jsonstream/jsonstream/pathtext"
)

func drainCoalesced(t *testing.T, chunks []string) []pathtext.Event {
	t.Helper()
	p := jsonstream.New()
	c := pathtext.NewCoalescer()
	var out []pathtext.Event
	pull := func(it *jsonstream.Iterator) {
		for {
			ev, res, err := it.Next()
			require.NoError(t, err)
			switch res {
			case jsonstream.ResultEvent:
				coalesced, ok, err := c.Push(ev)
				require.NoError(t, err)
				if ok {
					out = append(out, coalesced)
				}
			case jsonstream.ResultNeedMore, jsonstream.ResultDone:
				return
			}
		}
	}
	for _, ch := range chunks {
		pull(p.Feed([]byte(ch)))
	}
	pull(p.Finish())
	return out
}

func TestCoalescesSplitString(t *testing.T) {
	out := drainCoalesced(t, []string{`["hel`, `lo wor`, `ld"]`})
	require.Len(t, out, 3) // ArrayStart, String, ArrayEnd
	require.Equal(t, jsonstream.String, out[1].Kind)
	require.Equal(t, "hello world", out[1].Text)
}

func TestPassesThroughScalars(t *testing.T) {
	out := drainCoalesced(t, []string{`[1,true,null]`})
	require.Len(t, out, 5)
	require.Equal(t, jsonstream.Number, out[1].Kind)
	require.Equal(t, 1.0, out[1].Number)
	require.Equal(t, jsonstream.Boolean, out[2].Kind)
	require.True(t, out[2].Bool)
	require.Equal(t, jsonstream.Null, out[3].Kind)
}
