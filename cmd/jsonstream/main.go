// Command jsonstream reads JSON from stdin in caller-chosen chunk sizes,
// simulating arbitrary network or LLM-token boundaries, and prints the
// resulting event stream one line per event.
package main

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/go-jsonstream/jsonstream"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Fatal(err)
	}
}

func newRootCmd() *cobra.Command {
	var (
		chunkSize       int
		decodeMode      string
		allowUnicodeWS  bool
		allowMultiple   bool
		allowUppercaseU bool
		allowShortHex   bool
		maxDepth        int
		stats           bool
	)

	cmd := &cobra.Command{
		Use:           "jsonstream",
		Short:         "feed stdin to the streaming JSON parser and print its event stream",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := parseDecodeMode(decodeMode)
			if err != nil {
				return err
			}
			opts := []jsonstream.Option{
				jsonstream.AllowUnicodeWhitespace(allowUnicodeWS),
				jsonstream.AllowMultipleJSONValues(allowMultiple),
				jsonstream.WithDecodeMode(mode),
				jsonstream.AllowUppercaseU(allowUppercaseU),
				jsonstream.AllowShortHex(allowShortHex),
				jsonstream.MaxDepth(maxDepth),
			}
			sessionID := uuid.New()
			n, events, err := run(cmd.OutOrStdout(), os.Stdin, chunkSize, opts)
			if stats {
				fmt.Fprintf(cmd.ErrOrStderr(), "session %s: %s read, %d events\n",
					sessionID, humanize.Bytes(uint64(n)), events)
			}
			if err != nil {
				return fmt.Errorf("session %s: %w", sessionID, err)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&chunkSize, "chunk-size", 4096, "bytes read from stdin per feed")
	cmd.Flags().StringVar(&decodeMode, "decode-mode", "strict", "unicode escape decode mode: strict|replace|preserve")
	cmd.Flags().BoolVar(&allowUnicodeWS, "allow-unicode-whitespace", false, "accept any Unicode White_Space scalar between tokens")
	cmd.Flags().BoolVar(&allowMultiple, "allow-multiple-values", false, "accept a stream of whitespace-separated top-level values")
	cmd.Flags().BoolVar(&allowUppercaseU, "allow-uppercase-u", false, "accept \\U in addition to \\u")
	cmd.Flags().BoolVar(&allowShortHex, "allow-short-hex", false, "accept fewer than 4 hex digits after \\u")
	cmd.Flags().IntVar(&maxDepth, "max-depth", 0, "maximum container nesting depth (0 = unlimited)")
	cmd.Flags().BoolVar(&stats, "stats", false, "print a bytes/events summary to stderr on exit")
	return cmd
}

func parseDecodeMode(s string) (jsonstream.DecodeMode, error) {
	switch s {
	case "strict":
		return jsonstream.StrictUnicode, nil
	case "replace":
		return jsonstream.ReplaceInvalid, nil
	case "preserve":
		return jsonstream.SurrogatePreserving, nil
	default:
		return 0, fmt.Errorf("unknown --decode-mode %q (want strict|replace|preserve)", s)
	}
}

// run feeds r to a Parser in chunkSize-sized reads, printing one line per
// event to w, and returns the total bytes read and events emitted.
func run(w io.Writer, r io.Reader, chunkSize int, opts []jsonstream.Option) (bytesRead int64, events int, err error) {
	bw := bufio.NewWriter(w)
	defer bw.Flush()

	p := jsonstream.New(opts...)
	buf := make([]byte, chunkSize)
	for {
		n, readErr := r.Read(buf)
		if n > 0 {
			bytesRead += int64(n)
			nEv, stepErr := drain(bw, p.Feed(buf[:n]))
			events += nEv
			if stepErr != nil {
				return bytesRead, events, stepErr
			}
		}
		if readErr == io.EOF {
			nEv, stepErr := drain(bw, p.Finish())
			events += nEv
			return bytesRead, events, stepErr
		}
		if readErr != nil {
			return bytesRead, events, readErr
		}
	}
}

func drain(w io.Writer, it *jsonstream.Iterator) (events int, err error) {
	for {
		ev, res, stepErr := it.Next()
		switch res {
		case jsonstream.ResultEvent:
			events++
			fmt.Fprintf(w, "%s %s%s\n", timestamp(), ev.Kind, eventPayload(ev))
		case jsonstream.ResultNeedMore, jsonstream.ResultDone:
			return events, nil
		case jsonstream.ResultError:
			return events, stepErr
		}
	}
}

func eventPayload(ev jsonstream.Event) string {
	path := ev.Path.String()
	switch ev.Kind {
	case jsonstream.Boolean:
		return fmt.Sprintf(" %s=%v", path, ev.Bool)
	case jsonstream.Number:
		return fmt.Sprintf(" %s=%v", path, ev.Number)
	case jsonstream.String:
		if ev.IsRaw {
			return fmt.Sprintf(" %s=(raw %d bytes, initial=%v final=%v)", path, len(ev.Raw), ev.IsInitial, ev.IsFinal)
		}
		return fmt.Sprintf(" %s=%q (initial=%v final=%v)", path, ev.Text, ev.IsInitial, ev.IsFinal)
	default:
		if path == "" {
			return ""
		}
		return " " + path
	}
}

func timestamp() string {
	return time.Now().UTC().Format("15:04:05.000")
}
