package main

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"cardbridge/convert"
	"cardbridge/internal/diagnostic"
	"cardbridge/jscontact"
	"cardbridge/vcard"
)

func newToJSCmd(opts *options) *cobra.Command {
	var indent, partial bool

	cmd := &cobra.Command{
		Use:   "tojs [files...]",
		Short: "Convert vCards to JSContact",
		Long: `Reads vCards from the given files, or stdin, and writes one JSON array of
JSContact cards. When group cards list members or records fail the output
is an object with "cards" and, as needed, "members" holding one edge per
group member and "failures" listing each failed record. A failed record is
null in "cards" unless --partial is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := opts.loadConfig()
			if err != nil {
				return err
			}

			inputs, err := readInputs(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			var cards []*vcard.Card

			for _, in := range inputs {
				parsed, err := vcard.Parse(bytes.NewReader(in.data))
				if err != nil {
					return fmt.Errorf("%s: %w", in.name, err)
				}

				cards = append(cards, parsed...)
			}

			conv := convert.NewToJSContact(f.ToJSContact)

			results, err := convertAll(cmd.Context(), opts.jobs, cards, conv.Convert)
			if err != nil {
				return err
			}

			out := make([]*jscontact.Card, len(results))

			var failures []failureEntry

			for i, r := range results {
				out[i] = r.Card

				uid := cardUID(r)
				if !report(i, uid, r.Diagnostics) {
					continue
				}

				if partial {
					out[i] = r.Partial
				}

				failures = append(failures, newFailure(i, uid, r.Diagnostics))
			}

			log.Infof("converted %d vCards, %d failed", len(results), len(failures))

			data, err := encodeCards(out, convert.ResolveMembers(results), failures, indent)
			if err != nil {
				return err
			}

			if _, err := cmd.OutOrStdout().Write(data); err != nil {
				return err
			}

			return failure(len(failures), len(results))
		},
	}

	cmd.Flags().BoolVarP(&indent, "pretty", "p", false, "indent the JSON output")
	cmd.Flags().BoolVar(&partial, "partial", false, "write what did convert of failed records")

	return cmd
}

// failureEntry marks a record of the output that did not convert.
type failureEntry struct {
	Index  int      `json:"index"`
	UID    string   `json:"uid,omitempty"`
	Errors []string `json:"errors"`
}

func newFailure(i int, uid string, d diagnostic.Diagnostics) failureEntry {
	f := failureEntry{Index: i, UID: uid}
	for _, e := range d.Errors {
		f.Errors = append(f.Errors, e.String())
	}

	return f
}

func cardUID(r convert.Result) string {
	switch {
	case r.Card != nil:
		return r.Card.UID
	case r.Partial != nil:
		return r.Partial.UID
	default:
		return ""
	}
}

// encodeCards writes cards as a JSON array, or as an object holding the
// array, the membership edges and the failures when there are any.
func encodeCards(cards []*jscontact.Card, edges []convert.Edge, failures []failureEntry, indent bool) ([]byte, error) {
	doc, err := jscontact.MarshalCards(cards, false)
	if err != nil {
		return nil, err
	}

	if len(edges) > 0 || len(failures) > 0 {
		doc, err = sjson.SetRawBytes([]byte(`{}`), "cards", doc)
		if err != nil {
			return nil, fmt.Errorf("failed to encode cards: %w", err)
		}
	}

	if len(edges) > 0 {
		doc, err = sjson.SetBytes(doc, "members", edges)
		if err != nil {
			return nil, fmt.Errorf("failed to encode members: %w", err)
		}
	}

	if len(failures) > 0 {
		doc, err = sjson.SetBytes(doc, "failures", failures)
		if err != nil {
			return nil, fmt.Errorf("failed to encode failures: %w", err)
		}
	}

	if indent {
		return pretty.Pretty(doc), nil
	}

	return append(doc, '\n'), nil
}
