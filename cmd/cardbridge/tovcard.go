package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cardbridge/convert"
	"cardbridge/jscontact"
	"cardbridge/vcard"
)

func newToVCardCmd(opts *options) *cobra.Command {
	var version string

	cmd := &cobra.Command{
		Use:   "tovcard [files...]",
		Short: "Convert JSContact cards to vCards",
		Long: `Reads JSContact cards from the given files, or stdin, and writes the
vCards one after the other. A file holds one card, an array of cards, or an
object whose "cards" member is an array of cards. Records that fail to
convert are left out.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := opts.loadConfig()
			if err != nil {
				return err
			}

			if version != "" {
				v := vcard.Version(version)
				if !v.IsValid() {
					return fmt.Errorf("unsupported vCard version %q", version)
				}

				f.ToVCard.Version = v
			}

			inputs, err := readInputs(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			var cards []*jscontact.Card

			for _, in := range inputs {
				parsed, err := jscontact.UnmarshalCards(in.data)
				if err != nil {
					return fmt.Errorf("%s: %w", in.name, err)
				}

				cards = append(cards, parsed...)
			}

			conv := convert.NewToVCard(f.ToVCard)

			results, err := convertAll(cmd.Context(), opts.jobs, cards, conv.Convert)
			if err != nil {
				return err
			}

			out := make([]*vcard.Card, 0, len(results))
			failed := 0

			for i, r := range results {
				if report(i, cardID(cards[i]), r.Diagnostics) {
					failed++

					continue
				}

				out = append(out, r.VCard)
			}

			log.Infof("converted %d cards, %d failed", len(results), failed)

			if err := vcard.Write(cmd.OutOrStdout(), out...); err != nil {
				return err
			}

			return failure(failed, len(results))
		},
	}

	cmd.Flags().StringVar(&version, "version", "", "vCard version to write (4.0, 3.0 or 2.1)")

	return cmd
}

func cardID(c *jscontact.Card) string {
	if c == nil {
		return ""
	}

	return c.UID
}
