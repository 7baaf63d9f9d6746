// Command gics is the thin CLI wrapper around the reader/writer packages:
// pack, unpack, verify, and query over files and stdin/stdout
// (SPEC_FULL.md §6). It is deliberately thin — no daemon, no network
// transport — and exists only so the library has an external interface
// contract a script can shell out to.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Shiloren/gics/errs"
	"github.com/Shiloren/gics/reader"
	"github.com/Shiloren/gics/snapshot"
	"github.com/Shiloren/gics/writer"
)

// Exit codes per spec §6.
const (
	exitOK                = 0
	exitIntegrityError    = 1
	exitSchemaViolation   = 2
	exitIoError           = 3
	exitUsage             = 64
)

// jsonSnapshot is the wire shape used by pack/unpack: one line of JSON per
// snapshot, item keys flattened to strings for JSON-map compatibility.
type jsonSnapshot struct {
	TimestampUs int64                     `json:"ts"`
	Items       map[string]map[string]any `json:"items"`
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	root := &cobra.Command{
		Use:           "gics",
		Short:         "gics packs and queries columnar time-series files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var password string
	root.PersistentFlags().StringVar(&password, "password", "", "decryption password for encrypted files")

	root.AddCommand(
		newPackCmd(),
		newUnpackCmd(&password),
		newVerifyCmd(&password),
		newQueryCmd(&password),
	)

	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)

		return exitCodeFor(err)
	}

	return exitOK
}

func exitCodeFor(err error) int {
	switch {
	case errs.Is(err, errs.KindIntegrity), errs.Is(err, errs.KindVersionMismatch):
		return exitIntegrityError
	case errs.Is(err, errs.KindSchemaViolation):
		return exitSchemaViolation
	case errs.Is(err, errs.KindIoError), errs.Is(err, errs.KindIncompleteData), errs.Is(err, errs.KindLimitExceeded):
		return exitIoError
	default:
		return exitUsage
	}
}

func newPackCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "pack",
		Short: "read newline-delimited JSON snapshots from stdin and write a gics file",
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := writer.New()
			if err != nil {
				return err
			}

			dec := json.NewDecoder(os.Stdin)
			for dec.More() {
				var s jsonSnapshot
				if err := dec.Decode(&s); err != nil {
					return errs.Wrap(errs.KindIoError, "gics.pack", err)
				}

				items := make(map[snapshot.ItemKey]map[string]any, len(s.Items))
				for k, rec := range s.Items {
					items[snapshot.StringKey(k)] = rec
				}

				if err := w.Push(s.TimestampUs, items); err != nil {
					return err
				}
			}

			data, err := w.Finish()
			if err != nil {
				return err
			}

			return writeOutput(out, data)
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file path (default: stdout)")

	return cmd
}

func writeOutput(path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := os.Stdout.Write(data)
		if err != nil {
			return errs.Wrap(errs.KindIoError, "gics.pack", err)
		}

		return nil
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errs.Wrap(errs.KindIoError, "gics.pack", err)
	}

	return nil
}

func openReader(path, password string) (*reader.Reader, error) {
	data, err := readInput(path)
	if err != nil {
		return nil, err
	}

	var opts []reader.Option
	if password != "" {
		opts = append(opts, reader.WithPassword(password))
	}

	return reader.New(data, opts...)
}

func readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		data, err := readAll(os.Stdin)
		if err != nil {
			return nil, errs.Wrap(errs.KindIoError, "gics.read", err)
		}

		return data, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.KindIoError, "gics.read", err)
	}

	return data, nil
}

func readAll(f *os.File) ([]byte, error) {
	var buf []byte
	tmp := make([]byte, 64*1024)
	for {
		n, err := f.Read(tmp)
		buf = append(buf, tmp[:n]...)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return buf, nil
			}

			return nil, err
		}
	}
}

func newUnpackCmd(password *string) *cobra.Command {
	var in string

	cmd := &cobra.Command{
		Use:   "unpack",
		Short: "decode a gics file to newline-delimited JSON snapshots on stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openReader(in, *password)
			if err != nil {
				return err
			}

			snaps, err := r.GetAllGenericSnapshots()
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			for _, s := range snaps {
				out := jsonSnapshot{TimestampUs: s.TimestampUs, Items: make(map[string]map[string]any, len(s.Items))}
				for k, rec := range s.Items {
					out.Items[k.String()] = rec
				}
				if err := enc.Encode(out); err != nil {
					return errs.Wrap(errs.KindIoError, "gics.unpack", err)
				}
			}

			return nil
		},
	}
	cmd.Flags().StringVarP(&in, "input", "i", "", "input file path (default: stdin)")

	return cmd
}

func newVerifyCmd(password *string) *cobra.Command {
	var in string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "verify a gics file's hash chain and per-segment CRC32",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openReader(in, *password)
			if err != nil {
				return err
			}

			return r.VerifyIntegrityOnly()
		},
	}
	cmd.Flags().StringVarP(&in, "input", "i", "", "input file path (default: stdin)")

	return cmd
}

func newQueryCmd(password *string) *cobra.Command {
	var in, key string
	var numeric bool

	cmd := &cobra.Command{
		Use:   "query",
		Short: "print every snapshot row containing the given item key",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openReader(in, *password)
			if err != nil {
				return err
			}

			var itemKey snapshot.ItemKey
			if numeric {
				var n int64
				if _, err := fmt.Sscanf(key, "%d", &n); err != nil {
					return errs.Wrap(errs.KindSchemaViolation, "gics.query", err)
				}
				itemKey = snapshot.NumberKey(n)
			} else {
				itemKey = snapshot.StringKey(key)
			}

			snaps, err := r.Query(itemKey)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			for _, s := range snaps {
				out := jsonSnapshot{TimestampUs: s.TimestampUs, Items: make(map[string]map[string]any, len(s.Items))}
				for k, rec := range s.Items {
					out.Items[k.String()] = rec
				}
				if err := enc.Encode(out); err != nil {
					return errs.Wrap(errs.KindIoError, "gics.query", err)
				}
			}

			return nil
		},
	}
	cmd.Flags().StringVarP(&in, "input", "i", "", "input file path (default: stdin)")
	cmd.Flags().StringVarP(&key, "key", "k", "", "item key to query")
	cmd.Flags().BoolVar(&numeric, "numeric", false, "treat --key as a numeric item id")
	_ = cmd.MarkFlagRequired("key")

	return cmd
}
