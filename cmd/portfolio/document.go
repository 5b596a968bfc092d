package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/portfolio-studio/internal/media"
	"github.com/jonathan/portfolio-studio/internal/portfolio"
	"github.com/jonathan/portfolio-studio/internal/schemas"
	"github.com/jonathan/portfolio-studio/internal/validation"
)

// writeOutput writes data to path, or to the command output when path is empty.
func (a *app) writeOutput(path string, data []byte) error {
	if path == "" {
		_, err := fmt.Fprintln(a.out, string(data))
		return err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

// readDocumentFile reads a JSON object without normalizing it.
func readDocumentFile(path string) (portfolio.Document, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read input file: %w", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, &portfolio.ParseError{Message: "input is not a JSON object", Cause: err}
	}
	return portfolio.Document(raw), data, nil
}

func newNormalizeCmd(a *app) *cobra.Command {
	var in, out string
	cmd := &cobra.Command{
		Use:   "normalize",
		Short: "Normalize a portfolio JSON file",
		Long:  "Repairs a portfolio document of any vintage into the current shape, filling defaults and dropping malformed list entries.",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			data, err := os.ReadFile(in)
			if err != nil {
				return fmt.Errorf("failed to read input file: %w", err)
			}
			doc, err := portfolio.Parse(data)
			if err != nil {
				return err
			}
			formatted, err := portfolio.MarshalIndent(doc)
			if err != nil {
				return err
			}
			return a.writeOutput(out, formatted)
		},
	}
	cmd.Flags().StringVarP(&in, "in", "i", "", "Path to portfolio JSON file (required)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Path to output file (default stdout)")
	if err := cmd.MarkFlagRequired("in"); err != nil {
		panic(fmt.Sprintf("failed to mark in flag as required: %v", err))
	}
	return cmd
}

func newValidateCmd(a *app) *cobra.Command {
	var in string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "List the issues blocking a publish",
		Long:  "Checks the current document, or --in file, against the publish rules. Exits non-zero when any issue is found.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var doc portfolio.Document
			if in != "" {
				d, _, err := readDocumentFile(in)
				if err != nil {
					return err
				}
				doc = d
			} else {
				sess, err := a.openSession(cmd.Context())
				if err != nil {
					return err
				}
				defer sess.close()
				doc = sess.store.Document()
			}

			issues := validation.Validate(doc)
			a.printer.PrintIssues(issues)
			if len(issues) > 0 {
				return &validation.Error{Issues: issues}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&in, "in", "i", "", "Path to portfolio JSON file (default: current document)")
	return cmd
}

func newLintCmd(a *app) *cobra.Command {
	var in string
	cmd := &cobra.Command{
		Use:   "lint",
		Short: "Check a document against the portfolio JSON Schema",
		Long:  "Checks that the --in file, or the normalized current document, matches the published document schema.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if in != "" {
				data, err := os.ReadFile(in)
				if err != nil {
					return fmt.Errorf("failed to read input file: %w", err)
				}
				if err := schemas.ValidatePortfolioJSON(data); err != nil {
					return err
				}
			} else {
				sess, err := a.openSession(cmd.Context())
				if err != nil {
					return err
				}
				defer sess.close()
				if err := schemas.ValidateDocument(portfolio.Normalize(sess.store.Document())); err != nil {
					return err
				}
			}
			_, err := fmt.Fprintln(a.out, "✓ Document matches schema")
			return err
		},
	}
	cmd.Flags().StringVarP(&in, "in", "i", "", "Path to portfolio JSON file (default: current document)")
	return cmd
}

// publishFileName is the file the public site loads its content from.
const publishFileName = "portfolio.json"

func newExportCmd(a *app) *cobra.Command {
	var out string
	var publish bool
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the current document as JSON",
		Long:  "Writes the current document as-is. With --publish and no --out, writes it to " + publishFileName + " for deploying with the site.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := a.openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer sess.close()

			data, err := sess.store.Export()
			if err != nil {
				return err
			}
			if publish && out == "" {
				out = publishFileName
			}
			return a.writeOutput(out, data)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Path to output file (default stdout)")
	cmd.Flags().BoolVar(&publish, "publish", false, "Write "+publishFileName+" for the public site")
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import a portfolio JSON file into the draft",
		Long:  "Normalizes the file and stores it as the draft. The published site is unchanged until publish.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read import file: %w", err)
			}
			sess, err := a.openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer sess.close()

			if err := sess.store.Import(cmd.Context(), data); err != nil {
				return err
			}
			_, err = fmt.Fprintf(a.out, "✓ Imported %s into the draft\n", args[0])
			return err
		},
	}
}

func newGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get [path]",
		Short: "Print the value at a dotted path",
		Long:  "Prints the value at a dotted document path such as profile.name or projects.0.title, or the whole document.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer sess.close()

			var value any = sess.store.Document()
			if len(args) == 1 {
				v, ok := sess.store.Get(args[0])
				if !ok {
					return &portfolio.PathError{Path: args[0], Message: "no value at path"}
				}
				value = v
			}
			data, err := json.MarshalIndent(value, "", "  ")
			if err != nil {
				return err
			}
			return a.writeOutput("", data)
		},
	}
}

// parseValue reads a JSON literal, falling back to the raw string.
func parseValue(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	return v
}

func newSetCmd(a *app) *cobra.Command {
	var draft bool
	cmd := &cobra.Command{
		Use:   "set <path> <value>",
		Short: "Set the value at a dotted path",
		Long: `Sets a dotted document path. The value is read as JSON when it parses, else as a string.
The edit is saved like an autosave: to the draft when one exists, else to the published slot.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer sess.close()

			if err := sess.store.SetPath(args[0], parseValue(args[1])); err != nil {
				return err
			}
			if draft {
				return sess.store.SaveDraft(cmd.Context())
			}
			return sess.flush(cmd.Context())
		},
	}
	cmd.Flags().BoolVar(&draft, "draft", false, "Save the edit to the draft")
	return cmd
}

func newSearchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search document values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer sess.close()

			a.printer.PrintSearchResults(args[0], sess.store.Search(args[0]))
			return nil
		},
	}
}

func newMediaCmd(a *app) *cobra.Command {
	var maxBytes int64
	cmd := &cobra.Command{
		Use:   "media <path> <file>",
		Short: "Embed a file as a data URI",
		Long:  "Encodes the file as a data URI and stores it at the dotted path, such as assets.photo.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[1])
			if err != nil {
				return fmt.Errorf("failed to open media file: %w", err)
			}
			defer f.Close()

			uri, err := media.EncodeDataURI(f, maxBytes)
			if err != nil {
				return err
			}

			sess, err := a.openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer sess.close()

			if err := sess.store.SetPath(args[0], uri); err != nil {
				return err
			}
			if err := sess.flush(cmd.Context()); err != nil {
				return err
			}
			_, err = fmt.Fprintf(a.out, "✓ Stored %s at %s (%d bytes encoded)\n", args[1], args[0], len(uri))
			return err
		},
	}
	cmd.Flags().Int64Var(&maxBytes, "max-bytes", media.DefaultMaxBytes, "Largest file accepted")
	return cmd
}
