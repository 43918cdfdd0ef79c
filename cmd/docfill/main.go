package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/docforge/docfill/pkg/convert"
	"github.com/docforge/docfill/pkg/docfill"
	"github.com/docforge/docfill/pkg/htmlfill"
)

const version = "0.1.0"

// dataFile is the YAML shape of --data files.
//
//	text:
//	  name: Zhang Wei
//	images:
//	  logo: ./logo.png
//	tables:
//	  items:
//	    - product: Widget
//	      price: "19.99"
type dataFile struct {
	Text   map[string]interface{}              `yaml:"text"`
	Images map[string]string                   `yaml:"images"`
	Tables map[string][]map[string]interface{} `yaml:"tables"`
}

func loadDataFile(path string) (*dataFile, error) {
	if path == "" {
		return &dataFile{}, nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading data file: %w", err)
	}
	var data dataFile
	if err := yaml.Unmarshal(content, &data); err != nil {
		return nil, fmt.Errorf("parsing data file: %w", err)
	}
	return &data, nil
}

// fillData converts the parsed data file into engine bindings, opening the
// referenced image files. The returned closer releases them.
func (d *dataFile) fillData() (docfill.FillData, func(), error) {
	data := docfill.FillData{
		Text:   docfill.ScalarMap(d.Text),
		Images: make(docfill.ImageMap, len(d.Images)),
		Tables: make(docfill.TableMap, len(d.Tables)),
	}

	var opened []*os.File
	closer := func() {
		for _, f := range opened {
			f.Close()
		}
	}

	for key, path := range d.Images {
		f, err := os.Open(path)
		if err != nil {
			closer()
			return docfill.FillData{}, nil, fmt.Errorf("opening image %s: %w", path, err)
		}
		opened = append(opened, f)
		data.Images[key] = f
	}

	for name, rows := range d.Tables {
		dataset := make(docfill.Dataset, 0, len(rows))
		for _, row := range rows {
			dataset = append(dataset, docfill.RowData(row))
		}
		data.Tables[name] = dataset
	}

	return data, closer, nil
}

func newFillCommand() *cobra.Command {
	var templatePath, dataPath, outPath string
	var toPDF bool

	cmd := &cobra.Command{
		Use:   "fill",
		Short: "Fill a DOCX template with data",
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := loadDataFile(dataPath)
			if err != nil {
				return err
			}
			data, closeImages, err := parsed.fillData()
			if err != nil {
				return err
			}
			defer closeImages()

			template, err := os.ReadFile(templatePath)
			if err != nil {
				return fmt.Errorf("reading template: %w", err)
			}

			output, err := docfill.Fill(template, data)
			if err != nil {
				return err
			}

			if toPDF {
				converter := convert.NewConverter()
				output, err = converter.WordToPDF(cmd.Context(), output)
				if err != nil {
					return err
				}
			}

			if err := os.WriteFile(outPath, output, 0o644); err != nil {
				return fmt.Errorf("writing output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", outPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&templatePath, "template", "", "path to the DOCX template")
	cmd.Flags().StringVar(&dataPath, "data", "", "path to the YAML data file")
	cmd.Flags().StringVar(&outPath, "out", "", "path of the output file")
	cmd.Flags().BoolVar(&toPDF, "pdf", false, "convert the filled document to PDF")
	cmd.MarkFlagRequired("template")
	cmd.MarkFlagRequired("out")

	return cmd
}

func newHTMLCommand() *cobra.Command {
	var templatePath, dataPath, outPath string
	var check bool

	cmd := &cobra.Command{
		Use:   "html",
		Short: "Fill an HTML template with data",
		RunE: func(cmd *cobra.Command, args []string) error {
			template, err := os.Open(templatePath)
			if err != nil {
				return fmt.Errorf("reading template: %w", err)
			}
			defer template.Close()

			parsed, err := loadDataFile(dataPath)
			if err != nil {
				return err
			}

			filled, err := htmlfill.FillReader(template, "", parsed.Text)
			if err != nil {
				return err
			}

			if check {
				if err := htmlfill.Validate(filled); err != nil {
					return err
				}
			}

			if outPath == "" {
				fmt.Fprint(cmd.OutOrStdout(), filled)
				return nil
			}
			if err := os.WriteFile(outPath, []byte(filled), 0o644); err != nil {
				return fmt.Errorf("writing output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", outPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&templatePath, "template", "", "path to the HTML template")
	cmd.Flags().StringVar(&dataPath, "data", "", "path to the YAML data file")
	cmd.Flags().StringVar(&outPath, "out", "", "path of the output file (default stdout)")
	cmd.Flags().BoolVar(&check, "check", false, "validate the filled document parses as HTML")
	cmd.MarkFlagRequired("template")

	return cmd
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "docfill",
		Short:         "Fill Word and HTML document templates",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newFillCommand())
	root.AddCommand(newHTMLCommand())
	return root
}

func main() {
	// .env is optional; a missing file is not an error.
	godotenv.Load()

	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
