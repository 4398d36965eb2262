package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ty01csbaidu/streamDM/feature"
	"github.com/ty01csbaidu/streamDM/tree"
)

type predictCmdConfig struct {
	*rootCmdConfig
	modelInput    string
	dataInput     string
	metadataInput string
	classFeature  string
}

func predictCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &predictCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict the class of unlabeled samples",
		Long:  `Use a trained model to predict the class feature value for each row of a CSV of unlabeled samples, printing one prediction per row`,
		Run: func(cmd *cobra.Command, args []string) {
			err := config.Validate()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			features, class, err := readMetadata(config.metadataInput, config.classFeature)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(2)
			}
			model, err := loadModel(config.modelInput, tree.DefaultConfig(class.Cardinality(), features))
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(3)
			}
			f := os.Stdin
			if config.dataInput != "" {
				f, err = os.Open(config.dataInput)
				if err != nil {
					fmt.Fprintf(os.Stderr, "opening samples at %s: %v\n", config.dataInput, err)
					os.Exit(4)
				}
				defer f.Close()
			}
			err = predict(f, model, features, class)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(5)
			}
		},
	}
	cmd.PersistentFlags().StringVarP(&(config.dataInput), "input", "i", "", "path to an input CSV file with the samples to predict on, one per row (defaults to STDIN)")
	cmd.PersistentFlags().StringVarP(&(config.metadataInput), "metadata", "m", "", "path to a YML file with metadata describing the different features available on the input (required)")
	cmd.PersistentFlags().StringVarP(&(config.modelInput), "model", "t", "", "path to a file from which the model to predict with will be read and parsed as JSON (required)")
	cmd.PersistentFlags().StringVarP(&(config.classFeature), "class-feature", "c", "", "name of the feature the model predicts (required)")
	return cmd
}

func (pcc *predictCmdConfig) Validate() error {
	if pcc.metadataInput == "" {
		return fmt.Errorf("required metadata flag was not set")
	}
	if pcc.modelInput == "" {
		return fmt.Errorf("required model flag was not set")
	}
	if pcc.classFeature == "" {
		return fmt.Errorf("required class-feature flag was not set")
	}
	return nil
}

/*
predict reads CSV content with a header naming the predictive
features, in any column order and with no class column required, and
prints the class value the model predicts for each row.
*/
func predict(reader io.Reader, model *tree.Model, features []feature.Feature, class *feature.NominalFeature) error {
	r := csv.NewReader(reader)
	header, err := r.Read()
	if err != nil {
		return fmt.Errorf("reading csv header: %v", err)
	}
	columns := make([]int, len(features))
	for i, f := range features {
		columns[i] = -1
		for j, h := range header {
			if h == f.Name() {
				columns[i] = j
				break
			}
		}
		if columns[i] < 0 {
			return fmt.Errorf("csv header has no column for feature %s", f.Name())
		}
	}
	for line := 2; ; line++ {
		row, err := r.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading csv line %d: %v", line, err)
		}
		values := make([]float64, len(features))
		for i, f := range features {
			raw := row[columns[i]]
			switch f := f.(type) {
			case *feature.NominalFeature:
				v := f.ValueIndex(raw)
				if v < 0 {
					return fmt.Errorf("parsing csv line %d: unknown value %q for feature %s", line, raw, f.Name())
				}
				values[i] = float64(v)
			default:
				values[i], err = strconv.ParseFloat(raw, 64)
				if err != nil {
					return fmt.Errorf("parsing csv line %d: feature %s: %v", line, f.Name(), err)
				}
			}
		}
		prediction := model.Predict(feature.NewExample(values, 0))
		fmt.Println(class.Values()[prediction])
	}
}
