package cmd

import (
	"fmt"
	"os"

	"github.com/huangsam/binforecast/core"
	"github.com/huangsam/binforecast/internal/contract"
	"github.com/huangsam/binforecast/internal/districts"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// districtsCmd focused on district reference data.
var districtsCmd = &cobra.Command{
	Use:   "districts",
	Short: "Inspect and import district reference data",
	Long: `Manage the barangay reference data that forecasts are computed from.

An embedded dataset of 80 barangays ships with the binary. Use --districts to
point at a YAML, JSON or TOML file instead.

Subcommands:
  list   - Print the active districts
  import - Convert a waste characterization CSV into a districts file`,
}

// districtsListCmd prints the active dataset.
var districtsListCmd = &cobra.Command{
	Use:     "list",
	Short:   "Print the active districts",
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run:     runExecutor("Cannot list districts", core.ExecuteDistricts),
}

// districtsImportCmd converts a CSV into a YAML districts file.
var districtsImportCmd = &cobra.Command{
	Use:   "import <csv-file>",
	Short: "Convert a waste characterization CSV into a districts file",
	Long: `Read a CSV whose columns are name, population, an unused column and the
total daily waste in kg, and write the districts file that --districts reads.

Ids are assigned from row numbers. Market and flood flags come from the
known market and flood-prone barangays. Numbers may contain quotes and
thousands separators.

Examples:
  binforecast districts import waste.csv --output-file districts.yaml
  binforecast --districts districts.yaml forecast`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return loadConfigFile()
	},
	Run: func(_ *cobra.Command, args []string) {
		in, err := os.Open(args[0])
		if err != nil {
			contract.LogFatal("Cannot open CSV", err)
		}
		defer func() { _ = in.Close() }()

		list, err := districts.ImportCSV(in)
		if err != nil {
			contract.LogFatal("Cannot import districts", err)
		}

		outputFile := viper.GetString("output-file")
		out, err := contract.SelectOutputFile(outputFile)
		if err != nil {
			contract.LogFatal("Cannot open output file", err)
		}
		if outputFile != "" {
			defer func() { _ = out.Close() }()
		}
		if err := districts.WriteYAML(out, list); err != nil {
			contract.LogFatal("Cannot write districts", err)
		}
		if outputFile != "" {
			_, _ = fmt.Fprintf(os.Stderr, "Imported %d districts to %s\n", len(list), outputFile)
		}
	},
}
