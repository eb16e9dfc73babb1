package cmd

import (
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"

	"github.com/chainsim/chainsim/sim/chain"
	"github.com/chainsim/chainsim/sim/likelihood"
	"github.com/chainsim/chainsim/sim/offspring"
)

var (
	// observed data, exactly one source
	obsSizes    []int  // Observed chain sizes
	obsLengths  []int  // Observed chain lengths
	sizesFile   string // File of observed sizes
	lengthsFile string // File of observed lengths

	// evaluation controls
	cutoff      int     // Right-censoring threshold, 0 disables
	obsProb     float64 // Probability a case is observed
	nObsSamples int     // Augmentation replicates when obs-prob < 1
	mcSims      int     // Simulated chains for the Monte Carlo fallback
)

// likelihoodCmd scores observed chain statistics under an offspring family
var likelihoodCmd = &cobra.Command{
	Use:   "likelihood",
	Short: "Log-likelihood of observed chain sizes or lengths",
	Run: func(cmd *cobra.Command, args []string) {
		initLogging()

		obs, statKind := observations()

		params, err := parseParams(offspringParams)
		if err != nil {
			logrus.Fatalf("Invalid offspring parameter: %v", err)
		}
		spec := offspring.Spec{Family: offspringFamily, Params: params}

		opts := likelihood.Options{
			Cutoff:      cutoff,
			ObsProb:     obsProb,
			NObsSamples: nObsSamples,
		}
		if (obsProb != 0 && obsProb < 1) || mcSims > 0 {
			opts.Rand = rand.New(rand.NewSource(seed))
		}
		if mcSims > 0 {
			opts.MonteCarlo = &likelihood.MonteCarloOptions{Sims: mcSims}
		}

		lls, err := likelihood.ReplicateLogLiks(cmd.Context(), obs, spec, statKind, opts)
		if err != nil {
			logrus.Fatalf("Likelihood failed: %v", err)
		}

		fmt.Printf("log_likelihood: %.6f\n", stat.Mean(lls, nil))
		if len(lls) > 1 {
			fmt.Printf("replicates: %d\n", len(lls))
			fmt.Printf("replicate_std_dev: %.6f\n", stat.StdDev(lls, nil))
		}
	},
}

// observations gathers the observed statistics, requiring exactly one of the
// four data flags.
func observations() ([]int, chain.Stat) {
	type source struct {
		name string
		stat chain.Stat
		load func() ([]int, error)
	}
	sources := []source{
		{"sizes", chain.StatSize, func() ([]int, error) { return obsSizes, nil }},
		{"lengths", chain.StatLength, func() ([]int, error) { return obsLengths, nil }},
		{"sizes-file", chain.StatSize, func() ([]int, error) { return readObsFile(sizesFile) }},
		{"lengths-file", chain.StatLength, func() ([]int, error) { return readObsFile(lengthsFile) }},
	}

	given := []source{}
	if len(obsSizes) > 0 {
		given = append(given, sources[0])
	}
	if len(obsLengths) > 0 {
		given = append(given, sources[1])
	}
	if sizesFile != "" {
		given = append(given, sources[2])
	}
	if lengthsFile != "" {
		given = append(given, sources[3])
	}
	if len(given) != 1 {
		logrus.Fatalf("Provide observed data through exactly one of --sizes, --lengths, --sizes-file, --lengths-file")
	}

	obs, err := given[0].load()
	if err != nil {
		logrus.Fatalf("Could not read observations: %v", err)
	}
	return obs, given[0].stat
}

// readObsFile parses whitespace-separated integers, one or more per line.
func readObsFile(path string) ([]int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	fields := strings.Fields(string(data))
	if len(fields) == 0 {
		return nil, fmt.Errorf("%s holds no observations", path)
	}
	out := make([]int, len(fields))
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %q is not an integer", path, f)
		}
		out[i] = v
	}
	return out, nil
}

// init sets up likelihood flags and attaches the subcommand
func init() {
	likelihoodCmd.Flags().IntSliceVar(&obsSizes, "sizes", nil, "Observed chain sizes (comma separated)")
	likelihoodCmd.Flags().IntSliceVar(&obsLengths, "lengths", nil, "Observed chain lengths (comma separated)")
	likelihoodCmd.Flags().StringVar(&sizesFile, "sizes-file", "", "File of observed chain sizes")
	likelihoodCmd.Flags().StringVar(&lengthsFile, "lengths-file", "", "File of observed chain lengths")

	likelihoodCmd.Flags().StringVar(&offspringFamily, "offspring", "", "Offspring family ("+strings.Join(offspring.Families(), ", ")+")")
	likelihoodCmd.Flags().StringToStringVar(&offspringParams, "param", nil, "Offspring parameter as name=value (repeatable)")

	likelihoodCmd.Flags().IntVar(&cutoff, "cutoff", 0, "Treat observations at or above this value as right-censored (0 = none)")
	likelihoodCmd.Flags().Float64Var(&obsProb, "obs-prob", 1, "Probability that a case is observed")
	likelihoodCmd.Flags().IntVar(&nObsSamples, "n-obs-samples", 0, "Augmentation replicates when --obs-prob is below 1")
	likelihoodCmd.Flags().IntVar(&mcSims, "mc-sims", 0, "Simulated chains for families without a closed form (0 disables)")
	likelihoodCmd.Flags().Int64Var(&seed, "seed", 42, "Seed for augmentation and Monte Carlo draws")

	rootCmd.AddCommand(likelihoodCmd)
}
