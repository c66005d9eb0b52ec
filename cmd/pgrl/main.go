// Command pgrl trains and tests policy gradient agents
package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/logrusorgru/aurora"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/samuelfneumann/pgrl/agent"
)

func main() {
	for _, envFile := range []string{".env", "../../.env"} {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, aurora.Red(err))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "pgrl",
		Short:         "Train and test policy gradient agents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.String("env", "cartpole", "environment, one of "+
		strings.Join(environments(), ", "))
	flags.Int("env-steps", 500, "maximum steps per episode")
	flags.Uint64("seed", 0, "seed for environments and action sampling")
	flags.Bool("gpu", false, "place networks on the GPU if available")
	flags.Duration("render-delay", agent.DefaultRenderDelay,
		"pause after rendering each test step")
	flags.Bool("colors", true, "colour terminal output")

	rootCmd.AddCommand(newTrainCmd(), newTestCmd())
	return rootCmd
}

// bind returns a viper instance holding the flags of cmd, overridden by
// PGRL_ prefixed environment variables
func bind(cmd *cobra.Command) (*viper.Viper, error) {
	vp := viper.New()
	vp.SetEnvPrefix("PGRL")
	vp.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	vp.AutomaticEnv()

	if err := vp.BindPFlags(cmd.Flags()); err != nil {
		return nil, fmt.Errorf("bind: %v", err)
	}
	if err := vp.BindPFlags(cmd.InheritedFlags()); err != nil {
		return nil, fmt.Errorf("bind: %v", err)
	}
	return vp, nil
}

func newLogger() *log.Logger {
	return log.New(os.Stderr, "pgrl: ", log.LstdFlags)
}

// options returns the agent options shared by all commands. The seed
// of the hyperparameters is only overridden by an explicit flag or
// environment variable.
func options(vp *viper.Viper, logger *log.Logger) []agent.Option {
	opts := []agent.Option{
		agent.WithLogger(logger),
		agent.WithGPU(vp.GetBool("gpu")),
		agent.WithRenderDelay(vp.GetDuration("render-delay")),
	}
	if vp.IsSet("seed") {
		opts = append(opts, agent.WithSeed(vp.GetUint64("seed")))
	}
	return opts
}

// summarize prints the returns of test episodes
func summarize(tag string, rewards []float64, colors bool) {
	total := 0.0
	for i, r := range rewards {
		fmt.Printf("Episode %d: %.2f\n", i, r)
		total += r
	}
	mean := fmt.Sprintf("%.2f", total/float64(len(rewards)))
	if colors {
		mean = aurora.Green(mean).String()
	}
	fmt.Printf("%v: mean return over %d episodes: %v\n", tag,
		len(rewards), mean)
}

