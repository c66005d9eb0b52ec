package main

import (
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/samuelfneumann/pgrl/agent"
	"github.com/samuelfneumann/pgrl/checkpoint"
	"github.com/samuelfneumann/pgrl/hyperparams"
	"github.com/samuelfneumann/pgrl/metrics"
)

// Training algorithms
const (
	reinforce = "reinforce"
	a2c       = "a2c"
)

func newTrainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train an agent from a hyperparameter file",
		RunE:  runTrain,
	}

	def := agent.DefaultREINFORCE()
	flags := cmd.Flags()
	flags.String("hyperparams", "", "hyperparameter file (JSON or YAML)")
	flags.String("algorithm", reinforce, "training algorithm, one of "+
		reinforce+", "+a2c)
	flags.String("tag", "", "run identifier, a random UUID by default")
	flags.String("out", "", "checkpoint path, timestamped under models/ "+
		"by default")
	flags.String("chart", "", "if set, write an HTML chart of the run")
	flags.String("tracker", "", "if set, write the run's metrics in gob "+
		"format")
	flags.Bool("progress", false, "display a progress bar")

	flags.Int("epochs", def.Epochs, "REINFORCE epochs")
	flags.Int("episodes", def.Episodes, "REINFORCE episodes per epoch")
	flags.Bool("baseline", false, "REINFORCE with a mean-return baseline")
	flags.Bool("causality", false, "REINFORCE with reward-to-go weights")
	flags.Int("test-spacing", 0, "A2C epochs between evaluations, 0 "+
		"never evaluates")
	cmd.MarkFlagRequired("hyperparams")

	return cmd
}

func runTrain(cmd *cobra.Command, args []string) error {
	vp, err := bind(cmd)
	if err != nil {
		return err
	}
	logger := newLogger()

	spec, err := hyperparams.Load(vp.GetString("hyperparams"))
	if err != nil {
		return fmt.Errorf("train: %v", err)
	}

	tag := vp.GetString("tag")
	if tag == "" {
		tag = "pgrl-" + uuid.New().String()
	}

	env, closeEnv, err := newEnvironment(vp.GetString("env"),
		vp.GetInt("env-steps"), vp.GetUint64("seed"))
	if err != nil {
		return fmt.Errorf("train: %v", err)
	}
	defer closeEnv()

	sinks := []metrics.Sink{metrics.NewLog(logger, vp.GetBool("colors"))}
	if path := vp.GetString("chart"); path != "" {
		sinks = append(sinks, metrics.NewChart(path))
	}
	if path := vp.GetString("tracker"); path != "" {
		sinks = append(sinks, metrics.NewTracker(path))
	}

	opts := append(options(vp, logger), agent.WithSink(metrics.Multi(sinks...)))
	if vp.GetBool("progress") {
		opts = append(opts, agent.WithProgress(cmd.ErrOrStderr()))
	}

	a, err := agent.ForTraining(tag, spec, env, opts...)
	if err != nil {
		return fmt.Errorf("train: %v", err)
	}
	defer a.Close()

	switch alg := vp.GetString("algorithm"); alg {
	case reinforce:
		err = a.TrainREINFORCE(agent.REINFORCEConfig{
			Epochs:       vp.GetInt("epochs"),
			Episodes:     vp.GetInt("episodes"),
			UseBaseline:  vp.GetBool("baseline"),
			UseCausality: vp.GetBool("causality"),
		})

	case a2c:
		err = a.TrainA2C(vp.GetInt("test-spacing"))

	default:
		err = fmt.Errorf("unknown algorithm %v", alg)
	}
	if err != nil {
		return fmt.Errorf("train: %v", err)
	}

	out := vp.GetString("out")
	if out == "" {
		out = checkpoint.FileTimer(filepath.Join("models", tag), ".bin")()
	}
	if err := a.Save(out); err != nil {
		return fmt.Errorf("train: %v", err)
	}
	return nil
}
