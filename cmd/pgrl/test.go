package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/samuelfneumann/pgrl/agent"
)

func newTestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Test a saved agent with its greedy policy",
		RunE:  runTest,
	}

	flags := cmd.Flags()
	flags.String("checkpoint", "", "saved policy")
	flags.Int("episodes", 5, "test episodes")
	cmd.MarkFlagRequired("checkpoint")

	return cmd
}

func runTest(cmd *cobra.Command, args []string) error {
	vp, err := bind(cmd)
	if err != nil {
		return err
	}
	logger := newLogger()

	env, closeEnv, err := newEnvironment(vp.GetString("env"),
		vp.GetInt("env-steps"), vp.GetUint64("seed"))
	if err != nil {
		return fmt.Errorf("test: %v", err)
	}
	defer closeEnv()

	path := vp.GetString("checkpoint")
	tag := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	a, err := agent.ForInference(tag, env, path, options(vp, logger)...)
	if err != nil {
		return fmt.Errorf("test: %v", err)
	}
	defer a.Close()

	rewards, err := a.Test(vp.GetInt("episodes"))
	if err != nil {
		return fmt.Errorf("test: %v", err)
	}
	summarize(tag, rewards, vp.GetBool("colors"))
	return nil
}
