//
//  Copyright 2012 Dmitry Kolesnikov, All Rights Reserved
//
//  Licensed under the Apache License, Version 2.0 (the "License");
//  you may not use this file except in compliance with the License.
//  You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
//  Unless required by applicable law or agreed to in writing, software
//  distributed under the License is distributed on an "AS IS" BASIS,
//  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//  See the License for the specific language governing permissions and
//  limitations under the License.
//

package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/fogfish/snowflake"
	"github.com/fogfish/snowflake/config"
	"github.com/spf13/cobra"
)

type options struct {
	configPath string
	configName string
	safe       bool
}

// newRoot constructs the command tree, output of commands goes to out.
func newRoot(out io.Writer) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "snowflake",
		Short:         "Generate and inspect snowflake identifiers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)

	root.PersistentFlags().StringVar(&opts.configPath, "config-path", ".", "directory of config file")
	root.PersistentFlags().StringVar(&opts.configName, "config-name", "snowflake", "name of config file without extension")
	root.PersistentFlags().BoolVar(&opts.safe, "safe", false, "use 53-bit safe integer identifiers")

	root.AddCommand(newGenerateCommand(opts))
	root.AddCommand(newDecodeCommand(opts))
	root.AddCommand(newLayoutCommand(opts))

	return root
}

func newGenerateCommand(opts *options) *cobra.Command {
	var (
		count  int
		format string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate identifiers using configured generator",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 1 {
				return fmt.Errorf("count must be positive, got %d", count)
			}

			cfg, err := config.Load(opts.configPath, opts.configName)
			if err != nil {
				return err
			}

			if opts.safe {
				gen, err := cfg.NewSafe()
				if err != nil {
					return err
				}
				return generate(cmd, snowflake.NewLocked(gen), count, format)
			}

			gen, err := cfg.New()
			if err != nil {
				return err
			}
			return generate(cmd, snowflake.NewLocked(gen), count, format)
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 1, "number of identifiers")
	cmd.Flags().StringVarP(&format, "format", "f", "dec", "output format: dec, hex, base36 or sortable")

	return cmd
}

func generate[T snowflake.Integer](cmd *cobra.Command, gen *snowflake.Locked[T], count int, format string) error {
	for i := 0; i < count; i++ {
		id, err := gen.Next(cmd.Context())
		if err != nil {
			return err
		}

		s, err := render(id, format)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), s)
	}
	return nil
}

func render[T snowflake.Integer](id T, format string) (string, error) {
	switch format {
	case "dec", "":
		return snowflake.Format(id, 10), nil
	case "hex":
		return snowflake.Format(id, 16), nil
	case "base36":
		return snowflake.Format(id, 36), nil
	case "sortable":
		return snowflake.Encode(id), nil
	default:
		return "", fmt.Errorf("unknown format %q", format)
	}
}

func newDecodeCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "decode ID...",
		Short: "Split identifiers into time, machine id and sequence",
		Long:  "Split identifiers into time, machine id and sequence. Identifier is either decimal or sortable string.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath, opts.configName)
			if err != nil {
				return err
			}

			if opts.safe {
				gen, err := cfg.NewSafe()
				if err != nil {
					return err
				}
				return decode(cmd, gen, args)
			}

			gen, err := cfg.New()
			if err != nil {
				return err
			}
			return decode(cmd, gen, args)
		},
	}
}

func decode[T snowflake.Integer](cmd *cobra.Command, gen *snowflake.Generator[T], args []string) error {
	for _, arg := range args {
		id, err := parse(arg)
		if err != nil {
			return err
		}

		f := gen.Decode(T(id))
		fmt.Fprintf(cmd.OutOrStdout(), "%s time=%s machine=%d sequence=%d\n",
			arg,
			time.UnixMilli(f.Time).UTC().Format(time.RFC3339Nano),
			f.MachineID,
			f.Sequence,
		)
	}
	return nil
}

func parse(s string) (uint64, error) {
	if id, err := strconv.ParseUint(s, 10, 64); err == nil {
		return id, nil
	}
	return snowflake.DecodeString(s)
}

func newLayoutCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "layout",
		Short: "Print bit layout of configured generator",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath, opts.configName)
			if err != nil {
				return err
			}

			var l snowflake.Layout
			if opts.safe {
				gen, err := cfg.NewSafe()
				if err != nil {
					return err
				}
				l = gen.Layout()
			} else {
				gen, err := cfg.New()
				if err != nil {
					return err
				}
				l = gen.Layout()
			}

			fmt.Fprintf(cmd.OutOrStdout(), "budget=%d clock=%d machine=%d sequence=%d max_machine_id=%d max_sequence=%d\n",
				l.Budget, l.ClockBits, l.MachineBits, l.SequenceBits, l.MaxMachineID, l.MaxSequence)
			return nil
		},
	}
}
