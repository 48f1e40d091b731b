package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/andreyvit/sclone"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var verbose bool

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           log.InfoLevel,
	})

	root := &cobra.Command{
		Use:           "sclone",
		Short:         "Inspect and convert sclone wire sequences",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				logger.SetLevel(log.DebugLevel)
			}
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(&cobra.Command{
		Use:   "dump <file>",
		Short: "Print the record table of a wire sequence (.json or .bin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return dump(logger, args[0])
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "convert <in> <out>",
		Short: "Convert a wire sequence between text (.json) and binary (.bin) forms",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return convert(logger, args[0], args[1])
		},
	})

	return root.ExecuteContext(ctx)
}

func readSequence(logger *log.Logger, path string) (sclone.WireSequence, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var seq sclone.WireSequence
	if isBinaryPath(path) {
		logger.Debug("reading binary sequence", "path", path, "bytes", len(data))
		err = seq.UnmarshalBinary(data)
	} else {
		logger.Debug("reading text sequence", "path", path, "bytes", len(data))
		err = seq.UnmarshalText(data)
	}
	if err != nil {
		return nil, err
	}
	return seq, nil
}

func isBinaryPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".bin", ".msgpack", ".mp":
		return true
	}
	return false
}

func dump(logger *log.Logger, path string) error {
	seq, err := readSequence(logger, path)
	if err != nil {
		return err
	}
	for i, r := range seq {
		fmt.Printf("%4d  %-7s %s\n", i, r.Tag, describe(r))
	}
	logger.Info("done", "records", len(seq))
	return nil
}

func describe(r sclone.Record) string {
	switch r.Tag {
	case sclone.TagVoid:
		return ""
	case sclone.TagScalar, sclone.TagDate, sclone.TagBigInt:
		return fmt.Sprintf("%#v", r.Scalar)
	case sclone.TagList, sclone.TagSet:
		return fmt.Sprintf("%d elements %v", len(r.List), r.List)
	case sclone.TagObject, sclone.TagMap:
		return fmt.Sprintf("%d entries %v", len(r.Pairs), r.Pairs)
	case sclone.TagRegexp:
		return fmt.Sprintf("/%v/%s", r.Scalar, r.Flags)
	case sclone.TagError:
		return fmt.Sprintf("%s: %v", r.Name, r.Scalar)
	case sclone.TagBoxed:
		return fmt.Sprintf("%s %#v", r.Name, r.Scalar)
	case sclone.TagTyped:
		return fmt.Sprintf("%s %v", r.Name, r.Elems)
	default:
		return fmt.Sprintf("%+v", r)
	}
}

func convert(logger *log.Logger, in, out string) error {
	seq, err := readSequence(logger, in)
	if err != nil {
		return err
	}
	var data []byte
	if isBinaryPath(out) {
		data, err = seq.MarshalBinary()
	} else {
		data, err = seq.MarshalText()
	}
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, data, 0644); err != nil {
		return err
	}
	logger.Info("converted", "records", len(seq), "in", in, "out", out, "bytes", len(data))
	return nil
}
