package main

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	util_log "tangodecode/pkg/log"
	"tangodecode/pkg/pcd"
	"tangodecode/pkg/tango"
)

var cfg struct {
	pcd      string
	pcdData  string
	print    bool
	points   bool
	summary  bool
	logLevel string
}

var cmd = &cobra.Command{
	Use:           "decode <inputPath> <outputPath>",
	Short:         "Decode a Tango capture into text and CSV point files",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) < 2 {
			return cmd.Usage()
		}
		util_log.InitLogger(cfg.logLevel)
		return run(args[0], args[1])
	},
}

func init() {
	cmd.PersistentFlags().StringVar(&cfg.pcd, "pcd", "", "also write a PCD file to this path")
	cmd.PersistentFlags().StringVar(&cfg.pcdData, "pcd-data", pcd.DataBinary, "PCD data encoding: ascii, binary or binary_compressed")
	cmd.PersistentFlags().BoolVarP(&cfg.print, "print", "p", false, "echo every decoded record")
	cmd.PersistentFlags().BoolVar(&cfg.points, "print-points", false, "with --print, list the points of every depth frame")
	cmd.PersistentFlags().BoolVar(&cfg.summary, "summary", false, "print a summary table after decoding")
	cmd.PersistentFlags().StringVar(&cfg.logLevel, "log.level", "warn", "log level: debug, info, warn or error")
}

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(in, out string) error {
	info, err := os.Stat(in)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Wrap(tango.ErrMissingInput, in)
		}
		return err
	}
	switch cfg.pcdData {
	case pcd.DataASCII, pcd.DataBinary, pcd.DataBinaryCompressed:
	default:
		return errors.Wrap(pcd.ErrUnsupportPcdDataType, cfg.pcdData)
	}
	csvPath := pcd.CSVPath(out)
	if csvPath == out {
		return errors.Errorf("output %s would be overwritten by its CSV companion", out)
	}

	var opts []tango.Option
	if cfg.print {
		opts = append(opts, tango.WithHandler(tango.NewPrinter(os.Stdout, cfg.points).Handle))
	}

	fmt.Printf("Reading from %s (%s)...\n", in, humanize.Bytes(uint64(info.Size())))
	tic := time.Now()
	cloud, stats, err := tango.DecodeFile(in, opts...)
	if err != nil {
		return err
	}
	fmt.Printf("[done %s]\n", time.Since(tic).Round(time.Millisecond))
	if cfg.summary {
		tango.WriteSummary(os.Stdout, stats)
	}

	sinks := []pcd.Sink{pcd.TextSink{Path: out}, pcd.CSVSink{Path: csvPath}}
	targets := []string{out, csvPath}
	if cfg.pcd != "" {
		sinks = append(sinks, pcd.PCDSink{Path: cfg.pcd, DataType: cfg.pcdData})
		targets = append(targets, cfg.pcd)
	}
	written := int64(cloud.NonZero().Len())
	for _, t := range targets {
		fmt.Printf("Writing %s points to %s...\n", humanize.Comma(written), t)
	}
	tic = time.Now()
	if err := pcd.WriteAll(cloud, sinks...); err != nil {
		return err
	}
	fmt.Printf("[done %s]\n", time.Since(tic).Round(time.Millisecond))
	return nil
}
