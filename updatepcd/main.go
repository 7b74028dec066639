package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
	"github.com/seqsense/pcgol/pc"
	"github.com/spf13/cobra"

	util_log "tangodecode/pkg/log"
	"tangodecode/pkg/pcd"
)

var cfg struct {
	in       string
	out      string
	data     string
	logLevel string
}

var cmd = &cobra.Command{
	Use:   "updatepcd",
	Short: "Rewrite PCD files as x/y/z float clouds in the chosen encoding",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		util_log.InitLogger(cfg.logLevel)
		return tranPcdFiles()
	},
}

func init() {
	cmd.PersistentFlags().StringVarP(&cfg.in, "in", "i", "", "input dir")
	cmd.PersistentFlags().StringVarP(&cfg.out, "out", "o", "", "output dir")
	cmd.PersistentFlags().StringVar(&cfg.data, "data", pcd.DataBinaryCompressed, "PCD data encoding: ascii, binary or binary_compressed")
	cmd.PersistentFlags().StringVar(&cfg.logLevel, "log.level", "info", "log level: debug, info, warn or error")

	cmd.MarkPersistentFlagRequired("in")
}

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func tranPcdFiles() (err error) {
	if cfg.out == "" {
		cfg.out = cfg.in
	}
	return UpdateDirPcd(cfg.in, cfg.out, cfg.data)
}

// UpdateDirPcd re-encodes every PCD file of sourceDir into outDir. Files are
// read fully before being written, so outDir may equal sourceDir.
func UpdateDirPcd(sourceDir, outDir, dataType string) (err error) {
	ds, err := os.ReadDir(sourceDir)
	if err != nil {
		return err
	}
	for _, d := range ds {
		fn := d.Name()
		if d.IsDir() || filepath.Ext(fn) != ".pcd" {
			continue
		}
		src := filepath.Join(sourceDir, fn)
		out := filepath.Join(outDir, fn)
		if err := UpdatePcd(src, out, dataType); err != nil {
			return errors.Wrap(err, src)
		}
		fmt.Printf("UpdatePcd %s => %s\n", src, out)
	}
	return nil
}

// UpdatePcd loads src with pcgol, which understands every PCD field layout,
// and writes its x/y/z fields to out.
func UpdatePcd(src, out, dataType string) error {
	p, err := normalize(src)
	if err != nil {
		return err
	}
	pcdf, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := p.EncodeAs(pcdf, dataType); err != nil {
		pcdf.Close()
		return err
	}
	return pcdf.Close()
}

func normalize(src string) (*pcd.Pcd, error) {
	f, err := os.Open(src)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pcf, err := pc.Unmarshal(f)
	if err != nil {
		return nil, errors.Wrap(err, "pcgol unmarshal")
	}
	level.Debug(util_log.Logger).Log("msg", "loaded pcd", "file", src, "points", pcf.Points)

	ir, iw := io.Pipe()
	go func() {
		iw.CloseWithError(pc.Marshal(pcf, iw))
	}()
	p, err := pcd.DecodePcd(ir)
	// unblocks the marshalling goroutine if decoding stopped early
	ir.Close()
	if err != nil {
		return nil, err
	}
	return p, nil
}
