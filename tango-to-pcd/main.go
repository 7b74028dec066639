package main

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	util_log "tangodecode/pkg/log"
	"tangodecode/pkg/pcd"
	"tangodecode/pkg/tango"
)

var cfg struct {
	in       string
	out      string
	data     string
	jobs     int
	logLevel string
}

var cmd = &cobra.Command{
	Use:   "tango-to-pcd",
	Short: "Convert a directory or zip of Tango captures to PCD files",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		util_log.InitLogger(cfg.logLevel)
		if isZip(cfg.in) {
			return tranZipFile()
		}
		return tranCaptureFiles()
	},
}

func init() {
	cmd.PersistentFlags().StringVarP(&cfg.in, "in", "i", "", "input zipFile or dir")
	cmd.PersistentFlags().StringVarP(&cfg.out, "out", "o", "", "output zipFile or dir")
	cmd.PersistentFlags().StringVar(&cfg.data, "data", pcd.DataBinary, "PCD data encoding: ascii, binary or binary_compressed")
	cmd.PersistentFlags().IntVarP(&cfg.jobs, "jobs", "j", runtime.NumCPU(), "captures converted at once in dir mode")
	cmd.PersistentFlags().StringVar(&cfg.logLevel, "log.level", "info", "log level: debug, info, warn or error")

	cmd.MarkPersistentFlagRequired("in")
}

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func tranCaptureFiles() (err error) {
	if cfg.out == "" {
		cfg.out = cfg.in
	}
	return TransDirToPcd(cfg.in, cfg.out, cfg.data, cfg.jobs)
}

func isZip(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == ".zip"
}

func pcdName(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name)) + ".pcd"
}

func tranZipFile() (err error) {
	if cfg.out == "" {
		base := filepath.Base(cfg.in)
		ext := filepath.Ext(base)
		cfg.out = strings.TrimSuffix(base, ext) + "-pcd" + ext
	}
	return TransZipToPcd(cfg.in, cfg.out, cfg.data)
}

// TransZipToPcd copies the zip at in to out, replacing every capture with a
// PCD file of the same base name. Other entries are copied unchanged.
func TransZipToPcd(in, out, dataType string) (err error) {
	if out == in {
		return errors.New("input file can not be the output file")
	}
	inZip, err := zip.OpenReader(in)
	if err != nil {
		return err
	}
	defer inZip.Close()

	outFile, err := os.Create(out)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := outFile.Close(); err == nil {
			err = cerr
		}
	}()
	outZip := zip.NewWriter(outFile)
	defer func() {
		if cerr := outZip.Close(); err == nil {
			err = cerr
		}
	}()

	for _, f := range inZip.File {
		if strings.ToLower(filepath.Ext(f.Name)) != tango.Ext {
			if err = copyRaw(outZip, f); err != nil {
				return err
			}
			continue
		}
		err = func() error {
			r, err := f.Open()
			if err != nil {
				return err
			}
			defer r.Close()
			// captures need a seekable stream
			raw, err := io.ReadAll(r)
			if err != nil {
				return err
			}
			w, err := outZip.Create(pcdName(f.Name))
			if err != nil {
				return err
			}
			stats, err := tango.Convert(bytes.NewReader(raw), w, dataType)
			if err != nil {
				return errors.Wrap(err, f.Name)
			}
			level.Info(util_log.Logger).Log("msg", "converted capture", "capture", f.Name, "points", stats.Points)
			return nil
		}()
		if err != nil {
			return err
		}
	}
	return nil
}

func copyRaw(outZip *zip.Writer, f *zip.File) error {
	w, err := outZip.CreateRaw(&f.FileHeader)
	if err != nil {
		return err
	}
	r, err := f.OpenRaw()
	if err != nil {
		return err
	}
	_, err = io.Copy(w, r)
	return err
}

// TransDirToPcd converts every capture in sourceDir into outDir, up to jobs
// captures at a time.
func TransDirToPcd(sourceDir, outDir, dataType string, jobs int) (err error) {
	ds, err := os.ReadDir(sourceDir)
	if err != nil {
		return err
	}
	if jobs < 1 {
		jobs = 1
	}
	var g errgroup.Group
	g.SetLimit(jobs)
	for _, d := range ds {
		fn := d.Name()
		if d.IsDir() || strings.ToLower(filepath.Ext(fn)) != tango.Ext {
			continue
		}
		src := filepath.Join(sourceDir, fn)
		out := filepath.Join(outDir, pcdName(fn))
		g.Go(func() error {
			return transFile(src, out, dataType)
		})
	}
	return g.Wait()
}

func transFile(src, out, dataType string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	pcdf, err := os.Create(out)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := pcdf.Close(); err == nil {
			err = cerr
		}
	}()
	stats, err := tango.Convert(in, pcdf, dataType)
	if err != nil {
		return errors.Wrap(err, src)
	}
	fmt.Printf("TransTangoToPcd %s => %s (%d points)\n", src, out, stats.Points)
	return nil
}
