// Package tests fetches the external test suites exercised by the emulator
// tests: blargg's test ROMs and the SM83 single-step processor test corpus.
package tests

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"

	"golang.org/x/sync/errgroup"
)

func decompress(zipFile, dest string) error {
	r, err := zip.OpenReader(zipFile)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		fname := strings.Replace(f.Name, "gb-test-roms-master", "gb-test-roms", 1)
		fpath := filepath.Join(dest, fname)
		if !strings.HasPrefix(fpath, filepath.Clean(dest)+string(os.PathSeparator)) {
			return fmt.Errorf("%s: illegal file path", fpath)
		}

		if f.FileInfo().IsDir() {
			os.MkdirAll(fpath, os.ModePerm)
			continue
		}

		if err = os.MkdirAll(filepath.Dir(fpath), os.ModePerm); err != nil {
			return err
		}

		rc, err := f.Open()
		if err != nil {
			return err
		}

		outFile, err := os.OpenFile(fpath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Mode())
		if err != nil {
			rc.Close()
			return err
		}

		_, err = io.Copy(outFile, rc)

		outFile.Close()
		rc.Close()

		if err != nil {
			return err
		}
	}

	log.Println("decompressed", len(r.File), "files")
	return nil
}

func downloadTestRoms(tb testing.TB, dest string) {
	const url = `https://github.com/retrio/gb-test-roms/archive/refs/heads/master.zip`
	resp, err := http.Get(url)
	if err != nil {
		tb.Fatal(err)
	}
	defer resp.Body.Close()

	tmpf, err := os.CreateTemp("", "gb-test-roms-*-.zip")
	if err != nil {
		tb.Fatal(err)
	}
	defer tmpf.Close()

	if _, err := io.Copy(tmpf, resp.Body); err != nil {
		tb.Fatal(err)
	}

	if err := decompress(tmpf.Name(), dest); err != nil {
		tb.Fatalf("failed to decompress test roms: %s", err)
	}
}

// RomsPath returns the local directory holding blargg's test ROMs,
// downloading them on first use.
func RomsPath(tb testing.TB) string {
	return sync.OnceValue(func() string {
		_, b, _, _ := runtime.Caller(0)
		testsDir := filepath.Dir(b)
		romsDir := filepath.Join(testsDir, "gb-test-roms")

		if _, err := os.Stat(romsDir); errors.Is(err, fs.ErrNotExist) {
			tb.Log("gb-test-roms directory not found, downloading it...")
			downloadTestRoms(tb, testsDir)
			tb.Log("Test roms downloaded in", romsDir)
		}

		return romsDir
	})()
}

// download the per-opcode SM83 single-step test files into dest dir. There
// is one file per base opcode plus one per CB-prefixed opcode.
func downloadSM83ProcTests(tb testing.TB, dest string) {
	const urlfmt = `https://raw.githubusercontent.com/SingleStepTests/sm83/main/v1/%s.json`

	tempdir, err := os.MkdirTemp("", "sm83.processor.tests.*")
	if err != nil {
		tb.Fatal(err)
	}

	var names []string
	for opcode := range 256 {
		names = append(names, fmt.Sprintf("%02x", opcode))
		names = append(names, fmt.Sprintf("cb %02x", opcode))
	}

	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())

	for _, name := range names {
		g.Go(func() error {
			resp, err := http.Get(fmt.Sprintf(urlfmt, name))
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			// Undefined opcodes have no test file.
			if resp.StatusCode != http.StatusOK {
				return nil
			}

			f, err := os.Create(filepath.Join(tempdir, name+".json"))
			if err != nil {
				return err
			}
			defer f.Close()

			if _, err := io.Copy(f, resp.Body); err != nil {
				return err
			}

			tb.Log("downloaded", name, "to", f.Name())
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		tb.Fatalf("failed to download all files: %s", err)
	}

	if err := os.Rename(tempdir, dest); err != nil {
		tb.Fatal(err)
	}

	tb.Log("renaming", tempdir, "to", dest)
}

// SM83ProcTestsPath returns the local directory holding the SM83 single-step
// test corpus, downloading it on first use.
func SM83ProcTestsPath(tb testing.TB) string {
	return sync.OnceValue(func() string {
		_, b, _, _ := runtime.Caller(0)
		testsDir := filepath.Join(filepath.Dir(b), "sm83.processor.tests")

		if _, err := os.Stat(testsDir); errors.Is(err, fs.ErrNotExist) {
			tb.Log("sm83.processor.tests directory not found, downloading it...")
			downloadSM83ProcTests(tb, testsDir)
			tb.Log("SM83 processor tests downloaded in", testsDir)
		}

		return testsDir
	})()
}
