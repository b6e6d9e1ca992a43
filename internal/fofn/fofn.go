// Package fofn expands a "file of file names": a path that either names a
// movie file directly, or a text file listing one movie path per line. This
// generalizes LoadPulses2's FileOfFileNames.h usage.
package fofn

import (
	"bufio"
	"context"
	"io/ioutil"
	"strings"

	"github.com/grailbio/base/file"

	"github.com/nucleobio/loadpulses/errs"
)

// suffix identifies a path as a file-of-filenames rather than a movie path,
// matching the PacBio tooling convention.
const suffix = ".fofn"

// Expand resolves one positional movie argument into the ordered list of
// movie paths it names: itself, if path does not end in .fofn; or the
// non-blank lines of the file it points to, otherwise.
func Expand(ctx context.Context, path string) ([]string, error) {
	if !strings.HasSuffix(path, suffix) {
		return []string{path}, nil
	}

	f, err := file.Open(ctx, path)
	if err != nil {
		return nil, errs.Wrap(errs.IO, err, "opening file-of-filenames %s", path)
	}
	defer f.Close(ctx) // nolint: errcheck

	data, err := ioutil.ReadAll(f.Reader(ctx))
	if err != nil {
		return nil, errs.Wrap(errs.IO, err, "reading file-of-filenames %s", path)
	}

	var out []string
	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, errs.Wrap(errs.IO, err, "scanning file-of-filenames %s", path)
	}
	if len(out) == 0 {
		return nil, errs.New(errs.Config, "file-of-filenames %s names no movies", path)
	}
	return out, nil
}

// ExpandAll expands every positional argument in order, concatenating their
// resolved movie paths.
func ExpandAll(ctx context.Context, paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		expanded, err := Expand(ctx, p)
		if err != nil {
			return nil, err
		}
		out = append(out, expanded...)
	}
	return out, nil
}
