package file

import (
	"bufio"
	"os"
	"strings"

	"tableconverter/internal/errors"
)

// ReadList reads a list of export locations, one per line, for batch
// imports. Blank lines and lines starting with '#' are skipped; order is
// preserved.
func ReadList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapConfiguration(err, "open source list")
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.WrapConfiguration(err, "read source list %s", path)
	}
	return out, nil
}
