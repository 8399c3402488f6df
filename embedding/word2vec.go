package embedding

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"
)

// Vectors is a parsed embedding space in file order.
type Vectors struct {
	Keys    []string
	Vectors [][]float32
	Dim     int
	// Duplicates lists keys that appeared more than once; only the first
	// occurrence is kept in Keys/Vectors.
	Duplicates []string
}

// ReadWord2Vec parses the text word2vec format. Fields are separated by a
// single space and trailing whitespace is ignored, so a key may be any
// character other than a space.
func ReadWord2Vec(r io.Reader) (*Vectors, error) {
	br := bufio.NewReader(r)
	header, err := readLine(br)
	if err != nil {
		return nil, fmt.Errorf("embedding: read header: %w", err)
	}
	fields := strings.Fields(header)
	if len(fields) != 2 {
		return nil, fmt.Errorf("embedding: malformed header %q: want \"<count> <dim>\"", header)
	}
	count, err := strconv.Atoi(fields[0])
	if err != nil || count < 0 {
		return nil, fmt.Errorf("embedding: malformed count %q", fields[0])
	}
	dim, err := strconv.Atoi(fields[1])
	if err != nil || dim <= 0 {
		return nil, fmt.Errorf("embedding: malformed dimension %q", fields[1])
	}

	out := &Vectors{
		Keys:    make([]string, 0, count),
		Vectors: make([][]float32, 0, count),
		Dim:     dim,
	}
	seen := make(map[string]struct{}, count)
	for n := 0; n < count; n++ {
		line, err := readLine(br)
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("embedding: unexpected end of input: read %d of %d entries", n, count)
		}
		if err != nil {
			return nil, err
		}
		parts := strings.Split(line, " ")
		if len(parts) != dim+1 {
			return nil, fmt.Errorf("embedding: entry %d: got %d components, want %d", n+1, len(parts)-1, dim)
		}
		key := parts[0]
		vec := make([]float32, dim)
		for j, p := range parts[1:] {
			f, err := strconv.ParseFloat(p, 32)
			if err != nil {
				return nil, fmt.Errorf("embedding: entry %d (%q) component %d: %w", n+1, key, j+1, err)
			}
			vec[j] = float32(f)
		}
		if _, dup := seen[key]; dup {
			out.Duplicates = append(out.Duplicates, key)
			continue
		}
		seen[key] = struct{}{}
		out.Keys = append(out.Keys, key)
		out.Vectors = append(out.Vectors, vec)
	}
	return out, nil
}

// readLine returns the next line without trailing whitespace. A final line
// without a newline is returned normally; io.EOF is reported only when
// nothing was read.
func readLine(br *bufio.Reader) (string, error) {
	line, err := br.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRightFunc(line, unicode.IsSpace), nil
}
