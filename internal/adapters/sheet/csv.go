package sheet

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/okian/recruitstat/internal/domain/model"
)

func parseCSV(r io.Reader) (model.Table, error) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(4096)

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.Comma = sniffDelimiter(head)

	rows, err := cr.ReadAll()
	if err != nil {
		return model.Table{}, fmt.Errorf("%w: %w", ErrParse, err)
	}
	return tableFromRows(rows), nil
}

// sniffDelimiter picks the most frequent of ',', ';' and tab on the first line.
func sniffDelimiter(head []byte) rune {
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		head = head[:i]
	}
	best, bestCount := ',', bytes.Count(head, []byte{','})
	for _, d := range []rune{';', '\t'} {
		if n := bytes.Count(head, []byte{byte(d)}); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}
