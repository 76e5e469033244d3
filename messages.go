package teleprompter

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// MaxMessages caps how many lines are loaded into a message table
const MaxMessages = 100

// MessageTable is the ordered list of spliceable messages, addressed 1..N by
// {messageN} directives. It is loaded once and never mutated during a run.
type MessageTable []string

// Len returns the number of entries
func (t MessageTable) Len() int {
	return len(t)
}

// At returns entry n (1-based)
func (t MessageTable) At(n int) (string, bool) {
	if n < 1 || n > len(t) {
		return "", false
	}
	return t[n-1], true
}

// LoadMessageTable reads one message per line from r. Trailing CR/LF is
// stripped and reading stops after MaxMessages lines.
func LoadMessageTable(r io.Reader) (MessageTable, error) {
	var table MessageTable

	reader := bufio.NewReader(r)
	for len(table) < MaxMessages {
		line, err := reader.ReadString('\n')
		if line != "" {
			table = append(table, strings.TrimRight(line, "\r\n"))
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return table, fmt.Errorf("message table: %w", err)
		}
	}

	return table, nil
}

// LoadMessageFile loads a message table from a file
func LoadMessageFile(filename string) (MessageTable, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("message table: %w", err)
	}
	defer f.Close()

	return LoadMessageTable(f)
}
