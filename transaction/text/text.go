/*
Package text reads transactions from, and writes frequent patterns to,
plain text streams.

Transactions are read one per line with their items separated by a single
separator character. Patterns are written one per line as every item
followed by the separator, then a colon and the support of the pattern.
*/
package text

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pbanos/pfpgrowth/itemset"
	"github.com/pbanos/pfpgrowth/support"
	"github.com/pbanos/pfpgrowth/transaction"
)

// DefaultSeparator is the separator used when none is given.
const DefaultSeparator = "\t"

const maxLineLength = 64 * 1024 * 1024

/*
Writer is an interface for a destination to which patterns can be written.
*/
type Writer interface {
	// Write will attempt to write the given patterns
	// and will return the actually written number of
	// patterns and an error (if not all patterns could
	// be written)
	Write(context.Context, []itemset.Pattern) (int, error)
	// Count returns the total number of patterns written
	// to the writer
	Count() int
	// Flush ensures any pending written operations finish
	// before returning. It returns an error if that cannot
	// be ensured.
	Flush() error
}

type textWriter struct {
	count int
	sep   string
	w     *bufio.Writer
}

type fileDataset struct {
	path string
	sep  string
}

/*
ParseSeparator takes the separator as given by a user and returns the
separator to use. Besides a single character, the escape sequence `\t` and
the word "tab" are accepted for a tab. Any other value results in an error
matching support.ErrInvalidConfiguration.
*/
func ParseSeparator(s string) (string, error) {
	switch s {
	case "":
		return DefaultSeparator, nil
	case `\t`, "tab":
		return "\t", nil
	}
	if utf8.RuneCountInString(s) != 1 || s == "\n" || s == "\r" {
		return "", support.NewConfigurationError("separator", s, "must be a single character other than a line break")
	}
	return s, nil
}

/*
ReadTransactions takes an io.Reader, a separator and a lambda function on
an integer and a transaction that returns a boolean value. It parses a
transaction from every line and calls the lambda function with its index
and items. If the lambda function returns true, it will continue processing
the next line, otherwise it will stop. An error is returned if something
goes wrong when reading or if the lambda function returns one.

Trailing white space is stripped from every line and empty fields are
ignored, so an empty line is a transaction without items.
*/
func ReadTransactions(reader io.Reader, sep string, lambda func(int, []itemset.Item) (bool, error)) error {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)
	for l := 0; scanner.Scan(); l++ {
		ok, err := lambda(l, parseLine(scanner.Text(), sep))
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading transactions: %v", err)
	}
	return nil
}

func parseLine(line, sep string) []itemset.Item {
	line = strings.TrimRightFunc(line, unicode.IsSpace)
	if line == "" {
		return []itemset.Item{}
	}
	fields := strings.Split(line, sep)
	items := make([]itemset.Item, 0, len(fields))
	for _, f := range fields {
		if f != "" {
			items = append(items, itemset.Item(f))
		}
	}
	return items
}

/*
Read takes an io.Reader and a separator and returns an in-memory
transaction.Dataset with the transactions read from it. Use it for streams
that cannot be read twice, such as os.Stdin.
*/
func Read(reader io.Reader, sep string) (transaction.Dataset, error) {
	var transactions [][]itemset.Item
	err := ReadTransactions(reader, sep, func(_ int, t []itemset.Item) (bool, error) {
		transactions = append(transactions, t)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return transaction.New(transactions), nil
}

/*
Open takes a filepath and a separator and returns a transaction.Dataset
that reads the file every time its transactions are requested. It returns
an error if the file cannot be accessed.
*/
func Open(filepath, sep string) (transaction.Dataset, error) {
	fi, err := os.Stat(filepath)
	if err != nil {
		return nil, fmt.Errorf("opening transactions file: %v", err)
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("opening transactions file: %s is a directory", filepath)
	}
	return &fileDataset{filepath, sep}, nil
}

func (fd *fileDataset) Read(ctx context.Context) (<-chan []itemset.Item, <-chan error) {
	transactions := make(chan []itemset.Item)
	errs := make(chan error, 1)
	go func() {
		defer close(transactions)
		defer close(errs)
		f, err := os.Open(fd.path)
		if err != nil {
			errs <- fmt.Errorf("reading transactions from %s: %v", fd.path, err)
			return
		}
		defer f.Close()
		err = ReadTransactions(f, fd.sep, func(_ int, t []itemset.Item) (bool, error) {
			select {
			case <-ctx.Done():
				return false, ctx.Err()
			case transactions <- t:
			}
			return true, nil
		})
		if err != nil {
			errs <- err
		}
	}()
	return transactions, errs
}

func (fd *fileDataset) Count(ctx context.Context) (int, error) {
	f, err := os.Open(fd.path)
	if err != nil {
		return 0, fmt.Errorf("counting transactions in %s: %v", fd.path, err)
	}
	defer f.Close()
	var count int
	err = ReadTransactions(f, fd.sep, func(int, []itemset.Item) (bool, error) {
		count++
		return true, ctx.Err()
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (fd *fileDataset) String() string {
	return fmt.Sprintf("{TextDataset %s}", fd.path)
}

/*
NewWriter takes an io.Writer and a separator and returns a Writer that
will write patterns on the io.Writer.
*/
func NewWriter(writer io.Writer, sep string) Writer {
	return &textWriter{sep: sep, w: bufio.NewWriter(writer)}
}

/*
WritePatterns takes a writer, a slice of patterns and a separator and dumps
the patterns to the writer. It returns an error if something went wrong
when writing.
*/
func WritePatterns(ctx context.Context, writer io.Writer, patterns []itemset.Pattern, sep string) error {
	tw := NewWriter(writer, sep)
	_, err := tw.Write(ctx, patterns)
	if err != nil {
		return err
	}
	return tw.Flush()
}

// FormatPattern returns the line for the pattern, without line break.
func FormatPattern(p itemset.Pattern, sep string) string {
	var b strings.Builder
	for _, item := range p.Items {
		b.WriteString(string(item))
		b.WriteString(sep)
	}
	b.WriteByte(':')
	b.WriteString(strconv.Itoa(p.Support))
	return b.String()
}

func (tw *textWriter) Count() int {
	return tw.count
}

func (tw *textWriter) Write(ctx context.Context, patterns []itemset.Pattern) (int, error) {
	for n, p := range patterns {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		_, err := tw.w.WriteString(FormatPattern(p, tw.sep))
		if err == nil {
			err = tw.w.WriteByte('\n')
		}
		if err != nil {
			return n, fmt.Errorf("writing pattern %d: %v", tw.count+1, err)
		}
		tw.count++
	}
	return len(patterns), nil
}

func (tw *textWriter) Flush() error {
	return tw.w.Flush()
}
