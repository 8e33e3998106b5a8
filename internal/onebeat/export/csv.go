package export

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
)

const (
	csvFlushEvery = 200
	csvBufferSize = 32 * 1024
	// Delimiter separates fields in every OneBeat file.
	Delimiter = ';'
)

type csvStreamer struct {
	buf          *bufio.Writer
	csv          *csv.Writer
	flushEvery   int
	pendingLines int
}

func newCSVStreamer(w io.Writer) *csvStreamer {
	buf := bufio.NewWriterSize(w, csvBufferSize)
	writer := csv.NewWriter(buf)
	writer.Comma = Delimiter
	writer.UseCRLF = true
	return &csvStreamer{buf: buf, csv: writer, flushEvery: csvFlushEvery}
}

func (s *csvStreamer) writeRow(row []string) error {
	if s == nil || s.csv == nil {
		return fmt.Errorf("csv streamer not initialised")
	}
	if err := s.csv.Write(row); err != nil {
		return err
	}
	s.pendingLines++
	if s.flushEvery > 0 && s.pendingLines >= s.flushEvery {
		return s.Flush()
	}
	return nil
}

func (s *csvStreamer) Flush() error {
	if s == nil || s.csv == nil || s.buf == nil {
		return fmt.Errorf("csv streamer not initialised")
	}
	s.csv.Flush()
	if err := s.csv.Error(); err != nil {
		return err
	}
	if err := s.buf.Flush(); err != nil {
		return err
	}
	s.pendingLines = 0
	return nil
}

func (s *csvStreamer) Close() error {
	return s.Flush()
}

// WriteReport streams the header and one line per row.
func WriteReport[R any](w io.Writer, report Report[R], rows []R) error {
	streamer := newCSVStreamer(w)
	if err := streamer.writeRow(report.Headers()); err != nil {
		return err
	}
	line := make([]string, len(report.Columns))
	for _, row := range rows {
		for i, col := range report.Columns {
			if col.Value == nil {
				line[i] = ""
				continue
			}
			line[i] = col.Value(row)
		}
		if err := streamer.writeRow(line); err != nil {
			return err
		}
	}
	return streamer.Close()
}
