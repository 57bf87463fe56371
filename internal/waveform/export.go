package waveform

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Format is an export file format.
type Format int

const (
	FormatCSV Format = iota + 1
	FormatTXT
)

func (f Format) String() string {
	switch f {
	case FormatCSV:
		return "CSV"
	case FormatTXT:
		return "TXT"
	}
	return "UNKNOWN"
}

// Header is the column header row written by every format.
var Header = []string{"Time (s)", "Voltage (V)"}

// ErrUnsupportedFormat is returned for file extensions other than .csv and .txt.
var ErrUnsupportedFormat = errors.New("unsupported format for data capture, use CSV or TXT")

// FormatFor selects the export format from a file name's extension.
func FormatFor(filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(strings.TrimSpace(filename))) {
	case ".csv":
		return FormatCSV, nil
	case ".txt":
		return FormatTXT, nil
	}
	return 0, ErrUnsupportedFormat
}

// Write serializes points in format f.
func Write(w io.Writer, f Format, points []Point) error {
	switch f {
	case FormatCSV:
		return writeCSV(w, points)
	case FormatTXT:
		return writeTXT(w, points)
	}
	return ErrUnsupportedFormat
}

// WriteFile creates filename and writes points in the format chosen by its extension.
func WriteFile(filename string, points []Point) error {
	f, err := FormatFor(filename)
	if err != nil {
		return err
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filename, err)
	}
	if err := Write(file, f, points); err != nil {
		file.Close()
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}
	return file.Close()
}

func writeCSV(w io.Writer, points []Point) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, p := range points {
		record := []string{
			strconv.FormatFloat(p.Time, 'g', -1, 64),
			strconv.FormatFloat(p.Voltage, 'g', -1, 64),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeTXT(w io.Writer, points []Point) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%s\t%s\n", Header[0], Header[1])
	for _, p := range points {
		fmt.Fprintf(bw, "%.6e\t%.6e\n", p.Time, p.Voltage)
	}
	return bw.Flush()
}
