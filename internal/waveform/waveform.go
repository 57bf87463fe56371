// Package waveform converts oscilloscope preamble and raw samples into
// (time, voltage) points and exports them as tabular text.
package waveform

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Preamble indices consumed by Decode.
const (
	XIncrementIndex = 5
	YIncrementIndex = 7
	YReferenceIndex = 8

	// MinPreambleLength is the shortest preamble Decode accepts.
	MinPreambleLength = YReferenceIndex + 1
)

// ErrShortPreamble is returned for preambles with fewer than MinPreambleLength values.
var ErrShortPreamble = errors.New("preamble too short")

// Preamble holds the scale parameters reported by :WAVeform:PREamble?.
type Preamble []float64

// XIncrement returns the time between samples in seconds.
func (p Preamble) XIncrement() float64 { return p[XIncrementIndex] }

// YIncrement returns volts per digitizer code.
func (p Preamble) YIncrement() float64 { return p[YIncrementIndex] }

// YReference returns the digitizer code that maps to 0 V.
func (p Preamble) YReference() float64 { return p[YReferenceIndex] }

// Validate checks that the preamble carries every index Decode reads.
func (p Preamble) Validate() error {
	if len(p) < MinPreambleLength {
		return fmt.Errorf("%w: got %d values, need at least %d", ErrShortPreamble, len(p), MinPreambleLength)
	}
	return nil
}

// Point is one decoded sample.
type Point struct {
	Time    float64 // seconds
	Voltage float64 // volts
}

// ParsePreamble parses a comma-separated preamble response.
func ParsePreamble(s string) (Preamble, error) {
	values, err := parseFloats(s)
	if err != nil {
		return nil, fmt.Errorf("invalid preamble: %w", err)
	}
	p := Preamble(values)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// ParseSamples parses a comma-separated ASCII sample response. A leading
// IEEE 488.2 block header, which some scopes prepend in ASCII mode, is ignored.
func ParseSamples(s string) ([]float64, error) {
	values, err := parseFloats(stripBlockHeader(strings.TrimSpace(s)))
	if err != nil {
		return nil, fmt.Errorf("invalid sample data: %w", err)
	}
	return values, nil
}

// Decode converts raw codes to points:
//
//	time[i]    = i * XIncrement
//	voltage[i] = YIncrement * (raw[i] - YReference)
//
// The result has exactly len(raw) points.
func Decode(p Preamble, raw []float64) ([]Point, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	dx, dy, ref := p.XIncrement(), p.YIncrement(), p.YReference()
	points := make([]Point, len(raw))
	for i, code := range raw {
		points[i] = Point{
			Time:    float64(i) * dx,
			Voltage: dy * (code - ref),
		}
	}
	return points, nil
}

func parseFloats(s string) ([]float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.New("empty response")
	}

	fields := strings.Split(s, ",")
	values := make([]float64, len(fields))
	for i, field := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return nil, fmt.Errorf("value %d: %w", i, err)
		}
		values[i] = v
	}
	return values, nil
}

// stripBlockHeader removes a #<n><len> prefix.
func stripBlockHeader(s string) string {
	if len(s) < 2 || s[0] != '#' || s[1] < '1' || s[1] > '9' {
		return s
	}
	n := int(s[1] - '0')
	if len(s) < 2+n {
		return s
	}
	return s[2+n:]
}
