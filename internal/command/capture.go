package command

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/instrument-tool/scpicon/internal/waveform"
)

// imageFormats maps file extensions to the :DISPlay:DATA? format token.
var imageFormats = map[string]string{
	".png":  "PNG",
	".jpg":  "JPEG",
	".jpeg": "JPEG",
}

// ImageFormatFor returns the on-wire image format for filename's extension.
func ImageFormatFor(filename string) (string, bool) {
	format, ok := imageFormats[strings.ToLower(filepath.Ext(filename))]
	return format, ok
}

// screenCapture requests a screen image block and writes it verbatim.
// The extension is checked before any transport I/O.
func screenCapture(label string) InstrumentFunc {
	return func(ctx context.Context, c *Call) (*Result, error) {
		filename := unquote(c.Arg)
		format, ok := ImageFormatFor(filename)
		if !ok {
			return nil, invalidArgument("Unsupported format for screen capture. Use PNG or JPEG/JPG.")
		}

		data, err := c.Inst.QueryBinary(ctx, ":DISPlay:DATA? "+format)
		if err != nil {
			return nil, err
		}
		if len(data) == 0 {
			return nil, &Error{Code: CodeTransport, Message: "Error: Received no image data from the instrument."}
		}

		path := c.Env.resolvePath(filename)
		if err := os.WriteFile(path, data, 0644); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", path, err)
		}

		result := message("Requesting %sscreen data (%s)...", label, format)
		result.Addf("%s capture successfully saved to: %s (%d bytes)", capitalize(label+"screen"), path, len(data))
		return result, nil
	}
}

// captureWaveform reads the preamble and ASCII samples of the current
// waveform source, decodes them and exports CSV or TXT by extension.
func captureWaveform(ctx context.Context, c *Call) (*Result, error) {
	filename := unquote(c.Arg)
	if _, err := waveform.FormatFor(filename); err != nil {
		return nil, invalidArgument("Unsupported format for data capture. Use CSV or TXT.")
	}

	preamble, err := c.Query(ctx, ":WAVeform:PREamble?")
	if err != nil {
		return nil, err
	}
	pre, err := waveform.ParsePreamble(preamble)
	if err != nil {
		return nil, &Error{Code: CodeFormat, Message: "Invalid waveform preamble", Err: err}
	}

	if err := c.Write(ctx, ":WAVeform:FORMat ASCii"); err != nil {
		return nil, err
	}
	data, err := c.Query(ctx, ":WAVeform:DATA?")
	if err != nil {
		return nil, err
	}
	raw, err := waveform.ParseSamples(data)
	if err != nil {
		return nil, &Error{Code: CodeFormat, Message: "Invalid waveform data", Err: err}
	}

	points, err := waveform.Decode(pre, raw)
	if err != nil {
		return nil, &Error{Code: CodeFormat, Message: "Invalid waveform preamble", Err: err}
	}

	path := c.Env.resolvePath(filename)
	if err := waveform.WriteFile(path, points); err != nil {
		return nil, err
	}
	return message("Waveform data successfully processed and saved to: %s (%d points).", path, len(points)), nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
