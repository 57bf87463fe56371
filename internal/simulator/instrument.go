package simulator

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/instrument-tool/scpicon/internal/visa"
)

// DefaultIDN identifies the simulator when no IDN is configured.
const DefaultIDN = "SCPICON,SIMULATOR,0001,1.0"

const (
	maxErrorQueue = 16

	// Simulated load seen by the supply output.
	loadOhms = 100.0

	waveformPoints   = 100
	samplesPerCycle  = 50
	waveformXInc     = 1e-6
	waveformYInc     = 0.01
	waveformYRef     = 127
	waveformAmplCode = 100
)

// SCPI error queue entries.
const (
	errUndefinedHeader  = `-113,"Undefined header"`
	errMissingParameter = `-109,"Missing parameter"`
	errIllegalParameter = `-224,"Illegal parameter value"`
	errQueueOverflow    = `-350,"Queue overflow"`
	noError             = `+0,"No error"`
)

const (
	defaultSweepPoints   = 201
	defaultCenterFreqHz  = 1e9
	defaultMarkerLevelDB = -20.0
)

// reply is the response to one command. A nil reply means no response.
type reply struct {
	text  string
	block []byte
}

func textReply(format string, args ...interface{}) *reply {
	return &reply{text: fmt.Sprintf(format, args...)}
}

type request struct {
	args     string
	suffixes []string
}

type handler func(in *Instrument, req request) *reply

type route struct {
	pattern string
	fn      handler
}

// Instrument is the thread-safe state of the simulated bench.
type Instrument struct {
	mu sync.Mutex

	idn      string
	options  string
	settings map[string]string
	errors   []string

	output  bool
	input   bool
	voltage float64
	current float64

	waveFormat string
	samples    []int
	screens    map[string][]byte

	routes []route
}

// NewInstrument creates a simulated instrument in its reset state.
func NewInstrument(idn string) *Instrument {
	if idn == "" {
		idn = DefaultIDN
	}

	in := &Instrument{
		idn:     idn,
		options: "0",
		screens: screenImages(),
		samples: sineSamples(),
	}
	in.routes = in.buildRoutes()
	in.reset()
	return in
}

// settingDefaults are the values of plain settings after *RST.
var settingDefaults = map[string]string{
	":SENSe:FUNCtion":                     `"VOLT:DC"`,
	":SENSe:RANGe":                        "AUTO",
	":SENSe:RANGe:AUTO":                   "1",
	":SENSe:DELay":                        "0",
	":SENSe:RESolution":                   "DEF",
	":HORizontal:SCALe":                   "1.0E-03",
	":CHANnel#:SCALe":                     "1.0",
	":TRIGger:SOURce":                     "CHAN1",
	":TRIGger:LEVel":                      "0.0",
	":TRIGger:EDGE:SLOPe":                 "POS",
	":WAVeform:SOURce":                    "CHAN1",
	":FUNCtion":                           "SIN",
	":FREQuency":                          "1000",
	":VOLTage:SLEW:RATE":                  "1.0",
	":CURRent:SLEW:RATE":                  "0.1",
	":VOLTage:PROTection:LEVel":           "33.0",
	":CURRent:PROTection:LEVel":           "3.3",
	":SENSe:TEMPerature:PROTection:LEVel": "85",
	":POWer:PROTection:LEVel":             "150",
	":FUNCtion:MODE":                      "CURR",
	":RESistance":                         "1000",
	":POWer":                              "0",
	":CURRent:STATic":                     "0",
	":CURRent:TRANsient:LEVel":            "0",
	":CURRent:TRANsient:PULSe:WIDTh":      "0.001",
	":SENSe:FREQuency:CENTer":             "1.0E+09",
	":SENSe:FREQuency:SPAN":               "1.0E+08",
	":SENSe:FREQuency:STARt":              "9.5E+08",
	":SENSe:FREQuency:STOP":               "1.05E+09",
	":SENSe:SWEep:POINts":                 "201",
	":SOURce:POWer:LEVel":                 "-10",
	":SENSe:BANDwidth:RESolution":         "1.0E+04",
	":SENSe:BANDwidth:VIDeo":              "1.0E+04",
	":CALCulate:SELected:FORMat":          "MLOG",
	":CALCulate#:PARameter#:DEFine":       `"S21"`,
	":DISPlay:WINDow#:TRACe#:FEED":        `"S21"`,
	":ACQuire:STATe":                      "RUN",
}

func (in *Instrument) buildRoutes() []route {
	routes := []route{
		{"*IDN?", func(in *Instrument, req request) *reply { return textReply("%s", in.idn) }},
		{"*OPT?", func(in *Instrument, req request) *reply { return textReply("%s", in.options) }},
		{"*OPC?", func(in *Instrument, req request) *reply { return textReply("1") }},
		{"*RST", (*Instrument).resetCommand},
		{"*CLS", (*Instrument).clearStatus},
		{":SYSTem:ERRor?", (*Instrument).popError},

		{":OUTPut", func(in *Instrument, req request) *reply { return in.setSwitch(req, &in.output) }},
		{":OUTPut?", func(in *Instrument, req request) *reply { return boolReply(in.output) }},
		{":OUTPut:STATe", func(in *Instrument, req request) *reply { return in.setSwitch(req, &in.output) }},
		{":OUTPut:STATe?", func(in *Instrument, req request) *reply { return boolReply(in.output) }},
		{":INPut", func(in *Instrument, req request) *reply { return in.setSwitch(req, &in.input) }},
		{":INPut?", func(in *Instrument, req request) *reply { return boolReply(in.input) }},
		{":VOLTage", func(in *Instrument, req request) *reply { return in.setLevel(req, &in.voltage) }},
		{":VOLTage?", func(in *Instrument, req request) *reply { return numberReply(in.voltage) }},
		{":CURRent", func(in *Instrument, req request) *reply { return in.setLevel(req, &in.current) }},
		{":CURRent?", func(in *Instrument, req request) *reply { return numberReply(in.current) }},

		{":MEASure:VOLTage:DC?", (*Instrument).measureVoltage},
		{":MEASure:VOLTage?", (*Instrument).measureVoltage},
		{":MEASure:VOLTage:AC?", fixedNumber(0)},
		{":MEASure:CURRent:DC?", (*Instrument).measureCurrent},
		{":MEASure:CURRent?", (*Instrument).measureCurrent},
		{":MEASure:CURRent:AC?", fixedNumber(0)},
		{":MEASure:RESistance?", fixedNumber(loadOhms)},
		{":MEASure:FRESistance?", fixedNumber(loadOhms - 0.05)},
		{":MEASure:CONTinuity?", fixedNumber(0.05)},
		{":MEASure:DIODe?", fixedNumber(0.612)},
		{":MEASure:FREQuency?", waveformStat(statFrequency)},
		{":MEASure:PERiod?", waveformStat(statPeriod)},
		{":MEASure:VPP?", waveformStat(statPeakToPeak)},
		{":MEASure:VRMS?", waveformStat(statRMS)},
		{":MEASure:VMAX?", waveformStat(statMax)},
		{":MEASure:VMIN?", waveformStat(statMin)},

		{":RUN", acquire("RUN")},
		{":STOP", acquire("STOP")},
		{":SINGle", acquire("SINGLE")},
		{":SETup?", (*Instrument).setup},

		{":WAVeform:FORMat", (*Instrument).setWaveFormat},
		{":WAVeform:FORMat?", func(in *Instrument, req request) *reply { return textReply("%s", in.waveFormat) }},
		{":WAVeform:PREamble?", (*Instrument).preamble},
		{":WAVeform:DATA?", (*Instrument).waveformData},
		{":DISPlay:DATA?", (*Instrument).screen},

		{":CALCulate:MARKer#:X?", (*Instrument).markerX},
		{":CALCulate:MARKer#:Y?", fixedNumber(defaultMarkerLevelDB)},
		{":CALCulate:SELected:DATA:FDATa?", (*Instrument).traceData},
	}

	patterns := make([]string, 0, len(settingDefaults))
	for pattern := range settingDefaults {
		patterns = append(patterns, pattern)
	}
	sort.Strings(patterns)
	for _, pattern := range patterns {
		key := pattern
		routes = append(routes,
			route{key, func(in *Instrument, req request) *reply { return in.set(key, req) }},
			route{key + "?", func(in *Instrument, req request) *reply { return in.get(key, req) }},
		)
	}
	return routes
}

// Execute runs one program message and returns the bytes to send back,
// terminated by a newline. ok is false when nothing should be sent.
func (in *Instrument) Execute(line string) ([]byte, bool) {
	in.mu.Lock()
	defer in.mu.Unlock()

	var out []byte
	replied := false
	for _, cmd := range splitProgram(line) {
		r := in.execute(cmd)
		if r == nil {
			continue
		}
		if replied {
			out = append(out, ';')
		}
		replied = true
		if r.block != nil {
			out = append(out, visa.EncodeBlock(r.block)...)
		} else {
			out = append(out, r.text...)
		}
	}

	if !replied {
		return nil, false
	}
	return append(out, '\n'), true
}

func (in *Instrument) execute(cmd string) *reply {
	header, args := splitCommand(cmd)
	for _, rt := range in.routes {
		if suffixes, ok := matchHeader(rt.pattern, header); ok {
			return rt.fn(in, request{args: args, suffixes: suffixes})
		}
	}
	in.pushError(errUndefinedHeader)
	return nil
}

func (in *Instrument) reset() {
	in.settings = make(map[string]string, len(settingDefaults))
	for k, v := range settingDefaults {
		in.settings[settingKey(k, []string{"1", "1"})] = v
	}
	in.output = false
	in.input = false
	in.voltage = 0
	in.current = 0.1
	in.waveFormat = "BYTE"
}

func (in *Instrument) resetCommand(req request) *reply {
	in.reset()
	return nil
}

func (in *Instrument) clearStatus(req request) *reply {
	in.errors = nil
	return nil
}

func acquire(state string) handler {
	return func(in *Instrument, req request) *reply {
		in.settings[":ACQuire:STATe"] = state
		return nil
	}
}

func (in *Instrument) pushError(entry string) {
	if len(in.errors) >= maxErrorQueue {
		in.errors[len(in.errors)-1] = errQueueOverflow
		return
	}
	in.errors = append(in.errors, entry)
}

func (in *Instrument) popError(req request) *reply {
	if len(in.errors) == 0 {
		return textReply("%s", noError)
	}
	entry := in.errors[0]
	in.errors = in.errors[1:]
	return textReply("%s", entry)
}

func (in *Instrument) set(pattern string, req request) *reply {
	if req.args == "" {
		in.pushError(errMissingParameter)
		return nil
	}
	in.settings[settingKey(pattern, req.suffixes)] = req.args
	return nil
}

func (in *Instrument) get(pattern string, req request) *reply {
	if v, ok := in.settings[settingKey(pattern, req.suffixes)]; ok {
		return textReply("%s", v)
	}
	return textReply("%s", settingDefaults[pattern])
}

// settingKey fills the numeric suffixes of pattern, so CHANnel1 and
// CHANnel2 hold separate values.
func settingKey(pattern string, suffixes []string) string {
	if len(suffixes) == 0 {
		return pattern
	}
	var b strings.Builder
	n := 0
	for i := 0; i < len(pattern); i++ {
		if pattern[i] == '#' && n < len(suffixes) {
			b.WriteString(suffixes[n])
			n++
			continue
		}
		b.WriteByte(pattern[i])
	}
	return b.String()
}

func (in *Instrument) setSwitch(req request, target *bool) *reply {
	switch strings.ToUpper(req.args) {
	case "ON", "1":
		*target = true
	case "OFF", "0":
		*target = false
	case "":
		in.pushError(errMissingParameter)
	default:
		in.pushError(errIllegalParameter)
	}
	return nil
}

func (in *Instrument) setLevel(req request, target *float64) *reply {
	if req.args == "" {
		in.pushError(errMissingParameter)
		return nil
	}
	v, err := strconv.ParseFloat(req.args, 64)
	if err != nil {
		in.pushError(errIllegalParameter)
		return nil
	}
	*target = v
	return nil
}

func (in *Instrument) setWaveFormat(req request) *reply {
	switch strings.ToUpper(req.args) {
	case "ASC", "ASCII":
		in.waveFormat = "ASCII"
	case "BYTE":
		in.waveFormat = "BYTE"
	case "":
		in.pushError(errMissingParameter)
	default:
		in.pushError(errIllegalParameter)
	}
	return nil
}

func (in *Instrument) measureVoltage(req request) *reply {
	if !in.output {
		return numberReply(0)
	}
	return numberReply(in.voltage)
}

func (in *Instrument) measureCurrent(req request) *reply {
	if !in.output {
		return numberReply(0)
	}
	return numberReply(math.Min(in.current, in.voltage/loadOhms))
}

type stat int

const (
	statFrequency stat = iota
	statPeriod
	statPeakToPeak
	statRMS
	statMax
	statMin
)

// waveformStat measures the captured sine wave. The channel argument is
// accepted but every channel carries the same signal.
func waveformStat(kind stat) handler {
	return func(in *Instrument, req request) *reply {
		lo, hi := in.samples[0], in.samples[0]
		var sumSquares float64
		for _, s := range in.samples {
			if s < lo {
				lo = s
			}
			if s > hi {
				hi = s
			}
			v := waveformYInc * float64(s-waveformYRef)
			sumSquares += v * v
		}

		period := samplesPerCycle * waveformXInc
		switch kind {
		case statFrequency:
			return numberReply(1 / period)
		case statPeriod:
			return numberReply(period)
		case statPeakToPeak:
			return numberReply(waveformYInc * float64(hi-lo))
		case statRMS:
			return numberReply(math.Sqrt(sumSquares / float64(len(in.samples))))
		case statMax:
			return numberReply(waveformYInc * float64(hi-waveformYRef))
		default:
			return numberReply(waveformYInc * float64(lo-waveformYRef))
		}
	}
}

func (in *Instrument) preamble(req request) *reply {
	format := 0
	if in.waveFormat == "ASCII" {
		format = 4
	}
	values := []float64{
		float64(format), 0, float64(len(in.samples)), 1, 0,
		waveformXInc, 0, waveformYInc, waveformYRef, 0,
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return textReply("%s", strings.Join(parts, ","))
}

func (in *Instrument) waveformData(req request) *reply {
	if in.waveFormat == "ASCII" {
		parts := make([]string, len(in.samples))
		for i, s := range in.samples {
			parts[i] = strconv.Itoa(s)
		}
		return textReply("%s", strings.Join(parts, ","))
	}

	data := make([]byte, len(in.samples))
	for i, s := range in.samples {
		data[i] = byte(s)
	}
	return &reply{block: data}
}

func (in *Instrument) screen(req request) *reply {
	format := strings.ToUpper(strings.TrimSpace(req.args))
	if format == "" {
		format = "PNG"
	}
	if format == "JPG" {
		format = "JPEG"
	}
	data, ok := in.screens[format]
	if !ok {
		in.pushError(errIllegalParameter)
		return nil
	}
	return &reply{block: data}
}

func (in *Instrument) setup(req request) *reply {
	keys := make([]string, 0, len(in.settings))
	for k := range in.settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + " " + in.settings[k]
	}
	return textReply("%s", strings.Join(parts, ";"))
}

func (in *Instrument) markerX(req request) *reply {
	center, err := strconv.ParseFloat(in.settings[":SENSe:FREQuency:CENTer"], 64)
	if marker := req.suffixes[0]; marker != "1" && err == nil {
		n, _ := strconv.Atoi(marker)
		span, spanErr := strconv.ParseFloat(in.settings[":SENSe:FREQuency:SPAN"], 64)
		if spanErr == nil {
			center += float64(n-1) * span / 10
		}
	}
	if err != nil {
		center = defaultCenterFreqHz
	}
	return numberReply(center)
}

func (in *Instrument) traceData(req request) *reply {
	points, err := strconv.Atoi(in.settings[":SENSe:SWEep:POINts"])
	if err != nil || points <= 0 {
		points = defaultSweepPoints
	}

	parts := make([]string, points)
	for i := range parts {
		x := float64(i)/float64(points) - 0.5
		parts[i] = formatNumber(-3 - 40*x*x)
	}
	return textReply("%s", strings.Join(parts, ","))
}

func fixedNumber(v float64) handler {
	return func(in *Instrument, req request) *reply {
		return numberReply(v)
	}
}

func numberReply(v float64) *reply {
	return textReply("%s", formatNumber(v))
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'E', 6, 64)
}

func boolReply(on bool) *reply {
	if on {
		return textReply("1")
	}
	return textReply("0")
}

// sineSamples returns two cycles of a sine wave as unsigned byte codes.
func sineSamples() []int {
	samples := make([]int, waveformPoints)
	for i := range samples {
		phase := 2 * math.Pi * float64(i) / samplesPerCycle
		samples[i] = waveformYRef + int(math.Round(waveformAmplCode*math.Sin(phase)))
	}
	return samples
}
