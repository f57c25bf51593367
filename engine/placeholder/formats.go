package placeholder

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/text/encoding/charmap"

	"github.com/gogpu/cadview/engine"
)

// dwgReleases maps the 6-byte DWG version magic to the product release.
var dwgReleases = map[string]string{
	"AC1012": "AutoCAD R13",
	"AC1014": "AutoCAD R14",
	"AC1015": "AutoCAD 2000",
	"AC1018": "AutoCAD 2004",
	"AC1021": "AutoCAD 2007",
	"AC1024": "AutoCAD 2010",
	"AC1027": "AutoCAD 2013",
	"AC1032": "AutoCAD 2018",
}

// insUnits maps $INSUNITS codes to unit names.
var insUnits = map[int]string{
	0: "Unitless",
	1: "Inches",
	2: "Feet",
	3: "Miles",
	4: "Millimeters",
	5: "Centimeters",
	6: "Meters",
	7: "Kilometers",
}

func parseDWG(data []byte, modTime time.Time) (*drawing, error) {
	if len(data) < 6 {
		return nil, fmt.Errorf("%w: DWG header truncated", engine.ErrCorrupt)
	}
	version := string(data[:6])
	release, ok := dwgReleases[version]
	if !ok {
		return nil, fmt.Errorf("%w: unknown DWG version %q", engine.ErrCorrupt, version)
	}

	b := engine.NewBounds(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 1, 1})
	return &drawing{
		info: engine.Info{
			Format:   "DWG",
			Version:  version,
			Release:  release,
			Author:   "Unknown",
			Created:  modTime,
			Modified: modTime,
			Units:    "Millimeters",
		},
		layers: []string{"0"},
		bounds: b,
		mesh:   engine.BoxMesh(b),
	}, nil
}

// groupPair is one DXF group: an integer code followed by a value line.
type groupPair struct {
	code  int
	value string
}

// record is a run of groups starting with a code 0 group.
type record []groupPair

func (r record) kind() string { return r[0].value }

func (r record) str(code int) (string, bool) {
	for _, p := range r[1:] {
		if p.code == code {
			return p.value, true
		}
	}
	return "", false
}

func (r record) float(code int) float64 {
	s, ok := r.str(code)
	if !ok {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

func (r record) point(base int) mgl64.Vec3 {
	return mgl64.Vec3{r.float(base), r.float(base + 10), r.float(base + 20)}
}

func readRecords(data []byte) ([]record, error) {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	lines := strings.Split(text, "\n")
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines)%2 != 0 {
		return nil, fmt.Errorf("%w: DXF group without value", engine.ErrCorrupt)
	}

	var records []record
	for i := 0; i < len(lines); i += 2 {
		code, err := strconv.Atoi(strings.TrimSpace(lines[i]))
		if err != nil {
			return nil, fmt.Errorf("%w: bad DXF group code at line %d", engine.ErrCorrupt, i+1)
		}
		p := groupPair{code: code, value: strings.TrimSpace(lines[i+1])}
		if code == 0 {
			records = append(records, record{p})
			continue
		}
		if len(records) == 0 {
			return nil, fmt.Errorf("%w: DXF data before first record", engine.ErrCorrupt)
		}
		records[len(records)-1] = append(records[len(records)-1], p)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: empty DXF file", engine.ErrCorrupt)
	}
	return records, nil
}

// dxfHeader holds the header variables the placeholder understands.
type dxfHeader struct {
	version  string
	codepage string
	author   string
	created  float64
	updated  float64
	units    int
	extMin   mgl64.Vec3
	extMax   mgl64.Vec3
	hasExt   int
}

func parseHeader(r record) dxfHeader {
	var h dxfHeader
	var name string
	for _, p := range r[1:] {
		if p.code == 9 {
			name = p.value
			continue
		}
		switch name {
		case "$ACADVER":
			h.version = p.value
		case "$DWGCODEPAGE":
			h.codepage = p.value
		case "$LASTSAVEDBY":
			h.author = p.value
		case "$TDCREATE":
			h.created, _ = strconv.ParseFloat(p.value, 64)
		case "$TDUPDATE":
			h.updated, _ = strconv.ParseFloat(p.value, 64)
		case "$INSUNITS":
			h.units, _ = strconv.Atoi(p.value)
		case "$EXTMIN", "$EXTMAX":
			axis := p.code/10 - 1
			if p.code%10 != 0 || axis < 0 || axis > 2 {
				continue
			}
			f, err := strconv.ParseFloat(p.value, 64)
			if err != nil {
				continue
			}
			if name == "$EXTMIN" {
				h.extMin[axis] = f
			} else {
				h.extMax[axis] = f
			}
			h.hasExt++
		}
	}
	return h
}

// extents returns the header extents when all six coordinates were present
// and describe a non-inverted box. Empty drawings store 1e20/-1e20.
func (h dxfHeader) extents() (engine.Bounds, bool) {
	if h.hasExt < 6 {
		return engine.Bounds{}, false
	}
	for i := 0; i < 3; i++ {
		if h.extMin[i] > h.extMax[i] || math.Abs(h.extMin[i]) >= 1e20 {
			return engine.Bounds{}, false
		}
	}
	return engine.NewBounds(h.extMin, h.extMax), true
}

// decoder returns the function used to decode string values. Files older
// than AutoCAD 2007 (AC1021) store text in their $DWGCODEPAGE.
func (h dxfHeader) decoder() func(string) string {
	if h.version >= "AC1021" || !strings.EqualFold(h.codepage, "ANSI_1252") {
		return func(s string) string { return s }
	}
	dec := charmap.Windows1252.NewDecoder()
	return func(s string) string {
		out, err := dec.String(s)
		if err != nil {
			return s
		}
		return out
	}
}

func parseDXF(data []byte, modTime time.Time) (*drawing, error) {
	records, err := readRecords(data)
	if err != nil {
		return nil, err
	}

	var (
		h       dxfHeader
		section string
		layers  []string
		mesh    = &engine.Mesh{}
	)
	for _, r := range records {
		switch r.kind() {
		case "SECTION":
			section, _ = r.str(2)
			if section == "HEADER" {
				h = parseHeader(r)
			}
		case "ENDSEC":
			section = ""
		case "LAYER":
			if section == "TABLES" {
				if name, ok := r.str(2); ok {
					layers = append(layers, name)
				}
			}
		case "LINE":
			if section == "ENTITIES" {
				addLine(mesh, r.point(10), r.point(11))
			}
		case "3DFACE":
			if section == "ENTITIES" {
				addFace(mesh, r.point(10), r.point(11), r.point(12), r.point(13))
			}
		}
	}

	decode := h.decoder()
	for i, name := range layers {
		layers[i] = decode(name)
	}
	if len(layers) == 0 {
		layers = []string{"0"}
	}

	bounds := mesh.Bounds()
	if ext, ok := h.extents(); ok && len(mesh.Vertices) == 0 {
		bounds = ext
		mesh = engine.BoxMesh(ext)
	}

	units, ok := insUnits[h.units]
	if !ok {
		units = "Unitless"
	}
	info := engine.Info{
		Format:   "DXF",
		Version:  h.version,
		Release:  dwgReleases[h.version],
		Author:   decode(h.author),
		Created:  julianToTime(h.created, modTime),
		Modified: julianToTime(h.updated, modTime),
		Units:    units,
	}
	if info.Author == "" {
		info.Author = "Unknown"
	}

	return &drawing{info: info, layers: layers, bounds: bounds, mesh: mesh}, nil
}

func addLine(m *engine.Mesh, a, b mgl64.Vec3) {
	i := len(m.Vertices)
	m.Vertices = append(m.Vertices, a, b)
	m.Edges = append(m.Edges, [2]int{i, i + 1})
}

func addFace(m *engine.Mesh, a, b, c, d mgl64.Vec3) {
	i := len(m.Vertices)
	m.Vertices = append(m.Vertices, a, b, c)
	m.Triangles = append(m.Triangles, [3]int{i, i + 1, i + 2})
	last := i + 2
	if !d.ApproxEqual(c) {
		m.Vertices = append(m.Vertices, d)
		last = i + 3
		m.Triangles = append(m.Triangles, [3]int{i, i + 2, i + 3})
	}
	for j := i; j < last; j++ {
		m.Edges = append(m.Edges, [2]int{j, j + 1})
	}
	m.Edges = append(m.Edges, [2]int{last, i})
}

// julianToTime converts an AutoCAD Julian date; zero falls back to def.
func julianToTime(jd float64, def time.Time) time.Time {
	if jd <= 0 {
		return def
	}
	secs := (jd - 2440587.5) * 86400
	return time.Unix(0, 0).UTC().Add(time.Duration(secs * float64(time.Second)))
}
