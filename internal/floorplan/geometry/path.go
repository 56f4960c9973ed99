package geometry

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"floorplan-service/internal/floorplan/models"
)

// ============================================================
// Path Parser
// ============================================================

var (
	pathCommandRe = regexp.MustCompile(`([MmLlHhVvZz])([^MmLlHhVvZz]*)`)
	pathNumberRe  = regexp.MustCompile(`[-+]?(?:\d+\.?\d*|\.\d+)(?:[eE][-+]?\d+)?`)
)

// ParsePath turns the straight-line subset of SVG path data (M, L, H, V, Z and
// their relative forms) into one vertex list per subpath. Z repeats the start
// of the current subpath. Subpaths that only move the pen are dropped.
func ParsePath(d string) ([][]models.Point, error) {
	d = strings.TrimSpace(d)
	if d == "" {
		return nil, fmt.Errorf("empty path")
	}
	if c := d[0]; c != 'M' && c != 'm' {
		return nil, fmt.Errorf("path must start with a moveto, got %q", c)
	}

	var subpaths [][]models.Point
	var current []models.Point
	var x, y float64
	var start models.Point

	flush := func() {
		if len(current) > 1 {
			subpaths = append(subpaths, current)
		}
		current = nil
	}
	lineTo := func(nx, ny float64) {
		if current == nil {
			// drawing after Z without a new M continues from the subpath start
			current = []models.Point{start}
		}
		x, y = nx, ny
		current = append(current, models.Point{X: x, Y: y})
	}

	for _, m := range pathCommandRe.FindAllStringSubmatchIndex(d, -1) {
		cmd := d[m[2]:m[3]]
		coords, err := parseCoords(d[m[4]:m[5]])
		if err != nil {
			return nil, fmt.Errorf("command %s: %w", cmd, err)
		}

		switch cmd {
		case "M", "m":
			if len(coords) == 0 || len(coords)%2 != 0 {
				return nil, fmt.Errorf("command %s needs coordinate pairs, got %d values", cmd, len(coords))
			}
			flush()
			if cmd == "m" {
				x, y = x+coords[0], y+coords[1]
			} else {
				x, y = coords[0], coords[1]
			}
			start = models.Point{X: x, Y: y}
			current = []models.Point{start}
			// implicit repeats: "M 0 0 10 0 10 10"
			for i := 2; i+1 < len(coords); i += 2 {
				if cmd == "m" {
					lineTo(x+coords[i], y+coords[i+1])
				} else {
					lineTo(coords[i], coords[i+1])
				}
			}
		case "L", "l":
			if len(coords) == 0 || len(coords)%2 != 0 {
				return nil, fmt.Errorf("command %s needs coordinate pairs, got %d values", cmd, len(coords))
			}
			for i := 0; i+1 < len(coords); i += 2 {
				if cmd == "l" {
					lineTo(x+coords[i], y+coords[i+1])
				} else {
					lineTo(coords[i], coords[i+1])
				}
			}
		case "H", "h":
			if len(coords) == 0 {
				return nil, fmt.Errorf("command %s needs a value", cmd)
			}
			for _, c := range coords {
				if cmd == "h" {
					c += x
				}
				lineTo(c, y)
			}
		case "V", "v":
			if len(coords) == 0 {
				return nil, fmt.Errorf("command %s needs a value", cmd)
			}
			for _, c := range coords {
				if cmd == "v" {
					c += y
				}
				lineTo(x, c)
			}
		case "Z", "z":
			if len(coords) != 0 {
				return nil, fmt.Errorf("command %s takes no values", cmd)
			}
			if current != nil {
				current = append(current, start)
			}
			flush()
			x, y = start.X, start.Y
		}
	}
	flush()

	if len(subpaths) == 0 {
		return nil, fmt.Errorf("path %q has no drawable vertices", d)
	}
	return subpaths, nil
}

// parseCoords reads the numbers of one command. Numbers may run together
// ("10-5", ".5.5"); anything left over besides commas and whitespace is an error.
func parseCoords(s string) ([]float64, error) {
	locs := pathNumberRe.FindAllStringIndex(s, -1)

	coords := make([]float64, 0, len(locs))
	prev := 0
	for _, loc := range locs {
		if gap := strings.Trim(s[prev:loc[0]], ", \t\r\n"); gap != "" {
			return nil, fmt.Errorf("unexpected %q in path data", gap)
		}
		v, err := strconv.ParseFloat(s[loc[0]:loc[1]], 64)
		if err != nil {
			return nil, fmt.Errorf("number %q: %w", s[loc[0]:loc[1]], err)
		}
		coords = append(coords, v)
		prev = loc[1]
	}
	if rest := strings.Trim(s[prev:], ", \t\r\n"); rest != "" {
		return nil, fmt.Errorf("unexpected %q in path data", rest)
	}
	return coords, nil
}
