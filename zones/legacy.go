package zones

import (
	"bytes"
	"strconv"

	"github.com/LdDl/hive-mot/mot"
	"github.com/pkg/errors"
)

// ParseLegacy parses tuple-literal dictionary of the older calibration tool:
//
//	{'20240501': ((412.5, 300), (220, 90), 12.5), '20240502': ((410, 301), (221, 90), 12)}
//
// Nothing is evaluated: the grammar is fixed and any other content is an error.
func ParseLegacy(data []byte) (map[string]mot.Zone, error) {
	s := &legacyScanner{data: data}
	zones, err := s.dict()
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidZoneFile, "legacy format, offset %d: %s", s.pos, err.Error())
	}
	return zones, nil
}

// isLegacy reports whether data looks like tuple-literal dictionary rather than JSON
func isLegacy(data []byte) bool {
	s := &legacyScanner{data: data}
	if !s.accept('{') {
		return false
	}
	s.skipSpaces()
	if s.peek() == '\'' {
		return true
	}
	if s.peek() != '"' {
		return false
	}
	end := bytes.IndexByte(data[s.pos+1:], '"')
	if end < 0 {
		return false
	}
	s.pos += end + 2
	return s.accept(':') && s.accept('(')
}

type legacyScanner struct {
	data []byte
	pos  int
}

func (s *legacyScanner) skipSpaces() {
	for s.pos < len(s.data) {
		switch s.data[s.pos] {
		case ' ', '\t', '\n', '\r':
			s.pos++
		default:
			return
		}
	}
}

func (s *legacyScanner) peek() byte {
	if s.pos >= len(s.data) {
		return 0
	}
	return s.data[s.pos]
}

// accept skips spaces and consumes c if it is next
func (s *legacyScanner) accept(c byte) bool {
	s.skipSpaces()
	if s.peek() != c {
		return false
	}
	s.pos++
	return true
}

func (s *legacyScanner) expect(c byte) error {
	if !s.accept(c) {
		if s.pos >= len(s.data) {
			return errors.Errorf("expected '%c', got end of input", c)
		}
		return errors.Errorf("expected '%c', got '%c'", c, s.peek())
	}
	return nil
}

func (s *legacyScanner) dict() (map[string]mot.Zone, error) {
	if err := s.expect('{'); err != nil {
		return nil, err
	}
	zones := make(map[string]mot.Zone)
	for !s.accept('}') {
		date, err := s.str()
		if err != nil {
			return nil, err
		}
		if _, ok := zones[date]; ok {
			return nil, errors.Errorf("duplicate key '%s'", date)
		}
		if err := s.expect(':'); err != nil {
			return nil, err
		}
		zone, err := s.zone()
		if err != nil {
			return nil, errors.Wrapf(err, "key '%s'", date)
		}
		zones[date] = zone
		if s.accept(',') {
			continue
		}
		if err := s.expect('}'); err != nil {
			return nil, err
		}
		break
	}
	s.skipSpaces()
	if s.pos != len(s.data) {
		return nil, errors.New("unexpected content after dictionary")
	}
	return zones, nil
}

func (s *legacyScanner) str() (string, error) {
	s.skipSpaces()
	quote := s.peek()
	if quote != '\'' && quote != '"' {
		return "", errors.New("expected quoted key")
	}
	end := bytes.IndexByte(s.data[s.pos+1:], quote)
	if end < 0 {
		return "", errors.New("unterminated string")
	}
	value := string(s.data[s.pos+1 : s.pos+1+end])
	s.pos += end + 2
	return value, nil
}

// zone parses ((x, y), (w, h), rotation)
func (s *legacyScanner) zone() (mot.Zone, error) {
	if err := s.expect('('); err != nil {
		return mot.Zone{}, err
	}
	center, err := s.pair()
	if err != nil {
		return mot.Zone{}, errors.Wrap(err, "center")
	}
	if err := s.expect(','); err != nil {
		return mot.Zone{}, err
	}
	axes, err := s.pair()
	if err != nil {
		return mot.Zone{}, errors.Wrap(err, "axes")
	}
	if err := s.expect(','); err != nil {
		return mot.Zone{}, err
	}
	rotation, err := s.number()
	if err != nil {
		return mot.Zone{}, errors.Wrap(err, "rotation")
	}
	s.accept(',')
	if err := s.expect(')'); err != nil {
		return mot.Zone{}, err
	}
	return mot.NewZone(mot.NewPoint(center[0], center[1]), axes[0], axes[1], rotation), nil
}

func (s *legacyScanner) pair() ([2]float64, error) {
	var out [2]float64
	if err := s.expect('('); err != nil {
		return out, err
	}
	var err error
	if out[0], err = s.number(); err != nil {
		return out, err
	}
	if err := s.expect(','); err != nil {
		return out, err
	}
	if out[1], err = s.number(); err != nil {
		return out, err
	}
	s.accept(',')
	return out, s.expect(')')
}

func (s *legacyScanner) number() (float64, error) {
	s.skipSpaces()
	start := s.pos
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		if (c >= '0' && c <= '9') || c == '.' || c == '-' || c == '+' || c == 'e' || c == 'E' {
			s.pos++
			continue
		}
		break
	}
	if start == s.pos {
		return 0, errors.New("expected number")
	}
	text := string(s.data[start:s.pos])
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, errors.Errorf("bad number '%s'", text)
	}
	return v, nil
}
