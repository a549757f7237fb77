// Package point defines the 2-D point type and its whitespace text format.
package point

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// Point is a pair of coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Sentinel marks history slots that were never written. Inputs are expected
// to be non-negative, so it cannot collide with a real centroid.
var Sentinel = Point{X: -1, Y: -1}

// ErrMalformed is returned for tokens that are not numbers or an odd
// trailing coordinate.
var ErrMalformed = errors.New("point: malformed input")

// ErrUnpaired is returned when the input ends after an x coordinate. It
// wraps ErrMalformed.
var ErrUnpaired = fmt.Errorf("%w: trailing coordinate has no pair", ErrMalformed)

// Scanner reads whitespace separated `x y` pairs in stream order.
type Scanner struct {
	s     *bufio.Scanner
	p     Point
	err   error
	count int
}

// NewScanner returns a Scanner reading from r.
func NewScanner(r io.Reader) *Scanner {
	s := bufio.NewScanner(r)
	s.Split(bufio.ScanWords)
	return &Scanner{s: s}
}

// Scan advances to the next pair. It returns false at the end of input or
// on error; Err distinguishes the two.
func (s *Scanner) Scan() bool {
	if s.err != nil {
		return false
	}
	x, ok := s.next()
	if !ok {
		return false
	}
	y, ok := s.next()
	if !ok {
		if s.err == nil {
			s.err = fmt.Errorf("%w: pair %d", ErrUnpaired, s.count)
		}
		return false
	}
	s.p = Point{X: x, Y: y}
	s.count++
	return true
}

func (s *Scanner) next() (float64, bool) {
	if !s.s.Scan() {
		s.err = s.s.Err()
		return 0, false
	}
	v, err := strconv.ParseFloat(s.s.Text(), 64)
	if err != nil {
		s.err = fmt.Errorf("%w: pair %d: %w", ErrMalformed, s.count, err)
		return 0, false
	}
	return v, true
}

// Point returns the most recent pair read by Scan.
func (s *Scanner) Point() Point {
	return s.p
}

// Count returns the number of pairs read so far.
func (s *Scanner) Count() int {
	return s.count
}

// Err returns the first non-EOF error encountered.
func (s *Scanner) Err() error {
	return s.err
}

// Format appends the text form of p, as used in input files.
func Format(dst []byte, p Point) []byte {
	dst = strconv.AppendFloat(dst, p.X, 'g', -1, 64)
	dst = append(dst, ' ')
	return strconv.AppendFloat(dst, p.Y, 'g', -1, 64)
}
