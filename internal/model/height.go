package model

import "strconv"

// Height is a physical Z height used as a lookup key. It marshals as
// text so maps keyed by it survive JSON encoding.
type Height float64

func (h Height) String() string {
	return strconv.FormatFloat(float64(h), 'f', -1, 64)
}

func (h Height) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *Height) UnmarshalText(b []byte) error {
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return err
	}
	*h = Height(v)
	return nil
}
