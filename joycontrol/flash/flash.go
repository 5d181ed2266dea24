// Package flash emulates the read-only SPI flash the console inspects while
// pairing: serial number, body colours and the factory calibration blocks.
//
// https://github.com/dekuNukem/Nintendo_Switch_Reverse_Engineering/blob/master/spi_flash_notes.md
package flash

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrUnmappedAddress = errors.New("unmapped flash address")
	errOverlap         = errors.New("overlapping flash regions")
)

// Region is a run of bytes starting at Address.
type Region struct {
	Address uint32
	Data    []byte
}

func (r Region) end() uint64 {
	return uint64(r.Address) + uint64(len(r.Data))
}

// Store is immutable once built and safe for concurrent reads.
type Store struct {
	regions []Region
}

func New(regions ...Region) (*Store, error) {
	rs := make([]Region, 0, len(regions))
	for _, r := range regions {
		if len(r.Data) == 0 {
			continue
		}
		rs = append(rs, Region{Address: r.Address, Data: append([]byte(nil), r.Data...)})
	}
	sort.Slice(rs, func(i, j int) bool { return rs[i].Address < rs[j].Address })

	for i := 1; i < len(rs); i++ {
		if uint64(rs[i].Address) < rs[i-1].end() {
			return nil, fmt.Errorf("%w: 0x%04X and 0x%04X", errOverlap, rs[i-1].Address, rs[i].Address)
		}
	}
	return &Store{regions: rs}, nil
}

// Read returns a copy of [address, address+length). Reads may cross from one
// region into the next as long as no byte in between is unmapped.
func (s *Store) Read(address, length uint32) ([]byte, error) {
	start := uint64(address)
	end := start + uint64(length)

	idx := sort.Search(len(s.regions), func(i int) bool {
		return s.regions[i].end() > start
	})
	if idx == len(s.regions) || uint64(s.regions[idx].Address) > start {
		return nil, fmt.Errorf("%w: 0x%04X+%d", ErrUnmappedAddress, address, length)
	}

	out := make([]byte, 0, length)
	cursor := start
	for ; idx < len(s.regions) && cursor < end; idx++ {
		r := s.regions[idx]
		if uint64(r.Address) != cursor && cursor != start {
			break
		}
		from := cursor - uint64(r.Address)
		to := min(end, r.end()) - uint64(r.Address)
		out = append(out, r.Data[from:to]...)
		cursor = uint64(r.Address) + to
	}
	if cursor < end {
		return nil, fmt.Errorf("%w: 0x%04X+%d", ErrUnmappedAddress, address, length)
	}
	return out, nil
}

// IsCalibration reports whether address falls in the factory or user
// calibration windows.
func (s *Store) IsCalibration(address uint32) bool {
	return (address >= FactoryCalibrationStart && address < FactoryCalibrationEnd) ||
		(address >= UserCalibrationStart && address < UserCalibrationEnd)
}
