// Package relay drives the relay bank behind an I2C port expander.
package relay

import (
	"errors"
	"fmt"

	"github.com/sweeney/club-controller/internal/logic"
)

// Register addresses of the PCA9555-style expander, port 0.
const (
	RegOutput0 byte = 0x02
	RegConfig0 byte = 0x06
)

// Output bits on port 0. Relays are active-low: an energized relay clears its bit.
const (
	BitPower  = 0
	BitLock   = 1
	BitRed    = 2
	BitYellow = 3
	BitGreen  = 4
)

// AllReleased is the register value with every relay de-energized.
const AllReleased byte = 0xFF

// 7-bit addresses outside this range are reserved by the I2C bus standard.
const (
	MinAddress = 0x03
	MaxAddress = 0x77
)

// ErrInvalidAddress is returned for addresses outside MinAddress..MaxAddress.
var ErrInvalidAddress = errors.New("relay: invalid i2c address")

// Bus writes registers on the relay driver.
type Bus interface {
	WriteRegister(reg, value byte) error
	Close() error
}

// Opener opens the bus to the relay driver at addr.
type Opener func(addr uint8) (Bus, error)

// ValidAddress checks addr against the usable 7-bit range.
func ValidAddress(addr uint8) error {
	if addr < MinAddress || addr > MaxAddress {
		return fmt.Errorf("%w: 0x%02x", ErrInvalidAddress, addr)
	}
	return nil
}

// Outputs is the decoded state of each relay.
type Outputs struct {
	Power bool
	Lock  bool
	Lamp  logic.Lamp
}

// Compute derives the relay outputs from a snapshot. With active false the
// bank is passive and every relay stays released.
func Compute(s logic.Snapshot, active bool) Outputs {
	if !active {
		return Outputs{}
	}
	return Outputs{
		Power: logic.ShouldPower(s),
		Lock:  logic.ShouldLock(s),
		Lamp:  logic.LampFor(s),
	}
}

// Register encodes the outputs as the active-low port 0 value.
func (o Outputs) Register() byte {
	v := AllReleased
	for _, b := range []struct {
		on  bool
		bit uint
	}{
		{o.Power, BitPower},
		{o.Lock, BitLock},
		{o.Lamp.Red, BitRed},
		{o.Lamp.Yellow, BitYellow},
		{o.Lamp.Green, BitGreen},
	} {
		if b.on {
			v &^= 1 << b.bit
		}
	}
	return v
}

// Decode is the inverse of Register.
func Decode(v byte) Outputs {
	on := func(bit uint) bool { return v&(1<<bit) == 0 }
	return Outputs{
		Power: on(BitPower),
		Lock:  on(BitLock),
		Lamp: logic.Lamp{
			Red:    on(BitRed),
			Yellow: on(BitYellow),
			Green:  on(BitGreen),
		},
	}
}

// Init releases every relay, then switches port 0 to output. The latch is
// written first so the pins never drive a stale value.
func Init(b Bus) error {
	if err := b.WriteRegister(RegOutput0, AllReleased); err != nil {
		return fmt.Errorf("write output register: %w", err)
	}
	if err := b.WriteRegister(RegConfig0, 0x00); err != nil {
		return fmt.Errorf("write config register: %w", err)
	}
	return nil
}
