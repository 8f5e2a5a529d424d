package relay

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// I2CBus talks to the relay driver over a host I2C bus.
type I2CBus struct {
	bus i2c.BusCloser
	dev *i2c.Dev
}

// OpenI2C returns an Opener for the named host bus ("" selects the first
// bus found, "1" is /dev/i2c-1 on a Raspberry Pi).
func OpenI2C(busName string) Opener {
	return func(addr uint8) (Bus, error) {
		if err := ValidAddress(addr); err != nil {
			return nil, err
		}
		// host.Init can safely be called multiple times
		if _, err := host.Init(); err != nil {
			return nil, fmt.Errorf("init host drivers: %w", err)
		}
		b, err := i2creg.Open(busName)
		if err != nil {
			return nil, fmt.Errorf("open i2c bus %q: %w", busName, err)
		}
		return &I2CBus{
			bus: b,
			dev: &i2c.Dev{Bus: b, Addr: uint16(addr)},
		}, nil
	}
}

// WriteRegister writes value to reg.
func (b *I2CBus) WriteRegister(reg, value byte) error {
	if _, err := b.dev.Write([]byte{reg, value}); err != nil {
		return fmt.Errorf("i2c write reg 0x%02x: %w", reg, err)
	}
	return nil
}

// Close releases the bus.
func (b *I2CBus) Close() error {
	return b.bus.Close()
}
