package pico

// The device frames every TCP command with a CRC-16/MCRF4XX checksum:
// reflected polynomial 0x8408, initial value 0xFFFF, no final XOR.
const crcPoly uint16 = 0x8408

// Checksum computes the device checksum over data.
func Checksum(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		crc ^= uint16(b)
		for i := 0; i < 8; i++ {
			if crc&1 != 0 {
				crc = (crc >> 1) ^ crcPoly
			} else {
				crc >>= 1
			}
		}
	}
	return crc
}
