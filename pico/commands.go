package pico

// Outbound command templates. These are protocol constants, not
// configurable; the device ignores commands with a bad checksum.

// sensorCountCommand asks for the highest configured sensor slot index.
var sensorCountCommand = []byte{
	0x00, 0x00, 0x00, 0x00, 0x00, 0xFF, 0x02, 0x04,
	0x8C, 0x55, 0x4B, 0x00, 0x03, 0xFF,
}

// sensorInfoCommand asks for the configuration record of one sensor slot.
// The slot number is substituted at sensorInfoPosOffset.
var sensorInfoCommand = []byte{
	0x00, 0x00, 0x00, 0x00, 0x00, 0xFF, 0x41, 0x04,
	0x8C, 0x55, 0x4B, 0x00, 0x16, 0xFF, 0x00, 0x01,
	0x00, 0x00, 0x00, 0x00, 0xFF, 0x01, 0x03, 0x00,
	0x00, 0x00, 0x00, 0xFF, 0x00, 0x00, 0x00, 0x00,
	0xFF,
}

const sensorInfoPosOffset = 19

// appendChecksum completes an outbound command. The checksum covers every
// template byte except the first and the trailing 0xFF terminator, and is
// appended big-endian.
func appendChecksum(cmd []byte) []byte {
	crc := Checksum(cmd[1 : len(cmd)-1])
	out := make([]byte, len(cmd), len(cmd)+2)
	copy(out, cmd)
	return append(out, byte(crc>>8), byte(crc))
}

func buildSensorCountCommand() []byte {
	return appendChecksum(sensorCountCommand)
}

func buildSensorInfoCommand(pos byte) []byte {
	cmd := make([]byte, len(sensorInfoCommand))
	copy(cmd, sensorInfoCommand)
	cmd[sensorInfoPosOffset] = pos
	return appendChecksum(cmd)
}
