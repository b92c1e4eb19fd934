package audio

import (
	"encoding/binary"
	"fmt"
)

// WAVInfo describes the PCM payload of a RIFF/WAVE file.
type WAVInfo struct {
	SampleRate    int
	Channels      int
	BitsPerSample int

	// DataOffset and DataSize locate the raw sample bytes within the file.
	DataOffset int
	DataSize   int
}

// ParseWAVHeader reads the fmt and data chunks of a WAV file. Only
// uncompressed PCM (format tag 1) is supported.
func ParseWAVHeader(b []byte) (WAVInfo, error) {
	if len(b) < 12 || string(b[0:4]) != "RIFF" || string(b[8:12]) != "WAVE" {
		return WAVInfo{}, fmt.Errorf("not a RIFF/WAVE file")
	}

	info := WAVInfo{}
	sawFmt := false

	offset := 12
	for offset+8 <= len(b) {
		chunkID := string(b[offset : offset+4])
		chunkSize := int(binary.LittleEndian.Uint32(b[offset+4 : offset+8]))
		body := offset + 8

		switch chunkID {
		case "fmt ":
			if body+16 > len(b) {
				return WAVInfo{}, fmt.Errorf("truncated fmt chunk")
			}
			if tag := binary.LittleEndian.Uint16(b[body : body+2]); tag != 1 {
				return WAVInfo{}, fmt.Errorf("unsupported format tag %d, want PCM", tag)
			}
			info.Channels = int(binary.LittleEndian.Uint16(b[body+2 : body+4]))
			info.SampleRate = int(binary.LittleEndian.Uint32(b[body+4 : body+8]))
			info.BitsPerSample = int(binary.LittleEndian.Uint16(b[body+14 : body+16]))
			sawFmt = true

		case "data":
			if !sawFmt {
				return WAVInfo{}, fmt.Errorf("data chunk before fmt chunk")
			}
			if body+chunkSize > len(b) {
				chunkSize = len(b) - body
			}
			info.DataOffset = body
			info.DataSize = chunkSize
			return info, nil
		}

		// Chunks are word-aligned.
		offset = body + chunkSize + chunkSize%2
	}

	return WAVInfo{}, fmt.Errorf("no data chunk found")
}
